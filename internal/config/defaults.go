package config

import "os"

// DefaultConfigPath is used when -c/--config is not given.
const DefaultConfigPath = "./tiersync.yaml"

// DefaultIntervalSeconds is the daemon's default tick interval (§6.2).
const DefaultIntervalSeconds = 3600

// DefaultMoverType is assumed when the mover{} block omits type.
const DefaultMoverType = "rsync"

// defaultLockDir returns the built-in lock directory default: a
// process-wide tmp subdirectory, overridable via the config file's
// lock_dir key.
func defaultLockDir() string {
	return os.TempDir() + "/tiersync-locks"
}

// defaults returns the built-in configuration defaults as a flat map,
// suitable for the first koanf layer, mirroring the teacher's
// profileToFlatMap/DefaultProfile split between "what the defaults are" and
// "how they enter the resolution pipeline".
func defaults() map[string]any {
	return map[string]any{
		"mover.type": DefaultMoverType,
		"lock_dir":   defaultLockDir(),
	}
}
