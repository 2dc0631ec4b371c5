// Package lock implements TierLock (§4.6): an inter-process advisory lock
// keyed on the hash of a sorted tier-path set, with stale-lock recovery via
// PID liveness checks.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/zeebo/xxh3"
)

// Payload is the diagnostic JSON record written into the lock file on
// successful acquisition (§6.3). The OS-level advisory lock is the actual
// source of truth; this is informational only.
type Payload struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
	Command   string    `json:"command"`
	TierPaths []string  `json:"tier_paths"`
}

// BusyError means another live process already holds the lock for this
// tier set. It is non-retryable within the current invocation.
type BusyError struct {
	OwnerPID  int
	OwnerHost string
	HeldFor   time.Duration
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("lock busy: held by pid %d on %s for %s", e.OwnerPID, e.OwnerHost, e.HeldFor.Round(time.Second))
}

// IOError wraps a failure to create the lock directory or manipulate the
// lock file itself.
type IOError struct {
	Message string
}

func (e *IOError) Error() string { return e.Message }

// Guard represents a held lock. Release must be called on every exit path;
// it releases the OS-level lock and unlinks the file.
type Guard struct {
	fl   *flock.Flock
	path string
}

// Path returns the lock file path this guard holds, useful for logging.
func (g *Guard) Path() string { return g.path }

// Release unlocks and removes the lock file. It is safe to call once; a
// second call is a no-op error from the underlying flock, which callers may
// ignore.
func (g *Guard) Release() error {
	err := g.fl.Unlock()
	_ = os.Remove(g.path)
	return err
}

// PathFor computes the deterministic lock file path for a tier-path set
// under dir, per §6.3: lock-<16-hex>.lock where the hex is a 64-bit hash of
// the sorted tier paths.
func PathFor(dir string, tierPaths []string) string {
	return filepath.Join(dir, fmt.Sprintf("lock-%016x.lock", hashTierPaths(tierPaths)))
}

func hashTierPaths(tierPaths []string) uint64 {
	sorted := append([]string(nil), tierPaths...)
	sort.Strings(sorted)
	return xxh3.HashString(strings.Join(sorted, "\x00"))
}

// TryLock attempts to acquire the lock for tierPaths, creating dir if
// necessary. Before acquisition it attempts stale-lock recovery: if the
// lock file exists but its owning PID is no longer alive, the file is
// removed and acquisition proceeds normally.
func TryLock(dir string, tierPaths []string) (*Guard, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Message: fmt.Sprintf("create lock directory %s: %v", dir, err)}
	}

	sorted := append([]string(nil), tierPaths...)
	sort.Strings(sorted)
	path := PathFor(dir, sorted)

	recoverStaleLock(path)

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, &IOError{Message: fmt.Sprintf("lock %s: %v", path, err)}
	}
	if !locked {
		if owner, err := readPayload(path); err == nil {
			return nil, &BusyError{OwnerPID: owner.PID, OwnerHost: owner.Hostname, HeldFor: time.Since(owner.StartedAt)}
		}
		return nil, &BusyError{}
	}

	payload := Payload{
		PID:       os.Getpid(),
		Hostname:  hostnameOrUnknown(),
		StartedAt: time.Now(),
		Command:   strings.Join(os.Args, " "),
		TierPaths: sorted,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		_ = fl.Unlock()
		return nil, &IOError{Message: err.Error()}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = fl.Unlock()
		return nil, &IOError{Message: fmt.Sprintf("write lock payload: %v", err)}
	}

	return &Guard{fl: fl, path: path}, nil
}

// recoverStaleLock unlinks path if the file exists but is not actually held
// by a live process's OS-level lock (a crash can leave the JSON payload
// behind without the advisory lock surviving, or with the owning process
// since dead). It never reports an error: on any ambiguity it leaves the
// file in place and lets the subsequent TryLock report Busy or succeed
// normally.
func recoverStaleLock(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	probe := flock.New(path)
	locked, err := probe.TryLock()
	if err != nil || !locked {
		return
	}
	defer probe.Unlock()

	payload, err := readPayload(path)
	if err != nil {
		return
	}
	if pidAlive(payload.PID) {
		return
	}
	_ = os.Remove(path)
}

func readPayload(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	alive, err := process.PidExists(int32(pid))
	if err != nil {
		// Can't tell: assume alive so we never steal a live process's lock.
		return true
	}
	return alive
}

func hostnameOrUnknown() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
