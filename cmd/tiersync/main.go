// Command tiersync rebalances files across storage tiers according to a
// YAML configuration of tiers and strategies.
package main

import (
	"os"

	"github.com/tiersync/tiersync/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
