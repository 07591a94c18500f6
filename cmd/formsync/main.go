// Command formsync renders and fills admin forms whose autocomplete fields
// follow the values of other fields.
package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-formsync/internal/cli"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := cli.NewRootCommand(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
