// Command adminkit-migrate applies the embedded schema migrations and seeds
// the first superuser.
//
//	adminkit-migrate up                 # apply all pending migrations
//	adminkit-migrate down               # roll back everything
//	adminkit-migrate steps -- -1        # roll back one migration
//	adminkit-migrate force 1            # mark version 1 as clean
//	adminkit-migrate version
//	adminkit-migrate seed-admin --username admin --password 123456
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cobra.EnableCommandSorting = false
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
