// Command beach-tennis runs the live court server and its tooling.
//
// Usage:
//
//	beach-tennis serve
//	beach-tennis migrate
//	beach-tennis seed --file seed/demo.yaml
//	beach-tennis referee login 4821
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "beach-tennis",
		Short:         "Beach-tennis live courts and scores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(refereeCmd())
	root.AddCommand(hashPasswordCmd())

	if err := root.Execute(); err != nil {
		newLogger("info").Error("command failed", "error", err)
		os.Exit(1)
	}
}
