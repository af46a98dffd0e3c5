// blomctl is the operations CLI: user export/import, invite management,
// storage migration, and a purchase-webhook simulator for local testing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blomstudio/blom/internal/config"
	"github.com/blomstudio/blom/internal/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "blomctl",
		Short:         "Operations CLI for the blom e-learning platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		usersCmd(),
		invitesCmd(),
		storageCmd(),
		simulatePurchaseCmd(),
	)

	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig initializes config and logging for commands that need the full
// application environment.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), "")
	return cfg
}
