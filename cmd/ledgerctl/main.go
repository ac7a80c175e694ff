// Command ledgerctl is the operator CLI: schema migrations, ledger replay,
// balance exports and their archive, ad-hoc ABC analysis and actor tokens.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"inventory-engine/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Init(envOr("APP_ENV", "development"))

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inventory engine operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newArchiveCommand())
	rootCmd.AddCommand(newABCCommand())
	rootCmd.AddCommand(newTokenCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
