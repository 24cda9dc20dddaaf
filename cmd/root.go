package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "copytrader",
	Short: "Polymarket copy-trading bot",
	Long: `Polymarket copy-trading bot that follows one or more trader wallets
and mirrors their trades on your own account.

The bot subscribes to the real-time data stream for trade activity of the
tracked wallets, sizes each mirrored order per the configured copy
strategy, and walks the live order book until the target is filled.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
