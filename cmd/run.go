package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/polycopy/copytrader/internal/app"
	"github.com/polycopy/copytrader/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the copy-trading bot",
	Long: `Starts the copy-trading bot, which will:
1. Subscribe to the real-time data stream for the tracked wallets
2. Mirror tracked BUYs sized per the configured copy strategy
3. Mirror tracked SELLs proportionally against your own position
4. Walk the live order book until each target is filled

Set EXECUTION_MODE=paper (the default) to log orders without sending them.`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	return application.Run()
}
