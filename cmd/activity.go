package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/gateway"
)

//nolint:gochecknoglobals // Cobra boilerplate
var activityCmd = &cobra.Command{
	Use:   "activity <address>",
	Short: "Show recent trades of a wallet",
	Long: `Fetches recent trade activity of a wallet from the Data API.

Useful for vetting a trader before adding them to TRACKED_ADDRESSES.`,
	Args: cobra.ExactArgs(1),
	RunE: runActivity,
}

//nolint:gochecknoglobals // Cobra boilerplate
var activityLimit int

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().IntVarP(&activityLimit, "limit", "l", 25, "Maximum number of trades to fetch")
}

func runActivity(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment")
	}

	address := args[0]

	client := gateway.NewClient(gateway.Config{
		DataAPIURL: envOrDefault("DATA_API_URL", "https://data-api.polymarket.com"),
		CLOBURL:    envOrDefault("CLOB_HTTP_URL", "https://clob.polymarket.com"),
		Timeout:    10 * time.Second,
		RetryLimit: 3,
		Logger:     zap.NewNop(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	trades, err := client.Activity(ctx, address, activityLimit)
	if err != nil {
		return fmt.Errorf("fetch activity: %w", err)
	}

	if len(trades) == 0 {
		fmt.Printf("No recent trades for %s\n", address)
		return nil
	}

	fmt.Printf("Recent trades for %s\n\n", address)
	fmt.Printf("%-20s %-4s %-40s %-8s %10s %8s %10s\n",
		"TIME", "SIDE", "MARKET", "OUTCOME", "SIZE", "PRICE", "USDC")
	for _, tr := range trades {
		title := tr.Title
		if len(title) > 38 {
			title = title[:35] + "..."
		}
		fmt.Printf("%-20s %-4s %-40s %-8s %10.2f %8.4f %10.2f\n",
			tr.Time().Format("2006-01-02 15:04:05"),
			tr.Side, title, tr.Outcome, tr.Size, tr.Price, tr.Notional())
	}
	fmt.Printf("\n%d trades\n", len(trades))

	return nil
}
