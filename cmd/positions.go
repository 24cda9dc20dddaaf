package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/gateway"
)

//nolint:gochecknoglobals // Cobra boilerplate
var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Display open positions for a wallet",
	Long: `Fetches current positions from the Data API and prints them.

Defaults to your own proxy wallet (PROXY_WALLET). Pass --address to
inspect a tracked trader instead.

Examples:
  # Your own positions
  copytrader positions

  # A tracked trader's positions
  copytrader positions --address 0xabc...`,
	RunE: runPositions,
}

//nolint:gochecknoglobals // Cobra boilerplate
var positionsAddress string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(positionsCmd)
	positionsCmd.Flags().StringVarP(&positionsAddress, "address", "a", "", "Wallet address (defaults to PROXY_WALLET)")
}

func runPositions(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment")
	}

	address := positionsAddress
	if address == "" {
		address = os.Getenv("PROXY_WALLET")
	}
	if address == "" {
		return fmt.Errorf("no address: pass --address or set PROXY_WALLET")
	}

	client := gateway.NewClient(gateway.Config{
		DataAPIURL: envOrDefault("DATA_API_URL", "https://data-api.polymarket.com"),
		CLOBURL:    envOrDefault("CLOB_HTTP_URL", "https://clob.polymarket.com"),
		Timeout:    10 * time.Second,
		RetryLimit: 3,
		Logger:     zap.NewNop(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	positions, err := client.Positions(ctx, address)
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}

	if len(positions) == 0 {
		fmt.Printf("No open positions for %s\n", address)
		return nil
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].CurrentValue > positions[j].CurrentValue
	})

	fmt.Printf("Positions for %s\n\n", address)
	fmt.Printf("%-40s %-8s %12s %10s %10s %12s %10s\n",
		"MARKET", "OUTCOME", "SIZE", "AVG", "CUR", "VALUE", "PNL")
	for _, p := range positions {
		title := p.Title
		if len(title) > 38 {
			title = title[:35] + "..."
		}
		fmt.Printf("%-40s %-8s %12.2f %10.4f %10.4f %12.2f %+9.2f%%\n",
			title, p.Outcome, p.Size, p.AvgPrice, p.CurPrice, p.CurrentValue, p.PercentPnL)
	}
	fmt.Printf("\n%d positions\n", len(positions))

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
