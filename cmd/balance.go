package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check the USDC balance available for trading",
	Long: `Reads the USDC balance of your proxy wallet from the Polygon RPC.

This is the balance the sizing engine works against: mirrored BUYs are
capped at 99% of it.`,
	RunE: runBalanceCheck,
}

//nolint:gochecknoglobals // Cobra boilerplate
var balanceRPC string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceRPC, "rpc", "r", "", "Polygon RPC endpoint (defaults to POLYGON_RPC_URL)")
}

func runBalanceCheck(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment")
	}

	address := os.Getenv("PROXY_WALLET")
	if address == "" {
		return fmt.Errorf("PROXY_WALLET not set")
	}

	rpcURL := balanceRPC
	if rpcURL == "" {
		rpcURL = envOrDefault("POLYGON_RPC_URL", "https://polygon-rpc.com")
	}

	client, err := wallet.NewClient(wallet.Config{
		RPCURL:       rpcURL,
		USDCContract: os.Getenv("USDC_CONTRACT_ADDRESS"),
		Logger:       zap.NewNop(),
	})
	if err != nil {
		return fmt.Errorf("create wallet client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balance, err := client.BalanceUSDC(ctx, address)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	fmt.Printf("Wallet:  %s\n", address)
	fmt.Printf("USDC:    $%.2f\n", balance)

	return nil
}
