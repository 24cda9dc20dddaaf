// Package wallet fetches on-chain balances for the operator's proxy
// wallet over a Polygon JSON-RPC endpoint.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/retry"
)

const (
	// DefaultUSDCContract is the bridged USDC token on Polygon mainnet.
	DefaultUSDCContract = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

	usdcDecimals = 6
)

const balanceOfABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

// Client reads USDC balances from the chain.
type Client struct {
	rpcURL       string
	usdcContract common.Address
	erc20ABI     abi.ABI
	logger       *zap.Logger
}

// Config holds wallet client configuration.
type Config struct {
	RPCURL       string
	USDCContract string // defaults to the Polygon mainnet USDC token
	Logger       *zap.Logger
}

// NewClient creates a wallet client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, errors.New("rpc url cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	contract := cfg.USDCContract
	if contract == "" {
		contract = DefaultUSDCContract
	}

	parsedABI, err := abi.JSON(strings.NewReader(balanceOfABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	return &Client{
		rpcURL:       cfg.RPCURL,
		usdcContract: common.HexToAddress(contract),
		erc20ABI:     parsedABI,
		logger:       cfg.Logger,
	}, nil
}

// BalanceUSDC returns the address's USDC balance in whole dollars.
func (c *Client) BalanceUSDC(ctx context.Context, address string) (float64, error) {
	raw, err := c.RawBalance(ctx, address)
	if err != nil {
		return 0, err
	}

	balance, _ := decimal.NewFromBigInt(raw, -usdcDecimals).Float64()
	c.logger.Debug("usdc-balance-fetched",
		zap.String("address", address),
		zap.Float64("balance-usd", balance))
	return balance, nil
}

// RawBalance returns the address's USDC balance in 6-decimal raw units.
// Transient RPC failures are retried with exponential backoff.
func (c *Client) RawBalance(ctx context.Context, address string) (*big.Int, error) {
	start := time.Now()
	defer func() {
		BalanceFetchDuration.Observe(time.Since(start).Seconds())
	}()

	var raw *big.Int
	err := retry.Do(ctx, rpcMaxAttempts, retry.Exponential{
		Initial:       250 * time.Millisecond,
		Max:           2 * time.Second,
		Multiplier:    2.0,
		JitterPercent: 0.2,
	}, func(ctx context.Context) error {
		var callErr error
		raw, callErr = c.fetchRaw(ctx, address)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

const rpcMaxAttempts = 3

func (c *Client) fetchRaw(ctx context.Context, address string) (*big.Int, error) {
	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		BalanceFetchErrorsTotal.Inc()
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	defer client.Close()

	data, err := c.erc20ABI.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		// Malformed call data never succeeds on retry.
		return nil, retry.Stop(fmt.Errorf("pack ABI: %w", err))
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.usdcContract,
		Data: data,
	}, nil)
	if err != nil {
		BalanceFetchErrorsTotal.Inc()
		return nil, fmt.Errorf("call contract: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}
