package execution

import (
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goccy/go-json"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/types"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// usdcDecimals is the exponent of the USDC and outcome-token raw units.
const usdcDecimals = 6

// OrderClient signs limit orders with the operator's key and submits them
// to the Polymarket CLOB. It implements OrderSubmitter.
type OrderClient struct {
	baseURL       string
	apiKey        string
	secret        string
	passphrase    string
	privateKey    *ecdsa.PrivateKey
	address       string // EOA address (signer)
	proxyAddress  string // proxy address (maker/funder)
	signatureType model.SignatureType
	orderBuilder  builder.ExchangeOrderBuilder
	httpClient    *http.Client
	logger        *zap.Logger
}

// OrderClientConfig holds configuration for the order client.
type OrderClientConfig struct {
	BaseURL       string
	APIKey        string
	Secret        string
	Passphrase    string
	PrivateKey    string
	ProxyAddress  string
	SignatureType int
	Timeout       time.Duration
	Logger        *zap.Logger
}

// NewOrderClient creates an order client. The EOA address is derived from
// the private key.
func NewOrderClient(cfg *OrderClientConfig) (*OrderClient, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, _ := privateKey.Public().(*ecdsa.PublicKey)
	address := crypto.PubkeyToAddress(*publicKey).Hex()

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://clob.polymarket.com"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	// Chain ID 137: Polygon mainnet.
	orderBuilder := builder.NewExchangeOrderBuilderImpl(big.NewInt(137), nil)

	return &OrderClient{
		baseURL:       baseURL,
		apiKey:        cfg.APIKey,
		secret:        cfg.Secret,
		passphrase:    cfg.Passphrase,
		privateKey:    privateKey,
		address:       address,
		proxyAddress:  cfg.ProxyAddress,
		signatureType: model.SignatureType(cfg.SignatureType),
		orderBuilder:  orderBuilder,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        cfg.Logger,
	}, nil
}

// signedOrderJSON is the wire shape of a signed order. Salt and
// signatureType are integers, every other numeric field is a string.
type signedOrderJSON struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Side          string `json:"side"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

type orderResponse struct {
	OrderID      string `json:"orderID"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMsg"`
}

// Submit builds, signs and posts one limit order with a short validity
// window.
func (c *OrderClient) Submit(ctx context.Context, order LimitOrder) (*SubmitResult, error) {
	maker := c.address
	if c.proxyAddress != "" {
		maker = c.proxyAddress
	}

	// Maker gives, taker receives. Buying outcome tokens spends USDC,
	// selling spends tokens.
	usdcAmount := rawAmount(order.Size * order.Price)
	tokenAmount := rawAmount(order.Size)

	side := model.BUY
	makerAmount, takerAmount := usdcAmount, tokenAmount
	if order.Side == "SELL" {
		side = model.SELL
		makerAmount, takerAmount = tokenAmount, usdcAmount
	}

	expiration := time.Now().Add(order.Expiry).Unix()

	orderData := &model.OrderData{
		Maker:         maker,
		Taker:         zeroAddress,
		TokenId:       order.TokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Side:          side,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        c.address,
		Expiration:    fmt.Sprintf("%d", expiration),
		SignatureType: c.signatureType,
	}

	signedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, orderData, model.CTFExchange)
	if err != nil {
		return nil, fmt.Errorf("build order: %w", err)
	}

	c.logger.Debug("order-built",
		zap.String("attempt-id", order.AttemptID),
		zap.String("token-id", order.TokenID),
		zap.String("side", order.Side),
		zap.Float64("price", order.Price),
		zap.Float64("size", order.Size),
		zap.Int64("expiration", expiration))

	return c.postOrder(ctx, signedOrder)
}

func (c *OrderClient) postOrder(ctx context.Context, order *model.SignedOrder) (*SubmitResult, error) {
	sideStr := "BUY"
	if order.Side.Uint64() == uint64(model.SELL) {
		sideStr = "SELL"
	}

	jsonOrder := signedOrderJSON{
		Salt:          order.Salt.Int64(),
		Maker:         order.Maker.Hex(),
		Signer:        order.Signer.Hex(),
		Taker:         order.Taker.Hex(),
		TokenID:       order.TokenId.String(),
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Side:          sideStr,
		Expiration:    order.Expiration.String(),
		Nonce:         order.Nonce.String(),
		FeeRateBps:    order.FeeRateBps.String(),
		SignatureType: int(order.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(order.Signature),
	}

	// The owner field is the API key, not the maker address.
	reqBody, err := json.Marshal(map[string]interface{}{
		"order":     jsonOrder,
		"owner":     c.apiKey,
		"orderType": "GTD",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	requestPath := "/order"
	signature, err := c.hmacSignature(timestamp, http.MethodPost, requestPath, string(reqBody))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+requestPath, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// POLY_ADDRESS is the EOA address derived from the signing key.
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("POLY_API_KEY", c.apiKey)
	req.Header.Set("POLY_SIGNATURE", signature)
	req.Header.Set("POLY_TIMESTAMP", timestamp)
	req.Header.Set("POLY_PASSPHRASE", c.passphrase)
	req.Header.Set("POLY_ADDRESS", c.address)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var orderResp orderResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if orderResp.ErrorMessage == types.ErrNotEnoughBalance {
		c.logger.Warn("order-rejected-insufficient-balance",
			zap.String("order-id", orderResp.OrderID))
	}

	return &SubmitResult{
		OrderID:      orderResp.OrderID,
		ErrorMessage: orderResp.ErrorMessage,
	}, nil
}

// hmacSignature computes the L2 auth signature over
// timestamp + method + path + body using the URL-safe base64 secret.
func (c *OrderClient) hmacSignature(timestamp, method, path, body string) (string, error) {
	secretBytes, err := base64.URLEncoding.DecodeString(c.secret)
	if err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(timestamp + method + path + body))
	return base64.URLEncoding.EncodeToString(h.Sum(nil)), nil
}

// rawAmount converts a human-readable amount to the integer raw unit
// string the exchange contract expects.
func rawAmount(amount float64) string {
	return decimal.NewFromFloat(amount).Shift(usdcDecimals).Round(0).BigInt().String()
}
