package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Logger: zap.NewNop()})
	assert.Error(t, err)

	_, err = NewClient(Config{RPCURL: "https://polygon-rpc.com"})
	assert.Error(t, err)

	client, err := NewClient(Config{
		RPCURL: "https://polygon-rpc.com",
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultUSDCContract, client.usdcContract.Hex())
}

func TestNewClientCustomContract(t *testing.T) {
	client, err := NewClient(Config{
		RPCURL:       "https://polygon-rpc.com",
		USDCContract: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)
	assert.Equal(t, "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", client.usdcContract.Hex())
}
