package rpc

import (
	"context"
	"os"
	"testing"
	"time"

	"charm-dapp-connect/accounts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ethAccount(addr string) accounts.Account {
	return accounts.Account{
		ID:        "A1",
		Addresses: map[accounts.Chain]string{accounts.ChainEthereum: addr, accounts.ChainTon: "UQA1"},
	}
}

func TestLoadBalanceWithoutAddress(t *testing.T) {
	b := LoadBalance(nil, accounts.Account{ID: "T1", Addresses: map[accounts.Chain]string{accounts.ChainTon: "UQT1"}}, nil)
	assert.Equal(t, "No ethereum address.", b.ErrMessage)
	assert.Equal(t, "T1", b.AccountID)
	assert.Zero(t, b.Wei.Sign())

	b = LoadBalance(nil, ethAccount("not-hex"), nil)
	assert.Equal(t, "No ethereum address.", b.ErrMessage)
}

func TestLoadBalanceWithoutClient(t *testing.T) {
	b := LoadBalance(nil, ethAccount("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"), DefaultWatch)
	assert.Contains(t, b.ErrMessage, "No RPC client")
	assert.Equal(t, "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", b.Address)
	assert.False(t, b.LoadedAt.IsZero())
}

func TestConnect(t *testing.T) {
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETH_RPC_URL not set, skipping connection test")
	}

	result := ConnectWithTimeout(rpcURL, 10*time.Second)
	require.NoError(t, result.Error)
	require.NotNil(t, result.Client)
	assert.Equal(t, rpcURL, result.Client.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	chainID, err := result.Client.ChainID(ctx)
	require.NoError(t, err)
	t.Logf("Connected to chain ID: %s", chainID.String())
}

func TestLoadBalance(t *testing.T) {
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETH_RPC_URL not set, skipping balance test")
	}

	result := Connect(rpcURL)
	require.NoError(t, result.Error)

	b := LoadBalance(result.Client, ethAccount("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"), DefaultWatch)
	// rate limiting shows up as an error message, not a failure
	if b.ErrMessage != "" {
		t.Logf("Got error message: %s", b.ErrMessage)
	}
	require.NotNil(t, b.Wei)
	t.Logf("ETH balance (wei): %s, %d tokens", b.Wei.String(), len(b.Tokens))
}
