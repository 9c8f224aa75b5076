package rpc

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"time"

	"charm-dapp-connect/accounts"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps an Ethereum RPC client
type Client struct {
	*ethclient.Client
	URL string
}

// ConnectResult holds the result of an RPC connection attempt
type ConnectResult struct {
	Client *Client
	Error  error
}

// Connect attempts to connect to an Ethereum RPC endpoint
func Connect(url string) ConnectResult {
	return ConnectWithTimeout(url, 8*time.Second)
}

// ConnectWithTimeout attempts to connect with a custom timeout
func ConnectWithTimeout(url string, timeout time.Duration) ConnectResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return ConnectResult{Error: err}
	}
	return ConnectResult{Client: &Client{Client: client, URL: url}}
}

// TokenBalance represents an ERC20 token balance
type TokenBalance struct {
	Symbol   string
	Decimals uint8
	Balance  *big.Int
}

// WatchedToken represents a token to query
type WatchedToken struct {
	Symbol   string
	Decimals uint8
	Address  common.Address
}

// DefaultWatch is the mainnet starter watchlist.
var DefaultWatch = []WatchedToken{
	{Symbol: "USDC", Decimals: 6, Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")},
	{Symbol: "USDT", Decimals: 6, Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")},
}

// Balance is the ethereum balance of one account
type Balance struct {
	AccountID  string
	Address    string
	Wei        *big.Int
	Tokens     []TokenBalance
	LoadedAt   time.Time
	ErrMessage string
}

// LoadBalance fetches ETH and token balances for the account's ethereum address
func LoadBalance(client *Client, acc accounts.Account, watch []WatchedToken) Balance {
	return LoadBalanceWithTimeout(client, acc, watch, 12*time.Second)
}

// LoadBalanceWithTimeout fetches balances with a custom timeout
func LoadBalanceWithTimeout(client *Client, acc accounts.Account, watch []WatchedToken, timeout time.Duration) Balance {
	b := Balance{
		AccountID: acc.ID,
		Wei:       big.NewInt(0),
		LoadedAt:  time.Now(),
	}

	hexAddr, ok := acc.Address(accounts.ChainEthereum)
	if !ok || !common.IsHexAddress(hexAddr) {
		b.ErrMessage = "No ethereum address."
		return b
	}
	addr := common.HexToAddress(hexAddr)
	b.Address = addr.Hex()

	if client == nil || client.Client == nil {
		b.ErrMessage = "No RPC client (set ETH_RPC_URL)."
		return b
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	wei, err := client.BalanceAt(ctx, addr, nil)
	if err != nil {
		b.ErrMessage = "Failed to load ETH balance."
		return b
	}
	b.Wei = wei

	var toks []TokenBalance
	for _, t := range watch {
		bal, err := erc20BalanceOf(ctx, client.Client, t.Address, addr)
		if err != nil {
			continue
		}
		if bal.Sign() > 0 {
			toks = append(toks, TokenBalance{Symbol: t.Symbol, Decimals: t.Decimals, Balance: bal})
		}
	}
	sort.Slice(toks, func(i, j int) bool {
		return strings.ToLower(toks[i].Symbol) < strings.ToLower(toks[j].Symbol)
	})
	b.Tokens = toks
	return b
}

// balanceOf(address) methodID = keccak256("balanceOf(address)")[:4]
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

func erc20BalanceOf(ctx context.Context, client *ethclient.Client, token common.Address, owner common.Address) (*big.Int, error) {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)

	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return big.NewInt(0), nil
	}
	return new(big.Int).SetBytes(out), nil
}
