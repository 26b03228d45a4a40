// Package chain wraps the go-ethereum JSON-RPC client with the pieces every
// dappctl command needs: a signer bound to the chain ID and confirmation
// aware receipt waiting.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/youxinddd/dappctl/logging"
)

const defaultPollInterval = 2 * time.Second

// Backend is everything dappctl asks of a node. Both *ethclient.Client and
// the simulated backend client satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.BlockNumberReader
	ethereum.ChainIDReader
	ethereum.ChainStateReader
}

// Client is a connected node plus the chain ID it reported.
type Client struct {
	backend      Backend
	chainID      *big.Int
	closer       func()
	logger       *log.Logger
	pollInterval time.Duration
}

// Dial connects to rpcURL and fetches the chain ID.
func Dial(ctx context.Context, rpcURL string, logger *log.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	c, err := NewClient(ctx, eth, eth.Close, logger)
	if err != nil {
		eth.Close()
		return nil, err
	}
	return c, nil
}

// NewClient wraps an existing backend. closer may be nil.
func NewClient(ctx context.Context, backend Backend, closer func(), logger *log.Logger) (*Client, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	return &Client{
		backend:      backend,
		chainID:      chainID,
		closer:       closer,
		logger:       logging.Child(logger, "chain"),
		pollInterval: defaultPollInterval,
	}, nil
}

func (c *Client) Backend() Backend {
	return c.backend
}

func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *Client) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// Transactor returns signing options for key bound to ctx.
func (c *Client) Transactor(ctx context.Context, key *ecdsa.PrivateKey) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (c *Client) CallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return n, nil
}

func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", addr.Hex(), err)
	}
	return balance, nil
}

// Close closes the client connection
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}
