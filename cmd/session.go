package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/account"
	"github.com/youxinddd/dappctl/assertions"
	"github.com/youxinddd/dappctl/chain"
	"github.com/youxinddd/dappctl/config"
	"github.com/youxinddd/dappctl/events"
)

// Workspace and network config names of the well-known contracts.
const (
	blogName        = "blog"
	jsonStorageName = "json-storage"
	nftName         = "nft"
	tokenName       = "token"
)

// dial is replaced in tests with a simulated backend.
var dial = chain.Dial

// connect dials the active network once per invocation.
func connect(ctx context.Context) (*chain.Client, error) {
	if client != nil {
		return client, nil
	}

	network, err := cfg.ActiveNetwork()
	if err != nil {
		return nil, err
	}

	c, err := dial(ctx, network.Host, logger)
	if err != nil {
		return nil, err
	}
	if network.ChainID != 0 && c.ChainID().Uint64() != network.ChainID {
		c.Close()
		return nil, fmt.Errorf("network %s expects chain ID %d, RPC reports %s", network.Name, network.ChainID, c.ChainID())
	}
	c.SetPollInterval(cfg.PollInterval)

	logger.Debug("connected", "network", network.Name, "host", network.Host, "chainID", c.ChainID())
	client = c
	return c, nil
}

// txContext bounds a command that sends transactions by the configured
// timeout.
func txContext(c *cli.Context) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return context.WithCancel(c.Context)
	}
	return context.WithTimeout(c.Context, cfg.Timeout)
}

func loadAccount(ctx context.Context) (*account.Account, error) {
	return account.NewLoader(cfg, logger).Load(ctx, cfg.Account)
}

// signer connects and loads the selected account.
func signer(ctx context.Context) (*chain.Client, *account.Account, *bind.TransactOpts, error) {
	cl, err := connect(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	acct, err := loadAccount(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	opts, err := cl.Transactor(ctx, acct.Key)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Debug("signing as", "account", acct.Name, "address", acct.Address.Hex())
	return cl, acct, opts, nil
}

// submit waits for tx and reports it. A reverted transaction is an error.
func submit(ctx context.Context, w io.Writer, cl *chain.Client, what string, tx *types.Transaction) (*types.Receipt, error) {
	fmt.Fprintf(w, "%s: sent %s\n", what, tx.Hash().Hex())

	start := time.Now()
	receipt, err := cl.WaitMined(ctx, tx, cfg.Confirmations)
	assertions.Always(err == nil, "transaction succeeds", map[string]any{
		"what": what,
		"tx":   tx.Hash().Hex(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		assertions.Unreachable("failed receipt returned without error", map[string]any{
			"what": what,
			"tx":   tx.Hash().Hex(),
		})
		return nil, fmt.Errorf("%s: %w", what, &chain.RevertError{Receipt: receipt})
	}

	fmt.Fprintf(w, "%s: mined in block %d (gas used %d, %s)\n", what, receipt.BlockNumber.Uint64(), receipt.GasUsed, time.Since(start).Round(time.Millisecond))
	return receipt, nil
}

// resolveAddress looks up a well-known contract, honouring --address.
func resolveAddress(c *cli.Context, name string) (common.Address, error) {
	return cfg.ResolveAddress(name, c.String("address"))
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// holderOrSelf parses an address argument, defaulting to the selected
// account.
func holderOrSelf(ctx context.Context, arg string) (common.Address, error) {
	if arg != "" {
		return parseAddress(arg)
	}
	acct, err := loadAccount(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return acct.Address, nil
}

func abiEvent(parsed abi.ABI, name string) (abi.Event, error) {
	ev, ok := parsed.Events[name]
	if !ok {
		return abi.Event{}, fmt.Errorf("event %s not in ABI", name)
	}
	return ev, nil
}

// scanner opens the event cache when possible; the returned func closes it.
func scanner(cl *chain.Client) (*events.Scanner, func()) {
	cache, err := events.OpenCache(cfg.EventCachePath())
	if err != nil {
		logger.Warn("event cache disabled", "error", err)
		return events.NewScanner(cl.Backend(), nil, cfg.CacheFinality, logger), func() {}
	}
	return events.NewScanner(cl.Backend(), cache, cfg.CacheFinality, logger), func() { cache.Close() }
}

// record stores a deployment for the active network.
func record(rec config.DeploymentRecord) error {
	rec.Network = cfg.Network
	if rec.DeployedAt.IsZero() {
		rec.DeployedAt = time.Now().UTC()
	}
	if err := config.SaveDeployment(cfg.DeploymentsPath(), rec); err != nil {
		return fmt.Errorf("failed to save deployment: %w", err)
	}
	return nil
}
