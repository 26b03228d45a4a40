package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/assertions"
	"github.com/youxinddd/dappctl/chain"
	"github.com/youxinddd/dappctl/config"
	"github.com/youxinddd/dappctl/contracts"
	"github.com/youxinddd/dappctl/logging"
)

var (
	cfg       *config.Config
	logger    *log.Logger
	client    *chain.Client
	artifacts *contracts.Registry
)

// NewApp creates a new CLI app
func NewApp() *cli.App {
	app := &cli.App{
		Name:  "dappctl",
		Usage: "Deploy and operate the blog, NFT and JSON storage contracts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (default ./dappctl.yaml when present)",
			},
			&cli.StringFlag{
				Name:  "network",
				Usage: "Network name from the config (env: DAPP_NETWORK)",
			},
			&cli.StringFlag{
				Name:  "rpc",
				Usage: "RPC URL, overrides the network host (env: DAPP_RPC)",
			},
			&cli.StringFlag{
				Name:  "account",
				Usage: "Keystore account, workspace role or vault:<secret> (env: DAPP_ACCOUNT)",
			},
			&cli.StringFlag{
				Name:  "workspace",
				Usage: "Workspace directory for accounts, deployments and the event cache",
			},
			&cli.StringFlag{
				Name:  "build-dir",
				Usage: "Compiled contract artifacts (brownie, hardhat or foundry)",
			},
			&cli.Uint64Flag{
				Name:  "confirmations",
				Usage: "Blocks to wait for after a transaction is mined",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Verbose output (env: DAPP_VERBOSE)",
			},
			&cli.BoolFlag{
				Name:  "assertions",
				Usage: "Emit Antithesis assertions (env: DAPP_ASSERTIONS)",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.Load(c.String("config"))
			if err != nil {
				return err
			}

			if c.IsSet("network") {
				cfg.Network = c.String("network")
			}
			if c.IsSet("rpc") {
				cfg.RPC = c.String("rpc")
			}
			if c.IsSet("account") {
				cfg.Account = c.String("account")
			}
			if c.IsSet("workspace") {
				cfg.Workspace = c.String("workspace")
			}
			if c.IsSet("build-dir") {
				cfg.BuildDir = c.String("build-dir")
			}
			if c.IsSet("confirmations") && c.Uint64("confirmations") > 0 {
				cfg.Confirmations = c.Uint64("confirmations")
			}
			if c.IsSet("verbose") {
				cfg.Verbose = c.Bool("verbose")
			}
			if c.IsSet("assertions") {
				cfg.Assertions = c.Bool("assertions")
			}

			logger = logging.New("dappctl", cfg.Verbose)
			assertions.SetEnabled(cfg.Assertions)
			if assertions.Enabled() {
				logger.Debug("antithesis assertions enabled")
			}
			artifacts = contracts.NewRegistry(cfg.BuildDir)

			// the node is dialed on first use, offline commands never connect
			client = nil
			return nil
		},
		After: func(c *cli.Context) error {
			if client != nil {
				client.Close()
				client = nil
			}
			return nil
		},
		Commands: []*cli.Command{
			AccountsCmd,
			DeployCmd,
			BlogCmd,
			JSONCmd,
			NFTCmd,
			TokenCmd,
			ContractCmd,
			EventsCmd,
			CodecCmd,
		},
	}
	return app
}

func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
