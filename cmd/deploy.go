package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/account"
	"github.com/youxinddd/dappctl/assertions"
	"github.com/youxinddd/dappctl/chain"
	"github.com/youxinddd/dappctl/config"
	"github.com/youxinddd/dappctl/contracts"
)

var DeployCmd = &cli.Command{
	Name:  "deploy",
	Usage: "Deploy contracts and record them in the workspace",
	Subcommands: []*cli.Command{
		{
			Name:   "blog",
			Usage:  "Deploy BlogPlatform behind a proxy initialized with initialize()",
			Action: deployBlog,
		},
		{
			Name:  "json-storage",
			Usage: "Deploy JsonStorageV1 behind a proxy",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "json",
					Usage: "Initial JSON document to store after deployment",
				},
				&cli.StringFlag{
					Name:  "tag",
					Usage: "Action tag of the initial write",
					Value: contracts.InitTag,
				},
			},
			Action: deployJSONStorage,
		},
		{
			Name:  "nft",
			Usage: "Deploy MegaNFTCollection and mint the initial batch to the deployer",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:  "uri",
					Usage: "Token metadata URI to mint (can specify multiple)",
					Value: cli.NewStringSlice(contracts.DefaultTokenURI),
				},
				&cli.BoolFlag{
					Name:  "no-mint",
					Usage: "Only deploy, do not mint",
				},
			},
			Action: deployNFT,
		},
		{
			Name:  "upgrade",
			Usage: "Deploy a new logic contract and point the proxy at it",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "proxy",
					Usage: "Proxy address (default: workspace record or network config)",
				},
			},
			Subcommands: []*cli.Command{
				{
					Name:  "blog",
					Usage: "Upgrade the BlogPlatform proxy",
					Action: func(c *cli.Context) error {
						return upgradeProxy(c, blogName, contracts.BlogPlatform)
					},
				},
				{
					Name:  "json-storage",
					Usage: "Upgrade the JsonStorageV1 proxy",
					Action: func(c *cli.Context) error {
						return upgradeProxy(c, jsonStorageName, contracts.JsonStorageV1)
					},
				},
			},
		},
		{
			Name:      "plan",
			Usage:     "Deploy the contracts of a plan file in dependency order",
			ArgsUsage: "<plan.json>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "redeploy",
					Usage: "Deploy contracts that already have a record on this network",
				},
			},
			Action: deployPlan,
		},
	},
}

// ownable is implemented by the proxied contract wrappers.
type ownable interface {
	Owner(ctx context.Context) (common.Address, error)
	UpgradeTo(opts *bind.TransactOpts, implementation common.Address) (*types.Transaction, error)
}

func deployArtifact(ctx context.Context, w io.Writer, cl *chain.Client, opts *bind.TransactOpts, name string, args ...any) (common.Address, *types.Transaction, *types.Receipt, error) {
	a, err := artifacts.Get(name)
	if err != nil {
		return common.Address{}, nil, nil, err
	}

	addr, tx, err := contracts.Deploy(opts, cl.Backend(), a, args...)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	receipt, err := submit(ctx, w, cl, "deploy "+name, tx)
	if err != nil {
		return common.Address{}, nil, nil, err
	}

	assertions.Always(receipt.ContractAddress == addr, "contract is created at the predicted address", map[string]any{
		"contract":  name,
		"predicted": addr.Hex(),
		"receipt":   receipt.ContractAddress.Hex(),
	})
	return addr, tx, receipt, nil
}

// deployProxied deploys logicName, then a proxy delegating to it whose
// constructor runs initialize(), and records the proxy under name.
func deployProxied(ctx context.Context, w io.Writer, cl *chain.Client, acct *account.Account, opts *bind.TransactOpts, name, logicName string) (logic, proxy common.Address, err error) {
	logic, _, _, err = deployArtifact(ctx, w, cl, opts, logicName)
	if err != nil {
		return
	}

	logicArtifact, err := artifacts.Get(logicName)
	if err != nil {
		return
	}
	initData, err := contracts.InitializeCalldata(logicArtifact)
	if err != nil {
		return
	}
	proxyArtifact, err := artifacts.Get(contracts.MyProxy)
	if err != nil {
		return
	}

	proxy, tx, err := contracts.DeployProxy(opts, cl.Backend(), proxyArtifact, logic, initData)
	if err != nil {
		return
	}
	receipt, err := submit(ctx, w, cl, "deploy "+contracts.MyProxy, tx)
	if err != nil {
		return
	}

	checkImplementation(ctx, cl, proxy, logic)

	err = record(config.DeploymentRecord{
		Name:            name,
		Artifact:        logicName,
		Address:         proxy.Hex(),
		Implementation:  logic.Hex(),
		DeployerAddress: acct.Address.Hex(),
		TxHash:          tx.Hash().Hex(),
		Block:           receipt.BlockNumber.Uint64(),
	})
	return
}

func checkImplementation(ctx context.Context, cl *chain.Client, proxy, want common.Address) {
	impl, err := cl.Implementation(ctx, proxy)
	if err != nil {
		logger.Warn("could not read proxy implementation", "proxy", proxy.Hex(), "error", err)
		return
	}
	if impl != want {
		logger.Warn("proxy implementation differs", "proxy", proxy.Hex(), "implementation", impl.Hex(), "expected", want.Hex())
	}
	assertions.Always(impl == want, "proxy delegates to the deployed logic contract", map[string]any{
		"proxy":          proxy.Hex(),
		"implementation": impl.Hex(),
		"expected":       want.Hex(),
	})
}

func reportProxy(ctx context.Context, w io.Writer, c ownable, acct *account.Account, logic, proxy common.Address) error {
	owner, err := c.Owner(ctx)
	if err != nil {
		return err
	}
	assertions.Always(owner == acct.Address, "proxy owner is the deployer", map[string]any{
		"proxy":    proxy.Hex(),
		"owner":    owner.Hex(),
		"deployer": acct.Address.Hex(),
	})

	field(w, "Logic contract", logic.Hex())
	field(w, "Proxy contract", proxy.Hex())
	field(w, "Proxy owner", owner.Hex())
	return nil
}

func deployBlog(c *cli.Context) error {
	ctx, cancel := txContext(c)
	defer cancel()

	cl, acct, opts, err := signer(ctx)
	if err != nil {
		return err
	}

	w := c.App.Writer
	logic, proxy, err := deployProxied(ctx, w, cl, acct, opts, blogName, contracts.BlogPlatform)
	if err != nil {
		return err
	}

	a, err := artifacts.Get(contracts.BlogPlatform)
	if err != nil {
		return err
	}
	heading(w, "BlogPlatform deployed")
	return reportProxy(ctx, w, contracts.NewBlog(proxy, a.ABI, cl.Backend()), acct, logic, proxy)
}

func deployJSONStorage(c *cli.Context) error {
	ctx, cancel := txContext(c)
	defer cancel()

	cl, acct, opts, err := signer(ctx)
	if err != nil {
		return err
	}

	w := c.App.Writer
	logic, proxy, err := deployProxied(ctx, w, cl, acct, opts, jsonStorageName, contracts.JsonStorageV1)
	if err != nil {
		return err
	}

	a, err := artifacts.Get(contracts.JsonStorageV1)
	if err != nil {
		return err
	}
	store := contracts.NewJsonStorage(proxy, a.ABI, cl.Backend())

	heading(w, "JsonStorageV1 deployed")
	if err := reportProxy(ctx, w, store, acct, logic, proxy); err != nil {
		return err
	}

	doc := c.String("json")
	if doc == "" {
		return nil
	}
	tx, err := store.SetJson(opts, doc, c.String("tag"))
	if err != nil {
		return err
	}
	if _, err := submit(ctx, w, cl, "setJson", tx); err != nil {
		return err
	}
	fmt.Fprintln(w, "Initial JSON written")
	return nil
}

func deployNFT(c *cli.Context) error {
	ctx, cancel := txContext(c)
	defer cancel()

	cl, acct, opts, err := signer(ctx)
	if err != nil {
		return err
	}

	w := c.App.Writer
	addr, tx, receipt, err := deployArtifact(ctx, w, cl, opts, contracts.MegaNFTCollection)
	if err != nil {
		return err
	}
	if err := record(config.DeploymentRecord{
		Name:            nftName,
		Artifact:        contracts.MegaNFTCollection,
		Address:         addr.Hex(),
		DeployerAddress: acct.Address.Hex(),
		TxHash:          tx.Hash().Hex(),
		Block:           receipt.BlockNumber.Uint64(),
	}); err != nil {
		return err
	}
	fmt.Fprintf(w, "Contract deployed at: %s\n", addr.Hex())

	if c.Bool("no-mint") {
		return nil
	}
	return mintBatch(ctx, w, cl, opts, addr, acct.Address, c.StringSlice("uri"))
}

func upgradeProxy(c *cli.Context, name, logicName string) error {
	ctx, cancel := txContext(c)
	defer cancel()

	proxy, err := cfg.ResolveAddress(name, c.String("proxy"))
	if err != nil {
		return err
	}

	cl, acct, opts, err := signer(ctx)
	if err != nil {
		return err
	}

	w := c.App.Writer
	logic, _, _, err := deployArtifact(ctx, w, cl, opts, logicName)
	if err != nil {
		return err
	}

	a, err := artifacts.Get(logicName)
	if err != nil {
		return err
	}
	var target ownable
	switch logicName {
	case contracts.BlogPlatform:
		target = contracts.NewBlog(proxy, a.ABI, cl.Backend())
	default:
		target = contracts.NewJsonStorage(proxy, a.ABI, cl.Backend())
	}

	tx, err := target.UpgradeTo(opts, logic)
	if err != nil {
		return err
	}
	receipt, err := submit(ctx, w, cl, "upgradeTo", tx)
	if err != nil {
		return err
	}
	checkImplementation(ctx, cl, proxy, logic)

	rec := config.DeploymentRecord{
		Name:            name,
		Artifact:        logicName,
		Address:         proxy.Hex(),
		DeployerAddress: acct.Address.Hex(),
		TxHash:          tx.Hash().Hex(),
		Block:           receipt.BlockNumber.Uint64(),
	}
	records, err := config.LoadDeploymentRecords(cfg.DeploymentsPath())
	if err != nil {
		return err
	}
	if prev, ok := config.FindDeployment(records, name, cfg.Network); ok && strings.EqualFold(prev.Address, proxy.Hex()) {
		rec.DeployerAddress = prev.DeployerAddress
		rec.TxHash = prev.TxHash
		rec.Block = prev.Block
		rec.DeployedAt = prev.DeployedAt
	}
	rec.Implementation = logic.Hex()
	if err := record(rec); err != nil {
		return err
	}

	heading(w, "Upgrade successful")
	field(w, "Proxy contract", proxy.Hex())
	field(w, "New logic contract", logic.Hex())
	return nil
}

func deployPlan(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("plan file required")
	}

	plan, err := config.LoadPlan(path)
	if err != nil {
		return err
	}
	ordered, err := config.GetDeploymentOrder(plan.Contracts)
	if err != nil {
		return fmt.Errorf("failed to determine deployment order: %w", err)
	}

	w := c.App.Writer
	names := make([]string, len(ordered))
	for i, pc := range ordered {
		names[i] = pc.Name
	}
	fmt.Fprintf(w, "Deployment order: %s\n", strings.Join(names, " -> "))

	ctx, cancel := txContext(c)
	defer cancel()

	cl, acct, opts, err := signer(ctx)
	if err != nil {
		return err
	}

	deploymentsPath := cfg.DeploymentsPath()
	for _, pc := range ordered {
		records, err := config.LoadDeploymentRecords(deploymentsPath)
		if err != nil {
			return fmt.Errorf("failed to load deployment records: %w", err)
		}

		if prev, ok := config.FindDeployment(records, pc.Name, cfg.Network); ok && !c.Bool("redeploy") {
			fmt.Fprintf(w, "%s already deployed at %s, skipping\n", pc.Name, prev.Address)
			continue
		}
		if err := config.ValidateDependencies(pc, records, cfg.Network); err != nil {
			return fmt.Errorf("%s: %w", pc.Name, err)
		}

		heading(w, "====== Deploying %s ======", pc.Name)
		addr, err := deployPlanContract(ctx, w, cl, acct, opts, pc, records)
		if err != nil {
			return fmt.Errorf("failed to deploy contract %s: %w", pc.Name, err)
		}
		fmt.Fprintf(w, "Contract %s deployed at %s\n", pc.Name, addr.Hex())

		if pc.PostDeployment != nil {
			records, err = config.LoadDeploymentRecords(deploymentsPath)
			if err != nil {
				return fmt.Errorf("failed to reload deployment records: %w", err)
			}
			if err := runPostDeployment(ctx, w, cl, opts, addr, pc, records); err != nil {
				fmt.Fprintf(w, "Warning: Post-deployment actions failed for %s: %v\n", pc.Name, err)
			}
		}
		heading(w, "====== Finished %s ======", pc.Name)
	}

	fmt.Fprintln(w, "All deployments completed. Check deployments with: dappctl contract list")
	return nil
}

func deployPlanContract(ctx context.Context, w io.Writer, cl *chain.Client, acct *account.Account, opts *bind.TransactOpts, pc config.PlanContract, records []config.DeploymentRecord) (common.Address, error) {
	resolved, err := config.ResolveArgs(pc.ConstructorArgs, records, cfg.Network, artifacts.Calldata)
	if err != nil {
		return common.Address{}, err
	}
	if len(resolved) > 0 {
		fmt.Fprintf(w, "Constructor args: %v\n", resolved)
	}

	a, err := artifacts.Get(pc.Artifact)
	if err != nil {
		return common.Address{}, err
	}
	args, err := contracts.ConvertConstructorArgs(a.ABI, resolved)
	if err != nil {
		return common.Address{}, err
	}

	addr, tx, receipt, err := deployArtifact(ctx, w, cl, opts, pc.Artifact, args...)
	if err != nil {
		return common.Address{}, err
	}

	return addr, record(config.DeploymentRecord{
		Name:            pc.Name,
		Artifact:        pc.Artifact,
		Address:         addr.Hex(),
		DeployerAddress: acct.Address.Hex(),
		TxHash:          tx.Hash().Hex(),
		Block:           receipt.BlockNumber.Uint64(),
	})
}

func runPostDeployment(ctx context.Context, w io.Writer, cl *chain.Client, opts *bind.TransactOpts, addr common.Address, pc config.PlanContract, records []config.DeploymentRecord) error {
	var actions []config.PlanAction
	if pc.PostDeployment.Initialize != nil {
		actions = append(actions, *pc.PostDeployment.Initialize)
	}
	actions = append(actions, pc.PostDeployment.Actions...)

	for _, action := range actions {
		abiName := action.ABI
		if abiName == "" {
			abiName = pc.Artifact
		}
		a, err := artifacts.Get(abiName)
		if err != nil {
			return err
		}
		target := contracts.NewContract(abiName, addr, a.ABI, cl.Backend())

		method, err := target.Method(action.Method)
		if err != nil {
			return err
		}
		resolved, err := config.ResolveArgs(action.Args, records, cfg.Network, artifacts.Calldata)
		if err != nil {
			return err
		}
		args, err := contracts.ConvertArgs(method, resolved)
		if err != nil {
			return err
		}

		if action.Description != "" {
			fmt.Fprintf(w, "%s\n", action.Description)
		}
		tx, err := target.Transact(opts, action.Method, args...)
		if err != nil {
			return err
		}
		if _, err := submit(ctx, w, cl, pc.Name+"."+action.Method, tx); err != nil {
			return err
		}
	}
	return nil
}
