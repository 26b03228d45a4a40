package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/config"
	"github.com/youxinddd/dappctl/contracts"
)

// wellKnown maps config names to the artifact providing their ABI.
var wellKnown = map[string]string{
	blogName:        contracts.BlogPlatform,
	jsonStorageName: contracts.JsonStorageV1,
	nftName:         contracts.MegaNFTCollection,
	tokenName:       contracts.ERC20,
}

var ContractCmd = &cli.Command{
	Name:  "contract",
	Usage: "Inspect deployments and call any contract method",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List deployed contracts",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "all",
					Usage: "Include records of every network",
				},
			},
			Action: listDeployments,
		},
		{
			Name:      "info",
			Usage:     "Get deployment information for a contract",
			ArgsUsage: "<name>",
			Action:    getDeploymentInfo,
		},
		{
			Name:      "call",
			Usage:     "Call a contract method; state changing methods are sent as transactions",
			ArgsUsage: "<name|address> <method> [args...]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "abi",
					Usage: "Artifact providing the ABI (required for raw addresses)",
				},
				&cli.BoolFlag{
					Name:  "transaction",
					Usage: "Send as transaction even for view methods",
				},
			},
			Action: callContractMethod,
		},
		{
			Name:      "implementation",
			Usage:     "Read the EIP-1967 implementation slot of a proxy",
			ArgsUsage: "<name|address>",
			Action:    showImplementation,
		},
	},
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func listDeployments(c *cli.Context) error {
	deployments, err := config.LoadDeploymentRecords(cfg.DeploymentsPath())
	if err != nil {
		return err
	}

	all := c.Bool("all")
	var shown []config.DeploymentRecord
	for _, d := range deployments {
		if all || strings.EqualFold(d.Network, cfg.Network) {
			shown = append(shown, d)
		}
	}

	w := c.App.Writer
	if len(shown) == 0 {
		fmt.Fprintln(w, "No contracts deployed")
	} else {
		fmt.Fprintf(w, "Found %d deployed contracts:\n\n", len(shown))
	}
	for i, d := range shown {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, d.Name, d.Artifact)
		fmt.Fprintf(w, "   Network: %s\n", d.Network)
		fmt.Fprintf(w, "   Address: %s\n", d.Address)
		if d.Implementation != "" {
			fmt.Fprintf(w, "   Implementation: %s\n", d.Implementation)
		}
		fmt.Fprintf(w, "   TX Hash: %s\n", d.TxHash)
		fmt.Fprintf(w, "   Deployer: %s\n\n", d.DeployerAddress)
	}

	if n, ok := cfg.Networks[strings.ToLower(cfg.Network)]; ok && len(n.Contracts) > 0 && !all {
		heading(w, "Configured for %s:", cfg.Network)
		for _, name := range sortedKeys(n.Contracts) {
			field(w, name, n.Contracts[name])
		}
	}
	return nil
}

func getDeploymentInfo(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("contract name required")
	}

	deployments, err := config.LoadDeploymentRecords(cfg.DeploymentsPath())
	if err != nil {
		return err
	}
	d, ok := config.FindDeployment(deployments, name, cfg.Network)
	if !ok {
		return fmt.Errorf("no deployment of %s on %s", name, cfg.Network)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Contract: %s\n", d.Name)
	fmt.Fprintf(w, "Artifact: %s\n", d.Artifact)
	fmt.Fprintf(w, "Network: %s\n", d.Network)
	fmt.Fprintf(w, "Address: %s\n", d.Address)
	if d.Implementation != "" {
		fmt.Fprintf(w, "Implementation: %s\n", d.Implementation)
	}
	fmt.Fprintf(w, "Transaction Hash: %s\n", d.TxHash)
	fmt.Fprintf(w, "Block: %d\n", d.Block)
	fmt.Fprintf(w, "Deployer Address: %s\n", d.DeployerAddress)
	fmt.Fprintf(w, "Deployed At: %s\n", d.DeployedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// resolveTarget turns a config name or raw address into an address and the
// artifact whose ABI describes it.
func resolveTarget(c *cli.Context, ref string) (common.Address, string, error) {
	artifact := c.String("abi")

	if common.IsHexAddress(ref) {
		if artifact == "" {
			return common.Address{}, "", fmt.Errorf("--abi is required when calling a raw address")
		}
		return common.HexToAddress(ref), artifact, nil
	}

	addr, err := cfg.ResolveAddress(ref, "")
	if err != nil {
		return common.Address{}, "", err
	}
	if artifact != "" {
		return addr, artifact, nil
	}

	deployments, err := config.LoadDeploymentRecords(cfg.DeploymentsPath())
	if err != nil {
		return common.Address{}, "", err
	}
	if d, ok := config.FindDeployment(deployments, ref, cfg.Network); ok && d.Artifact != "" {
		return addr, d.Artifact, nil
	}
	if a, ok := wellKnown[ref]; ok {
		return addr, a, nil
	}
	return addr, ref, nil
}

func printOutputs(w io.Writer, outputs abi.Arguments, values []any) {
	if len(values) == 0 {
		fmt.Fprintln(w, "(no output)")
		return
	}
	for i, v := range values {
		name := fmt.Sprintf("out%d", i)
		if i < len(outputs) && outputs[i].Name != "" {
			name = outputs[i].Name
		}
		field(w, name, contracts.FormatValue(v))
	}
}

func callContractMethod(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: contract call <name|address> <method> [args...]")
	}
	ref, methodName := c.Args().Get(0), c.Args().Get(1)

	addr, artifactName, err := resolveTarget(c, ref)
	if err != nil {
		return err
	}
	a, err := artifacts.Get(artifactName)
	if err != nil {
		return err
	}

	ctx, cancel := txContext(c)
	defer cancel()

	cl, err := connect(ctx)
	if err != nil {
		return err
	}
	target := contracts.NewContract(artifactName, addr, a.ABI, cl.Backend())

	method, err := target.Method(methodName)
	if err != nil {
		return err
	}
	args, err := contracts.ConvertArgs(method, c.Args().Slice()[2:])
	if err != nil {
		return err
	}

	w := c.App.Writer
	if method.IsConstant() && !c.Bool("transaction") {
		out, err := target.Call(ctx, methodName, args...)
		if err != nil {
			return err
		}
		printOutputs(w, method.Outputs, out)
		return nil
	}

	_, _, opts, err := signer(ctx)
	if err != nil {
		return err
	}
	tx, err := target.Transact(opts, methodName, args...)
	if err != nil {
		return err
	}
	receipt, err := submit(ctx, w, cl, methodName, tx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Status: %d, logs: %d\n", receipt.Status, len(receipt.Logs))
	return nil
}

func showImplementation(c *cli.Context) error {
	ref := c.Args().First()
	if ref == "" {
		return fmt.Errorf("proxy name or address required")
	}

	var addr common.Address
	if common.IsHexAddress(ref) {
		addr = common.HexToAddress(ref)
	} else {
		var err error
		if addr, err = cfg.ResolveAddress(ref, ""); err != nil {
			return err
		}
	}

	cl, err := connect(c.Context)
	if err != nil {
		return err
	}
	impl, err := cl.Implementation(c.Context, addr)
	if err != nil {
		return err
	}

	w := c.App.Writer
	field(w, "Proxy", addr.Hex())
	if impl == (common.Address{}) {
		field(w, "Implementation", "none (not an EIP-1967 proxy)")
		return nil
	}
	field(w, "Implementation", impl.Hex())
	return nil
}
