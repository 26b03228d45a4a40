package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/contracts"
)

var TokenCmd = &cli.Command{
	Name:  "token",
	Usage: "ERC-20 token queries",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "address",
			Usage: "Token address (default: workspace record or network config)",
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:      "balance",
			Usage:     "Show the token balance of a holder",
			ArgsUsage: "[holder]",
			Action:    tokenBalance,
		},
	},
}

func tokenBalance(c *cli.Context) error {
	addr, err := resolveAddress(c, tokenName)
	if err != nil {
		return err
	}
	cl, err := connect(c.Context)
	if err != nil {
		return err
	}
	holder, err := holderOrSelf(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	a, err := artifacts.Get(contracts.ERC20)
	if err != nil {
		return err
	}
	balance, err := contracts.NewToken(addr, a.ABI, cl.Backend()).Balance(c.Context, holder)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Token balance: %s\n", balance)
	return nil
}
