package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/chain"
	"github.com/youxinddd/dappctl/contracts"
)

var NFTCmd = &cli.Command{
	Name:  "nft",
	Usage: "Mint and inspect MegaNFTCollection tokens",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "address",
			Usage: "MegaNFTCollection address (default: workspace record or network config)",
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:  "mint",
			Usage: "Mint one token per URI",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "to",
					Usage: "Recipient (default: the selected account)",
				},
				&cli.StringSliceFlag{
					Name:  "uri",
					Usage: "Token metadata URI (can specify multiple)",
					Value: cli.NewStringSlice(contracts.DefaultTokenURI),
				},
			},
			Action: mintNFTs,
		},
		{
			Name:      "tokens",
			Usage:     "Show the tokens of an owner",
			ArgsUsage: "[owner]",
			Action:    listNFTs,
		},
	},
}

func nftCollection(addr common.Address, cl *chain.Client) (*contracts.NFTCollection, error) {
	a, err := artifacts.Get(contracts.MegaNFTCollection)
	if err != nil {
		return nil, err
	}
	return contracts.NewNFTCollection(addr, a.ABI, cl.Backend()), nil
}

func mintBatch(ctx context.Context, w io.Writer, cl *chain.Client, opts *bind.TransactOpts, collection, to common.Address, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("at least one --uri required")
	}
	nft, err := nftCollection(collection, cl)
	if err != nil {
		return err
	}

	tx, err := nft.MintBatch(opts, to, uris)
	if err != nil {
		return err
	}
	if _, err := submit(ctx, w, cl, "mintBatch", tx); err != nil {
		return err
	}
	fmt.Fprintf(w, "Batch mint success: %d tokens to %s\n", len(uris), to.Hex())
	return nil
}

func mintNFTs(c *cli.Context) error {
	addr, err := resolveAddress(c, nftName)
	if err != nil {
		return err
	}

	ctx, cancel := txContext(c)
	defer cancel()

	cl, acct, opts, err := signer(ctx)
	if err != nil {
		return err
	}

	to := acct.Address
	if s := c.String("to"); s != "" {
		if to, err = parseAddress(s); err != nil {
			return err
		}
	}
	return mintBatch(ctx, c.App.Writer, cl, opts, addr, to, c.StringSlice("uri"))
}

func listNFTs(c *cli.Context) error {
	addr, err := resolveAddress(c, nftName)
	if err != nil {
		return err
	}
	cl, err := connect(c.Context)
	if err != nil {
		return err
	}
	nft, err := nftCollection(addr, cl)
	if err != nil {
		return err
	}
	owner, err := holderOrSelf(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	ids, err := nft.TokensOfOwner(c.Context, owner)
	if err != nil {
		return err
	}
	return printTokens(c, nft, ids)
}
