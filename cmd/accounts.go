package cmd

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/youxinddd/dappctl/account"
	"github.com/youxinddd/dappctl/contracts"
)

var AccountsCmd = &cli.Command{
	Name:  "accounts",
	Usage: "Manage keystore accounts and workspace roles",
	Subcommands: []*cli.Command{
		{
			Name:      "new",
			Usage:     "Generate a key and save it as an encrypted keystore",
			ArgsUsage: "<name>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "light",
					Usage: "Use light scrypt parameters (faster, weaker)",
				},
			},
			Action: newAccount,
		},
		{
			Name:      "import",
			Usage:     "Encrypt an existing private key into the keystore",
			ArgsUsage: "<name>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "private-key",
					Usage:    "Private key (hex format, 0x prefix optional)",
					EnvVars:  []string{"DAPP_PRIVATE_KEY"},
					Required: true,
				},
				&cli.BoolFlag{
					Name:  "light",
					Usage: "Use light scrypt parameters (faster, weaker)",
				},
			},
			Action: importAccount,
		},
		{
			Name:   "list",
			Usage:  "List workspace roles and keystore accounts",
			Action: listAccounts,
		},
		{
			Name:      "show",
			Usage:     "Show the address and native balance of an account",
			ArgsUsage: "[name]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "offline",
					Usage: "Skip the balance lookup",
				},
			},
			Action: showAccount,
		},
		{
			Name:  "create",
			Usage: "Create workspace accounts with roles",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:     "role",
					Usage:    "Role names (can specify multiple)",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "fund",
					Usage: "Fund each new account with this many ether from --account",
				},
			},
			Action: createAccounts,
		},
	},
}

func keystorePassword(name string) (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}
	return account.PromptPassword(name)
}

func newAccount(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("account name required")
	}

	key, err := account.Generate()
	if err != nil {
		return err
	}
	return saveKeystore(c, name, key)
}

func importAccount(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("account name required")
	}

	key, err := account.ParsePrivateKey(c.String("private-key"))
	if err != nil {
		return err
	}
	return saveKeystore(c, name, key)
}

func saveKeystore(c *cli.Context, name string, key *ecdsa.PrivateKey) error {
	password, err := keystorePassword(name)
	if err != nil {
		return err
	}

	path, err := account.SaveKeystore(cfg.KeystoreDir, name, key, password, c.Bool("light"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Saved '%s': %s\n", name, crypto.PubkeyToAddress(key.PublicKey).Hex())
	fmt.Fprintf(w, "Keystore: %s\n", path)
	return nil
}

func listAccounts(c *cli.Context) error {
	entries, err := account.NewLoader(cfg, logger).List()
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(entries) == 0 {
		fmt.Fprintf(w, "No accounts in %s or %s\n", cfg.Workspace, cfg.KeystoreDir)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s:\n", e.Name)
		fmt.Fprintf(w, "  Ethereum: %s\n", e.Address)
		fmt.Fprintf(w, "  Source:   %s\n\n", e.Source)
	}
	return nil
}

func showAccount(c *cli.Context) error {
	if name := c.Args().First(); name != "" {
		cfg.Account = name
	}

	acct, err := loadAccount(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	heading(w, "%s", acct.Name)
	field(w, "Address", acct.Address.Hex())
	field(w, "Source", acct.Source)

	if c.Bool("offline") {
		return nil
	}
	cl, err := connect(c.Context)
	if err != nil {
		return err
	}
	balance, err := cl.Balance(c.Context, acct.Address)
	if err != nil {
		return err
	}
	field(w, "Balance", contracts.FormatUnits(balance, 18)+" ETH")
	return nil
}

func createAccounts(c *cli.Context) error {
	ctx, cancel := txContext(c)
	defer cancel()

	w := c.App.Writer
	roles := c.StringSlice("role")

	var fund func(context.Context, *account.Account) error
	if amount := c.String("fund"); amount != "" {
		wei, err := contracts.ParseUnits(amount, 18)
		if err != nil {
			return fmt.Errorf("invalid --fund: %w", err)
		}
		fund = func(ctx context.Context, acct *account.Account) error {
			cl, funder, _, err := signer(ctx)
			if err != nil {
				return err
			}
			tx, err := cl.Transfer(ctx, funder.Key, acct.Address, wei)
			if err != nil {
				return err
			}
			_, err = submit(ctx, w, cl, "fund "+acct.Name, tx)
			return err
		}
	}

	for _, role := range roles {
		key, err := account.Generate()
		if err != nil {
			return err
		}

		acct, err := account.SaveWorkspaceAccount(cfg.Workspace, role, key)
		if errors.Is(err, account.ErrAccountExists) {
			fmt.Fprintf(w, "Account '%s' already exists, skipping\n", role)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create account for role '%s': %w", role, err)
		}

		if fund != nil {
			if err := fund(ctx, acct); err != nil {
				return fmt.Errorf("failed to fund %s: %w", role, err)
			}
		}

		fmt.Fprintf(w, "Created '%s': %s\n", role, acct.Address.Hex())
	}

	fmt.Fprintf(w, "\nAccounts saved to %s\n", cfg.Workspace)
	return nil
}
