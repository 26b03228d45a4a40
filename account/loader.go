package account

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/youxinddd/dappctl/config"
	"github.com/youxinddd/dappctl/logging"
)

const vaultPrefix = "vault:"

// PasswordFunc supplies the keystore password for an account.
type PasswordFunc func(name string) (string, error)

type Loader struct {
	KeystoreDir string
	Workspace   string
	Password    string
	Prompt      PasswordFunc
	Vault       config.VaultConfig

	logger *log.Logger
}

func NewLoader(cfg *config.Config, logger *log.Logger) *Loader {
	return &Loader{
		KeystoreDir: cfg.KeystoreDir,
		Workspace:   cfg.Workspace,
		Password:    cfg.Password,
		Prompt:      PromptPassword,
		Vault:       cfg.Vault,
		logger:      logging.Child(logger, "account"),
	}
}

// Load resolves name as vault:<secret>, then as a workspace role, then as a
// keystore account.
func (l *Loader) Load(ctx context.Context, name string) (*Account, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no account selected (--account)", ErrAccountNotFound)
	}

	if secret, ok := strings.CutPrefix(name, vaultPrefix); ok {
		v, err := NewVault(ctx, l.Vault, l.logger)
		if err != nil {
			return nil, err
		}
		return v.Load(ctx, secret)
	}

	accounts, err := LoadWorkspaceAccounts(l.Workspace)
	if err != nil {
		return nil, err
	}
	if _, ok := accounts.Accounts[name]; ok {
		l.logger.Debug("using workspace account", "role", name)
		return accounts.Load(name)
	}

	if _, err := os.Stat(keystorePath(l.KeystoreDir, name)); err != nil {
		return nil, fmt.Errorf("%w: %s is neither a workspace role nor a keystore in %s", ErrAccountNotFound, name, l.KeystoreDir)
	}

	password := l.Password
	if password == "" && l.Prompt != nil {
		password, err = l.Prompt(name)
		if err != nil {
			return nil, err
		}
	}

	l.logger.Debug("decrypting keystore", "account", name)
	return LoadKeystore(l.KeystoreDir, name, password)
}

type Entry struct {
	Name    string
	Address string
	Source  string
}

// List returns workspace roles and keystore accounts. Keystore addresses are
// read from the unencrypted address field.
func (l *Loader) List() ([]Entry, error) {
	var entries []Entry

	accounts, err := LoadWorkspaceAccounts(l.Workspace)
	if err != nil {
		return nil, err
	}
	for _, role := range accounts.Roles() {
		entries = append(entries, Entry{Name: role, Address: accounts.Accounts[role].EthAddress, Source: SourceWorkspace})
	}

	names, err := ListKeystore(l.KeystoreDir)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		addr, err := keystoreAddress(l.KeystoreDir, name)
		if err != nil {
			l.logger.Warn("unreadable keystore", "account", name, "error", err)
			continue
		}
		entries = append(entries, Entry{Name: name, Address: addr, Source: SourceKeystore})
	}

	return entries, nil
}

// PromptPassword reads a password from the terminal without echo.
func PromptPassword(name string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password for %s required: set DAPP_PASSWORD", name)
	}

	fmt.Fprintf(os.Stderr, "Enter password for %s: ", name)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
