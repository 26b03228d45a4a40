package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	hashicorp "github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/approle"

	"github.com/youxinddd/dappctl/config"
)

// VaultKeyField is the secret field holding the hex private key.
const VaultKeyField = "private_key"

// Vault reads private keys from a KV version 2 mount.
type Vault struct {
	client *hashicorp.Client
	kvPath string
	logger *log.Logger
}

// NewVault connects to Vault with a token, or logs in with AppRole when no
// token is configured.
func NewVault(ctx context.Context, cfg config.VaultConfig, logger *log.Logger) (*Vault, error) {
	if cfg.Address == "" {
		return nil, errors.New("missing vault address (DAPP_VAULT_ADDRESS)")
	}

	vaultConfig := hashicorp.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := hashicorp.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("hashicorp.NewClient: %w", err)
	}

	v := &Vault{client: client, kvPath: cfg.KVPath, logger: logger}

	if cfg.Token != "" {
		client.SetToken(cfg.Token)
		return v, nil
	}

	if cfg.RoleID == "" {
		return nil, errors.New("missing vault approle role id (DAPP_VAULT_ROLE_ID)")
	}
	if cfg.SecretID == "" {
		return nil, errors.New("missing vault approle secret id (DAPP_VAULT_SECRET_ID)")
	}

	if err := v.login(ctx, cfg); err != nil {
		return nil, fmt.Errorf("vault login error: %w", err)
	}
	return v, nil
}

func (v *Vault) login(ctx context.Context, cfg config.VaultConfig) error {
	v.logger.Debug("vault login: begin")

	appRoleAuth, err := approle.NewAppRoleAuth(
		cfg.RoleID,
		&approle.SecretID{FromString: cfg.SecretID},
		approle.WithMountPath(cfg.MountPath),
	)
	if err != nil {
		return fmt.Errorf("unable to initialize approle authentication method: %w", err)
	}

	authInfo, err := v.client.Auth().Login(ctx, appRoleAuth)
	if err != nil {
		return fmt.Errorf("unable to login using approle auth method: %w", err)
	}
	if authInfo == nil {
		return errors.New("no approle info was returned after login")
	}

	v.logger.Debug("vault login: success")
	return nil
}

// Load fetches secret name and parses its private_key field.
func (v *Vault) Load(ctx context.Context, name string) (*Account, error) {
	secret, err := v.client.KVv2(v.kvPath).Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("vault get %s: %w", name, err)
	}

	raw, ok := secret.Data[VaultKeyField].(string)
	if !ok {
		return nil, fmt.Errorf("%w: vault secret %s has no %s field", ErrAccountNotFound, name, VaultKeyField)
	}

	key, err := ParsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("vault secret %s: %w", name, err)
	}
	return FromKey(name, SourceVault, key), nil
}
