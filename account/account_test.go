package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/youxinddd/dappctl/config"
	"github.com/youxinddd/dappctl/logging"
)

// hardhat/anvil account #0
const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestParsePrivateKey(t *testing.T) {
	key, err := ParsePrivateKey(devKey)
	require.NoError(t, err)
	require.Equal(t, devAddress, crypto.PubkeyToAddress(key.PublicKey).Hex())

	key, err = ParsePrivateKey(devKey[2:])
	require.NoError(t, err)
	require.Equal(t, devKey, EncodePrivateKey(key))

	_, err = ParsePrivateKey("0x1234")
	require.ErrorContains(t, err, "invalid private key length")

	_, err = ParsePrivateKey("zz")
	require.ErrorContains(t, err, "invalid hex")
}

func TestKeystoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	key, err := ParsePrivateKey(devKey)
	require.NoError(t, err)

	path, err := SaveKeystore(dir, "account1", key, "secret", true)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "account1.json"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = SaveKeystore(dir, "account1", key, "secret", true)
	require.ErrorContains(t, err, "already exists")

	acct, err := LoadKeystore(dir, "account1", "secret")
	require.NoError(t, err)
	require.Equal(t, devAddress, acct.Address.Hex())
	require.Equal(t, SourceKeystore, acct.Source)

	_, err = LoadKeystore(dir, "account1", "wrong")
	require.Error(t, err)

	_, err = LoadKeystore(dir, "missing", "secret")
	require.True(t, errors.Is(err, ErrAccountNotFound))

	names, err := ListKeystore(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"account1"}, names)
}

func TestWorkspaceAccounts(t *testing.T) {
	ws := t.TempDir()
	key, err := Generate()
	require.NoError(t, err)

	acct, err := SaveWorkspaceAccount(ws, "deployer", key)
	require.NoError(t, err)
	require.Equal(t, SourceWorkspace, acct.Source)

	_, err = SaveWorkspaceAccount(ws, "deployer", key)
	require.ErrorContains(t, err, "already exists")

	accounts, err := LoadWorkspaceAccounts(ws)
	require.NoError(t, err)
	require.Equal(t, []string{"deployer"}, accounts.Roles())

	loaded, err := accounts.Load("deployer")
	require.NoError(t, err)
	require.Equal(t, acct.Address, loaded.Address)

	_, err = accounts.Load("nobody")
	require.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestLoaderResolution(t *testing.T) {
	ws := t.TempDir()
	ksDir := t.TempDir()

	roleKey, err := Generate()
	require.NoError(t, err)
	_, err = SaveWorkspaceAccount(ws, "alice", roleKey)
	require.NoError(t, err)

	ksKey, err := ParsePrivateKey(devKey)
	require.NoError(t, err)
	_, err = SaveKeystore(ksDir, "account1", ksKey, "pw", true)
	require.NoError(t, err)

	prompted := 0
	loader := NewLoader(&config.Config{Workspace: ws, KeystoreDir: ksDir}, logging.Discard())
	loader.Prompt = func(name string) (string, error) {
		prompted++
		return "pw", nil
	}

	ctx := context.Background()

	alice, err := loader.Load(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, SourceWorkspace, alice.Source)
	require.Zero(t, prompted)

	acct, err := loader.Load(ctx, "account1")
	require.NoError(t, err)
	require.Equal(t, devAddress, acct.Address.Hex())
	require.Equal(t, 1, prompted)

	_, err = loader.Load(ctx, "ghost")
	require.True(t, errors.Is(err, ErrAccountNotFound))

	_, err = loader.Load(ctx, "")
	require.True(t, errors.Is(err, ErrAccountNotFound))

	entries, err := loader.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "alice", entries[0].Name)
	require.Equal(t, Entry{Name: "account1", Address: devAddress, Source: SourceKeystore}, entries[1])
}

func fakeVault(t *testing.T) *httptest.Server {
	t.Helper()

	kvResponse := map[string]any{
		"data": map[string]any{
			"data": map[string]any{VaultKeyField: devKey},
			"metadata": map[string]any{
				"created_time":  "2024-01-01T00:00:00Z",
				"deletion_time": "",
				"destroyed":     false,
				"version":       1,
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth/approle/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["role_id"] != "role" || body["secret_id"] != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"auth": map[string]any{"client_token": "issued-token", "renewable": true, "lease_duration": 3600},
		})
	})
	mux.HandleFunc("/v1/secret/data/deployer", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(kvResponse)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestVaultToken(t *testing.T) {
	server := fakeVault(t)
	ctx := context.Background()

	v, err := NewVault(ctx, config.VaultConfig{Address: server.URL, Token: "root", KVPath: "secret"}, logging.Discard())
	require.NoError(t, err)

	acct, err := v.Load(ctx, "deployer")
	require.NoError(t, err)
	require.Equal(t, devAddress, acct.Address.Hex())
	require.Equal(t, SourceVault, acct.Source)
}

func TestVaultAppRole(t *testing.T) {
	server := fakeVault(t)
	ctx := context.Background()

	cfg := config.VaultConfig{
		Address:   server.URL,
		RoleID:    "role",
		SecretID:  "secret",
		MountPath: "approle",
		KVPath:    "secret",
	}
	loader := &Loader{Vault: cfg, logger: logging.Discard()}

	acct, err := loader.Load(ctx, "vault:deployer")
	require.NoError(t, err)
	require.Equal(t, devAddress, acct.Address.Hex())

	cfg.SecretID = "wrong"
	_, err = NewVault(ctx, cfg, logging.Discard())
	require.Error(t, err)

	_, err = NewVault(ctx, config.VaultConfig{Address: server.URL}, logging.Discard())
	require.ErrorContains(t, err, "role id")
}
