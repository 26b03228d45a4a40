package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DAPP_NETWORK", "")
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "megaeth-testnet", cfg.Network)
	require.Equal(t, "account1", cfg.Account)
	require.Equal(t, uint64(1), cfg.Confirmations)
	require.Equal(t, uint64(100000), cfg.EventWindow)
	require.Equal(t, uint64(90000), cfg.EventSpan)
	require.Equal(t, 5*time.Minute, cfg.Timeout)
	require.Equal(t, filepath.Join(cfg.Workspace, "events.db"), cfg.EventCachePath())

	n, err := cfg.ActiveNetwork()
	require.NoError(t, err)
	require.Equal(t, "https://carrot.megaeth.com/rpc", n.Host)
	require.Equal(t, uint64(6342), n.ChainID)

	blog, ok := n.ContractAddress("blog")
	require.True(t, ok)
	require.Equal(t, common.HexToAddress("0x8039fec0287b01a685c851fb0Bac0Ac81694a483"), blog)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DAPP_NETWORK", "development")
	t.Setenv("DAPP_CONFIRMATIONS", "3")
	t.Setenv("DAPP_VAULT_ROLE_ID", "role-123")
	t.Setenv("DAPP_EVENT_SPAN", "500")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Network)
	require.Equal(t, uint64(3), cfg.Confirmations)
	require.Equal(t, "role-123", cfg.Vault.RoleID)
	require.Equal(t, "approle", cfg.Vault.MountPath)
	require.Equal(t, uint64(500), cfg.EventSpan)

	n, err := cfg.ActiveNetwork()
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8545", n.Host)
}

func TestLoadFileMerge(t *testing.T) {
	t.Setenv("DAPP_NETWORK", "")
	path := filepath.Join(t.TempDir(), "dappctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
network: local
confirmations: 2
networks:
  local:
    host: http://localhost:9545
    chain_id: 31337
    contracts:
      blog: "0x1111111111111111111111111111111111111111"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(2), cfg.Confirmations)
	require.Contains(t, cfg.Networks, "megaeth-testnet")

	n, err := cfg.ActiveNetwork()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9545", n.Host)
	require.Equal(t, uint64(31337), n.ChainID)

	addr, ok := n.ContractAddress("blog")
	require.True(t, ok)
	require.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestActiveNetwork(t *testing.T) {
	cfg := &Config{
		Network:  "nowhere",
		Networks: map[string]Network{"development": {Host: "http://127.0.0.1:8545"}},
	}

	_, err := cfg.ActiveNetwork()
	require.ErrorContains(t, err, "unknown network")

	cfg.RPC = "http://10.0.0.1:8545"
	n, err := cfg.ActiveNetwork()
	require.NoError(t, err)
	require.Equal(t, "nowhere", n.Name)
	require.Equal(t, "http://10.0.0.1:8545", n.Host)
}
