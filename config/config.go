package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "DAPP"
	DefaultConfigFile = "dappctl.yaml"
	envFile           = ".env"
)

//go:embed defaults.yaml
var defaultConfig []byte

// Config holds all configuration for dappctl
type Config struct {
	// Network selection
	Network string
	RPC     string

	// Accounts
	Account     string
	Password    string
	KeystoreDir string
	Vault       VaultConfig

	// Local state
	Workspace string
	BuildDir  string

	// Transactions
	Confirmations uint64
	Timeout       time.Duration
	PollInterval  time.Duration

	// Event scanning
	EventWindow   uint64
	EventSpan     uint64
	CacheFile     string
	CacheFinality uint64

	Verbose    bool
	Assertions bool

	Networks map[string]Network
}

type VaultConfig struct {
	Address   string
	Token     string
	RoleID    string
	SecretID  string
	MountPath string
	KVPath    string
}

// Load builds the configuration from the embedded defaults, an optional
// config file, a .env file and DAPP_* environment variables, in increasing
// order of precedence. An empty path falls back to ./dappctl.yaml when it
// exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read default config: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	networks := make(map[string]Network)
	if err := v.UnmarshalKey("networks", &networks); err != nil {
		return nil, fmt.Errorf("failed to parse networks: %w", err)
	}
	for name, n := range networks {
		n.Name = name
		networks[name] = n
	}

	cfg := &Config{
		Network:     v.GetString("network"),
		RPC:         v.GetString("rpc"),
		Account:     v.GetString("account"),
		Password:    v.GetString("password"),
		KeystoreDir: expandHome(v.GetString("keystore_dir")),
		Vault: VaultConfig{
			Address:   v.GetString("vault.address"),
			Token:     v.GetString("vault.token"),
			RoleID:    v.GetString("vault.role_id"),
			SecretID:  v.GetString("vault.secret_id"),
			MountPath: v.GetString("vault.mount_path"),
			KVPath:    v.GetString("vault.kv_path"),
		},
		Workspace:     expandHome(v.GetString("workspace")),
		BuildDir:      expandHome(v.GetString("build_dir")),
		Confirmations: v.GetUint64("confirmations"),
		Timeout:       v.GetDuration("timeout"),
		PollInterval:  v.GetDuration("poll_interval"),
		EventWindow:   v.GetUint64("event_window"),
		EventSpan:     v.GetUint64("event_span"),
		CacheFile:     expandHome(v.GetString("cache_file")),
		CacheFinality: v.GetUint64("cache_finality"),
		Verbose:       v.GetBool("verbose"),
		Assertions:    v.GetBool("assertions"),
		Networks:      networks,
	}

	if cfg.Confirmations == 0 {
		cfg.Confirmations = 1
	}

	return cfg, nil
}

// EventCachePath is the bbolt file holding finalized event logs.
func (c *Config) EventCachePath() string {
	if c.CacheFile != "" {
		return c.CacheFile
	}
	return filepath.Join(c.Workspace, "events.db")
}

func (c *Config) DeploymentsPath() string {
	return filepath.Join(c.Workspace, "deployments.json")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
