package cmd

import (
	"bytes"
	"io"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/youxinddd/dappctl/config"
	"github.com/youxinddd/dappctl/events"
)

const devKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// harness runs the app against an isolated workspace and keystore.
type harness struct {
	t         *testing.T
	workspace string
	args      []string
	stdin     string
}

func newHarness(t *testing.T, extra ...string) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DAPP_KEYSTORE_DIR", filepath.Join(dir, "keystore"))
	t.Setenv("DAPP_PASSWORD", "secret")
	t.Setenv("DAPP_POLL_INTERVAL", "10ms")

	workspace := filepath.Join(dir, "workspace")
	args := append([]string{"--workspace", workspace, "--network", "development"}, extra...)
	return &harness{t: t, workspace: workspace, args: args}
}

func (c *harness) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(c.stdin)

	argv := append([]string{"dappctl"}, c.args...)
	err := app.Run(append(argv, args...))
	return out.String(), err
}

func (c *harness) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func (c *harness) deployment(name string) *config.DeploymentRecord {
	c.t.Helper()
	records, err := config.LoadDeploymentRecords(filepath.Join(c.workspace, "deployments.json"))
	require.NoError(c.t, err)
	d, ok := config.FindDeployment(records, name, "development")
	require.True(c.t, ok, "no record of %s", name)
	return d
}

func TestCodec(t *testing.T) {
	c := newHarness(t)

	encoded := strings.TrimSpace(c.mustRun("codec", "encode", "hello", "world"))
	require.NotEqual(t, "hello world", encoded)

	out := c.mustRun("codec", "decode", encoded)
	require.Equal(t, "hello world\n", out)

	c.stdin = encoded + "\n"
	out = c.mustRun("codec", "decode")
	require.Equal(t, "hello world\n", out)

	c.stdin = "not base64"
	_, err := c.run("codec", "decode", "-")
	require.Error(t, err)
}

func TestAccountsCreate(t *testing.T) {
	c := newHarness(t)

	out := c.mustRun("accounts", "create", "--role", "alice", "--role", "bob")
	require.Contains(t, out, "Created 'alice': 0x")
	require.Contains(t, out, "Created 'bob': 0x")
	require.Contains(t, out, "Accounts saved to "+c.workspace)

	out = c.mustRun("accounts", "create", "--role", "alice", "--role", "carol")
	require.Contains(t, out, "Account 'alice' already exists, skipping")
	require.Contains(t, out, "Created 'carol'")

	out = c.mustRun("accounts", "list")
	for _, role := range []string{"alice:", "bob:", "carol:"} {
		require.Contains(t, out, role)
	}
	require.Contains(t, out, "Source:   workspace")
}

func TestAccountsKeystore(t *testing.T) {
	c := newHarness(t)

	out, err := c.run("accounts", "list")
	require.NoError(t, err)
	require.Contains(t, out, "No accounts in")

	key, err := crypto.HexToECDSA(devKey)
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey).Hex()

	out = c.mustRun("accounts", "import", "dev", "--private-key", devKey, "--light")
	require.Contains(t, out, "Saved 'dev': "+want)

	_, err = c.run("accounts", "import", "dev", "--private-key", devKey, "--light")
	require.ErrorContains(t, err, "already exists")

	c.mustRun("accounts", "new", "fresh", "--light")

	out = c.mustRun("--account", "dev", "accounts", "show", "--offline")
	require.Contains(t, out, want)
	require.NotContains(t, out, "Balance")

	out = c.mustRun("accounts", "list")
	require.Contains(t, out, "dev:")
	require.Contains(t, out, "fresh:")
}

func TestUnknownAccount(t *testing.T) {
	c := newHarness(t)
	_, err := c.run("--account", "nobody", "accounts", "show", "--offline")
	require.ErrorContains(t, err, "not found")
}

func TestFormatRecord(t *testing.T) {
	r := events.Record{
		Event: "Comment",
		Block: 12,
		Args: map[string]any{
			"postId":  big.NewInt(3),
			"user":    common.HexToAddress("0x29b8579C6d4D03204EC20C0b2F517D4D753b421C"),
			"content": "nice",
		},
		Names: []string{"postId", "user", "content"},
	}
	require.Equal(t,
		"[block 12] Comment {postId: 3, user: 0x29b8579C6d4D03204EC20C0b2F517D4D753b421C, content: nice}",
		formatRecord(r))

	var out bytes.Buffer
	printRecords(&out, nil)
	require.Equal(t, "No events found\n", out.String())

	out.Reset()
	printRecords(&out, []events.Record{r, r})
	require.True(t, strings.HasSuffix(out.String(), "2 events\n"))
}

func TestFormatTimestamp(t *testing.T) {
	require.Equal(t, "2023-11-14T22:13:20Z", formatTimestamp(big.NewInt(1700000000)))
	require.Equal(t, "0", formatTimestamp(big.NewInt(0)))
}

func TestContractListEmpty(t *testing.T) {
	c := newHarness(t)
	out := c.mustRun("contract", "list")
	require.Contains(t, out, "No contracts deployed")

	_, err := c.run("contract", "info", "blog")
	require.ErrorContains(t, err, "no deployment of blog")
}

func TestContractListConfigured(t *testing.T) {
	c := newHarness(t)
	c.args = append(c.args, "--network", "megaeth-testnet")

	require.NoError(t, config.SaveDeployment(filepath.Join(c.workspace, "deployments.json"), config.DeploymentRecord{
		Name:            "blog",
		Artifact:        "BlogPlatform",
		Network:         "megaeth-testnet",
		Address:         "0x8039fec0287b01a685c851fb0Bac0Ac81694a483",
		Implementation:  "0x90b48E97826d8869E77deB5Be259FBb1A783d7f5",
		TxHash:          "0x01",
		DeployerAddress: "0x29b8579C6d4D03204EC20C0b2F517D4D753b421C",
	}))

	out := c.mustRun("contract", "list")
	require.Contains(t, out, "Found 1 deployed contracts:")
	require.Contains(t, out, "1. blog (BlogPlatform)")
	require.Contains(t, out, "Implementation: 0x90b48E97826d8869E77deB5Be259FBb1A783d7f5")
	require.Contains(t, out, "Configured for megaeth-testnet:")
	require.Contains(t, out, "0x0Da1aa0Ae716eea6A702d76681A9aD3d4e3B3929")

	out = c.mustRun("contract", "info", "blog")
	require.Contains(t, out, "Artifact: BlogPlatform")
	require.Contains(t, out, "Deployer Address: 0x29b8579C6d4D03204EC20C0b2F517D4D753b421C")
}

func TestResolveTargetNeedsABI(t *testing.T) {
	c := newHarness(t)
	_, err := c.run("contract", "call", "0x8039fec0287b01a685c851fb0Bac0Ac81694a483", "owner")
	require.ErrorContains(t, err, "--abi is required")
}
