package contracts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const tinyABI = `[{"type":"function","name":"getJson","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestEmbeddedABIs(t *testing.T) {
	require.Equal(t, []string{BlogPlatform, ERC20, JsonStorageV1, MegaNFTCollection, MyProxy}, EmbeddedNames())

	cases := map[string][]string{
		BlogPlatform: {
			"initialize()", "createPost(string,string,string)", "comment(uint256,string)",
			"draw()", "getPrizeList()", "getPosts(uint256,uint256)", "addPrize(string,string,uint256)",
			"setProfile(string,string,string)", "getUserProfile(address)", "getUserPosts(address,uint256,uint256)",
			"getOwnedTokens(address)", "clearAllPosts()", "rebuildAllUserIndexes()", "upgradeTo(address)",
		},
		JsonStorageV1:     {"initialize()", "setJson(string,string)", "getJson()", "owner()"},
		MegaNFTCollection: {"mintBatch(address,string[])", "tokensOfOwner(address)", "tokenURI(uint256)"},
		ERC20:             {"balanceOf(address)", "decimals()", "symbol()"},
	}

	for name, sigs := range cases {
		parsed, err := EmbeddedABI(name)
		require.NoError(t, err, name)

		have := make(map[string]bool)
		for _, m := range parsed.Methods {
			have[m.Sig] = true
		}
		for _, sig := range sigs {
			require.True(t, have[sig], "%s lacks %s", name, sig)
		}
	}

	blog, err := EmbeddedABI(BlogPlatform)
	require.NoError(t, err)
	require.Equal(t, "Comment(address,uint256,string,uint256)", blog.Events["Comment"].Sig)
	require.Equal(t, "NFTDrawn(address,uint256,string)", blog.Events["NFTDrawn"].Sig)
	require.Equal(t, []byte{0x81, 0x29, 0xfc, 0x1c}, blog.Methods["initialize"].ID)

	store, err := EmbeddedABI(JsonStorageV1)
	require.NoError(t, err)
	require.Equal(t, "JsonChanged(address,bytes32,string,uint256)", store.Events["JsonChanged"].Sig)

	proxy, err := EmbeddedABI(MyProxy)
	require.NoError(t, err)
	require.Len(t, proxy.Constructor.Inputs, 2)

	_, err = EmbeddedABI("Nope")
	require.True(t, errors.Is(err, ErrArtifactNotFound))
}

func TestLoadArtifactLayouts(t *testing.T) {
	t.Run("brownie", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "contracts", "JsonStorageV1.json"),
			`{"contractName":"JsonStorageV1","abi":`+tinyABI+`,"bytecode":"6080604052"}`)

		a, err := LoadArtifact(dir, JsonStorageV1)
		require.NoError(t, err)
		require.True(t, a.Deployable())
		require.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, a.Bytecode)
		require.Contains(t, a.ABI.Methods, "getJson")
	})

	t.Run("foundry", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "BlogPlatform.sol", "BlogPlatform.json"),
			`{"abi":`+tinyABI+`,"bytecode":{"object":"0x6001","linkReferences":{}}}`)

		a, err := LoadArtifact(dir, BlogPlatform)
		require.NoError(t, err)
		require.Equal(t, []byte{0x60, 0x01}, a.Bytecode)
	})

	t.Run("hardhat", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "build-info", "MyProxy.json"), `{"garbage":true}`)
		writeFile(t, filepath.Join(dir, "contracts", "proxy", "MyProxy.sol", "MyProxy.json"),
			`{"_format":"hh-sol-artifact-1","abi":`+tinyABI+`,"bytecode":"0x6002"}`)

		a, err := LoadArtifact(dir, MyProxy)
		require.NoError(t, err)
		require.Equal(t, []byte{0x60, 0x02}, a.Bytecode)
		require.Contains(t, a.Path, "MyProxy.sol")
	})

	t.Run("embedded fallback", func(t *testing.T) {
		a, err := LoadArtifact(filepath.Join(t.TempDir(), "missing"), MegaNFTCollection)
		require.NoError(t, err)
		require.False(t, a.Deployable())
		require.Empty(t, a.Path)
		require.Contains(t, a.ABI.Methods, "mintBatch")
	})

	t.Run("unlinked bytecode", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "contracts", "Linked.json"),
			`{"abi":`+tinyABI+`,"bytecode":"6080__$lib$__6040"}`)

		_, err := LoadArtifact(dir, "Linked")
		require.ErrorContains(t, err, "unlinked")
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := LoadArtifact(t.TempDir(), "Unknown")
		require.True(t, errors.Is(err, ErrArtifactNotFound))
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry("")

	a, err := r.Get(BlogPlatform)
	require.NoError(t, err)
	b, err := r.Get(BlogPlatform)
	require.NoError(t, err)
	require.Same(t, a, b)

	data, err := r.Calldata(JsonStorageV1, "initialize")
	require.NoError(t, err)
	require.Equal(t, []byte{0x81, 0x29, 0xfc, 0x1c}, data)

	_, err = r.Calldata(JsonStorageV1, "draw")
	require.True(t, errors.Is(err, ErrMethodNotFound))

	init, err := InitializeCalldata(a)
	require.NoError(t, err)
	require.Equal(t, data, init)

	nft, err := r.Get(MegaNFTCollection)
	require.NoError(t, err)
	_, err = InitializeCalldata(nft)
	require.True(t, errors.Is(err, ErrMethodNotFound))
}
