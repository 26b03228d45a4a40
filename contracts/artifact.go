package contracts

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Contract names with an embedded ABI.
const (
	BlogPlatform      = "BlogPlatform"
	JsonStorageV1     = "JsonStorageV1"
	MegaNFTCollection = "MegaNFTCollection"
	MyProxy           = "MyProxy"
	ERC20             = "ERC20"
)

//go:embed abi/*.json
var embedded embed.FS

// Artifact is a compiled contract: its ABI and, when built locally, its
// creation bytecode.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
	// Path is empty for embedded ABIs.
	Path string
}

func (a *Artifact) Deployable() bool {
	return len(a.Bytecode) > 0
}

// artifactFile covers brownie, hardhat and foundry layouts. Bytecode is a
// hex string in the first two and {"object": "0x.."} in foundry.
type artifactFile struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode json.RawMessage `json:"bytecode"`
}

func parseABI(data []byte) (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsed, nil
}

func parseBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("unrecognised bytecode field")
		}
		code = obj.Object
	}

	if code == "" || code == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	b, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode (unlinked libraries?): %w", err)
	}
	return b, nil
}

// ReadArtifact parses one artifact JSON file.
func ReadArtifact(name, file string) (*Artifact, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var af artifactFile
	if err := json.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", file, err)
	}
	if len(af.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", file)
	}

	parsed, err := parseABI(af.ABI)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", file, err)
	}
	code, err := parseBytecode(af.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", file, err)
	}

	return &Artifact{Name: name, ABI: parsed, Bytecode: code, Path: file}, nil
}

// findArtifact looks for name under buildDir in brownie, foundry and then
// hardhat layout.
func findArtifact(buildDir, name string) (string, error) {
	candidates := []string{
		filepath.Join(buildDir, "contracts", name+".json"),
		filepath.Join(buildDir, name+".sol", name+".json"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}

	var found string
	err := filepath.WalkDir(buildDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == "build-info" {
			return filepath.SkipDir
		}
		if !d.IsDir() && d.Name() == name+".json" {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to search %s: %w", buildDir, err)
	}
	return found, nil
}

// LoadArtifact loads name from buildDir, falling back to the embedded ABI
// (without bytecode) when no build output exists.
func LoadArtifact(buildDir, name string) (*Artifact, error) {
	if buildDir != "" {
		file, err := findArtifact(buildDir, name)
		if err != nil {
			return nil, err
		}
		if file != "" {
			return ReadArtifact(name, file)
		}
	}

	parsed, err := EmbeddedABI(name)
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: name, ABI: parsed}, nil
}

func EmbeddedABI(name string) (abi.ABI, error) {
	data, err := embedded.ReadFile(path.Join("abi", name+".json"))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}
	return parseABI(data)
}

func EmbeddedNames() []string {
	entries, _ := embedded.ReadDir("abi")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// Registry memoizes artifacts of one build directory.
type Registry struct {
	buildDir string

	mu     sync.Mutex
	loaded map[string]*Artifact
}

func NewRegistry(buildDir string) *Registry {
	return &Registry{buildDir: buildDir, loaded: make(map[string]*Artifact)}
}

func (r *Registry) Get(name string) (*Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.loaded[name]; ok {
		return a, nil
	}
	a, err := LoadArtifact(r.buildDir, name)
	if err != nil {
		return nil, err
	}
	r.loaded[name] = a
	return a, nil
}

// Calldata encodes a call of a no-argument method of artifact.
func (r *Registry) Calldata(artifact, method string) ([]byte, error) {
	a, err := r.Get(artifact)
	if err != nil {
		return nil, err
	}
	if _, ok := a.ABI.Methods[method]; !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrMethodNotFound, artifact, method)
	}
	return a.ABI.Pack(method)
}
