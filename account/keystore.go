package account

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

const keystoreExt = ".json"

func keystorePath(dir, name string) string {
	return filepath.Join(dir, name+keystoreExt)
}

// LoadKeystore decrypts the V3 keystore <dir>/<name>.json.
func LoadKeystore(dir, name, password string) (*Account, error) {
	data, err := os.ReadFile(keystorePath(dir, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: no keystore %s in %s", ErrAccountNotFound, name, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	key, err := keystore.DecryptKey(data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore %s: %w", name, err)
	}

	return FromKey(name, SourceKeystore, key.PrivateKey), nil
}

// SaveKeystore encrypts key into <dir>/<name>.json. Light selects the cheap
// scrypt parameters.
func SaveKeystore(dir, name string, key *ecdsa.PrivateKey, password string, light bool) (string, error) {
	path := keystorePath(dir, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s at %s", ErrAccountExists, name, path)
	}

	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if light {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to create key id: %w", err)
	}

	data, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, password, scryptN, scryptP)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt key: %w", err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create keystore dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write keystore: %w", err)
	}

	return path, nil
}

// ListKeystore returns the account names stored in dir.
func ListKeystore(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), keystoreExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), keystoreExt))
	}
	sort.Strings(names)
	return names, nil
}

func keystoreAddress(dir, name string) (string, error) {
	data, err := os.ReadFile(keystorePath(dir, name))
	if err != nil {
		return "", err
	}

	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return "", fmt.Errorf("invalid keystore json: %w", err)
	}
	if header.Address == "" {
		return "", fmt.Errorf("keystore has no address")
	}
	return common.HexToAddress(header.Address).Hex(), nil
}
