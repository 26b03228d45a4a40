// Package account resolves the signing keys dappctl transacts with. Keys come
// from brownie-style encrypted keystores, plaintext workspace roles or a
// HashiCorp Vault KV store.
package account

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

const (
	SourceKeystore  = "keystore"
	SourceWorkspace = "workspace"
	SourceVault     = "vault"
)

type Account struct {
	Name    string
	Address common.Address
	Key     *ecdsa.PrivateKey
	Source  string
}

func FromKey(name, source string, key *ecdsa.PrivateKey) *Account {
	return &Account{
		Name:    name,
		Address: crypto.PubkeyToAddress(key.PublicKey),
		Key:     key,
		Source:  source,
	}
}

func (a *Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Address.Hex())
}

// ParsePrivateKey decodes a hex secp256k1 key with or without 0x prefix.
func ParsePrivateKey(privateKeyStr string) (*ecdsa.PrivateKey, error) {
	privateKeyStr = strings.TrimPrefix(strings.TrimSpace(privateKeyStr), "0x")

	privateKeyBytes, err := hex.DecodeString(privateKeyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid hex format: %w", err)
	}

	if len(privateKeyBytes) != 32 {
		return nil, fmt.Errorf("invalid private key length: got %d bytes, want 32 bytes", len(privateKeyBytes))
	}

	privateKey, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return privateKey, nil
}

func Generate() (*ecdsa.PrivateKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

func EncodePrivateKey(key *ecdsa.PrivateKey) string {
	return fmt.Sprintf("0x%x", crypto.FromECDSA(key))
}
