package account

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const accountsFile = "accounts.json"

type AccountInfo struct {
	EthAddress string `json:"ethAddress"`
	PrivateKey string `json:"privateKey"`
}

// AccountsFile holds plaintext development keys keyed by role.
type AccountsFile struct {
	Accounts map[string]AccountInfo `json:"accounts"`
}

func (f *AccountsFile) Roles() []string {
	roles := make([]string, 0, len(f.Accounts))
	for role := range f.Accounts {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func LoadWorkspaceAccounts(workspace string) (*AccountsFile, error) {
	accounts := &AccountsFile{Accounts: make(map[string]AccountInfo)}

	data, err := os.ReadFile(filepath.Join(workspace, accountsFile))
	if os.IsNotExist(err) {
		return accounts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	if err := json.Unmarshal(data, accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file: %w", err)
	}
	if accounts.Accounts == nil {
		accounts.Accounts = make(map[string]AccountInfo)
	}
	return accounts, nil
}

// SaveWorkspaceAccount adds role to the workspace accounts file.
func SaveWorkspaceAccount(workspace, role string, key *ecdsa.PrivateKey) (*Account, error) {
	accounts, err := LoadWorkspaceAccounts(workspace)
	if err != nil {
		return nil, err
	}
	if _, exists := accounts.Accounts[role]; exists {
		return nil, fmt.Errorf("%w: role '%s'", ErrAccountExists, role)
	}

	acct := FromKey(role, SourceWorkspace, key)
	accounts.Accounts[role] = AccountInfo{
		EthAddress: acct.Address.Hex(),
		PrivateKey: EncodePrivateKey(key),
	}

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal accounts: %w", err)
	}

	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, accountsFile), data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write accounts file: %w", err)
	}

	return acct, nil
}

func (f *AccountsFile) Load(role string) (*Account, error) {
	info, ok := f.Accounts[role]
	if !ok {
		return nil, fmt.Errorf("%w: role '%s'", ErrAccountNotFound, role)
	}
	key, err := ParsePrivateKey(info.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("account '%s': %w", role, err)
	}
	return FromKey(role, SourceWorkspace, key), nil
}
