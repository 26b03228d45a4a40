package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type DeploymentRecord struct {
	Name            string    `json:"name"`
	Network         string    `json:"network"`
	Artifact        string    `json:"artifact"`
	Address         string    `json:"address"`
	Implementation  string    `json:"implementation,omitempty"`
	DeployerAddress string    `json:"deployer_address"`
	TxHash          string    `json:"txhash"`
	Block           uint64    `json:"block"`
	DeployedAt      time.Time `json:"deployed_at"`
}

// LoadDeploymentRecords reads deployment records from deployments.json
func LoadDeploymentRecords(deploymentsPath string) ([]DeploymentRecord, error) {
	if _, err := os.Stat(deploymentsPath); os.IsNotExist(err) {
		return []DeploymentRecord{}, nil
	}

	data, err := os.ReadFile(deploymentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read deployments: %w", err)
	}

	var deployments []DeploymentRecord
	if err := json.Unmarshal(data, &deployments); err != nil {
		return nil, fmt.Errorf("failed to parse deployments: %w", err)
	}

	return deployments, nil
}

// SaveDeployment stores record, replacing any earlier record with the same
// name on the same network.
func SaveDeployment(deploymentsPath string, record DeploymentRecord) error {
	deployments, err := LoadDeploymentRecords(deploymentsPath)
	if err != nil {
		return err
	}

	replaced := false
	for i := range deployments {
		if deployments[i].Name == record.Name && strings.EqualFold(deployments[i].Network, record.Network) {
			deployments[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		deployments = append(deployments, record)
	}

	if err := os.MkdirAll(filepath.Dir(deploymentsPath), 0755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	data, err := json.MarshalIndent(deployments, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deployments: %w", err)
	}

	if err := os.WriteFile(deploymentsPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write deployments: %w", err)
	}
	return nil
}

// FindDeployment returns the record for name on network. An empty network
// matches any.
func FindDeployment(deployments []DeploymentRecord, name, network string) (*DeploymentRecord, bool) {
	for i := range deployments {
		d := &deployments[i]
		if d.Name != name {
			continue
		}
		if network == "" || strings.EqualFold(d.Network, network) {
			return d, true
		}
	}
	return nil, false
}

// ResolveAddress finds the address of a named contract: an explicit override
// first, then the workspace deployments for the active network, then the
// addresses configured for that network.
func (c *Config) ResolveAddress(name, override string) (common.Address, error) {
	if override != "" {
		if !common.IsHexAddress(override) {
			return common.Address{}, fmt.Errorf("invalid address %q", override)
		}
		return common.HexToAddress(override), nil
	}

	deployments, err := LoadDeploymentRecords(c.DeploymentsPath())
	if err != nil {
		return common.Address{}, err
	}
	if record, ok := FindDeployment(deployments, name, c.Network); ok {
		return common.HexToAddress(record.Address), nil
	}

	if n, ok := c.Networks[strings.ToLower(c.Network)]; ok {
		if addr, ok := n.ContractAddress(name); ok {
			return addr, nil
		}
	}

	return common.Address{}, fmt.Errorf("no address for contract %q on network %s; deploy it or pass --address", name, c.Network)
}
