package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Network describes one chain dappctl can talk to.
type Network struct {
	Name      string            `mapstructure:"-"`
	Host      string            `mapstructure:"host"`
	ChainID   uint64            `mapstructure:"chain_id"`
	Contracts map[string]string `mapstructure:"contracts"`
}

// ActiveNetwork resolves the selected network. An explicit RPC URL
// overrides the host and allows networks missing from the config.
func (c *Config) ActiveNetwork() (Network, error) {
	n, ok := c.Networks[strings.ToLower(c.Network)]
	if !ok && c.RPC == "" {
		return Network{}, fmt.Errorf("unknown network %q (known: %s)", c.Network, strings.Join(c.NetworkNames(), ", "))
	}

	n.Name = c.Network
	if c.RPC != "" {
		n.Host = c.RPC
	}
	if n.Host == "" {
		return Network{}, fmt.Errorf("network %q has no RPC host", c.Network)
	}
	return n, nil
}

func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContractAddress returns the configured address of a well-known contract.
func (n Network) ContractAddress(name string) (common.Address, bool) {
	raw, ok := n.Contracts[strings.ToLower(name)]
	if !ok || !common.IsHexAddress(raw) {
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
