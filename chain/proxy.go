package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ImplementationSlot is bytes32(uint256(keccak256("eip1967.proxy.implementation")) - 1).
var ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")

// Implementation reads the logic contract address from an EIP-1967 proxy.
func (c *Client) Implementation(ctx context.Context, proxy common.Address) (common.Address, error) {
	raw, err := c.backend.StorageAt(ctx, proxy, ImplementationSlot, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read implementation slot of %s: %w", proxy.Hex(), err)
	}
	return common.BytesToAddress(raw), nil
}

// HasCode reports whether addr holds contract code.
func (c *Client) HasCode(ctx context.Context, addr common.Address) (bool, error) {
	code, err := c.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to read code at %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}
