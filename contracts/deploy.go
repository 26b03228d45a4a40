package contracts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Deploy sends the creation transaction of artifact. The returned address is
// where the contract will live once the transaction is mined.
func Deploy(opts *bind.TransactOpts, backend bind.ContractBackend, artifact *Artifact, args ...any) (common.Address, *types.Transaction, error) {
	if !artifact.Deployable() {
		return common.Address{}, nil, fmt.Errorf("%w: %s (compile it into the build directory)", ErrNoBytecode, artifact.Name)
	}

	addr, tx, _, err := bind.DeployContract(opts, artifact.ABI, artifact.Bytecode, backend, args...)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to deploy %s: %w", artifact.Name, err)
	}
	return addr, tx, nil
}

// DeployProxy deploys proxy(logic, initData). The proxy delegates every call
// to logic and runs initData against it during construction.
func DeployProxy(opts *bind.TransactOpts, backend bind.ContractBackend, proxy *Artifact, logic common.Address, initData []byte) (common.Address, *types.Transaction, error) {
	return Deploy(opts, backend, proxy, logic, initData)
}

// InitializeCalldata encodes initialize() of a logic contract.
func InitializeCalldata(logic *Artifact) ([]byte, error) {
	if _, ok := logic.ABI.Methods["initialize"]; !ok {
		return nil, fmt.Errorf("%w: %s.initialize", ErrMethodNotFound, logic.Name)
	}
	return logic.ABI.Pack("initialize")
}
