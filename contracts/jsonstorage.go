package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// InitTag is the action tag of the first document written after deployment.
const InitTag = "init"

// JsonStorage is JsonStorageV1: one JSON document, rewritten with a tag that
// is indexed as keccak256(tag) in JsonChanged.
type JsonStorage struct {
	*Contract
}

func NewJsonStorage(address common.Address, parsed abi.ABI, backend bind.ContractBackend) *JsonStorage {
	return &JsonStorage{NewContract(JsonStorageV1, address, parsed, backend)}
}

func (j *JsonStorage) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, j.Contract, "owner")
}

func (j *JsonStorage) UpgradeTo(opts *bind.TransactOpts, implementation common.Address) (*types.Transaction, error) {
	return j.Transact(opts, "upgradeTo", implementation)
}

func (j *JsonStorage) SetJson(opts *bind.TransactOpts, json, actionTag string) (*types.Transaction, error) {
	return j.Transact(opts, "setJson", json, actionTag)
}

func (j *JsonStorage) GetJson(ctx context.Context) (string, error) {
	return callOne[string](ctx, j.Contract, "getJson")
}
