package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultTokenURI is the metadata minted when no URI is given.
const DefaultTokenURI = "https://raw.githubusercontent.com/youxinddd/pyplist/refs/heads/main/ttt1.json"

type NFTCollection struct {
	*Contract
}

func NewNFTCollection(address common.Address, parsed abi.ABI, backend bind.ContractBackend) *NFTCollection {
	return &NFTCollection{NewContract(MegaNFTCollection, address, parsed, backend)}
}

// MintBatch mints one token per URI to to.
func (n *NFTCollection) MintBatch(opts *bind.TransactOpts, to common.Address, uris []string) (*types.Transaction, error) {
	return n.Transact(opts, "mintBatch", to, uris)
}

func (n *NFTCollection) TokensOfOwner(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	return callOne[[]*big.Int](ctx, n.Contract, "tokensOfOwner", owner)
}

func (n *NFTCollection) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	return callOne[string](ctx, n.Contract, "tokenURI", tokenID)
}

func (n *NFTCollection) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return callOne[common.Address](ctx, n.Contract, "ownerOf", tokenID)
}
