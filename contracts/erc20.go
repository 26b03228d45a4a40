package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

type Token struct {
	*Contract
}

func NewToken(address common.Address, parsed abi.ABI, backend bind.ContractBackend) *Token {
	return &Token{NewContract(ERC20, address, parsed, backend)}
}

func (t *Token) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, t.Contract, "balanceOf", holder)
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	return callOne[uint8](ctx, t.Contract, "decimals")
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	return callOne[string](ctx, t.Contract, "symbol")
}

// Balance is a holder's balance with the token's display metadata.
type Balance struct {
	Holder   common.Address
	Raw      *big.Int
	Decimals uint8
	Symbol   string
}

func (b Balance) String() string {
	return FormatUnits(b.Raw, b.Decimals) + " " + b.Symbol
}

func (t *Token) Balance(ctx context.Context, holder common.Address) (Balance, error) {
	raw, err := t.BalanceOf(ctx, holder)
	if err != nil {
		return Balance{}, err
	}
	decimals, err := t.Decimals(ctx)
	if err != nil {
		return Balance{}, err
	}
	symbol, err := t.Symbol(ctx)
	if err != nil {
		return Balance{}, err
	}
	return Balance{Holder: holder, Raw: raw, Decimals: decimals, Symbol: symbol}, nil
}
