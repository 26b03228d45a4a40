package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract is an ABI bound to an address.
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI

	bound *bind.BoundContract
}

func NewContract(name string, address common.Address, parsed abi.ABI, backend bind.ContractBackend) *Contract {
	return &Contract{
		Name:    name,
		Address: address,
		ABI:     parsed,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
	}
}

func (c *Contract) Method(name string) (abi.Method, error) {
	m, ok := c.ABI.Methods[name]
	if !ok {
		return abi.Method{}, fmt.Errorf("%w: %s.%s", ErrMethodNotFound, c.Name, name)
	}
	return m, nil
}

func (c *Contract) Event(name string) (abi.Event, error) {
	e, ok := c.ABI.Events[name]
	if !ok {
		return abi.Event{}, fmt.Errorf("%w: %s.%s", ErrEventNotFound, c.Name, name)
	}
	return e, nil
}

// Call invokes a read method and returns the unpacked outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	if _, err := c.Method(method); err != nil {
		return nil, err
	}

	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("failed to call %s.%s: %w", c.Name, method, err)
	}
	return out, nil
}

// Transact signs and sends a state changing call.
func (c *Contract) Transact(opts *bind.TransactOpts, method string, args ...any) (*types.Transaction, error) {
	if _, err := c.Method(method); err != nil {
		return nil, err
	}

	tx, err := c.bound.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s.%s: %w", c.Name, method, err)
	}
	return tx, nil
}

// EncodeInput returns the calldata of method with args.
func (c *Contract) EncodeInput(method string, args ...any) ([]byte, error) {
	if _, err := c.Method(method); err != nil {
		return nil, err
	}
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s.%s: %w", c.Name, method, err)
	}
	return data, nil
}

// callOne calls method and converts its first output to T.
func callOne[T any](ctx context.Context, c *Contract, method string, args ...any) (T, error) {
	var zero T

	out, err := c.Call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, fmt.Errorf("%w: %s.%s returned nothing", ErrUnexpectedOutput, c.Name, method)
	}
	return convert[T](out[0], c.Name+"."+method)
}

// convert is abi.ConvertType without the panic.
func convert[T any](in any, what string) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrUnexpectedOutput, what, r)
		}
	}()
	return *abi.ConvertType(in, new(T)).(*T), nil
}
