package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/youxinddd/dappctl/contracts"
)

// Record is a decoded log.
type Record struct {
	Event   string
	Address common.Address
	Block   uint64
	TxHash  common.Hash
	Index   uint
	Args    map[string]any
	// Names lists Args keys in ABI order.
	Names []string
}

// Field is one formatted event argument.
type Field struct {
	Name  string
	Value string
}

func (r Record) Fields() []Field {
	fields := make([]Field, len(r.Names))
	for i, name := range r.Names {
		fields[i] = Field{Name: name, Value: contracts.FormatValue(r.Args[name])}
	}
	return fields
}

// Decode unpacks a log of ev. Indexed dynamic values (strings, bytes) are
// only available as their hash.
func Decode(ev abi.Event, log types.Log) (Record, error) {
	if len(log.Topics) == 0 || log.Topics[0] != ev.ID {
		return Record{}, fmt.Errorf("log %s:%d is not a %s event", log.TxHash.Hex(), log.Index, ev.Name)
	}

	args := make(map[string]any, len(ev.Inputs))
	if err := ev.Inputs.UnpackIntoMap(args, log.Data); err != nil {
		return Record{}, fmt.Errorf("failed to unpack %s data: %w", ev.Name, err)
	}
	if err := abi.ParseTopicsIntoMap(args, indexedInputs(ev), log.Topics[1:]); err != nil {
		return Record{}, fmt.Errorf("failed to parse %s topics: %w", ev.Name, err)
	}

	names := make([]string, len(ev.Inputs))
	for i, in := range ev.Inputs {
		names[i] = in.Name
	}

	return Record{
		Event:   ev.Name,
		Address: log.Address,
		Block:   log.BlockNumber,
		TxHash:  log.TxHash,
		Index:   log.Index,
		Args:    args,
		Names:   names,
	}, nil
}

// DecodeReceipt decodes every log of ev emitted by address in receipt.
func DecodeReceipt(ev abi.Event, address common.Address, receipt *types.Receipt) ([]Record, error) {
	var records []Record
	for _, log := range receipt.Logs {
		if log.Address != address || len(log.Topics) == 0 || log.Topics[0] != ev.ID {
			continue
		}
		r, err := Decode(ev, *log)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
