// Package events finds and decodes contract event logs: argument filters on
// indexed fields, backward block windows, a bbolt cache for finalized ranges
// and a polling watcher for new logs.
package events

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/youxinddd/dappctl/contracts"
)

// Filter selects logs of one event on one contract. Args filters indexed
// inputs by name.
type Filter struct {
	Address common.Address
	Event   abi.Event
	Args    map[string]string
}

// TextHash is keccak256 of s, the form in which Solidity indexes a bytes32
// tag hashed from text.
func TextHash(s string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(s))
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// Topics builds the topic list: event ID first, then one slot per indexed
// input up to the last filtered one.
func (f Filter) Topics() ([][]common.Hash, error) {
	indexed := indexedInputs(f.Event)

	byName := make(map[string]abi.Argument, len(indexed))
	for _, arg := range indexed {
		byName[arg.Name] = arg
	}
	for name := range f.Args {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("%s has no indexed argument %q (indexed: %s)", f.Event.Name, name, strings.Join(argNames(indexed), ", "))
		}
	}

	last := -1
	for i, arg := range indexed {
		if _, ok := f.Args[arg.Name]; ok {
			last = i
		}
	}

	query := make([][]any, last+1)
	for i := 0; i <= last; i++ {
		raw, ok := f.Args[indexed[i].Name]
		if !ok {
			continue
		}
		v, err := topicValue(raw, indexed[i].Type)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", indexed[i].Name, err)
		}
		query[i] = []any{v}
	}

	rest, err := abi.MakeTopics(query...)
	if err != nil {
		return nil, fmt.Errorf("failed to build topics: %w", err)
	}
	return append([][]common.Hash{{f.Event.ID}}, rest...), nil
}

// Query returns the FilterLogs query of f over [from, to].
func (f Filter) Query(from, to uint64) (ethereum.FilterQuery, error) {
	topics, err := f.Topics()
	if err != nil {
		return ethereum.FilterQuery{}, err
	}
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{f.Address},
		Topics:    topics,
	}, nil
}

// ParseArgs turns ["name=value", ...] into a filter map.
func ParseArgs(pairs []string) (map[string]string, error) {
	args := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q, want name=value", p)
		}
		args[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return args, nil
}

func topicValue(raw string, t abi.Type) (any, error) {
	switch t.T {
	case abi.FixedBytesTy:
		if t.Size == 32 {
			if b, err := contracts.ConvertArgument(raw, t); err == nil && contracts.HasHexPrefix(raw) {
				return b, nil
			}
			// non-hex text is matched by its hash
			return [32]byte(TextHash(raw)), nil
		}
	case abi.StringTy:
		// MakeTopics hashes strings itself
		return raw, nil
	}
	return contracts.ConvertArgument(raw, t)
}

func indexedInputs(ev abi.Event) abi.Arguments {
	var out abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			out = append(out, arg)
		}
	}
	return out
}

func argNames(args abi.Arguments) []string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}
