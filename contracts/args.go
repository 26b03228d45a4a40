package contracts

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// ConvertArgs turns command line strings into the Go values the ABI encoder
// expects for method's inputs.
func ConvertArgs(method abi.Method, args []string) ([]any, error) {
	return convertInputs(method.Name, method.Inputs, args)
}

// ConvertConstructorArgs does the same for the constructor of parsed.
func ConvertConstructorArgs(parsed abi.ABI, args []string) ([]any, error) {
	return convertInputs("constructor", parsed.Constructor.Inputs, args)
}

func convertInputs(name string, inputs abi.Arguments, args []string) ([]any, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", name, len(inputs), len(args))
	}

	converted := make([]any, len(args))
	for i, arg := range args {
		v, err := ConvertArgument(arg, inputs[i].Type)
		if err != nil {
			return nil, &ArgumentError{Method: name, Index: i, Type: inputs[i].Type.String(), Err: err}
		}
		converted[i] = v
	}
	return converted, nil
}

// ConvertArgument parses one value of type t. Arrays are given as JSON
// arrays, e.g. ["ipfs://a","ipfs://b"].
func ConvertArgument(arg string, t abi.Type) (any, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(arg) {
			return nil, fmt.Errorf("invalid address %q", arg)
		}
		return common.HexToAddress(arg), nil

	case abi.UintTy, abi.IntTy:
		return convertInteger(arg, t)

	case abi.BoolTy:
		return strconv.ParseBool(arg)

	case abi.StringTy:
		return arg, nil

	case abi.BytesTy:
		return decodeHex(arg)

	case abi.FixedBytesTy:
		b, err := decodeHex(arg)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("want %d bytes, got %d", t.Size, len(b))
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		return convertList(arg, t)

	default:
		return nil, fmt.Errorf("unsupported type %s", t.String())
	}
}

func convertInteger(arg string, t abi.Type) (any, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(arg), 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", arg)
	}
	if t.T == abi.UintTy && value.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for %s", value, t.String())
	}

	rt := t.GetType()
	if rt == bigIntType {
		limit := t.Size
		if t.T == abi.IntTy {
			limit--
		}
		if value.BitLen() > limit {
			return nil, fmt.Errorf("value %s overflows %s", value, t.String())
		}
		return value, nil
	}

	v := reflect.New(rt).Elem()
	if t.T == abi.UintTy {
		if !value.IsUint64() || v.OverflowUint(value.Uint64()) {
			return nil, fmt.Errorf("value %s overflows %s", value, t.String())
		}
		v.SetUint(value.Uint64())
	} else {
		if !value.IsInt64() || v.OverflowInt(value.Int64()) {
			return nil, fmt.Errorf("value %s overflows %s", value, t.String())
		}
		v.SetInt(value.Int64())
	}
	return v.Interface(), nil
}

func convertList(arg string, t abi.Type) (any, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(arg), &items); err != nil {
		return nil, fmt.Errorf("want a JSON array for %s: %w", t.String(), err)
	}
	if t.T == abi.ArrayTy && len(items) != t.Size {
		return nil, fmt.Errorf("want %d elements, got %d", t.Size, len(items))
	}

	var list reflect.Value
	if t.T == abi.ArrayTy {
		list = reflect.New(t.GetType()).Elem()
	} else {
		list = reflect.MakeSlice(t.GetType(), len(items), len(items))
	}

	for i, raw := range items {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			// bare numbers and booleans
			s = string(raw)
		}
		v, err := ConvertArgument(s, *t.Elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		list.Index(i).Set(reflect.ValueOf(v))
	}
	return list.Interface(), nil
}

// HasHexPrefix reports whether s starts with 0x or 0X.
func HasHexPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func decodeHex(s string) ([]byte, error) {
	if !HasHexPrefix(s) {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}
