package contracts

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FormatValue renders an ABI decoded value for terminal output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case *big.Int:
		if x == nil {
			return "0"
		}
		return x.String()
	case []byte:
		return hexutil.Encode(x)
	case string:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return hexutil.Encode(b)
		}
		return formatList(rv)
	case reflect.Slice:
		return formatList(rv)
	case reflect.Struct:
		parts := make([]string, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			parts[i] = fmt.Sprintf("%s: %s", rv.Type().Field(i).Name, FormatValue(rv.Field(i).Interface()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case reflect.Ptr:
		if rv.IsNil() {
			return "<nil>"
		}
		return FormatValue(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

func formatList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = FormatValue(rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatUnits renders amount scaled down by 10^decimals without rounding.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}

	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, unit, new(big.Int))

	out := whole.String()
	if decimals > 0 && frac.Sign() > 0 {
		fs := frac.String()
		fs = strings.Repeat("0", int(decimals)-len(fs)) + fs
		out += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ParseUnits is the inverse of FormatUnits: "1.5" with 18 decimals is
// 1500000000000000000. More fractional digits than decimals is an error.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%q has more than %d decimals", s, decimals)
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok || strings.ContainsAny(digits, "+-") {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}
