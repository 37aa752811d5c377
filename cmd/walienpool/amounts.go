package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// parseAmount converts a human token amount such as "12.5" into base units.
func parseAmount(input string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(input)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", input)
	}
	units := d.Shift(int32(decimals))
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimals", input, decimals)
	}
	n := units.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows u64", input)
	}
	return n.Uint64(), nil
}

func formatAmount(units uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals)).StringFixed(int32(decimals))
}

func parseU128(name, input string) (uint256.Int, error) {
	v, err := uint256.FromDecimal(input)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("invalid %s %q: %w", name, input, err)
	}
	return *v, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
