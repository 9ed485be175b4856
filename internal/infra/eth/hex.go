package eth

import (
	"fmt"
	"math/big"
	"strings"
)

func parseHexUint(hexStr string) (uint64, error) {
	n, err := parseHexBig(hexStr)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func parseHexBig(hexStr string) (*big.Int, error) {
	if hexStr == "" || hexStr == "0x" {
		return big.NewInt(0), nil
	}
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return nil, fmt.Errorf("invalid hex: %s", hexStr)
	}
	return n, nil
}

func getString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
