package identity

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Composite is a subject identifier produced by identity issuance:
// chainId:contractAddress:tokenId
type Composite struct {
	ChainID  int64
	Contract common.Address
	TokenID  *big.Int
}

// String formats the composite with a checksummed contract address
func (c Composite) String() string {
	token := "0"
	if c.TokenID != nil {
		token = c.TokenID.String()
	}
	return fmt.Sprintf("%d:%s:%s", c.ChainID, c.Contract.Hex(), token)
}

// ParseComposite parses and validates a composite identifier
func ParseComposite(s string) (Composite, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Composite{}, fmt.Errorf("composite identifier %q must have the form chainId:contract:tokenId", s)
	}

	chainID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || chainID <= 0 {
		return Composite{}, fmt.Errorf("composite identifier %q has an invalid chain id", s)
	}

	if !strings.HasPrefix(parts[1], "0x") || !common.IsHexAddress(parts[1]) {
		return Composite{}, fmt.Errorf("composite identifier %q has an invalid contract address", s)
	}

	tokenID, ok := new(big.Int).SetString(parts[2], 10)
	if !ok || tokenID.Sign() < 0 {
		return Composite{}, fmt.Errorf("composite identifier %q has an invalid token id", s)
	}

	return Composite{
		ChainID:  chainID,
		Contract: common.HexToAddress(parts[1]),
		TokenID:  tokenID,
	}, nil
}

// IsComposite reports whether s is a valid composite identifier
func IsComposite(s string) bool {
	_, err := ParseComposite(s)
	return err == nil
}
