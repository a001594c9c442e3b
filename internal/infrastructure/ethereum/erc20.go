package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ERC-20 function selectors: first four bytes of the keccak256 hash of
// the canonical signature
var (
	// balanceOf(address)
	balanceOfSelector = common.Hex2Bytes("70a08231")
	// transfer(address,uint256)
	transferSelector = common.Hex2Bytes("a9059cbb")
)

// PackBalanceOf builds the call data for balanceOf(address)
func PackBalanceOf(owner common.Address) []byte {
	data := make([]byte, 0, 4+32)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)
	return data
}

// PackTransfer builds the call data for transfer(address,uint256)
func PackTransfer(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+64)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

// ChecksumAddress normalizes an address to its EIP-55 checksummed form
func ChecksumAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid address: %s", address)
	}
	return common.HexToAddress(address).Hex(), nil
}

// decodeHex decodes a hex string with or without the 0x prefix
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) == 0 || len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length or empty hex string")
	}
	b := common.FromHex("0x" + s)
	if len(b) != len(s)/2 {
		return nil, fmt.Errorf("invalid hex string")
	}
	return b, nil
}
