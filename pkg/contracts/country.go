package contracts

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CountryCode returns the registry key for a country id: keccak256(utf8(id)).
func CountryCode(countryID string) common.Hash {
	return crypto.Keccak256Hash([]byte(countryID))
}
