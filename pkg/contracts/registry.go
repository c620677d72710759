package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// CountryRegistry wraps the registry that maps country codes to price feeds.
type CountryRegistry struct {
	client  *Client
	address common.Address
}

// NewCountryRegistry binds the registry at address.
func NewCountryRegistry(client *Client, address common.Address) *CountryRegistry {
	return &CountryRegistry{client: client, address: address}
}

// CountryPrice returns the latest index price for a country id.
func (r *CountryRegistry) CountryPrice(ctx context.Context, countryID string) (float64, error) {
	out, err := r.client.call(ctx, r.address, countryRegistryABI, MethodGetCountryPrice, [32]byte(CountryCode(countryID)))
	if err != nil {
		return 0, err
	}
	raw, err := asBigInt(out[0], MethodGetCountryPrice)
	if err != nil {
		return 0, err
	}
	return FormatUnits(raw, PriceDecimals).InexactFloat64(), nil
}

// IsCountryActive reports whether trading is enabled for a country id.
func (r *CountryRegistry) IsCountryActive(ctx context.Context, countryID string) (bool, error) {
	out, err := r.client.call(ctx, r.address, countryRegistryABI, MethodIsCountryActive, [32]byte(CountryCode(countryID)))
	if err != nil {
		return false, err
	}
	return asBool(out[0], MethodIsCountryActive)
}
