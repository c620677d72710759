package contracts

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	sdktypes "github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// Decimals used by the protocol contracts.
const (
	PriceDecimals      = 8  // Chainlink feeds behind the registry
	PoolDecimals       = 18 // liquidity pool accounting
	CollateralDecimals = 6  // USDC-style collateral token
)

// FormatUnits converts a base-unit integer to a decimal amount.
func FormatUnits(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}

// ParseUnits converts a human amount such as "10.5" to base units.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", sdktypes.ErrInvalidAmount, amount)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount %q", sdktypes.ErrInvalidAmount, amount)
	}
	shifted := d.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", sdktypes.ErrInvalidAmount, amount, decimals)
	}
	return shifted.BigInt(), nil
}
