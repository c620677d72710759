package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	sdktypes "github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// MaxRatioBps is 100% expressed in basis points.
const MaxRatioBps = 10000

// CountryTrading wraps the margin trading contract.
type CountryTrading struct {
	client  *Client
	address common.Address
}

// NewCountryTrading binds the trading contract at address.
func NewCountryTrading(client *Client, address common.Address) *CountryTrading {
	return &CountryTrading{client: client, address: address}
}

// Address returns the trading contract address.
func (t *CountryTrading) Address() common.Address { return t.address }

// Deposit moves collateral into the trader's margin account.
func (t *CountryTrading) Deposit(ctx context.Context, amount *big.Int) (*TxResult, error) {
	return t.client.transact(ctx, t.address, countryTradingABI, MethodDeposit, amount)
}

// Withdraw moves collateral out of the margin account.
func (t *CountryTrading) Withdraw(ctx context.Context, amount *big.Int) (*TxResult, error) {
	return t.client.transact(ctx, t.address, countryTradingABI, MethodWithdraw, amount)
}

// OpenLong opens a long position on a country index.
func (t *CountryTrading) OpenLong(ctx context.Context, countryID string, collateral *big.Int) (*TxResult, error) {
	return t.client.transact(ctx, t.address, countryTradingABI, MethodOpenLongPosition, [32]byte(CountryCode(countryID)), collateral)
}

// OpenShort opens a short position on a country index.
func (t *CountryTrading) OpenShort(ctx context.Context, countryID string, collateral *big.Int) (*TxResult, error) {
	return t.client.transact(ctx, t.address, countryTradingABI, MethodOpenShortPosition, [32]byte(CountryCode(countryID)), collateral)
}

// ClosePosition fully closes a position.
func (t *CountryTrading) ClosePosition(ctx context.Context, positionID *big.Int) (*TxResult, error) {
	return t.client.transact(ctx, t.address, countryTradingABI, MethodClosePosition, positionID)
}

// ClosePartial closes ratioBps/10000 of a position.
func (t *CountryTrading) ClosePartial(ctx context.Context, positionID *big.Int, ratioBps uint16) (*TxResult, error) {
	if ratioBps == 0 || ratioBps > MaxRatioBps {
		return nil, fmt.Errorf("%w: ratio must be between 1 and %d bps, got %d", sdktypes.ErrInvalidAmount, MaxRatioBps, ratioBps)
	}
	return t.client.transact(ctx, t.address, countryTradingABI, MethodClosePositionPartial, positionID, big.NewInt(int64(ratioBps)))
}

// IncreaseCollateral adds margin to an open position.
func (t *CountryTrading) IncreaseCollateral(ctx context.Context, positionID, amount *big.Int) (*TxResult, error) {
	return t.client.transact(ctx, t.address, countryTradingABI, MethodIncreaseCollateral, positionID, amount)
}

// Liquidate liquidates an undercollateralised position of user.
func (t *CountryTrading) Liquidate(ctx context.Context, user common.Address, positionID *big.Int) (*TxResult, error) {
	return t.client.transact(ctx, t.address, countryTradingABI, MethodLiquidatePosition, user, positionID)
}

// PositionIDFromReceipt extracts the position id from the PositionOpened event.
func PositionIDFromReceipt(receipt *types.Receipt) (*big.Int, error) {
	if receipt == nil {
		return nil, fmt.Errorf("no receipt")
	}
	eventID := countryTradingABI.Events[EventPositionOpened].ID

	for _, log := range receipt.Logs {
		if len(log.Topics) > 0 && log.Topics[0] == eventID {
			// positionId is the second indexed parameter (Topics[2])
			if len(log.Topics) >= 3 {
				return new(big.Int).SetBytes(log.Topics[2].Bytes()), nil
			}
		}
	}

	return nil, fmt.Errorf("PositionOpened event not found in receipt")
}
