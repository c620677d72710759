package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	sdktypes "github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// LiquidityPool wraps the counterparty pool.
type LiquidityPool struct {
	client     *Client
	address    common.Address
	collateral AllowanceToken
}

// NewLiquidityPool binds the pool at address. collateral is used to approve deposits.
func NewLiquidityPool(client *Client, address common.Address, collateral AllowanceToken) *LiquidityPool {
	return &LiquidityPool{client: client, address: address, collateral: collateral}
}

// PoolMetrics reads pool balance and open interest.
func (p *LiquidityPool) PoolMetrics(ctx context.Context) (*sdktypes.PoolMetrics, error) {
	out, err := p.client.call(ctx, p.address, liquidityPoolABI, MethodGetPoolMetrics)
	if err != nil {
		return nil, err
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("%w: getPoolMetrics returned %d values", sdktypes.ErrContractError, len(out))
	}

	values := make([]float64, 3)
	for i, v := range out {
		b, err := asBigInt(v, MethodGetPoolMetrics)
		if err != nil {
			return nil, err
		}
		values[i] = FormatUnits(b, PoolDecimals).InexactFloat64()
	}

	return &sdktypes.PoolMetrics{
		PoolBalance:            values[0],
		TotalLongOpenInterest:  values[1],
		TotalShortOpenInterest: values[2],
	}, nil
}

// Paused reports whether the pool is paused.
func (p *LiquidityPool) Paused(ctx context.Context) (bool, error) {
	out, err := p.client.call(ctx, p.address, liquidityPoolABI, MethodPaused)
	if err != nil {
		return false, err
	}
	return asBool(out[0], MethodPaused)
}

// Deposit approves the pool if needed and deposits amount. Returns the deposit tx hash.
func (p *LiquidityPool) Deposit(ctx context.Context, amount *big.Int) (string, error) {
	if !p.client.CanSign() {
		return "", sdktypes.ErrWalletNotConnected
	}
	if _, err := EnsureAllowance(ctx, p.collateral, p.client.Address(), p.address, amount); err != nil {
		return "", err
	}
	result, err := p.client.transact(ctx, p.address, liquidityPoolABI, MethodDeposit, amount)
	if err != nil {
		return result.SentHash(), err
	}
	return result.TxHash, nil
}

// Withdraw removes liquidity. Only the pool owner may call it.
func (p *LiquidityPool) Withdraw(ctx context.Context, amount *big.Int) (string, error) {
	result, err := p.client.transact(ctx, p.address, liquidityPoolABI, MethodWithdraw, amount)
	if err != nil {
		return result.SentHash(), err
	}
	return result.TxHash, nil
}
