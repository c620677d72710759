package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AllowanceToken is the part of ERC20Token used by EnsureAllowance.
type AllowanceToken interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*TxResult, error)
}

// EnsureAllowance approves amount for spender unless the current allowance
// already covers it. It returns the approval result, or nil when none was needed.
func EnsureAllowance(ctx context.Context, token AllowanceToken, owner, spender common.Address, amount *big.Int) (*TxResult, error) {
	current, err := token.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to read allowance: %w", err)
	}
	if current.Cmp(amount) >= 0 {
		return nil, nil
	}
	result, err := token.Approve(ctx, spender, amount)
	if err != nil {
		return result, fmt.Errorf("failed to approve %s: %w", spender.Hex(), err)
	}
	return result, nil
}
