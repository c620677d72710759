package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	sdktypes "github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// ERC20Token wraps an ERC-20 token contract.
type ERC20Token struct {
	client  *Client
	address common.Address
}

// NewERC20Token binds token at address.
func NewERC20Token(client *Client, address common.Address) *ERC20Token {
	return &ERC20Token{client: client, address: address}
}

// Address returns the token address.
func (t *ERC20Token) Address() common.Address { return t.address }

// BalanceOf returns the token balance of account in base units.
func (t *ERC20Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := t.client.call(ctx, t.address, erc20ABI, MethodBalanceOf, account)
	if err != nil {
		return nil, err
	}
	return asBigInt(out[0], MethodBalanceOf)
}

// Allowance returns how much spender may move on behalf of owner.
func (t *ERC20Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	out, err := t.client.call(ctx, t.address, erc20ABI, MethodAllowance, owner, spender)
	if err != nil {
		return nil, err
	}
	return asBigInt(out[0], MethodAllowance)
}

// Metadata reads name, symbol and decimals.
func (t *ERC20Token) Metadata(ctx context.Context) (*sdktypes.TokenMetadata, error) {
	name, err := t.client.call(ctx, t.address, erc20ABI, MethodName)
	if err != nil {
		return nil, err
	}
	symbol, err := t.client.call(ctx, t.address, erc20ABI, MethodSymbol)
	if err != nil {
		return nil, err
	}
	decimals, err := t.client.call(ctx, t.address, erc20ABI, MethodDecimals)
	if err != nil {
		return nil, err
	}

	meta := &sdktypes.TokenMetadata{}
	var ok bool
	if meta.Name, ok = name[0].(string); !ok {
		return nil, fmt.Errorf("%w: unexpected name type %T", sdktypes.ErrContractError, name[0])
	}
	if meta.Symbol, ok = symbol[0].(string); !ok {
		return nil, fmt.Errorf("%w: unexpected symbol type %T", sdktypes.ErrContractError, symbol[0])
	}
	d, ok := decimals[0].(uint8)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected decimals type %T", sdktypes.ErrContractError, decimals[0])
	}
	meta.Decimals = int(d)
	return meta, nil
}

// Approve lets spender move amount of the signer's tokens.
func (t *ERC20Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*TxResult, error) {
	return t.client.transact(ctx, t.address, erc20ABI, MethodApprove, spender, amount)
}

func asBigInt(v interface{}, method string) (*big.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected %s result type %T", sdktypes.ErrContractError, method, v)
	}
	return b, nil
}

func asBool(v interface{}, method string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: unexpected %s result type %T", sdktypes.ErrContractError, method, v)
	}
	return b, nil
}
