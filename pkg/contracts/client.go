package contracts

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	sdktypes "github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// Backend is the subset of ethclient.Client the contract wrappers need.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Client handles on-chain reads and signed writes against one chain.
// Without a private key it is read-only.
type Client struct {
	backend    Backend
	chainID    *big.Int
	privateKey *ecdsa.PrivateKey
	address    common.Address

	receiptPoll    time.Duration
	receiptTimeout time.Duration
}

// TxResult is the outcome of a mined transaction.
type TxResult struct {
	TxHash      string         `json:"tx_hash"`
	BlockNumber uint64         `json:"block_number"`
	GasUsed     uint64         `json:"gas_used"`
	Receipt     *types.Receipt `json:"-"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithReceiptPolling overrides how often and how long receipts are polled.
func WithReceiptPolling(interval, timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.receiptPoll = interval
		c.receiptTimeout = timeout
	}
}

// Dial connects to rpcURL. privateKeyHex may be empty for a read-only client.
func Dial(rpcURL string, chainID int64, privateKeyHex string, opts ...ClientOption) (*Client, error) {
	backend, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	c, err := NewClient(backend, big.NewInt(chainID), privateKeyHex, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return c, nil
}

// NewClient creates a client over an existing backend.
func NewClient(backend Backend, chainID *big.Int, privateKeyHex string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		backend:        backend,
		chainID:        chainID,
		receiptPoll:    2 * time.Second,
		receiptTimeout: 5 * time.Minute,
	}

	if privateKeyHex != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("failed to derive public key")
		}
		c.privateKey = privateKey
		c.address = crypto.PubkeyToAddress(*publicKeyECDSA)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close closes the backend connection
func (c *Client) Close() {
	if c.backend != nil {
		c.backend.Close()
	}
}

// Address returns the signer address, or the zero address when read-only.
func (c *Client) Address() common.Address {
	return c.address
}

// CanSign reports whether a private key is configured.
func (c *Client) CanSign() bool {
	return c.privateKey != nil
}

// ChainID returns the configured chain ID.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// call packs a view call, executes it and returns the unpacked outputs.
func (c *Client) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		From: c.address,
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call %s: %v", sdktypes.ErrContractError, method, err)
	}

	out, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s returned no values", sdktypes.ErrContractError, method)
	}
	return out, nil
}

// transact signs, sends and waits for a state-changing call.
func (c *Client) transact(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) (*TxResult, error) {
	if !c.CanSign() {
		return nil, sdktypes.ErrWalletNotConnected
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	// Estimate gas (also validates the tx won't revert)
	estimatedGas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: c.address,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s would revert: %v", sdktypes.ErrContractError, method, err)
	}
	gasLimit := estimatedGas * 120 / 100 // 20% safety margin

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	receiptCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	receipt, err := c.waitForReceipt(receiptCtx, signedTx.Hash())
	if err != nil {
		return &TxResult{TxHash: signedTx.Hash().Hex()}, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	result := &TxResult{
		TxHash:  signedTx.Hash().Hex(),
		GasUsed: receipt.GasUsed,
		Receipt: receipt,
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return result, fmt.Errorf("%w: %s", sdktypes.ErrTransactionFailed, method)
	}
	return result, nil
}

// SentHash returns the hash of a sent transaction, also when waiting for its
// receipt failed. Safe on a nil result.
func (r *TxResult) SentHash() string {
	if r == nil {
		return ""
	}
	return r.TxHash
}

// waitForReceipt polls for transaction receipt
func (c *Client) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			receipt, err := c.backend.TransactionReceipt(ctx, txHash)
			if err == nil && receipt != nil {
				return receipt, nil
			}
			// Continue polling if receipt not found yet
		}
	}
}

// TransactionReceipt retrieves the receipt for a transaction hash.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}
	return receipt, nil
}
