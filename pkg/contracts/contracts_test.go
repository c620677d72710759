package contracts

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	sdktypes "github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

var allABIs = []abi.ABI{erc20ABI, countryRegistryABI, liquidityPoolABI, countryTradingABI}

// fakeBackend answers view calls from a method->outputs table and mines every
// sent transaction with a configurable receipt.
type fakeBackend struct {
	mu sync.Mutex

	outputs  map[string][]interface{}
	lastArgs map[string][]interface{}
	callErr  error

	sent          []*types.Transaction
	receiptStatus uint64
	receiptLogs   []*types.Log
	estimateErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		outputs:       map[string][]interface{}{},
		lastArgs:      map[string][]interface{}{},
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.callErr != nil {
		return nil, f.callErr
	}
	for _, a := range allABIs {
		m, err := a.MethodById(call.Data[:4])
		if err != nil {
			continue
		}
		args, err := m.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		f.lastArgs[m.Name] = args
		return m.Outputs.Pack(f.outputs[m.Name]...)
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 100_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &types.Receipt{
		Status:      f.receiptStatus,
		TxHash:      hash,
		BlockNumber: big.NewInt(42),
		GasUsed:     90_000,
		Logs:        f.receiptLogs,
	}, nil
}

func (f *fakeBackend) Close() {}

func (f *fakeBackend) sentMethod(t *testing.T, i int) (string, []interface{}) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.sent) {
		t.Fatalf("expected at least %d sent transactions, got %d", i+1, len(f.sent))
	}
	data := f.sent[i].Data()
	for _, a := range allABIs {
		if m, err := a.MethodById(data[:4]); err == nil {
			args, err := m.Inputs.Unpack(data[4:])
			if err != nil {
				t.Fatalf("failed to unpack tx data: %v", err)
			}
			return m.Name, args
		}
	}
	t.Fatalf("unknown selector in sent tx")
	return "", nil
}

func newSigningClient(t *testing.T, backend Backend) *Client {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	c, err := NewClient(backend, big.NewInt(5003), hexutil.Encode(crypto.FromECDSA(key)),
		WithReceiptPolling(5*time.Millisecond, time.Second))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

var (
	tokenAddr    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	registryAddr = common.HexToAddress("0x1000000000000000000000000000000000000002")
	tradingAddr  = common.HexToAddress("0x1000000000000000000000000000000000000003")
	poolAddr     = common.HexToAddress("0x1000000000000000000000000000000000000004")
)

func TestNewClient_InvalidKey(t *testing.T) {
	if _, err := NewClient(newFakeBackend(), big.NewInt(1), "not-a-key"); err == nil {
		t.Error("expected error for invalid private key")
	}
}

func TestNewClient_ReadOnly(t *testing.T) {
	c, err := NewClient(newFakeBackend(), big.NewInt(1), "")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.CanSign() {
		t.Error("client without key must be read-only")
	}
	trading := NewCountryTrading(c, tradingAddr)
	if _, err := trading.OpenLong(context.Background(), "US", big.NewInt(1)); !errors.Is(err, sdktypes.ErrWalletNotConnected) {
		t.Errorf("expected ErrWalletNotConnected, got %v", err)
	}
}

func TestCountryCode(t *testing.T) {
	us := CountryCode("US")
	if us != crypto.Keccak256Hash([]byte("US")) {
		t.Error("country code must be keccak256 of the id")
	}
	if us == CountryCode("ID") {
		t.Error("country codes must differ")
	}
	if us != CountryCode("US") {
		t.Error("country code must be deterministic")
	}
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals int32
		want     string
		wantErr  bool
	}{
		{"10", 6, "10000000", false},
		{"0.5", 6, "500000", false},
		{"1", 18, "1000000000000000000", false},
		{"0.0000001", 6, "", true},
		{"-1", 6, "", true},
		{"abc", 6, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnits(tt.in, tt.decimals)
			if tt.wantErr {
				if !errors.Is(err, sdktypes.ErrInvalidAmount) {
					t.Errorf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUnits() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseUnits(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatUnits(t *testing.T) {
	if got := FormatUnits(big.NewInt(355000000000), PriceDecimals).InexactFloat64(); got != 3550 {
		t.Errorf("FormatUnits = %v, want 3550", got)
	}
	if !FormatUnits(nil, 6).IsZero() {
		t.Error("nil must format as zero")
	}
}

func TestCountryRegistry(t *testing.T) {
	backend := newFakeBackend()
	backend.outputs[MethodGetCountryPrice] = []interface{}{big.NewInt(6800000000000)}
	backend.outputs[MethodIsCountryActive] = []interface{}{true}

	c, _ := NewClient(backend, big.NewInt(5003), "")
	registry := NewCountryRegistry(c, registryAddr)
	ctx := context.Background()

	price, err := registry.CountryPrice(ctx, "US")
	if err != nil {
		t.Fatalf("CountryPrice() error = %v", err)
	}
	if price != 68000 {
		t.Errorf("price = %v, want 68000", price)
	}
	arg, ok := backend.lastArgs[MethodGetCountryPrice][0].([32]byte)
	if !ok || common.Hash(arg) != CountryCode("US") {
		t.Errorf("registry called with %v, want code of US", backend.lastArgs[MethodGetCountryPrice])
	}

	active, err := registry.IsCountryActive(ctx, "US")
	if err != nil || !active {
		t.Errorf("IsCountryActive() = (%v, %v)", active, err)
	}

	backend.callErr = errors.New("rpc down")
	if _, err := registry.CountryPrice(ctx, "US"); !errors.Is(err, sdktypes.ErrContractError) {
		t.Errorf("expected ErrContractError, got %v", err)
	}
}

func TestERC20Token_Metadata(t *testing.T) {
	backend := newFakeBackend()
	backend.outputs[MethodName] = []interface{}{"Mock USDC"}
	backend.outputs[MethodSymbol] = []interface{}{"mUSDC"}
	backend.outputs[MethodDecimals] = []interface{}{uint8(6)}
	backend.outputs[MethodBalanceOf] = []interface{}{big.NewInt(25_000_000)}

	c, _ := NewClient(backend, big.NewInt(5003), "")
	token := NewERC20Token(c, tokenAddr)

	meta, err := token.Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta.Name != "Mock USDC" || meta.Symbol != "mUSDC" || meta.Decimals != 6 {
		t.Errorf("unexpected metadata %+v", meta)
	}

	bal, err := token.BalanceOf(context.Background(), common.HexToAddress("0xabc"))
	if err != nil || bal.Int64() != 25_000_000 {
		t.Errorf("BalanceOf() = (%v, %v)", bal, err)
	}
}

type fakeAllowanceToken struct {
	allowance *big.Int
	approved  []*big.Int
}

func (f *fakeAllowanceToken) Allowance(context.Context, common.Address, common.Address) (*big.Int, error) {
	return f.allowance, nil
}

func (f *fakeAllowanceToken) Approve(_ context.Context, _ common.Address, amount *big.Int) (*TxResult, error) {
	f.approved = append(f.approved, amount)
	return &TxResult{TxHash: "0xapprove"}, nil
}

func TestEnsureAllowance(t *testing.T) {
	tests := []struct {
		name        string
		allowance   int64
		amount      int64
		wantApprove bool
	}{
		{"sufficient", 100, 50, false},
		{"exact", 50, 50, false},
		{"insufficient", 10, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &fakeAllowanceToken{allowance: big.NewInt(tt.allowance)}
			result, err := EnsureAllowance(context.Background(), token, common.Address{}, tradingAddr, big.NewInt(tt.amount))
			if err != nil {
				t.Fatalf("EnsureAllowance() error = %v", err)
			}
			if got := len(token.approved) == 1; got != tt.wantApprove {
				t.Errorf("approved = %v, want %v", got, tt.wantApprove)
			}
			if tt.wantApprove && (result == nil || token.approved[0].Int64() != tt.amount) {
				t.Errorf("expected approval of %d, got %v", tt.amount, token.approved)
			}
			if !tt.wantApprove && result != nil {
				t.Errorf("expected no approval result, got %+v", result)
			}
		})
	}
}

func TestCountryTrading_OpenLong(t *testing.T) {
	backend := newFakeBackend()
	c := newSigningClient(t, backend)
	trading := NewCountryTrading(c, tradingAddr)

	result, err := trading.OpenLong(context.Background(), "ID", big.NewInt(10_000_000))
	if err != nil {
		t.Fatalf("OpenLong() error = %v", err)
	}
	if result.TxHash == "" || result.BlockNumber != 42 {
		t.Errorf("unexpected result %+v", result)
	}

	method, args := backend.sentMethod(t, 0)
	if method != MethodOpenLongPosition {
		t.Errorf("sent %s, want %s", method, MethodOpenLongPosition)
	}
	if code := args[0].([32]byte); common.Hash(code) != CountryCode("ID") {
		t.Errorf("unexpected country code %x", code)
	}
	if args[1].(*big.Int).Int64() != 10_000_000 {
		t.Errorf("unexpected collateral %v", args[1])
	}
	if to := backend.sent[0].To(); to == nil || *to != tradingAddr {
		t.Errorf("tx sent to %v, want %v", to, tradingAddr)
	}
	if backend.sent[0].Gas() != 120_000 {
		t.Errorf("gas limit = %d, want estimate + 20%%", backend.sent[0].Gas())
	}
}

func TestCountryTrading_Reverted(t *testing.T) {
	backend := newFakeBackend()
	backend.receiptStatus = types.ReceiptStatusFailed
	trading := NewCountryTrading(newSigningClient(t, backend), tradingAddr)

	result, err := trading.OpenShort(context.Background(), "US", big.NewInt(1))
	if !errors.Is(err, sdktypes.ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}
	if result.SentHash() == "" {
		t.Error("reverted tx must still report its hash")
	}
}

func TestCountryTrading_EstimateFails(t *testing.T) {
	backend := newFakeBackend()
	backend.estimateErr = errors.New("execution reverted: market inactive")
	trading := NewCountryTrading(newSigningClient(t, backend), tradingAddr)

	if _, err := trading.OpenLong(context.Background(), "US", big.NewInt(1)); !errors.Is(err, sdktypes.ErrContractError) {
		t.Errorf("expected ErrContractError, got %v", err)
	}
	if len(backend.sent) != 0 {
		t.Error("nothing must be sent when estimation fails")
	}
}

func TestCountryTrading_ClosePartialValidatesRatio(t *testing.T) {
	backend := newFakeBackend()
	trading := NewCountryTrading(newSigningClient(t, backend), tradingAddr)

	for _, bps := range []uint16{0, 10001} {
		if _, err := trading.ClosePartial(context.Background(), big.NewInt(1), bps); !errors.Is(err, sdktypes.ErrInvalidAmount) {
			t.Errorf("ratio %d: expected ErrInvalidAmount, got %v", bps, err)
		}
	}
	if _, err := trading.ClosePartial(context.Background(), big.NewInt(7), 2500); err != nil {
		t.Fatalf("ClosePartial() error = %v", err)
	}
	method, args := backend.sentMethod(t, 0)
	if method != MethodClosePositionPartial || args[1].(*big.Int).Int64() != 2500 {
		t.Errorf("sent %s %v", method, args)
	}
}

func TestPositionIDFromReceipt(t *testing.T) {
	eventID := countryTradingABI.Events[EventPositionOpened].ID
	receipt := &types.Receipt{Logs: []*types.Log{
		{Topics: []common.Hash{common.HexToHash("0xdead")}},
		{Topics: []common.Hash{eventID, common.HexToHash("0x01"), common.BigToHash(big.NewInt(77))}},
	}}

	id, err := PositionIDFromReceipt(receipt)
	if err != nil {
		t.Fatalf("PositionIDFromReceipt() error = %v", err)
	}
	if id.Int64() != 77 {
		t.Errorf("position id = %v, want 77", id)
	}

	if _, err := PositionIDFromReceipt(&types.Receipt{}); err == nil {
		t.Error("expected error when event is missing")
	}
}

func TestLiquidityPool(t *testing.T) {
	backend := newFakeBackend()
	oneEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	backend.outputs[MethodGetPoolMetrics] = []interface{}{
		new(big.Int).Mul(big.NewInt(1000), oneEther),
		new(big.Int).Mul(big.NewInt(250), oneEther),
		new(big.Int).Mul(big.NewInt(100), oneEther),
	}
	backend.outputs[MethodPaused] = []interface{}{false}
	backend.outputs[MethodAllowance] = []interface{}{big.NewInt(0)}
	backend.outputs[MethodApprove] = []interface{}{true}

	c := newSigningClient(t, backend)
	token := NewERC20Token(c, tokenAddr)
	pool := NewLiquidityPool(c, poolAddr, token)
	ctx := context.Background()

	metrics, err := pool.PoolMetrics(ctx)
	if err != nil {
		t.Fatalf("PoolMetrics() error = %v", err)
	}
	if metrics.PoolBalance != 1000 || metrics.TotalLongOpenInterest != 250 || metrics.TotalShortOpenInterest != 100 {
		t.Errorf("unexpected metrics %+v", metrics)
	}

	paused, err := pool.Paused(ctx)
	if err != nil || paused {
		t.Errorf("Paused() = (%v, %v)", paused, err)
	}

	hash, err := pool.Deposit(ctx, big.NewInt(5_000_000))
	if err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	if hash == "" {
		t.Error("expected deposit tx hash")
	}
	if method, _ := backend.sentMethod(t, 0); method != MethodApprove {
		t.Errorf("first tx = %s, want approve", method)
	}
	if method, _ := backend.sentMethod(t, 1); method != MethodDeposit {
		t.Errorf("second tx = %s, want deposit", method)
	}
}
