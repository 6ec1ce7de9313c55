package aptos

import (
	"context"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/chainadapter/conformance"
	"github.com/drxa/sdk/pkg/txstore"
)

type fakeRPC struct {
	balance   int64
	seq       uint64
	gasPrice  uint64
	submitted []string
}

func (f *fakeRPC) BalanceOcta(ctx context.Context, address string) (int64, error) {
	return f.balance, nil
}
func (f *fakeRPC) AccountSequenceNumber(ctx context.Context, address string) (uint64, error) {
	return f.seq, nil
}
func (f *fakeRPC) GasUnitPriceEstimate(ctx context.Context) (uint64, error) { return f.gasPrice, nil }
func (f *fakeRPC) SubmitTransaction(ctx context.Context, signedTxBCS []byte) (string, error) {
	f.submitted = append(f.submitted, string(signedTxBCS))
	return "0xsubmitted", nil
}
func (f *fakeRPC) History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return nil, nil
}

var aptosAddrPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

func testKey() chainadapter.SigningKey {
	var key chainadapter.SigningKey
	key.RawSecret = [32]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	return key
}

func TestAdapter_DeriveAddressMatchesAptosFormat(t *testing.T) {
	a := New(&fakeRPC{}, txstore.NewMemory())
	addr, err := a.DeriveAddress(context.Background(), testKey())
	require.NoError(t, err)
	require.Regexp(t, aptosAddrPattern, addr)
}

func TestAdapter_DeriveAddressDeterministic(t *testing.T) {
	a := New(&fakeRPC{}, txstore.NewMemory())
	key := testKey()
	addr1, _ := a.DeriveAddress(context.Background(), key)
	addr2, _ := a.DeriveAddress(context.Background(), key)
	require.Equal(t, addr1, addr2)
}

func TestAdapter_BalanceScalesOctaToAPT(t *testing.T) {
	a := New(&fakeRPC{balance: 250_000_000}, txstore.NewMemory())
	bal, err := a.Balance(context.Background(), "anyaddr")
	require.NoError(t, err)
	require.True(t, bal.Equal(decimal.NewFromFloat(2.5)))
}

func TestAdapter_EstimateFeeUsesGasPrice(t *testing.T) {
	a := New(&fakeRPC{gasPrice: 100}, txstore.NewMemory())
	est, err := a.EstimateFee(context.Background(), "anyaddr", decimal.NewFromInt(1), chainadapter.AptosConfig{})
	require.NoError(t, err)
	require.True(t, est.TotalFee.IsPositive())
}

func TestAdapter_SendSubmitsSignedTransaction(t *testing.T) {
	rpc := &fakeRPC{gasPrice: 100}
	a := New(rpc, txstore.NewMemory())

	resp, err := a.Send(context.Background(), testKey(), "0xdead", decimal.NewFromFloat(0.01), chainadapter.AptosConfig{})
	require.NoError(t, err)
	require.Equal(t, "0xsubmitted", resp.TxHash)
	require.Len(t, rpc.submitted, 1)
}

func TestAdapter_Conformance(t *testing.T) {
	rpc := &fakeRPC{}
	a := New(rpc, txstore.NewMemory())
	conformance.Run(t, conformance.Suite{
		Adapter:        a,
		Key:            testKey(),
		AddressPattern: aptosAddrPattern,
		SendTo:         "0xdead",
		SendAmount:     decimal.NewFromFloat(0.01),
		TxConfig:       chainadapter.AptosConfig{},
		BroadcastCount: func() int { return len(rpc.submitted) },
	})
}
