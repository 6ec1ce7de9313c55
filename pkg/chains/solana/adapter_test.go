package solana

import (
	"context"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/chainadapter/conformance"
	"github.com/drxa/sdk/pkg/txstore"
)

type fakeRPC struct {
	balance   uint64
	sent      []solanago.Signature
	blockhash solanago.Hash
}

func (f *fakeRPC) BalanceLamports(ctx context.Context, address string) (uint64, error) {
	return f.balance, nil
}
func (f *fakeRPC) RecentBlockhash(ctx context.Context) (solanago.Hash, error) {
	return f.blockhash, nil
}
func (f *fakeRPC) SendTransaction(ctx context.Context, tx *solanago.Transaction) (solanago.Signature, error) {
	sig := tx.Signatures[0]
	f.sent = append(f.sent, sig)
	return sig, nil
}
func (f *fakeRPC) History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return nil, nil
}

func testKey() chainadapter.SigningKey {
	var key chainadapter.SigningKey
	key.RawSecret = [32]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	return key
}

func TestAdapter_DeriveAddressIsValidBase58PublicKey(t *testing.T) {
	a := New(&fakeRPC{}, txstore.NewMemory())
	addr, err := a.DeriveAddress(context.Background(), testKey())
	require.NoError(t, err)

	_, err = solanago.PublicKeyFromBase58(addr)
	require.NoError(t, err)
}

func TestAdapter_DeriveAddressDeterministic(t *testing.T) {
	a := New(&fakeRPC{}, txstore.NewMemory())
	key := testKey()
	addr1, err := a.DeriveAddress(context.Background(), key)
	require.NoError(t, err)
	addr2, err := a.DeriveAddress(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
}

func TestAdapter_BalanceScalesLamportsToSOL(t *testing.T) {
	a := New(&fakeRPC{balance: 2_500_000_000}, txstore.NewMemory())
	bal, err := a.Balance(context.Background(), "anyaddr")
	require.NoError(t, err)
	require.True(t, bal.Equal(decimal.NewFromFloat(2.5)))
}

func TestAdapter_EstimateFeeIncludesPriorityFee(t *testing.T) {
	a := New(&fakeRPC{}, txstore.NewMemory())
	units := uint32(200000)
	price := uint64(1000)
	est, err := a.EstimateFee(context.Background(), "anyaddr", decimal.NewFromInt(1), chainadapter.SolanaConfig{
		ComputeUnits:     &units,
		ComputeUnitPrice: &price,
	})
	require.NoError(t, err)
	require.True(t, est.TotalFee.GreaterThan(decimal.New(baseFeeLamports, 0).Div(decimal.New(lamportsPerSOL, 0))))
}

func TestAdapter_EstimateFeeDefaultsPriorityFeeFromPriority(t *testing.T) {
	a := New(&fakeRPC{}, txstore.NewMemory())
	normal, err := a.EstimateFee(context.Background(), "anyaddr", decimal.NewFromInt(1), chainadapter.SolanaConfig{})
	require.NoError(t, err)
	require.True(t, normal.TotalFee.GreaterThan(decimal.New(baseFeeLamports, 0).Div(decimal.New(lamportsPerSOL, 0))))

	urgent, err := a.EstimateFee(context.Background(), "anyaddr", decimal.NewFromInt(1), chainadapter.SolanaConfig{
		CommonConfig: chainadapter.CommonConfig{Priority: chainadapter.PriorityUrgent},
	})
	require.NoError(t, err)
	require.True(t, urgent.TotalFee.GreaterThan(normal.TotalFee))
}

type flakyRPC struct {
	fakeRPC
	failures int
}

func (f *flakyRPC) SendTransaction(ctx context.Context, tx *solanago.Transaction) (solanago.Signature, error) {
	if len(f.sent) < f.failures {
		f.sent = append(f.sent, solanago.Signature{})
		return solanago.Signature{}, errSendFailed
	}
	return f.fakeRPC.SendTransaction(ctx, tx)
}

var errSendFailed = errSend{}

type errSend struct{}

func (errSend) Error() string { return "send failed" }

func TestAdapter_SendRetriesUpToMaxRetries(t *testing.T) {
	rpc := &flakyRPC{failures: 2}
	a := New(rpc, txstore.NewMemory())

	retries := 3
	resp, err := a.Send(context.Background(), testKey(), "11111111111111111111111111111111", decimal.NewFromFloat(0.01), chainadapter.SolanaConfig{MaxRetries: &retries})
	require.NoError(t, err)
	require.NotEmpty(t, resp.TxHash)
}

func TestAdapter_SendSignsAndBroadcasts(t *testing.T) {
	rpc := &fakeRPC{}
	a := New(rpc, txstore.NewMemory())

	resp, err := a.Send(context.Background(), testKey(), "11111111111111111111111111111111", decimal.NewFromFloat(0.01), chainadapter.SolanaConfig{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.TxHash)
	require.Len(t, rpc.sent, 1)
}

func TestAdapter_Conformance(t *testing.T) {
	rpc := &fakeRPC{}
	a := New(rpc, txstore.NewMemory())
	conformance.Run(t, conformance.Suite{
		Adapter:        a,
		Key:            testKey(),
		AddressPattern: nil,
		SendTo:         "11111111111111111111111111111111",
		SendAmount:     decimal.NewFromFloat(0.01),
		TxConfig:       chainadapter.SolanaConfig{},
		BroadcastCount: func() int { return len(rpc.sent) },
	})
}
