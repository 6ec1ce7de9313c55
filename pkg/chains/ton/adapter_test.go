package ton

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/chainadapter/conformance"
	"github.com/drxa/sdk/pkg/txstore"
)

type fakeRPC struct {
	balance int64
	seqno   uint32
	sent    []string
}

func (f *fakeRPC) BalanceNano(ctx context.Context, address string) (int64, error) {
	return f.balance, nil
}
func (f *fakeRPC) SeqNo(ctx context.Context, address string) (uint32, error) { return f.seqno, nil }
func (f *fakeRPC) SendBOC(ctx context.Context, signedBOC []byte) (string, error) {
	f.sent = append(f.sent, string(signedBOC))
	return "boc-hash", nil
}
func (f *fakeRPC) History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return nil, nil
}

func testKey() chainadapter.SigningKey {
	var key chainadapter.SigningKey
	key.RawSecret = [32]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	return key
}

func TestAdapter_DeriveAddressDeterministic(t *testing.T) {
	a := New(&fakeRPC{}, txstore.NewMemory())
	key := testKey()
	addr1, err := a.DeriveAddress(context.Background(), key)
	require.NoError(t, err)
	addr2, err := a.DeriveAddress(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
	require.NotEmpty(t, addr1)
}

func TestAdapter_DeriveAddressDiffersAcrossKeys(t *testing.T) {
	a := New(&fakeRPC{}, txstore.NewMemory())
	key1 := testKey()
	key2 := testKey()
	key2.RawSecret[0] = 0xff

	addr1, _ := a.DeriveAddress(context.Background(), key1)
	addr2, _ := a.DeriveAddress(context.Background(), key2)
	require.NotEqual(t, addr1, addr2)
}

func TestAdapter_BalanceScalesNanoToTON(t *testing.T) {
	a := New(&fakeRPC{balance: 4_000_000_000}, txstore.NewMemory())
	bal, err := a.Balance(context.Background(), "anyaddr")
	require.NoError(t, err)
	require.True(t, bal.Equal(decimal.NewFromInt(4)))
}

func TestAdapter_SendSubmitsBOC(t *testing.T) {
	rpc := &fakeRPC{seqno: 1}
	a := New(rpc, txstore.NewMemory())

	resp, err := a.Send(context.Background(), testKey(), "EQsomeaddress", decimal.NewFromFloat(0.5), chainadapter.TONConfig{})
	require.NoError(t, err)
	require.Equal(t, "boc-hash", resp.TxHash)
	require.Len(t, rpc.sent, 1)
}

func TestAdapter_Conformance(t *testing.T) {
	rpc := &fakeRPC{}
	a := New(rpc, txstore.NewMemory())
	conformance.Run(t, conformance.Suite{
		Adapter:        a,
		Key:            testKey(),
		AddressPattern: nil,
		SendTo:         "EQsomeaddress",
		SendAmount:     decimal.NewFromFloat(0.5),
		TxConfig:       chainadapter.TONConfig{},
		BroadcastCount: func() int { return len(rpc.sent) },
	})
}
