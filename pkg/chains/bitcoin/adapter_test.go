package bitcoin

import (
	"bytes"
	"context"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/chainadapter/conformance"
	"github.com/drxa/sdk/pkg/txstore"
)

type fakeRPC struct {
	balanceSats int64
	utxos       []UTXO
	feeRate     int64
	broadcasts  []string
	history     []chainadapter.IncomingTransaction
}

func (f *fakeRPC) BalanceSat(ctx context.Context, address string) (int64, error) {
	return f.balanceSats, nil
}
func (f *fakeRPC) UTXOs(ctx context.Context, address string) ([]UTXO, error) { return f.utxos, nil }
func (f *fakeRPC) FeeRateSatPerVByte(ctx context.Context, targetBlocks int) (int64, error) {
	return f.feeRate, nil
}
func (f *fakeRPC) BroadcastRawTx(ctx context.Context, rawTxHex string) (string, error) {
	f.broadcasts = append(f.broadcasts, rawTxHex)
	return "broadcast-hash", nil
}
func (f *fakeRPC) History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return f.history, nil
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		balanceSats: 250_000_000,
		utxos: []UTXO{
			{TxID: "1111111111111111111111111111111111111111111111111111111111111111", Vout: 0, Amount: 150_000_000},
			{TxID: "2222222222222222222222222222222222222222222222222222222222222222", Vout: 1, Amount: 150_000_000},
		},
		feeRate: 12,
	}
}

var p2trPattern = regexp.MustCompile(`^bc1p[0-9a-z]{58}$`)

func testKey() chainadapter.SigningKey {
	var key chainadapter.SigningKey
	key.RawSecret = [32]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	return key
}

func TestAdapter_DeriveAddressIsTaprootBech32m(t *testing.T) {
	a := New(&chaincfg.MainNetParams, newFakeRPC(), txstore.NewMemory())
	addr, err := a.DeriveAddress(context.Background(), testKey())
	require.NoError(t, err)
	require.Regexp(t, p2trPattern, addr)
}

func TestAdapter_DeriveAddressDeterministic(t *testing.T) {
	a := New(&chaincfg.MainNetParams, newFakeRPC(), txstore.NewMemory())
	key := testKey()
	addr1, err := a.DeriveAddress(context.Background(), key)
	require.NoError(t, err)
	addr2, err := a.DeriveAddress(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
}

func TestAdapter_BalanceScalesSatsToBTC(t *testing.T) {
	a := New(&chaincfg.MainNetParams, newFakeRPC(), txstore.NewMemory())
	bal, err := a.Balance(context.Background(), "bc1pxxx")
	require.NoError(t, err)
	require.True(t, bal.Equal(decimal.NewFromFloat(2.5)))
}

func TestAdapter_EstimateFeeIsPositive(t *testing.T) {
	a := New(&chaincfg.MainNetParams, newFakeRPC(), txstore.NewMemory())
	est, err := a.EstimateFee(context.Background(), "bc1pxxx", decimal.NewFromFloat(0.01), chainadapter.UTXOConfig{})
	require.NoError(t, err)
	require.True(t, est.TotalFee.IsPositive())
}

func TestAdapter_SendSelectsUTXOsAndBroadcasts(t *testing.T) {
	rpc := newFakeRPC()
	a := New(&chaincfg.MainNetParams, rpc, txstore.NewMemory())

	resp, err := a.Send(context.Background(), testKey(), "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", decimal.NewFromFloat(1.0), chainadapter.UTXOConfig{})
	require.NoError(t, err)
	require.Equal(t, "broadcast-hash", resp.TxHash)
	require.Len(t, rpc.broadcasts, 1)
}

func TestAdapter_SendFailsWithInsufficientUTXOs(t *testing.T) {
	rpc := newFakeRPC()
	rpc.utxos = []UTXO{{TxID: "1111111111111111111111111111111111111111111111111111111111111111", Vout: 0, Amount: 1000}}
	a := New(&chaincfg.MainNetParams, rpc, txstore.NewMemory())

	_, err := a.Send(context.Background(), testKey(), "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", decimal.NewFromFloat(1.0), chainadapter.UTXOConfig{})
	require.Error(t, err)
}

func TestAdapter_Conformance(t *testing.T) {
	rpc := newFakeRPC()
	a := New(&chaincfg.MainNetParams, rpc, txstore.NewMemory())
	conformance.Run(t, conformance.Suite{
		Adapter:        a,
		Key:            testKey(),
		AddressPattern: p2trPattern,
		SendTo:         "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		SendAmount:     decimal.NewFromFloat(1.0),
		TxConfig:       chainadapter.UTXOConfig{},
		BroadcastCount: func() int { return len(rpc.broadcasts) },
	})
}

func TestAdapter_SendLargestFirstSpendsBiggestUTXOFirst(t *testing.T) {
	rpc := newFakeRPC()
	rpc.utxos = []UTXO{
		{TxID: "1111111111111111111111111111111111111111111111111111111111111111", Vout: 0, Amount: 10_000_000},
		{TxID: "2222222222222222222222222222222222222222222222222222222222222222", Vout: 1, Amount: 200_000_000},
		{TxID: "3333333333333333333333333333333333333333333333333333333333333333", Vout: 2, Amount: 20_000_000},
	}
	a := New(&chaincfg.MainNetParams, rpc, txstore.NewMemory())

	selected, _, err := selectUTXOs(rpc.utxos, chainadapter.UTXOConfig{Selection: chainadapter.UTXOSelectionLargestFirst}, 100_000_000, rpc.feeRate)
	require.NoError(t, err)
	require.Equal(t, int64(200_000_000), selected[0].Amount)

	_, err = a.Send(context.Background(), testKey(), "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", decimal.NewFromFloat(1.0), chainadapter.UTXOConfig{Selection: chainadapter.UTXOSelectionLargestFirst})
	require.NoError(t, err)
}

func TestAdapter_SendSmallestFirstSpendsSmallestUTXOFirst(t *testing.T) {
	utxos := []UTXO{
		{TxID: "1111111111111111111111111111111111111111111111111111111111111111", Vout: 0, Amount: 10_000_000},
		{TxID: "2222222222222222222222222222222222222222222222222222222222222222", Vout: 1, Amount: 200_000_000},
		{TxID: "3333333333333333333333333333333333333333333333333333333333333333", Vout: 2, Amount: 20_000_000},
	}
	selected, _, err := selectUTXOs(utxos, chainadapter.UTXOConfig{Selection: chainadapter.UTXOSelectionSmallestFirst}, 5_000_000, 12)
	require.NoError(t, err)
	require.Equal(t, int64(10_000_000), selected[0].Amount)
}

func TestAdapter_SendManualSelectionSpendsExactlySpecifiedUTXOs(t *testing.T) {
	utxos := []UTXO{
		{TxID: "1111111111111111111111111111111111111111111111111111111111111111", Vout: 0, Amount: 10_000_000},
		{TxID: "2222222222222222222222222222222222222222222222222222222222222222", Vout: 1, Amount: 200_000_000},
	}
	selected, _, err := selectUTXOs(utxos, chainadapter.UTXOConfig{
		Selection:     chainadapter.UTXOSelectionManual,
		SpecificUTXOs: []string{"2222222222222222222222222222222222222222222222222222222222222222:1"},
	}, 1_000_000, 12)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	require.Equal(t, uint32(1), selected[0].Vout)
}

func TestAdapter_SendFailsWhenAmountExactlyEqualsUTXOSumLeavesNoRoomForFee(t *testing.T) {
	rpc := newFakeRPC()
	rpc.utxos = []UTXO{{TxID: "1111111111111111111111111111111111111111111111111111111111111111", Vout: 0, Amount: 100_000_000}}
	a := New(&chaincfg.MainNetParams, rpc, txstore.NewMemory())

	_, err := a.Send(context.Background(), testKey(), "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", decimal.NewFromFloat(1.0), chainadapter.UTXOConfig{})
	require.Error(t, err)
	require.Empty(t, rpc.broadcasts)
}

func TestAdapter_SendRBFSetsReplaceableSequence(t *testing.T) {
	rpc := newFakeRPC()
	a := New(&chaincfg.MainNetParams, rpc, txstore.NewMemory())

	_, err := a.Send(context.Background(), testKey(), "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", decimal.NewFromFloat(1.0), chainadapter.UTXOConfig{RBF: true})
	require.NoError(t, err)
	require.Len(t, rpc.broadcasts, 1)

	raw, err := hex.DecodeString(rpc.broadcasts[0])
	require.NoError(t, err)
	var tx wire.MsgTx
	require.NoError(t, tx.Deserialize(bytes.NewReader(raw)))
	require.Equal(t, uint32(0xfffffffd), tx.TxIn[0].Sequence)
}

func TestAdapter_SendHonorsLockTime(t *testing.T) {
	rpc := newFakeRPC()
	a := New(&chaincfg.MainNetParams, rpc, txstore.NewMemory())
	lockTime := uint32(700_000)

	_, err := a.Send(context.Background(), testKey(), "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", decimal.NewFromFloat(1.0), chainadapter.UTXOConfig{LockTime: &lockTime})
	require.NoError(t, err)
	require.Len(t, rpc.broadcasts, 1)

	raw, err := hex.DecodeString(rpc.broadcasts[0])
	require.NoError(t, err)
	var tx wire.MsgTx
	require.NoError(t, tx.Deserialize(bytes.NewReader(raw)))
	require.Equal(t, lockTime, tx.LockTime)
}
