// Package conformance is a chain-agnostic battery of assertions every
// ChainAdapter implementation must pass, regardless of chain family. Each
// per-chain adapter package runs this battery against a live (or
// mocked-RPC) instance inside its own _test.go rather than duplicating the
// assertions chain by chain.
package conformance

import (
	"context"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/walleterr"
)

// Suite bundles everything the battery needs to exercise one adapter
// instance without knowing its chain-specific types.
type Suite struct {
	Adapter        chainadapter.ChainAdapter
	Key            chainadapter.SigningKey
	AddressPattern *regexp.Regexp
	SendTo         string
	SendAmount     decimal.Decimal
	TxConfig       chainadapter.TransactionConfig

	// BroadcastCount, when set, returns how many times the adapter's
	// underlying RPC has actually broadcast a transaction so far.
	// broadcastIdempotency uses it to tell a genuinely cached resend apart
	// from one that merely returns a fixed hash on every call.
	BroadcastCount func() int
}

// Run executes the full conformance battery as subtests of t.
func Run(t *testing.T, s Suite) {
	t.Helper()
	t.Run("AddressFormat", func(t *testing.T) { addressFormat(t, s) })
	t.Run("AddressDeterminism", func(t *testing.T) { addressDeterminism(t, s) })
	t.Run("FeeBounds", func(t *testing.T) { feeBounds(t, s) })
	t.Run("BroadcastIdempotency", func(t *testing.T) { broadcastIdempotency(t, s) })
}

// addressFormat asserts DeriveAddress produces a string matching the
// chain's expected encoding (EIP-55 hex, base58, bech32m, ...).
func addressFormat(t *testing.T, s Suite) {
	t.Helper()
	ctx := context.Background()
	addr, err := s.Adapter.DeriveAddress(ctx, s.Key)
	require.NoError(t, err)
	require.NotEmpty(t, addr)
	if s.AddressPattern != nil {
		require.Regexp(t, s.AddressPattern, addr)
	}
}

// addressDeterminism asserts the same SigningKey always derives the same
// address — the HD kernel's core promise surfacing at the adapter layer.
func addressDeterminism(t *testing.T, s Suite) {
	t.Helper()
	ctx := context.Background()
	a, err := s.Adapter.DeriveAddress(ctx, s.Key)
	require.NoError(t, err)
	b, err := s.Adapter.DeriveAddress(ctx, s.Key)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

// feeBounds asserts EstimateFee returns a non-negative TotalFee; adapters
// whose EstimateFee is not implemented are skipped.
func feeBounds(t *testing.T, s Suite) {
	t.Helper()
	ctx := context.Background()
	est, err := s.Adapter.EstimateFee(ctx, s.SendTo, s.SendAmount, s.TxConfig)
	if walleterr.CodeOf(err) == walleterr.CodeMethodNotImplemented {
		t.Skip("EstimateFee not implemented by this adapter")
		return
	}
	require.NoError(t, err)
	require.True(t, est.TotalFee.IsPositive() || est.TotalFee.IsZero())
}

// broadcastIdempotency asserts that calling Send twice with identical
// parameters broadcasts exactly once: the second call must return the same
// TxHash as the first instead of submitting a second, unrelated
// transaction to the RPC.
func broadcastIdempotency(t *testing.T, s Suite) {
	t.Helper()
	ctx := context.Background()
	first, err := s.Adapter.Send(ctx, s.Key, s.SendTo, s.SendAmount, s.TxConfig)
	if walleterr.CodeOf(err) == walleterr.CodeMethodNotImplemented {
		t.Skip("Send not implemented by this adapter")
		return
	}
	require.NoError(t, err)
	require.NotEmpty(t, first.TxHash)

	second, err := s.Adapter.Send(ctx, s.Key, s.SendTo, s.SendAmount, s.TxConfig)
	require.NoError(t, err)
	require.Equal(t, first.TxHash, second.TxHash, "resending identical parameters must return the cached broadcast, not a new one")

	if s.BroadcastCount != nil {
		require.Equal(t, 1, s.BroadcastCount(), "Send must not re-broadcast an already-seen transaction")
	}
}
