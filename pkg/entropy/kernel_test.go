package entropy

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustSeed(t *testing.T, hexSeed string) MasterSeed {
	t.Helper()
	b, err := hex.DecodeString(hexSeed)
	require.NoError(t, err)
	s, err := NewMasterSeed(b)
	require.NoError(t, err)
	return s
}

func TestDerive_Deterministic(t *testing.T) {
	seed := mustSeed(t, "6aeb8aa877e9bc8c26fc6a6d4d852e41d51e4bf62266f1fa9914060a6b35a5a6")
	params := Params{Scope: "wallet", UserID: "0d0e72f3-7b46-483e-b12d-8696ecab55a0", Chain: "ethereum", Index: "0"}

	a, err := Derive(seed, params)
	require.NoError(t, err)
	b, err := Derive(seed, params)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDerive_IsolationAcrossIndex(t *testing.T) {
	seed := mustSeed(t, "6aeb8aa877e9bc8c26fc6a6d4d852e41d51e4bf62266f1fa9914060a6b35a5a6")
	base := Params{Scope: "wallet", UserID: "u1", Chain: "ethereum", Index: "0"}
	other := base
	other.Index = "1"

	a, err := Derive(seed, base)
	require.NoError(t, err)
	b, err := Derive(seed, other)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDerive_IsolationAcrossAllFields(t *testing.T) {
	seed := mustSeed(t, "6aeb8aa877e9bc8c26fc6a6d4d852e41d51e4bf62266f1fa9914060a6b35a5a6")
	base := Params{Scope: "wallet", UserID: "u1", Chain: "ethereum", Index: "0"}

	variants := []Params{
		{Scope: "session", UserID: base.UserID, Chain: base.Chain, Index: base.Index},
		{Scope: base.Scope, UserID: "u2", Chain: base.Chain, Index: base.Index},
		{Scope: base.Scope, UserID: base.UserID, Chain: "bitcoin", Index: base.Index},
		{Scope: base.Scope, UserID: base.UserID, Chain: base.Chain, Index: "1"},
	}

	baseEntropy, err := Derive(seed, base)
	require.NoError(t, err)

	for _, v := range variants {
		e, err := Derive(seed, v)
		require.NoError(t, err)
		require.NotEqual(t, baseEntropy, e, "variant %+v collided with base", v)
	}
}

func TestDerive_RejectsEmptyField(t *testing.T) {
	seed := mustSeed(t, "6aeb8aa877e9bc8c26fc6a6d4d852e41d51e4bf62266f1fa9914060a6b35a5a6")
	_, err := Derive(seed, Params{Scope: "", UserID: "u", Chain: "ethereum", Index: "0"})
	require.Error(t, err)
}

func TestNewMasterSeed_RejectsWrongLength(t *testing.T) {
	_, err := NewMasterSeed(make([]byte, 16))
	require.Error(t, err)
}

func TestDerivedEntropy_RawSecretAndReserved(t *testing.T) {
	seed := mustSeed(t, "6aeb8aa877e9bc8c26fc6a6d4d852e41d51e4bf62266f1fa9914060a6b35a5a6")
	e, err := Derive(seed, Params{Scope: "wallet", UserID: "u1", Chain: "solana", Index: "0"})
	require.NoError(t, err)

	raw := e.RawSecret()
	reserved := e.Reserved()
	require.Len(t, raw, 32)
	require.Len(t, reserved, 32)
	require.NotEqual(t, raw, reserved)
}
