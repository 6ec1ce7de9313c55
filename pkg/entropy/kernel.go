// Package entropy implements the SDK's derivation kernel: one HMAC-SHA-512
// call turns (masterSeed, scope, userId, chain, index) into 64 bytes of
// deterministic key material. It replaces BIP-32 on purpose — several
// target chains in this SDK have no standard BIP-32 path for their
// signature scheme (sr25519, TON's ed25519 wallet keys), so a single HMAC
// keyed by the master seed gives every adapter a uniform, curve-independent
// starting point. The trade-off is explicit: derived keys are not
// BIP-44-compatible and will not match a hardware wallet seeded the
// standard way.
package entropy

import (
	"crypto/hmac"
	"crypto/sha512"
	"fmt"

	"github.com/drxa/sdk/pkg/walleterr"
)

// SeedSize is the required length of a MasterSeed.
const SeedSize = 32

// EntropySize is the length of DerivedEntropy: HMAC-SHA-512's output.
const EntropySize = 64

// MasterSeed is the 32-byte root secret owned exclusively by one SDK
// instance for its lifetime. It is never logged and never serialized by
// this package; callers are responsible for holding it securely and, as a
// recommended but non-contractual practice, zeroising it on shutdown.
type MasterSeed [SeedSize]byte

// NewMasterSeed validates and wraps raw seed bytes.
func NewMasterSeed(b []byte) (MasterSeed, error) {
	var s MasterSeed
	if len(b) != SeedSize {
		return s, walleterr.NonRetry(walleterr.CodeInvalidParameters,
			fmt.Sprintf("master seed must be %d bytes, got %d", SeedSize, len(b)), nil)
	}
	copy(s[:], b)
	return s, nil
}

// Params is the immutable (scope, userId, chain, index) tuple that keys one
// derivation. All four fields are opaque byte strings to the kernel; only
// Chain is additionally constrained to the closed supported set by callers
// above this package (see pkg/config.ChainTag).
type Params struct {
	Scope  string
	UserID string
	Chain  string
	Index  string
}

// Validate checks the non-empty invariant spec.md places on DeriveParams.
// Chain-set membership is checked by the caller (pkg/config), since this
// package must stay chain-agnostic.
func (p Params) Validate() error {
	if p.Scope == "" || p.UserID == "" || p.Chain == "" || p.Index == "" {
		return walleterr.NonRetry(walleterr.CodeInvalidParameters,
			"scope, userId, chain and index must all be non-empty", nil)
	}
	return nil
}

// message is the UTF-8 byte string HMAC'd under the master seed:
// "{scope}:{userId}:{chain}:{index}".
func (p Params) message() []byte {
	return []byte(p.Scope + ":" + p.UserID + ":" + p.Chain + ":" + p.Index)
}

// DerivedEntropy is the 64-byte HMAC-SHA-512 output for one Params tuple.
// The first 32 bytes are the canonical raw secret every adapter turns into
// its signing-scheme private key; the last 32 bytes are reserved for
// adapter-specific use (Taproot tweaks, SLIP-10 chain codes, sub-key
// diversification). DerivedEntropy is ephemeral and MUST NOT be persisted.
type DerivedEntropy [EntropySize]byte

// RawSecret returns the first 32 bytes: the canonical seed for
// signature-key construction.
func (d DerivedEntropy) RawSecret() []byte {
	out := make([]byte, 32)
	copy(out, d[:32])
	return out
}

// Reserved returns the last 32 bytes, reserved for adapter-specific use.
func (d DerivedEntropy) Reserved() []byte {
	out := make([]byte, 32)
	copy(out, d[32:])
	return out
}

// Derive computes DerivedEntropy = HMAC-SHA512(key=masterSeed, msg=params).
// It is deterministic and pure: the same (seed, params) pair always yields
// the same 64 bytes, and distinct params (differing in any one of the four
// fields) yield different entropy with overwhelming probability because all
// four participate in the MAC input — there is no cross-talk between
// scopes, users, chains or indexes.
func Derive(seed MasterSeed, params Params) (DerivedEntropy, error) {
	if err := params.Validate(); err != nil {
		return DerivedEntropy{}, err
	}
	mac := hmac.New(sha512.New, seed[:])
	mac.Write(params.message())
	sum := mac.Sum(nil)

	var out DerivedEntropy
	copy(out[:], sum)
	return out, nil
}
