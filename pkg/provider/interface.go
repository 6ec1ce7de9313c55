// Package provider abstracts hosted EVM RPC providers (a self-hosted node,
// a public endpoint, or a service like Alchemy/Infura) behind one
// interface. It is deliberately scoped to EVM-family chains: every other
// chain in the catalog talks to its own REST/RPC surface directly from its
// adapter package, since there is no equivalent multi-vendor hosting market
// for Solana/Tron/Aptos/etc. the way there is for Ethereum JSON-RPC.
package provider

import (
	"context"
	"math/big"
)

// EVMProvider is the subset of JSON-RPC operations an EVM adapter needs
// from its configured endpoint.
type EVMProvider interface {
	Name() string
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, address string) (*big.Int, error)
	NonceAt(ctx context.Context, address string) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderBaseFee(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error)
	SendRawTransaction(ctx context.Context, rawTx []byte) (string, error)
	TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error)
	Close()
}

// Receipt is the chain-agnostic slice of an EVM transaction receipt the
// adapters need.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Status      uint64 // 1 success, 0 failure, per the Ethereum yellow paper
}
