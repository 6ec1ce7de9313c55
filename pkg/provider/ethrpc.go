package provider

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/drxa/sdk/pkg/walleterr"
)

// EthRPC is an EVMProvider backed by go-ethereum's ethclient, pointed at
// whatever endpoint pkg/config resolved for the target chain (a public
// RPC, a self-hosted node, or a hosted provider's URL).
type EthRPC struct {
	name   string
	client *ethclient.Client
}

// DialEthRPC connects to endpoint (http(s):// or ws(s)://) and labels the
// resulting provider name for logging/metrics.
func DialEthRPC(ctx context.Context, name, endpoint string) (*EthRPC, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, walleterr.Retry(walleterr.CodeNetworkError, "failed to dial EVM RPC endpoint", nil, err).
			WithContext(map[string]any{"provider": name, "endpoint": endpoint})
	}
	return &EthRPC{name: name, client: client}, nil
}

func (p *EthRPC) Name() string { return p.name }

func (p *EthRPC) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := p.client.ChainID(ctx)
	return id, wrapRPCErr(err, "eth_chainId")
}

func (p *EthRPC) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	bal, err := p.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	return bal, wrapRPCErr(err, "eth_getBalance")
}

func (p *EthRPC) NonceAt(ctx context.Context, address string) (uint64, error) {
	n, err := p.client.PendingNonceAt(ctx, common.HexToAddress(address))
	return n, wrapRPCErr(err, "eth_getTransactionCount")
}

func (p *EthRPC) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	tip, err := p.client.SuggestGasTipCap(ctx)
	return tip, wrapRPCErr(err, "eth_maxPriorityFeePerGas")
}

func (p *EthRPC) HeaderBaseFee(ctx context.Context) (*big.Int, error) {
	header, err := p.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, wrapRPCErr(err, "eth_getBlockByNumber")
	}
	if header.BaseFee == nil {
		return nil, walleterr.NonRetry(walleterr.CodeRPCError, "chain does not report a base fee (pre-EIP-1559)", nil)
	}
	return header.BaseFee, nil
}

func (p *EthRPC) EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error) {
	toAddr := common.HexToAddress(to)
	gas, err := p.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  common.HexToAddress(from),
		To:    &toAddr,
		Value: value,
		Data:  data,
	})
	return gas, wrapRPCErr(err, "eth_estimateGas")
}

func (p *EthRPC) SendRawTransaction(ctx context.Context, rawTx []byte) (string, error) {
	var tx types.Transaction
	if err := tx.UnmarshalBinary(rawTx); err != nil {
		return "", walleterr.NonRetry(walleterr.CodeBroadcastFailure, "malformed raw transaction", err)
	}
	if err := p.client.SendTransaction(ctx, &tx); err != nil {
		if isAlreadyKnown(err) {
			return tx.Hash().Hex(), nil
		}
		return "", wrapRPCErr(err, "eth_sendRawTransaction")
	}
	return tx.Hash().Hex(), nil
}

func (p *EthRPC) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	r, err := p.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, wrapRPCErr(err, "eth_getTransactionReceipt")
	}
	return &Receipt{TxHash: r.TxHash.Hex(), BlockNumber: r.BlockNumber.Uint64(), Status: r.Status}, nil
}

func (p *EthRPC) Close() { p.client.Close() }

func isAlreadyKnown(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already known")
}

func wrapRPCErr(err error, method string) error {
	if err == nil {
		return nil
	}
	return walleterr.Retry(walleterr.CodeRPCError, "EVM RPC call failed: "+method, nil, err).
		WithContext(map[string]any{"method": method})
}

