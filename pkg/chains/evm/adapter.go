// Package evm implements chainadapter.ChainAdapter for every EVM-family
// chain in the catalog (Ethereum, BSC, Polygon, Avalanche, Arbitrum,
// Optimism, Cronos, Sonic, Base): one adapter type parameterized by
// chain tag and numeric chain ID, since the wire format, fee model
// (EIP-1559), and address encoding (EIP-55 checksummed hex) are identical
// across the family.
package evm

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/provider"
	"github.com/drxa/sdk/pkg/txstore"
	"github.com/drxa/sdk/pkg/walleterr"
)

// weiPerEther scales wei amounts to the decimal.Decimal unit the rest of
// the SDK works in.
var weiPerEther = decimal.New(1, 18)

// Adapter implements chainadapter.ChainAdapter for one EVM-family chain.
type Adapter struct {
	chainadapter.BaseAdapter
	networkID *big.Int
	rpc       provider.EVMProvider
	store     txstore.Store
}

// New constructs an EVM Adapter for tag, talking to rpc and recording
// broadcast state in store.
func New(tag config.ChainTag, networkID int64, rpc provider.EVMProvider, store txstore.Store) *Adapter {
	return &Adapter{
		BaseAdapter: chainadapter.BaseAdapter{
			ChainTag: tag,
			Caps: chainadapter.Capabilities{
				Chain:             tag,
				SupportsEIP1559:   true,
				SupportsMemo:      true,
				SupportsWebSocket: true,
				MinConfirmations:  12,
			},
		},
		networkID: big.NewInt(networkID),
		rpc:       rpc,
		store:     store,
	}
}

// DeriveAddress derives the EIP-55 checksummed hex address for key's raw
// secret, treated as a secp256k1 private key scalar.
func (a *Adapter) DeriveAddress(ctx context.Context, key chainadapter.SigningKey) (string, error) {
	priv, err := ethcrypto.ToECDSA(key.RawSecret[:])
	if err != nil {
		return "", walleterr.NonRetry(walleterr.CodeInvalidDerivation, "raw secret is not a valid secp256k1 scalar", err)
	}
	return ethcrypto.PubkeyToAddress(priv.PublicKey).Hex(), nil
}

// Balance returns address's native balance, scaled from wei to ether.
func (a *Adapter) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	wei, err := a.rpc.BalanceAt(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(wei, 0).Div(weiPerEther), nil
}

// EstimateFee computes an EIP-1559 fee estimate: baseFee * multiplier (by
// Priority) + a suggested priority tip, with TotalFee clamped between the
// low-priority and high-priority totals.
func (a *Adapter) EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.FeeEstimate, error) {
	baseFee, err := a.rpc.HeaderBaseFee(ctx)
	if err != nil {
		return chainadapter.FeeEstimate{}, err
	}
	tip, err := a.rpc.SuggestGasTipCap(ctx)
	if err != nil {
		return chainadapter.FeeEstimate{}, err
	}

	gasLimit, err := a.rpc.EstimateGas(ctx, common.Address{}.Hex(), to, weiAmount(amount), nil)
	if err != nil {
		gasLimit = 21000
	}
	gasLimit = gasLimit * 110 / 100

	priority := chainadapter.PriorityNormal
	if cfg != nil {
		priority = cfg.Common().Priority
	}

	low := new(big.Int).Mul(baseFee, big.NewInt(1))
	mid := new(big.Int).Mul(baseFee, big.NewInt(2))
	high := new(big.Int).Mul(baseFee, big.NewInt(3))

	recommended := mid
	switch priority {
	case chainadapter.PriorityLow:
		recommended = low
	case chainadapter.PriorityHigh, chainadapter.PriorityUrgent:
		recommended = high
	}
	recommended = new(big.Int).Add(recommended, tip)

	toFeeDecimal := func(feePerGas *big.Int) decimal.Decimal {
		total := new(big.Int).Mul(feePerGas, big.NewInt(int64(gasLimit)))
		return decimal.NewFromBigInt(total, 0).Div(weiPerEther)
	}

	minFee := toFeeDecimal(new(big.Int).Add(low, tip))
	maxFee := toFeeDecimal(new(big.Int).Add(high, tip))
	recFee := toFeeDecimal(recommended)

	gl := gasLimit
	gp := decimal.NewFromBigInt(recommended, 0)
	return chainadapter.FeeEstimate{
		BaseFee:     ptrDecimal(decimal.NewFromBigInt(baseFee, 0)),
		PriorityFee: ptrDecimal(decimal.NewFromBigInt(tip, 0)),
		TotalFee:    clampOrdered(minFee, recFee, maxFee),
		GasLimit:    &gl,
		GasPrice:    &gp,
	}, nil
}

func clampOrdered(min, recommended, max decimal.Decimal) decimal.Decimal {
	if recommended.LessThan(min) {
		return min
	}
	if recommended.GreaterThan(max) {
		return max
	}
	return recommended
}

func ptrDecimal(d decimal.Decimal) *decimal.Decimal { return &d }

// Send builds, signs, and broadcasts a native-asset transfer of amount to
// to, consulting the txstore before submission so a retried call with an
// already-broadcast hash does not double-send.
func (a *Adapter) Send(ctx context.Context, key chainadapter.SigningKey, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.TransactionResponse, error) {
	priv, err := ethcrypto.ToECDSA(key.RawSecret[:])
	if err != nil {
		return chainadapter.TransactionResponse{}, walleterr.NonRetry(walleterr.CodeInvalidDerivation, "raw secret is not a valid secp256k1 scalar", err)
	}
	from := ethcrypto.PubkeyToAddress(priv.PublicKey)

	var evmCfg chainadapter.EVMConfig
	if c, ok := cfg.(chainadapter.EVMConfig); ok {
		evmCfg = c
	}

	nonce := uint64(0)
	if evmCfg.Nonce != nil {
		nonce = *evmCfg.Nonce
	} else {
		nonce, err = a.rpc.NonceAt(ctx, from.Hex())
		if err != nil {
			return chainadapter.TransactionResponse{}, err
		}
	}

	gasLimit := uint64(21000)
	if evmCfg.GasLimit != nil {
		gasLimit = *evmCfg.GasLimit
	}

	chainID := a.networkID
	if evmCfg.ChainID != nil {
		chainID = big.NewInt(*evmCfg.ChainID)
	}

	var data []byte
	if evmCfg.Data != nil {
		data = evmCfg.Data
	}

	// EVMConfig.Type == 2 or an explicit max-fee/max-priority-fee pair
	// requests the EIP-1559 fee envelope; everything else signs a legacy
	// single-gasPrice transaction.
	useEIP1559 := evmCfg.Type == 2 || (evmCfg.MaxFeePerGas != nil && evmCfg.MaxPriorityFeePerGas != nil)

	var tx *types.Transaction
	if useEIP1559 {
		baseFee, err := a.rpc.HeaderBaseFee(ctx)
		if err != nil {
			return chainadapter.TransactionResponse{}, err
		}
		tip, err := a.rpc.SuggestGasTipCap(ctx)
		if err != nil {
			return chainadapter.TransactionResponse{}, err
		}
		maxFeePerGas := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
		if evmCfg.MaxFeePerGas != nil {
			maxFeePerGas = decimalToBigInt(*evmCfg.MaxFeePerGas)
		}
		maxPriorityFeePerGas := tip
		if evmCfg.MaxPriorityFeePerGas != nil {
			maxPriorityFeePerGas = decimalToBigInt(*evmCfg.MaxPriorityFeePerGas)
		}

		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: maxPriorityFeePerGas,
			GasFeeCap: maxFeePerGas,
			Gas:       gasLimit,
			To:        addrPtr(to),
			Value:     weiAmount(amount),
			Data:      data,
		})
	} else {
		gasPrice := evmCfg.GasPrice
		if gasPrice == nil {
			baseFee, err := a.rpc.HeaderBaseFee(ctx)
			if err != nil {
				return chainadapter.TransactionResponse{}, err
			}
			tip, err := a.rpc.SuggestGasTipCap(ctx)
			if err != nil {
				return chainadapter.TransactionResponse{}, err
			}
			gp := decimal.NewFromBigInt(new(big.Int).Add(baseFee, tip), 0)
			gasPrice = &gp
		}

		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: decimalToBigInt(*gasPrice),
			Gas:      gasLimit,
			To:       addrPtr(to),
			Value:    weiAmount(amount),
			Data:     data,
		})
	}

	signer := types.NewLondonSigner(chainID)
	signedTx, err := types.SignTx(tx, signer, priv)
	if err != nil {
		return chainadapter.TransactionResponse{}, walleterr.NonRetry(walleterr.CodeSignatureFailure, "failed to sign transaction", err)
	}

	txHash := signedTx.Hash().Hex()
	if existing, ok := a.store.Get(txHash); ok && existing.RetryCount > 0 {
		return chainadapter.TransactionResponse{TxHash: existing.TxHash, Status: existing.Status}, nil
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return chainadapter.TransactionResponse{}, walleterr.NonRetry(walleterr.CodeBroadcastFailure, "failed to serialize transaction", err)
	}

	broadcastHash, err := a.rpc.SendRawTransaction(ctx, raw)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	now := time.Now()
	retry := 1
	if existing, ok := a.store.Get(txHash); ok {
		retry = existing.RetryCount + 1
	}
	a.store.Set(txHash, txstore.State{
		TxHash: broadcastHash, Chain: a.ChainTag, Status: chainadapter.TxPending,
		RetryCount: retry, FirstSeen: now, LastRetry: now, RawTx: raw,
	})

	return chainadapter.TransactionResponse{TxHash: broadcastHash, Status: chainadapter.TxPending}, nil
}

// GetHistory and FetchLatestTx fall back to BaseAdapter's stub: history
// requires either an indexing provider (Etherscan-style API) or log
// scanning this package does not perform. The wallet facade falls back to
// the polling subscription engine regardless.

func (a *Adapter) Initialize(ctx context.Context) error { return nil }
func (a *Adapter) Shutdown(ctx context.Context) error {
	if a.rpc != nil {
		a.rpc.Close()
	}
	return nil
}

func weiAmount(d decimal.Decimal) *big.Int {
	return d.Mul(weiPerEther).BigInt()
}

func decimalToBigInt(d decimal.Decimal) *big.Int {
	return d.BigInt()
}

func addrPtr(hexAddr string) *common.Address {
	a := common.HexToAddress(hexAddr)
	return &a
}
