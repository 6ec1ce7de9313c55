package bitcoin

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/walleterr"
)

// rbfSequence is the input sequence number BIP125 requires to opt a
// transaction into replace-by-fee (any value below 0xfffffffe).
const rbfSequence = 0xfffffffd

// buildAndSignTaprootSpend builds a single-output (plus change) key-path
// Taproot spend from utxos, all of which must belong to the P2TR address
// derived from key, and signs every input with BIP340 Schnorr. fee is
// subtracted from the change output; cfg's RBF and LockTime are applied to
// every input's sequence number and the transaction's locktime
// respectively. It returns the serialized transaction as hex and its txid.
func buildAndSignTaprootSpend(params *chaincfg.Params, key chainadapter.SigningKey, utxos []UTXO, to string, amountSats, fee int64, cfg chainadapter.UTXOConfig) (rawTxHex string, txHash string, err error) {
	priv, outputKey, err := taprootOutputKey(key)
	if err != nil {
		return "", "", err
	}
	tweakedPriv := txscript.TweakTaprootPrivKey(*priv, nil)

	ownAddr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), params)
	if err != nil {
		return "", "", walleterr.NonRetry(walleterr.CodeInvalidDerivation, "failed to build source address", err)
	}
	ownPkScript, err := txscript.PayToAddrScript(ownAddr)
	if err != nil {
		return "", "", walleterr.NonRetry(walleterr.CodeInvalidDerivation, "failed to build source pkScript", err)
	}
	toAddr, err := btcutil.DecodeAddress(to, params)
	if err != nil {
		return "", "", walleterr.NonRetry(walleterr.CodeInvalidAddress, "invalid recipient address", err)
	}
	toPkScript, err := txscript.PayToAddrScript(toAddr)
	if err != nil {
		return "", "", walleterr.NonRetry(walleterr.CodeInvalidAddress, "failed to build recipient pkScript", err)
	}

	sequence := uint32(wire.MaxTxInSequenceNum)
	if cfg.RBF {
		sequence = rbfSequence
	}
	if cfg.Sequence != nil {
		sequence = *cfg.Sequence
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	if cfg.LockTime != nil {
		tx.LockTime = *cfg.LockTime
	}
	prevFetcher := txscript.NewMultiPrevOutFetcher(nil)
	var total int64
	for _, u := range utxos {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return "", "", walleterr.NonRetry(walleterr.CodeInvalidParameters, "invalid utxo txid", err)
		}
		outPoint := wire.NewOutPoint(hash, u.Vout)
		txIn := wire.NewTxIn(outPoint, nil, nil)
		txIn.Sequence = sequence
		tx.AddTxIn(txIn)
		prevFetcher.AddPrevOut(*outPoint, wire.NewTxOut(u.Amount, ownPkScript))
		total += u.Amount
	}

	tx.AddTxOut(wire.NewTxOut(amountSats, toPkScript))
	change := total - amountSats - fee
	if change > 0 {
		tx.AddTxOut(wire.NewTxOut(change, ownPkScript))
	}

	sigHashes := txscript.NewTxSigHashes(tx, prevFetcher)
	for i := range tx.TxIn {
		sigHash, err := txscript.CalcTaprootSignatureHash(sigHashes, txscript.SigHashDefault, tx, i, prevFetcher)
		if err != nil {
			return "", "", walleterr.NonRetry(walleterr.CodeSignatureFailure, "failed to compute taproot sighash", err)
		}
		sig, err := schnorr.Sign(tweakedPriv, sigHash)
		if err != nil {
			return "", "", walleterr.NonRetry(walleterr.CodeSignatureFailure, "failed to produce schnorr signature", err)
		}
		tx.TxIn[i].Witness = wire.TxWitness{sig.Serialize()}
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", "", walleterr.NonRetry(walleterr.CodeBroadcastFailure, "failed to serialize transaction", err)
	}

	return hex.EncodeToString(buf.Bytes()), tx.TxHash().String(), nil
}
