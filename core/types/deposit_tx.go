package types

import "math/big"

// DepositTxType is the EIP-2718 type byte of deposit transactions.
const DepositTxType = 0x7e

// DepositTx is an L2 transaction synthesized from L1 activity. Deposits are
// never signed; their identity is the source hash plus the content hash.
//
// The Mint, EthValue and EthTxValue fields are optional: nil means the field
// is absent on the wire. Mint and EthValue encode as an RLP empty string
// when absent; EthTxValue is the trailing field and is omitted entirely.
type DepositTx struct {
	// SourceHash uniquely identifies the origin of the deposit.
	SourceHash Hash
	// From is the sender account, set by the derivation rules.
	From Address
	// To is the recipient, or nil for a contract creation.
	To *Address
	// Mint is the MNT amount to mint on L2, nil when nothing is minted.
	Mint *big.Int
	// Value is the MNT amount transferred to the recipient.
	Value *big.Int
	// Gas is the L2 gas limit.
	Gas uint64
	// IsSystemTransaction exempts the transaction from the L2 gas limit.
	// Deprecated as of the Regolith upgrade.
	IsSystemTransaction bool
	// EthValue is the BVM_ETH amount to mint, nil when nothing is minted.
	EthValue *big.Int
	// Data is the calldata (or init code for creations).
	Data []byte
	// EthTxValue is the BVM_ETH amount transferred to the recipient,
	// nil when no transfer happens.
	EthTxValue *big.Int
}

// Type returns the EIP-2718 type byte.
func (tx *DepositTx) Type() byte { return DepositTxType }

// Nonce returns zero; deposits carry no account nonce on the wire.
func (tx *DepositTx) Nonce() uint64 { return 0 }

// RawSignatureValues returns the placeholder all-zero signature. Deposits
// are unsigned but consumers of signed transactions expect a triple.
func (tx *DepositTx) RawSignatureValues() (v, r, s *big.Int) {
	return new(big.Int), new(big.Int), new(big.Int)
}

// Copy returns a deep copy of the transaction.
func (tx *DepositTx) Copy() *DepositTx {
	cpy := &DepositTx{
		SourceHash:          tx.SourceHash,
		From:                tx.From,
		Gas:                 tx.Gas,
		IsSystemTransaction: tx.IsSystemTransaction,
		Value:               bigCopy(tx.Value),
		Mint:                bigCopy(tx.Mint),
		EthValue:            bigCopy(tx.EthValue),
		EthTxValue:          bigCopy(tx.EthTxValue),
		Data:                append([]byte(nil), tx.Data...),
	}
	if tx.To != nil {
		to := *tx.To
		cpy.To = &to
	}
	return cpy
}

func bigCopy(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
