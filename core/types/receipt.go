package types

import "math/big"

// Receipt status values.
const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt holds the consensus fields shared by every Mantle receipt variant.
type Receipt struct {
	Status            uint64
	CumulativeGasUsed uint64
	Logs              []*Log
}

// Succeeded returns true if the receipt indicates a successful transaction
// (post-Byzantium status field equals 1).
func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}

// BloomSlow recomputes the logs bloom from scratch.
func (r *Receipt) BloomSlow() Bloom {
	return LogsBloom(r.Logs)
}

// MantleReceipt is the post-Bedrock receipt. The L1 fee fields and the token
// ratio form a positional optional tail: absent fields are dropped from the
// encoding entirely and decoding stops when the receipt payload runs out.
type MantleReceipt struct {
	Receipt
	Bloom Bloom

	L1GasPrice *big.Int
	L1GasUsed  *big.Int
	L1Fee      *big.Int
	TokenRatio *big.Int
}

// MantleLegacyReceipt is the pre-Bedrock receipt with the legacy L1 fee
// accounting fields in the optional tail.
type MantleLegacyReceipt struct {
	Receipt
	Bloom Bloom

	L1BaseFee  *big.Int
	Overhead   *big.Int
	Scalar     *big.Int
	TokenRatio *big.Int
}

// MantleDepositReceipt is the receipt of a deposit transaction. The deposit
// nonce and receipt version precede the L1 fee fields in the optional tail.
type MantleDepositReceipt struct {
	Receipt
	Bloom Bloom

	DepositNonce          *uint64
	DepositReceiptVersion *uint64

	L1GasPrice *big.Int
	L1GasUsed  *big.Int
	L1Fee      *big.Int
	TokenRatio *big.Int
}
