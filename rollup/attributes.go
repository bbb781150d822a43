package rollup

import (
	"github.com/eth2030/mantle-derive/core/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PayloadAttributes is the JSON-facing view of the block-building request
// sent to the engine API. Transactions are EIP-2718 encoded and forced into
// the block; the deposits derived from L1 come first.
type PayloadAttributes struct {
	Timestamp             hexutil.Uint64  `json:"timestamp"`
	PrevRandao            types.Hash      `json:"prevRandao"`
	SuggestedFeeRecipient types.Address   `json:"suggestedFeeRecipient"`
	Transactions          []hexutil.Bytes `json:"transactions"`
	// NoTxPool instructs the sequencer to exclude mempool transactions.
	NoTxPool bool `json:"noTxPool"`
	// GasLimit overrides the block gas limit; required post-Bedrock.
	GasLimit *hexutil.Uint64 `json:"gasLimit,omitempty"`
	// BaseFee overrides the block base fee on chains with a fixed base fee.
	BaseFee *hexutil.Big `json:"baseFee,omitempty"`
}
