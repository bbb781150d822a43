package derive

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/eth2030/mantle-derive/core/types"
	"github.com/eth2030/mantle-derive/rlp"
	"github.com/eth2030/mantle-derive/rollup"
	"github.com/ethereum/go-ethereum/log"
)

// SingleBatchType is the discriminant byte of the single batch format.
const SingleBatchType = 0

var (
	// ErrEmptyBatchData is returned when there is no discriminant byte to
	// read.
	ErrEmptyBatchData = errors.New("batch data is empty")
	// ErrUnsupportedBatchType is returned on any discriminant other than
	// SingleBatchType.
	ErrUnsupportedBatchType = errors.New("unsupported batch type")
)

// Batch is a decoded batcher payload.
type Batch interface {
	GetBatchType() byte
	GetTimestamp() uint64
	// LogContext annotates a logger with the batch identity.
	LogContext(log.Logger) log.Logger
}

// SingleBatch carries the transactions of exactly one L2 block.
type SingleBatch struct {
	// ParentHash is the hash of the previous L2 block.
	ParentHash types.Hash
	// EpochNum is the number of the L1 origin block.
	EpochNum uint64
	// EpochHash is the hash of the L1 origin block.
	EpochHash types.Hash
	// Timestamp is the L2 block timestamp.
	Timestamp uint64
	// Transactions are opaque EIP-2718 encoded transactions.
	Transactions [][]byte
}

// GetBatchType returns the discriminant byte.
func (b *SingleBatch) GetBatchType() byte { return SingleBatchType }

// GetTimestamp returns the L2 block timestamp of the batch.
func (b *SingleBatch) GetTimestamp() uint64 { return b.Timestamp }

// Epoch returns the L1 origin block the batch points at.
func (b *SingleBatch) Epoch() rollup.BlockID {
	return rollup.BlockID{Hash: b.EpochHash, Number: b.EpochNum}
}

// LogContext annotates a logger with the batch identity.
func (b *SingleBatch) LogContext(lgr log.Logger) log.Logger {
	return lgr.New(
		"batch_type", "SingleBatch",
		"batch_timestamp", b.Timestamp,
		"parent_hash", b.ParentHash,
		"batch_epoch", b.Epoch(),
		"txs", len(b.Transactions),
	)
}

// Encode returns the wire form of the batch: the discriminant byte followed
// by the RLP list of fields.
func (b *SingleBatch) Encode() ([]byte, error) {
	enc, err := rlp.EncodeToBytes(b)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(enc))
	out = append(out, SingleBatchType)
	return append(out, enc...), nil
}

// DecodeBatch decodes a batcher payload. The first byte selects the batch
// format; only the single batch format exists on this chain, so any other
// discriminant is rejected outright rather than skipped.
func DecodeBatch(data []byte, cfg *rollup.RollupConfig) (Batch, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBatchData
	}
	switch data[0] {
	case SingleBatchType:
		return decodeSingleBatch(data[1:])
	default:
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedBatchType, data[0])
	}
}

func decodeSingleBatch(data []byte) (*SingleBatch, error) {
	s := rlp.NewStreamFromBytes(data)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	var b SingleBatch
	var err error

	buf, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	b.ParentHash = types.BytesToHash(buf)

	if b.EpochNum, err = s.Uint64(); err != nil {
		return nil, err
	}
	if buf, err = s.Bytes(); err != nil {
		return nil, err
	}
	b.EpochHash = types.BytesToHash(buf)
	if b.Timestamp, err = s.Uint64(); err != nil {
		return nil, err
	}

	if _, err := s.List(); err != nil {
		return nil, err
	}
	for !s.AtListEnd() {
		tx, err := s.Bytes()
		if err != nil {
			return nil, err
		}
		b.Transactions = append(b.Transactions, bytes.Clone(tx))
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}

	if !s.AtListEnd() {
		return nil, rlp.ErrUnexpectedLength
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	if s.Remaining() != 0 {
		return nil, rlp.ErrUnexpectedLength
	}
	return &b, nil
}
