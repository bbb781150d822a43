package derive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/eth2030/mantle-derive/core/types"
)

// DepositEventABI is the signature of the TransactionDeposited event emitted
// by the L1 deposit contract.
const DepositEventABI = "TransactionDeposited(address,address,uint256,bytes)"

// DepositEventABIHash is keccak256(DepositEventABI), topic zero of every
// deposit log.
var DepositEventABIHash = types.HexToHash("0xb3813568d9991fc951961fcb4c784893574240a28925604d09fc577c55bb7c32")

// Known versions of the TransactionDeposited event, carried in topic three.
var (
	DepositEventVersion0 = types.Hash{}
	DepositEventVersion1 = types.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000001")
)

// Minimum opaque data sizes of the two event versions: the fixed fields
// before the variable-length calldata.
const (
	depositV0MinOpaqueLen = 32 + 32 + 32 + 8 + 1
	depositV1MinOpaqueLen = 32 + 32 + 32 + 32 + 8 + 1
)

var (
	// ErrDepositLogTopics is returned when the log does not carry exactly
	// the four topics of a TransactionDeposited event.
	ErrDepositLogTopics = errors.New("deposit log has unexpected number of topics")
	// ErrDepositLogEvent is returned when topic zero is not the
	// TransactionDeposited signature.
	ErrDepositLogEvent = errors.New("deposit log has invalid event signature")
	// ErrDepositLogData is returned when the log data is shorter than the
	// two ABI head words or not 32-byte aligned.
	ErrDepositLogData = errors.New("deposit log has invalid data")
	// ErrDepositOffset is returned when the opaque data offset word is not
	// the expected 32.
	ErrDepositOffset = errors.New("deposit log has invalid opaque data offset")
	// ErrOpaqueDataOverflow is returned when the declared opaque length
	// exceeds the data actually present.
	ErrOpaqueDataOverflow = errors.New("opaque data length exceeds log data")
	// ErrPaddedDataOverflow is returned when the log carries more data than
	// the declared opaque length plus one word of padding can account for.
	ErrPaddedDataOverflow = errors.New("padded opaque data exceeds log data")
	// ErrInvalidDepositVersion is returned on an unknown version topic.
	ErrInvalidDepositVersion = errors.New("invalid deposit version")
	// ErrOpaqueDataTooShort is returned when the opaque data cannot hold
	// the fixed fields of its version.
	ErrOpaqueDataTooShort = errors.New("opaque data too short")
)

// UnmarshalDepositLogEvent translates a TransactionDeposited log into the
// EIP-2718 encoded deposit transaction it represents. The L1 block hash and
// the index of the log within that block determine the deposit's source
// hash.
func UnmarshalDepositLogEvent(l1BlockHash types.Hash, logIndex uint64, ev *types.Log) ([]byte, error) {
	if len(ev.Topics) != 4 {
		return nil, fmt.Errorf("%w: %d", ErrDepositLogTopics, len(ev.Topics))
	}
	if ev.Topics[0] != DepositEventABIHash {
		return nil, fmt.Errorf("%w: %s", ErrDepositLogEvent, ev.Topics[0])
	}
	if len(ev.Data) < 64 {
		return nil, fmt.Errorf("%w: only %d bytes", ErrDepositLogData, len(ev.Data))
	}
	if len(ev.Data)%32 != 0 {
		return nil, fmt.Errorf("%w: length %d is not 32-byte aligned", ErrDepositLogData, len(ev.Data))
	}

	from := types.AddressFromWord(ev.Topics[1])
	to := types.AddressFromWord(ev.Topics[2])
	version := ev.Topics[3]

	// ABI head: a single `bytes` argument, so the offset word must point
	// right past itself. Only the low 8 bytes of each head word are read.
	if binary.BigEndian.Uint64(ev.Data[24:32]) != 32 {
		return nil, ErrDepositOffset
	}
	opaqueLen := binary.BigEndian.Uint64(ev.Data[56:64])
	available := uint64(len(ev.Data) - 64)
	if opaqueLen > available {
		return nil, fmt.Errorf("%w: declared %d, have %d", ErrOpaqueDataOverflow, opaqueLen, available)
	}
	// The tail is the opaque bytes padded up to the next word. More data
	// than that means the length word lies.
	if opaqueLen+32 <= available {
		return nil, fmt.Errorf("%w: declared %d, have %d", ErrPaddedDataOverflow, opaqueLen, available)
	}
	opaque := ev.Data[64 : 64+opaqueLen]

	source := UserDepositSource{L1BlockHash: l1BlockHash, LogIndex: logIndex}
	var tx *types.DepositTx
	var err error
	switch version {
	case DepositEventVersion0:
		tx, err = unmarshalDepositVersion0(from, to, opaque)
	case DepositEventVersion1:
		tx, err = unmarshalDepositVersion1(from, to, opaque)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidDepositVersion, version)
	}
	if err != nil {
		return nil, err
	}
	tx.SourceHash = source.SourceHash()
	return tx.MarshalBinary()
}

// unmarshalDepositVersion0 parses the version 0 opaque layout:
// mint(32) value(32) ethValue(32) gas(8) isCreation(1) data(rest).
func unmarshalDepositVersion0(from, to types.Address, opaque []byte) (*types.DepositTx, error) {
	if len(opaque) < depositV0MinOpaqueLen {
		return nil, fmt.Errorf("%w: version 0 needs %d bytes, have %d",
			ErrOpaqueDataTooShort, depositV0MinOpaqueLen, len(opaque))
	}
	tx := &types.DepositTx{
		From:     from,
		Mint:     u128Field(opaque[0:32]),
		Value:    new(big.Int).SetBytes(opaque[32:64]),
		EthValue: u128Field(opaque[64:96]),
		Gas:      binary.BigEndian.Uint64(opaque[96:104]),
	}
	if opaque[104] == 0 {
		recipient := to
		tx.To = &recipient
	}
	tx.Data = bytes.Clone(opaque[105:])
	return tx, nil
}

// unmarshalDepositVersion1 parses the version 1 opaque layout, which adds
// an ethTxValue word between ethValue and gas.
func unmarshalDepositVersion1(from, to types.Address, opaque []byte) (*types.DepositTx, error) {
	if len(opaque) < depositV1MinOpaqueLen {
		return nil, fmt.Errorf("%w: version 1 needs %d bytes, have %d",
			ErrOpaqueDataTooShort, depositV1MinOpaqueLen, len(opaque))
	}
	tx := &types.DepositTx{
		From:       from,
		Mint:       u128Field(opaque[0:32]),
		Value:      new(big.Int).SetBytes(opaque[32:64]),
		EthValue:   u128Field(opaque[64:96]),
		EthTxValue: u128Field(opaque[96:128]),
		Gas:        binary.BigEndian.Uint64(opaque[128:136]),
	}
	if opaque[136] == 0 {
		recipient := to
		tx.To = &recipient
	}
	tx.Data = bytes.Clone(opaque[137:])
	return tx, nil
}

// u128Field reads the low 16 bytes of a 32-byte word as an optional amount.
// Zero means absent.
func u128Field(word []byte) *big.Int {
	v := new(big.Int).SetBytes(word[16:32])
	if v.Sign() == 0 {
		return nil
	}
	return v
}

func isZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}
