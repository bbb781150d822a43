package derive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/eth2030/mantle-derive/core/types"
	"github.com/eth2030/mantle-derive/rollup"
	"github.com/holiman/uint256"
)

// Calldata layout constants of the L1 attributes transaction.
const (
	// L1InfoTxLenBedrock is 4 bytes of selector and 8 ABI words.
	L1InfoTxLenBedrock = 4 + 32*8
	// L1InfoTxLenEcotone is 4 bytes of selector and 5 packed words.
	L1InfoTxLenEcotone = 4 + 32*5

	// RegolithSystemTxGas is the gas limit of the L1 attributes transaction
	// once Regolith is active and the system-tx gas exemption is gone.
	RegolithSystemTxGas = 1_000_000

	// preRegolithSystemTxGas is the pre-Regolith gas limit of the L1
	// attributes transaction.
	preRegolithSystemTxGas = 150_000_000
)

// Function selectors of the two setL1BlockValues generations.
var (
	L1InfoFuncBedrockSelector = [4]byte{0x01, 0x5d, 0x8e, 0xb9}
	L1InfoFuncEcotoneSelector = [4]byte{0x44, 0x0a, 0x5e, 0x20}
)

var (
	// ErrInvalidSelector is returned when the calldata starts with an
	// unknown function selector.
	ErrInvalidSelector = errors.New("invalid L1 info transaction selector")
	// ErrInvalidLength is returned when the calldata length does not match
	// the selected layout.
	ErrInvalidLength = errors.New("invalid calldata length")
)

// L1BlockInfo is the decoded form of an L1 attributes transaction. The two
// implementations are L1BlockInfoBedrock and L1BlockInfoEcotone.
type L1BlockInfo interface {
	// EncodeCalldata re-encodes the attributes into calldata bytes.
	EncodeCalldata() []byte
	// ID returns the L1 block this info was derived from.
	ID() rollup.BlockID
	// Sequence returns the distance to the start of the epoch.
	Sequence() uint64

	l1BlockInfo()
}

// L1BlockInfoBedrock is the Bedrock generation of the L1 attributes
// transaction: eight plain ABI words after the selector.
type L1BlockInfoBedrock struct {
	Number         uint64
	Time           uint64
	BaseFee        uint64
	BlockHash      types.Hash
	SequenceNumber uint64
	BatcherAddr    types.Address
	L1FeeOverhead  *uint256.Int
	L1FeeScalar    *uint256.Int
}

func (*L1BlockInfoBedrock) l1BlockInfo() {}

// ID returns the L1 block this info was derived from.
func (info *L1BlockInfoBedrock) ID() rollup.BlockID {
	return rollup.BlockID{Hash: info.BlockHash, Number: info.Number}
}

// Sequence returns the distance to the start of the epoch.
func (info *L1BlockInfoBedrock) Sequence() uint64 { return info.SequenceNumber }

// EncodeCalldata encodes the Bedrock setL1BlockValues calldata.
func (info *L1BlockInfoBedrock) EncodeCalldata() []byte {
	out := make([]byte, L1InfoTxLenBedrock)
	copy(out[0:4], L1InfoFuncBedrockSelector[:])
	binary.BigEndian.PutUint64(out[28:36], info.Number)
	binary.BigEndian.PutUint64(out[60:68], info.Time)
	binary.BigEndian.PutUint64(out[92:100], info.BaseFee)
	copy(out[100:132], info.BlockHash[:])
	binary.BigEndian.PutUint64(out[156:164], info.SequenceNumber)
	copy(out[176:196], info.BatcherAddr[:])
	putUint256Word(out[196:228], info.L1FeeOverhead)
	putUint256Word(out[228:260], info.L1FeeScalar)
	return out
}

// DecodeL1BlockInfoBedrock decodes Bedrock setL1BlockValues calldata. The
// length must be exactly 260 bytes.
func DecodeL1BlockInfoBedrock(data []byte) (*L1BlockInfoBedrock, error) {
	if len(data) != L1InfoTxLenBedrock {
		return nil, fmt.Errorf("%w for Bedrock L1 info transaction, expected %d, got %d",
			ErrInvalidLength, L1InfoTxLenBedrock, len(data))
	}
	if err := checkSelector(data, L1InfoFuncBedrockSelector); err != nil {
		return nil, err
	}
	info := &L1BlockInfoBedrock{
		Number:         binary.BigEndian.Uint64(data[28:36]),
		Time:           binary.BigEndian.Uint64(data[60:68]),
		BaseFee:        binary.BigEndian.Uint64(data[92:100]),
		BlockHash:      types.BytesToHash(data[100:132]),
		SequenceNumber: binary.BigEndian.Uint64(data[156:164]),
		BatcherAddr:    types.BytesToAddress(data[176:196]),
		L1FeeOverhead:  new(uint256.Int).SetBytes(data[196:228]),
		L1FeeScalar:    new(uint256.Int).SetBytes(data[228:260]),
	}
	return info, nil
}

// L1BlockInfoEcotone is the Ecotone generation of the L1 attributes
// transaction: five tightly packed words after the selector.
type L1BlockInfoEcotone struct {
	Number            uint64
	Time              uint64
	BaseFee           uint64
	BlockHash         types.Hash
	SequenceNumber    uint64
	BatcherAddr       types.Address
	BlobBaseFee       *uint256.Int
	BlobBaseFeeScalar uint32
	BaseFeeScalar     uint32
}

func (*L1BlockInfoEcotone) l1BlockInfo() {}

// ID returns the L1 block this info was derived from.
func (info *L1BlockInfoEcotone) ID() rollup.BlockID {
	return rollup.BlockID{Hash: info.BlockHash, Number: info.Number}
}

// Sequence returns the distance to the start of the epoch.
func (info *L1BlockInfoEcotone) Sequence() uint64 { return info.SequenceNumber }

// EncodeCalldata encodes the Ecotone setL1BlockValuesEcotone calldata.
func (info *L1BlockInfoEcotone) EncodeCalldata() []byte {
	out := make([]byte, L1InfoTxLenEcotone)
	copy(out[0:4], L1InfoFuncEcotoneSelector[:])
	binary.BigEndian.PutUint32(out[4:8], info.BaseFeeScalar)
	binary.BigEndian.PutUint32(out[8:12], info.BlobBaseFeeScalar)
	binary.BigEndian.PutUint64(out[12:20], info.SequenceNumber)
	binary.BigEndian.PutUint64(out[20:28], info.Time)
	binary.BigEndian.PutUint64(out[28:36], info.Number)
	binary.BigEndian.PutUint64(out[60:68], info.BaseFee)
	putUint256Word(out[68:100], info.BlobBaseFee)
	copy(out[100:132], info.BlockHash[:])
	copy(out[144:164], info.BatcherAddr[:])
	return out
}

// DecodeL1BlockInfoEcotone decodes Ecotone setL1BlockValuesEcotone calldata.
// The length must be exactly 164 bytes.
func DecodeL1BlockInfoEcotone(data []byte) (*L1BlockInfoEcotone, error) {
	if len(data) != L1InfoTxLenEcotone {
		return nil, fmt.Errorf("%w for Ecotone L1 info transaction, expected %d, got %d",
			ErrInvalidLength, L1InfoTxLenEcotone, len(data))
	}
	if err := checkSelector(data, L1InfoFuncEcotoneSelector); err != nil {
		return nil, err
	}
	info := &L1BlockInfoEcotone{
		BaseFeeScalar:     binary.BigEndian.Uint32(data[4:8]),
		BlobBaseFeeScalar: binary.BigEndian.Uint32(data[8:12]),
		SequenceNumber:    binary.BigEndian.Uint64(data[12:20]),
		Time:              binary.BigEndian.Uint64(data[20:28]),
		Number:            binary.BigEndian.Uint64(data[28:36]),
		BaseFee:           binary.BigEndian.Uint64(data[60:68]),
		BlobBaseFee:       new(uint256.Int).SetBytes(data[68:100]),
		BlockHash:         types.BytesToHash(data[100:132]),
		BatcherAddr:       types.BytesToAddress(data[144:164]),
	}
	return info, nil
}

// DecodeL1BlockInfo decodes either generation of the L1 attributes calldata,
// dispatching on the function selector.
func DecodeL1BlockInfo(data []byte) (L1BlockInfo, error) {
	if len(data) < 4 {
		return nil, ErrInvalidSelector
	}
	var selector [4]byte
	copy(selector[:], data[0:4])
	switch selector {
	case L1InfoFuncBedrockSelector:
		return DecodeL1BlockInfoBedrock(data)
	case L1InfoFuncEcotoneSelector:
		return DecodeL1BlockInfoEcotone(data)
	default:
		return nil, ErrInvalidSelector
	}
}

// NewL1BlockInfo builds the L1 attributes of an L2 block from the system
// config and the L1 origin block. The chain constructs Bedrock attributes.
func NewL1BlockInfo(sysCfg *rollup.SystemConfig, seqNumber uint64, l1 rollup.BlockInfo) *L1BlockInfoBedrock {
	return &L1BlockInfoBedrock{
		Number:         l1.NumberU64(),
		Time:           l1.Time(),
		BaseFee:        baseFeeU64(l1.BaseFee()),
		BlockHash:      l1.Hash(),
		SequenceNumber: seqNumber,
		BatcherAddr:    sysCfg.BatcherAddr,
		L1FeeOverhead:  sysCfg.Overhead,
		L1FeeScalar:    sysCfg.Scalar,
	}
}

// L1InfoDeposit creates the L1 attributes deposit transaction of an L2 block.
// Pre-Regolith the transaction is a system transaction with a 150M gas
// allowance; with Regolith active at the L2 timestamp the flag is cleared
// and the gas limit drops to RegolithSystemTxGas.
func L1InfoDeposit(rollupCfg *rollup.RollupConfig, sysCfg *rollup.SystemConfig, seqNumber uint64, l1 rollup.BlockInfo, l2Timestamp uint64) (*types.DepositTx, error) {
	info := NewL1BlockInfo(sysCfg, seqNumber, l1)
	source := L1InfoDepositSource{L1BlockHash: l1.Hash(), SeqNumber: seqNumber}

	to := rollup.DefaultSystemAccounts.AttributesPredeploy
	tx := &types.DepositTx{
		SourceHash:          source.SourceHash(),
		From:                rollup.DefaultSystemAccounts.AttributesDepositor,
		To:                  &to,
		Mint:                nil,
		Value:               new(big.Int),
		Gas:                 preRegolithSystemTxGas,
		IsSystemTransaction: true,
		Data:                info.EncodeCalldata(),
	}
	if rollupCfg.IsRegolith(l2Timestamp) {
		tx.IsSystemTransaction = false
		tx.Gas = RegolithSystemTxGas
	}
	return tx, nil
}

func checkSelector(data []byte, want [4]byte) error {
	if len(data) < 4 {
		return ErrInvalidSelector
	}
	var got [4]byte
	copy(got[:], data[0:4])
	if got != want {
		return ErrInvalidSelector
	}
	return nil
}

// putUint256Word writes v as a 32-byte big-endian word. Nil writes zero.
func putUint256Word(dst []byte, v *uint256.Int) {
	if v == nil {
		return
	}
	word := v.Bytes32()
	copy(dst, word[:])
}

// baseFeeU64 narrows an L1 base fee to the uint64 slot of the calldata.
func baseFeeU64(v *big.Int) uint64 {
	if v == nil {
		return 0
	}
	return v.Uint64()
}
