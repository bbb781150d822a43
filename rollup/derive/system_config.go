package derive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/eth2030/mantle-derive/core/types"
	"github.com/eth2030/mantle-derive/rollup"
	"github.com/holiman/uint256"
)

// ConfigUpdateEventABI is the signature of the ConfigUpdate event emitted by
// the L1 SystemConfig contract.
const ConfigUpdateEventABI = "ConfigUpdate(uint256,uint8,bytes)"

// ConfigUpdateEventABIHash is keccak256(ConfigUpdateEventABI), topic zero of
// every config update log.
var ConfigUpdateEventABIHash = types.HexToHash("0x1d2b0bda21d56b8bd12d4f94ebacffdfb35f5e226f84b461103bb8beab6353be")

// ConfigUpdateEventVersion0 is the only recognized event version.
var ConfigUpdateEventVersion0 = types.Hash{}

// ConfigUpdate types, carried in topic two.
const (
	SystemConfigUpdateBatcher           uint64 = 0
	SystemConfigUpdateGasConfig         uint64 = 1
	SystemConfigUpdateGasLimit          uint64 = 2
	SystemConfigUpdateUnsafeBlockSigner uint64 = 3
	SystemConfigUpdateBaseFee           uint64 = 4
)

var (
	// ErrSystemConfigTopics is returned when a config update log does not
	// carry at least the three indexed topics.
	ErrSystemConfigTopics = errors.New("config update log has unexpected number of topics")
	// ErrSystemConfigEvent is returned when topic zero is not the
	// ConfigUpdate signature.
	ErrSystemConfigEvent = errors.New("config update log has invalid event signature")
	// ErrSystemConfigVersion is returned on an unrecognized event version.
	ErrSystemConfigVersion = errors.New("unrecognized config update version")
	// ErrSystemConfigUpdateType is returned on an unrecognized update type.
	ErrSystemConfigUpdateType = errors.New("unrecognized config update type")
	// ErrSystemConfigData is returned when the ABI-encoded update payload
	// is malformed.
	ErrSystemConfigData = errors.New("invalid config update data")
)

// UpdateSystemConfigWithReceipts applies every ConfigUpdate event found in
// the receipts of an L1 block to the system configuration, in order. Logs of
// failed transactions are skipped. A single malformed update log fails the
// whole block; updates already applied are not rolled back.
func UpdateSystemConfigWithReceipts(cfg *rollup.SystemConfig, receipts []*types.Receipt, l1SystemConfigAddr types.Address) error {
	for _, rec := range receipts {
		if rec.Status == types.ReceiptStatusFailed {
			continue
		}
		for _, ev := range rec.Logs {
			if ev.Address != l1SystemConfigAddr {
				continue
			}
			if len(ev.Topics) == 0 || ev.Topics[0] != ConfigUpdateEventABIHash {
				continue
			}
			if err := ProcessSystemConfigUpdateLogEvent(cfg, ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessSystemConfigUpdateLogEvent applies one ConfigUpdate log to the
// system configuration.
func ProcessSystemConfigUpdateLogEvent(cfg *rollup.SystemConfig, ev *types.Log) error {
	if len(ev.Topics) < 3 {
		return fmt.Errorf("%w: %d", ErrSystemConfigTopics, len(ev.Topics))
	}
	if ev.Topics[0] != ConfigUpdateEventABIHash {
		return fmt.Errorf("%w: %s", ErrSystemConfigEvent, ev.Topics[0])
	}
	if ev.Topics[1] != ConfigUpdateEventVersion0 {
		return fmt.Errorf("%w: %s", ErrSystemConfigVersion, ev.Topics[1])
	}
	// The discriminant lives in the low 8 bytes of the type topic; the high
	// bytes are not part of the encoding and are ignored.
	updateType := binary.BigEndian.Uint64(ev.Topics[2][24:32])

	switch updateType {
	case SystemConfigUpdateBatcher:
		addr, err := decodeAddressUpdate(ev.Data)
		if err != nil {
			return err
		}
		cfg.BatcherAddr = addr
		return nil

	case SystemConfigUpdateGasConfig:
		if len(ev.Data) != 128 {
			return fmt.Errorf("%w: gas config update needs 128 bytes, have %d", ErrSystemConfigData, len(ev.Data))
		}
		if err := checkUpdateHead(ev.Data, 64); err != nil {
			return err
		}
		cfg.Overhead = new(uint256.Int).SetBytes(ev.Data[64:96])
		cfg.Scalar = new(uint256.Int).SetBytes(ev.Data[96:128])
		return nil

	case SystemConfigUpdateGasLimit:
		word, err := decodeWordUpdate(ev.Data)
		if err != nil {
			return err
		}
		// The contract stores a uint256; the chain saturates to uint64.
		if !word.IsUint64() {
			cfg.GasLimit = math.MaxUint64
		} else {
			cfg.GasLimit = word.Uint64()
		}
		return nil

	case SystemConfigUpdateUnsafeBlockSigner:
		// Recognized but irrelevant to derivation.
		if _, err := decodeAddressUpdate(ev.Data); err != nil {
			return err
		}
		return nil

	case SystemConfigUpdateBaseFee:
		word, err := decodeWordUpdate(ev.Data)
		if err != nil {
			return err
		}
		cfg.BaseFee = word
		return nil

	default:
		return fmt.Errorf("%w: %d", ErrSystemConfigUpdateType, updateType)
	}
}

// checkUpdateHead validates the ABI head of an update payload: a pointer
// word of 32 followed by the expected byte length of the content.
func checkUpdateHead(data []byte, contentLen uint64) error {
	pointer, err := wordToUint64(data[0:32])
	if err != nil {
		return fmt.Errorf("%w: invalid pointer word: %v", ErrSystemConfigData, err)
	}
	if pointer != 32 {
		return fmt.Errorf("%w: pointer word is %d, want 32", ErrSystemConfigData, pointer)
	}
	length, err := wordToUint64(data[32:64])
	if err != nil {
		return fmt.Errorf("%w: invalid length word: %v", ErrSystemConfigData, err)
	}
	if length != contentLen {
		return fmt.Errorf("%w: length word is %d, want %d", ErrSystemConfigData, length, contentLen)
	}
	return nil
}

// decodeAddressUpdate unpacks an ABI-encoded (bytes) payload holding a
// single address word.
func decodeAddressUpdate(data []byte) (types.Address, error) {
	if len(data) != 96 {
		return types.Address{}, fmt.Errorf("%w: address update needs 96 bytes, have %d", ErrSystemConfigData, len(data))
	}
	if err := checkUpdateHead(data, 32); err != nil {
		return types.Address{}, err
	}
	if !isZero(data[64:76]) {
		return types.Address{}, fmt.Errorf("%w: address word has dirty padding", ErrSystemConfigData)
	}
	return types.BytesToAddress(data[76:96]), nil
}

// decodeWordUpdate unpacks an ABI-encoded (bytes) payload holding a single
// uint256 word.
func decodeWordUpdate(data []byte) (*uint256.Int, error) {
	if len(data) != 96 {
		return nil, fmt.Errorf("%w: word update needs 96 bytes, have %d", ErrSystemConfigData, len(data))
	}
	if err := checkUpdateHead(data, 32); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(data[64:96]), nil
}

// wordToUint64 narrows a 32-byte big-endian word to uint64, rejecting
// values that do not fit.
func wordToUint64(word []byte) (uint64, error) {
	v := new(uint256.Int).SetBytes(word)
	if !v.IsUint64() {
		return 0, fmt.Errorf("word value %s overflows uint64", v)
	}
	return v.Uint64(), nil
}
