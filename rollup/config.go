// Package rollup holds the chain configuration of the rollup: the genesis
// anchor, the derivation parameters, the live system configuration and the
// well-known system accounts.
package rollup

import (
	"fmt"
	"math/big"

	"github.com/eth2030/mantle-derive/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// MaxRLPBytesPerChannelBedrock caps the decompressed channel size accepted
// by the derivation pipeline.
const MaxRLPBytesPerChannelBedrock = 10_000_000

// BlockID identifies a block by hash and number.
type BlockID struct {
	Hash   types.Hash `json:"hash"`
	Number uint64     `json:"number"`
}

// ChainGenesis anchors the L2 chain to its starting point on both layers.
type ChainGenesis struct {
	// L1 is the L1 block the rollup starts after.
	L1 BlockID `json:"l1"`
	// L2 is the first L2 block of the rollup.
	L2 BlockID `json:"l2"`
	// L2Time is the timestamp of the first L2 block.
	L2Time uint64 `json:"l2_time"`
	// SystemConfig is the initial system configuration, taken from the L1
	// SystemConfig contract state at the genesis L1 block.
	SystemConfig *SystemConfig `json:"system_config,omitempty"`
}

// SystemConfig mirrors the L1 SystemConfig contract state the derivation
// rules depend on. It is updated in place by ConfigUpdate events.
type SystemConfig struct {
	// BatcherAddr is the account whose batch transactions are accepted.
	BatcherAddr types.Address `json:"batcherAddr"`
	// Overhead is the L1 fee overhead applied to L2 transactions.
	Overhead *uint256.Int `json:"overhead"`
	// Scalar is the L1 fee scalar applied to L2 transactions.
	Scalar *uint256.Int `json:"scalar"`
	// GasLimit is the L2 block gas limit.
	GasLimit uint64 `json:"gasLimit"`
	// BaseFee is the fixed L2 base fee.
	BaseFee *uint256.Int `json:"baseFee"`
}

// RollupConfig is the static configuration of a rollup chain.
type RollupConfig struct {
	Genesis ChainGenesis `json:"genesis"`

	// BlockTime is the L2 block time in seconds.
	BlockTime uint64 `json:"block_time"`
	// MaxSequencerDrift bounds how far an L2 block timestamp may run ahead
	// of the L1 timestamp at the end of its sequencing window.
	MaxSequencerDrift uint64 `json:"max_sequencer_drift"`
	// SeqWindowSize is the sequencing window size in L1 blocks.
	SeqWindowSize uint64 `json:"seq_window_size"`
	// ChannelTimeoutValue is the number of L1 blocks between opening and
	// force-closing a channel.
	ChannelTimeoutValue uint64 `json:"channel_timeout"`

	L1ChainID uint64 `json:"l1_chain_id"`
	L2ChainID uint64 `json:"l2_chain_id"`

	// RegolithTime activates the Regolith upgrade. Nil means never.
	RegolithTime *uint64 `json:"regolith_time,omitempty"`
	// BaseFeeTime activates the BaseFee upgrade. Nil means never.
	BaseFeeTime *uint64 `json:"base_fee_time,omitempty"`

	// BatchInboxAddress is the L1 address batches are sent to.
	BatchInboxAddress types.Address `json:"batch_inbox_address"`
	// DepositContractAddress is the L1 OptimismPortal address.
	DepositContractAddress types.Address `json:"deposit_contract_address"`
	// L1SystemConfigAddress is the L1 SystemConfig contract address.
	L1SystemConfigAddress types.Address `json:"l1_system_config_address"`

	// MantleDASwitch selects Mantle DA instead of L1 calldata.
	MantleDASwitch bool `json:"mantle_da_switch"`
	// DatalayrServiceManagerAddr is the Mantle DA service manager contract.
	DatalayrServiceManagerAddr types.Address `json:"datalayr_service_manager_addr"`

	// ShanghaiTime activates Shanghai EVM semantics on L2. Nil means never.
	ShanghaiTime *uint64 `json:"shanghai_time,omitempty"`
}

// IsRegolith returns true if Regolith is active at the given L2 timestamp.
func (c *RollupConfig) IsRegolith(timestamp uint64) bool {
	return c.RegolithTime != nil && timestamp >= *c.RegolithTime
}

// IsShanghai returns true if Shanghai is active at the given L2 timestamp.
func (c *RollupConfig) IsShanghai(timestamp uint64) bool {
	return c.ShanghaiTime != nil && timestamp >= *c.ShanghaiTime
}

// IsBaseFee returns true if the BaseFee upgrade is active at the given L2
// timestamp.
func (c *RollupConfig) IsBaseFee(timestamp uint64) bool {
	return c.BaseFeeTime != nil && timestamp >= *c.BaseFeeTime
}

// MaxRLPBytesPerChannel returns the channel decompression cap.
func (c *RollupConfig) MaxRLPBytesPerChannel() uint64 {
	return MaxRLPBytesPerChannelBedrock
}

// ChannelTimeout returns the channel timeout in L1 blocks.
func (c *RollupConfig) ChannelTimeout() uint64 {
	return c.ChannelTimeoutValue
}

// Describe logs a one-shot summary of the chain configuration.
func (c *RollupConfig) Describe(logger log.Logger) {
	logger.Info("Rollup config",
		"l2_chain_id", c.L2ChainID,
		"l1_chain_id", c.L1ChainID,
		"l2_genesis", c.Genesis.L2.Hash,
		"l2_genesis_number", c.Genesis.L2.Number,
		"l1_anchor", c.Genesis.L1.Hash,
		"l1_anchor_number", c.Genesis.L1.Number,
		"block_time", c.BlockTime,
		"seq_window_size", c.SeqWindowSize,
		"channel_timeout", c.ChannelTimeoutValue,
		"mantle_da", c.MantleDASwitch,
		"regolith_time", fmtForkTime(c.RegolithTime),
		"shanghai_time", fmtForkTime(c.ShanghaiTime),
	)
}

func fmtForkTime(t *uint64) string {
	if t == nil {
		return "(disabled)"
	}
	return fmt.Sprintf("@%d", *t)
}

// BlockInfo is the view of an L1 block header consumed by the derivation
// rules.
type BlockInfo interface {
	Hash() types.Hash
	NumberU64() uint64
	Time() uint64
	BaseFee() *big.Int
}

// SystemAccounts are the special L2 accounts involved in deposit processing.
type SystemAccounts struct {
	// AttributesDepositor is the sender of the L1 attributes deposit.
	AttributesDepositor types.Address
	// AttributesPredeploy receives the L1 attributes deposit.
	AttributesPredeploy types.Address
	// FeeVault collects sequencer fees.
	FeeVault types.Address
}

// DefaultSystemAccounts holds the canonical predeploy addresses.
var DefaultSystemAccounts = SystemAccounts{
	AttributesDepositor: types.HexToAddress("0xdeaddeaddeaddeaddeaddeaddeaddeaddead0001"),
	AttributesPredeploy: types.HexToAddress("0x4200000000000000000000000000000000000015"),
	FeeVault:            types.HexToAddress("0x4200000000000000000000000000000000000011"),
}

// MantleMainnetConfig is the rollup configuration of Mantle mainnet.
var MantleMainnetConfig = RollupConfig{
	Genesis: ChainGenesis{
		L1: BlockID{
			Hash:   types.HexToHash("0x614050145039f11a778f1bd3c85ce2c1f3989492dbc544911fab9a7247e81ca4"),
			Number: 19_437_305,
		},
		L2: BlockID{
			Hash:   types.HexToHash("0xf70a2270b05820a2b335e70ab9ce91e42e15f50d82db73d9c63085711b312fc8"),
			Number: 61_171_946,
		},
		L2Time: 1_710_468_791,
		SystemConfig: &SystemConfig{
			BatcherAddr: types.HexToAddress("0x2f40d796917ffb642bd2e2bdd2c762a5e40fd749"),
			Overhead:    uint256.NewInt(0xbc),
			Scalar:      uint256.NewInt(0x2710),
			GasLimit:    200_000_000_000,
			BaseFee:     uint256.NewInt(0x1312d00),
		},
	},
	BlockTime:                  2,
	MaxSequencerDrift:          600,
	SeqWindowSize:              3600,
	ChannelTimeoutValue:        300,
	L1ChainID:                  1,
	L2ChainID:                  5000,
	RegolithTime:               u64Ptr(0),
	BaseFeeTime:                nil,
	BatchInboxAddress:          types.HexToAddress("0xff00000000000000000000000000000000000000"),
	DepositContractAddress:     types.HexToAddress("0xc54cb22944f2be476e02decfcd7e3e7d3e15a8fb"),
	L1SystemConfigAddress:      types.HexToAddress("0x427ea0710fa5252057f0d88274f7aeb308386caf"),
	MantleDASwitch:             true,
	DatalayrServiceManagerAddr: types.HexToAddress("0x5BD63a7ECc13b955C4F57e3F12A64c10263C14c1"),
	ShanghaiTime:               u64Ptr(0),
}

// MantleSepoliaConfig is the rollup configuration of the Mantle Sepolia
// testnet.
var MantleSepoliaConfig = RollupConfig{
	Genesis: ChainGenesis{
		L1: BlockID{
			Hash:   types.HexToHash("0x041dea101b3d09fee3dc566c9de820eca07d9d0e951853257c64c79fe4b90f25"),
			Number: 4_858_225,
		},
		L2: BlockID{
			Hash:   types.HexToHash("0x227de3c9c89eb8b8f88a26a06abe125c0d9c7a95a8213f7c83d098e7391bbde6"),
			Number: 325_709,
		},
		L2Time: 1_702_194_288,
		SystemConfig: &SystemConfig{
			BatcherAddr: types.HexToAddress("0x5fb5139834df283b6a4bd7267952f3ea21a573f4"),
			Overhead:    uint256.NewInt(0x834),
			Scalar:      uint256.NewInt(0xf4240),
			GasLimit:    1_125_899_906_842_624,
			BaseFee:     uint256.NewInt(0x3b9aca00),
		},
	},
	BlockTime:                  2,
	MaxSequencerDrift:          600,
	SeqWindowSize:              3600,
	ChannelTimeoutValue:        300,
	L1ChainID:                  11_155_111,
	L2ChainID:                  5003,
	RegolithTime:               u64Ptr(0),
	BaseFeeTime:                nil,
	BatchInboxAddress:          types.HexToAddress("0xff00000000000000000000000000000000000000"),
	DepositContractAddress:     types.HexToAddress("0xb3db4bd5bc225930ed674494f9a4f6a11b8efbc8"),
	L1SystemConfigAddress:      types.HexToAddress("0x04b34526c91424e955d13c7226bc4385e57e6706"),
	MantleDASwitch:             true,
	DatalayrServiceManagerAddr: types.HexToAddress("0xd7f17171896461A6EB74f95DF3f9b0D966A8a907"),
	ShanghaiTime:               u64Ptr(0),
}

// RollupConfigFromChainID returns the preset configuration for a known L2
// chain ID.
func RollupConfigFromChainID(l2ChainID uint64) (*RollupConfig, error) {
	switch l2ChainID {
	case 5000:
		cfg := MantleMainnetConfig
		return &cfg, nil
	case 5003:
		cfg := MantleSepoliaConfig
		return &cfg, nil
	default:
		return nil, fmt.Errorf("no rollup config for chain id %d", l2ChainID)
	}
}

func u64Ptr(v uint64) *uint64 { return &v }
