package rollup

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/eth2030/mantle-derive/core/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func TestRollupConfigFromChainID(t *testing.T) {
	cfg, err := RollupConfigFromChainID(5000)
	if err != nil {
		t.Fatalf("mainnet lookup: %v", err)
	}
	if cfg.L1ChainID != 1 || cfg.L2ChainID != 5000 {
		t.Fatalf("mainnet chain ids: %d/%d", cfg.L1ChainID, cfg.L2ChainID)
	}
	cfg, err = RollupConfigFromChainID(5003)
	if err != nil {
		t.Fatalf("sepolia lookup: %v", err)
	}
	if cfg.L1ChainID != 11_155_111 || cfg.L2ChainID != 5003 {
		t.Fatalf("sepolia chain ids: %d/%d", cfg.L1ChainID, cfg.L2ChainID)
	}
	if _, err := RollupConfigFromChainID(10); err == nil {
		t.Fatal("unknown chain id should fail")
	}
}

func TestMainnetConfigValues(t *testing.T) {
	cfg := MantleMainnetConfig
	if got := cfg.Genesis.L1.Hash; got != types.HexToHash("0x614050145039f11a778f1bd3c85ce2c1f3989492dbc544911fab9a7247e81ca4") {
		t.Fatalf("l1 genesis hash = %s", got)
	}
	if cfg.Genesis.L1.Number != 19_437_305 || cfg.Genesis.L2.Number != 61_171_946 {
		t.Fatalf("genesis numbers: %d/%d", cfg.Genesis.L1.Number, cfg.Genesis.L2.Number)
	}
	if cfg.Genesis.L2Time != 1_710_468_791 {
		t.Fatalf("l2 time = %d", cfg.Genesis.L2Time)
	}
	sc := cfg.Genesis.SystemConfig
	if sc == nil {
		t.Fatal("genesis system config missing")
	}
	if sc.BatcherAddr != types.HexToAddress("0x2f40d796917ffb642bd2e2bdd2c762a5e40fd749") {
		t.Fatalf("batcher = %s", sc.BatcherAddr)
	}
	if sc.Overhead.Uint64() != 0xbc || sc.Scalar.Uint64() != 0x2710 {
		t.Fatalf("gas config: %s/%s", sc.Overhead, sc.Scalar)
	}
	if sc.GasLimit != 200_000_000_000 {
		t.Fatalf("gas limit = %d", sc.GasLimit)
	}
	if cfg.BlockTime != 2 || cfg.MaxSequencerDrift != 600 || cfg.SeqWindowSize != 3600 {
		t.Fatalf("timing params: %d/%d/%d", cfg.BlockTime, cfg.MaxSequencerDrift, cfg.SeqWindowSize)
	}
	if cfg.ChannelTimeout() != 300 {
		t.Fatalf("channel timeout = %d", cfg.ChannelTimeout())
	}
	if !cfg.MantleDASwitch {
		t.Fatal("mantle da should be enabled")
	}
	if cfg.MaxRLPBytesPerChannel() != 10_000_000 {
		t.Fatalf("rlp cap = %d", cfg.MaxRLPBytesPerChannel())
	}
}

func TestForkPredicates(t *testing.T) {
	var cfg RollupConfig
	if cfg.IsRegolith(0) || cfg.IsShanghai(0) || cfg.IsBaseFee(0) {
		t.Fatal("unset fork times must be inactive")
	}
	cfg.RegolithTime = u64Ptr(10)
	if cfg.IsRegolith(9) {
		t.Fatal("regolith active before activation time")
	}
	if !cfg.IsRegolith(10) || !cfg.IsRegolith(11) {
		t.Fatal("regolith inactive at or after activation time")
	}
	if !MantleMainnetConfig.IsRegolith(0) || !MantleMainnetConfig.IsShanghai(0) {
		t.Fatal("mainnet activates regolith and shanghai at genesis")
	}
}

func TestRollupConfigJSON(t *testing.T) {
	enc, err := json.Marshal(&MantleMainnetConfig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"block_time"`, `"seq_window_size"`, `"batcherAddr"`, `"l2_time"`, `"mantle_da_switch"`, `"datalayr_service_manager_addr"`} {
		if !strings.Contains(string(enc), key) {
			t.Fatalf("serialized config missing %s", key)
		}
	}
	var dec RollupConfig
	if err := json.Unmarshal(enc, &dec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dec.L2ChainID != 5000 || dec.Genesis.L1.Number != 19_437_305 {
		t.Fatalf("roundtrip mismatch: %+v", dec)
	}
	if dec.Genesis.SystemConfig == nil || dec.Genesis.SystemConfig.Overhead.Uint64() != 0xbc {
		t.Fatalf("system config roundtrip mismatch: %+v", dec.Genesis.SystemConfig)
	}
	if dec.RegolithTime == nil || *dec.RegolithTime != 0 {
		t.Fatalf("regolith time roundtrip mismatch: %v", dec.RegolithTime)
	}
}

func TestSystemAccounts(t *testing.T) {
	if DefaultSystemAccounts.AttributesDepositor != types.HexToAddress("0xdeaddeaddeaddeaddeaddeaddeaddeaddead0001") {
		t.Fatalf("depositor = %s", DefaultSystemAccounts.AttributesDepositor)
	}
	if DefaultSystemAccounts.AttributesPredeploy != types.HexToAddress("0x4200000000000000000000000000000000000015") {
		t.Fatalf("predeploy = %s", DefaultSystemAccounts.AttributesPredeploy)
	}
	if DefaultSystemAccounts.FeeVault != types.HexToAddress("0x4200000000000000000000000000000000000011") {
		t.Fatalf("fee vault = %s", DefaultSystemAccounts.FeeVault)
	}
}

func TestPayloadAttributesJSON(t *testing.T) {
	gasLimit := hexutil.Uint64(200_000_000_000)
	attrs := PayloadAttributes{
		Timestamp:             hexutil.Uint64(1_710_468_793),
		PrevRandao:            types.HexToHash("0x01"),
		SuggestedFeeRecipient: DefaultSystemAccounts.FeeVault,
		Transactions:          []hexutil.Bytes{{0x7e, 0xc0}},
		NoTxPool:              true,
		GasLimit:              &gasLimit,
		BaseFee:               (*hexutil.Big)(big.NewInt(0x1312d00)),
	}
	enc, err := json.Marshal(&attrs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"timestamp"`, `"prevRandao"`, `"suggestedFeeRecipient"`, `"transactions"`, `"noTxPool"`, `"gasLimit"`, `"baseFee"`} {
		if !strings.Contains(string(enc), key) {
			t.Fatalf("serialized attributes missing %s", key)
		}
	}
	var dec PayloadAttributes
	if err := json.Unmarshal(enc, &dec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dec.Timestamp != attrs.Timestamp || !dec.NoTxPool {
		t.Fatalf("roundtrip mismatch: %+v", dec)
	}
	if dec.GasLimit == nil || *dec.GasLimit != gasLimit {
		t.Fatalf("gas limit roundtrip mismatch: %v", dec.GasLimit)
	}
	if len(dec.Transactions) != 1 || dec.Transactions[0][0] != 0x7e {
		t.Fatalf("transactions roundtrip mismatch: %v", dec.Transactions)
	}
}
