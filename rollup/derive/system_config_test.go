package derive

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/eth2030/mantle-derive/core/types"
	"github.com/eth2030/mantle-derive/rollup"
)

var testSysCfgAddr = types.HexToAddress("0x427ea0710fa5252057f0d88274f7aeb308386caf")

func abiWord(v uint64) []byte {
	word := make([]byte, 32)
	binary.BigEndian.PutUint64(word[24:32], v)
	return word
}

func updateData(words ...[]byte) []byte {
	data := append([]byte{}, abiWord(32)...)
	data = append(data, abiWord(uint64(32*len(words)))...)
	for _, w := range words {
		data = append(data, w...)
	}
	return data
}

func updateLog(updateType uint64, data []byte) *types.Log {
	return &types.Log{
		Address: testSysCfgAddr,
		Topics:  []types.Hash{ConfigUpdateEventABIHash, ConfigUpdateEventVersion0, types.BytesToHash(abiWord(updateType))},
		Data:    data,
	}
}

func TestProcessBatcherUpdate(t *testing.T) {
	var cfg rollup.SystemConfig
	addr := types.HexToAddress("0x000000000000000000000000000000000000bEEF")
	ev := updateLog(SystemConfigUpdateBatcher, updateData(addr.Word().Bytes()))
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); err != nil {
		t.Fatalf("batcher update: %v", err)
	}
	if cfg.BatcherAddr != addr {
		t.Fatalf("batcher = %s, want %s", cfg.BatcherAddr, addr)
	}
}

func TestProcessBatcherUpdateExtraTopic(t *testing.T) {
	var cfg rollup.SystemConfig
	addr := types.HexToAddress("0x000000000000000000000000000000000000bEEF")
	ev := updateLog(SystemConfigUpdateBatcher, updateData(addr.Word().Bytes()))
	ev.Topics = append(ev.Topics, types.HexToHash("0x04"))
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); err != nil {
		t.Fatalf("four-topic batcher update: %v", err)
	}
	if cfg.BatcherAddr != addr {
		t.Fatalf("batcher = %s, want %s", cfg.BatcherAddr, addr)
	}
}

func TestProcessUpdateTypeHighBytesIgnored(t *testing.T) {
	var cfg rollup.SystemConfig
	addr := types.HexToAddress("0x000000000000000000000000000000000000bEEF")
	ev := updateLog(SystemConfigUpdateBatcher, updateData(addr.Word().Bytes()))
	ev.Topics[2][0] = 0xff
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); err != nil {
		t.Fatalf("dirty type topic: %v", err)
	}
	if cfg.BatcherAddr != addr {
		t.Fatalf("batcher = %s, want %s", cfg.BatcherAddr, addr)
	}
}

func TestProcessGasConfigUpdate(t *testing.T) {
	var cfg rollup.SystemConfig
	ev := updateLog(SystemConfigUpdateGasConfig, updateData(abiWord(0xbabe), abiWord(0xbeef)))
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); err != nil {
		t.Fatalf("gas config update: %v", err)
	}
	if cfg.Overhead.Uint64() != 0xbabe || cfg.Scalar.Uint64() != 0xbeef {
		t.Fatalf("gas config = %s/%s", cfg.Overhead, cfg.Scalar)
	}
}

func TestProcessGasLimitUpdate(t *testing.T) {
	var cfg rollup.SystemConfig
	ev := updateLog(SystemConfigUpdateGasLimit, updateData(abiWord(0xbeef)))
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); err != nil {
		t.Fatalf("gas limit update: %v", err)
	}
	if cfg.GasLimit != 0xbeef {
		t.Fatalf("gas limit = %d", cfg.GasLimit)
	}
}

func TestProcessGasLimitUpdateSaturates(t *testing.T) {
	var cfg rollup.SystemConfig
	word := make([]byte, 32)
	word[0] = 0x01 // 2^248, far beyond uint64
	ev := updateLog(SystemConfigUpdateGasLimit, updateData(word))
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); err != nil {
		t.Fatalf("oversize gas limit update: %v", err)
	}
	if cfg.GasLimit != math.MaxUint64 {
		t.Fatalf("gas limit = %d, want saturation", cfg.GasLimit)
	}
}

func TestProcessUnsafeBlockSignerUpdate(t *testing.T) {
	cfg := rollup.SystemConfig{BatcherAddr: types.HexToAddress("0x01")}
	addr := types.HexToAddress("0x000000000000000000000000000000000000cafe")
	ev := updateLog(SystemConfigUpdateUnsafeBlockSigner, updateData(addr.Word().Bytes()))
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); err != nil {
		t.Fatalf("unsafe block signer update: %v", err)
	}
	if cfg.BatcherAddr != types.HexToAddress("0x01") {
		t.Fatal("signer update must not touch derivation config")
	}
}

func TestProcessBaseFeeUpdate(t *testing.T) {
	var cfg rollup.SystemConfig
	ev := updateLog(SystemConfigUpdateBaseFee, updateData(abiWord(0x1312d00)))
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); err != nil {
		t.Fatalf("base fee update: %v", err)
	}
	if cfg.BaseFee.Uint64() != 0x1312d00 {
		t.Fatalf("base fee = %s", cfg.BaseFee)
	}
}

func TestProcessUpdateRejections(t *testing.T) {
	var cfg rollup.SystemConfig

	ev := updateLog(SystemConfigUpdateBatcher, updateData(abiWord(1)))
	ev.Topics = ev.Topics[:2]
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); !errors.Is(err, ErrSystemConfigTopics) {
		t.Fatalf("topic count: err = %v", err)
	}

	ev = updateLog(SystemConfigUpdateBatcher, updateData(abiWord(1)))
	ev.Topics[1] = types.HexToHash("0x01")
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); !errors.Is(err, ErrSystemConfigVersion) {
		t.Fatalf("version: err = %v", err)
	}

	ev = updateLog(99, updateData(abiWord(1)))
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); !errors.Is(err, ErrSystemConfigUpdateType) {
		t.Fatalf("update type: err = %v", err)
	}

	// Pointer word must be exactly 32.
	data := updateData(abiWord(1))
	data[31] = 64
	ev = updateLog(SystemConfigUpdateBatcher, data)
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); !errors.Is(err, ErrSystemConfigData) {
		t.Fatalf("pointer word: err = %v", err)
	}

	// Length word must match the content size.
	data = updateData(abiWord(1))
	data[63] = 64
	ev = updateLog(SystemConfigUpdateBatcher, data)
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); !errors.Is(err, ErrSystemConfigData) {
		t.Fatalf("length word: err = %v", err)
	}

	// Address word with dirty padding.
	data = updateData(abiWord(1))
	data[64] = 0xff
	ev = updateLog(SystemConfigUpdateBatcher, data)
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); !errors.Is(err, ErrSystemConfigData) {
		t.Fatalf("address padding: err = %v", err)
	}

	// Truncated payload.
	ev = updateLog(SystemConfigUpdateGasConfig, updateData(abiWord(1)))
	if err := ProcessSystemConfigUpdateLogEvent(&cfg, ev); !errors.Is(err, ErrSystemConfigData) {
		t.Fatalf("payload size: err = %v", err)
	}
}

func TestUpdateSystemConfigWithReceipts(t *testing.T) {
	var cfg rollup.SystemConfig
	batcher := types.HexToAddress("0x000000000000000000000000000000000000bEEF")

	receipts := []*types.Receipt{
		{
			Status: types.ReceiptStatusFailed,
			Logs:   []*types.Log{updateLog(SystemConfigUpdateGasLimit, updateData(abiWord(0xdead)))},
		},
		{
			Status: types.ReceiptStatusSuccessful,
			Logs: []*types.Log{
				{Address: types.HexToAddress("0x1234"), Topics: []types.Hash{ConfigUpdateEventABIHash}},
				updateLog(SystemConfigUpdateBatcher, updateData(batcher.Word().Bytes())),
				updateLog(SystemConfigUpdateGasLimit, updateData(abiWord(0xbeef))),
			},
		},
	}
	if err := UpdateSystemConfigWithReceipts(&cfg, receipts, testSysCfgAddr); err != nil {
		t.Fatalf("update with receipts: %v", err)
	}
	if cfg.BatcherAddr != batcher {
		t.Fatalf("batcher = %s", cfg.BatcherAddr)
	}
	if cfg.GasLimit != 0xbeef {
		t.Fatalf("gas limit = %d, failed receipt must be skipped", cfg.GasLimit)
	}
}

func TestUpdateSystemConfigAborts(t *testing.T) {
	var cfg rollup.SystemConfig
	batcher := types.HexToAddress("0x000000000000000000000000000000000000bEEF")
	malformed := updateLog(SystemConfigUpdateGasLimit, updateData(abiWord(1), abiWord(2)))

	receipts := []*types.Receipt{{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{
			updateLog(SystemConfigUpdateBatcher, updateData(batcher.Word().Bytes())),
			malformed,
		},
	}}
	err := UpdateSystemConfigWithReceipts(&cfg, receipts, testSysCfgAddr)
	if !errors.Is(err, ErrSystemConfigData) {
		t.Fatalf("err = %v, want ErrSystemConfigData", err)
	}
	// Updates applied before the malformed log stick.
	if cfg.BatcherAddr != batcher {
		t.Fatalf("batcher = %s, earlier update must persist", cfg.BatcherAddr)
	}
}
