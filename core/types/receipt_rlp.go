package types

import (
	"bytes"
	"math/big"

	"github.com/eth2030/mantle-derive/rlp"
)

// Base consensus fields [Status, CumulativeGasUsed, Bloom, Logs] followed by
// each variant's positional optional tail. A present tail field encodes as a
// plain value; an absent one is dropped from the list. Decoding reads tail
// fields in order until the receipt's own payload is exhausted, so a present
// field implies all fields before it are present too.

func baseFieldsSize(r *Receipt, bloom *Bloom) int {
	size := rlp.Uint64Size(r.Status)
	size += rlp.Uint64Size(r.CumulativeGasUsed)
	size += rlp.BytesSize(bloom[:])
	size += rlp.ListSize(logsPayloadSize(r.Logs))
	return size
}

func appendBaseFields(dst []byte, r *Receipt, bloom *Bloom) []byte {
	dst = rlp.AppendUint64(dst, r.Status)
	dst = rlp.AppendUint64(dst, r.CumulativeGasUsed)
	dst = rlp.AppendBytes(dst, bloom[:])
	dst = rlp.AppendListHeader(dst, logsPayloadSize(r.Logs))
	for _, log := range r.Logs {
		dst = appendLog(dst, log)
	}
	return dst
}

func logsPayloadSize(logs []*Log) int {
	size := 0
	for _, log := range logs {
		size += rlp.ListSize(logFieldsSize(log))
	}
	return size
}

// logFieldsSize returns the payload size of a log [Address, Topics, Data].
func logFieldsSize(l *Log) int {
	size := rlp.BytesSize(l.Address[:])
	size += rlp.ListSize(33 * len(l.Topics))
	size += rlp.BytesSize(l.Data)
	return size
}

func appendLog(dst []byte, l *Log) []byte {
	dst = rlp.AppendListHeader(dst, logFieldsSize(l))
	dst = rlp.AppendBytes(dst, l.Address[:])
	dst = rlp.AppendListHeader(dst, 33*len(l.Topics))
	for _, topic := range l.Topics {
		dst = rlp.AppendBytes(dst, topic[:])
	}
	return rlp.AppendBytes(dst, l.Data)
}

// optionalBigIntSize returns the encoded size of a present tail field, or 0.
func optionalBigIntSize(v *big.Int) int {
	if v == nil {
		return 0
	}
	return rlp.BigIntSize(v)
}

func appendOptionalBigInt(dst []byte, v *big.Int) []byte {
	if v == nil {
		return dst
	}
	return rlp.AppendBigInt(dst, v)
}

// EncodedLengthWithBloom returns the exact encoded size of the receipt.
func (r *MantleReceipt) EncodedLengthWithBloom() int {
	return rlp.ListSize(r.payloadSize())
}

func (r *MantleReceipt) payloadSize() int {
	size := baseFieldsSize(&r.Receipt, &r.Bloom)
	size += optionalBigIntSize(r.L1GasPrice)
	size += optionalBigIntSize(r.L1GasUsed)
	size += optionalBigIntSize(r.L1Fee)
	size += optionalBigIntSize(r.TokenRatio)
	return size
}

// EncodeRLPWithBloom returns the RLP encoding of the receipt, bloom included.
func (r *MantleReceipt) EncodeRLPWithBloom() []byte {
	payload := r.payloadSize()
	dst := make([]byte, 0, rlp.ListSize(payload))
	dst = rlp.AppendListHeader(dst, payload)
	dst = appendBaseFields(dst, &r.Receipt, &r.Bloom)
	dst = appendOptionalBigInt(dst, r.L1GasPrice)
	dst = appendOptionalBigInt(dst, r.L1GasUsed)
	dst = appendOptionalBigInt(dst, r.L1Fee)
	return appendOptionalBigInt(dst, r.TokenRatio)
}

// DecodeMantleReceiptRLP decodes a post-Bedrock receipt.
func DecodeMantleReceiptRLP(data []byte) (*MantleReceipt, error) {
	s := rlp.NewStreamFromBytes(data)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	r := &MantleReceipt{}
	if err := decodeBaseFields(s, &r.Receipt, &r.Bloom); err != nil {
		return nil, err
	}
	tail := []**big.Int{&r.L1GasPrice, &r.L1GasUsed, &r.L1Fee, &r.TokenRatio}
	if err := decodeOptionalTail(s, tail); err != nil {
		return nil, err
	}
	return r, finishReceipt(s)
}

// EncodedLengthWithBloom returns the exact encoded size of the receipt.
func (r *MantleLegacyReceipt) EncodedLengthWithBloom() int {
	return rlp.ListSize(r.payloadSize())
}

func (r *MantleLegacyReceipt) payloadSize() int {
	size := baseFieldsSize(&r.Receipt, &r.Bloom)
	size += optionalBigIntSize(r.L1BaseFee)
	size += optionalBigIntSize(r.Overhead)
	size += optionalBigIntSize(r.Scalar)
	size += optionalBigIntSize(r.TokenRatio)
	return size
}

// EncodeRLPWithBloom returns the RLP encoding of the receipt, bloom included.
func (r *MantleLegacyReceipt) EncodeRLPWithBloom() []byte {
	payload := r.payloadSize()
	dst := make([]byte, 0, rlp.ListSize(payload))
	dst = rlp.AppendListHeader(dst, payload)
	dst = appendBaseFields(dst, &r.Receipt, &r.Bloom)
	dst = appendOptionalBigInt(dst, r.L1BaseFee)
	dst = appendOptionalBigInt(dst, r.Overhead)
	dst = appendOptionalBigInt(dst, r.Scalar)
	return appendOptionalBigInt(dst, r.TokenRatio)
}

// DecodeMantleLegacyReceiptRLP decodes a pre-Bedrock receipt.
func DecodeMantleLegacyReceiptRLP(data []byte) (*MantleLegacyReceipt, error) {
	s := rlp.NewStreamFromBytes(data)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	r := &MantleLegacyReceipt{}
	if err := decodeBaseFields(s, &r.Receipt, &r.Bloom); err != nil {
		return nil, err
	}
	tail := []**big.Int{&r.L1BaseFee, &r.Overhead, &r.Scalar, &r.TokenRatio}
	if err := decodeOptionalTail(s, tail); err != nil {
		return nil, err
	}
	return r, finishReceipt(s)
}

// EncodedLengthWithBloom returns the exact encoded size of the receipt.
func (r *MantleDepositReceipt) EncodedLengthWithBloom() int {
	return rlp.ListSize(r.payloadSize())
}

func (r *MantleDepositReceipt) payloadSize() int {
	size := baseFieldsSize(&r.Receipt, &r.Bloom)
	if r.DepositNonce != nil {
		size += rlp.Uint64Size(*r.DepositNonce)
	}
	if r.DepositReceiptVersion != nil {
		size += rlp.Uint64Size(*r.DepositReceiptVersion)
	}
	size += optionalBigIntSize(r.L1GasPrice)
	size += optionalBigIntSize(r.L1GasUsed)
	size += optionalBigIntSize(r.L1Fee)
	size += optionalBigIntSize(r.TokenRatio)
	return size
}

// EncodeRLPWithBloom returns the RLP encoding of the receipt, bloom included.
func (r *MantleDepositReceipt) EncodeRLPWithBloom() []byte {
	payload := r.payloadSize()
	dst := make([]byte, 0, rlp.ListSize(payload))
	dst = rlp.AppendListHeader(dst, payload)
	dst = appendBaseFields(dst, &r.Receipt, &r.Bloom)
	if r.DepositNonce != nil {
		dst = rlp.AppendUint64(dst, *r.DepositNonce)
	}
	if r.DepositReceiptVersion != nil {
		dst = rlp.AppendUint64(dst, *r.DepositReceiptVersion)
	}
	dst = appendOptionalBigInt(dst, r.L1GasPrice)
	dst = appendOptionalBigInt(dst, r.L1GasUsed)
	dst = appendOptionalBigInt(dst, r.L1Fee)
	return appendOptionalBigInt(dst, r.TokenRatio)
}

// DecodeMantleDepositReceiptRLP decodes a deposit transaction receipt.
func DecodeMantleDepositReceiptRLP(data []byte) (*MantleDepositReceipt, error) {
	s := rlp.NewStreamFromBytes(data)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	r := &MantleDepositReceipt{}
	if err := decodeBaseFields(s, &r.Receipt, &r.Bloom); err != nil {
		return nil, err
	}
	if !s.AtListEnd() {
		nonce, err := s.Uint64()
		if err != nil {
			return nil, err
		}
		r.DepositNonce = &nonce
	}
	if !s.AtListEnd() {
		version, err := s.Uint64()
		if err != nil {
			return nil, err
		}
		r.DepositReceiptVersion = &version
	}
	tail := []**big.Int{&r.L1GasPrice, &r.L1GasUsed, &r.L1Fee, &r.TokenRatio}
	if err := decodeOptionalTail(s, tail); err != nil {
		return nil, err
	}
	return r, finishReceipt(s)
}

func decodeBaseFields(s *rlp.Stream, r *Receipt, bloom *Bloom) error {
	var err error
	if r.Status, err = s.Uint64(); err != nil {
		return err
	}
	if r.CumulativeGasUsed, err = s.Uint64(); err != nil {
		return err
	}
	if err := decodeBloomField(s, bloom); err != nil {
		return err
	}
	if _, err := s.List(); err != nil {
		return err
	}
	for !s.AtListEnd() {
		log, err := decodeLogEntry(s)
		if err != nil {
			return err
		}
		r.Logs = append(r.Logs, log)
	}
	return s.ListEnd()
}

// decodeOptionalTail reads trailing optional fields in order until the
// receipt payload runs out.
func decodeOptionalTail(s *rlp.Stream, fields []**big.Int) error {
	for _, field := range fields {
		if s.AtListEnd() {
			return nil
		}
		v, err := s.BigInt()
		if err != nil {
			return err
		}
		*field = v
	}
	return nil
}

// finishReceipt verifies the receipt payload was consumed exactly.
func finishReceipt(s *rlp.Stream) error {
	if !s.AtListEnd() {
		return rlp.ErrUnexpectedLength
	}
	if err := s.ListEnd(); err != nil {
		return err
	}
	if s.Remaining() != 0 {
		return rlp.ErrUnexpectedLength
	}
	return nil
}

// decodeLogEntry decodes a single [Address, Topics, Data] log.
func decodeLogEntry(s *rlp.Stream) (*Log, error) {
	if _, err := s.List(); err != nil {
		return nil, err
	}
	l := &Log{}
	if err := decodeAddressField(s, &l.Address); err != nil {
		return nil, err
	}
	if _, err := s.List(); err != nil {
		return nil, err
	}
	for !s.AtListEnd() {
		var topic Hash
		if err := decodeHashField(s, &topic); err != nil {
			return nil, err
		}
		l.Topics = append(l.Topics, topic)
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	l.Data = bytes.Clone(b)
	return l, s.ListEnd()
}

// decodeHashField reads an RLP string into a Hash.
func decodeHashField(s *rlp.Stream, h *Hash) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	h.SetBytes(b)
	return nil
}

// decodeAddressField reads an RLP string into an Address.
func decodeAddressField(s *rlp.Stream, a *Address) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	a.SetBytes(b)
	return nil
}

// decodeBloomField reads an RLP string into a Bloom.
func decodeBloomField(s *rlp.Stream, bl *Bloom) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	if len(b) > BloomLength {
		b = b[len(b)-BloomLength:]
	}
	copy(bl[BloomLength-len(b):], b)
	return nil
}
