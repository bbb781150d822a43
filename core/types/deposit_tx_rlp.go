package types

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/eth2030/mantle-derive/rlp"
	"golang.org/x/crypto/sha3"
)

// ErrTxTypeNotSupported is returned when decoding a typed transaction
// envelope whose type byte is not a deposit.
var ErrTxTypeNotSupported = errors.New("transaction type not supported")

// encodedFieldsSize returns the byte length of the RLP field payload,
// excluding the list header.
func (tx *DepositTx) encodedFieldsSize() int {
	size := rlp.BytesSize(tx.SourceHash[:])
	size += rlp.BytesSize(tx.From[:])
	if tx.To != nil {
		size += rlp.BytesSize(tx.To[:])
	} else {
		size += 1
	}
	size += rlp.BigIntSize(tx.Mint)
	size += rlp.BigIntSize(tx.Value)
	size += rlp.Uint64Size(tx.Gas)
	size += 1 // bool
	size += rlp.BigIntSize(tx.EthValue)
	size += rlp.BytesSize(tx.Data)
	if tx.EthTxValue != nil {
		size += rlp.BigIntSize(tx.EthTxValue)
	}
	return size
}

// encodeFields appends the RLP encoding of the fields to dst, without the
// list header. An absent Mint or EthValue encodes as an empty string; an
// absent EthTxValue is dropped from the tail entirely.
func (tx *DepositTx) encodeFields(dst []byte) []byte {
	dst = rlp.AppendBytes(dst, tx.SourceHash[:])
	dst = rlp.AppendBytes(dst, tx.From[:])
	if tx.To != nil {
		dst = rlp.AppendBytes(dst, tx.To[:])
	} else {
		dst = append(dst, rlp.EmptyStringCode)
	}
	dst = rlp.AppendBigInt(dst, tx.Mint)
	dst = rlp.AppendBigInt(dst, tx.Value)
	dst = rlp.AppendUint64(dst, tx.Gas)
	dst = rlp.AppendBool(dst, tx.IsSystemTransaction)
	dst = rlp.AppendBigInt(dst, tx.EthValue)
	dst = rlp.AppendBytes(dst, tx.Data)
	if tx.EthTxValue != nil {
		dst = rlp.AppendBigInt(dst, tx.EthTxValue)
	}
	return dst
}

// EncodeRLP returns the RLP list encoding of the transaction, without the
// EIP-2718 type byte.
func (tx *DepositTx) EncodeRLP() []byte {
	payload := tx.encodedFieldsSize()
	dst := make([]byte, 0, rlp.ListSize(payload))
	dst = rlp.AppendListHeader(dst, payload)
	return tx.encodeFields(dst)
}

// MarshalBinary returns the canonical EIP-2718 encoding: the type byte
// followed by the RLP list.
func (tx *DepositTx) MarshalBinary() ([]byte, error) {
	payload := tx.encodedFieldsSize()
	dst := make([]byte, 0, 1+rlp.ListSize(payload))
	dst = append(dst, DepositTxType)
	dst = rlp.AppendListHeader(dst, payload)
	return tx.encodeFields(dst), nil
}

// NetworkEncode returns the devp2p network encoding: the EIP-2718 bytes
// wrapped in an RLP string.
func (tx *DepositTx) NetworkEncode() []byte {
	enc, _ := tx.MarshalBinary()
	dst := make([]byte, 0, rlp.StringSize(len(enc)))
	return rlp.AppendBytes(dst, enc)
}

// Hash returns the transaction hash, keccak256 of the EIP-2718 encoding.
func (tx *DepositTx) Hash() Hash {
	enc, _ := tx.MarshalBinary()
	d := sha3.NewLegacyKeccak256()
	d.Write(enc)
	var h Hash
	d.Sum(h[:0])
	return h
}

// DecodeDepositTxRLP decodes an RLP list (without type byte) into a deposit
// transaction. The list payload must be consumed exactly; leftover bytes
// inside the list or after it return rlp.ErrUnexpectedLength.
func DecodeDepositTxRLP(data []byte) (*DepositTx, error) {
	s := rlp.NewStreamFromBytes(data)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	var tx DepositTx

	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	tx.SourceHash = BytesToHash(b)

	if b, err = s.Bytes(); err != nil {
		return nil, err
	}
	tx.From = BytesToAddress(b)

	if b, err = s.Bytes(); err != nil {
		return nil, err
	}
	switch len(b) {
	case 0:
		tx.To = nil
	case AddressLength:
		to := BytesToAddress(b)
		tx.To = &to
	default:
		return nil, fmt.Errorf("rlp: invalid recipient length %d", len(b))
	}

	if tx.Mint, err = decodeOptionalBigInt(s); err != nil {
		return nil, err
	}
	if tx.Value, err = s.BigInt(); err != nil {
		return nil, err
	}
	if tx.Gas, err = s.Uint64(); err != nil {
		return nil, err
	}
	if tx.IsSystemTransaction, err = decodeBool(s); err != nil {
		return nil, err
	}
	if tx.EthValue, err = decodeOptionalBigInt(s); err != nil {
		return nil, err
	}
	if b, err = s.Bytes(); err != nil {
		return nil, err
	}
	tx.Data = bytes.Clone(b)

	// EthTxValue is the optional trailing field. Reaching the end of the
	// list here means the field was omitted.
	if !s.AtListEnd() {
		if tx.EthTxValue, err = decodeOptionalBigInt(s); err != nil {
			return nil, err
		}
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
	return &tx, nil
}

// UnmarshalBinaryDepositTx decodes the canonical EIP-2718 encoding.
func UnmarshalBinaryDepositTx(data []byte) (*DepositTx, error) {
	if len(data) == 0 {
		return nil, rlp.ErrUnexpectedLength
	}
	if data[0] != DepositTxType {
		return nil, ErrTxTypeNotSupported
	}
	return DecodeDepositTxRLP(data[1:])
}

// DecodeNetworkDepositTx decodes the devp2p network encoding, an RLP string
// wrapping the EIP-2718 bytes.
func DecodeNetworkDepositTx(data []byte) (*DepositTx, error) {
	s := rlp.NewStreamFromBytes(data)
	inner, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if s.Remaining() != 0 {
		return nil, rlp.ErrUnexpectedLength
	}
	return UnmarshalBinaryDepositTx(inner)
}

// decodeOptionalBigInt reads an optional numeric field. An empty string
// means the field is absent and decodes to nil.
func decodeOptionalBigInt(s *rlp.Stream) (*big.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	if len(b) > 1 && b[0] == 0 {
		return nil, rlp.ErrCanonInt
	}
	return new(big.Int).SetBytes(b), nil
}

func decodeBool(s *rlp.Stream) (bool, error) {
	b, err := s.Bytes()
	if err != nil {
		return false, err
	}
	switch {
	case len(b) == 0:
		return false, nil
	case len(b) == 1 && b[0] == 1:
		return true, nil
	default:
		return false, rlp.ErrCanonInt
	}
}
