// append.go provides reflection-free helpers for building RLP payloads
// incrementally and for computing encoded sizes ahead of allocation. The
// hand-written transaction and receipt codecs use these instead of the
// general reflection encoder.
package rlp

import (
	"encoding/binary"
	"math/big"
)

// EmptyStringCode is the RLP encoding of the empty string. Optional numeric
// fields that are absent but not trailing encode as this single byte.
const EmptyStringCode = 0x80

// AppendUint64 appends the RLP encoding of a uint64 to dst and returns
// the extended slice.
func AppendUint64(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, EmptyStringCode)
	}
	if v < 128 {
		return append(dst, byte(v))
	}
	b := putUintBE(v)
	dst = append(dst, 0x80+byte(len(b)))
	return append(dst, b...)
}

// AppendBigInt appends the RLP encoding of a non-negative big integer to dst.
func AppendBigInt(dst []byte, v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return append(dst, EmptyStringCode)
	}
	return AppendBytes(dst, v.Bytes())
}

// AppendBytes appends the RLP string encoding of a byte slice to dst.
func AppendBytes(dst, data []byte) []byte {
	n := len(data)
	if n == 1 && data[0] <= 0x7f {
		return append(dst, data[0])
	}
	if n <= 55 {
		dst = append(dst, 0x80+byte(n))
		return append(dst, data...)
	}
	lb := putUintBE(uint64(n))
	dst = append(dst, 0xb7+byte(len(lb)))
	dst = append(dst, lb...)
	return append(dst, data...)
}

// AppendBool appends the RLP encoding of a boolean to dst.
func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 0x01)
	}
	return append(dst, EmptyStringCode)
}

// AppendListHeader appends an RLP list header for a payload of the given
// size to dst. The caller must append exactly payloadSize bytes of encoded
// list items afterward.
func AppendListHeader(dst []byte, payloadSize int) []byte {
	if payloadSize <= 55 {
		return append(dst, 0xc0+byte(payloadSize))
	}
	lb := putUintBE(uint64(payloadSize))
	dst = append(dst, 0xf7+byte(len(lb)))
	return append(dst, lb...)
}

// Uint64Size returns the exact encoded size of a uint64.
func Uint64Size(v uint64) int {
	if v < 128 {
		return 1
	}
	return 1 + uintByteLen(v)
}

// BigIntSize returns the exact encoded size of a non-negative big integer.
func BigIntSize(v *big.Int) int {
	if v == nil || v.Sign() == 0 {
		return 1
	}
	return BytesSize(v.Bytes())
}

// BytesSize returns the exact encoded size of a byte string.
func BytesSize(data []byte) int {
	n := len(data)
	if n == 1 && data[0] <= 0x7f {
		return 1
	}
	if n <= 55 {
		return 1 + n
	}
	return 1 + uintByteLen(uint64(n)) + n
}

// ListSize returns the total encoded size of a list with the given
// payload size, including the list header.
func ListSize(payloadSize int) int {
	if payloadSize <= 55 {
		return 1 + payloadSize
	}
	return 1 + uintByteLen(uint64(payloadSize)) + payloadSize
}

// StringSize returns the total encoded size of a string wrapper around a
// payload of the given size, including the string header. The payload is
// assumed to be longer than one byte.
func StringSize(payloadSize int) int {
	if payloadSize <= 55 {
		return 1 + payloadSize
	}
	return 1 + uintByteLen(uint64(payloadSize)) + payloadSize
}

// putUintBE encodes u as big-endian with no leading zeros.
func putUintBE(u uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], u)
	for i := 0; i < 8; i++ {
		if buf[i] != 0 {
			return buf[i:]
		}
	}
	return buf[7:]
}

// uintByteLen returns the number of bytes needed to encode u in big-endian.
func uintByteLen(u uint64) int {
	switch {
	case u < (1 << 8):
		return 1
	case u < (1 << 16):
		return 2
	case u < (1 << 24):
		return 3
	case u < (1 << 32):
		return 4
	case u < (1 << 40):
		return 5
	case u < (1 << 48):
		return 6
	case u < (1 << 56):
		return 7
	default:
		return 8
	}
}
