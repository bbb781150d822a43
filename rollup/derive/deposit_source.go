// Package derive implements the L1 to L2 derivation codecs: deposit source
// hashes, deposit log decoding, the L1 attributes transaction, system config
// reconstruction and the batch wire format.
package derive

import (
	"encoding/binary"

	"github.com/eth2030/mantle-derive/core/types"
	"github.com/eth2030/mantle-derive/crypto"
)

// Deposit source domains. The domain is hashed into the source hash so the
// three kinds of deposits can never collide.
const (
	UserDepositSourceDomain    uint64 = 0
	L1InfoDepositSourceDomain  uint64 = 1
	UpgradeDepositSourceDomain uint64 = 2
)

// UserDepositSource identifies a user deposit by the L1 block and the index
// of the TransactionDeposited log within it.
type UserDepositSource struct {
	L1BlockHash types.Hash
	LogIndex    uint64
}

// SourceHash returns the deposit source hash.
func (s *UserDepositSource) SourceHash() types.Hash {
	var input [64]byte
	copy(input[:32], s.L1BlockHash[:])
	binary.BigEndian.PutUint64(input[56:64], s.LogIndex)
	return marshalDepositSource(UserDepositSourceDomain, crypto.Keccak256Hash(input[:]))
}

// L1InfoDepositSource identifies the L1 attributes deposit of an L2 block by
// the L1 block and the sequence number within the epoch.
type L1InfoDepositSource struct {
	L1BlockHash types.Hash
	SeqNumber   uint64
}

// SourceHash returns the deposit source hash.
func (s *L1InfoDepositSource) SourceHash() types.Hash {
	var input [64]byte
	copy(input[:32], s.L1BlockHash[:])
	binary.BigEndian.PutUint64(input[56:64], s.SeqNumber)
	return marshalDepositSource(L1InfoDepositSourceDomain, crypto.Keccak256Hash(input[:]))
}

// UpgradeDepositSource identifies a network-upgrade deposit by a human
// readable intent string.
type UpgradeDepositSource struct {
	Intent string
}

// SourceHash returns the deposit source hash.
func (s *UpgradeDepositSource) SourceHash() types.Hash {
	return marshalDepositSource(UpgradeDepositSourceDomain, crypto.Keccak256Hash([]byte(s.Intent)))
}

// marshalDepositSource binds the domain to the inner identity hash:
// keccak256(domain as a 32-byte big-endian word, inner hash).
func marshalDepositSource(domain uint64, inner types.Hash) types.Hash {
	var input [64]byte
	binary.BigEndian.PutUint64(input[24:32], domain)
	copy(input[32:], inner[:])
	return crypto.Keccak256Hash(input[:])
}
