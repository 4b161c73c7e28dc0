// Copyright (c) 2016-2023 The Decred developers.

// Package work builds the hash input of a search and evaluates candidate
// nonces on the host.
//
// The hash input is the XDR encoding of the block number, the nonce, the
// 32-byte entropy hash of the previous block and the miner's 32-byte account
// key, in that order.  Digests are legacy Keccak-256.
package work

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/stellar/go/strkey"
	"golang.org/x/crypto/sha3"
)

const (
	// NonceOffset is the byte offset of the nonce within the hash input.
	NonceOffset = 4

	// NonceSize is the width of the encoded nonce.
	NonceSize = 8

	// HashSize is the size of the entropy hash and of a digest.
	HashSize = 32

	// KeySize is the size of a miner account key.
	KeySize = 32

	// DataSize is the size of the hash input.
	DataSize = NonceOffset + NonceSize + HashSize + KeySize

	// MaxDifficulty is the number of hex digits of a digest.  A job at
	// this difficulty can never be satisfied.
	MaxDifficulty = 2 * HashSize

	// accountIDLength is the length of a strkey-encoded account id.
	accountIDLength = 56
)

// ErrInvalidAddress indicates a miner address is not an account id.
var ErrInvalidAddress = errors.New("invalid miner address")

// Template is the fixed part of a search: everything in the hash input but
// the nonce.
type Template struct {
	Block   uint32
	Entropy [HashSize]byte
	Miner   [KeySize]byte
}

// NewTemplate decodes the base64 entropy hash and the miner account id of a
// block.
func NewTemplate(block uint32, entropy, miner string) (*Template, error) {
	t := &Template{Block: block}

	hash, err := base64.StdEncoding.DecodeString(entropy)
	if err != nil {
		return nil, fmt.Errorf("invalid entropy hash %q: %w", entropy, err)
	}
	if len(hash) != HashSize {
		return nil, fmt.Errorf("entropy hash is %d bytes, want %d",
			len(hash), HashSize)
	}
	copy(t.Entropy[:], hash)

	key, err := DecodeAddress(miner)
	if err != nil {
		return nil, err
	}
	t.Miner = key

	return t, nil
}

// DecodeAddress returns the account key of a strkey-encoded account id such
// as GAAZI4TCR3TY5OJHCTJC2A4QSY6CJWJH5IAJTGKIN2ER7LBNVKOCCWN7.  Ids with a
// different version byte or a bad checksum are rejected.
func DecodeAddress(address string) ([KeySize]byte, error) {
	var key [KeySize]byte
	if len(address) != accountIDLength {
		return key, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	raw, err := strkey.Decode(strkey.VersionByteAccountID, address)
	if err != nil {
		return key, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, address, err)
	}
	if len(raw) != KeySize {
		return key, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress,
			address, len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// Data returns the hash input for nonce.
func (t *Template) Data(nonce uint64) []byte {
	data := make([]byte, DataSize)
	binary.BigEndian.PutUint32(data, t.Block)
	PutNonce(data, nonce)
	copy(data[NonceOffset+NonceSize:], t.Entropy[:])
	copy(data[NonceOffset+NonceSize+HashSize:], t.Miner[:])
	return data
}

// PutNonce encodes nonce into the nonce field of data.
func PutNonce(data []byte, nonce uint64) {
	binary.BigEndian.PutUint64(data[NonceOffset:], nonce)
}

// Hash returns the Keccak-256 digest of data.
func Hash(data []byte) [HashSize]byte {
	var digest [HashSize]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	h.Sum(digest[:0])
	return digest
}

// LeadingZeros returns the number of leading zero hex digits of digest.
func LeadingZeros(digest []byte) int {
	zeros := 0
	for _, b := range digest {
		if b != 0 {
			if b>>4 == 0 {
				zeros++
			}
			break
		}
		zeros += 2
	}
	return zeros
}

// Check reports whether digest has at least difficulty leading zero hex
// digits.
func Check(digest []byte, difficulty int) bool {
	return LeadingZeros(digest) >= difficulty
}
