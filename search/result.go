// Copyright (c) 2016-2023 The Decred developers.

package search

import (
	"encoding/binary"
	"fmt"
)

// extractResult reads the found flag and, when it is set, the digest and
// nonce.  sol is written only after every read has succeeded.
func extractResult(queue Queue, bufs *bufferSet, sol *Solution) (Status, error) {
	var flag [foundFlagSize]byte
	if err := queue.ReadBuffer(bufs.found, flag[:]); err != nil {
		str := fmt.Sprintf("could not read found flag: %v", err)
		return StatusError, searchError(ErrReadback, str)
	}

	// The flag and nonce are written by the device in its native byte
	// order, which is little endian for every supported GPU.
	found := int32(binary.LittleEndian.Uint32(flag[:]))
	if Status(found) != StatusFound {
		if found != int32(StatusNotFound) {
			log.Warnf("Unexpected found flag value %d", found)
		}
		return StatusNotFound, nil
	}

	var digest [DigestSize]byte
	if err := queue.ReadBuffer(bufs.digest, digest[:]); err != nil {
		str := fmt.Sprintf("could not read output digest: %v", err)
		return StatusError, searchError(ErrReadback, str)
	}
	var nonce [nonceSize]byte
	if err := queue.ReadBuffer(bufs.outputNonce, nonce[:]); err != nil {
		str := fmt.Sprintf("could not read output nonce: %v", err)
		return StatusError, searchError(ErrReadback, str)
	}

	sol.Digest = digest
	sol.Nonce = binary.LittleEndian.Uint64(nonce[:])
	return StatusFound, nil
}
