// Copyright (c) 2016-2023 The Decred developers.

package work

import (
	"context"
	"sync/atomic"
)

// hashReportInterval is the number of hashes between updates of the shared
// hash counter.
const hashReportInterval = 5000

// Result is a nonce and the digest it produces.
type Result struct {
	Digest [HashSize]byte
	Nonce  uint64
}

// Search hashes batchSize nonces starting at start on the host and returns
// the first one meeting difficulty.  It adds the number of hashes computed to
// hashes, when non-nil, and returns early when ctx is done.
func (t *Template) Search(ctx context.Context, start, batchSize uint64,
	difficulty int, hashes *atomic.Uint64) (*Result, bool) {

	data := t.Data(start)
	pending := uint64(0)
	defer func() {
		if hashes != nil {
			hashes.Add(pending)
		}
	}()

	for i := uint64(0); i < batchSize; i++ {
		nonce := start + i
		PutNonce(data, nonce)
		digest := Hash(data)
		pending++
		if Check(digest[:], difficulty) {
			return &Result{Digest: digest, Nonce: nonce}, true
		}

		if pending == hashReportInterval {
			if hashes != nil {
				hashes.Add(pending)
			}
			pending = 0
			select {
			case <-ctx.Done():
				return nil, false
			default:
			}
		}
	}
	return nil, false
}

// Verify recomputes the digest of nonce and reports whether it matches digest
// and meets difficulty.
func (t *Template) Verify(nonce uint64, digest [HashSize]byte, difficulty int) bool {
	got := Hash(t.Data(nonce))
	return got == digest && Check(got[:], difficulty)
}
