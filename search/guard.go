// Copyright (c) 2016-2023 The Decred developers.

package search

// guard owns every device object acquired during one search.  Fields are set
// as soon as the corresponding handle is acquired, so release always sees
// exactly the acquired subset.
type guard struct {
	context Context
	queue   Queue
	program Program
	kernel  Kernel
	buffers *bufferSet
}

// release frees the acquired handles in reverse dependency order: buffers,
// kernel, program, queue, context.  Each handle is cleared once released so
// calling release again is a no-op.
func (g *guard) release() {
	if g.buffers != nil {
		g.buffers.release()
		g.buffers = nil
	}
	if g.kernel != nil {
		g.kernel.Release()
		g.kernel = nil
	}
	if g.program != nil {
		g.program.Release()
		g.program = nil
	}
	if g.queue != nil {
		g.queue.Release()
		g.queue = nil
	}
	if g.context != nil {
		g.context.Release()
		g.context = nil
	}
	log.Tracef("Released search resources")
}
