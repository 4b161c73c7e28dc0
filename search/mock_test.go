// Copyright (c) 2016-2023 The Decred developers.

package search

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errInjected = errors.New("injected failure")

// bufferLabels names the buffers of a search in allocation order.
var bufferLabels = []string{"input", "found", "digest", "nonce"}

// mockBackend is an in-memory Backend that counts every acquired and released
// handle and fails on demand.  Failure points are keyed by name, for example
// "context", "buffer:found", "arg:3" or "read:digest".
type mockBackend struct {
	platforms    []string
	gpus         int
	maxWorkGroup int
	fail         map[string]bool
	buildLog     string

	// Device-side outcome written by the mock kernel.
	found  int32
	digest [DigestSize]byte
	nonce  uint64

	acquired       int
	released       int
	doubleReleases int
	live           map[string]int

	source       string
	buildOptions string
	args         map[int]interface{}
	buffers      []*mockBuffer
	global       int
	local        int
	finished     bool
	reads        []string

	// events lists writes, argument bindings and releases of the current
	// search in call order, e.g. "write:found", "arg:3", "release:kernel".
	events []string
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		platforms:    []string{"Mock Platform"},
		gpus:         1,
		maxWorkGroup: 256,
		fail:         make(map[string]bool),
		live:         make(map[string]int),
		args:         make(map[int]interface{}),
	}
}

func (m *mockBackend) failing(point string) error {
	if m.fail[point] {
		return fmt.Errorf("%s: %w", point, errInjected)
	}
	return nil
}

func (m *mockBackend) record(event string) {
	m.events = append(m.events, event)
}

func (m *mockBackend) acquire(kind string) mockHandle {
	m.acquired++
	m.live[kind]++
	return mockHandle{m: m, kind: kind}
}

// resetCall clears the state recorded by a previous search.
func (m *mockBackend) resetCall() {
	m.args = make(map[int]interface{})
	m.buffers = nil
	m.reads = nil
	m.events = nil
	m.finished = false
	m.global, m.local = 0, 0
}

// liveHandles returns the number of handles acquired and not yet released.
func (m *mockBackend) liveHandles() int {
	n := 0
	for _, c := range m.live {
		n += c
	}
	return n
}

type mockHandle struct {
	m        *mockBackend
	kind     string
	released bool
}

func (h *mockHandle) Release() {
	if h.released {
		h.m.doubleReleases++
		return
	}
	h.released = true
	h.m.record("release:" + h.kind)
	h.m.released++
	h.m.live[h.kind]--
}

func (m *mockBackend) Platforms() ([]Platform, error) {
	if err := m.failing("platforms"); err != nil {
		return nil, err
	}
	platforms := make([]Platform, 0, len(m.platforms))
	for _, name := range m.platforms {
		platforms = append(platforms, &mockPlatform{m: m, name: name})
	}
	return platforms, nil
}

type mockPlatform struct {
	m    *mockBackend
	name string
}

func (p *mockPlatform) Name() string { return p.name }

func (p *mockPlatform) GPUDevices() ([]Device, error) {
	if err := p.m.failing("devices"); err != nil {
		return nil, err
	}
	devices := make([]Device, 0, p.m.gpus)
	for i := 0; i < p.m.gpus; i++ {
		devices = append(devices, &mockDevice{m: p.m, index: i})
	}
	return devices, nil
}

type mockDevice struct {
	m     *mockBackend
	index int
}

func (d *mockDevice) Name() string {
	return fmt.Sprintf("Mock GPU %d", d.index)
}

func (d *mockDevice) Info() (*DeviceInfo, error) {
	if err := d.m.failing("info"); err != nil {
		return nil, err
	}
	return &DeviceInfo{
		Name:             d.Name(),
		Version:          "OpenCL 3.0 Mock",
		ComputeUnits:     40,
		MaxWorkGroupSize: d.m.maxWorkGroup,
		MaxWorkItemSizes: [3]int{1024, 1024, 64},
		GlobalMemSize:    8 << 30,
	}, nil
}

func (d *mockDevice) MaxWorkGroupSize() (int, error) {
	if err := d.m.failing("maxworkgroup"); err != nil {
		return 0, err
	}
	return d.m.maxWorkGroup, nil
}

func (d *mockDevice) CreateContext() (Context, error) {
	if err := d.m.failing("context"); err != nil {
		return nil, err
	}
	d.m.resetCall()
	return &mockContext{mockHandle: d.m.acquire("context")}, nil
}

type mockContext struct {
	mockHandle
}

func (c *mockContext) CreateQueue() (Queue, error) {
	if err := c.m.failing("queue"); err != nil {
		return nil, err
	}
	return &mockQueue{mockHandle: c.m.acquire("queue")}, nil
}

func (c *mockContext) CreateProgram(source string) (Program, error) {
	if err := c.m.failing("program"); err != nil {
		return nil, err
	}
	c.m.source = source
	return &mockProgram{mockHandle: c.m.acquire("program")}, nil
}

func (c *mockContext) CreateBuffer(mode AccessMode, size int, init []byte) (Buffer, error) {
	label := bufferLabels[len(c.m.buffers)%len(bufferLabels)]
	if err := c.m.failing("buffer:" + label); err != nil {
		return nil, err
	}
	b := &mockBuffer{
		mockHandle: c.m.acquire("buffer"),
		label:      label,
		mode:       mode,
		data:       make([]byte, size),
	}
	copy(b.data, init)
	c.m.buffers = append(c.m.buffers, b)
	return b, nil
}

type mockBuffer struct {
	mockHandle
	label string
	mode  AccessMode
	data  []byte
}

func (b *mockBuffer) Size() int { return len(b.data) }

type mockProgram struct {
	mockHandle
}

func (p *mockProgram) Build(options string) error {
	p.m.buildOptions = options
	return p.m.failing("build")
}

func (p *mockProgram) BuildLog() (string, error) {
	if err := p.m.failing("buildlog"); err != nil {
		return "", err
	}
	return p.m.buildLog, nil
}

func (p *mockProgram) Kernel(name string) (Kernel, error) {
	if name != EntryPoint {
		return nil, fmt.Errorf("no kernel named %q", name)
	}
	if err := p.m.failing("kernel"); err != nil {
		return nil, err
	}
	return &mockKernel{mockHandle: p.m.acquire("kernel")}, nil
}

type mockKernel struct {
	mockHandle
}

func (k *mockKernel) SetArg(index int, value interface{}) error {
	k.m.record(fmt.Sprintf("arg:%d", index))
	if err := k.m.failing(fmt.Sprintf("arg:%d", index)); err != nil {
		return err
	}
	k.m.args[index] = value
	return nil
}

type mockQueue struct {
	mockHandle
}

func (q *mockQueue) WriteBuffer(b Buffer, src []byte) error {
	q.m.record("write:" + b.(*mockBuffer).label)
	if err := q.m.failing("write"); err != nil {
		return err
	}
	copy(b.(*mockBuffer).data, src)
	return nil
}

func (q *mockQueue) ReadBuffer(b Buffer, dst []byte) error {
	mb := b.(*mockBuffer)
	if err := q.m.failing("read:" + mb.label); err != nil {
		return err
	}
	if !q.m.finished {
		return errors.New("read before finish")
	}
	q.m.reads = append(q.m.reads, mb.label)
	copy(dst, mb.data)
	return nil
}

// EnqueueKernel plays the part of the search kernel: when the mock is set to
// find a solution it writes the flag, digest and nonce into the bound output
// buffers.
func (q *mockQueue) EnqueueKernel(k Kernel, global, local int) error {
	if err := q.m.failing("dispatch"); err != nil {
		return err
	}
	q.m.global, q.m.local = global, local

	found := q.m.args[6].(*mockBuffer)
	binary.LittleEndian.PutUint32(found.data, uint32(q.m.found))
	if q.m.found == int32(StatusFound) {
		copy(q.m.args[7].(*mockBuffer).data, q.m.digest[:])
		binary.LittleEndian.PutUint64(q.m.args[8].(*mockBuffer).data,
			q.m.nonce)
	}
	return nil
}

func (q *mockQueue) Finish() error {
	if err := q.m.failing("finish"); err != nil {
		return err
	}
	q.m.finished = true
	return nil
}
