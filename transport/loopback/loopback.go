// Package loopback links two in-process transport endpoints back to back.
//
// Each endpoint owns a fixed pool of transmit buffers, sized at
// construction. Tx hands the buffer to the peer's registered callback in
// the caller's goroutine; the receiver releases it back to the owner's
// pool. Pool exhaustion is observable as a no_buffer error from AcquireBuf,
// so buffer-ownership bugs show up as leaks in tests instead of silent
// reuse.
package loopback

import (
	"sync"

	"ipcfshm-go/errcode"
	"ipcfshm-go/types"
)

type rxKey struct {
	inst types.InstanceID
	ch   types.ChannelID
}

type rxReg struct {
	fn  types.RxFunc
	arg any
}

type Endpoint struct {
	name string
	peer *Endpoint

	// owned is the identity set of this endpoint's slabs. It is written
	// only during construction and read-only afterwards.
	owned map[*byte]bool

	mu     sync.Mutex
	rx     map[rxKey]rxReg
	free   [][]byte
	inPool map[*byte]bool
}

// NewPair builds two linked endpoints, each owning bufs transmit buffers of
// bufLen bytes.
func NewPair(bufLen, bufs int) (*Endpoint, *Endpoint) {
	if bufLen < 1 || bufs < 1 {
		panic("loopback: bufLen and bufs must be positive")
	}
	a := newEndpoint("A", bufLen, bufs)
	b := newEndpoint("B", bufLen, bufs)
	a.peer, b.peer = b, a
	return a, b
}

func newEndpoint(name string, bufLen, bufs int) *Endpoint {
	e := &Endpoint{
		name:   name,
		owned:  make(map[*byte]bool, bufs),
		rx:     make(map[rxKey]rxReg),
		free:   make([][]byte, 0, bufs),
		inPool: make(map[*byte]bool, bufs),
	}
	for i := 0; i < bufs; i++ {
		slab := make([]byte, bufLen)
		e.owned[slabID(slab)] = true
		e.inPool[slabID(slab)] = true
		e.free = append(e.free, slab)
	}
	return e
}

// slabID identifies a slab by the address of its first element. Works for
// zero-length views because slab capacity is never zero.
func slabID(buf []byte) *byte {
	return &buf[:1][0]
}

// RegisterRx installs the inbound callback for one channel. Registering the
// same channel twice is a wiring bug and fails.
func (e *Endpoint) RegisterRx(inst types.InstanceID, ch types.ChannelID, fn types.RxFunc, arg any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := rxKey{inst, ch}
	if _, dup := e.rx[k]; dup {
		return &errcode.E{C: errcode.Transfer, Op: "loopback.RegisterRx",
			Msg: e.name + ": channel already registered"}
	}
	e.rx[k] = rxReg{fn: fn, arg: arg}
	return nil
}

// AcquireBuf takes a free buffer from this endpoint's pool, sliced to size.
func (e *Endpoint) AcquireBuf(inst types.InstanceID, ch types.ChannelID, size int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.free) == 0 {
		return nil, errcode.NoBuffer
	}
	slab := e.free[len(e.free)-1]
	if size < 0 || size > len(slab) {
		return nil, errcode.Oversize
	}
	e.free = e.free[:len(e.free)-1]
	e.inPool[slabID(slab)] = false
	return slab[:size], nil
}

// Tx delivers buf[:size] to the peer's callback for (inst, ch),
// synchronously in the caller's goroutine. Ownership of the buffer moves to
// the receiver, which must release it.
func (e *Endpoint) Tx(inst types.InstanceID, ch types.ChannelID, buf []byte, size int) error {
	if size < 0 || size > len(buf) {
		return &errcode.E{C: errcode.TxFailed, Op: "loopback.Tx",
			Msg: e.name + ": size out of range"}
	}
	e.peer.mu.Lock()
	reg, ok := e.peer.rx[rxKey{inst, ch}]
	e.peer.mu.Unlock()
	if !ok {
		return &errcode.E{C: errcode.TxFailed, Op: "loopback.Tx",
			Msg: e.name + ": peer has no receiver for channel"}
	}
	reg.fn(reg.arg, inst, ch, buf[:size])
	return nil
}

// ReleaseBuf returns a buffer to the pool of whichever endpoint owns it.
// Releasing a buffer that is already free reports transfer, the closest the
// contract has to a double-release signal.
func (e *Endpoint) ReleaseBuf(inst types.InstanceID, ch types.ChannelID, buf []byte) error {
	if cap(buf) == 0 {
		return &errcode.E{C: errcode.Transfer, Op: "loopback.ReleaseBuf",
			Msg: e.name + ": buffer not from this link"}
	}
	id := slabID(buf)
	owner := e
	if !owner.owned[id] {
		owner = e.peer
		if !owner.owned[id] {
			return &errcode.E{C: errcode.Transfer, Op: "loopback.ReleaseBuf",
				Msg: e.name + ": buffer not from this link"}
		}
	}
	owner.mu.Lock()
	defer owner.mu.Unlock()
	if owner.inPool[id] {
		return &errcode.E{C: errcode.Transfer, Op: "loopback.ReleaseBuf",
			Msg: owner.name + ": double release"}
	}
	owner.inPool[id] = true
	owner.free = append(owner.free, buf[:cap(buf)])
	return nil
}

// FreeBufs reports how many transmit buffers this endpoint has available.
func (e *Endpoint) FreeBufs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.free)
}
