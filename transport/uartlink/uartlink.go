// Package uartlink carries the transport contract over a byte-stream UART.
//
// Outbound messages are framed (see transport/frame) and written to the
// port inside Tx, after which the transmit buffer goes straight back to the
// pool. Inbound bytes are decoded by a reactor goroutine; each complete
// frame is handed to the callback registered for its channel and the
// payload view is valid only until the callback returns, which the release
// discipline of the contract already guarantees.
package uartlink

import (
	"context"
	"sync"
	"time"

	"ipcfshm-go/errcode"
	"ipcfshm-go/transport/frame"
	"ipcfshm-go/types"
	"ipcfshm-go/x/logx"
)

// Port is the slice of a UART the link needs. *uartx.UART satisfies it on
// rp2 targets.
type Port interface {
	Write(p []byte) (int, error)
	Readable() <-chan struct{}
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

type Config struct {
	// BufLen is the largest message payload carried in one frame.
	BufLen int
	// Bufs is the transmit pool depth.
	Bufs int
	// ReadChunk sizes the reactor's receive scratch. Defaults to 256.
	ReadChunk int
}

type rxKey struct {
	inst types.InstanceID
	ch   types.ChannelID
}

type rxReg struct {
	fn  types.RxFunc
	arg any
}

type Link struct {
	port Port
	cfg  Config

	mu     sync.Mutex
	rx     map[rxKey]rxReg
	free   [][]byte
	inPool map[*byte]bool
	wire   []byte // tx frame scratch, guarded by mu

	unroutable uint32
}

func New(port Port, cfg Config) (*Link, error) {
	if cfg.BufLen < 1 || cfg.BufLen > frame.MaxPayload || cfg.Bufs < 1 {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "uartlink.New",
			Msg: "buffer geometry out of range"}
	}
	if cfg.ReadChunk <= 0 {
		cfg.ReadChunk = 256
	}
	l := &Link{
		port:   port,
		cfg:    cfg,
		rx:     make(map[rxKey]rxReg),
		free:   make([][]byte, 0, cfg.Bufs),
		inPool: make(map[*byte]bool, cfg.Bufs),
		wire:   make([]byte, 0, frame.HeaderLen+cfg.BufLen),
	}
	for i := 0; i < cfg.Bufs; i++ {
		slab := make([]byte, cfg.BufLen)
		l.inPool[&slab[0]] = true
		l.free = append(l.free, slab)
	}
	return l, nil
}

// Run decodes inbound frames until ctx is cancelled. Callbacks run on this
// goroutine, so the non-blocking rule of the contract keeps the link
// draining.
func (l *Link) Run(ctx context.Context) error {
	dec := frame.NewDecoder(l.onFrame)
	buf := make([]byte, l.cfg.ReadChunk)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.port.Readable():
			// Bound the blocking read to assist shutdown.
			rctx, rcancel := context.WithTimeout(ctx, 250*time.Millisecond)
			n, _ := l.port.RecvSomeContext(rctx, buf)
			rcancel()
			if n > 0 {
				dec.Feed(buf[:n])
			}
		}
	}
}

func (l *Link) onFrame(inst types.InstanceID, ch types.ChannelID, payload []byte) {
	l.mu.Lock()
	reg, ok := l.rx[rxKey{inst, ch}]
	l.mu.Unlock()
	if !ok {
		l.unroutable++
		logx.Warnf("uartlink: frame for unregistered channel %d/%d, dropped", int(inst), int(ch))
		return
	}
	reg.fn(reg.arg, inst, ch, payload)
}

func (l *Link) RegisterRx(inst types.InstanceID, ch types.ChannelID, fn types.RxFunc, arg any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := rxKey{inst, ch}
	if _, dup := l.rx[k]; dup {
		return &errcode.E{C: errcode.Transfer, Op: "uartlink.RegisterRx",
			Msg: "channel already registered"}
	}
	l.rx[k] = rxReg{fn: fn, arg: arg}
	return nil
}

func (l *Link) AcquireBuf(inst types.InstanceID, ch types.ChannelID, size int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.free) == 0 {
		return nil, errcode.NoBuffer
	}
	slab := l.free[len(l.free)-1]
	if size < 0 || size > len(slab) {
		return nil, errcode.Oversize
	}
	l.free = l.free[:len(l.free)-1]
	l.inPool[&slab[0]] = false
	return slab[:size], nil
}

// Tx frames buf[:size] onto the wire. The write is synchronous, so the
// buffer is done the moment it returns and goes back to the pool here; a
// failed write leaves ownership with the caller per the contract.
func (l *Link) Tx(inst types.InstanceID, ch types.ChannelID, buf []byte, size int) error {
	if size < 0 || size > len(buf) {
		return &errcode.E{C: errcode.TxFailed, Op: "uartlink.Tx", Msg: "size out of range"}
	}
	l.mu.Lock()
	wire, ok := frame.AppendFrame(l.wire[:0], inst, ch, buf[:size])
	if !ok {
		l.mu.Unlock()
		return &errcode.E{C: errcode.Oversize, Op: "uartlink.Tx", Msg: "payload unframeable"}
	}
	_, err := l.port.Write(wire)
	l.mu.Unlock()
	if err != nil {
		return &errcode.E{C: errcode.TxFailed, Op: "uartlink.Tx", Err: err}
	}
	return l.ReleaseBuf(inst, ch, buf)
}

// ReleaseBuf returns a pool buffer. Inbound payloads are decoder scratch,
// not pool slabs, so releasing one is a successful no-op.
func (l *Link) ReleaseBuf(inst types.InstanceID, ch types.ChannelID, buf []byte) error {
	if cap(buf) == 0 {
		return nil
	}
	id := &buf[:1][0]
	l.mu.Lock()
	defer l.mu.Unlock()
	pooled, mine := l.inPool[id]
	if !mine {
		return nil
	}
	if pooled {
		return &errcode.E{C: errcode.Transfer, Op: "uartlink.ReleaseBuf", Msg: "double release"}
	}
	l.inPool[id] = true
	l.free = append(l.free, buf[:cap(buf)])
	return nil
}

// FreeBufs reports available transmit buffers.
func (l *Link) FreeBufs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.free)
}
