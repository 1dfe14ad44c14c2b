package ipcf

import (
	"encoding/binary"

	"ipcfshm-go/errcode"
	"ipcfshm-go/types"
	"ipcfshm-go/x/mathx"
)

// Device is an fd-like handle over one channel. All handles on the same
// channel share its pool; reads from any of them drain the same messages.
type Device struct {
	s  *Service
	st *channelState
}

// Path returns the device's stable path.
func (d *Device) Path() string { return d.st.entry.Path() }

// Index returns the device's index in the registry.
func (d *Device) Index() int { return d.st.entry.Index }

// Readable signals when the channel goes from empty to non-empty.
func (d *Device) Readable() <-chan struct{} { return d.st.ring.Readable() }

// Read drains the oldest buffered message into p without blocking. An empty
// channel reads as (0, nil). On a framed channel the payload is preceded by
// a big-endian uint32 length, so a successful read returns 4+S bytes.
//
// If p cannot hold the whole message the read fails with
// errcode.ShortBuffer and the message stays buffered, so the caller can
// retry with PeekSize-worth of room.
func (d *Device) Read(p []byte) (int, error) {
	d.st.rdMu.Lock()
	defer d.st.rdMu.Unlock()

	e := d.st.entry
	sz, ok := d.st.ring.PeekSize()
	if !ok {
		return 0, nil
	}
	need := sz
	if e.PrependSize {
		need += types.SizePrefixLen
	}
	if len(p) < need {
		return 0, &errcode.E{C: errcode.ShortBuffer, Op: "ipcf.Read",
			Msg: e.Path() + ": message pending"}
	}

	m, ok := d.st.ring.Pop()
	if !ok {
		// The peeked slot was reclaimed by an overwrite racing us.
		return 0, nil
	}
	// An overwrite between peek and pop can grow the message past the
	// pre-check. The pop already consumed it, so it is lost.
	need = len(m)
	if e.PrependSize {
		need += types.SizePrefixLen
	}
	if len(p) < need {
		return 0, &errcode.E{C: errcode.ShortBuffer, Op: "ipcf.Read",
			Msg: e.Path() + ": message discarded"}
	}

	n := 0
	if e.PrependSize {
		binary.BigEndian.PutUint32(p, uint32(len(m)))
		n = types.SizePrefixLen
	}
	n += copy(p[n:], m)
	return n, nil
}

// PeekSize reports the wire size the next Read would produce, zero when the
// channel is empty.
func (d *Device) PeekSize() int {
	sz, ok := d.st.ring.PeekSize()
	if !ok {
		return 0
	}
	if d.st.entry.PrependSize {
		sz += types.SizePrefixLen
	}
	return sz
}

// Write sends p on the channel. A payload longer than the channel's max
// message size is silently truncated to fit, matching the transmit path it
// replaces. Length framing is a read-side decoration only; the wire carries
// the bare payload. The returned count is the number of payload bytes
// actually sent.
func (d *Device) Write(p []byte) (int, error) {
	e := d.st.entry

	n := mathx.Min(len(p), e.MaxMsgLen)

	buf, err := d.s.tr.AcquireBuf(e.Inst, e.Ch, n)
	if err != nil {
		return 0, &errcode.E{C: errcode.NoBuffer, Op: "ipcf.Write",
			Msg: e.Path(), Err: err}
	}
	copy(buf, p[:n])

	if err := d.s.tr.Tx(e.Inst, e.Ch, buf, n); err != nil {
		// Tx failure leaves ownership with us; hand the buffer back before
		// surfacing the error.
		if rerr := d.s.tr.ReleaseBuf(e.Inst, e.Ch, buf); rerr != nil {
			return 0, &errcode.E{C: errcode.Transfer, Op: "ipcf.Write",
				Msg: e.Path() + ": tx and release both failed", Err: err}
		}
		return 0, &errcode.E{C: errcode.TxFailed, Op: "ipcf.Write",
			Msg: e.Path(), Err: err}
	}
	return n, nil
}

// Close releases the handle. Channel state is shared and owned by the
// service, so there is nothing to tear down; it exists for fd-like
// symmetry.
func (d *Device) Close() error { return nil }
