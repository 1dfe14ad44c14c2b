// Package frame implements the byte-stream framing used by link transports.
//
// Each frame is a 5-byte header followed by the payload:
//
//	magic(1) instance(1) channel(1) length(2, big-endian)
//
// The decoder is a push-style state machine: feed it whatever the link
// delivers and it invokes the frame callback once per complete frame. A
// byte that is not magic where a header should start is skipped and
// counted, so the decoder regains sync after line garbage.
package frame

import (
	"encoding/binary"

	"ipcfshm-go/types"
)

const (
	Magic      = 0xA5
	HeaderLen  = 5
	MaxPayload = 0xFFFF
)

// AppendFrame appends one encoded frame to dst and returns the result.
// Payloads longer than MaxPayload cannot be framed and return dst unchanged
// with ok=false.
func AppendFrame(dst []byte, inst types.InstanceID, ch types.ChannelID, payload []byte) ([]byte, bool) {
	if len(payload) > MaxPayload {
		return dst, false
	}
	var hdr [HeaderLen]byte
	hdr[0] = Magic
	hdr[1] = byte(inst)
	hdr[2] = byte(ch)
	binary.BigEndian.PutUint16(hdr[3:], uint16(len(payload)))
	dst = append(dst, hdr[:]...)
	return append(dst, payload...), true
}

// FrameFunc receives one decoded frame. The payload slice is only valid for
// the duration of the call.
type FrameFunc func(inst types.InstanceID, ch types.ChannelID, payload []byte)

type Decoder struct {
	onFrame FrameFunc

	hdr     [HeaderLen]byte
	hn      int
	payload []byte
	pn      int
	need    int

	skipped uint32
}

func NewDecoder(onFrame FrameFunc) *Decoder {
	return &Decoder{onFrame: onFrame}
}

// Skipped reports how many bytes have been discarded while hunting for a
// frame start.
func (d *Decoder) Skipped() uint32 { return d.skipped }

// Feed consumes a chunk of link bytes, invoking the frame callback once per
// frame completed within it. Chunk boundaries are arbitrary; a frame may
// span any number of feeds.
func (d *Decoder) Feed(p []byte) {
	for len(p) > 0 {
		if d.hn == 0 {
			if p[0] != Magic {
				d.skipped++
				p = p[1:]
				continue
			}
		}
		if d.hn < HeaderLen {
			n := copy(d.hdr[d.hn:], p)
			d.hn += n
			p = p[n:]
			if d.hn < HeaderLen {
				return
			}
			d.need = int(binary.BigEndian.Uint16(d.hdr[3:]))
			if len(d.payload) < d.need {
				d.payload = make([]byte, d.need)
			}
			d.pn = 0
			if d.need == 0 {
				d.emit()
				continue
			}
		}
		n := copy(d.payload[d.pn:d.need], p)
		d.pn += n
		p = p[n:]
		if d.pn == d.need {
			d.emit()
		}
	}
}

func (d *Decoder) emit() {
	d.onFrame(types.InstanceID(d.hdr[1]), types.ChannelID(d.hdr[2]), d.payload[:d.need])
	d.hn = 0
}
