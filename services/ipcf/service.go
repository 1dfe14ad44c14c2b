// Package ipcf bridges transport channels to consumer-facing devices.
//
// A Service owns one bounded message pool per configured channel. Inbound
// messages are copied into the pool by a non-blocking transport callback;
// consumers drain the pool through fd-like Device handles resolved by
// device index or by path. Outbound writes go straight to the transport.
package ipcf

import (
	"sync"
	"sync/atomic"

	"ipcfshm-go/errcode"
	"ipcfshm-go/services/ipcf/config"
	"ipcfshm-go/services/ipcf/internal/chanreg"
	"ipcfshm-go/types"
	"ipcfshm-go/x/msgring"
)

// channelState is the shared per-channel state every open device binds to.
// There is no per-open buffering.
type channelState struct {
	entry *chanreg.Entry
	ring  *msgring.Ring

	// rdMu serializes consumers so the ring sees a single reader even when
	// the same channel is open more than once.
	rdMu sync.Mutex
}

type Service struct {
	tr    types.Transport
	table *chanreg.Table
	chans []*channelState

	oversized  atomic.Uint32 // inbound messages too large for their pool slot
	unroutable atomic.Uint32 // inbound messages for unconfigured channels
}

// New validates cfg, builds the channel registry, allocates one message
// pool per channel, and registers the inbound dispatcher for every
// configured (instance, channel) pair on tr.
func New(cfg *config.Config, tr types.Transport) (*Service, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	table, err := chanreg.Build(cfg)
	if err != nil {
		return nil, err
	}
	s := &Service{tr: tr, table: table}
	s.chans = make([]*channelState, table.Len())
	for i := range s.chans {
		e, _ := table.Entry(i)
		st := &channelState{
			entry: e,
			ring:  msgring.New(e.QueueSize, e.MaxMsgLen),
		}
		st.ring.Reset()
		s.chans[i] = st
		if err := tr.RegisterRx(e.Inst, e.Ch, rxDispatch, s); err != nil {
			return nil, &errcode.E{C: errcode.Transfer, Op: "ipcf.New",
				Msg: "register rx for " + e.Path(), Err: err}
		}
	}
	return s, nil
}

// DeviceCount reports how many devices the service exposes.
func (s *Service) DeviceCount() int { return s.table.Len() }

// Paths returns every device path in device-index order.
func (s *Service) Paths() []string {
	out := make([]string, 0, s.table.Len())
	for _, e := range s.table.Entries() {
		out = append(out, e.Path())
	}
	return out
}

// Open binds a device handle to the channel at a device index.
func (s *Service) Open(dev int) (*Device, error) {
	if dev < 0 || dev >= len(s.chans) {
		return nil, errcode.UnknownDevice
	}
	return &Device{s: s, st: s.chans[dev]}, nil
}

// OpenPath binds a device handle by its path, e.g. "ipcfshm/M7_0/echo".
func (s *Service) OpenPath(path string) (*Device, error) {
	e, ok := s.table.LookupPath(path)
	if !ok {
		return nil, errcode.UnknownDevice
	}
	return s.Open(e.Index)
}

// Stats reports the buffered depth and cumulative overwrite loss of one
// device.
func (s *Service) Stats(dev int) (types.ChannelStats, error) {
	if dev < 0 || dev >= len(s.chans) {
		return types.ChannelStats{}, errcode.UnknownDevice
	}
	st := s.chans[dev]
	return types.ChannelStats{
		Pending: st.ring.Pending(),
		Dropped: st.ring.Dropped(),
	}, nil
}

// Oversized reports inbound messages dropped for exceeding their channel's
// max message size.
func (s *Service) Oversized() uint32 { return s.oversized.Load() }

// Unroutable reports inbound messages dropped for arriving on a channel the
// configuration does not know.
func (s *Service) Unroutable() uint32 { return s.unroutable.Load() }
