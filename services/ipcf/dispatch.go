package ipcf

import (
	"ipcfshm-go/types"
	"ipcfshm-go/x/logx"
)

// rxDispatch is the transport rx callback. It runs in transport context and
// must not block: it copies the payload into the channel's pool (or counts
// the drop) and hands the buffer back. The buffer is released exactly once
// on every path; a failed release can only be logged from here.
func rxDispatch(arg any, inst types.InstanceID, ch types.ChannelID, buf []byte) {
	s := arg.(*Service)

	e, ok := s.table.Resolve(inst, ch)
	if !ok {
		s.unroutable.Add(1)
		logx.Warnf("ipcf: rx on unconfigured channel %d/%d, dropped", int(inst), int(ch))
	} else if !s.chans[e.Index].ring.Push(buf) {
		s.oversized.Add(1)
		logx.Warnf("ipcf: rx of %d bytes exceeds max for %s, dropped", len(buf), e.Path())
	}

	if err := s.tr.ReleaseBuf(inst, ch, buf); err != nil {
		logx.Errorf("ipcf: release rx buffer %d/%d: %s", int(inst), int(ch), err.Error())
	}
}
