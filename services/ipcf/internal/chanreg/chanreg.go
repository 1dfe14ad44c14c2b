// Package chanreg builds the static channel registry: the deterministic
// mapping between configured (instance, channel) pairs, consumer-facing
// device paths, and dense device indices.
//
// The table is built once from validated configuration and never mutated,
// so lookups are safe from any goroutine without locking.
package chanreg

import (
	"ipcfshm-go/errcode"
	"ipcfshm-go/services/ipcf/config"
	"ipcfshm-go/types"
)

// Entry is one registered channel.
type Entry struct {
	Index int // dense, assigned in configuration order

	Inst     types.InstanceID
	Ch       types.ChannelID
	InstName string
	ChName   string

	QueueSize   int
	MaxMsgLen   int
	PrependSize bool
}

// Path returns the consumer-facing device path, "ipcfshm/<inst>/<chan>".
func (e *Entry) Path() string {
	return types.DeviceClass + "/" + e.InstName + "/" + e.ChName
}

type key struct {
	inst types.InstanceID
	ch   types.ChannelID
}

// Table resolves channels by id pair, by device index, or by path.
type Table struct {
	entries []Entry
	byID    map[key]int
	byPath  map[string]int
}

// Build walks cfg in declaration order and assigns each channel the next
// device index. The same config always yields the same table.
func Build(cfg *config.Config) (*Table, error) {
	t := &Table{
		byID:   make(map[key]int),
		byPath: make(map[string]int),
	}
	for _, inst := range cfg.Instances {
		for _, ch := range inst.Channels {
			e := Entry{
				Index:       len(t.entries),
				Inst:        types.InstanceID(inst.ID),
				Ch:          types.ChannelID(ch.ID),
				InstName:    inst.Name,
				ChName:      ch.Name,
				QueueSize:   ch.QueueSize,
				MaxMsgLen:   ch.MaxMsgLen,
				PrependSize: ch.PrependSize,
			}
			k := key{e.Inst, e.Ch}
			if _, dup := t.byID[k]; dup {
				return nil, &errcode.E{C: errcode.InvalidConfig, Op: "chanreg.Build",
					Msg: "duplicate channel " + e.Path()}
			}
			t.byID[k] = e.Index
			t.byPath[e.Path()] = e.Index
			t.entries = append(t.entries, e)
		}
	}
	return t, nil
}

// Len reports the number of registered channels.
func (t *Table) Len() int { return len(t.entries) }

// Resolve maps a transport (instance, channel) pair to its entry.
func (t *Table) Resolve(inst types.InstanceID, ch types.ChannelID) (*Entry, bool) {
	i, ok := t.byID[key{inst, ch}]
	if !ok {
		return nil, false
	}
	return &t.entries[i], true
}

// Entry returns the entry at a device index.
func (t *Table) Entry(index int) (*Entry, bool) {
	if index < 0 || index >= len(t.entries) {
		return nil, false
	}
	return &t.entries[index], true
}

// LookupPath resolves a device path to its entry.
func (t *Table) LookupPath(path string) (*Entry, bool) {
	i, ok := t.byPath[path]
	if !ok {
		return nil, false
	}
	return &t.entries[i], true
}

// Entries returns the table in device-index order. The slice is shared;
// callers must not modify it.
func (t *Table) Entries() []Entry { return t.entries }
