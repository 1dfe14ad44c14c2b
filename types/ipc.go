package types

// ------------------------
// IPC identity
// ------------------------

// InstanceID identifies one transport instance, i.e. one link to a remote
// core (e.g. "M7_0").
type InstanceID uint8

// ChannelID identifies a channel within an instance. IDs are assigned by
// position in the static configuration and are stable across restarts.
type ChannelID uint8

// DeviceClass is the fixed first segment of every consumer-facing device
// path, e.g. "ipcfshm/M7_0/echo".
const DeviceClass = "ipcfshm"

// MaxNameLen bounds instance and channel names so device paths stay short
// and predictable.
const MaxNameLen = 20

// SizePrefixLen is the width of the big-endian length prefix on framed
// channels.
const SizePrefixLen = 4

// ChannelStats is a point-in-time snapshot of one device's buffering.
type ChannelStats struct {
	Pending int    // messages buffered but not yet read
	Dropped uint32 // messages lost to overwrite since start
}
