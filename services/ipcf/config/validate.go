package config

import (
	"fmt"

	"ipcfshm-go/errcode"
	"ipcfshm-go/types"
)

// Validate checks configuration correctness. It performs declarative
// validation only and never mutates the config.
func Validate(cfg *Config) error {
	if len(cfg.Instances) == 0 {
		return invalid("no instances defined")
	}

	instNames := make(map[string]struct{})
	instIDs := make(map[uint8]struct{})

	for _, inst := range cfg.Instances {
		if err := checkName("instance", inst.Name); err != nil {
			return err
		}
		if _, dup := instNames[inst.Name]; dup {
			return invalid("duplicate instance name %q", inst.Name)
		}
		instNames[inst.Name] = struct{}{}
		if _, dup := instIDs[inst.ID]; dup {
			return invalid("instance %q: duplicate instance id %d", inst.Name, inst.ID)
		}
		instIDs[inst.ID] = struct{}{}

		if len(inst.Channels) == 0 {
			return invalid("instance %q: no channels defined", inst.Name)
		}

		chNames := make(map[string]struct{})
		chIDs := make(map[uint8]struct{})
		for _, ch := range inst.Channels {
			if err := checkName("channel", ch.Name); err != nil {
				return err
			}
			if _, dup := chNames[ch.Name]; dup {
				return invalid("instance %q: duplicate channel name %q", inst.Name, ch.Name)
			}
			chNames[ch.Name] = struct{}{}
			if _, dup := chIDs[ch.ID]; dup {
				return invalid("instance %q: duplicate channel id %d", inst.Name, ch.ID)
			}
			chIDs[ch.ID] = struct{}{}

			if ch.QueueSize < 1 {
				return invalid("channel %s/%s: queue_size must be positive", inst.Name, ch.Name)
			}
			if ch.MaxMsgLen < 1 {
				return invalid("channel %s/%s: max_msg_len must be positive", inst.Name, ch.Name)
			}
		}
	}
	return nil
}

// checkName enforces the constraints a name must satisfy to become a device
// path component: non-empty, bounded, printable ASCII, no separators.
func checkName(kind, name string) error {
	if name == "" {
		return invalid("%s name must not be empty", kind)
	}
	if len(name) > types.MaxNameLen {
		return invalid("%s name %q exceeds %d bytes", kind, name, types.MaxNameLen)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= 0x20 || c > 0x7E || c == '/' {
			return invalid("%s name %q contains invalid byte 0x%02x", kind, name, c)
		}
	}
	return nil
}

func invalid(format string, a ...any) error {
	return &errcode.E{C: errcode.InvalidConfig, Op: "config.Validate", Msg: fmt.Sprintf(format, a...)}
}
