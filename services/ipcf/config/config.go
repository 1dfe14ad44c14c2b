// Package config declares the channel-map configuration for the ipcf
// service and its validation rules.
package config

import (
	"gopkg.in/yaml.v3"

	"ipcfshm-go/errcode"
)

// Config is the root document. Instances appear in declaration order and
// that order is load-bearing: device indices are assigned by walking
// instances and channels exactly as written, so a config edit that reorders
// entries renumbers devices.
type Config struct {
	Instances []Instance `yaml:"instances"`
}

// Instance is one remote endpoint reachable over a transport link.
type Instance struct {
	Name     string    `yaml:"name"`
	ID       uint8     `yaml:"id"`
	Channels []Channel `yaml:"channels"`
}

// Channel is one logical stream within an instance.
type Channel struct {
	Name string `yaml:"name"`
	ID   uint8  `yaml:"id"`

	// QueueSize is the per-channel message pool depth.
	QueueSize int `yaml:"queue_size"`

	// MaxMsgLen bounds a single message payload in bytes.
	MaxMsgLen int `yaml:"max_msg_len"`

	// PrependSize selects length-prefix framing: writes are prefixed with a
	// big-endian uint32 payload length, and reads strip a matching prefix.
	PrependSize bool `yaml:"prepend_size"`
}

// Load parses and validates a YAML document.
func Load(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "config.Load", Msg: "yaml parse", Err: err}
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default mirrors the channel map used during bring-up: one remote core
// with a raw echo channel and a framed statistics channel.
func Default() *Config {
	return &Config{
		Instances: []Instance{
			{
				Name: "M7_0",
				ID:   0,
				Channels: []Channel{
					{Name: "echo", ID: 0, QueueSize: 64, MaxMsgLen: 128},
					{Name: "idps_statistics", ID: 1, QueueSize: 64, MaxMsgLen: 128, PrependSize: true},
				},
			},
		},
	}
}
