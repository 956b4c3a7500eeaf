package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/arinc653/router/pkg/config"
	"github.com/arinc653/router/pkg/logging"
)

// Config is the host harness's static configuration: everything a real
// hypervisor's partition descriptor would otherwise supply (named
// hypervisor ports, network interfaces, stack/resource limits), plus
// where to find the binary runtime configuration this router starts
// with. It never describes virtual links directly — those live in the
// binary config at ConfigPath, exactly as spec §6 says the runtime
// "only consumes the binary form".
type Config struct {
	Logging     logging.Config  `yaml:"logging"`
	MTU         int             `yaml:"mtu"`
	Limits      config.Limits   `yaml:"limits"`
	ConfigPath  string          `yaml:"config_path"`
	PollModulus uint32          `yaml:"poll_modulus"`
	PcapPath    string          `yaml:"pcap_path"`
	Resources   []ResourceSpec  `yaml:"resources"`
}

// ResourceSpec names one hypervisor port or network interface the
// harness creates at cold start and inserts into the resource
// registry, mirroring spec §4.6's "every hypervisor port and every
// network interface is inserted under its configured name".
type ResourceSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // sampling_in, sampling_out, queuing_in, queuing_out, udp

	MsgSize       int           `yaml:"msg_size"`
	MsgCount      int           `yaml:"msg_count"`
	Discipline    string        `yaml:"discipline"` // fifo, priority
	RefreshPeriod time.Duration `yaml:"refresh_period"`

	UDP *UDPResourceSpec `yaml:"udp,omitempty"`
}

// UDPResourceSpec configures a bidirectional network interface
// resource backed by a UDP socket.
type UDPResourceSpec struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	RateBitsPS  uint64 `yaml:"rate_bits_per_second"`
	LinkName    string `yaml:"link_name"`
}

// DefaultConfig returns a harness configuration with no resources,
// suitable as a LoadConfig base.
func DefaultConfig() *Config {
	return &Config{
		Logging:     logging.Config{Level: zapcore.InfoLevel},
		MTU:         1500,
		Limits:      config.DefaultLimits(),
		PollModulus: 65536,
	}
}

// LoadConfig reads and parses a harness configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read harness config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse harness config: %w", err)
	}
	return cfg, nil
}
