package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/arinc653/router/pkg/types"
)

// AuthoringConfig is the human-authored, on-disk declarative form of a
// RouterConfig (spec §6 "Configuration on-disk format"): a YAML
// document listing stack_size, ports, interfaces, and virtual_links.
// It is translated into a RouterConfig (and from there into the
// binary wire form, wire.go) by cmd/gen-config; the runtime itself
// never parses YAML.
type AuthoringConfig struct {
	StackSize    uint32                     `yaml:"stack_size"`
	Ports        map[string]AuthoringPort   `yaml:"ports"`
	Interfaces   map[string]AuthoringIface  `yaml:"interfaces"`
	VirtualLinks map[uint32]AuthoringVLink  `yaml:"virtual_links"`
}

// AuthoringPort is the YAML shape of one PortConfig. Kind selects
// which of the kind-specific fields apply; unused fields are ignored.
type AuthoringPort struct {
	Kind          string        `yaml:"kind"`
	MsgSize       int           `yaml:"msg_size"`
	RefreshPeriod time.Duration `yaml:"refresh_period,omitempty"`
	Discipline    string        `yaml:"discipline,omitempty"`
	MsgCount      int           `yaml:"msg_count,omitempty"`
}

// AuthoringIface is the YAML shape of one InterfaceConfig.
type AuthoringIface struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Rate        uint64 `yaml:"rate"`
	MTU         int    `yaml:"mtu"`
}

// AuthoringVLink is the YAML shape of one VirtualLinkConfig.
type AuthoringVLink struct {
	Source       string        `yaml:"source"`
	Destinations []string      `yaml:"destinations"`
	Period       time.Duration `yaml:"period"`
}

// DefaultAuthoringConfig returns an empty, zero-value authoring
// document ready to be populated or unmarshaled into.
func DefaultAuthoringConfig() *AuthoringConfig {
	return &AuthoringConfig{
		Ports:        map[string]AuthoringPort{},
		Interfaces:   map[string]AuthoringIface{},
		VirtualLinks: map[uint32]AuthoringVLink{},
	}
}

// LoadAuthoringConfig reads and parses a YAML authoring document from
// path.
func LoadAuthoringConfig(path string) (*AuthoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultAuthoringConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	return cfg, nil
}

// Compile translates an authoring document into a validated
// RouterConfig. Via go-multierror it reports every port whose kind or
// discipline cannot be parsed, together with the first failure the
// Builder hits. The Builder stops at its first error, so later
// problems with ports, interfaces or virtual links are not reported in
// the same pass.
func (a *AuthoringConfig) Compile(limits Limits) (RouterConfig, error) {
	var errs error
	b := NewBuilder(a.StackSize, limits)

	for name, p := range a.Ports {
		port, err := p.toPortConfig()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("port %q: %w", name, err))
			continue
		}
		b.Port(name, port)
	}

	for name, i := range a.Interfaces {
		b.Interface(name, InterfaceConfig{
			Source:      i.Source,
			Destination: i.Destination,
			Rate:        types.DataRate(i.Rate),
			MTU:         i.MTU,
		})
	}

	for vlID, link := range a.VirtualLinks {
		vl := types.VirtualLinkId(vlID)
		b.VirtualLink(vl, link.Source)
		b.Schedule(vl, link.Period)
		for _, dst := range link.Destinations {
			b.Destination(vl, dst)
		}
	}

	cfg, err := b.Build()
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	if errs != nil {
		return RouterConfig{}, errs
	}
	return cfg, nil
}

func (p AuthoringPort) toPortConfig() (PortConfig, error) {
	switch p.Kind {
	case "sampling_in":
		return NewSamplingIn(p.MsgSize, p.RefreshPeriod), nil
	case "sampling_out":
		return NewSamplingOut(p.MsgSize), nil
	case "queuing_in":
		disc, err := parseDiscipline(p.Discipline)
		if err != nil {
			return PortConfig{}, err
		}
		return NewQueuingIn(disc, p.MsgCount, p.MsgSize), nil
	case "queuing_out":
		disc, err := parseDiscipline(p.Discipline)
		if err != nil {
			return PortConfig{}, err
		}
		return NewQueuingOut(disc, p.MsgCount, p.MsgSize), nil
	default:
		return PortConfig{}, fmt.Errorf("unknown port kind %q", p.Kind)
	}
}

func parseDiscipline(s string) (QueuingDiscipline, error) {
	switch s {
	case "fifo":
		return FIFO, nil
	case "priority":
		return Priority, nil
	default:
		return 0, fmt.Errorf("unknown queuing discipline %q", s)
	}
}
