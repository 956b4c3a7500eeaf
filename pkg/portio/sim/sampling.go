// Package sim provides an in-process simulation of ARINC 653 hypervisor
// sampling and queuing ports, so that the router core (package router)
// can be exercised end-to-end on an ordinary Linux host without a real
// hypervisor. It is the host-harness analogue of a concrete hypervisor
// ABI binding — out of scope for the core per spec §1, but required for
// a runnable, testable repository.
package sim

import (
	"sync"
	"time"

	"github.com/arinc653/router/pkg/portio"
	"github.com/arinc653/router/pkg/types"
)

// Clock abstracts time.Now so sampling staleness can be tested
// deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default, wall-clock Clock.
var SystemClock Clock = systemClock{}

// SamplingPort is an in-process mailbox holding the latest value written
// to it, mirroring ARINC 653 sampling port semantics: the most recent
// write is always what the next read observes, and a read may report the
// value as stale once refreshPeriod has elapsed since the write.
//
// A SamplingPort is shared between the two ends of a sampling channel:
// one end calls Write (the channel's source), the other calls Read (the
// channel's destination). Which end the router occupies is decided by
// whoever registers the port: cmd/partitiond registers a sampling_in
// resource through Input() and a sampling_out resource through Output().
type SamplingPort struct {
	mu            sync.Mutex
	msgSize       int
	refreshPeriod time.Duration
	clock         Clock

	hasData   bool
	data      []byte
	writtenAt time.Time
}

// NewSamplingPort creates a sampling port bounded to msgSize bytes per
// message. A refreshPeriod of zero disables staleness tracking (every
// written value stays valid until overwritten).
func NewSamplingPort(msgSize int, refreshPeriod time.Duration) *SamplingPort {
	return &SamplingPort{
		msgSize:       msgSize,
		refreshPeriod: refreshPeriod,
		clock:         SystemClock,
	}
}

// WithClock overrides the port's time source. Intended for tests.
func (p *SamplingPort) WithClock(clock Clock) *SamplingPort {
	p.clock = clock
	return p
}

// Write overwrites the latest value. It is the sampling-out side of the
// channel.
func (p *SamplingPort) Write(buf []byte) error {
	if len(buf) > p.msgSize {
		return portio.ErrInsufficientMessageSize
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.data = append(p.data[:0], buf...)
	p.hasData = true
	p.writtenAt = p.clock.Now()
	return nil
}

// Read copies the latest value into buf, returning the number of bytes
// written. It reports staleness and absence of data through the named
// sentinel errors in errors.go.
func (p *SamplingPort) Read(buf []byte) (int, error) {
	if len(buf) < p.msgSize {
		return 0, portio.ErrInsufficientMessageSize
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasData {
		return 0, errNoData
	}
	if p.refreshPeriod > 0 && p.clock.Now().Sub(p.writtenAt) > p.refreshPeriod {
		return 0, errStale
	}

	n := copy(buf, p.data)
	return n, nil
}

// Input returns the RouterInput adapter for the sampling-in side.
func (p *SamplingPort) Input() portio.RouterInput {
	return samplingInput{p}
}

// Output returns the RouterOutput adapter for the sampling-out side.
func (p *SamplingPort) Output() portio.RouterOutput {
	return samplingOutput{p}
}

type samplingInput struct{ port *SamplingPort }

func (s samplingInput) Receive(vl types.VirtualLinkId, buf []byte) (types.VirtualLinkId, []byte, error) {
	n, err := s.port.Read(buf)
	if err != nil {
		return 0, nil, &portio.PortError{Kind: portio.Receive, Cause: err}
	}
	return vl, buf[:n], nil
}

type samplingOutput struct{ port *SamplingPort }

func (s samplingOutput) Send(_ types.VirtualLinkId, buf []byte) error {
	if err := s.port.Write(buf); err != nil {
		return &portio.PortError{Kind: portio.Send, Cause: err}
	}
	return nil
}
