// Package portio defines the two capability traits the router core uses
// to move bytes: RouterInput and RouterOutput. Both hypervisor ports
// (package sim) and network interfaces (package netio) implement them.
package portio

import (
	"errors"
	"fmt"

	"github.com/arinc653/router/pkg/types"
)

// ErrInsufficientMessageSize is the cause wrapped by a PortError when the
// caller-provided buffer is smaller than the endpoint's configured
// message size (spec §4.1: "buf.len() must be >= the endpoint's
// configured message size; otherwise Receive").
var ErrInsufficientMessageSize = errors.New("buffer smaller than configured message size")

// PortErrorKind classifies a PortError.
type PortErrorKind int

const (
	// Receive indicates a failed or empty receive: timeout, no data,
	// stale sample, or a host-reported transient condition. The router
	// treats this as "no data this tick", never as fatal.
	Receive PortErrorKind = iota
	// Send indicates a failed send to one output. It never aborts sends
	// to the other outputs of the same virtual link.
	Send
)

// String implements fmt.Stringer.
func (k PortErrorKind) String() string {
	switch k {
	case Receive:
		return "receive"
	case Send:
		return "send"
	default:
		return "unknown"
	}
}

// PortError reports why a RouterInput.Receive or RouterOutput.Send call
// failed. It always carries one of the two Kind values from spec §4.1;
// the Cause, when present, is diagnostic only.
type PortError struct {
	Kind  PortErrorKind
	Cause error
}

// Error implements the error interface.
func (e *PortError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("port %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("port %s", e.Kind)
}

// Unwrap exposes the underlying cause, if any, to errors.Is/As.
func (e *PortError) Unwrap() error {
	return e.Cause
}

func receiveError(cause error) error {
	return &PortError{Kind: Receive, Cause: cause}
}

func sendError(cause error) error {
	return &PortError{Kind: Send, Cause: cause}
}

// RouterInput is an input to a virtual link.
type RouterInput interface {
	// Receive reads at most one message from the bound endpoint into buf.
	// len(buf) must be at least the endpoint's configured message size or
	// a Receive PortError is returned.
	//
	// The returned VirtualLinkId equals vl for single-VL inputs
	// (hypervisor ports); for multiplexing inputs (network interfaces) it
	// is decoded from the wire and may differ from vl. The returned slice
	// aliases buf.
	Receive(vl types.VirtualLinkId, buf []byte) (types.VirtualLinkId, []byte, error)
}

// RouterOutput is an output from a virtual link.
type RouterOutput interface {
	// Send delivers buf to the bound endpoint. vl is used for tracing on
	// hypervisor ports, and is prepended on the wire for network
	// interfaces.
	Send(vl types.VirtualLinkId, buf []byte) error
}
