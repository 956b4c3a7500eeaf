// Package netio implements the network interface contract of spec §4.2:
// an opaque, driver-backed transport that the router core addresses
// through the same RouterInput/RouterOutput traits as hypervisor ports
// (package portio), but which may demultiplex several virtual links
// out of a single physical link.
package netio

import (
	"errors"
	"fmt"

	"github.com/arinc653/router/pkg/portio"
	"github.com/arinc653/router/pkg/types"
)

// InterfaceErrorKind enumerates the failure modes a NetworkInterface can
// report, mirroring the original source's InterfaceError enum.
type InterfaceErrorKind int

const (
	// InsufficientBuffer means the caller's buffer was smaller than the
	// interface's configured MTU on receive, or larger than the MTU on send.
	InsufficientBuffer InterfaceErrorKind = iota
	// NoData means no frame was available (the driver is non-blocking).
	NoData
	// InvalidData means a link layer that carries its own framing rejected
	// the frame: COBS decode failure or CRC-16 mismatch.
	InvalidData
	// NotFound means the referenced interface id has no bound resource.
	NotFound
	// SendFailed means the underlying transport reported an error: a
	// transmit error on Send, or on Receive any driver error other than
	// ErrWouldBlock.
	SendFailed
)

// String implements fmt.Stringer.
func (k InterfaceErrorKind) String() string {
	switch k {
	case InsufficientBuffer:
		return "insufficient buffer space"
	case NoData:
		return "no data available"
	case InvalidData:
		return "invalid data"
	case NotFound:
		return "interface not found"
	case SendFailed:
		return "send failed"
	default:
		return "unknown"
	}
}

// InterfaceError reports why a NetworkInterface operation failed.
type InterfaceError struct {
	Kind  InterfaceErrorKind
	Cause error
}

// Error implements the error interface.
func (e *InterfaceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("interface: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("interface: %s", e.Kind)
}

// Unwrap exposes the underlying cause, if any, to errors.Is/As.
func (e *InterfaceError) Unwrap() error { return e.Cause }

func interfaceErr(kind InterfaceErrorKind, cause error) error {
	return &InterfaceError{Kind: kind, Cause: cause}
}

// Is reports whether target is, or wraps, an *InterfaceError of kind k,
// as in InsufficientBuffer.Is(err). InterfaceErrorKind does not
// implement error, so it cannot be passed to errors.Is as a target.
func (k InterfaceErrorKind) Is(target error) bool {
	var ie *InterfaceError
	if errors.As(target, &ie) {
		return ie.Kind == k
	}
	return false
}

// InterfaceId is a 32-bit opaque handle identifying a bound network
// resource, per spec §4.2 ("Identifiers").
type InterfaceId uint32

// Driver is the platform-specific transport a NetworkInterface wraps:
// a raw byte channel with no notion of virtual links or framing. Linux
// UDP sockets (linux.go) are the reference implementation; any
// datagram- or byte-stream-oriented transport can satisfy it.
type Driver interface {
	// Send writes buf as one transport-level unit. It must not block
	// past the interface's latency budget.
	Send(buf []byte) (int, error)
	// Recv reads at most one transport-level unit into buf, returning
	// ErrWouldBlock (wrapped by the caller into NoData) when nothing is
	// currently available.
	Recv(buf []byte) (int, error)
}

// NetworkInterface binds a Driver and a Framer to the RouterInput/
// RouterOutput contract, enforcing the MTU bound from spec §4.2.
type NetworkInterface struct {
	id     InterfaceId
	mtu    int
	driver Driver
	framer Framer
}

// New constructs a NetworkInterface over driver, framing frames per
// framer and enforcing mtu as the maximum user payload size.
func New(id InterfaceId, mtu int, driver Driver, framer Framer) *NetworkInterface {
	return &NetworkInterface{id: id, mtu: mtu, driver: driver, framer: framer}
}

// Id returns this interface's identifier.
func (n *NetworkInterface) Id() InterfaceId { return n.id }

// Send frames (vl, payload) per the interface's Framer and writes it to
// the driver. It rejects payloads larger than the configured MTU.
func (n *NetworkInterface) Send(vl types.VirtualLinkId, payload []byte) (int, error) {
	if len(payload) > n.mtu {
		return 0, interfaceErr(InsufficientBuffer, nil)
	}

	frame, err := n.framer.Encode(vl, payload)
	if err != nil {
		return 0, interfaceErr(InvalidData, err)
	}

	written, err := n.driver.Send(frame)
	if err != nil {
		return 0, interfaceErr(SendFailed, err)
	}
	return written, nil
}

// Receive reads one frame and decodes it into (vl, payload). buf must
// be at least the interface's MTU plus framing overhead; payload
// aliases buf.
func (n *NetworkInterface) Receive(buf []byte) (types.VirtualLinkId, []byte, error) {
	if len(buf) < n.mtu {
		return 0, nil, interfaceErr(InsufficientBuffer, nil)
	}

	read, err := n.driver.Recv(buf)
	if err != nil {
		if errors.Is(err, ErrWouldBlock) {
			return 0, nil, interfaceErr(NoData, nil)
		}
		return 0, nil, interfaceErr(SendFailed, err)
	}

	vl, payload, err := n.framer.Decode(buf[:read])
	if err != nil {
		return 0, nil, interfaceErr(InvalidData, err)
	}
	return vl, payload, nil
}

// ErrWouldBlock is returned by a Driver.Recv when no frame is currently
// available and the driver is non-blocking.
var ErrWouldBlock = errors.New("netio: would block")

// routerInput and routerOutput adapt *NetworkInterface to portio's
// capability traits. The vl argument on Receive is ignored: a network
// interface demultiplexes whichever VL the wire actually names, per
// spec §4.2/§8 scenario 4.
type routerInput struct{ iface *NetworkInterface }

func (r routerInput) Receive(_ types.VirtualLinkId, buf []byte) (types.VirtualLinkId, []byte, error) {
	return r.iface.Receive(buf)
}

type routerOutput struct{ iface *NetworkInterface }

func (r routerOutput) Send(vl types.VirtualLinkId, buf []byte) error {
	_, err := r.iface.Send(vl, buf)
	return err
}

// Input returns the RouterInput adapter for this interface.
func (n *NetworkInterface) Input() portio.RouterInput {
	return routerInput{n}
}

// Output returns the RouterOutput adapter for this interface.
func (n *NetworkInterface) Output() portio.RouterOutput {
	return routerOutput{n}
}
