// Package types defines the small, bounded value types shared by every
// layer of the router: virtual-link identifiers, port/interface names,
// and queuing disciplines.
package types

import (
	"fmt"

	"github.com/c2h5oh/datasize"
)

// MaxNameLength is the maximum length, in ASCII characters, of a PortName
// or InterfaceName.
const MaxNameLength = 20

// VirtualLinkId identifies a virtual link. It is the first four bytes,
// big-endian, of every frame sent on a network interface.
type VirtualLinkId uint32

// String implements fmt.Stringer.
func (id VirtualLinkId) String() string {
	return fmt.Sprintf("VL%d", uint32(id))
}

// Name is a bounded ASCII identifier used to name hypervisor ports and
// network interfaces. Two distinct names always refer to distinct
// resources.
type Name struct {
	value string
}

// NewName validates s and wraps it as a Name.
//
// s must be non-empty printable ASCII (0x20 through 0x7e) of at most
// MaxNameLength characters.
func NewName(s string) (Name, error) {
	if len(s) == 0 {
		return Name{}, fmt.Errorf("name must not be empty")
	}
	if len(s) > MaxNameLength {
		return Name{}, fmt.Errorf("name %q exceeds %d characters", s, MaxNameLength)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return Name{}, fmt.Errorf("name %q contains non-printable-ASCII byte at index %d", s, i)
		}
	}
	return Name{value: s}, nil
}

// String returns the underlying name.
func (n Name) String() string {
	return n.value
}

// IsZero reports whether n is the zero value (never a valid resolved name).
func (n Name) IsZero() bool {
	return n.value == ""
}

// Equal reports whether n and other name the same resource. Defined so
// go-cmp compares Name by value instead of panicking on its unexported
// field.
func (n Name) Equal(other Name) bool {
	return n.value == other.value
}

// PortName names a hypervisor port.
type PortName = Name

// InterfaceName names a network interface. Interpretation of the
// underlying string is driver-specific (socket address, UART label,
// VLAN tag).
type InterfaceName = Name

// QueuingDiscipline selects the message-ordering policy of a queuing port.
type QueuingDiscipline int

const (
	// FIFO delivers messages in the order they were sent.
	FIFO QueuingDiscipline = iota
	// Priority delivers higher-priority messages first.
	Priority
)

// String implements fmt.Stringer.
func (d QueuingDiscipline) String() string {
	switch d {
	case FIFO:
		return "fifo"
	case Priority:
		return "priority"
	default:
		return "unknown"
	}
}

// DataRate is advisory link-rate metadata attached to a network
// interface, expressed in bits per second. The router core never
// consults it; a driver may use it to enforce its own shaping, but no
// such shaping is implemented here (see spec §9 Open Question).
type DataRate uint64

// Bytes renders the rate as a byte-oriented size for logging, reusing
// the same unit formatting the rest of the codebase uses for memory
// quantities.
func (r DataRate) Bytes() datasize.ByteSize {
	return datasize.ByteSize(r / 8)
}

// String implements fmt.Stringer.
func (r DataRate) String() string {
	return fmt.Sprintf("%s/s", r.Bytes().HR())
}
