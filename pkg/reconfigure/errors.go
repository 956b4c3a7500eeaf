// Package reconfigure turns a validated config.RouterConfig into a live
// router.Router and scheduler.Slot set, resolving each virtual link's
// named endpoints against a Registry of resources the partition was
// started with (spec §4.6).
package reconfigure

import "fmt"

// ErrorKind classifies why a reconfiguration attempt was rejected.
// Distinct from config.ErrorKind (which governs config validity) and
// router.BuildErrorKind (which governs route-table assembly): this is
// the resolution step that sits between the two.
type ErrorKind int

const (
	// InvalidInput means a virtual link names a source with no matching
	// registered input.
	InvalidInput ErrorKind = iota
	// InvalidOutput means a virtual link names a destination with no
	// matching registered output.
	InvalidOutput
	// InvalidVl means the router builder rejected the route itself, e.g.
	// a duplicate virtual link id.
	InvalidVl
	// Storage means a bound on the number of routes or registry entries
	// was exceeded.
	Storage
	// Format means a fetched configuration blob could not be decoded.
	Format
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case InvalidOutput:
		return "invalid_output"
	case InvalidVl:
		return "invalid_vl"
	case Storage:
		return "storage"
	case Format:
		return "format"
	default:
		return "unknown"
	}
}

// Error reports why Reconfigure, or a Registry insertion, failed.
type Error struct {
	Kind  ErrorKind
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("reconfigure: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("reconfigure: %s", e.Kind)
}

// Unwrap exposes the underlying cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }
