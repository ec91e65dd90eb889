// Package braineerr defines the typed error taxonomy shared by every layer
// of the core substrate. Callers distinguish failure modes with errors.Is
// against the Err* sentinel values, not by string-matching messages.
package braineerr

import "errors"

// Kind identifies the class of failure. It is comparable; errors.Is matching
// goes through the Error type and the Err* sentinels below.
type Kind int

const (
	// InvalidConfig marks out-of-range configuration parameters, or an
	// attempt to set a structural field (unit_count, connectivity_per_unit)
	// that is only legal at construction time.
	InvalidConfig Kind = iota
	// TopologyLocked marks an attempt to change unit_count or
	// connectivity_per_unit on a brain that has already allocated units.
	TopologyLocked
	// NameConflict marks a group redefinition with a different kind, or a
	// width contraction on an existing group.
	NameConflict
	// CapacityExceeded marks a hard edge-count or image-size limit being
	// exceeded.
	CapacityExceeded
	// ImageCorrupt marks a brain image that fails magic/version/invariant
	// checks on load.
	ImageCorrupt
	// IoError marks an underlying reader/writer failure during persistence.
	IoError
)

func (k Kind) String() string {
	switch k {
	case InvalidConfig:
		return "InvalidConfig"
	case TopologyLocked:
		return "TopologyLocked"
	case NameConflict:
		return "NameConflict"
	case CapacityExceeded:
		return "CapacityExceeded"
	case ImageCorrupt:
		return "ImageCorrupt"
	case IoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every public operation that
// can fail. It carries a Kind for programmatic matching plus a free-form
// Detail string for diagnostics.
type Error struct {
	Kind   Kind
	Detail string
	Err    error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, braineerr.ErrInvalidConfig) style matching: a
// target sentinel or *Error matches when its Kind equals e.Kind.
func (e *Error) Is(target error) bool {
	var k Kind
	if asKind(target, &k) {
		return e.Kind == k
	}
	return false
}

// sentinel wraps a Kind so it satisfies error; the Err* values below use it
// for errors.Is(err, braineerr.ErrImageCorrupt).
type sentinel Kind

func (s sentinel) Error() string { return Kind(s).String() }

// Sentinels, one per Kind, for errors.Is comparisons without constructing
// an *Error.
var (
	ErrInvalidConfig    error = sentinel(InvalidConfig)
	ErrTopologyLocked   error = sentinel(TopologyLocked)
	ErrNameConflict     error = sentinel(NameConflict)
	ErrCapacityExceeded error = sentinel(CapacityExceeded)
	ErrImageCorrupt     error = sentinel(ImageCorrupt)
	ErrIoError          error = sentinel(IoError)
)

func asKind(target error, out *Kind) bool {
	if s, ok := target.(sentinel); ok {
		*out = Kind(s)
		return true
	}
	var e *Error
	if errors.As(target, &e) {
		*out = e.Kind
		return true
	}
	return false
}

// New builds an *Error of the given kind with a formatted detail message.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap builds an *Error of the given kind that wraps an underlying cause.
func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}
