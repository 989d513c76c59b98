package ocpi

// ErrorKind enumerates the kinds of errors this engine returns to its
// caller, per the failure semantics of the pricing design: errors are
// values, never panics, and only NoMatchingTariff recovers locally.
type ErrorKind string

const (
	// InvalidInput is a malformed CDR/Tariff: out-of-order periods,
	// negative volumes, missing currency, or an unsupported version.
	InvalidInput ErrorKind = "INVALID_INPUT"
	// UnknownZone is an unresolvable IANA zone identifier.
	UnknownZone ErrorKind = "UNKNOWN_ZONE"
	// Overflow is decimal arithmetic saturating on a non-dividing operation.
	Overflow ErrorKind = "OVERFLOW"
	// NoMatchingTariff means no tariff element matched a dimension
	// with reported volume; non-fatal, surfaced as a warning and a
	// zero-cost report line.
	NoMatchingTariff ErrorKind = "NO_MATCHING_TARIFF"
	// InternalInconsistency is a ledger invariant violation: a bug.
	InternalInconsistency ErrorKind = "INTERNAL_INCONSISTENCY"
)

// Error is the typed error this engine returns to callers.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Msg
}

// NewError constructs an *Error of the given kind.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// IsError reports whether kind represents a fatal condition (as
// opposed to NoMatchingTariff, which is recovered from locally).
func IsError(kind ErrorKind) bool {
	switch kind {
	case InvalidInput, UnknownZone, Overflow, InternalInconsistency:
		return true
	default:
		return false
	}
}
