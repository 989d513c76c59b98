package pricer

import (
	"github.com/google/uuid"

	"ocpi-tariffs/internal/accumulate"
	"ocpi-tariffs/internal/money"
)

// SessionLedger is the mutable, call-scoped accumulator described in
// §3/§5: running cumulative energy and chargeable duration, the
// FLAT-once guard, and the dimension-run tracker. It lives only for
// the duration of one Price call, is never shared across calls, and
// is never made process-global.
type SessionLedger struct {
	TraceID     uuid.UUID
	CumEnergy   money.Volume
	CumDuration money.Volume
	FlatApplied bool
	tracker     *accumulate.Tracker
}

// newLedger returns a fresh, empty SessionLedger with its own trace id
// for log correlation across one pricing call.
func newLedger() *SessionLedger {
	return &SessionLedger{
		TraceID:     uuid.New(),
		CumEnergy:   money.ZeroVolume,
		CumDuration: money.ZeroVolume,
		tracker:     accumulate.NewTracker(),
	}
}
