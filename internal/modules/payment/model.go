package payment

import (
	"time"

	"fixnow/internal/types"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusReleased   Status = "released"
	StatusRefunded   Status = "refunded"
)

// AllowedTransitions is the escrow state machine. Released and refunded are
// terminal, and a pending payment has nothing held, so it can only move to
// authorized.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAuthorized},
	StatusAuthorized: {StatusReleased, StatusRefunded},
	StatusReleased:   {},
	StatusRefunded:   {},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func Terminal(s Status) bool {
	return len(AllowedTransitions[s]) == 0
}

// Payment is the escrow record for one booking. Amount is the client charge;
// Commission and TechnicianAmount are frozen from the booking quote so the
// split survives later pricing changes.
type Payment struct {
	ID               types.ID
	BookingID        types.ID
	ClientID         types.ID
	Amount           types.Money
	Commission       types.Money
	TechnicianAmount types.Money
	Status           Status
	StatusVersion    int
	ProviderRef      string
	FailureReason    *string
	CreatedAt        time.Time
	AuthorizedAt     *time.Time
	ReleasedAt       *time.Time
	RefundedAt       *time.Time
}
