// README: Booking aggregate and status definitions.
package booking

import (
	"time"

	"fixnow/internal/modules/catalog"
	"fixnow/internal/modules/pricing"
	"fixnow/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

type Booking struct {
	ID            types.ID
	Code          string
	ClientID      types.ID
	CategoryID    types.ID
	Title         string
	Description   string
	Urgency       pricing.Urgency
	Sector        catalog.Sector
	Location      types.Point
	Address       string
	AccessNotes   string
	Status        Status
	StatusVersion int
	TechnicianID  *types.ID

	// Quote fields, frozen at creation.
	QuotedPrice      types.Money
	Surcharges       []pricing.Surcharge
	CommissionRate   float64
	Commission       types.Money
	TechnicianPayout types.Money
	BudgetMax        types.Money

	FinalCost    *types.Money
	ETAMinutes   *int
	CancelReason *string

	CreatedAt   time.Time
	ExpiresAt   time.Time
	AcceptedAt  *time.Time
	ArrivedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	ExpiredAt   *time.Time
}

// Event is one row of the booking audit log.
type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the booking state flow as code. Once a booking
// leaves pending it never returns, and completed/cancelled/expired are final.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled, StatusExpired},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a booking in this status is immutable.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired
}

// Assigned reports whether tech is the booking's assigned technician.
func (b *Booking) Assigned(tech types.ID) bool {
	return b.TechnicianID != nil && *b.TechnicianID == tech
}
