// README: Urgency levels, surcharge factors, and the quote breakdown.
package pricing

import "fixnow/internal/types"

type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

const (
	factorUrgent    = 1.3
	factorEmergency = 2.0
	// Hospitality clients (hotels, B&Bs) pay a surcharge, not a discount.
	factorHospitality = 1.3
	// Night window is [22:00, 06:00) local time.
	factorNight   = 1.4
	factorWeekend = 1.25

	commissionDomestic    = 0.08
	commissionHospitality = 0.06
)

// Surcharge is one applied multiplier in a quote, in application order.
type Surcharge struct {
	Tag    string  `json:"tag"`
	Factor float64 `json:"factor"`
}

// Breakdown is the full arithmetic of a quote. TechnicianAmount is derived by
// subtraction from the rounded final and commission, so the three amounts
// always reconcile to the cent.
type Breakdown struct {
	Base             types.Money
	Surcharges       []Surcharge
	Final            types.Money
	CommissionRate   float64
	Commission       types.Money
	TechnicianAmount types.Money
}
