// README: Matching candidates and the ranked result presented to clients.
package matching

import (
	"fixnow/internal/modules/catalog"
	"fixnow/internal/modules/pricing"
	"fixnow/internal/modules/technician"
	"fixnow/internal/types"
)

// Candidate is a technician inside the search radius, before scoring.
type Candidate struct {
	Tech       *technician.Technician
	DistanceKm float64
}

// Request carries the booking attributes matching needs; the booking module
// builds one so matching stays independent of the booking aggregate.
type Request struct {
	BookingID  types.ID
	CategoryID types.ID
	Origin     types.Point
	Urgency    pricing.Urgency
	Sector     catalog.Sector
}

// RankedTechnician is one entry of the client-facing candidate list.
type RankedTechnician struct {
	TechnicianID   types.ID    `json:"technician_id"`
	Name           string      `json:"name"`
	DistanceKm     float64     `json:"distance_km"`
	Score          float64     `json:"score"`
	Rating         float64     `json:"rating"`
	CompletedJobs  int         `json:"completed_jobs"`
	ETAMinutes     int         `json:"eta_minutes"`
	EstimatedPrice types.Money `json:"-"`
	// PriceEstimate is the JSON-friendly whole-euro estimate.
	PriceEstimate int64 `json:"price_estimate"`
}
