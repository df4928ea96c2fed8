// README: Weighted candidate scoring.
package matching

import (
	"math"
	"time"

	"fixnow/internal/modules/pricing"
	"fixnow/internal/modules/technician"
)

const (
	weightDistance   = 0.4
	weightRating     = 0.3
	weightExperience = 0.2
	weightRecency    = 0.1

	// recencyWindow is how recently a technician must have been active to
	// earn the emergency bonus.
	recencyWindow = 30 * time.Minute
	recencyBonus  = 20.0

	experienceCap = 10.0
)

// Score ranks a candidate for a booking. Distance dominates (40%), then
// rating (30%), experience (20%), and an activity bonus on emergencies (10%).
// A candidate past 50 km scores a negative distance term rather than being
// excluded here; radius filtering is the geo index's job. The result is
// clamped at zero and rounded to two decimals.
func Score(t *technician.Technician, distanceKm float64, urgency pricing.Urgency, now time.Time) float64 {
	s := (50 - distanceKm) * weightDistance
	s += (t.Rating - 3) * 10 * weightRating
	s += math.Min(float64(t.CompletedJobs)/10, experienceCap) * weightExperience

	if urgency == pricing.UrgencyEmergency && now.Sub(t.LastActiveAt) < recencyWindow {
		s += recencyBonus * weightRecency
	}

	return math.Max(0, math.Round(s*100)/100)
}
