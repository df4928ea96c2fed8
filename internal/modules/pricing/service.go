// README: Pricing engine: ordered multiplicative surcharges and commission split.
package pricing

import (
	"time"

	"fixnow/internal/modules/catalog"
	"fixnow/internal/types"
)

// Engine computes quotes. It is pure: no stores, no side effects, safe for
// concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Quote prices a category/urgency/sector combination at the given local time.
// The base is the category's minimum tariff. Multipliers apply in a fixed
// order (urgency, sector, night, weekend); only factors that actually apply
// are recorded in the breakdown.
func (e *Engine) Quote(cat catalog.Category, urgency Urgency, sector catalog.Sector, now time.Time) Breakdown {
	base := cat.TariffMin
	amount := base
	var surcharges []Surcharge

	apply := func(tag string, factor float64) {
		amount = amount.MulFactor(factor)
		surcharges = append(surcharges, Surcharge{Tag: tag, Factor: factor})
	}

	switch urgency {
	case UrgencyUrgent:
		apply("urgency", factorUrgent)
	case UrgencyEmergency:
		apply("emergency", factorEmergency)
	}

	if sector == catalog.SectorHospitality {
		apply("hospitality", factorHospitality)
	}

	if h := now.Hour(); h >= 22 || h < 6 {
		apply("night", factorNight)
	}

	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		apply("weekend", factorWeekend)
	}

	final := amount.Round2()
	rate := CommissionRate(sector)
	commission := final.MulFactor(rate).Round2()

	return Breakdown{
		Base:             base,
		Surcharges:       surcharges,
		Final:            final,
		CommissionRate:   rate,
		Commission:       commission,
		TechnicianAmount: final.Sub(commission),
	}
}

// CommissionRate is the platform's cut for the sector.
func CommissionRate(sector catalog.Sector) float64 {
	if sector == catalog.SectorHospitality {
		return commissionHospitality
	}
	return commissionDomestic
}

// TechnicianEstimate prices a single candidate from their own tariff, urgency
// and sector factors only. It is a display estimate for the ranked list, not
// the binding quote, and rounds to whole euros.
func (e *Engine) TechnicianEstimate(tariff types.Money, urgency Urgency, sector catalog.Sector) types.Money {
	amount := tariff
	switch urgency {
	case UrgencyUrgent:
		amount = amount.MulFactor(factorUrgent)
	case UrgencyEmergency:
		amount = amount.MulFactor(factorEmergency)
	}
	if sector == catalog.SectorHospitality {
		amount = amount.MulFactor(factorHospitality)
	}
	return types.Money{Amount: amount.Amount.Round(0), Currency: amount.Currency}
}

// ResponseTimeout is how long a booking of the given urgency stays pending
// before the expiry sweep retires it.
func ResponseTimeout(u Urgency) time.Duration {
	switch u {
	case UrgencyEmergency:
		return 15 * time.Minute
	case UrgencyUrgent:
		return time.Hour
	default:
		return 4 * time.Hour
	}
}
