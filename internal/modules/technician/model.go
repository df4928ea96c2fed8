// README: Technician profile aggregate: capabilities, reach, reputation, availability.
package technician

import (
	"time"

	"fixnow/internal/types"
)

type Technician struct {
	ID             types.ID
	Name           string
	Position       types.Point
	Categories     []types.ID
	ActionRadiusKm float64
	Rating         float64 // average client rating, 0-5
	CompletedJobs  int
	Available      bool
	LastActiveAt   time.Time
	// Tariffs is the technician's own base tariff per category, used for the
	// per-candidate price estimate shown in the ranked list.
	Tariffs map[types.ID]types.Money
}

// Supports reports whether the technician is registered for the category.
func (t *Technician) Supports(categoryID types.ID) bool {
	for _, c := range t.Categories {
		if c == categoryID {
			return true
		}
	}
	return false
}

// TariffFor returns the technician's base tariff for a category, falling back
// to the given default when none is registered.
func (t *Technician) TariffFor(categoryID types.ID, fallback types.Money) types.Money {
	if m, ok := t.Tariffs[categoryID]; ok {
		return m
	}
	return fallback
}
