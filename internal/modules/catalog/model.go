// README: Service-category reference data (immutable tariff ranges per trade).
package catalog

import "fixnow/internal/types"

// Sector classifies the client side of a booking; it drives both the pricing
// surcharge and the commission rate.
type Sector string

const (
	SectorDomestic    Sector = "domestic"
	SectorHospitality Sector = "hospitality"
)

func ValidSector(s Sector) bool {
	return s == SectorDomestic || s == SectorHospitality
}

// Category is a service trade (plumbing, electrics, HVAC, ...). TariffMin is
// the quoting base; TariffMax is informational only and never enters the
// pricing arithmetic.
type Category struct {
	ID        types.ID
	Name      string
	Icon      string
	Sector    Sector
	TariffMin types.Money
	TariffMax types.Money
}
