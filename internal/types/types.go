// README: Common identifier and coordinate value objects used across modules.
package types

// ID identifies an entity (client, technician, booking, payment).
type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// IsZero reports whether the point carries no usable coordinates.
// (0,0) is in the Gulf of Guinea and never a real service location here.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}
