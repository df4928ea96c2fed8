package maps

import (
	"context"
	"fmt"

	gmaps "googlemaps.github.io/maps"

	"fixnow/internal/types"
)

// Geocoder turns coordinates into a human-readable address for booking
// confirmations.
type Geocoder struct {
	client *gmaps.Client
}

func NewGeocoder(apiKey string) (*Geocoder, error) {
	client, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Geocoder{client: client}, nil
}

func (g *Geocoder) ReverseGeocode(ctx context.Context, p types.Point) (string, error) {
	results, err := g.client.ReverseGeocode(ctx, &gmaps.GeocodingRequest{
		LatLng: &gmaps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no address for %.5f,%.5f", p.Lat, p.Lng)
	}
	return results[0].FormattedAddress, nil
}
