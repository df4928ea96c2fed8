package matching

import (
	"math"
	"testing"

	"fixnow/internal/types"
)

func TestHaversineZeroDistance(t *testing.T) {
	p := types.Point{Lat: 48.8566, Lng: 2.3522}
	if d := haversineKm(p, p); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := types.Point{Lat: 48.8566, Lng: 2.3522}  // Paris
	b := types.Point{Lat: 45.7640, Lng: 4.8357}  // Lyon
	if d1, d2 := haversineKm(a, b), haversineKm(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("asymmetric: %v vs %v", d1, d2)
	}
}

func TestHaversineKnownDistances(t *testing.T) {
	cases := []struct {
		name string
		a, b types.Point
		want float64 // km
		tol  float64
	}{
		{
			name: "paris to lyon",
			a:    types.Point{Lat: 48.8566, Lng: 2.3522},
			b:    types.Point{Lat: 45.7640, Lng: 4.8357},
			want: 392,
			tol:  5,
		},
		{
			name: "one degree latitude",
			a:    types.Point{Lat: 0, Lng: 0},
			b:    types.Point{Lat: 1, Lng: 0},
			want: 111.19,
			tol:  0.5,
		},
		{
			name: "across city",
			a:    types.Point{Lat: 48.8566, Lng: 2.3522},
			b:    types.Point{Lat: 48.8738, Lng: 2.2950},
			want: 4.6,
			tol:  0.3,
		},
	}
	for _, c := range cases {
		got := haversineKm(c.a, c.b)
		if math.Abs(got-c.want) > c.tol {
			t.Errorf("%s: distance = %.2f, want %.2f ± %.2f", c.name, got, c.want, c.tol)
		}
	}
}
