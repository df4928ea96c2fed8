package pricing

import (
	"testing"
	"time"

	"fixnow/internal/modules/catalog"
	"fixnow/internal/types"
)

func cat(tariff float64) catalog.Category {
	return catalog.Category{
		ID:        "cat_plumbing",
		Name:      "Plumbing",
		Sector:    catalog.SectorDomestic,
		TariffMin: types.NewMoney(tariff, "EUR"),
	}
}

// Saturday 23:00: emergency, hospitality, night, and weekend all apply.
var saturdayNight = time.Date(2026, 3, 7, 23, 0, 0, 0, time.UTC)

// Tuesday 14:00: nothing applies.
var tuesdayAfternoon = time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC)

func TestQuoteAllSurcharges(t *testing.T) {
	e := NewEngine()
	b := e.Quote(cat(100), UrgencyEmergency, catalog.SectorHospitality, saturdayNight)

	if !b.Final.Equal(types.NewMoney(455, "EUR")) {
		t.Fatalf("final = %s, want 455.00 EUR", b.Final)
	}
	if b.CommissionRate != 0.06 {
		t.Fatalf("commission rate = %v, want 0.06", b.CommissionRate)
	}
	if !b.Commission.Equal(types.NewMoney(27.30, "EUR")) {
		t.Fatalf("commission = %s, want 27.30 EUR", b.Commission)
	}
	if !b.TechnicianAmount.Equal(types.NewMoney(427.70, "EUR")) {
		t.Fatalf("technician amount = %s, want 427.70 EUR", b.TechnicianAmount)
	}

	wantTags := []string{"emergency", "hospitality", "night", "weekend"}
	if len(b.Surcharges) != len(wantTags) {
		t.Fatalf("surcharges = %v, want tags %v", b.Surcharges, wantTags)
	}
	for i, tag := range wantTags {
		if b.Surcharges[i].Tag != tag {
			t.Errorf("surcharge[%d].Tag = %s, want %s", i, b.Surcharges[i].Tag, tag)
		}
	}
}

func TestQuoteNoSurcharges(t *testing.T) {
	e := NewEngine()
	b := e.Quote(cat(70), UrgencyNormal, catalog.SectorDomestic, tuesdayAfternoon)

	if !b.Final.Equal(types.NewMoney(70, "EUR")) {
		t.Fatalf("final = %s, want 70.00 EUR", b.Final)
	}
	if !b.Commission.Equal(types.NewMoney(5.60, "EUR")) {
		t.Fatalf("commission = %s, want 5.60 EUR", b.Commission)
	}
	if !b.TechnicianAmount.Equal(types.NewMoney(64.40, "EUR")) {
		t.Fatalf("technician amount = %s, want 64.40 EUR", b.TechnicianAmount)
	}
	if len(b.Surcharges) != 0 {
		t.Fatalf("expected no surcharges, got %v", b.Surcharges)
	}
}

func TestQuoteSplitAlwaysReconciles(t *testing.T) {
	e := NewEngine()
	urgencies := []Urgency{UrgencyNormal, UrgencyUrgent, UrgencyEmergency}
	sectors := []catalog.Sector{catalog.SectorDomestic, catalog.SectorHospitality}
	times := []time.Time{saturdayNight, tuesdayAfternoon}

	for _, u := range urgencies {
		for _, s := range sectors {
			for _, at := range times {
				b := e.Quote(cat(83.33), u, s, at)
				sum := b.Commission.Add(b.TechnicianAmount)
				if !sum.Equal(b.Final) {
					t.Errorf("%s/%s at %s: commission + technician = %s, final = %s",
						u, s, at, sum, b.Final)
				}
			}
		}
	}
}

func TestQuoteUrgencyMonotonic(t *testing.T) {
	e := NewEngine()
	normal := e.Quote(cat(100), UrgencyNormal, catalog.SectorDomestic, tuesdayAfternoon)
	urgent := e.Quote(cat(100), UrgencyUrgent, catalog.SectorDomestic, tuesdayAfternoon)
	emergency := e.Quote(cat(100), UrgencyEmergency, catalog.SectorDomestic, tuesdayAfternoon)

	if !urgent.Final.GreaterOrEqual(normal.Final) || urgent.Final.Equal(normal.Final) {
		t.Fatalf("urgent (%s) should exceed normal (%s)", urgent.Final, normal.Final)
	}
	if !emergency.Final.GreaterOrEqual(urgent.Final) || emergency.Final.Equal(urgent.Final) {
		t.Fatalf("emergency (%s) should exceed urgent (%s)", emergency.Final, urgent.Final)
	}
}

func TestNightWindowBoundaries(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		hour      int
		wantNight bool
	}{
		{21, false},
		{22, true},
		{23, true},
		{0, true},
		{5, true},
		{6, false},
		{14, false},
	}
	for _, c := range cases {
		at := time.Date(2026, 3, 3, c.hour, 0, 0, 0, time.UTC) // Tuesday
		b := e.Quote(cat(100), UrgencyNormal, catalog.SectorDomestic, at)
		night := false
		for _, s := range b.Surcharges {
			if s.Tag == "night" {
				night = true
			}
		}
		if night != c.wantNight {
			t.Errorf("hour %d: night = %v, want %v", c.hour, night, c.wantNight)
		}
	}
}

func TestResponseTimeout(t *testing.T) {
	cases := []struct {
		urgency Urgency
		want    time.Duration
	}{
		{UrgencyNormal, 4 * time.Hour},
		{UrgencyUrgent, time.Hour},
		{UrgencyEmergency, 15 * time.Minute},
	}
	for _, c := range cases {
		if got := ResponseTimeout(c.urgency); got != c.want {
			t.Errorf("ResponseTimeout(%s) = %v, want %v", c.urgency, got, c.want)
		}
	}
}

func TestTechnicianEstimateWholeEuros(t *testing.T) {
	e := NewEngine()
	// 85 × 1.3 = 110.5 → 111 whole euros, half away from zero.
	got := e.TechnicianEstimate(types.NewMoney(85, "EUR"), UrgencyUrgent, catalog.SectorDomestic)
	if got.Cents() != 11100 {
		t.Fatalf("estimate = %s, want 111.00 EUR", got)
	}
}
