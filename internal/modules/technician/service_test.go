package technician

import (
	"context"
	"testing"
	"time"

	"fixnow/internal/types"
)

type fakeGeoIndex struct {
	upserts []types.ID
	removes []types.ID
}

func (f *fakeGeoIndex) Upsert(_ context.Context, id types.ID, _ types.Point, _ []types.ID) error {
	f.upserts = append(f.upserts, id)
	return nil
}

func (f *fakeGeoIndex) Remove(_ context.Context, id types.ID, _ []types.ID) error {
	f.removes = append(f.removes, id)
	return nil
}

func seedTech() *Technician {
	return &Technician{
		ID:             "t1",
		Name:           "Mario",
		Position:       types.Point{Lat: 45.46, Lng: 9.19},
		Categories:     []types.ID{"cat_plumbing", "cat_heating"},
		ActionRadiusKm: 25,
		Rating:         4.7,
		CompletedJobs:  88,
		Available:      true,
		Tariffs:        map[types.ID]types.Money{"cat_plumbing": types.NewMoney(90, "EUR")},
	}
}

func TestSupportsAndTariffFor(t *testing.T) {
	tech := seedTech()
	if !tech.Supports("cat_plumbing") || tech.Supports("cat_electrical") {
		t.Fatal("category support mismatch")
	}
	fallback := types.NewMoney(80, "EUR")
	if got := tech.TariffFor("cat_plumbing", fallback); !got.Equal(types.NewMoney(90, "EUR")) {
		t.Fatalf("tariff = %s, want 90.00 EUR", got)
	}
	if got := tech.TariffFor("cat_heating", fallback); !got.Equal(fallback) {
		t.Fatalf("fallback tariff = %s, want 80.00 EUR", got)
	}
}

func TestSetAvailabilitySyncsGeoIndex(t *testing.T) {
	ctx := context.Background()
	geo := &fakeGeoIndex{}
	svc := NewService(NewMemoryStore(seedTech()), geo)

	if err := svc.SetAvailability(ctx, "t1", false); err != nil {
		t.Fatalf("set unavailable: %v", err)
	}
	if len(geo.removes) != 1 || geo.removes[0] != "t1" {
		t.Fatalf("removes = %v, want [t1]", geo.removes)
	}

	if err := svc.SetAvailability(ctx, "t1", true); err != nil {
		t.Fatalf("set available: %v", err)
	}
	if len(geo.upserts) != 1 || geo.upserts[0] != "t1" {
		t.Fatalf("upserts = %v, want [t1]", geo.upserts)
	}
}

func TestUpdateLocationBumpsActivity(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(seedTech()), &fakeGeoIndex{})
	at := time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	if err := svc.UpdateLocation(ctx, "t1", types.Point{Lat: 45.47, Lng: 9.20}); err != nil {
		t.Fatalf("update location: %v", err)
	}
	got, err := svc.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.LastActiveAt.Equal(at) {
		t.Fatalf("last active = %v, want %v", got.LastActiveAt, at)
	}
	if got.Position.Lat != 45.47 {
		t.Fatalf("position = %v", got.Position)
	}
}

func TestRecordCompletion(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(seedTech()), nil)

	if err := svc.RecordCompletion(ctx, "t1"); err != nil {
		t.Fatalf("record completion: %v", err)
	}
	got, _ := svc.Get(ctx, "t1")
	if got.CompletedJobs != 89 {
		t.Fatalf("completed jobs = %d, want 89", got.CompletedJobs)
	}
}
