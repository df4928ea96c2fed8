package matching

import (
	"context"
	"testing"
	"time"

	"fixnow/internal/config"
	"fixnow/internal/modules/catalog"
	"fixnow/internal/modules/pricing"
	"fixnow/internal/modules/technician"
	"fixnow/internal/types"
)

var (
	origin   = types.Point{Lat: 48.8566, Lng: 2.3522}
	plumbing = catalog.Category{
		ID:        "cat_plumbing",
		Name:      "Plumbing",
		Sector:    catalog.SectorDomestic,
		TariffMin: types.NewMoney(80, "EUR"),
	}
)

func testConfig() config.MatchingConfig {
	return config.MatchingConfig{
		MinRadiusKm:   5,
		MaxRadiusKm:   50,
		MaxCandidates: 5,
	}
}

// pointAtKm returns a point roughly km kilometres north of origin.
func pointAtKm(km float64) types.Point {
	return types.Point{Lat: origin.Lat + km/111.19, Lng: origin.Lng}
}

func testTech(id types.ID, distKm, rating float64, jobs int) *technician.Technician {
	return &technician.Technician{
		ID:             id,
		Name:           string(id),
		Position:       pointAtKm(distKm),
		Categories:     []types.ID{"cat_plumbing"},
		ActionRadiusKm: 30,
		Rating:         rating,
		CompletedJobs:  jobs,
		Available:      true,
		LastActiveAt:   time.Now().Add(-2 * time.Hour),
	}
}

func newTestService(techs ...*technician.Technician) *Service {
	store := technician.NewMemoryStore(techs...)
	cat := catalog.NewMemoryStore(plumbing)
	return NewService(store, cat, nil, nil, pricing.NewEngine(), testConfig(), nil)
}

func TestFindCandidatesFilters(t *testing.T) {
	ctx := context.Background()

	near := testTech("t_near", 2, 4.5, 50)
	unavailable := testTech("t_off", 1, 4.9, 80)
	unavailable.Available = false
	wrongCategory := testTech("t_cat", 1, 4.9, 80)
	wrongCategory.Categories = []types.ID{"cat_electrical"}
	tooFar := testTech("t_far", 20, 4.9, 80)
	smallRadius := testTech("t_small", 4, 4.9, 80)
	smallRadius.ActionRadiusKm = 2

	svc := newTestService(near, unavailable, wrongCategory, tooFar, smallRadius)

	got, err := svc.FindCandidates(ctx, origin, "cat_plumbing", 5)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 1 || got[0].Tech.ID != "t_near" {
		t.Fatalf("candidates = %v, want only t_near", got)
	}
}

func TestRankCandidatesOrderAndTruncation(t *testing.T) {
	ctx := context.Background()

	var techs []*technician.Technician
	// All seven inside the 5 km starting radius, so the first pass finds them
	// and the shortlist must still be cut to five.
	for i, id := range []types.ID{"t1", "t2", "t3", "t4", "t5", "t6", "t7"} {
		techs = append(techs, testTech(id, float64(i)*0.5+0.5, 4.0, 50))
	}
	svc := newTestService(techs...)

	ranked, err := svc.RankCandidates(ctx, Request{
		BookingID:  "b1",
		CategoryID: "cat_plumbing",
		Origin:     origin,
		Urgency:    pricing.UrgencyNormal,
		Sector:     catalog.SectorDomestic,
	})
	if err != nil {
		t.Fatalf("RankCandidates: %v", err)
	}
	if len(ranked) != 5 {
		t.Fatalf("len = %d, want 5", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("not sorted by score: %v", ranked)
		}
	}
	// Equal rating and experience, so closest wins.
	if ranked[0].TechnicianID != "t1" {
		t.Fatalf("top candidate = %s, want t1", ranked[0].TechnicianID)
	}
}

func TestRankCandidatesZeroStartRadius(t *testing.T) {
	ctx := context.Background()

	tech := testTech("t_zero", 3, 4.2, 40)
	store := technician.NewMemoryStore(tech)
	cat := catalog.NewMemoryStore(plumbing)
	cfg := config.MatchingConfig{MinRadiusKm: 0, MaxRadiusKm: 50, MaxCandidates: 5}
	svc := NewService(store, cat, nil, nil, pricing.NewEngine(), cfg, nil)

	ranked, err := svc.RankCandidates(ctx, Request{
		BookingID:  "b_zero",
		CategoryID: "cat_plumbing",
		Origin:     origin,
		Urgency:    pricing.UrgencyNormal,
		Sector:     catalog.SectorDomestic,
	})
	if err != nil {
		t.Fatalf("RankCandidates: %v", err)
	}
	if len(ranked) != 1 || ranked[0].TechnicianID != "t_zero" {
		t.Fatalf("ranked = %v, want t_zero", ranked)
	}
}

func TestRankCandidatesRadiusEscalation(t *testing.T) {
	ctx := context.Background()

	// 18 km away: outside the 5 km start, found after two doublings.
	distant := testTech("t_distant", 18, 4.5, 60)
	svc := newTestService(distant)

	ranked, err := svc.RankCandidates(ctx, Request{
		BookingID:  "b2",
		CategoryID: "cat_plumbing",
		Origin:     origin,
		Urgency:    pricing.UrgencyNormal,
		Sector:     catalog.SectorDomestic,
	})
	if err != nil {
		t.Fatalf("RankCandidates: %v", err)
	}
	if len(ranked) != 1 || ranked[0].TechnicianID != "t_distant" {
		t.Fatalf("ranked = %v, want t_distant found by escalation", ranked)
	}
}

func TestRankCandidatesEmptyBeyondCeiling(t *testing.T) {
	ctx := context.Background()

	// Within the 50 km ceiling but outside the technician's own action radius.
	unreachable := testTech("t_unreach", 45, 4.5, 60)
	svc := newTestService(unreachable)

	ranked, err := svc.RankCandidates(ctx, Request{
		BookingID:  "b3",
		CategoryID: "cat_plumbing",
		Origin:     origin,
		Urgency:    pricing.UrgencyNormal,
		Sector:     catalog.SectorDomestic,
	})
	if err != nil {
		t.Fatalf("RankCandidates: %v", err)
	}
	if len(ranked) != 0 {
		t.Fatalf("ranked = %v, want empty", ranked)
	}
}

func TestRankCandidatesUnknownCategory(t *testing.T) {
	svc := newTestService(testTech("t1", 2, 4.0, 50))
	_, err := svc.RankCandidates(context.Background(), Request{
		BookingID:  "b4",
		CategoryID: "cat_nope",
		Origin:     origin,
		Urgency:    pricing.UrgencyNormal,
		Sector:     catalog.SectorDomestic,
	})
	if err != ErrUnknownCategory {
		t.Fatalf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestEtaMinutes(t *testing.T) {
	cases := []struct {
		km   float64
		want int
	}{
		{1, 15},
		{7, 15},
		{7.5, 15},
		{10, 20},
		{25.4, 51},
	}
	for _, c := range cases {
		if got := etaMinutes(c.km); got != c.want {
			t.Errorf("etaMinutes(%v) = %d, want %d", c.km, got, c.want)
		}
	}
}
