// README: Matching service: geo candidate search, radius escalation, ranking.
package matching

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"fixnow/internal/config"
	"fixnow/internal/modules/catalog"
	"fixnow/internal/modules/pricing"
	"fixnow/internal/modules/technician"
	"fixnow/internal/types"
)

var ErrUnknownCategory = errors.New("unknown category")

// TechnicianSource is the slice of the technician store matching reads.
type TechnicianSource interface {
	Get(ctx context.Context, id types.ID) (*technician.Technician, error)
	ListByCategory(ctx context.Context, categoryID types.ID) ([]*technician.Technician, error)
}

type Service struct {
	techs   TechnicianSource
	catalog catalog.Store
	geo     GeoStore
	cache   RankingCache
	pricing *pricing.Engine
	cfg     config.MatchingConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(techs TechnicianSource, cat catalog.Store, geo GeoStore, cache RankingCache, eng *pricing.Engine, cfg config.MatchingConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		techs:   techs,
		catalog: cat,
		geo:     geo,
		cache:   cache,
		pricing: eng,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// FindCandidates returns available technicians for the category within
// min(radiusKm, technician action radius) of origin. Stateless and free of
// side effects; safe to call concurrently and repeatedly.
func (s *Service) FindCandidates(ctx context.Context, origin types.Point, categoryID types.ID, radiusKm float64) ([]Candidate, error) {
	techs, err := s.shortlist(ctx, origin, categoryID, radiusKm)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, t := range techs {
		if !t.Available || !t.Supports(categoryID) {
			continue
		}
		d := haversineKm(origin, t.Position)
		if d > math.Min(radiusKm, t.ActionRadiusKm) {
			continue
		}
		out = append(out, Candidate{Tech: t, DistanceKm: d})
	}
	return out, nil
}

// shortlist prefers the Redis GEO index and falls back to a full category scan
// when the index is missing or unreachable.
func (s *Service) shortlist(ctx context.Context, origin types.Point, categoryID types.ID, radiusKm float64) ([]*technician.Technician, error) {
	if s.geo != nil {
		hits, err := s.geo.Nearby(ctx, categoryID, origin, radiusKm)
		if err == nil {
			techs := make([]*technician.Technician, 0, len(hits))
			for _, h := range hits {
				t, err := s.techs.Get(ctx, h.ID)
				if err != nil {
					// A stale index entry; skip rather than fail the search.
					continue
				}
				techs = append(techs, t)
			}
			return techs, nil
		}
		s.logger.Warn("geo index unavailable, falling back to store scan",
			zap.String("category", string(categoryID)), zap.Error(err))
	}
	return s.techs.ListByCategory(ctx, categoryID)
}

// RankCandidates produces the ordered, priced candidate list for a booking.
// The search starts at the configured minimum radius and doubles until
// candidates appear or the ceiling is hit. Results are cached per booking.
func (s *Service) RankCandidates(ctx context.Context, req Request) ([]RankedTechnician, error) {
	if s.cache != nil {
		if ranked, ok := s.cache.Get(ctx, req.BookingID); ok {
			return ranked, nil
		}
	}

	var candidates []Candidate
	radius := s.cfg.MinRadiusKm
	if radius <= 0 {
		// A non-positive start would never grow under doubling.
		radius = 1
	}
	for {
		var err error
		candidates, err = s.FindCandidates(ctx, req.Origin, req.CategoryID, radius)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 || radius >= s.cfg.MaxRadiusKm {
			break
		}
		radius = math.Min(radius*2, s.cfg.MaxRadiusKm)
	}

	cat, err := s.catalog.Get(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrUnknownCategory
		}
		return nil, err
	}
	fallbackTariff := cat.TariffMin
	if fallbackTariff.IsZero() {
		fallbackTariff = types.NewMoney(80, "EUR")
	}

	now := s.now()
	ranked := make([]RankedTechnician, 0, len(candidates))
	for _, c := range candidates {
		est := s.pricing.TechnicianEstimate(c.Tech.TariffFor(req.CategoryID, fallbackTariff), req.Urgency, req.Sector)
		ranked = append(ranked, RankedTechnician{
			TechnicianID:   c.Tech.ID,
			Name:           c.Tech.Name,
			DistanceKm:     math.Round(c.DistanceKm*10) / 10,
			Score:          Score(c.Tech, c.DistanceKm, req.Urgency, now),
			Rating:         c.Tech.Rating,
			CompletedJobs:  c.Tech.CompletedJobs,
			ETAMinutes:     etaMinutes(c.DistanceKm),
			EstimatedPrice: est,
			PriceEstimate:  est.Cents() / 100,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Rating > ranked[j].Rating
	})

	if max := s.cfg.MaxCandidates; max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}

	if s.cache != nil {
		s.cache.Set(ctx, req.BookingID, ranked)
	}
	return ranked, nil
}

// etaMinutes estimates arrival time at 2 minutes per kilometre, floored at 15.
func etaMinutes(distanceKm float64) int {
	eta := int(math.Round(distanceKm * 2))
	if eta < 15 {
		return 15
	}
	return eta
}
