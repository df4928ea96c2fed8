// README: Booking service implements lifecycle transitions and the expiry sweep.
package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fixnow/internal/modules/catalog"
	"fixnow/internal/modules/matching"
	"fixnow/internal/modules/pricing"
	"fixnow/internal/types"
)

var (
	// ErrValidation covers malformed requests and unknown categories.
	ErrValidation = errors.New("invalid booking request")
	// ErrNoLocation means the client supplied no usable coordinates.
	ErrNoLocation = errors.New("usable location required")
	ErrNotFound   = errors.New("booking not found")
	// ErrConflict means the requested transition lost to another writer or the
	// caller is not entitled to it; the booking is "no longer available".
	ErrConflict = errors.New("booking no longer available")
)

// Quoter prices a booking at creation time.
type Quoter interface {
	Quote(cat catalog.Category, urgency pricing.Urgency, sector catalog.Sector, now time.Time) pricing.Breakdown
}

// Ranker produces the ordered candidate list used to notify technicians.
type Ranker interface {
	RankCandidates(ctx context.Context, req matching.Request) ([]matching.RankedTechnician, error)
}

// Notifier delivers best-effort pushes; implementations swallow and log errors.
type Notifier interface {
	Notify(ctx context.Context, userID types.ID, title, body string, data map[string]string)
}

// Escrow is the payment side-channel: release on completion, refund on cancel.
type Escrow interface {
	ReleaseForBooking(ctx context.Context, bookingID types.ID) error
	RefundForBooking(ctx context.Context, bookingID types.ID, reason string) error
}

// Geocoder resolves coordinates to a display address, best effort.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p types.Point) (string, error)
}

// TechnicianStats records a finished job against the technician's profile.
type TechnicianStats interface {
	RecordCompletion(ctx context.Context, id types.ID) error
}

type Service struct {
	store    Store
	catalog  catalog.Store
	quoter   Quoter
	ranker   Ranker
	notifier Notifier
	escrow   Escrow
	geocoder Geocoder
	stats    TechnicianStats
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, cat catalog.Store, quoter Quoter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		catalog: cat,
		quoter:  quoter,
		logger:  logger,
		now:     time.Now,
	}
}

// Optional collaborators; the core lifecycle works without any of them.

func (s *Service) WithRanker(r Ranker) *Service            { s.ranker = r; return s }
func (s *Service) WithNotifier(n Notifier) *Service        { s.notifier = n; return s }
func (s *Service) WithEscrow(e Escrow) *Service            { s.escrow = e; return s }
func (s *Service) WithGeocoder(g Geocoder) *Service        { s.geocoder = g; return s }
func (s *Service) WithTechnicianStats(t TechnicianStats) *Service { s.stats = t; return s }

type CreateCommand struct {
	ClientID    types.ID
	CategoryID  types.ID
	Title       string
	Description string
	Urgency     pricing.Urgency
	Sector      catalog.Sector
	Location    types.Point
	Address     string
	AccessNotes string
}

type AcceptCommand struct {
	BookingID    types.ID
	TechnicianID types.ID
	ETAMinutes   int
}

type ArriveCommand struct {
	BookingID    types.ID
	TechnicianID types.ID
}

type CompleteCommand struct {
	BookingID    types.ID
	TechnicianID types.ID
	FinalCost    types.Money
}

type CancelCommand struct {
	BookingID types.ID
	ActorType string
	ActorID   *types.ID
	Reason    string
}

// Create validates the request, prices it, and stores a pending booking with
// an urgency-derived expiry deadline. Top-ranked technicians are notified
// best-effort.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.ClientID == "" || cmd.CategoryID == "" {
		return nil, ErrValidation
	}
	title := strings.TrimSpace(cmd.Title)
	description := strings.TrimSpace(cmd.Description)
	if title == "" || description == "" {
		return nil, ErrValidation
	}
	if cmd.Location.IsZero() {
		return nil, ErrNoLocation
	}
	urgency := cmd.Urgency
	if urgency == "" {
		urgency = pricing.UrgencyNormal
	}
	if !pricing.ValidUrgency(urgency) {
		return nil, ErrValidation
	}
	sector := cmd.Sector
	if sector == "" {
		sector = catalog.SectorDomestic
	}
	if !catalog.ValidSector(sector) {
		return nil, ErrValidation
	}

	cat, err := s.catalog.Get(ctx, cmd.CategoryID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrValidation
		}
		return nil, err
	}

	now := s.now()
	quote := s.quoter.Quote(cat, urgency, sector, now)

	address := strings.TrimSpace(cmd.Address)
	if address == "" && s.geocoder != nil {
		if resolved, err := s.geocoder.ReverseGeocode(ctx, cmd.Location); err == nil {
			address = resolved
		} else {
			s.logger.Debug("reverse geocode failed", zap.Error(err))
		}
	}

	b := &Booking{
		ID:               types.ID(uuid.NewString()),
		Code:             newBookingCode(),
		ClientID:         cmd.ClientID,
		CategoryID:       cmd.CategoryID,
		Title:            title,
		Description:      description,
		Urgency:          urgency,
		Sector:           sector,
		Location:         cmd.Location,
		Address:          address,
		AccessNotes:      cmd.AccessNotes,
		Status:           StatusPending,
		StatusVersion:    0,
		QuotedPrice:      quote.Final,
		Surcharges:       quote.Surcharges,
		CommissionRate:   quote.CommissionRate,
		Commission:       quote.Commission,
		TechnicianPayout: quote.TechnicianAmount,
		BudgetMax:        quote.Final.MulFactor(1.2).Round2(),
		CreatedAt:        now,
		ExpiresAt:        now.Add(pricing.ResponseTimeout(urgency)),
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "client",
		ActorID:    &cmd.ClientID,
		CreatedAt:  now,
	})

	s.notifyCandidates(ctx, b)
	return b, nil
}

// Accept assigns the booking to the calling technician. The store-level CAS is
// the whole concurrency story: with N racing accepters exactly one guard
// matches and the rest get ErrConflict.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Booking, error) {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPending {
		return nil, ErrConflict
	}
	var eta *int
	if cmd.ETAMinutes > 0 {
		eta = &cmd.ETAMinutes
	}
	ok, err := s.store.UpdateStatus(ctx, StatusUpdate{
		ID:           b.ID,
		From:         StatusPending,
		To:           StatusAccepted,
		Version:      b.StatusVersion,
		TechnicianID: &cmd.TechnicianID,
		ETAMinutes:   eta,
		At:           s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: StatusPending,
		ToStatus:   StatusAccepted,
		ActorType:  "technician",
		ActorID:    &cmd.TechnicianID,
		CreatedAt:  s.now(),
	})
	if s.notifier != nil {
		body := "A technician accepted your request."
		if cmd.ETAMinutes > 0 {
			body = "A technician accepted your request and is on the way."
		}
		s.notifier.Notify(ctx, b.ClientID, "Technician assigned", body, map[string]string{
			"booking_id": string(b.ID),
			"type":       "booking_accepted",
		})
	}
	return s.store.Get(ctx, b.ID)
}

// ConfirmArrival moves an accepted booking to in_progress. Only the assigned
// technician may confirm.
func (s *Service) ConfirmArrival(ctx context.Context, cmd ArriveCommand) (*Booking, error) {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusAccepted || !b.Assigned(cmd.TechnicianID) {
		return nil, ErrConflict
	}
	ok, err := s.store.UpdateStatus(ctx, StatusUpdate{
		ID:      b.ID,
		From:    StatusAccepted,
		To:      StatusInProgress,
		Version: b.StatusVersion,
		At:      s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: StatusAccepted,
		ToStatus:   StatusInProgress,
		ActorType:  "technician",
		ActorID:    &cmd.TechnicianID,
		CreatedAt:  s.now(),
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, b.ClientID, "Technician arrived",
			"The technician is on site and starting the job.", map[string]string{
				"booking_id": string(b.ID),
				"type":       "technician_arrived",
			})
	}
	return s.store.Get(ctx, b.ID)
}

// Complete finishes the job, records the final cost (which may differ from the
// quote), updates the technician's stats, and makes the escrow eligible for
// release.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Booking, error) {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusInProgress || !b.Assigned(cmd.TechnicianID) {
		return nil, ErrConflict
	}
	finalCost := cmd.FinalCost
	if finalCost.IsZero() {
		finalCost = b.QuotedPrice
	}
	ok, err := s.store.UpdateStatus(ctx, StatusUpdate{
		ID:        b.ID,
		From:      StatusInProgress,
		To:        StatusCompleted,
		Version:   b.StatusVersion,
		FinalCost: &finalCost,
		At:        s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: StatusInProgress,
		ToStatus:   StatusCompleted,
		ActorType:  "technician",
		ActorID:    &cmd.TechnicianID,
		CreatedAt:  s.now(),
	})

	if s.stats != nil {
		if err := s.stats.RecordCompletion(ctx, cmd.TechnicianID); err != nil {
			s.logger.Warn("record technician completion failed",
				zap.String("technician_id", string(cmd.TechnicianID)), zap.Error(err))
		}
	}
	if s.escrow != nil {
		// A completed booking with an authorized payment left unreleased is a
		// recoverable inconsistency: log loudly, the release stays retryable.
		if err := s.escrow.ReleaseForBooking(ctx, b.ID); err != nil {
			s.logger.Error("escrow release after completion failed",
				zap.String("booking_id", string(b.ID)), zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, b.ClientID, "Job completed",
			"The technician finished the job. Leave a review!", map[string]string{
				"booking_id": string(b.ID),
				"type":       "booking_completed",
			})
	}
	return s.store.Get(ctx, b.ID)
}

// Cancel terminates a pending or accepted booking and refunds any authorized
// payment. Only the booking's client, its assigned technician, or the system
// may cancel.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Booking, error) {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPending && b.Status != StatusAccepted {
		return nil, ErrConflict
	}
	actorType := cmd.ActorType
	if actorType != "system" {
		if cmd.ActorID == nil {
			return nil, ErrConflict
		}
		switch {
		case *cmd.ActorID == b.ClientID:
			actorType = "client"
		case b.Assigned(*cmd.ActorID):
			actorType = "technician"
		default:
			return nil, ErrConflict
		}
	}
	reason := cmd.Reason
	ok, err := s.store.UpdateStatus(ctx, StatusUpdate{
		ID:           b.ID,
		From:         b.Status,
		To:           StatusCancelled,
		Version:      b.StatusVersion,
		CancelReason: &reason,
		At:           s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   StatusCancelled,
		ActorType:  actorType,
		ActorID:    cmd.ActorID,
		CreatedAt:  s.now(),
	})
	if s.escrow != nil {
		if err := s.escrow.RefundForBooking(ctx, b.ID, reason); err != nil {
			s.logger.Error("escrow refund after cancellation failed",
				zap.String("booking_id", string(b.ID)), zap.Error(err))
		}
	}
	return s.store.Get(ctx, b.ID)
}

// ExpireDue retires pending bookings whose deadline has passed. Each row goes
// through the same CAS as every other transition, so a booking accepted while
// the sweep runs is simply skipped.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	due, err := s.store.ListExpiredPending(ctx, s.now())
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, b := range due {
		ok, err := s.store.UpdateStatus(ctx, StatusUpdate{
			ID:      b.ID,
			From:    StatusPending,
			To:      StatusExpired,
			Version: b.StatusVersion,
			At:      s.now(),
		})
		if err != nil {
			return expired, err
		}
		if !ok {
			continue
		}
		expired++
		_ = s.store.AppendEvent(ctx, &Event{
			BookingID:  b.ID,
			FromStatus: StatusPending,
			ToStatus:   StatusExpired,
			ActorType:  "system",
			CreatedAt:  s.now(),
		})
	}
	return expired, nil
}

// RunExpirySweep drives ExpireDue on a fixed interval until ctx is done.
func (s *Service) RunExpirySweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpireDue(ctx)
			if err != nil {
				s.logger.Warn("expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("expired stale bookings", zap.Int("count", n))
			}
		}
	}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID types.ID, status *Status) ([]*Booking, error) {
	return s.store.ListByClient(ctx, clientID, status)
}

func (s *Service) ListByTechnician(ctx context.Context, techID types.ID, status *Status) ([]*Booking, error) {
	return s.store.ListByTechnician(ctx, techID, status)
}

// QuoteFor exposes the frozen quote split for the escrow record. Closed
// bookings cannot take new money, so only pending and accepted qualify.
func (s *Service) QuoteFor(ctx context.Context, bookingID types.ID) (types.ID, types.Money, types.Money, types.Money, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return "", types.Money{}, types.Money{}, types.Money{}, err
	}
	if b.Status != StatusPending && b.Status != StatusAccepted {
		return "", types.Money{}, types.Money{}, types.Money{}, ErrConflict
	}
	return b.ClientID, b.QuotedPrice, b.Commission, b.TechnicianPayout, nil
}

// MatchRequest builds the matching request for a booking.
func MatchRequest(b *Booking) matching.Request {
	return matching.Request{
		BookingID:  b.ID,
		CategoryID: b.CategoryID,
		Origin:     b.Location,
		Urgency:    b.Urgency,
		Sector:     b.Sector,
	}
}

func (s *Service) notifyCandidates(ctx context.Context, b *Booking) {
	if s.ranker == nil || s.notifier == nil {
		return
	}
	ranked, err := s.ranker.RankCandidates(ctx, MatchRequest(b))
	if err != nil {
		s.logger.Warn("candidate ranking for notification failed",
			zap.String("booking_id", string(b.ID)), zap.Error(err))
		return
	}
	for _, r := range ranked {
		s.notifier.Notify(ctx, r.TechnicianID, "New request available", b.Title, map[string]string{
			"booking_id":  string(b.ID),
			"type":        "new_request",
			"urgency":     string(b.Urgency),
			"category_id": string(b.CategoryID),
		})
	}
}

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newBookingCode returns a short human-readable code like FN7K2QD.
func newBookingCode() string {
	var b [5]byte
	_, _ = rand.Read(b[:])
	out := make([]byte, 5)
	for i, v := range b {
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return "FN" + string(out)
}
