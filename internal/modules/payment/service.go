// README: Payment service runs the escrow lifecycle: hold on acceptance,
// capture on completion, refund on cancellation. Repeated calls for a state
// already reached are no-ops; anything else out of order is an illegal
// transition and gets logged loudly.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fixnow/internal/types"
)

var (
	// ErrIllegalTransition means the caller asked for a move the state machine
	// forbids, e.g. releasing a refunded payment.
	ErrIllegalTransition = errors.New("illegal payment transition")
	// ErrUnavailable wraps gateway failures; the escrow state is unchanged and
	// the call can be retried.
	ErrUnavailable = errors.New("payment provider unavailable")
)

// BookingSource is the slice of the booking module the escrow needs.
type BookingSource interface {
	QuoteFor(ctx context.Context, bookingID types.ID) (clientID types.ID, amount, commission, technicianAmount types.Money, err error)
}

type Service struct {
	store    Store
	gateway  Gateway
	bookings BookingSource
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, gateway Gateway, bookings BookingSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		gateway:  gateway,
		bookings: bookings,
		logger:   logger,
		now:      time.Now,
	}
}

// Initialize creates the pending escrow record for a booking. Calling it again
// for the same booking returns the existing record.
func (s *Service) Initialize(ctx context.Context, bookingID types.ID) (*Payment, error) {
	if existing, err := s.store.GetByBooking(ctx, bookingID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	clientID, amount, commission, technicianAmount, err := s.bookings.QuoteFor(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	p := &Payment{
		ID:               types.ID(uuid.NewString()),
		BookingID:        bookingID,
		ClientID:         clientID,
		Amount:           amount,
		Commission:       commission,
		TechnicianAmount: technicianAmount,
		Status:           StatusPending,
		CreatedAt:        s.now(),
	}
	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost a create race; the winner's record is the escrow.
			return s.store.GetByBooking(ctx, bookingID)
		}
		return nil, err
	}
	return p, nil
}

// Authorize places the hold on the client's card and moves the escrow to
// authorized. Authorizing an already-authorized payment is a no-op.
func (s *Service) Authorize(ctx context.Context, paymentID types.ID) (*Payment, error) {
	p, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusAuthorized {
		return p, nil
	}
	if !CanTransition(p.Status, StatusAuthorized) {
		s.logIllegal(p, StatusAuthorized)
		return nil, ErrIllegalTransition
	}
	ref, err := s.gateway.Authorize(ctx, p)
	if err != nil {
		s.logger.Warn("gateway authorize failed",
			zap.String("payment_id", string(p.ID)), zap.Error(err))
		return nil, errors.Join(ErrUnavailable, err)
	}
	return s.transition(ctx, p, StatusAuthorized, &ref, nil)
}

// Release captures the held funds. Releasing a released payment is a no-op.
func (s *Service) Release(ctx context.Context, paymentID types.ID) (*Payment, error) {
	p, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusReleased {
		return p, nil
	}
	if !CanTransition(p.Status, StatusReleased) {
		s.logIllegal(p, StatusReleased)
		return nil, ErrIllegalTransition
	}
	if err := s.gateway.Capture(ctx, p.ProviderRef, p.Amount); err != nil {
		s.logger.Warn("gateway capture failed",
			zap.String("payment_id", string(p.ID)), zap.Error(err))
		return nil, errors.Join(ErrUnavailable, err)
	}
	return s.transition(ctx, p, StatusReleased, nil, nil)
}

// Refund voids the hold or returns the funds. Refunding a refunded payment is
// a no-op.
func (s *Service) Refund(ctx context.Context, paymentID types.ID, reason string) (*Payment, error) {
	p, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusRefunded {
		return p, nil
	}
	if !CanTransition(p.Status, StatusRefunded) {
		s.logIllegal(p, StatusRefunded)
		return nil, ErrIllegalTransition
	}
	if err := s.gateway.Refund(ctx, p.ProviderRef, reason); err != nil {
		s.logger.Warn("gateway refund failed",
			zap.String("payment_id", string(p.ID)), zap.Error(err))
		return nil, errors.Join(ErrUnavailable, err)
	}
	var failure *string
	if reason != "" {
		failure = &reason
	}
	return s.transition(ctx, p, StatusRefunded, nil, failure)
}

// ReleaseForBooking and RefundForBooking are the booking module's view of the
// escrow. Missing payment records are tolerated: not every booking goes
// through the payment flow.

func (s *Service) ReleaseForBooking(ctx context.Context, bookingID types.ID) error {
	p, err := s.store.GetByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	_, err = s.Release(ctx, p.ID)
	return err
}

func (s *Service) RefundForBooking(ctx context.Context, bookingID types.ID, reason string) error {
	p, err := s.store.GetByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	// Nothing is held for a pending payment; the cancelled booking simply
	// never gets authorized.
	if p.Status == StatusPending {
		return nil
	}
	_, err = s.Refund(ctx, p.ID, reason)
	return err
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Payment, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetByBooking(ctx context.Context, bookingID types.ID) (*Payment, error) {
	return s.store.GetByBooking(ctx, bookingID)
}

// transition applies the conditional write. Losing the write means another
// caller got there first, so re-read: if they landed us in the target state
// the duplicate resolves to a no-op.
func (s *Service) transition(ctx context.Context, p *Payment, to Status, ref, failure *string) (*Payment, error) {
	ok, err := s.store.UpdateStatus(ctx, Transition{
		ID:            p.ID,
		From:          p.Status,
		To:            to,
		Version:       p.StatusVersion,
		ProviderRef:   ref,
		FailureReason: failure,
		At:            s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.store.Get(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if current.Status == to {
			return current, nil
		}
		s.logIllegal(current, to)
		return nil, ErrIllegalTransition
	}
	return s.store.Get(ctx, p.ID)
}

func (s *Service) logIllegal(p *Payment, to Status) {
	s.logger.Error("illegal payment transition attempted",
		zap.String("payment_id", string(p.ID)),
		zap.String("booking_id", string(p.BookingID)),
		zap.String("from", string(p.Status)),
		zap.String("to", string(to)),
	)
}
