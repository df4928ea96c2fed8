package payment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fixnow/internal/types"
)

var (
	ErrNotFound = errors.New("payment not found")
	// ErrDuplicate means the booking already has an escrow record; the unique
	// index on payments.booking_id enforces one record per booking.
	ErrDuplicate = errors.New("payment already exists for booking")
)

// Transition is a conditional status update; it only lands when the stored
// status and version still match From/Version.
type Transition struct {
	ID            types.ID
	From          Status
	To            Status
	Version       int
	ProviderRef   *string
	FailureReason *string
	At            time.Time
}

type Store interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id types.ID) (*Payment, error)
	GetByBooking(ctx context.Context, bookingID types.ID) (*Payment, error)
	UpdateStatus(ctx context.Context, t Transition) (bool, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const paymentColumns = `id, booking_id, client_id, amount_cents, commission_cents,
	technician_cents, status, status_version, provider_ref, failure_reason,
	created_at, authorized_at, released_at, refunded_at`

func (s *PostgresStore) Create(ctx context.Context, p *Payment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payments (id, booking_id, client_id, amount_cents, commission_cents,
			technician_cents, status, status_version, provider_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.BookingID, p.ClientID,
		p.Amount.Cents(), p.Commission.Cents(), p.TechnicianAmount.Cents(),
		p.Status, p.StatusVersion, p.ProviderRef, p.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Payment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (s *PostgresStore) GetByBooking(ctx context.Context, bookingID types.ID) (*Payment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, bookingID)
	return scanPayment(row)
}

// UpdateStatus applies the conditional write. RowsAffected tells us whether we
// won; concurrent duplicate webhooks lose here and re-read.
func (s *PostgresStore) UpdateStatus(ctx context.Context, t Transition) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE payments
		SET status = $1,
		    status_version = status_version + 1,
		    provider_ref = COALESCE($2, provider_ref),
		    failure_reason = COALESCE($3, failure_reason),
		    authorized_at = CASE WHEN $1 = 'authorized' THEN $4 ELSE authorized_at END,
		    released_at   = CASE WHEN $1 = 'released'   THEN $4 ELSE released_at END,
		    refunded_at   = CASE WHEN $1 = 'refunded'   THEN $4 ELSE refunded_at END
		WHERE id = $5 AND status = $6 AND status_version = $7`,
		t.To, t.ProviderRef, t.FailureReason, t.At,
		t.ID, t.From, t.Version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var amountCents, commissionCents, technicianCents int64
	err := row.Scan(
		&p.ID, &p.BookingID, &p.ClientID,
		&amountCents, &commissionCents, &technicianCents,
		&p.Status, &p.StatusVersion, &p.ProviderRef, &p.FailureReason,
		&p.CreatedAt, &p.AuthorizedAt, &p.ReleasedAt, &p.RefundedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Amount = types.NewMoneyFromCents(amountCents, "EUR")
	p.Commission = types.NewMoneyFromCents(commissionCents, "EUR")
	p.TechnicianAmount = types.NewMoneyFromCents(technicianCents, "EUR")
	return &p, nil
}
