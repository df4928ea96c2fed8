// README: Booking store interface and the PostgreSQL implementation.
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fixnow/internal/types"
)

// StatusUpdate is one conditional state transition. The store applies it as a
// single compare-and-swap on (id, from-status, version); concurrent writers
// race and exactly one wins.
type StatusUpdate struct {
	ID           types.ID
	From         Status
	To           Status
	Version      int
	TechnicianID *types.ID
	FinalCost    *types.Money
	CancelReason *string
	ETAMinutes   *int
	At           time.Time
}

type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	// UpdateStatus returns false (and no error) when the guard did not match,
	// i.e. another writer got there first.
	UpdateStatus(ctx context.Context, u StatusUpdate) (bool, error)
	ListByClient(ctx context.Context, clientID types.ID, status *Status) ([]*Booking, error)
	ListByTechnician(ctx context.Context, techID types.ID, status *Status) ([]*Booking, error)
	// ListExpiredPending returns pending bookings whose deadline has passed.
	ListExpiredPending(ctx context.Context, now time.Time) ([]*Booking, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, b *Booking) error {
	surcharges, err := json.Marshal(b.Surcharges)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, code, client_id, category_id, title, description,
			urgency, sector, lat, lng, address, access_notes,
			status, status_version, technician_id,
			quoted_price, surcharges, commission_rate, commission, technician_payout, budget_max,
			created_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19, $20, $21,
			$22, $23
		)`,
		string(b.ID), b.Code, string(b.ClientID), string(b.CategoryID), b.Title, b.Description,
		string(b.Urgency), string(b.Sector), b.Location.Lat, b.Location.Lng, b.Address, b.AccessNotes,
		string(b.Status), b.StatusVersion, idPtr(b.TechnicianID),
		b.QuotedPrice.Cents(), surcharges, b.CommissionRate, b.Commission.Cents(), b.TechnicianPayout.Cents(), b.BudgetMax.Cents(),
		b.CreatedAt, b.ExpiresAt,
	)
	return err
}

const bookingColumns = `
	id, code, client_id, category_id, title, description,
	urgency, sector, lat, lng, address, access_notes,
	status, status_version, technician_id,
	quoted_price, surcharges, commission_rate, commission, technician_payout, budget_max,
	final_cost, eta_minutes, cancel_reason,
	created_at, expires_at, accepted_at, arrived_at, completed_at, cancelled_at, expired_at`

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// UpdateStatus is the CAS at the heart of single acceptance: the WHERE clause
// re-checks status and version so only one of N concurrent writers succeeds.
func (s *PostgresStore) UpdateStatus(ctx context.Context, u StatusUpdate) (bool, error) {
	var tech *string
	if u.TechnicianID != nil {
		v := string(*u.TechnicianID)
		tech = &v
	}
	var finalCost *int64
	if u.FinalCost != nil {
		v := u.FinalCost.Cents()
		finalCost = &v
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    technician_id = COALESCE($2, technician_id),
		    final_cost = COALESCE($3, final_cost),
		    cancel_reason = COALESCE($4, cancel_reason),
		    eta_minutes = COALESCE($5, eta_minutes),
		    accepted_at = CASE WHEN $1 = 'accepted' THEN $6 ELSE accepted_at END,
		    arrived_at = CASE WHEN $1 = 'in_progress' THEN $6 ELSE arrived_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN $6 ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN $6 ELSE cancelled_at END,
		    expired_at = CASE WHEN $1 = 'expired' THEN $6 ELSE expired_at END
		WHERE id = $7 AND status = $8 AND status_version = $9`,
		string(u.To), tech, finalCost, u.CancelReason, u.ETAMinutes, u.At,
		string(u.ID), string(u.From), u.Version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListByClient(ctx context.Context, clientID types.ID, status *Status) ([]*Booking, error) {
	return s.list(ctx, `client_id`, string(clientID), status)
}

func (s *PostgresStore) ListByTechnician(ctx context.Context, techID types.ID, status *Status) ([]*Booking, error) {
	return s.list(ctx, `technician_id`, string(techID), status)
}

func (s *PostgresStore) list(ctx context.Context, column, value string, status *Status) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + column + ` = $1`
	args := []any{value}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (s *PostgresStore) ListExpiredPending(ctx context.Context, now time.Time) ([]*Booking, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = 'pending' AND expires_at < $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (s *PostgresStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_events (
			booking_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID), string(e.FromStatus), string(e.ToStatus),
		e.ActorType, idPtr(e.ActorID), e.CreatedAt,
	)
	return err
}

func collectBookings(rows pgx.Rows) ([]*Booking, error) {
	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type bookingRowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row bookingRowScanner) (*Booking, error) {
	var b Booking
	var techID, cancelReason sql.NullString
	var quoted, commission, payout, budget int64
	var finalCost sql.NullInt64
	var eta sql.NullInt32
	var surchargesJSON []byte
	var acceptedAt, arrivedAt, completedAt, cancelledAt, expiredAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.Code, &b.ClientID, &b.CategoryID, &b.Title, &b.Description,
		&b.Urgency, &b.Sector, &b.Location.Lat, &b.Location.Lng, &b.Address, &b.AccessNotes,
		&b.Status, &b.StatusVersion, &techID,
		&quoted, &surchargesJSON, &b.CommissionRate, &commission, &payout, &budget,
		&finalCost, &eta, &cancelReason,
		&b.CreatedAt, &b.ExpiresAt, &acceptedAt, &arrivedAt, &completedAt, &cancelledAt, &expiredAt,
	)
	if err != nil {
		return nil, err
	}

	if techID.Valid {
		id := types.ID(techID.String)
		b.TechnicianID = &id
	}
	b.QuotedPrice = types.NewMoneyFromCents(quoted, "EUR")
	b.Commission = types.NewMoneyFromCents(commission, "EUR")
	b.TechnicianPayout = types.NewMoneyFromCents(payout, "EUR")
	b.BudgetMax = types.NewMoneyFromCents(budget, "EUR")
	if len(surchargesJSON) > 0 {
		if err := json.Unmarshal(surchargesJSON, &b.Surcharges); err != nil {
			return nil, err
		}
	}
	if finalCost.Valid {
		m := types.NewMoneyFromCents(finalCost.Int64, "EUR")
		b.FinalCost = &m
	}
	if eta.Valid {
		v := int(eta.Int32)
		b.ETAMinutes = &v
	}
	if cancelReason.Valid {
		b.CancelReason = &cancelReason.String
	}
	b.AcceptedAt = timePtr(acceptedAt)
	b.ArrivedAt = timePtr(arrivedAt)
	b.CompletedAt = timePtr(completedAt)
	b.CancelledAt = timePtr(cancelledAt)
	b.ExpiredAt = timePtr(expiredAt)
	return &b, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
