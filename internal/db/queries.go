// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries run inside or
// outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

const listComplexes = `
SELECT id, name, district, province, department, verified, owner_phone,
       culqi_enabled, culqi_public_key, timezone, created_at
FROM complexes
ORDER BY name
`

func (q *Queries) ListComplexes(ctx context.Context) ([]Complex, error) {
	rows, err := q.db.QueryContext(ctx, listComplexes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Complex
	for rows.Next() {
		var c Complex
		if err := rows.Scan(
			&c.ID, &c.Name, &c.District, &c.Province, &c.Department,
			&c.Verified, &c.OwnerPhone, &c.CulqiEnabled, &c.CulqiPublicKey,
			&c.Timezone, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const getComplex = `
SELECT id, name, district, province, department, verified, owner_phone,
       culqi_enabled, culqi_public_key, timezone, created_at
FROM complexes
WHERE id = ?
`

func (q *Queries) GetComplex(ctx context.Context, id int64) (Complex, error) {
	var c Complex
	err := q.db.QueryRowContext(ctx, getComplex, id).Scan(
		&c.ID, &c.Name, &c.District, &c.Province, &c.Department,
		&c.Verified, &c.OwnerPhone, &c.CulqiEnabled, &c.CulqiPublicKey,
		&c.Timezone, &c.CreatedAt,
	)
	return c, err
}

const createComplex = `
INSERT INTO complexes (name, district, province, department, verified, owner_phone,
                       culqi_enabled, culqi_public_key, timezone)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateComplexParams struct {
	Name           string
	District       string
	Province       string
	Department     string
	Verified       bool
	OwnerPhone     string
	CulqiEnabled   bool
	CulqiPublicKey string
	Timezone       string
}

func (q *Queries) CreateComplex(ctx context.Context, p CreateComplexParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createComplex,
		p.Name, p.District, p.Province, p.Department, p.Verified,
		p.OwnerPhone, p.CulqiEnabled, p.CulqiPublicKey, p.Timezone,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listCourtsByComplex = `
SELECT id, complex_id, name, sport, surface, price_per_hour, created_at
FROM courts
WHERE complex_id = ?
ORDER BY name
`

func (q *Queries) ListCourtsByComplex(ctx context.Context, complexID int64) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, listCourtsByComplex, complexID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.ComplexID, &c.Name, &c.Sport, &c.Surface, &c.PricePerHour, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const getCourtDetail = `
SELECT c.id, c.complex_id, c.name, c.sport, c.surface, c.price_per_hour, c.created_at,
       x.name, x.district, x.verified, x.owner_phone, x.culqi_enabled, x.culqi_public_key, x.timezone
FROM courts c
JOIN complexes x ON x.id = c.complex_id
WHERE c.id = ?
`

func (q *Queries) GetCourtDetail(ctx context.Context, id int64) (CourtDetail, error) {
	var d CourtDetail
	err := q.db.QueryRowContext(ctx, getCourtDetail, id).Scan(
		&d.Court.ID, &d.ComplexID, &d.Court.Name, &d.Sport, &d.Surface, &d.PricePerHour, &d.Court.CreatedAt,
		&d.ComplexName, &d.District, &d.Verified, &d.OwnerPhone, &d.CulqiEnabled, &d.CulqiPublicKey, &d.Timezone,
	)
	return d, err
}

const createCourt = `
INSERT INTO courts (complex_id, name, sport, surface, price_per_hour)
VALUES (?, ?, ?, ?, ?)
`

type CreateCourtParams struct {
	ComplexID    int64
	Name         string
	Sport        string
	Surface      string
	PricePerHour float64
}

func (q *Queries) CreateCourt(ctx context.Context, p CreateCourtParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createCourt, p.ComplexID, p.Name, p.Sport, p.Surface, p.PricePerHour)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Slot-blocking statuses. Failed and expired reservations release the slot.
const listBlockingReservations = `
SELECT id, court_id, start_time, end_time, email, status, created_at
FROM reservations
WHERE court_id = ?
  AND status IN ('pending', 'confirmed')
  AND start_time < ?
  AND end_time > ?
ORDER BY start_time
`

// ListBlockingReservations returns reservations on the court that overlap the
// [from, to) window and still hold their slots.
func (q *Queries) ListBlockingReservations(ctx context.Context, courtID int64, from, to time.Time) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listBlockingReservations, courtID, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.CourtID, &r.StartTime, &r.EndTime, &r.Email, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const countBlockingReservations = `
SELECT COUNT(*)
FROM reservations
WHERE court_id = ?
  AND status IN ('pending', 'confirmed')
  AND start_time < ?
  AND end_time > ?
`

// CountBlockingReservations counts slot-holding reservations overlapping the
// [from, to) window. Used to revalidate availability before charging.
func (q *Queries) CountBlockingReservations(ctx context.Context, courtID int64, from, to time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countBlockingReservations, courtID, to, from).Scan(&n)
	return n, err
}

const createReservation = `
INSERT INTO reservations (court_id, start_time, end_time, email, status)
VALUES (?, ?, ?, ?, ?)
`

type CreateReservationParams struct {
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
	Email     string
	Status    string
}

func (q *Queries) CreateReservation(ctx context.Context, p CreateReservationParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createReservation, p.CourtID, p.StartTime, p.EndTime, p.Email, p.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getReservation = `
SELECT id, court_id, start_time, end_time, email, status, created_at
FROM reservations
WHERE id = ?
`

func (q *Queries) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	var r Reservation
	err := q.db.QueryRowContext(ctx, getReservation, id).Scan(
		&r.ID, &r.CourtID, &r.StartTime, &r.EndTime, &r.Email, &r.Status, &r.CreatedAt,
	)
	return r, err
}

const updateReservationStatus = `
UPDATE reservations SET status = ? WHERE id = ?
`

func (q *Queries) UpdateReservationStatus(ctx context.Context, id int64, status string) error {
	_, err := q.db.ExecContext(ctx, updateReservationStatus, status, id)
	return err
}

const expirePendingReservations = `
UPDATE reservations
SET status = 'expired'
WHERE status = 'pending' AND created_at < ?
`

// ExpirePendingReservations marks pending reservations older than the cutoff
// as expired, releasing their slots. Returns the number of rows touched.
func (q *Queries) ExpirePendingReservations(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, expirePendingReservations, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listUpcomingConfirmed = `
SELECT r.id, r.court_id, r.start_time, r.end_time, r.email, r.status, r.created_at
FROM reservations r
WHERE r.status = 'confirmed'
  AND r.email != ''
  AND r.start_time >= ?
  AND r.start_time < ?
ORDER BY r.start_time
`

// ListUpcomingConfirmed returns confirmed reservations with a contact email
// starting inside the [from, to) window. Used by the reminder job.
func (q *Queries) ListUpcomingConfirmed(ctx context.Context, from, to time.Time) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listUpcomingConfirmed, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.CourtID, &r.StartTime, &r.EndTime, &r.Email, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const createPayment = `
INSERT INTO payments (reservation_id, provider, provider_ref, amount_cents, currency, status, used_step_up)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreatePaymentParams struct {
	ReservationID int64
	Provider      string
	ProviderRef   string
	AmountCents   int64
	Currency      string
	Status        string
	UsedStepUp    bool
}

func (q *Queries) CreatePayment(ctx context.Context, p CreatePaymentParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createPayment,
		p.ReservationID, p.Provider, p.ProviderRef, p.AmountCents, p.Currency, p.Status, p.UsedStepUp,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getPaymentByReservation = `
SELECT id, reservation_id, provider, provider_ref, amount_cents, currency, status, used_step_up, created_at
FROM payments
WHERE reservation_id = ?
ORDER BY id DESC
LIMIT 1
`

func (q *Queries) GetPaymentByReservation(ctx context.Context, reservationID int64) (Payment, error) {
	var p Payment
	err := q.db.QueryRowContext(ctx, getPaymentByReservation, reservationID).Scan(
		&p.ID, &p.ReservationID, &p.Provider, &p.ProviderRef, &p.AmountCents,
		&p.Currency, &p.Status, &p.UsedStepUp, &p.CreatedAt,
	)
	return p, err
}
