// internal/db/models.go
package db

import "time"

// Complex is a sports facility that rents out its courts.
type Complex struct {
	ID             int64
	Name           string
	District       string
	Province       string
	Department     string
	Verified       bool
	OwnerPhone     string
	CulqiEnabled   bool
	CulqiPublicKey string
	Timezone       string
	CreatedAt      time.Time
}

// Court is a single bookable field inside a complex.
type Court struct {
	ID           int64
	ComplexID    int64
	Name         string
	Sport        string
	Surface      string
	PricePerHour float64
	CreatedAt    time.Time
}

// CourtDetail joins a court with the complex fields the booking flow needs.
type CourtDetail struct {
	Court
	ComplexName    string
	District       string
	Verified       bool
	OwnerPhone     string
	CulqiEnabled   bool
	CulqiPublicKey string
	Timezone       string
}

// Reservation statuses. Pending reservations hold a slot while payment is in
// flight and are expired by the scheduler if never confirmed.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationFailed    = "failed"
	ReservationExpired   = "expired"
)

type Reservation struct {
	ID        int64
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
	Email     string
	Status    string
	CreatedAt time.Time
}

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

type Payment struct {
	ID            int64
	ReservationID int64
	Provider      string
	ProviderRef   string
	AmountCents   int64
	Currency      string
	Status        string
	UsedStepUp    bool
	CreatedAt     time.Time
}
