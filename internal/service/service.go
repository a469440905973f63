// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/repository"
)

var tracer = otel.Tracer("github.com/uppalapadu/watersafe/internal/service")

func newID() string {
	return uuid.New().String()
}

// Services bundles every service over one store. Booking and campaign
// administration share a key lock so capacity edits, deletions and bookings of
// the same campaign are serialized.
type Services struct {
	Ledger    *CapacityLedger
	Bookings  *BookingService
	Campaigns *CampaignService
	Queries   *QueryService
	Users     *UserService
}

// New wires all services over store.
func New(store repository.Store, log *zap.Logger) *Services {
	locks := newKeyLock()
	ledger := NewCapacityLedger(store)
	return &Services{
		Ledger:    ledger,
		Bookings:  NewBookingService(store, ledger, locks, log.Named("booking")),
		Campaigns: NewCampaignService(store, locks, log.Named("campaign")),
		Queries:   NewQueryService(store),
		Users:     NewUserService(store, log.Named("user")),
	}
}
