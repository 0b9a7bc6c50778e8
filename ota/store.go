package ota

import (
	"context"
	"time"

	"otabridge/entities"
)

// Store is the persistence gateway as seen by the verb handlers. Queries that
// find nothing return an error wrapping pgx.ErrNoRows.
type Store interface {
	UserByID(ctx context.Context, id string) (entities.User, error)
	SetPartnerID(ctx context.Context, userID, partnerID string) error
	RoomTypesByUser(ctx context.Context, userID string) ([]entities.RoomType, error)
	UndeliveredBookings(ctx context.Context, userID string, modifiedSince *time.Time) ([]entities.Booking, error)
	BookingByID(ctx context.Context, id string) (entities.Booking, error)
	SetBookingGUID(ctx context.Context, bookingID, guid string) error
	BookingCustomers(ctx context.Context, bookingID string) ([]entities.Customer, error)
	BookingRooms(ctx context.Context, bookingID string) ([]entities.BookingRoom, error)
}

// Tx is a Store scoped to one transaction.
type Tx interface {
	Store
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// BeginFunc opens the transactional scope for one invocation.
type BeginFunc func(ctx context.Context) (Tx, error)

// EventPublisher publishes domain events after a successful commit.
// *cqrs.EventBus satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}
