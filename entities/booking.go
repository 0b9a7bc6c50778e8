package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking's GUID is the delivery marker: it is nil until the channel manager
// acknowledges the booking through GetBookingId, and is set at most once.
type Booking struct {
	ID           string
	UserID       string
	DTTM         time.Time
	Currency     string
	Cancellation bool
	GUID         *string
}

type Customer struct {
	Email     string
	Country   string
	FirstName string
	LastName  string
}

// BookingRoom is one room-night: a single date of one room type within one
// booking. Rows sharing (booking, room type) form a stay segment.
type BookingRoom struct {
	BookingID   string
	RoomTypeID  string
	Date        time.Time
	Description string
	Rate        decimal.Decimal
	RateID      *string
}

type BookingListItem struct {
	BookingID string `json:"booking_id"`
	Version   string `json:"version"`
}
