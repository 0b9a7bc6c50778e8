package entities

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

// BookingDelivered is emitted after a GetBookingId commit stamps a guid
// onto a booking.
type BookingDelivered struct {
	Header EventHeader `json:"header"`

	BookingID  string `json:"booking_id"`
	PropertyID string `json:"property_id"`
	GUID       string `json:"guid"`
}

// PropertyLinked is emitted after SetupProperty commits a partner id.
type PropertyLinked struct {
	Header EventHeader `json:"header"`

	PropertyID    string `json:"property_id"`
	MyallocatorID string `json:"myallocator_id"`
}
