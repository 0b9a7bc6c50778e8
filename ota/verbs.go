package ota

import (
	"context"
	"fmt"
	"time"

	"otabridge/entities"
)

const versionLayout = "2006-01-02 15:04:05"

// lookbackWindow tolerates clock skew between the channel manager and this
// server when filtering GetBookingList by version.
const lookbackWindow = 5 * time.Minute

// verbConfig declares one operation up front: its extra required parameters,
// whether it needs a transaction, and its business step. Authenticated verbs
// verify the property password first in execute, before any mutation.
type verbConfig struct {
	required []string
	needsDB  bool
	execute  func(ctx context.Context, envelope *Envelope, store Store) error
}

func verbTable() map[string]verbConfig {
	return map[string]verbConfig{
		"SetupProperty": {
			required: []string{ParamPropertyPassword},
			needsDB:  true,
			execute:  setupProperty,
		},
		"GetRoomTypes": {
			required: []string{ParamPropertyPassword},
			needsDB:  true,
			execute:  getRoomTypes,
		},
		"GetBookingList": {
			required: []string{ParamPropertyPassword, ParamBookingVersion},
			needsDB:  true,
			execute:  getBookingList,
		},
		"GetBookingId": {
			required: []string{ParamPropertyPassword, ParamBookingID},
			needsDB:  true,
			execute:  getBookingID,
		},
	}
}

// setupProperty stores the channel manager's property id on the caller's
// user record. Repeating the call with the same id is a no-op.
func setupProperty(ctx context.Context, envelope *Envelope, store Store) error {
	user, err := authenticate(ctx, envelope, store)
	if err != nil || envelope.IsError() {
		return err
	}

	partnerID := envelope.StringParam(ParamMyaPropertyID)
	if err := store.SetPartnerID(ctx, user.ID, partnerID); err != nil {
		return err
	}

	envelope.Set("ota_property_id", user.ID)
	envelope.AddEvent(entities.PropertyLinked{
		Header:        entities.NewEventHeader(),
		PropertyID:    user.ID,
		MyallocatorID: partnerID,
	})

	return nil
}

func getRoomTypes(ctx context.Context, envelope *Envelope, store Store) error {
	user, err := authenticate(ctx, envelope, store)
	if err != nil || envelope.IsError() {
		return err
	}

	roomTypes, err := store.RoomTypesByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	rooms := make([]entities.RoomTypeView, 0, len(roomTypes))
	for _, roomType := range roomTypes {
		rooms = append(rooms, entities.RoomTypeView{
			OTARoomID: roomType.ID,
			Title:     roomType.Title,
			Detail:    roomType.Detail,
			Occupancy: roomType.Occupancy,
			Dorm:      roomType.Dorm,
		})
	}

	envelope.Set("Rooms", rooms)

	return nil
}

// getBookingList returns the property's undelivered bookings. A null or
// absent version means all of them; otherwise the cutoff is the requested
// version minus the lookback window.
func getBookingList(ctx context.Context, envelope *Envelope, store Store) error {
	user, err := authenticate(ctx, envelope, store)
	if err != nil || envelope.IsError() {
		return err
	}

	var modifiedSince *time.Time
	if version, ok := envelope.Param(ParamBookingVersion); ok && version != nil {
		requested, err := time.Parse(versionLayout, envelope.StringParam(ParamBookingVersion))
		if err != nil {
			return fmt.Errorf("error parsing booking version: %w", err)
		}
		cutoff := requested.Add(-lookbackWindow)
		modifiedSince = &cutoff
	}

	bookings, err := store.UndeliveredBookings(ctx, user.ID, modifiedSince)
	if err != nil {
		return err
	}

	items := make([]entities.BookingListItem, 0, len(bookings))
	for _, booking := range bookings {
		items = append(items, entities.BookingListItem{
			BookingID: booking.ID,
			Version:   booking.DTTM.Format(versionLayout),
		})
	}

	envelope.Set("Bookings", items)

	return nil
}

// getBookingID fetches one booking, stamps the supplied guid as the delivery
// marker, and returns the aggregated view.
func getBookingID(ctx context.Context, envelope *Envelope, store Store) error {
	if _, err := authenticate(ctx, envelope, store); err != nil || envelope.IsError() {
		return err
	}

	bookingID := envelope.StringParam(ParamBookingID)
	booking, err := store.BookingByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if value, ok := envelope.Param(ParamGUID); ok && value != nil {
		guid := envelope.StringParam(ParamGUID)
		if err := store.SetBookingGUID(ctx, booking.ID, guid); err != nil {
			return err
		}
		envelope.AddEvent(entities.BookingDelivered{
			Header:     entities.NewEventHeader(),
			BookingID:  booking.ID,
			PropertyID: booking.UserID,
			GUID:       guid,
		})
	}

	customers, err := store.BookingCustomers(ctx, booking.ID)
	if err != nil {
		return err
	}

	bookedRooms, err := store.BookingRooms(ctx, booking.ID)
	if err != nil {
		return err
	}

	envelope.Set("ota_property_id", envelope.StringParam(ParamOTAPropertyID))
	envelope.Set("mya_property_id", envelope.StringParam(ParamMyaPropertyID))
	envelope.Set("booking_id", bookingID)
	envelope.Set("Booking", AggregateBooking(booking, customers, bookedRooms))

	return nil
}
