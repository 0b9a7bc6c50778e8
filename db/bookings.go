package db

import (
	"context"
	"fmt"
	"time"

	"otabridge/entities"

	"github.com/shopspring/decimal"
)

// UndeliveredBookings lists the property's bookings that still carry no guid.
// modifiedSince, when non-nil, is the already-adjusted cutoff: only bookings
// modified at or after it are returned.
func (s *Store) UndeliveredBookings(ctx context.Context, userID string, modifiedSince *time.Time) ([]entities.Booking, error) {
	q := `
	SELECT id, user_id, dttm, currency, cancellation, myallocator_guid
	FROM bookings
	WHERE user_id = $1 AND myallocator_guid IS NULL`

	args := []any{userID}
	if modifiedSince != nil {
		q += ` AND dttm >= $2`
		args = append(args, *modifiedSince)
	}

	rows, err := s.db.Query(ctx, q+";", args...)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings: %w", err)
	}
	defer rows.Close()

	var bookings []entities.Booking
	for rows.Next() {
		var b entities.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.DTTM, &b.Currency, &b.Cancellation, &b.GUID); err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading bookings: %w", err)
	}

	return bookings, nil
}

func (s *Store) BookingByID(ctx context.Context, id string) (entities.Booking, error) {
	q := `
	SELECT id, user_id, dttm, currency, cancellation, myallocator_guid
	FROM bookings
	WHERE id = $1;`

	var b entities.Booking
	err := s.db.QueryRow(ctx, q, id).Scan(&b.ID, &b.UserID, &b.DTTM, &b.Currency, &b.Cancellation, &b.GUID)
	if err != nil {
		return entities.Booking{}, fmt.Errorf("error fetching booking %q: %w", id, err)
	}

	return b, nil
}

func (s *Store) SetBookingGUID(ctx context.Context, bookingID, guid string) error {
	q := `UPDATE bookings SET myallocator_guid = $2 WHERE id = $1;`

	if _, err := s.db.Exec(ctx, q, bookingID, guid); err != nil {
		return fmt.Errorf("error stamping booking %q: %w", bookingID, err)
	}

	return nil
}

func (s *Store) BookingCustomers(ctx context.Context, bookingID string) ([]entities.Customer, error) {
	q := `
	SELECT c.email, c.country, c.first_name, c.last_name
	FROM customers c
	JOIN booking_customers bc ON bc.email = c.email
	WHERE bc.booking_id = $1;`

	rows, err := s.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, fmt.Errorf("error fetching customers: %w", err)
	}
	defer rows.Close()

	var customers []entities.Customer
	for rows.Next() {
		var c entities.Customer
		if err := rows.Scan(&c.Email, &c.Country, &c.FirstName, &c.LastName); err != nil {
			return nil, fmt.Errorf("error scanning customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading customers: %w", err)
	}

	return customers, nil
}

func (s *Store) BookingRooms(ctx context.Context, bookingID string) ([]entities.BookingRoom, error) {
	q := `
	SELECT booking_id, room_type_id, dt, description, rate::text, rate_id
	FROM booking_rooms
	WHERE booking_id = $1
	ORDER BY room_type_id, dt;`

	rows, err := s.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, fmt.Errorf("error fetching booking rooms: %w", err)
	}
	defer rows.Close()

	var bookedRooms []entities.BookingRoom
	for rows.Next() {
		var (
			br   entities.BookingRoom
			rate string
		)
		if err := rows.Scan(&br.BookingID, &br.RoomTypeID, &br.Date, &br.Description, &rate, &br.RateID); err != nil {
			return nil, fmt.Errorf("error scanning booking room: %w", err)
		}
		br.Rate, err = decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("error parsing rate %q: %w", rate, err)
		}
		bookedRooms = append(bookedRooms, br)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading booking rooms: %w", err)
	}

	return bookedRooms, nil
}
