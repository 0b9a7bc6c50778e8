package ota

import (
	"otabridge/entities"

	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// AggregateBooking builds the normalized booking view from flat rows: the
// customer list as the gateway returned it, booking-room rows grouped by room
// type with StartDate/EndDate spanning each group's dates, and decimal-exact
// price sums. Amounts become floats only here, at the serialization boundary.
// The booking's currency is applied to every group and day rate; rows are
// assumed to share it.
func AggregateBooking(booking entities.Booking, customers []entities.Customer, bookedRooms []entities.BookingRoom) entities.BookingView {
	view := entities.BookingView{
		OrderID:        booking.ID,
		IsCancellation: booking.Cancellation,
		OrderDate:      booking.DTTM.Format(dateLayout),
		OrderTime:      booking.DTTM.Format(timeLayout),
		TotalCurrency:  booking.Currency,
		Customers:      make([]entities.CustomerView, 0, len(customers)),
		Rooms:          []entities.RoomGroupView{},
	}

	for _, customer := range customers {
		view.Customers = append(view.Customers, entities.CustomerView{
			CustomerCountry: customer.Country,
			CustomerEmail:   customer.Email,
			CustomerFName:   customer.FirstName,
			CustomerLName:   customer.LastName,
		})
	}

	// Group rows by room type, keeping first-seen group order.
	groups := map[string][]entities.BookingRoom{}
	var groupOrder []string
	for _, room := range bookedRooms {
		if _, ok := groups[room.RoomTypeID]; !ok {
			groupOrder = append(groupOrder, room.RoomTypeID)
		}
		groups[room.RoomTypeID] = append(groups[room.RoomTypeID], room)
	}

	totalPrice := decimal.Zero
	for _, roomTypeID := range groupOrder {
		rooms := groups[roomTypeID]

		group := entities.RoomGroupView{
			ChannelRoomType: roomTypeID,
			Currency:        booking.Currency,
			Units:           1,
			DayRates:        make([]entities.DayRateView, 0, len(rooms)),
		}

		startDate := rooms[0].Date
		endDate := rooms[0].Date
		groupPrice := decimal.Zero

		for _, dayRate := range rooms {
			if dayRate.Date.Before(startDate) {
				startDate = dayRate.Date
			}
			if dayRate.Date.After(endDate) {
				endDate = dayRate.Date
			}
			groupPrice = groupPrice.Add(dayRate.Rate)

			group.DayRates = append(group.DayRates, entities.DayRateView{
				Date:        dayRate.Date.Format(dateLayout),
				Description: dayRate.Description,
				Rate:        dayRate.Rate.InexactFloat64(),
				Currency:    booking.Currency,
				RateID:      dayRate.RateID,
			})
		}

		group.StartDate = startDate.Format(dateLayout)
		group.EndDate = endDate.Format(dateLayout)
		group.Price = groupPrice.InexactFloat64()

		view.Rooms = append(view.Rooms, group)
		totalPrice = totalPrice.Add(groupPrice)
	}

	view.TotalPrice = totalPrice.InexactFloat64()

	return view
}
