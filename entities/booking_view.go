package entities

// BookingView is the normalized booking representation sent back to the
// channel manager: customers, room-date groups and price totals built from
// flat booking-room rows.
type BookingView struct {
	OrderID        string          `json:"OrderId"`
	IsCancellation bool            `json:"IsCancellation"`
	OrderDate      string          `json:"OrderDate"`
	OrderTime      string          `json:"OrderTime"`
	TotalCurrency  string          `json:"TotalCurrency"`
	Customers      []CustomerView  `json:"Customers"`
	Rooms          []RoomGroupView `json:"Rooms"`
	TotalPrice     float64         `json:"TotalPrice"`
}

// CustomerView order follows whatever the gateway returned; it is not stable.
type CustomerView struct {
	CustomerCountry string `json:"CustomerCountry"`
	CustomerEmail   string `json:"CustomerEmail"`
	CustomerFName   string `json:"CustomerFName"`
	CustomerLName   string `json:"CustomerLName"`
}

type RoomGroupView struct {
	ChannelRoomType string        `json:"ChannelRoomType"`
	Currency        string        `json:"Currency"`
	StartDate       string        `json:"StartDate"`
	EndDate         string        `json:"EndDate"`
	Price           float64       `json:"Price"`
	Units           int           `json:"Units"`
	DayRates        []DayRateView `json:"DayRates"`
}

type DayRateView struct {
	Date        string  `json:"Date"`
	Description string  `json:"Description"`
	Rate        float64 `json:"Rate"`
	Currency    string  `json:"Currency"`
	RateID      *string `json:"RateId"`
}
