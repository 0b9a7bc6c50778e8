package entities

// User is a property provisioned out-of-band. MyallocatorID stays nil until
// SetupProperty links the property to the channel manager.
type User struct {
	ID            string
	MyallocatorID *string
	PasswordHash  string
}

type RoomType struct {
	ID        string
	UserID    string
	Title     string
	Detail    string
	Occupancy int
	Dorm      bool
}

type RoomTypeView struct {
	OTARoomID string `json:"ota_room_id"`
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	Occupancy int    `json:"occupancy"`
	Dorm      bool   `json:"dorm"`
}
