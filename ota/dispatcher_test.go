package ota

import (
	"context"
	"errors"
	"testing"
	"time"

	"otabridge/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "hunter2"

type fakeStore struct {
	users     map[string]*entities.User
	roomTypes map[string][]entities.RoomType
	bookings  map[string]*entities.Booking
	customers map[string][]entities.Customer
	rooms     map[string][]entities.BookingRoom
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	return &fakeStore{
		users: map[string]*entities.User{
			"prop-1": {ID: "prop-1", PasswordHash: string(hash)},
		},
		roomTypes: map[string][]entities.RoomType{},
		bookings:  map[string]*entities.Booking{},
		customers: map[string][]entities.Customer{},
		rooms:     map[string][]entities.BookingRoom{},
	}
}

func (s *fakeStore) UserByID(_ context.Context, id string) (entities.User, error) {
	user, ok := s.users[id]
	if !ok {
		return entities.User{}, pgx.ErrNoRows
	}
	return *user, nil
}

func (s *fakeStore) SetPartnerID(_ context.Context, userID, partnerID string) error {
	s.users[userID].MyallocatorID = &partnerID
	return nil
}

func (s *fakeStore) RoomTypesByUser(_ context.Context, userID string) ([]entities.RoomType, error) {
	return s.roomTypes[userID], nil
}

func (s *fakeStore) UndeliveredBookings(_ context.Context, userID string, modifiedSince *time.Time) ([]entities.Booking, error) {
	var bookings []entities.Booking
	for _, b := range s.bookings {
		if b.UserID != userID || b.GUID != nil {
			continue
		}
		if modifiedSince != nil && b.DTTM.Before(*modifiedSince) {
			continue
		}
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

func (s *fakeStore) BookingByID(_ context.Context, id string) (entities.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return entities.Booking{}, pgx.ErrNoRows
	}
	return *booking, nil
}

func (s *fakeStore) SetBookingGUID(_ context.Context, bookingID, guid string) error {
	s.bookings[bookingID].GUID = &guid
	return nil
}

func (s *fakeStore) BookingCustomers(_ context.Context, bookingID string) ([]entities.Customer, error) {
	return s.customers[bookingID], nil
}

func (s *fakeStore) BookingRooms(_ context.Context, bookingID string) ([]entities.BookingRoom, error) {
	return s.rooms[bookingID], nil
}

type fakeTx struct {
	*fakeStore
	commits   int
	rollbacks int
	commitErr error
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rollbacks++
	return nil
}

type capturingPublisher struct {
	events []any
}

func (p *capturingPublisher) Publish(_ context.Context, event any) error {
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	store      *fakeStore
	txs        []*fakeTx
	publisher  *capturingPublisher
	dispatcher *Dispatcher
	commitErr  error
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		store:     newFakeStore(t),
		publisher: &capturingPublisher{},
	}
	f.dispatcher = NewDispatcher(testSecret, func(context.Context) (Tx, error) {
		tx := &fakeTx{fakeStore: f.store, commitErr: f.commitErr}
		f.txs = append(f.txs, tx)
		return tx, nil
	}, f.publisher)
	return f
}

func authedParams(verb string) map[string]any {
	return map[string]any{
		ParamVerb:             verb,
		ParamMyaPropertyID:    "mya-9",
		ParamOTAPropertyID:    "prop-1",
		ParamSharedSecret:     testSecret,
		ParamPropertyPassword: testPassword,
	}
}

func errorsOf(t *testing.T, payload map[string]any) []ErrorRecord {
	t.Helper()
	records, ok := payload["errors"].([]ErrorRecord)
	require.True(t, ok, "payload has no errors array: %v", payload)
	return records
}

func TestDispatchUnknownVerbSucceeds(t *testing.T) {
	f := newFixture(t)

	payload := f.dispatcher.Dispatch(context.Background(), map[string]any{
		ParamVerb:          "HealthCheck",
		ParamMyaPropertyID: "",
		ParamOTAPropertyID: "",
		ParamSharedSecret:  testSecret,
	})

	assert.Equal(t, map[string]any{"success": true}, payload)
	assert.Empty(t, f.txs, "unknown verbs must not open a transaction")
}

func TestDispatchWrongSecret(t *testing.T) {
	f := newFixture(t)

	payload := f.dispatcher.Dispatch(context.Background(), map[string]any{
		ParamVerb:          "HealthCheck",
		ParamMyaPropertyID: "",
		ParamOTAPropertyID: "",
		ParamSharedSecret:  "wrong",
	})

	assert.Equal(t, false, payload["success"])
	assert.Len(t, errorsOf(t, payload), 1)
}

// A bad secret keeps the required list at the base three, so the missing
// password adds no second validation error.
func TestDispatchWrongSecretSkipsVerbRequirements(t *testing.T) {
	f := newFixture(t)

	params := authedParams("SetupProperty")
	params[ParamSharedSecret] = "wrong"
	delete(params, ParamPropertyPassword)

	payload := f.dispatcher.Dispatch(context.Background(), params)

	assert.Equal(t, false, payload["success"])
	assert.Len(t, errorsOf(t, payload), 1)
	require.Len(t, f.txs, 1)
	assert.Equal(t, 1, f.txs[0].rollbacks)
	assert.Equal(t, 0, f.txs[0].commits)
}

func TestDispatchMissingRequiredParam(t *testing.T) {
	f := newFixture(t)

	params := authedParams("SetupProperty")
	delete(params, ParamMyaPropertyID)

	payload := f.dispatcher.Dispatch(context.Background(), params)

	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Invalid or missing Api arguments", errorsOf(t, payload)[0].Msg)
}

func TestSetupPropertyIsIdempotent(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		payload := f.dispatcher.Dispatch(context.Background(), authedParams("SetupProperty"))
		assert.Equal(t, true, payload["success"])
		assert.Equal(t, "prop-1", payload["ota_property_id"])
	}

	require.NotNil(t, f.store.users["prop-1"].MyallocatorID)
	assert.Equal(t, "mya-9", *f.store.users["prop-1"].MyallocatorID)
	require.Len(t, f.txs, 2)
	assert.Equal(t, 1, f.txs[0].commits)
	assert.Equal(t, 1, f.txs[1].commits)
	assert.Len(t, f.publisher.events, 2)
	assert.IsType(t, entities.PropertyLinked{}, f.publisher.events[0])
}

func TestAuthenticatedVerbWrongPassword(t *testing.T) {
	f := newFixture(t)

	params := authedParams("SetupProperty")
	params[ParamPropertyPassword] = "nope"

	payload := f.dispatcher.Dispatch(context.Background(), params)

	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Invalid or missing authentication arguments", errorsOf(t, payload)[0].Msg)
	assert.Nil(t, f.store.users["prop-1"].MyallocatorID)
	assert.Equal(t, 1, f.txs[0].rollbacks)
	assert.Empty(t, f.publisher.events)
}

func TestAuthenticatedVerbUnknownProperty(t *testing.T) {
	f := newFixture(t)

	params := authedParams("SetupProperty")
	params[ParamOTAPropertyID] = "prop-missing"

	payload := f.dispatcher.Dispatch(context.Background(), params)

	assert.Equal(t, false, payload["success"])
	assert.Len(t, errorsOf(t, payload), 1)
}

func TestGetRoomTypes(t *testing.T) {
	f := newFixture(t)
	f.store.roomTypes["prop-1"] = []entities.RoomType{
		{ID: "rt-1", UserID: "prop-1", Title: "Twin", Detail: "Two beds", Occupancy: 2, Dorm: false},
		{ID: "rt-2", UserID: "prop-1", Title: "Dorm bed", Detail: "Shared", Occupancy: 8, Dorm: true},
	}

	payload := f.dispatcher.Dispatch(context.Background(), authedParams("GetRoomTypes"))

	assert.Equal(t, true, payload["success"])
	rooms, ok := payload["Rooms"].([]entities.RoomTypeView)
	require.True(t, ok)
	require.Len(t, rooms, 2)
	assert.Equal(t, entities.RoomTypeView{OTARoomID: "rt-1", Title: "Twin", Detail: "Two beds", Occupancy: 2, Dorm: false}, rooms[0])
	assert.Equal(t, entities.RoomTypeView{OTARoomID: "rt-2", Title: "Dorm bed", Detail: "Shared", Occupancy: 8, Dorm: true}, rooms[1])
}

func TestGetRoomTypesEmpty(t *testing.T) {
	f := newFixture(t)

	payload := f.dispatcher.Dispatch(context.Background(), authedParams("GetRoomTypes"))

	assert.Equal(t, true, payload["success"])
	rooms, ok := payload["Rooms"].([]entities.RoomTypeView)
	require.True(t, ok)
	assert.Empty(t, rooms)
}

func bookingListParams(version any) map[string]any {
	params := authedParams("GetBookingList")
	params[ParamBookingVersion] = version
	return params
}

func TestGetBookingListVersionWindow(t *testing.T) {
	f := newFixture(t)

	base := time.Date(2018, 7, 15, 12, 0, 0, 0, time.UTC)
	guid := "already-delivered"
	f.store.bookings = map[string]*entities.Booking{
		"recent":    {ID: "recent", UserID: "prop-1", DTTM: base.Add(-3 * time.Minute), Currency: "USD"},
		"old":       {ID: "old", UserID: "prop-1", DTTM: base.Add(-10 * time.Minute), Currency: "USD"},
		"delivered": {ID: "delivered", UserID: "prop-1", DTTM: base, Currency: "USD", GUID: &guid},
		"other":     {ID: "other", UserID: "prop-2", DTTM: base, Currency: "USD"},
	}

	payload := f.dispatcher.Dispatch(context.Background(), bookingListParams("2018-07-15 12:00:00"))

	assert.Equal(t, true, payload["success"])
	items, ok := payload["Bookings"].([]entities.BookingListItem)
	require.True(t, ok)
	// The 5-minute lookback admits "recent" but not "old"; delivered and
	// foreign bookings never appear.
	require.Len(t, items, 1)
	assert.Equal(t, entities.BookingListItem{BookingID: "recent", Version: "2018-07-15 11:57:00"}, items[0])
}

func TestGetBookingListNullVersionReturnsAll(t *testing.T) {
	f := newFixture(t)

	base := time.Date(2018, 7, 15, 12, 0, 0, 0, time.UTC)
	f.store.bookings = map[string]*entities.Booking{
		"recent": {ID: "recent", UserID: "prop-1", DTTM: base.Add(-3 * time.Minute), Currency: "USD"},
		"old":    {ID: "old", UserID: "prop-1", DTTM: base.Add(-24 * time.Hour), Currency: "USD"},
	}

	payload := f.dispatcher.Dispatch(context.Background(), bookingListParams(nil))

	assert.Equal(t, true, payload["success"])
	items := payload["Bookings"].([]entities.BookingListItem)
	assert.Len(t, items, 2)
}

// The version key itself is required, even though its value may be null.
func TestGetBookingListAbsentVersionFailsValidation(t *testing.T) {
	f := newFixture(t)

	payload := f.dispatcher.Dispatch(context.Background(), authedParams("GetBookingList"))

	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Invalid or missing Api arguments", errorsOf(t, payload)[0].Msg)
}

func TestGetBookingListMalformedVersion(t *testing.T) {
	f := newFixture(t)

	payload := f.dispatcher.Dispatch(context.Background(), bookingListParams("not-a-date"))

	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Generic error", errorsOf(t, payload)[0].Msg)
	assert.Equal(t, 1, f.txs[0].rollbacks)
}

func TestGetBookingIDStampsGUIDAndExcludesFromList(t *testing.T) {
	f := newFixture(t)
	f.store.bookings["booking-1"] = &entities.Booking{
		ID: "booking-1", UserID: "prop-1",
		DTTM: time.Date(2018, 7, 1, 9, 0, 0, 0, time.UTC), Currency: "USD",
	}

	params := authedParams("GetBookingId")
	params[ParamBookingID] = "booking-1"
	params[ParamGUID] = "guid-42"

	payload := f.dispatcher.Dispatch(context.Background(), params)

	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "prop-1", payload["ota_property_id"])
	assert.Equal(t, "mya-9", payload["mya_property_id"])
	assert.Equal(t, "booking-1", payload["booking_id"])

	view, ok := payload["Booking"].(entities.BookingView)
	require.True(t, ok)
	assert.Equal(t, "booking-1", view.OrderID)

	require.NotNil(t, f.store.bookings["booking-1"].GUID)
	assert.Equal(t, "guid-42", *f.store.bookings["booking-1"].GUID)

	require.Len(t, f.publisher.events, 1)
	delivered, ok := f.publisher.events[0].(entities.BookingDelivered)
	require.True(t, ok)
	assert.Equal(t, "booking-1", delivered.BookingID)
	assert.Equal(t, "guid-42", delivered.GUID)

	listPayload := f.dispatcher.Dispatch(context.Background(), bookingListParams(nil))
	assert.Equal(t, true, listPayload["success"])
	assert.Empty(t, listPayload["Bookings"])
}

func TestGetBookingIDWithoutGUIDLeavesBookingUndelivered(t *testing.T) {
	f := newFixture(t)
	f.store.bookings["booking-1"] = &entities.Booking{
		ID: "booking-1", UserID: "prop-1",
		DTTM: time.Date(2018, 7, 1, 9, 0, 0, 0, time.UTC), Currency: "USD",
	}

	params := authedParams("GetBookingId")
	params[ParamBookingID] = "booking-1"

	payload := f.dispatcher.Dispatch(context.Background(), params)

	assert.Equal(t, true, payload["success"])
	assert.Nil(t, f.store.bookings["booking-1"].GUID)
	assert.Empty(t, f.publisher.events)
}

// A null guid means no correlation id was supplied: the booking must stay
// undelivered rather than pick up an empty-string marker.
func TestGetBookingIDNullGUIDLeavesBookingUndelivered(t *testing.T) {
	f := newFixture(t)
	f.store.bookings["booking-1"] = &entities.Booking{
		ID: "booking-1", UserID: "prop-1",
		DTTM: time.Date(2018, 7, 1, 9, 0, 0, 0, time.UTC), Currency: "USD",
	}

	params := authedParams("GetBookingId")
	params[ParamBookingID] = "booking-1"
	params[ParamGUID] = nil

	payload := f.dispatcher.Dispatch(context.Background(), params)

	assert.Equal(t, true, payload["success"])
	assert.Nil(t, f.store.bookings["booking-1"].GUID)
	assert.Empty(t, f.publisher.events)

	listPayload := f.dispatcher.Dispatch(context.Background(), bookingListParams(nil))
	items, ok := listPayload["Bookings"].([]entities.BookingListItem)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "booking-1", items[0].BookingID)
}

func TestGetBookingIDUnknownBooking(t *testing.T) {
	f := newFixture(t)

	params := authedParams("GetBookingId")
	params[ParamBookingID] = "nope"

	payload := f.dispatcher.Dispatch(context.Background(), params)

	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Generic error", errorsOf(t, payload)[0].Msg)
}

func TestCommitFailureDriverError(t *testing.T) {
	f := newFixture(t)
	f.commitErr = &pgconn.PgError{Code: "40001", Message: "serialization failure"}

	payload := f.dispatcher.Dispatch(context.Background(), authedParams("SetupProperty"))

	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Generic database error", errorsOf(t, payload)[0].Msg)
}

func TestCommitFailureApplicationError(t *testing.T) {
	f := newFixture(t)
	f.commitErr = errors.New("tx closed")

	payload := f.dispatcher.Dispatch(context.Background(), authedParams("SetupProperty"))

	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Application specific database error", errorsOf(t, payload)[0].Msg)
}

func TestBeginFailure(t *testing.T) {
	dispatcher := NewDispatcher(testSecret, func(context.Context) (Tx, error) {
		return nil, errors.New("pool exhausted")
	}, nil)

	payload := dispatcher.Dispatch(context.Background(), authedParams("SetupProperty"))

	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Generic database error", errorsOf(t, payload)[0].Msg)
}
