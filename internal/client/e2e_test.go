package client_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventify/ticketing/internal/client"
	"github.com/eventify/ticketing/internal/config"
	"github.com/eventify/ticketing/internal/handler"
	"github.com/eventify/ticketing/internal/model"
	"github.com/eventify/ticketing/internal/notify"
	"github.com/eventify/ticketing/internal/queue"
	"github.com/eventify/ticketing/internal/repository"
	"github.com/eventify/ticketing/internal/router"
	"github.com/eventify/ticketing/internal/service"
)

type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (o *outbox) Send(_ context.Context, msgs ...notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msgs...)
	return nil
}

func (o *outbox) sent() []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notify.Message(nil), o.msgs...)
}

type stack struct {
	c     *client.Client
	admin *client.Session
	mail  *outbox
}

const (
	adminEmail = "admin@eventify.test"
	adminPass  = "admin-pass"
)

func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()
	cfg := config.Config{
		JWTSecret:     "e2e-secret",
		AccessTTLMin:  30,
		BcryptCost:    4,
		AdminName:     "Admin",
		AdminEmail:    adminEmail,
		AdminPassword: adminPass,
	}
	log, _ := test.NewNullLogger()
	store := repository.NewMemoryStore()
	require.NoError(t, handler.SeedAdmin(ctx, cfg, store.Users(), log))

	mail := &outbox{}
	proc := &queue.Processor{LogPath: t.TempDir() + "/booking.log", Sender: mail}
	e := router.New(router.Options{
		JWTSecret: cfg.JWTSecret,
		Log:       log,
		Auth:      handler.NewAuthHandler(cfg, store.Users()),
		Events:    handler.NewEventHandler(store.Events(), nil),
		Bookings:  handler.NewBookingHandler(store.Bookings(), store.Events(), service.InlinePublisher{Handler: proc}, nil),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, client.WithHTTPClient(srv.Client()), client.WithLogger(log))
	require.NoError(t, err)
	admin, err := c.Login(ctx, adminEmail, adminPass)
	require.NoError(t, err)
	require.True(t, admin.IsAdmin())
	return &stack{c: c, admin: admin, mail: mail}
}

func (s *stack) user(t *testing.T, email string) *client.Session {
	t.Helper()
	ctx := context.Background()
	msg, err := s.c.Register(ctx, "Guest", email, "secret1")
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully!", msg)
	sess, err := s.c.Login(ctx, email, "secret1")
	require.NoError(t, err)
	return sess
}

func (s *stack) event(t *testing.T, seats int) model.Event {
	t.Helper()
	e, err := s.c.CreateEvent(context.Background(), s.admin, model.EventInput{
		Title:      "Go Meetup",
		Location:   "Hall A",
		StartDate:  time.Date(2026, 11, 20, 18, 0, 0, 0, time.UTC),
		Price:      12.5,
		TotalSeats: seats,
	})
	require.NoError(t, err)
	return e
}

func TestScenarioLoginBookUntilSoldOut(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	sess := s.user(t, "user@example.com")
	assert.Equal(t, model.RoleUser, sess.Role)

	ev := s.event(t, 1)
	b, err := s.c.CreateBooking(ctx, sess, sess.UserID, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, 12.5, b.AmountPaid)

	got, err := s.c.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AvailableSeats)

	_, err = s.c.CreateBooking(ctx, sess, sess.UserID, ev.ID)
	assert.ErrorIs(t, err, client.ErrSoldOut)
	assert.ErrorIs(t, err, client.ErrValidation)
	assert.Equal(t, "This event is sold out!", err.Error())

	mine, err := s.c.ListUserBookings(ctx, sess, sess.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.TicketCode, mine[0].TicketCode)

	sent := s.mail.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "user@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, b.TicketCode)
}

func TestScenarioUnauthenticatedBooking(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	ev := s.event(t, 3)

	_, err := s.c.CreateBooking(ctx, nil, 1, ev.ID)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	forged := &client.Session{UserID: 1, Token: "not-a-jwt"}
	_, err = s.c.CreateBooking(ctx, forged, 1, ev.ID)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	all, err := s.c.ListAllBookings(ctx, s.admin)
	require.NoError(t, err)
	assert.Empty(t, all)
	got, err := s.c.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableSeats)
}

func TestScenarioFindThenCheckInTwice(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	sess := s.user(t, "guest@example.com")
	ev := s.event(t, 5)
	b, err := s.c.CreateBooking(ctx, sess, sess.UserID, ev.ID)
	require.NoError(t, err)

	first, err := s.c.CheckIn(ctx, s.admin, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCheckedIn, first.Status)

	found, err := s.c.FindBooking(ctx, s.admin, b.TicketCode)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCheckedIn, found.Status)

	again, err := s.c.CheckIn(ctx, s.admin, found.ID)
	assert.ErrorIs(t, err, client.ErrAlreadyProcessed)
	assert.Equal(t, model.StatusCheckedIn, again.Status)
	assert.Equal(t, b.TicketCode, again.TicketCode)
	assert.Equal(t, b.UserID, again.UserID)

	byEmail, err := s.c.FindBooking(ctx, s.admin, "guest@example.com")
	require.NoError(t, err)
	assert.Equal(t, b.ID, byEmail.ID)

	_, err = s.c.FindBooking(ctx, s.admin, "EVT-DEADBEEF")
	assert.ErrorIs(t, err, client.ErrNotFound)

	_, err = s.c.CheckIn(ctx, sess, b.ID)
	assert.ErrorIs(t, err, client.ErrForbidden)
}

func TestCreateEventRoundTrip(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	end := time.Date(2026, 11, 20, 22, 0, 0, 0, time.UTC)
	in := model.EventInput{
		Title:       "Gala",
		Description: "Black tie",
		Category:    "Social",
		Location:    "Opera",
		ImageURL:    "https://img.example/gala.jpg",
		StartDate:   time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC),
		EndDate:     &end,
		Price:       99,
		TotalSeats:  200,
	}
	created, err := s.c.CreateEvent(ctx, s.admin, in)
	require.NoError(t, err)

	got, err := s.c.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, in.Category, got.Category)
	assert.Equal(t, in.Location, got.Location)
	assert.Equal(t, in.ImageURL, got.ImageURL)
	assert.True(t, in.StartDate.Equal(got.StartDate))
	require.NotNil(t, got.EndDate)
	assert.True(t, end.Equal(*got.EndDate))
	assert.Equal(t, in.Price, got.Price)
	assert.Equal(t, in.TotalSeats, got.TotalSeats)
	assert.Equal(t, in.TotalSeats, got.AvailableSeats)

	bare, err := s.c.CreateEvent(ctx, s.admin, model.EventInput{Title: "Bare", StartDate: in.StartDate, TotalSeats: 1})
	require.NoError(t, err)
	assert.Equal(t, "General", bare.Category)
	assert.Contains(t, bare.ImageURL, "picsum.photos")

	list, err := s.c.ListEvents(ctx, model.EventFilter{Category: "social"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTicketCodesAreUnique(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	sess := s.user(t, "many@example.com")
	ev := s.event(t, 25)

	codes := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		b, err := s.c.CreateBooking(ctx, sess, sess.UserID, ev.ID)
		require.NoError(t, err)
		codes = append(codes, b.TicketCode)
	}
	assert.Len(t, lo.Uniq(codes), 25)

	_, err := s.c.CreateBooking(ctx, sess, sess.UserID, ev.ID)
	assert.ErrorIs(t, err, client.ErrSoldOut)
}

func TestAdminOperations(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	ev := s.event(t, 10)

	_, err := s.c.Broadcast(ctx, s.admin, ev.ID, "Hello", "Doors open at 6")
	assert.ErrorIs(t, err, client.ErrValidation)
	assert.Equal(t, "No guests to notify.", err.Error())

	a := s.user(t, "a@example.com")
	b := s.user(t, "b@example.com")
	for _, sess := range []*client.Session{a, a, b} {
		_, err := s.c.CreateBooking(ctx, sess, sess.UserID, ev.ID)
		require.NoError(t, err)
	}

	res, err := s.c.Broadcast(ctx, s.admin, ev.ID, "Hello", "Doors open at 6")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Notified)
	assert.Equal(t, "Successfully notified 2 guests.", res.Message)

	guests, err := s.c.ListAttendees(ctx, s.admin, ev.ID)
	require.NoError(t, err)
	assert.Len(t, guests, 3)

	st, err := s.c.Stats(ctx, s.admin)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalBookings)
	assert.Equal(t, 37.5, st.TotalRevenue)
	assert.Len(t, st.RecentBookings, 3)

	_, err = s.c.Stats(ctx, a)
	assert.ErrorIs(t, err, client.ErrForbidden)

	err = s.c.DeleteEvent(ctx, s.admin, ev.ID)
	assert.ErrorIs(t, err, client.ErrConflict)

	avail := 2
	updated, err := s.c.UpdateEvent(ctx, s.admin, ev.ID, model.EventInput{
		Title: "Go Meetup", StartDate: ev.StartDate, Price: 15, TotalSeats: 4, AvailableSeats: &avail,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.AvailableSeats)

	empty := s.event(t, 1)
	require.NoError(t, s.c.DeleteEvent(ctx, s.admin, empty.ID))
	_, err = s.c.GetEvent(ctx, empty.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)

	reply, err := s.c.Chat(ctx, "how does payment work")
	require.NoError(t, err)
	assert.Contains(t, reply, "Payments")

	me, err := s.c.Me(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", me.Email)
}

func TestRegisterDuplicateAndBadLogin(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.user(t, "dup@example.com")

	_, err := s.c.Register(ctx, "Again", "dup@example.com", "secret1")
	assert.ErrorIs(t, err, client.ErrConflict)
	assert.Equal(t, "Error: Email is already in use!", err.Error())

	_, err = s.c.Login(ctx, "dup@example.com", "wrong-pass")
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, "Invalid email or password", err.Error())
}
