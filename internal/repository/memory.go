package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/eventify/ticketing/internal/model"
	"github.com/eventify/ticketing/internal/utils"
)

// MemoryStore keeps events, users and bookings in process memory. It
// backs STORAGE_DRIVER=memory and the end-to-end tests. A single mutex
// guards all three tables so a booking reads and updates the event and
// the booking map atomically.
type MemoryStore struct {
	mutex    sync.RWMutex
	events   map[uint64]model.Event
	users    map[uint64]model.User
	bookings map[uint64]model.Booking
	nextID   struct{ event, user, booking uint64 }
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[uint64]model.Event),
		users:    make(map[uint64]model.User),
		bookings: make(map[uint64]model.Booking),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Events, Users and Bookings expose the store through the same method
// sets as EventRepo, UserRepo and BookingRepo.
func (s *MemoryStore) Events() *MemoryEvents     { return &MemoryEvents{s} }
func (s *MemoryStore) Users() *MemoryUsers       { return &MemoryUsers{s} }
func (s *MemoryStore) Bookings() *MemoryBookings { return &MemoryBookings{s} }

type MemoryEvents struct{ s *MemoryStore }

func (m *MemoryEvents) List(_ context.Context, f model.EventFilter) ([]model.Event, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	out := lo.Filter(lo.Values(m.s.events), func(e model.Event, _ int) bool { return matchesFilter(e, f) })
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

func (m *MemoryEvents) GetByID(_ context.Context, id uint64) (model.Event, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	e, ok := m.s.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return e, nil
}

func (m *MemoryEvents) Create(_ context.Context, in model.EventInput) (model.Event, error) {
	e, err := newEventFromInput(in)
	if err != nil {
		return model.Event{}, err
	}
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	m.s.nextID.event++
	e.ID = m.s.nextID.event
	m.s.events[e.ID] = e
	return e, nil
}

func (m *MemoryEvents) Update(_ context.Context, id uint64, in model.EventInput) (model.Event, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	cur, ok := m.s.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	next, err := applyEventUpdate(cur, in)
	if err != nil {
		return model.Event{}, err
	}
	m.s.events[id] = next
	return next, nil
}

func (m *MemoryEvents) Delete(_ context.Context, id uint64) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, ok := m.s.events[id]; !ok {
		return ErrEventNotFound
	}
	if lo.SomeBy(lo.Values(m.s.bookings), func(b model.Booking) bool { return b.EventID == id }) {
		return ErrConflict
	}
	delete(m.s.events, id)
	return nil
}

type MemoryUsers struct{ s *MemoryStore }

func (m *MemoryUsers) Create(_ context.Context, name, email, password, role string, cost int) (uint64, error) {
	email = NormalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	for _, u := range m.s.users {
		if u.Email == email {
			return 0, ErrEmailExists
		}
	}
	m.s.nextID.user++
	u := model.User{
		ID:           m.s.nextID.user,
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    m.s.now(),
	}
	m.s.users[u.ID] = u
	return u.ID, nil
}

func (m *MemoryUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	email = NormalizeEmail(email)
	u, ok := lo.Find(lo.Values(m.s.users), func(u model.User) bool { return u.Email == email })
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	u, ok := m.s.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

type MemoryBookings struct{ s *MemoryStore }

func (m *MemoryBookings) Book(_ context.Context, userID, eventID uint64) (model.Booking, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	u, ok := m.s.users[userID]
	if !ok {
		return model.Booking{}, ErrUserNotFound
	}
	e, ok := m.s.events[eventID]
	if !ok {
		return model.Booking{}, ErrEventNotFound
	}
	if e.AvailableSeats <= 0 {
		return model.Booking{}, ErrSoldOut
	}
	code := utils.NewTicketCode()
	for m.codeTaken(code) {
		code = utils.NewTicketCode()
	}
	e.AvailableSeats--
	m.s.events[eventID] = e

	m.s.nextID.booking++
	b := model.Booking{
		ID:          m.s.nextID.booking,
		UserID:      userID,
		EventID:     eventID,
		TicketCode:  code,
		Status:      model.StatusConfirmed,
		BookingDate: m.s.now(),
		AmountPaid:  e.Price,
	}
	m.s.bookings[b.ID] = b
	return m.decorate(b, u, e), nil
}

func (m *MemoryBookings) codeTaken(code string) bool {
	return lo.SomeBy(lo.Values(m.s.bookings), func(b model.Booking) bool { return b.TicketCode == code })
}

// decorate fills the display fields the SQL implementation joins in.
func (m *MemoryBookings) decorate(b model.Booking, u model.User, e model.Event) model.Booking {
	b.CustomerName = u.Name
	b.CustomerEmail = u.Email
	b.EventTitle = e.Title
	return b
}

func (m *MemoryBookings) view(b model.Booking) model.Booking {
	return m.decorate(b, m.s.users[b.UserID], m.s.events[b.EventID])
}

func (m *MemoryBookings) GetByID(_ context.Context, id uint64) (model.Booking, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	b, ok := m.s.bookings[id]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return m.view(b), nil
}

func (m *MemoryBookings) Find(ctx context.Context, query string) (model.Booking, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.Booking{}, ErrBookingNotFound
	}
	if id, err := strconv.ParseUint(query, 10, 64); err == nil {
		if b, err := m.GetByID(ctx, id); err == nil {
			return b, nil
		}
	}

	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	all := m.sorted(func(model.Booking) bool { return true }, true)
	var (
		b  model.Booking
		ok bool
	)
	if strings.Contains(query, "@") {
		email := NormalizeEmail(query)
		b, ok = lo.Find(all, func(b model.Booking) bool { return b.CustomerEmail == email })
	} else {
		b, ok = lo.Find(all, func(b model.Booking) bool { return strings.EqualFold(b.TicketCode, query) })
	}
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, nil
}

func (m *MemoryBookings) CheckIn(_ context.Context, id uint64) (model.Booking, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	b, ok := m.s.bookings[id]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	if b.CheckedIn() {
		return m.view(b), ErrAlreadyCheckedIn
	}
	b.Status = model.StatusCheckedIn
	m.s.bookings[id] = b
	return m.view(b), nil
}

func (m *MemoryBookings) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	return m.sorted(func(b model.Booking) bool { return b.UserID == userID }, true), nil
}

func (m *MemoryBookings) ListByEvent(_ context.Context, eventID uint64) ([]model.Booking, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	return m.sorted(func(b model.Booking) bool { return b.EventID == eventID }, false), nil
}

func (m *MemoryBookings) ListAll(_ context.Context) ([]model.Booking, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	return m.sorted(func(model.Booking) bool { return true }, true), nil
}

func (m *MemoryBookings) Stats(_ context.Context) (model.Stats, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	all := m.sorted(func(model.Booking) bool { return true }, true)
	return model.Stats{
		TotalBookings:  len(all),
		TotalRevenue:   lo.SumBy(all, func(b model.Booking) float64 { return b.AmountPaid }),
		CheckedIn:      lo.CountBy(all, func(b model.Booking) bool { return b.CheckedIn() }),
		RecentBookings: lo.Slice(all, 0, 5),
	}, nil
}

// sorted returns the decorated bookings accepted by keep ordered by
// booking date then id; newest first when desc is set. Callers hold the
// read lock.
func (m *MemoryBookings) sorted(keep func(model.Booking) bool, desc bool) []model.Booking {
	out := make([]model.Booking, 0)
	for _, b := range m.s.bookings {
		if keep(b) {
			out = append(out, m.view(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, c := out[i], out[j]
		less := a.ID < c.ID
		if !a.BookingDate.Equal(c.BookingDate) {
			less = a.BookingDate.Before(c.BookingDate)
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}
