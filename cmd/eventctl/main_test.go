package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/eventify/ticketing/internal/config"
	"github.com/eventify/ticketing/internal/handler"
	"github.com/eventify/ticketing/internal/repository"
	"github.com/eventify/ticketing/internal/router"
	"github.com/eventify/ticketing/internal/service"
	"github.com/eventify/ticketing/internal/session"
)

type noopHandler struct{}

func (noopHandler) Handle(context.Context, string, []byte) error { return nil }

type harness struct {
	t       *testing.T
	url     string
	session string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Config{
		JWTSecret:     "cli-secret",
		AccessTTLMin:  30,
		BcryptCost:    4,
		AdminName:     "Admin",
		AdminEmail:    "admin@eventify.test",
		AdminPassword: "admin-pass",
	}
	log, _ := test.NewNullLogger()
	store := repository.NewMemoryStore()
	require.NoError(t, handler.SeedAdmin(context.Background(), cfg, store.Users(), log))
	srv := httptest.NewServer(router.New(router.Options{
		JWTSecret: cfg.JWTSecret,
		Log:       log,
		Auth:      handler.NewAuthHandler(cfg, store.Users()),
		Events:    handler.NewEventHandler(store.Events(), nil),
		Bookings:  handler.NewBookingHandler(store.Bookings(), store.Events(), service.InlinePublisher{Handler: noopHandler{}}, nil),
	}))
	t.Cleanup(srv.Close)
	return &harness{t: t, url: srv.URL, session: filepath.Join(t.TempDir(), "session.json")}
}

// run executes one eventctl invocation and returns its output and error.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	full := append([]string{"eventctl", "--api-url", h.url, "--session-file", h.session}, args...)
	err := app.Run(full)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestBookAndScanFlow(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("book", "1")
	assert.ErrorContains(t, err, "not logged in")

	h.mustRun("login", "--email", "admin@eventify.test", "--password", "admin-pass")
	out := h.mustRun("admin", "create", "--title", "Launch Party", "--start", "2026-12-24 20:00", "--seats", "1", "--price", "20")
	assert.Contains(t, out, "created event #1")

	out = h.mustRun("register", "--name", "Guest", "--email", "guest@example.com", "--password", "secret1")
	assert.Contains(t, out, "User registered successfully!")
	h.mustRun("login", "--email", "guest@example.com", "--password", "secret1")

	out = h.mustRun("book", "1")
	assert.Contains(t, out, "Booking confirmed!")
	assert.Contains(t, out, "EVT-")

	out, err = h.run("book", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "This event is sold out!")

	out = h.mustRun("events", "list")
	assert.Contains(t, out, "SOLD OUT")

	out = h.mustRun("dashboard")
	assert.Contains(t, out, "Your tickets")
	assert.Contains(t, out, "Launch Party")

	_, err = h.run("admin", "stats")
	require.Error(t, err)

	h.mustRun("login", "--email", "admin@eventify.test", "--password", "admin-pass")
	out = h.mustRun("checkin", "guest@example.com")
	assert.Contains(t, out, "Check-in successful")

	out, err = h.run("scan", "guest@example.com")
	require.Error(t, err)
	assert.Contains(t, out, "Ticket already scanned")

	out = h.mustRun("admin", "attendees", "1")
	assert.Contains(t, out, "guest@example.com")
	out = h.mustRun("admin", "broadcast", "1", "--subject", "Hi", "--message", "See you")
	assert.Contains(t, out, "Successfully notified 1 guests.")
}

func TestUnauthorizedClearsSession(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "--email", "admin@eventify.test", "--password", "admin-pass")

	store := session.NewFileStore(h.session)
	s, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, s)
	s.Token = "tampered"
	require.NoError(t, store.Save(s))

	_, err = h.run("admin", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log in again")

	s, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestChatAndLogout(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("chat", "where", "are", "my", "tickets")
	assert.Contains(t, out, "Dashboard")

	h.mustRun("login", "--email", "admin@eventify.test", "--password", "admin-pass")
	h.mustRun("logout")
	_, err := h.run("whoami")
	assert.ErrorContains(t, err, "not logged in")
}
