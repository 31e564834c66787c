package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/eventify/ticketing/internal/client"
	"github.com/eventify/ticketing/internal/session"
)

// env is what every command needs, built once in Before.
type env struct {
	api    *client.Client
	holder *client.Holder
	out    io.Writer
}

// requireSession returns the stored session or asks the user to log in.
func (e *env) requireSession() (*client.Session, error) {
	s := e.holder.Current()
	if s == nil {
		return nil, errors.New("not logged in, run `eventctl login` first")
	}
	return s, nil
}

// check turns client errors into CLI exits. An unauthorized reply drops
// the stored session so the next command starts from a fresh login.
func (e *env) check(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, client.ErrUnauthorized) {
		if cerr := e.holder.Clear(); cerr != nil {
			logrus.WithError(cerr).Warn("clear session")
		}
		return cli.Exit(fmt.Sprintf("%s. Please log in again with `eventctl login`.", err), 2)
	}
	if errors.Is(err, client.ErrNetwork) {
		return cli.Exit("cannot reach the Eventify server: "+err.Error(), 3)
	}
	return cli.Exit(err.Error(), 1)
}

func newApp() *cli.App {
	e := &env{}
	app := &cli.App{
		Name:  "eventctl",
		Usage: "Browse events, book tickets and run the door",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Eventify server base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"EVENTIFY_API_URL"},
			},
			&cli.StringFlag{
				Name:    "session-file",
				Usage:   "where the login is kept",
				Value:   session.DefaultPath(),
				EnvVars: []string{"EVENTIFY_SESSION_FILE"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per request timeout",
				Value: 15 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log every request",
			},
		},
		Before: func(c *cli.Context) error {
			log := logrus.New()
			log.SetOutput(c.App.ErrWriter)
			if c.Bool("debug") {
				log.SetLevel(logrus.DebugLevel)
			}
			api, err := client.New(c.String("api-url"),
				client.WithTimeout(c.Duration("timeout")),
				client.WithLogger(log),
			)
			if err != nil {
				return err
			}
			e.api = api
			e.holder = client.NewHolder(session.NewFileStore(c.String("session-file")))
			e.out = c.App.Writer
			if err := e.holder.Restore(); err != nil {
				log.WithError(err).Warn("ignoring unreadable session file")
			}
			return nil
		},
		Commands: []*cli.Command{
			loginCommand(e),
			logoutCommand(e),
			registerCommand(e),
			whoamiCommand(e),
			eventsCommand(e),
			bookCommand(e),
			bookingsCommand(e),
			dashboardCommand(e),
			verifyCommand(e),
			checkinCommand(e),
			adminCommand(e),
			chatCommand(e),
		},
	}
	return app
}
