package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/eventify/ticketing/internal/client"
	"github.com/eventify/ticketing/internal/model"
)

func idArg(c *cli.Context, name string) (uint64, error) {
	raw := c.Args().First()
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, cli.Exit(fmt.Sprintf("expected a numeric %s, got %q", name, raw), 1)
	}
	return id, nil
}

func loginCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and remember the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"EVENTIFY_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			s, err := e.api.Login(c.Context, c.String("email"), c.String("password"))
			if err != nil {
				return e.check(err)
			}
			if err := e.holder.Set(s); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "%s signed in as %s (%s)\n", ok("✓"), s.Name, s.Role)
			return nil
		},
	}
}

func logoutCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored session",
		Action: func(c *cli.Context) error {
			if err := e.holder.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "signed out")
			return nil
		},
	}
}

func registerCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create a new account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"EVENTIFY_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			msg, err := e.api.Register(c.Context, c.String("name"), c.String("email"), c.String("password"))
			if err != nil {
				return e.check(err)
			}
			fmt.Fprintf(e.out, "%s %s\n", ok("✓"), msg)
			return nil
		},
	}
}

func whoamiCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the signed in account",
		Action: func(c *cli.Context) error {
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			u, err := e.api.Me(c.Context, s)
			if err != nil {
				return e.check(err)
			}
			fmt.Fprintf(e.out, "%s <%s> %s #%d\n", u.Name, u.Email, u.Role, u.ID)
			return nil
		},
	}
}

func eventsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "browse the catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list events",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "match title, description or location"},
					&cli.StringFlag{Name: "category", Usage: "exact category"},
				},
				Action: func(c *cli.Context) error {
					list, err := e.api.ListEvents(c.Context, model.EventFilter{
						Query:    c.String("search"),
						Category: c.String("category"),
					})
					if err != nil {
						return e.check(err)
					}
					printEvents(e.out, list)
					return nil
				},
			},
			{
				Name:      "show",
				ArgsUsage: "<event_id>",
				Usage:     "show one event",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, "event id")
					if err != nil {
						return err
					}
					ev, err := e.api.GetEvent(c.Context, id)
					if err != nil {
						return e.check(err)
					}
					printEvent(e.out, ev)
					return nil
				},
			},
		},
	}
}

func bookCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "book",
		ArgsUsage: "<event_id>",
		Usage:     "book one ticket",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "user", Usage: "book on behalf of another user (admin only)"},
		},
		Action: func(c *cli.Context) error {
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			eventID, err := idArg(c, "event id")
			if err != nil {
				return err
			}
			userID := s.UserID
			if c.IsSet("user") {
				userID = c.Uint64("user")
			}
			b, err := e.api.CreateBooking(c.Context, s, userID, eventID)
			if errors.Is(err, client.ErrSoldOut) {
				return cli.Exit(bad(err.Error()), 1)
			}
			if err != nil {
				return e.check(err)
			}
			fmt.Fprintf(e.out, "%s Booking confirmed!\n\n", ok("✓"))
			printTicket(e.out, b)
			return nil
		},
	}
}

func bookingsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "bookings",
		Usage: "list your tickets",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "every booking (admin only)"},
		},
		Action: func(c *cli.Context) error {
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			var list []model.Booking
			if c.Bool("all") {
				list, err = e.api.ListAllBookings(c.Context, s)
			} else {
				list, err = e.api.ListUserBookings(c.Context, s, s.UserID)
			}
			if err != nil {
				return e.check(err)
			}
			printBookings(e.out, list)
			return nil
		},
	}
}

// dashboardCommand shows the user's tickets next to upcoming events, or
// the booking totals for admins. Both halves are fetched concurrently.
func dashboardCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "your tickets and what is on",
		Action: func(c *cli.Context) error {
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			var (
				events   []model.Event
				bookings []model.Booking
				stats    model.Stats
			)
			g, ctx := errgroup.WithContext(c.Context)
			g.Go(func() error {
				var err error
				events, err = e.api.ListEvents(ctx, model.EventFilter{})
				return err
			})
			if s.IsAdmin() {
				g.Go(func() error {
					var err error
					stats, err = e.api.Stats(ctx, s)
					return err
				})
			} else {
				g.Go(func() error {
					var err error
					bookings, err = e.api.ListUserBookings(ctx, s, s.UserID)
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return e.check(err)
			}

			fmt.Fprintf(e.out, "Welcome back, %s\n\n", s.Name)
			if s.IsAdmin() {
				printStats(e.out, stats)
			} else {
				fmt.Fprintln(e.out, "Your tickets")
				printBookings(e.out, bookings)
			}
			fmt.Fprintln(e.out, "\nEvents")
			printEvents(e.out, events)
			return nil
		},
	}
}

func verifyCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		ArgsUsage: "<ticket code | booking id | email>",
		Usage:     "look a ticket up at the door (admin only)",
		Action: func(c *cli.Context) error {
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			b, err := e.api.FindBooking(c.Context, s, c.Args().First())
			if err != nil {
				return e.check(err)
			}
			printTicket(e.out, b)
			return nil
		},
	}
}

// checkinCommand is the scanner: look the ticket up, then admit the guest.
func checkinCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "checkin",
		Aliases:   []string{"scan"},
		ArgsUsage: "<ticket code | booking id | email>",
		Usage:     "admit a guest (admin only)",
		Action: func(c *cli.Context) error {
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			found, err := e.api.FindBooking(c.Context, s, c.Args().First())
			if err != nil {
				return e.check(err)
			}
			b, err := e.api.CheckIn(c.Context, s, found.ID)
			if errors.Is(err, client.ErrAlreadyProcessed) {
				fmt.Fprintf(e.out, "%s %s\n\n", warn("!"), err)
				printTicket(e.out, b)
				return cli.Exit("", 4)
			}
			if err != nil {
				return e.check(err)
			}
			fmt.Fprintf(e.out, "%s Check-in successful\n\n", ok("✓"))
			printTicket(e.out, b)
			return nil
		},
	}
}

func eventFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Required: required},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "category"},
		&cli.StringFlag{Name: "location"},
		&cli.StringFlag{Name: "image"},
		&cli.StringFlag{Name: "start", Usage: `"2006-01-02 15:04" or RFC 3339`, Required: required},
		&cli.StringFlag{Name: "end"},
		&cli.Float64Flag{Name: "price"},
		&cli.IntFlag{Name: "seats", Usage: "total seats", Required: required},
		&cli.IntFlag{Name: "available", Usage: "available seats, defaults to total"},
	}
}

// eventInput builds an input from flags. For updates base carries the
// current values and only the flags given override them.
func eventInput(c *cli.Context, base model.EventInput) (model.EventInput, error) {
	in := base
	if c.IsSet("title") {
		in.Title = c.String("title")
	}
	if c.IsSet("description") {
		in.Description = c.String("description")
	}
	if c.IsSet("category") {
		in.Category = c.String("category")
	}
	if c.IsSet("location") {
		in.Location = c.String("location")
	}
	if c.IsSet("image") {
		in.ImageURL = c.String("image")
	}
	if c.IsSet("start") {
		t, err := parseDate(c.String("start"))
		if err != nil {
			return in, cli.Exit("invalid --start: "+err.Error(), 1)
		}
		in.StartDate = t
	}
	if c.IsSet("end") {
		t, err := parseDate(c.String("end"))
		if err != nil {
			return in, cli.Exit("invalid --end: "+err.Error(), 1)
		}
		in.EndDate = &t
	}
	if c.IsSet("price") {
		in.Price = c.Float64("price")
	}
	if c.IsSet("seats") {
		in.TotalSeats = c.Int("seats")
	}
	if c.IsSet("available") {
		n := c.Int("available")
		in.AvailableSeats = &n
	}
	return in, nil
}

func inputFromEvent(ev model.Event) model.EventInput {
	return model.EventInput{
		Title:       ev.Title,
		Description: ev.Description,
		Category:    ev.Category,
		Location:    ev.Location,
		ImageURL:    ev.ImageURL,
		StartDate:   ev.StartDate,
		EndDate:     ev.EndDate,
		Price:       ev.Price,
		TotalSeats:  ev.TotalSeats,
	}
}

func adminCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "manage events and guests (admin only)",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "add an event",
				Flags: eventFlags(true),
				Action: func(c *cli.Context) error {
					s, err := e.requireSession()
					if err != nil {
						return err
					}
					in, err := eventInput(c, model.EventInput{})
					if err != nil {
						return err
					}
					ev, err := e.api.CreateEvent(c.Context, s, in)
					if err != nil {
						return e.check(err)
					}
					fmt.Fprintf(e.out, "%s created event #%d\n", ok("✓"), ev.ID)
					return nil
				},
			},
			{
				Name:      "update",
				ArgsUsage: "<event_id>",
				Usage:     "change an event; unset flags keep their value",
				Flags:     eventFlags(false),
				Action: func(c *cli.Context) error {
					s, err := e.requireSession()
					if err != nil {
						return err
					}
					id, err := idArg(c, "event id")
					if err != nil {
						return err
					}
					cur, err := e.api.GetEvent(c.Context, id)
					if err != nil {
						return e.check(err)
					}
					in, err := eventInput(c, inputFromEvent(cur))
					if err != nil {
						return err
					}
					ev, err := e.api.UpdateEvent(c.Context, s, id, in)
					if err != nil {
						return e.check(err)
					}
					printEvent(e.out, ev)
					return nil
				},
			},
			{
				Name:      "delete",
				ArgsUsage: "<event_id>",
				Usage:     "remove an event without bookings",
				Action: func(c *cli.Context) error {
					s, err := e.requireSession()
					if err != nil {
						return err
					}
					id, err := idArg(c, "event id")
					if err != nil {
						return err
					}
					if err := e.api.DeleteEvent(c.Context, s, id); err != nil {
						return e.check(err)
					}
					fmt.Fprintf(e.out, "%s deleted event #%d\n", ok("✓"), id)
					return nil
				},
			},
			{
				Name:      "attendees",
				ArgsUsage: "<event_id>",
				Usage:     "guest list",
				Action: func(c *cli.Context) error {
					s, err := e.requireSession()
					if err != nil {
						return err
					}
					id, err := idArg(c, "event id")
					if err != nil {
						return err
					}
					list, err := e.api.ListAttendees(c.Context, s, id)
					if err != nil {
						return e.check(err)
					}
					printAttendees(e.out, list)
					return nil
				},
			},
			{
				Name:      "broadcast",
				ArgsUsage: "<event_id>",
				Usage:     "email every guest of an event",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Required: true},
					&cli.StringFlag{Name: "message", Required: true},
				},
				Action: func(c *cli.Context) error {
					s, err := e.requireSession()
					if err != nil {
						return err
					}
					id, err := idArg(c, "event id")
					if err != nil {
						return err
					}
					res, err := e.api.Broadcast(c.Context, s, id, c.String("subject"), c.String("message"))
					if err != nil {
						return e.check(err)
					}
					fmt.Fprintf(e.out, "%s %s\n", ok("✓"), res.Message)
					return nil
				},
			},
			{
				Name:  "stats",
				Usage: "booking totals",
				Action: func(c *cli.Context) error {
					s, err := e.requireSession()
					if err != nil {
						return err
					}
					st, err := e.api.Stats(c.Context, s)
					if err != nil {
						return e.check(err)
					}
					printStats(e.out, st)
					return nil
				},
			},
		},
	}
}

func chatCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "chat",
		ArgsUsage: "<message>",
		Usage:     "ask the help desk assistant",
		Action: func(c *cli.Context) error {
			reply, err := e.api.Chat(c.Context, strings.Join(c.Args().Slice(), " "))
			if err != nil {
				return e.check(err)
			}
			fmt.Fprintln(e.out, reply)
			return nil
		},
	}
}
