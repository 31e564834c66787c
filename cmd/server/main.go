package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eventify/ticketing/internal/config"
	"github.com/eventify/ticketing/internal/database"
	"github.com/eventify/ticketing/internal/handler"
	"github.com/eventify/ticketing/internal/logging"
	"github.com/eventify/ticketing/internal/middleware"
	"github.com/eventify/ticketing/internal/notify"
	"github.com/eventify/ticketing/internal/queue"
	"github.com/eventify/ticketing/internal/repository"
	"github.com/eventify/ticketing/internal/router"
	"github.com/eventify/ticketing/internal/service"
)

type stores struct {
	events   handler.EventStore
	users    handler.UserStore
	bookings handler.BookingStore
	db       *sql.DB
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		mem := repository.NewMemoryStore()
		return stores{events: mem.Events(), users: mem.Users(), bookings: mem.Bookings()}, nil
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return stores{}, err
	}
	if err := database.InitSchema(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return stores{
		events:   repository.NewEventRepo(db),
		users:    repository.NewUserRepo(db),
		bookings: repository.NewBookingRepo(db),
		db:       db,
	}, nil
}

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	logging.Init(cfg.IsProduction(), cfg.LogLevel)
	log := logrus.WithField("service", "eventify")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	if st.db != nil {
		defer st.db.Close()
	}
	if err := handler.SeedAdmin(ctx, cfg, st.users, log); err != nil {
		log.WithError(err).Fatal("seed admin")
	}

	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	processor := &queue.Processor{LogPath: cfg.BookingLogPath, Sender: notify.New(cfg.Mail, log)}
	var publisher service.Publisher = service.InlinePublisher{Handler: processor}
	var amqpPub *service.AMQPPublisher
	if cfg.AMQPURL != "" {
		amqpPub = service.NewAMQPPublisher(cfg.AMQPURL)
		defer amqpPub.Close()
		publisher = amqpPub
	}

	opts := router.Options{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   config.LoadRateLimitConfig(),
		Redis:       rdb,
		Cache:       cache,
		Log:         log,
		Auth:        handler.NewAuthHandler(cfg, st.users),
		Events:      handler.NewEventHandler(st.events, cache),
		Bookings:    handler.NewBookingHandler(st.bookings, st.events, publisher, cache),
	}
	if st.db != nil {
		opts.DB = st.db
	}
	e := router.New(opts)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "storage": cfg.StorageDriver}).Info("[HTTP] server listening")
		if err := e.Start(addr); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if amqpPub != nil {
		consumer := &queue.Consumer{URL: cfg.AMQPURL, Handler: processor, Log: log}
		g.Go(func() error { return consumer.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("server stopped")
}
