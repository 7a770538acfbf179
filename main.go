package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/pollcast/broadcast"
	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/db"
	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/mongostore"
	"github.com/danielhkuo/pollcast/router"
	"github.com/danielhkuo/pollcast/store"
	"github.com/danielhkuo/pollcast/voting"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 10 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server closed")
}

func run(cfg cliparse.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	slog.Info("Storage ready", "type", cfg.DatabaseType)

	hub := broadcast.NewHub(prometheus.DefaultRegisterer, slog.Default())
	var publisher broadcast.Publisher = hub

	// Optional cross-instance fan-out
	var relay *broadcast.RedisRelay
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}

		relay = broadcast.NewRedisRelay(client, cfg.RedisChannelPrefix, hub, slog.Default())
		publisher = relay
		slog.Info("Redis relay enabled", "prefix", cfg.RedisChannelPrefix)
	}

	svc := voting.NewService(st, publisher,
		voting.WithTimeout(cfg.StoreTimeout),
		voting.WithLogger(slog.Default()),
		voting.WithMetrics(prometheus.DefaultRegisterer),
	)

	// Create router
	mux := router.NewRouter(svc, hub, cfg, prometheus.DefaultGatherer)

	// Create server
	server := &http.Server{
		Handler:           middleware.CORS(cfg.CORSOrigin)(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		// Open streams never finish on their own; closing the hub ends them
		hub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore connects to the configured database and prepares its schema.
func openStore(ctx context.Context, cfg cliparse.Config) (store.Store, error) {
	if cfg.DatabaseType == cliparse.DatabaseMongo {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		s, err := mongostore.Connect(connectCtx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Create schema (tables)
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}
	return store.NewSQLStore(conn), nil
}
