package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dukerupert/eventory/internal/auth"
	"github.com/dukerupert/eventory/internal/config"
	"github.com/dukerupert/eventory/internal/database"
	"github.com/dukerupert/eventory/internal/handler"
	"github.com/dukerupert/eventory/internal/imagestore"
	"github.com/dukerupert/eventory/internal/logging"
	"github.com/dukerupert/eventory/internal/payment"
	"github.com/dukerupert/eventory/internal/server"
	"github.com/dukerupert/eventory/internal/store"
	"github.com/dukerupert/eventory/internal/store/mongostore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Error("open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer be.close()
	logger.Info("database ready", "driver", cfg.DBDriver)

	if err := bootstrapSuperAdmin(ctx, be.admins, cfg.Bootstrap, logger); err != nil {
		logger.Error("bootstrap superadmin", "error", err)
		os.Exit(1)
	}

	images := imagestore.New(cfg.Images)
	if !cfg.Images.Enabled() {
		logger.Warn("image storage not configured, uploads will fail")
	}
	payments := payment.NewClient(cfg.StripeKey)
	if !payments.Configured() {
		logger.Info("payment lookups disabled, STRIPE_SECRET_KEY not set")
	}

	srv := server.New(be.stores, server.Options{
		Tokens:         auth.NewTokenIssuer(cfg.Session.Secret, cfg.Session.TTL),
		Cookie:         handler.CookieOptions{Secure: cfg.Session.CookieSecure, SameSite: cfg.Session.SameSite},
		Origins:        cfg.Origins,
		TrustedProxies: cfg.TrustedProxies,
		Images:         images,
		Payments:       payments,
	}, logger)

	go srv.RateLimiter().RunCleanup(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("eventory listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// backend is an opened database: the stores the API runs on, the admin
// store used for seeding, and a function that releases the connection.
type backend struct {
	stores server.Stores
	admins adminSeeder
	close  func()
}

// openBackend opens the configured database driver.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.DBDriver == config.DriverMongo {
		client, db, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		admins := mongostore.NewAdminStore(db)
		return &backend{
			stores: server.Stores{
				Categories: mongostore.NewCategoryStore(db),
				Items:      mongostore.NewItemStore(db),
				Vendors:    mongostore.NewVendorStore(db),
				Bookings:   mongostore.NewBookingStore(db),
				Admins:     admins,
				Ping: func(ctx context.Context) error {
					return client.Ping(ctx, readpref.Primary())
				},
			},
			admins: admins,
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				client.Disconnect(ctx)
			},
		}, nil
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	admins := store.NewAdminStore(db)
	return &backend{
		stores: server.Stores{
			Categories: store.NewCategoryStore(db),
			Items:      store.NewItemStore(db),
			Vendors:    store.NewVendorStore(db),
			Bookings:   store.NewBookingStore(db),
			Admins:     admins,
			Ping:       db.PingContext,
		},
		admins: admins,
		close:  func() { db.Close() },
	}, nil
}
