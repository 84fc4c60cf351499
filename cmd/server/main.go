package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/focusnest/progression-service/internal/config"
	"github.com/focusnest/progression-service/internal/httpapi"
	"github.com/focusnest/progression-service/internal/notify"
	"github.com/focusnest/progression-service/internal/platform/auth"
	"github.com/focusnest/progression-service/internal/platform/clock"
	"github.com/focusnest/progression-service/internal/platform/events"
	"github.com/focusnest/progression-service/internal/platform/ids"
	"github.com/focusnest/progression-service/internal/platform/logging"
	"github.com/focusnest/progression-service/internal/platform/server"
	"github.com/focusnest/progression-service/internal/progression"
	"github.com/focusnest/progression-service/internal/workout"
)

const serviceName = "progression-service"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName)

	backend, err := newStores(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}
	defer backend.cleanup()

	workoutService, err := workout.NewService(backend.workouts, clock.System{}, ids.UUID{})
	if err != nil {
		panic(fmt.Errorf("workout service init error: %w", err))
	}

	engine, err := progression.NewChallengeEngine(
		progression.DefaultChallengeTemplates(),
		progression.NewRandomSource(),
		ids.UUID{},
		cfg.Progression.Location,
	)
	if err != nil {
		panic(fmt.Errorf("challenge engine init error: %w", err))
	}

	inbox := notify.NewInbox(cfg.Notify.HistorySize, nil)
	guards := notify.NewRegistry(notify.Options{
		Cooldown:      cfg.Notify.Cooldown,
		RecencyWindow: cfg.Notify.RecencyWindow,
		HistorySize:   cfg.Notify.HistorySize,
	}, func(userID string) notify.Sink {
		return notify.MultiSink{inbox.For(userID), notify.LogSink{Logger: logging.WithUser(logger, userID)}}
	})

	progressionService, err := progression.NewService(progression.Deps{
		Log:              backend.workouts,
		Store:            backend.state,
		Ledger:           progression.NewLedger(progression.DefaultXPSources(), progression.DefaultLevelTable()),
		Challenges:       engine,
		Catalog:          progression.DefaultBadges(),
		Guards:           guards,
		Publisher:        events.LogPublisher{Logger: logger},
		Clock:            clock.System{},
		Logger:           logger,
		Location:         cfg.Progression.Location,
		ChallengeHistory: cfg.Progression.ChallengeHistory,
	})
	if err != nil {
		panic(fmt.Errorf("progression service init error: %w", err))
	}

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := server.NewRouter(serviceName, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))
			httpapi.RegisterRoutes(r, workoutService, progressionService, inbox, logger)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := server.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

type stores struct {
	workouts workout.Repository
	state    progression.StateStore
	cleanup  func()
}

func newStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return stores{}, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		var (
			client *firestore.Client
			err    error
		)
		if cfg.Firestore.Database != "" {
			client, err = firestore.NewClientWithDatabase(ctx, cfg.GCPProjectID, cfg.Firestore.Database)
		} else {
			client, err = firestore.NewClient(ctx, cfg.GCPProjectID)
		}
		if err != nil {
			return stores{}, fmt.Errorf("firestore client: %w", err)
		}

		return stores{
			workouts: workout.NewFirestoreRepository(client),
			state:    progression.NewFirestoreStore(client),
			cleanup:  func() { _ = client.Close() },
		}, nil
	case config.DataStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return stores{}, fmt.Errorf("redis ping: %w", err)
		}

		return stores{
			workouts: workout.NewMemoryRepository(),
			state:    progression.NewRedisStore(client),
			cleanup:  func() { _ = client.Close() },
		}, nil
	default:
		return stores{
			workouts: workout.NewMemoryRepository(),
			state:    progression.NewMemoryStore(),
			cleanup:  func() {},
		}, nil
	}
}
