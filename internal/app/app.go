// Package app wires the services shared by the API server and the terminal UI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/tabungan/internal/auth"
	authStore "github.com/MrJamesThe3rd/tabungan/internal/auth/store"
	"github.com/MrJamesThe3rd/tabungan/internal/balance"
	balanceCache "github.com/MrJamesThe3rd/tabungan/internal/balance/cache"
	balanceStore "github.com/MrJamesThe3rd/tabungan/internal/balance/store"
	"github.com/MrJamesThe3rd/tabungan/internal/config"
	"github.com/MrJamesThe3rd/tabungan/internal/database"
	"github.com/MrJamesThe3rd/tabungan/internal/feed"
	"github.com/MrJamesThe3rd/tabungan/internal/importer"
	"github.com/MrJamesThe3rd/tabungan/internal/statement"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	studentStore "github.com/MrJamesThe3rd/tabungan/internal/student/store"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
	txStore "github.com/MrJamesThe3rd/tabungan/internal/transaction/store"
	"github.com/MrJamesThe3rd/tabungan/internal/user"
	userStore "github.com/MrJamesThe3rd/tabungan/internal/user/store"
)

type App struct {
	Users        *user.Service
	Auth         *auth.Service
	Students     *student.Service
	Balances     *balance.Service
	Transactions *transaction.Service
	Statements   *statement.Service
	Importer     *importer.Service
	Hub          *feed.Hub

	db     *sql.DB
	redis  *redis.Client
	nats   *nats.Conn
	bridge *feed.Bridge
}

// New connects to the stores named in cfg and builds every service. Redis and
// NATS are optional.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	a := &App{db: db}

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, err
		}
	}

	var (
		cache       balance.Cache
		revocations auth.Revocations = authStore.NewMemory()
	)

	if cfg.Redis.Addr != "" {
		a.redis, err = database.NewRedis(database.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, err
		}

		cache = balanceCache.New(a.redis, cfg.Redis.BalanceTTL)
		revocations = authStore.NewRedis(a.redis)
	} else {
		slog.Info("redis not configured, balance cache disabled")
	}

	txRepo := txStore.New(db)

	a.Hub = feed.NewHub(feed.ListerFunc(txRepo.ListTransactions), cfg.Feed.Limit)

	var notifier transaction.Notifier = a.Hub

	if cfg.NATS.URL != "" {
		a.nats, err = nats.Connect(cfg.NATS.URL, nats.Name(cfg.App.Name))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to nats: %w", err)
		}

		a.bridge = feed.NewBridge(a.nats, cfg.NATS.Subject, a.Hub)
		if err := a.bridge.Start(); err != nil {
			a.Close()
			return nil, err
		}

		notifier = a.bridge
	}

	a.Users = user.NewService(userStore.New(db))
	a.Auth = auth.NewService(a.Users, revocations, auth.Options{
		Secret: cfg.Auth.Secret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	a.Students = student.NewService(studentStore.New(db))
	a.Balances = balance.NewService(balanceStore.New(db), cache)
	a.Transactions = transaction.NewService(txRepo, a.Users, a.Balances, notifier)
	a.Statements = statement.NewService(a.Students, a.Transactions, a.Balances)
	a.Importer = importer.NewService()

	return a, nil
}

// Close releases every connection New opened.
func (a *App) Close() error {
	var errs []error

	if a.bridge != nil {
		errs = append(errs, a.bridge.Close())
	}

	if a.nats != nil {
		a.nats.Close()
	}

	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}

	if a.db != nil {
		errs = append(errs, a.db.Close())
	}

	return errors.Join(errs...)
}
