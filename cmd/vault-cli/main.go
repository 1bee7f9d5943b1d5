package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dtroode/vaultqa/database"
	"github.com/dtroode/vaultqa/internal/cli"
	"github.com/dtroode/vaultqa/internal/config"
	"github.com/dtroode/vaultqa/internal/dbmanager"
	"github.com/dtroode/vaultqa/internal/dbutil"
	"github.com/dtroode/vaultqa/internal/logger"
	"github.com/dtroode/vaultqa/internal/repository/postgres"
	storage "github.com/dtroode/vaultqa/internal/storage/minio"
	"github.com/dtroode/vaultqa/internal/vaultcrypto"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	c := cli.New(cli.Options{
		Connect: func(ctx context.Context) (*cli.Backend, error) {
			return connect(ctx, cfg, logger)
		},
		Provisioner: cli.ProvisionerFunc(func(ctx context.Context) (database.ProvisionResult, error) {
			return database.Setup(ctx, cfg.Postgres.AdminDSN(), cfg.Postgres.DSN(), database.ProvisionParams{
				Role:     cfg.Postgres.User,
				Password: cfg.Postgres.Password,
				Database: cfg.Postgres.DB,
			})
		}),
		Logger:  logger,
		Version: appVersion(),
	})

	code := c.Execute(ctx)
	stop()
	os.Exit(code)
}

func connect(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*cli.Backend, error) {
	dsn := cfg.Postgres.DSN()

	db, err := postgres.NewConection(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	mgr, err := dbmanager.Open(ctx, "pgx", dsn)
	if err != nil {
		db.Close()
		return nil, err
	}

	algorithm, err := vaultcrypto.ParseAlgorithm(cfg.Cipher.Algorithm)
	if err != nil {
		db.Close()
		mgr.Close()
		return nil, err
	}
	cipher, err := vaultcrypto.New(vaultcrypto.WithAlgorithm(algorithm))
	if err != nil {
		db.Close()
		mgr.Close()
		return nil, err
	}

	b := &cli.Backend{
		Users:     postgres.NewUserRepository(db),
		Records:   postgres.NewRecordRepository(db),
		Query:     dbutil.New(mgr, logger),
		ReadQuery: dbutil.New(mgr.ReadOnly(), logger),
		Cipher:    cipher,
		Close: func() error {
			return errors.Join(mgr.Close(), db.Close())
		},
	}

	// Exports still work without object storage, only --upload is disabled.
	storageClient, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Warn("object storage unavailable", "endpoint", cfg.Storage.Endpoint, "error", err)
	} else {
		b.Storage = storageClient
	}

	return b, nil
}

func appVersion() string {
	return fmt.Sprintf("%s (built %s, commit %s)", buildVersion, buildDate, buildCommit)
}
