package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hance08/dtl/internal/auth"
	"github.com/hance08/dtl/internal/config"
	"github.com/hance08/dtl/internal/constants"
	"github.com/hance08/dtl/internal/ledger"
	"github.com/hance08/dtl/internal/logging"
	"github.com/hance08/dtl/internal/metadata"
	"github.com/hance08/dtl/internal/metrics"
	"github.com/hance08/dtl/internal/server"
	"github.com/hance08/dtl/internal/service"
	"github.com/hance08/dtl/internal/store"
	"go.uber.org/zap"
)

type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Service *service.Service
	Store   store.Repository
	Issuer  *auth.Issuer

	ledger *ledger.Client
}

// NewApp initialize logger, database, ledger client and services, then return App entity
func NewApp(ctx context.Context, cfg *config.Config, migrationFS fs.FS) (*App, func(), error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}

	creds, err := ledger.ParseCredentials(cfg.Credentials)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid credentials: %w", err)
	}

	dsn, err := ResolveDSN(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	dbStore, err := store.NewStore(ctx, store.Options{Driver: cfg.Database.Driver, DSN: dsn}, migrationFS)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	issuer, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TTL)
	if err != nil {
		dbStore.Close()
		return nil, nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	// an http endpoint dials lazily, so this does not need the ledger to be up
	ledgerClient, err := ledger.Dial(ctx, ledger.Options{
		URL:      cfg.Ledger.RPCURL,
		ChainID:  cfg.Ledger.ChainID,
		Contract: cfg.Ledger.ContractAddress,
		Timeout:  cfg.Ledger.Timeout,
		Logger:   logger,
	})
	if err != nil {
		dbStore.Close()
		return nil, nil, err
	}

	meta := metadata.NewIPFSStore(metadata.Options{
		APIURL:   cfg.Metadata.APIURL,
		Timeout:  cfg.Metadata.Timeout,
		CacheTTL: cfg.Metadata.CacheTTL,
	})

	m := metrics.New()
	svc := service.NewService(service.Deps{
		Repo:        dbStore,
		Ledger:      ledgerClient,
		Metadata:    meta,
		Credentials: creds,
		Logger:      logger,
		Metrics:     m,
	}, cfg)

	cleanup := func() {
		ledgerClient.Close()
		if err := dbStore.Close(); err != nil {
			logger.Error("error closing database", zap.Error(err))
		}
		_ = logger.Sync()
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Service: svc,
		Store:   dbStore,
		Issuer:  issuer,
		ledger:  ledgerClient,
	}, cleanup, nil
}

// NewServer builds the submitter's HTTP surface.
func (a *App) NewServer() *server.Server {
	return server.New(server.Options{
		Addr:            a.Config.Server.Addr,
		TransferRate:    a.Config.Server.TransferRate,
		TransferBurst:   a.Config.Server.TransferBurst,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
		AuthRequired:    a.Config.Auth.Required,
	}, a.serverDeps())
}

// NewOpsServer builds the confirmer's health and metrics listener.
func (a *App) NewOpsServer() *server.Server {
	return server.NewOps(server.Options{
		Addr:            a.Config.Confirmer.HealthAddr,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
	}, a.serverDeps())
}

func (a *App) serverDeps() server.Deps {
	return server.Deps{
		Service: a.Service,
		Store:   a.Store,
		Issuer:  a.Issuer,
		Logger:  a.Logger,
		Metrics: a.Metrics,
	}
}

// NewConfirmer dials the subscription endpoint and builds the confirmer.
// The returned func closes that connection.
func (a *App) NewConfirmer(ctx context.Context) (*service.Confirmer, func(), error) {
	url := a.Config.Ledger.WSURL
	if url == "" {
		url = a.Config.Ledger.RPCURL
	}

	source, err := ledger.Dial(ctx, ledger.Options{
		URL:      url,
		ChainID:  a.Config.Ledger.ChainID,
		Contract: a.Config.Ledger.ContractAddress,
		Timeout:  a.Config.Ledger.Timeout,
		Logger:   a.Logger,
	})
	if err != nil {
		return nil, nil, err
	}

	c := a.Config.Confirmer
	confirmer := service.NewConfirmer(a.Store, source, service.ConfirmerOptions{
		Contract:     a.Config.Ledger.ContractAddress,
		StartBlock:   c.StartBlock,
		Backfill:     c.Backfill,
		StepTimeout:  c.StepTimeout,
		RetryInitial: c.RetryInitial,
		RetryMax:     c.RetryMax,
		Checkpoint:   constants.ConfirmerCheckpoint,
	}, a.Logger, a.Metrics)

	return confirmer, source.Close, nil
}

// ResolveDSN fills in the default sqlite location and expands '~'.
func ResolveDSN(db config.DatabaseConfig) (string, error) {
	driver := strings.ToLower(db.Driver)
	if driver != "" && driver != "sqlite" && driver != "sqlite3" {
		if db.DSN == "" {
			return "", fmt.Errorf("database.dsn is required for driver '%s'", db.Driver)
		}
		return db.DSN, nil
	}

	if db.DSN == "" {
		appDir, err := GetAppDataDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(appDir, constants.DBFileName), nil
	}
	return ExpandPath(db.DSN)
}

func GetAppDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("unable to determine user home directory: %w", err)
		}
		return filepath.Join(home, "."+constants.AppDirName), nil
	}

	return filepath.Join(configDir, constants.AppDirName), nil
}

func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~\\") {
			return filepath.Join(home, path[2:]), nil
		}
	}
	return path, nil
}
