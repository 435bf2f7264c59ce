// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/overlaykit/markers/internal/config"
	"github.com/overlaykit/markers/internal/database"
	"github.com/overlaykit/markers/internal/influx"
	gormstorage "github.com/overlaykit/markers/internal/storage/gorm"
	influxstorage "github.com/overlaykit/markers/internal/storage/influx"
	"github.com/overlaykit/markers/internal/storage/memory"
	sqlitestorage "github.com/overlaykit/markers/internal/storage/sqlite"

	"github.com/rs/zerolog"
)

// Storage type names accepted by NewBackend.
const (
	TypeMemory   = "memory"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeInflux   = "influx"
	TypeNone     = "none"
)

// FallbackFileName is where a postgres session that fell back to SQLite is dumped.
const FallbackFileName = "markers_fallback.db"

// Options carries what the backends need besides their own config section.
type Options struct {
	Version     string
	ScreenWidth float64
	StartedAt   time.Time
	DB          config.DBConfig
	Influx      config.InfluxConfig
	Logger      *slog.Logger
	ZeroLogger  zerolog.Logger
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, opts Options) (Backend, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	switch cfg.Type {
	case TypePostgres:
		return newPostgres(cfg, opts)
	case TypeSQLite:
		b, err := sqlitestorage.New(sqlitestorage.Config{
			DumpPath:      cfg.SQLite.Path,
			DumpInterval:  cfg.SQLite.DumpInterval,
			BatchInterval: cfg.BatchInterval,
			Version:       opts.Version,
			ScreenWidth:   opts.ScreenWidth,
		}, opts.Logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case TypeInflux:
		return influxstorage.New(influx.NewManager(opts.ZeroLogger, opts.Influx)), nil
	case TypeMemory:
		return memory.New(cfg.Memory, memory.SessionInfo{
			Version:     opts.Version,
			ScreenWidth: opts.ScreenWidth,
			StartedAt:   opts.StartedAt,
		}), nil
	case TypeNone:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// postgresBackend dumps its in-memory fallback database on Close when postgres was unreachable.
type postgresBackend struct {
	*gormstorage.Backend
	manager *database.Manager
}

func newPostgres(cfg config.StorageConfig, opts Options) (Backend, error) {
	manager := database.NewManager(opts.ZeroLogger)
	if err := manager.Connect(opts.DB); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	manager.SqliteFilePath = filepath.Join(cfg.Memory.OutputDir, FallbackFileName)

	return &postgresBackend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:            manager.DB,
			Logger:        opts.Logger,
			BatchInterval: cfg.BatchInterval,
			Version:       opts.Version,
			ScreenWidth:   opts.ScreenWidth,
		}),
		manager: manager,
	}, nil
}

func (b *postgresBackend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if !b.manager.ShouldSaveLocal {
		return nil
	}
	return b.manager.DumpMemoryToDisk()
}

// GetExportedFilePath returns the fallback dump path, or "" when connected to postgres.
func (b *postgresBackend) GetExportedFilePath() string {
	if !b.manager.ShouldSaveLocal {
		return ""
	}
	return b.manager.SqliteFilePath
}
