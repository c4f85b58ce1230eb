package container

import (
	"context"
	"errors"
	"fmt"

	"bulbfinder/harvester/internal/browser"
	"bulbfinder/harvester/internal/catalog"
	"bulbfinder/harvester/internal/checkpoint"
	"bulbfinder/harvester/internal/config"
	"bulbfinder/harvester/internal/export"
	"bulbfinder/harvester/internal/navigator"
	"bulbfinder/harvester/internal/proxy"
	"bulbfinder/harvester/internal/repository"
	"bulbfinder/harvester/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config      *config.Config
	Exporter    *export.CSVExporter
	Checkpoints *checkpoint.Store
	Repository  repository.FitmentRepository

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container, err := NewCheckpointsOnly(ctx, cfg)
	if err != nil {
		return nil, err
	}

	proxySupplier, err := newProxySupplier(ctx, cfg)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	if cfg.Database.Enabled {
		if err := container.initRepository(ctx); err != nil {
			container.Close()
			return nil, err
		}
	}

	container.Service = service.NewService(
		browser.NewRodFactory(cfg.Browser, proxySupplier),
		container.Checkpoints,
		container.Exporter,
		container.Repository,
		catalog.New(cfg.Scraper.Placeholder, cfg.Scraper.MinYear, cfg.Scraper.MaxYear),
		navigator.NewRandomPacer(config.Seconds(cfg.Scraper.MinDelay), config.Seconds(cfg.Scraper.MaxDelay)),
		navigator.OptionsFromConfig(cfg.Scraper),
	)

	return container, nil
}

// NewCheckpointsOnly initializes just the exporter and the checkpoint store,
// for commands that inspect a previous run.
func NewCheckpointsOnly(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config:   cfg,
		Exporter: export.NewCSVExporter(cfg.Output.CSV),
	}

	var backend checkpoint.Backend
	switch cfg.Checkpoint.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		container.redis = rdb
		backend = checkpoint.NewRedisBackend(rdb, cfg.Checkpoint.Key)
	default:
		backend = checkpoint.NewFileBackend(cfg.Checkpoint.Path)
	}

	container.Checkpoints = checkpoint.NewStore(backend, container.Exporter)
	return container, nil
}

func (c *Container) initRepository(ctx context.Context) error {
	cfg := c.Config.Database
	db, err := pgxpool.New(ctx,
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
		))
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	c.db = db

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := repository.NewFitmentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	c.Repository = repo

	log.Info("✅ Connected to database successfully")
	return nil
}

func newProxySupplier(ctx context.Context, cfg *config.Config) (proxy.ProxySupplier, error) {
	if !cfg.Proxy.Enabled {
		return nil, nil
	}

	proxies := append([]string{}, cfg.Proxy.Proxies...)
	if cfg.Proxy.File != "" {
		fromFile, err := proxy.LoadProxyFile(cfg.Proxy.File)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, fromFile...)
	}
	if len(proxies) == 0 {
		return nil, errors.New("proxy use enabled but no proxies configured")
	}

	testURL := ""
	if cfg.Proxy.Validate {
		testURL = cfg.Proxy.TestURL
		if testURL == "" {
			testURL = cfg.Scraper.BaseURL
		}
	}

	return proxy.NewProxySupplier(ctx, proxies, testURL)
}

// Run executes a full harvest
func (c *Container) Run(ctx context.Context) (*service.Summary, error) {
	return c.Service.Harvest(ctx)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return err
		}
	}

	log.Debug("Container shut down successfully")
	return nil
}
