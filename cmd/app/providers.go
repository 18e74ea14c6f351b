package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/openrx/admatch/internal/domain/ads"
	"github.com/openrx/admatch/internal/domain/auth"
	"github.com/openrx/admatch/internal/domain/catalog"
	"github.com/openrx/admatch/internal/domain/chat"
	"github.com/openrx/admatch/internal/domain/stats"
	"github.com/openrx/admatch/internal/infra/adrepo"
	"github.com/openrx/admatch/internal/infra/config"
	"github.com/openrx/admatch/internal/infra/eventrepo"
	"github.com/openrx/admatch/internal/infra/llm/chatgpt"
	"github.com/openrx/admatch/internal/infra/statcache"
	"github.com/openrx/admatch/internal/infra/userrepo"
)

func provideAdsConfig(cfg *config.Config) ads.Config {
	return ads.Config{
		EmbeddingModel:      cfg.LLM.EmbeddingModel,
		SimilarityThreshold: cfg.Ads.SimilarityThreshold,
	}
}

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Prompt:      cfg.Chat.Prompt,
	}
}

func provideCatalogConfig(cfg *config.Config) catalog.Config {
	return catalog.Config{EmbeddingModel: cfg.LLM.EmbeddingModel}
}

func provideStatsConfig(cfg *config.Config) stats.Config {
	return stats.Config{CacheTTL: cfg.Stats.CacheTTL}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}
}

func provideChatGPTClient(cfg *config.Config) (*chatgpt.Client, error) {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
}

// dataStores bundles every persistence interface so the postgres/memory
// decision is made exactly once.
type dataStores struct {
	categories ads.CategoryRepository
	bids       ads.BidRepository
	adEvents   ads.EventRepository
	catalog    catalog.Repository
	statBids   stats.BidRepository
	statEvents stats.EventRepository
	users      auth.Repository
}

func provideDataStores(cfg *config.Config, logger *slog.Logger) *dataStores {
	if pool := connectPostgres(cfg, logger); pool != nil {
		ad := adrepo.NewPostgresRepository(pool)
		events := eventrepo.NewPostgresRepository(pool)
		return &dataStores{
			categories: ad,
			bids:       ad,
			adEvents:   events,
			catalog:    ad,
			statBids:   ad,
			statEvents: events,
			users:      userrepo.NewPostgresRepository(pool),
		}
	}

	ad := adrepo.NewMemoryRepository()
	events := eventrepo.NewMemoryRepository()
	return &dataStores{
		categories: ad,
		bids:       ad,
		adEvents:   events,
		catalog:    ad,
		statBids:   ad,
		statEvents: events,
		users:      userrepo.NewMemoryRepository(),
	}
}

func connectPostgres(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres repositories enabled")
	return pool
}

func provideCategoryRepository(stores *dataStores) ads.CategoryRepository { return stores.categories }

func provideBidRepository(stores *dataStores) ads.BidRepository { return stores.bids }

func provideAdEventRepository(stores *dataStores) ads.EventRepository { return stores.adEvents }

func provideCatalogRepository(stores *dataStores) catalog.Repository { return stores.catalog }

func provideStatsBidRepository(stores *dataStores) stats.BidRepository { return stores.statBids }

func provideStatsEventRepository(stores *dataStores) stats.EventRepository {
	return stores.statEvents
}

func provideUserRepository(stores *dataStores) auth.Repository { return stores.users }

func provideStatsCache(cfg *config.Config, logger *slog.Logger) stats.Cache {
	if cfg.Stats.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return statcache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return statcache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		} else {
			logger.Info("stats valkey cache enabled", "addr", cfg.Stats.Valkey.Addr)
			return statcache.NewValkeyStore(client, "admatch")
		}
	}
	return statcache.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Stats.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Stats.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Stats.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
