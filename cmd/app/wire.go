//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/openrx/admatch/internal/bootstrap"
	"github.com/openrx/admatch/internal/domain/ads"
	"github.com/openrx/admatch/internal/domain/auth"
	"github.com/openrx/admatch/internal/domain/catalog"
	"github.com/openrx/admatch/internal/domain/chat"
	"github.com/openrx/admatch/internal/domain/stats"
	"github.com/openrx/admatch/internal/infra/config"
	"github.com/openrx/admatch/internal/infra/llm/chatgpt"
	httpiface "github.com/openrx/admatch/internal/interface/http"
	"github.com/openrx/admatch/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAdsConfig,
		provideChatConfig,
		provideCatalogConfig,
		provideStatsConfig,
		provideAuthConfig,
		provideChatGPTClient,
		provideDataStores,
		provideCategoryRepository,
		provideBidRepository,
		provideAdEventRepository,
		provideCatalogRepository,
		provideStatsBidRepository,
		provideStatsEventRepository,
		provideUserRepository,
		provideStatsCache,
		ads.NewService,
		chat.NewService,
		catalog.NewService,
		stats.NewService,
		auth.NewService,
		wire.Bind(new(ads.EmbedClient), new(*chatgpt.Client)),
		wire.Bind(new(catalog.EmbedClient), new(*chatgpt.Client)),
		wire.Bind(new(chat.ChatClient), new(*chatgpt.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
