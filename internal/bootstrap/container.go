package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"shop-assistant-be/internal/config"
	"shop-assistant-be/internal/controller"
	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/internal/repository/memory"
	"shop-assistant-be/internal/repository/unitofwork"
	"shop-assistant-be/internal/service"
	"shop-assistant-be/pkg/credential"
	"shop-assistant-be/pkg/database"
	"shop-assistant-be/pkg/embedding"
	"shop-assistant-be/pkg/embedding/jina"
	"shop-assistant-be/pkg/events/chatevents"
	"shop-assistant-be/pkg/llm"
	"shop-assistant-be/pkg/llm/factory"
	"shop-assistant-be/pkg/llm/gateway"
	pktNats "shop-assistant-be/pkg/nats"
	"shop-assistant-be/pkg/rag/intent"
	"shop-assistant-be/pkg/rag/retriever"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// localCredential stands in for an API key when the backend (Ollama) needs none.
const localCredential = "local"

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	AdminController  controller.IAdminController
	HealthController controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	CatalogEventService *service.CatalogEventService

	Logger logger.ILogger

	closers []func()
}

// Close releases connections opened while wiring.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	rdb := newRedisClient(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		nc, js, err := pktNats.Connect(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] NATS unavailable, chat events disabled: %v", err)
		} else {
			natsPub = pktNats.NewPublisher(nc, js)
			natsSub = pktNats.NewSubscriber(js)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 4. AI
	embeddingProvider, err := NewEmbeddingProvider(cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		embeddingProvider = embedding.NewCachedProvider(embeddingProvider, rdb, cfg.Ai.EmbeddingCacheTTL, sysLogger)
	}

	gw, cheapGw, cheapTier, err := newGateways(cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using LLM Provider: %s (primary models %v)", cfg.Ai.LLMProvider, cfg.Ai.PrimaryModels)

	corpus := memory.NewCorpusCache(
		uowFactory.NewUnitOfWork(context.Background()).ProductRepository(),
		uowFactory.NewUnitOfWork(context.Background()).ProductEmbeddingRepository(),
		cfg.Ai.CorpusCacheTTL,
	)
	rag := retriever.NewRetriever(embeddingProvider, corpus, cfg.Ai.RetrievalTopK, cfg.Ai.RetrievalMinScore, sysLogger)

	classifier := intent.NewClassifier(cheapGw, cheapTier, sysLogger)

	var eventSink chatevents.EventSink
	if natsPub != nil {
		eventSink = natsPub
	}
	chatEvents := chatevents.NewNatsPublisher(eventSink, sysLogger)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.ProductIndexTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Keys.ProductIndexTopic,
		uowFactory,
		embeddingProvider,
		corpus,
		sysLogger,
	)

	assistantService := service.NewAssistantService(
		uowFactory,
		rag,
		classifier,
		gw,
		chatEvents,
		service.AssistantConfig{
			HistoryLimit: cfg.Ai.HistoryLimit,
			StoreURL:     cfg.App.StoreURL,
		},
		sysLogger,
	)
	conversationService := service.NewConversationService(uowFactory)
	catalogService := service.NewCatalogService(uowFactory, publisherService)

	if natsSub != nil {
		c.CatalogEventService = service.NewCatalogEventService(natsSub, catalogService, sysLogger)
	}

	// 6. Controllers
	c.ChatController = controller.NewChatController(assistantService)
	c.AdminController = controller.NewAdminController(conversationService, catalogService)
	c.HealthController = controller.NewHealthController(database.Ping(db))

	return c, nil
}

func newRedisClient(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// the cache bypasses itself on errors, so keep the client for when Redis comes back
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	return rdb
}

// NewEmbeddingProvider selects the embedding backend from config. Remote
// backends rotate over the low-cost credential pool.
func NewEmbeddingProvider(cfg *config.Config, log logger.ILogger) (embedding.EmbeddingProvider, error) {
	var keyed embedding.KeyedProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		log.Info("Bootstrap", "Using Embedding Provider: OLLAMA", map[string]interface{}{"model": cfg.Ai.OllamaModel})
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel), nil
	case "jina":
		keyed = jina.NewJinaProvider(cfg.Ai.EmbeddingBaseURL, cfg.Ai.EmbeddingModel)
	case "gemini", "":
		keyed = embedding.NewGeminiProvider(cfg.Ai.EmbeddingBaseURL, cfg.Ai.EmbeddingModel)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Ai.EmbeddingProvider)
	}

	pool, err := credential.NewPool(credential.TierEmbedding, cfg.Ai.EmbeddingKeys)
	if err != nil {
		return nil, fmt.Errorf("embedding credentials: %w", err)
	}
	log.Info("Bootstrap", "Using Embedding Provider: "+cfg.Ai.EmbeddingProvider, map[string]interface{}{"keys": pool.Size()})
	return embedding.NewPooledProvider(keyed, pool, log), nil
}

type tierSpec struct {
	tier   credential.Tier
	keys   []string
	models []string
}

// newGateways builds the chat gateway (primary then secondary) and a separate
// one over the low-cost pool for classification. Without cheap models or
// low-cost keys the classifier shares the primary tier.
func newGateways(cfg *config.Config, log logger.ILogger) (chat *gateway.Gateway, cheap *gateway.Gateway, cheapTier credential.Tier, err error) {
	provider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMBaseURL)
	if err != nil {
		return nil, nil, "", err
	}

	keysFor := func(keys []string) []string {
		if len(keys) == 0 && cfg.Ai.LLMProvider == "ollama" {
			return []string{localCredential}
		}
		return keys
	}

	primary := tierSpec{credential.TierPrimary, keysFor(cfg.Ai.PrimaryKeys), cfg.Ai.PrimaryModels}
	chat, err = newGateway(provider, cfg, log, primary,
		tierSpec{credential.TierSecondary, cfg.Ai.SecondaryKeys, cfg.Ai.SecondaryModels},
	)
	if err != nil {
		return nil, nil, "", fmt.Errorf("chat gateway: %w", err)
	}

	cheapKeys := keysFor(cfg.Ai.EmbeddingKeys)
	if len(cfg.Ai.CheapModels) == 0 || len(cheapKeys) == 0 {
		return chat, chat, credential.TierPrimary, nil
	}
	cheap, err = newGateway(provider, cfg, log,
		tierSpec{credential.TierEmbedding, cheapKeys, cfg.Ai.CheapModels},
	)
	if err != nil {
		return nil, nil, "", fmt.Errorf("classifier gateway: %w", err)
	}
	return chat, cheap, credential.TierEmbedding, nil
}

func newGateway(provider llm.Provider, cfg *config.Config, log logger.ILogger, specs ...tierSpec) (*gateway.Gateway, error) {
	var tiers []gateway.TierConfig
	for _, s := range specs {
		if len(s.models) == 0 || len(s.keys) == 0 {
			continue
		}
		pool, err := credential.NewPool(s.tier, s.keys)
		if err != nil {
			return nil, fmt.Errorf("%s credentials: %w", s.tier, err)
		}
		tiers = append(tiers, gateway.TierConfig{Provider: provider, Models: s.models, Pool: pool})
	}

	return gateway.New(tiers,
		gateway.WithAttemptTimeout(cfg.Ai.AttemptTimeout),
		gateway.WithLogger(log),
		gateway.WithObserver(func(a gateway.Attempt) {
			if a.Outcome == gateway.OutcomeSuccess {
				return
			}
			details := map[string]interface{}{
				"tier":       a.Tier,
				"model":      a.Model,
				"credential": a.CredentialIndex,
				"outcome":    a.Outcome.String(),
				"duration":   a.Duration.String(),
			}
			if a.Err != nil {
				details["error"] = a.Err.Error()
			}
			log.Warn("Gateway", "Generation attempt failed", details)
		}),
	)
}
