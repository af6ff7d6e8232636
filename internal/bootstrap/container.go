package bootstrap

import (
	"context"
	"log"

	"ai-procedure-assistant-be/internal/config"
	"ai-procedure-assistant-be/internal/controller"
	"ai-procedure-assistant-be/internal/pkg/logger"
	"ai-procedure-assistant-be/internal/repository/implementation"
	"ai-procedure-assistant-be/internal/repository/memory"
	redisrepo "ai-procedure-assistant-be/internal/repository/redis"
	"ai-procedure-assistant-be/internal/service"
	"ai-procedure-assistant-be/pkg/embedding"
	"ai-procedure-assistant-be/pkg/events"
	"ai-procedure-assistant-be/pkg/llm/factory"
	"ai-procedure-assistant-be/pkg/rag/catalog"
	"ai-procedure-assistant-be/pkg/rag/session"
	"ai-procedure-assistant-be/pkg/rerank"

	pktNats "ai-procedure-assistant-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	AssistantController controller.IAssistantController
	AssistantService    service.IAssistantService

	SysLogger logger.ILogger

	natsSub *pktNats.Subscriber
	natsPub *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Repositories
	catalogRepo := implementation.NewCatalogRepository(db)
	chunkRepo := implementation.NewChunkRepository(db)

	// Embedding provider
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Reranker is optional
	var reranker rerank.Reranker
	if cfg.Ai.JinaAPIKey != "" {
		reranker = rerank.NewJinaReranker(cfg.Ai.JinaAPIKey)
		log.Printf("[INFO] Reranking enabled (Jina)")
	}

	// Session storage backend
	var sessionRepo session.Store
	if cfg.Session.Backend == "redis" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Fatalf("[FATAL] Invalid REDIS_URL: %v", err)
		}
		sessionRepo = redisrepo.NewSessionRepository(
			redis.NewClient(opts),
			cfg.Session.TTL,
			log.Default(),
		)
		log.Printf("[INFO] Using Session Backend: REDIS")
	} else {
		sessionRepo = memory.NewSessionRepository(cfg.Session.TTL, cfg.Session.SweepInterval)
		log.Printf("[INFO] Using Session Backend: MEMORY")
	}

	// Routing catalog. An unreadable index is fatal: the router cannot
	// make any decision without reference vectors.
	loaded, err := catalogRepo.LoadCatalog(context.Background())
	if err != nil {
		log.Fatalf("[FATAL] Failed to load reference catalog: %v", err)
	}
	catalogs := catalog.NewProvider(loaded)

	assistantService, err := service.NewAssistantService(
		cfg,
		catalogs,
		catalogRepo,
		chunkRepo,
		embeddingProvider,
		llmProvider,
		reranker,
		sessionRepo,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize assistant service: %v", err)
	}

	c := &Container{
		AssistantController: controller.NewAssistantController(assistantService),
		AssistantService:    assistantService,
		SysLogger:           sysLogger,
	}

	// NATS wiring: reload the catalog when the seeder rebuilds it.
	c.natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	c.natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		subject := "events." + events.TypeCatalogRebuilt
		err = c.natsSub.Subscribe(subject, "assistant-catalog-reload", func(ctx context.Context, event events.Event) error {
			sysLogger.Info("bootstrap", "Catalog rebuild event received", event.Payload())
			return assistantService.ReloadCatalog(ctx)
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to catalog events: %v", err)
		}
	}

	return c
}

// Close releases infrastructure connections.
func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.SysLogger != nil {
		_ = c.SysLogger.Sync()
	}
}
