package bootstrap

import (
	"context"
	"log"
	"time"

	"idea-clustering-be/internal/clustering"
	"idea-clustering-be/internal/config"
	"idea-clustering-be/internal/controller"
	"idea-clustering-be/internal/handler"
	"idea-clustering-be/internal/pkg/logger"
	"idea-clustering-be/internal/ratelimit"
	"idea-clustering-be/internal/repository/memory"
	"idea-clustering-be/internal/repository/unitofwork"
	"idea-clustering-be/internal/service"
	"idea-clustering-be/internal/websocket"
	"idea-clustering-be/pkg/embedding"

	pkgNats "idea-clustering-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DiscussionController controller.IDiscussionController
	TopicController      controller.ITopicController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Realtime
	RealtimeHandler *handler.RealtimeHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Embedding Provider
	var embeddingProvider embedding.EmbeddingProvider
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

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	redisAvailable := true
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		redisAvailable = false
	}

	// Rate Limiter: Redis keeps the window consistent across instances;
	// fall back to per-instance counting when Redis is down.
	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	var limiter ratelimit.Limiter
	if redisAvailable {
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.MaxSubmissions, window)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxSubmissions, window)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/realtime.log")
	var hubRedis *redis.Client
	if redisAvailable {
		hubRedis = rdb
	}
	wsHub := websocket.NewHub(hubRedis, wsLogger)
	go wsHub.Run()

	// 4. Clustering Engine Configuration
	clusterConfig := clustering.Config{
		Threshold: clustering.NewLogThreshold(
			cfg.Cluster.ThresholdBase,
			cfg.Cluster.ThresholdSlope,
			cfg.Cluster.ThresholdMax,
		),
		CandidateLimit: cfg.Cluster.CandidateLimit,
	}
	locks := clustering.NewDiscussionLocks()
	drilldownCache := memory.NewDrilldownCache()

	// 5. Services
	// A nil concrete pointer inside the interface would defeat the
	// services' nil guards, so only assign when the connection exists.
	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IngestTopic,
		uowFactory,
		embeddingProvider,
		locks,
		clusterConfig,
		eventPublisher,
		sysLogger,
	)

	ideaService := service.NewIdeaService(uowFactory, publisherService, limiter, sysLogger)
	topicService := service.NewTopicService(
		uowFactory,
		drilldownCache,
		locks,
		clusterConfig,
		eventPublisher,
		sysLogger,
	)

	// 6. Realtime bridge: NATS events -> websocket rooms
	notifierService := service.NewNotifierService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifierService.Start()
	}

	realtimeHandler := handler.NewRealtimeHandler(wsHub, wsLogger)

	return &Container{
		DiscussionController: controller.NewDiscussionController(ideaService, topicService),
		TopicController:      controller.NewTopicController(topicService),

		ConsumerService: consumerService,

		RealtimeHandler: realtimeHandler,
		WebSocketHub:    wsHub,
	}
}
