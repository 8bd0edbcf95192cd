package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vietcv/skillpath/internal/clients/redis"
	"github.com/vietcv/skillpath/internal/data"
	"github.com/vietcv/skillpath/internal/db"
	"github.com/vietcv/skillpath/internal/handlers"
	"github.com/vietcv/skillpath/internal/middleware"
	"github.com/vietcv/skillpath/internal/observability"
	"github.com/vietcv/skillpath/internal/platform/embedding"
	"github.com/vietcv/skillpath/internal/platform/envutil"
	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/platform/neo4jdb"
	"github.com/vietcv/skillpath/internal/platform/qdrant"
	"github.com/vietcv/skillpath/internal/repos"
	"github.com/vietcv/skillpath/internal/server"
	"github.com/vietcv/skillpath/internal/services"
	"github.com/vietcv/skillpath/internal/snapshot"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "skillpath-api",
		Environment: envutil.Str("DEPLOY_ENV", "development"),
		Version:     envutil.Str("SERVICE_VERSION", "dev"),
	})
	if shutdownOtel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(shutdownCtx)
		}()
	}

	// Graph store
	log.Info("Connecting backing stores from main...")
	graphDB, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init neo4j driver", "error", err)
		os.Exit(1)
	}
	if graphDB == nil {
		log.Warn("NEO4J_URI unset, snapshot loads will fail until configured")
	} else {
		defer graphDB.Close(ctx)
	}

	// Vector store
	qdrantCfg := qdrant.ConfigFromEnv()
	var vectorStore *qdrant.Store
	if qdrantCfg.URL != "" {
		vectorStore, err = qdrant.NewStore(log, qdrantCfg)
		if err != nil {
			log.Error("Could not init qdrant store", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("QDRANT_URL unset, semantic scoring degrades to structure only")
	}

	// Embeddings
	embedClient, err := embedding.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init embedding client", "error", err)
		os.Exit(1)
	}

	// Cache
	cache, err := redis.NewCache(log)
	if err != nil {
		log.Warn("Redis init failed, running without cache", "error", err)
		cache = nil
	}
	if cache != nil {
		defer cache.Close()
	}

	// Metadata DB
	metaDB, err := db.NewService(log)
	if err != nil {
		log.Error("Could not init metadata db", "error", err)
		os.Exit(1)
	}
	if err := metaDB.AutoMigrateAll(); err != nil {
		log.Warn("Metadata auto migration failed", "error", err)
	}

	// Repos
	skillMetaRepo := repos.NewSkillMetaRepo(metaDB.DB(), log)

	// Engine parameters
	params, err := services.LoadParams()
	if err != nil {
		log.Error("Invalid engine parameters", "error", err)
		os.Exit(1)
	}

	// Snapshot
	holder := &snapshot.Holder{}
	loader := data.NewSnapshotLoader(log, graphDB, vectorStore, qdrantCfg)
	refresher := snapshot.NewRefresher(log, holder, loader, envutil.Dur("SNAPSHOT_REFRESH_INTERVAL", 15*time.Minute))
	if err := refresher.Start(ctx); err != nil {
		log.Warn("Initial snapshot load failed, serving degraded until refresh succeeds", "error", err)
	}

	// Services
	log.Info("Setting up services from main...")
	var embedder services.Embedder
	if embedClient != nil {
		embedder = embedClient
	}
	var searcher services.VectorSearcher
	if vectorStore != nil {
		searcher = vectorStore
	}
	skillSearchService := services.NewSkillSearchService(log, skillMetaRepo, cache, searcher, embedder, qdrantCfg.SkillCollection)
	recommendationService := services.NewRecommendationService(log, holder, params, embedder, skillSearchService, cache)

	// Handlers
	log.Info("Setting up handlers from main...")
	probes := map[string]handlers.Prober{
		"metadata_db": proberFunc(metaDB.Healthy),
	}
	if graphDB != nil {
		probes["neo4j"] = graphDB
	}
	if vectorStore != nil {
		probes["qdrant"] = vectorStore
	}
	if cache != nil {
		probes["redis"] = cache
	}
	recommendationHandler := handlers.NewRecommendationHandler(log, recommendationService)
	courseHandler := handlers.NewCourseHandler(log, recommendationService)
	skillHandler := handlers.NewSkillHandler(log, skillSearchService)
	healthcheckHandler := handlers.NewHealthcheckHandler(log, holder, probes)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		RecommendationHandler: recommendationHandler,
		CourseHandler:         courseHandler,
		SkillHandler:          skillHandler,
		HealthcheckHandler:    healthcheckHandler,
		AuthMiddleware:        authMiddleware,
	})

	port := envutil.Str("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// proberFunc adapts a plain health func to the handlers.Prober interface.
type proberFunc func(ctx context.Context) bool

func (f proberFunc) Healthy(ctx context.Context) bool { return f(ctx) }
