package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-compliance-checker/internal/api"
	"doc-compliance-checker/internal/config"
	"doc-compliance-checker/internal/database"
	"doc-compliance-checker/internal/llm"
	"doc-compliance-checker/internal/middleware"
	"doc-compliance-checker/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var cleanups []func()

	// Model provider
	llmClient, err := llm.NewFromConfig(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	cleanups = append(cleanups, func() { _ = llmClient.Close() })
	log.Printf("LLM provider: %s", cfg.LLM.Provider)

	// Storage for uploads and rewritten documents
	uploads, modified, err := setupStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Task registry (Redis when configured, otherwise process memory)
	var tasks services.TaskStore
	if cfg.Redis.Addr != "" {
		redisStore, err := database.NewRedisTaskStore(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		cleanups = append(cleanups, func() { _ = redisStore.Close() })
		tasks = redisStore
	} else {
		log.Printf("REDIS_ADDR not configured, tasks are kept in memory")
		tasks = services.NewTaskService()
	}

	grammar := services.NewGrammarService(cfg.Grammar)
	aiService := services.NewAIService(llmClient, modified)

	// Initialize MongoDB client (optional - for report caching)
	var mongoClient *database.MongoDBClient
	if cfg.MongoDB.URI != "" {
		mongoClient, err = database.NewMongoDBClient(cfg.MongoDB)
		if err != nil {
			log.Printf("WARNING: Failed to connect to MongoDB (caching disabled): %v", err)
			mongoClient = nil
		} else {
			log.Printf("Successfully connected to MongoDB for report caching")
			aiService.SetReportCache(mongoClient)
			cleanups = append(cleanups, func() { _ = mongoClient.Close() })
		}
	} else {
		log.Printf("MongoDB not configured, report caching disabled")
	}

	compliance := services.NewComplianceService(tasks, uploads, grammar, aiService)
	pdfService := services.NewPDFService()

	// Task metrics (optional)
	if cfg.InfluxDB.URL != "" {
		influxClient, err := database.NewInfluxDBClient(cfg.InfluxDB)
		if err != nil {
			log.Printf("WARNING: Failed to connect to InfluxDB (metrics disabled): %v", err)
		} else {
			compliance.SetMetricsRecorder(influxClient)
			cleanups = append(cleanups, influxClient.Close)
		}
	}

	// Completion emails (optional)
	if cfg.Email.APIKey != "" {
		compliance.SetNotifier(services.NewEmailService(cfg.Email, pdfService))
		log.Printf("SendGrid configured, completion emails enabled")
	} else {
		log.Printf("SendGrid API key not configured, completion emails disabled")
	}

	// Retention sweep (optional)
	if cfg.Retention.MaxAge > 0 {
		retention := services.NewRetentionService(cfg.Retention.MaxAge, map[string]services.Storage{
			"uploads":  uploads,
			"modified": modified,
		})
		if mongoClient != nil {
			retention.SetCachePurger(mongoClient)
		}
		if _, err := retention.Schedule(cfg.Retention.Schedule); err != nil {
			log.Fatalf("Failed to schedule retention sweep: %v", err)
		}
		retention.Start()
		cleanups = append(cleanups, retention.Stop)
	}

	// Authentication (optional)
	var validator middleware.TokenValidator
	if cfg.Auth.JWTSecret != "" {
		validator = services.NewJWTService(cfg.Auth.JWTSecret)
		log.Printf("JWT authentication enabled")
	}

	handlers := api.NewHandlers(compliance, pdfService, cfg.Server.MaxUploadSize)
	router := api.SetupRoutes(handlers, validator)

	setupGracefulShutdown(cleanups)

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupStorage returns the uploads and modified-documents areas
func setupStorage(cfg *config.Config) (services.Storage, services.Storage, error) {
	if cfg.Storage.Backend == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := services.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using S3 storage (bucket=%s)", cfg.S3.Bucket)
		return services.NewS3Storage(client, cfg.S3.Bucket, services.S3UploadPrefix),
			services.NewS3Storage(client, cfg.S3.Bucket, services.S3ModifiedPrefix), nil
	}

	uploads, err := services.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		return nil, nil, err
	}
	modified, err := services.NewLocalStorage(cfg.Storage.ModifiedDir)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Using local storage (uploads=%s, modified=%s)", cfg.Storage.UploadDir, cfg.Storage.ModifiedDir)
	return uploads, modified, nil
}

// setupGracefulShutdown handles cleanup on application termination
func setupGracefulShutdown(cleanups []func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutting down gracefully...")
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		os.Exit(0)
	}()
}
