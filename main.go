package main

import (
	"log"
	"net/http"
	"time"

	"progress-service/internal/config"
	"progress-service/internal/db"
	"progress-service/internal/event"
	"progress-service/internal/handlers"
	"progress-service/internal/repository"
	"progress-service/internal/service"
	"progress-service/internal/strategy"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	if cfg.MongoDB.URI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(cfg.MongoDB.URI, cfg.MongoDB.Timeout)

	// Redis cache is optional; without it every read goes to Mongo.
	var cache *repository.CacheRepository
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = repository.NewCacheRepository(redisClient, cfg.Redis.CacheTTL)
	} else {
		log.Println("Redis not configured, progress reads will not be cached")
	}

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, progress events will not be published")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	mongoClient := db.Client
	database := mongoClient.Database(cfg.MongoDB.Database)

	// Syllabus content from the authoring pipeline, read-only here
	syllabusRepo := repository.NewSyllabusRepository(database)
	syllabusHandler := handlers.NewSyllabusHandler(syllabusRepo)

	// Unified progress
	progressRepo := repository.NewProgressRepository(database)
	progressService := service.NewProgressService(progressRepo, cache)
	progressHandler := handlers.NewProgressHandler(progressService)

	// Strategy metrics
	userRepo := repository.NewUserRepository(database)
	topicProgressRepo := repository.NewTopicProgressRepository(database)
	strategyService := service.NewStrategyService(userRepo, syllabusRepo, topicProgressRepo, &strategy.Config{
		FallbackTopicHours:      cfg.Strategy.FallbackTopicHours,
		DefaultDailyGoalMinutes: cfg.Strategy.DefaultDailyGoalMinutes,
	})
	strategyHandler := handlers.NewStrategyHandler(strategyService)

	// Public routes - syllabus
	publicSyllabus := r.Group("/public/progress/syllabus")
	{
		publicSyllabus.GET("/", func(c *gin.Context) {
			syllabusHandler.ListSubjects(c)
			if publisher != nil {
				publisher.Publish("syllabus.list", nil)
			}
		})
		publicSyllabus.GET("/:id", func(c *gin.Context) {
			syllabusHandler.GetSubjectByID(c)
			if publisher != nil {
				publisher.Publish("syllabus.get", gin.H{"id": c.Param("id")})
			}
		})
	}

	// Public routes - read-only progress views
	publicProgress := r.Group("/public/progress/user")
	{
		publicProgress.GET("/:id", func(c *gin.Context) {
			progressHandler.GetProgress(c)
			if publisher != nil {
				publisher.Publish("progress.viewed", gin.H{"id": c.Param("id")})
			}
		})
		publicProgress.GET("/:id/recommendations", func(c *gin.Context) {
			progressHandler.GetRecommendations(c)
			if publisher != nil {
				publisher.Publish("progress.recommendations_requested", gin.H{"id": c.Param("id")})
			}
		})
		publicProgress.GET("/:id/strategy", func(c *gin.Context) {
			strategyHandler.GetStrategy(c)
			if publisher != nil {
				publisher.Publish("progress.strategy_computed", gin.H{
					"id":        c.Param("id"),
					"course_id": c.Query("course_id"),
				})
			}
		})
	}

	setupProgressRoutes(r, progressHandler, strategyHandler, publisher)

	r.Run(":" + cfg.Server.Port)
}

func setupProgressRoutes(r *gin.Engine, progressHandler *handlers.ProgressHandler, strategyHandler *handlers.StrategyHandler, publisher *event.EventPublisher) {
	protected := r.Group("/protected/progress")

	// Authentication: the gateway injects the caller's identity
	protected.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	})

	{
		// === LEARNING ACTIVITY COMPLETIONS ===

		protected.POST("/mission", func(c *gin.Context) {
			progressHandler.CompleteMission(c)
			if publisher != nil {
				publisher.Publish("progress.mission.completed", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		protected.POST("/adaptive-test", func(c *gin.Context) {
			progressHandler.CompleteAdaptiveTest(c)
			if publisher != nil {
				publisher.Publish("progress.adaptive_test.completed", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		protected.POST("/topic", func(c *gin.Context) {
			strategyHandler.RecordStudyEvent(c)
			if publisher != nil {
				publisher.Publish("progress.topic.studied", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		protected.PUT("/proficiency", func(c *gin.Context) {
			progressHandler.UpdateSubjectProficiency(c)
			if publisher != nil {
				publisher.Publish("progress.proficiency.updated", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		// === JOURNEY LINKAGE ===

		protected.POST("/journey", func(c *gin.Context) {
			progressHandler.LinkJourney(c)
			if publisher != nil {
				publisher.Publish("progress.journey.linked", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		protected.PUT("/journey/:journeyId", func(c *gin.Context) {
			progressHandler.UpdateJourneyProgress(c)
			if publisher != nil {
				publisher.Publish("progress.journey.synced", gin.H{
					"user_id":    c.GetHeader("X-User-ID"),
					"journey_id": c.Param("journeyId"),
					"timestamp":  time.Now(),
				})
			}
		})
	}
}
