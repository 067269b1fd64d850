package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go-event-ticketing/config"
	"go-event-ticketing/internal/auth"
	"go-event-ticketing/internal/cache"
	"go-event-ticketing/internal/database"
	"go-event-ticketing/internal/handler"
	"go-event-ticketing/internal/mailer"
	"go-event-ticketing/internal/queue"
	"go-event-ticketing/internal/repository"
	"go-event-ticketing/internal/service"
	"go-event-ticketing/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	eventRepo := repository.NewEventRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	availability := cache.NewRedisAvailabilityCache(rdb, 30*time.Second)

	notifyQueue, err := queue.NewRedisStreamNotificationQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize notification queue: %v", err)
	}

	notificationWorker := worker.NewNotificationWorker(notifyQueue, mailer.NewSMTPMailer(cfg.SMTP))
	if err := notificationWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start notification worker: %v", err)
	}

	bookingService := service.NewBookingService(pool, bookingRepo, eventRepo, userRepo, availability, notifyQueue)
	eventService := service.NewEventService(eventRepo, categoryRepo, availability)
	userService := service.NewUserService(userRepo, tokens)

	router := gin.Default()
	router.Use(cors.Default())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	handler.NewUserHandler(userService, tokens).RegisterRoutes(router)
	handler.NewEventHandler(eventService, bookingService, tokens).RegisterRoutes(router)
	handler.NewBookingHandler(bookingService, tokens).RegisterRoutes(router)

	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
