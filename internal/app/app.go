package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"talkwave/internal/config"
	"talkwave/internal/handlers"
	"talkwave/internal/realtime"
	"talkwave/internal/repositories"
	"talkwave/internal/routes"
	"talkwave/internal/services"

	_ "talkwave/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === Store ===
	var (
		userRepo    repositories.UserRepository
		chatRepo    repositories.ChatRepository
		messageRepo repositories.MessageRepository
	)
	if cfg.Mongo.URI != "" {
		client, err := repositories.ConnectMongo(cfg.Mongo.URI)
		if err != nil {
			log.Fatalf("mongo connection failed: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.Printf("mongo disconnect: %v", err)
			}
		}()
		db := client.Database(cfg.Mongo.Database)
		userRepo = repositories.NewUserRepository(db)
		chatRepo = repositories.NewChatRepository(db)
		messageRepo = repositories.NewMessageRepository(db)
		log.Printf("connected to mongo database %q", cfg.Mongo.Database)
	} else {
		log.Printf("no mongo uri configured, using in-memory store (data is not persisted)")
		userRepo = repositories.NewMemoryUserRepository()
		chatRepo = repositories.NewMemoryChatRepository()
		messageRepo = repositories.NewMemoryMessageRepository()
	}

	// === Services ===
	var emailService services.EmailService
	if cfg.Email.SMTPHost != "" {
		emailService = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
	} else {
		emailService = services.NewNoopEmailService()
	}

	authService := services.NewAuthService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	userService := services.NewUserService(userRepo, emailService)
	chatService := services.NewChatService(chatRepo, userRepo, messageRepo)
	messageService := services.NewMessageService(messageRepo, chatRepo, userRepo)

	// === Relay ===
	hub := realtime.NewHub()

	// === Handlers ===
	userHandler := handlers.NewUserHandler(userService, authService)
	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageService)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	routes.SetupRoutes(router, userHandler, chatHandler, messageHandler, hub, authService, userService)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
