package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"course-chat-service/internal/auth"
	"course-chat-service/internal/config"
	"course-chat-service/internal/db"
	"course-chat-service/internal/handlers"
	"course-chat-service/internal/messaging"
	"course-chat-service/internal/middleware"
	"course-chat-service/internal/observability"
	"course-chat-service/internal/rabbitmq"
	"course-chat-service/internal/repositories"
	"course-chat-service/internal/telemetry"
	"course-chat-service/internal/ws"
)

const serviceName = "course-chat-service"

func main() {
	cfg := config.Load()

	shutdownTracing := observability.SetupTracing(context.Background(), serviceName, cfg.OTLPEndpoint)
	defer func() { _ = shutdownTracing(context.Background()) }()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	emitter := telemetry.NewAuditEmitter(auditPublisher, cfg.AuditRoutingKey, serviceName, cfg.Environment)

	if eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		log.Printf("ws event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventsPublisher)
		defer eventsPublisher.Close()
	}

	userRepo := repositories.NewUserRepo(database)
	courseRepo := repositories.NewCourseRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		log.Printf("warning: JWT_SECRET not set, all credential checks will fail closed")
	}

	registry := ws.NewRegistry()
	chatService := messaging.NewChatService(userRepo, courseRepo, messageRepo, registry)

	messageHandler := handlers.NewMessageHandler(chatService)
	gateway := ws.NewGateway(registry, verifier, userRepo, chatService, cfg.AllowedOrigin)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier, userRepo)

	router.GET("/contacts", authMiddleware, messageHandler.GetContacts)
	router.GET("/chats", authMiddleware, messageHandler.GetChatPartners)
	router.GET("/messages/:user_id", authMiddleware, messageHandler.GetHistory)
	router.POST("/messages/send/:user_id", authMiddleware, messageHandler.SendMessage)

	router.GET("/ws", gateway.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, emitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
