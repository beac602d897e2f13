package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"y-chat/internal/access"
	"y-chat/internal/auth"
	"y-chat/internal/config"
	"y-chat/internal/db"
	"y-chat/internal/handlers"
	"y-chat/internal/inference"
	"y-chat/internal/media"
	"y-chat/internal/middleware"
	"y-chat/internal/notify"
	"y-chat/internal/observability"
	"y-chat/internal/rabbitmq"
	"y-chat/internal/repositories"
	"y-chat/internal/roomsync"
	"y-chat/internal/telemetry"
	"y-chat/internal/unread"
	"y-chat/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingDSN) {
			log.Fatal("DB_DSN is required")
		}
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	profileRepo := repositories.NewProfileRepo(database)
	sessionRepo := repositories.NewSessionRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	readRepo := repositories.NewReadStatusRepo(database)
	banRepo := repositories.NewBanRepo(database)
	settingsRepo := repositories.NewSettingsRepo(database)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	sessions := auth.NewManager(profileRepo, sessionRepo, tokens, cfg.RefreshTokenTTL)

	guard := access.NewGuard(settingsRepo, profileRepo, banRepo)
	synchronizer := roomsync.NewSynchronizer(roomRepo, messageRepo, profileRepo, readRepo)

	feed := notify.NewFeed()
	listener, err := notify.NewListener(cfg.DatabaseDSN, feed)
	if err != nil {
		log.Fatalf("failed to listen for db changes: %v", err)
	}
	go listener.Run(ctx)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("audit publisher mode: %s", rabbitmq.PublisherMode(publisher))
	audit := telemetry.NewAuditEmitter(publisher, "audit.studio", "y-chat", cfg.Environment)

	uploader := media.NewUploader(cfg.MediaCloudName, cfg.MediaUploadPreset)
	inferenceClient := inference.NewClient(cfg.InferenceAPIKey)

	hub := ws.NewHub()
	roomWS := ws.NewRoomWebSocketHandler(hub, roomRepo, synchronizer, feed, tokens)
	unreadWS := ws.NewUnreadWebSocketHandler(hub, tokens, guard, feed, func(userID string, publish func(map[string]int)) *unread.Tracker {
		return unread.NewTracker(readRepo, roomRepo, feed, userID, publish)
	})

	authHandler := handlers.NewAuthHandler(sessions)
	roomHandler := handlers.NewRoomHandler(roomRepo, profileRepo)
	messageHandler := handlers.NewMessageHandler(roomRepo, messageRepo, synchronizer, guard, uploader)
	unreadHandler := handlers.NewUnreadHandler(readRepo, roomRepo, guard)
	profileHandler := handlers.NewProfileHandler(profileRepo, uploader)
	studioHandler := handlers.NewStudioHandler(guard, roomRepo, messageRepo, profileRepo, banRepo, settingsRepo, sessionRepo, audit)
	inferenceHandler := handlers.NewInferenceHandler(inferenceClient)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("y-chat"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", inferenceHandler.Health)

	router.POST("/auth/signup", authHandler.SignUp)
	router.POST("/auth/login", authHandler.SignIn)
	router.POST("/auth/refresh", authHandler.Refresh)
	router.POST("/auth/logout", authHandler.SignOut)

	authMiddleware := middleware.AuthMiddleware(tokens)

	router.GET("/rooms", authMiddleware, roomHandler.ListRooms)
	router.POST("/rooms", authMiddleware, roomHandler.CreateGroupRoom)
	router.POST("/personal-rooms", authMiddleware, roomHandler.ResolvePersonalRoom)
	router.GET("/rooms/:room_id/invitable", authMiddleware, roomHandler.ListInvitable)
	router.POST("/rooms/:room_id/invite", authMiddleware, roomHandler.Invite)
	router.DELETE("/rooms/:room_id/me", authMiddleware, roomHandler.Leave)

	router.GET("/rooms/:room_id/messages", authMiddleware, messageHandler.GetRoomMessages)
	router.POST("/rooms/:room_id/messages", authMiddleware, messageHandler.SendMessage)
	router.DELETE("/rooms/:room_id/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)

	router.GET("/unread", authMiddleware, unreadHandler.GetUnreadCounts)
	router.GET("/ban", authMiddleware, unreadHandler.GetBanStatus)

	router.GET("/users", authMiddleware, profileHandler.ListUsers)
	router.GET("/profile", authMiddleware, profileHandler.GetMe)
	router.PUT("/profile", authMiddleware, profileHandler.UpdateMe)
	router.POST("/profile/avatar", authMiddleware, profileHandler.UploadAvatar)

	router.GET("/studio/access", authMiddleware, studioHandler.CheckAccess)
	studio := router.Group("/studio", authMiddleware, studioHandler.RequireAccess())
	studio.GET("/rooms", studioHandler.ListRooms)
	studio.GET("/rooms/:room_id/messages", studioHandler.ListRoomMessages)
	studio.PUT("/messages/:message_id", studioHandler.EditMessage)
	studio.DELETE("/messages/:message_id", studioHandler.DeleteMessage)
	studio.PUT("/messages/:message_id/lock", studioHandler.SetMessageLock)
	studio.PUT("/messages/:message_id/user", studioHandler.ReassignMessage)
	studio.GET("/users", studioHandler.ListUsers)
	studio.PUT("/users/:user_id/nickname", studioHandler.RenameUser)
	studio.POST("/users/:user_id/ban", studioHandler.BanUser)
	studio.DELETE("/users/:user_id/ban", studioHandler.UnbanUser)
	studio.POST("/emergency-stop", studioHandler.EmergencyStop)

	router.POST("/api/chat", inferenceHandler.Chat)

	router.GET("/ws/rooms/:room_id", roomWS.Handle)
	router.GET("/ws/unread", unreadWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
