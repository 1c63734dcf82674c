package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"goodfit-api/internal/config"
	"goodfit-api/internal/database"
	"goodfit-api/internal/handlers"
	"goodfit-api/internal/middleware"
	"goodfit-api/internal/redis"
	"goodfit-api/internal/services"
	"goodfit-api/internal/storage"
	"goodfit-api/internal/utils"
	"goodfit-api/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	cfg := config.Load()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg.DatabaseURL, database.GormLogLevel(cfg.LogLevel))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	store := storage.New(db)
	clock := utils.SystemClock()

	var messaging *services.MessagingService
	hub := websocket.NewHub(func(ctx context.Context, userID, conversationID uint) bool {
		return messaging.IsParticipant(ctx, userID, conversationID)
	})
	go hub.Run(ctx)
	go hub.Relay(ctx, redisClient.Subscribe(ctx, websocket.EventsChannel))
	events := services.NewRedisEventBus(redisClient)

	var pusher services.Pusher
	if cfg.PushEnabled {
		fcm, err := services.NewFCMPusher(ctx, cfg)
		if err != nil {
			logrus.WithError(err).Warn("Push notifications disabled")
		} else {
			pusher = fcm
		}
	}
	notifier := services.NewNotifier(store, events, pusher)

	var objects services.ObjectStore
	var photos *services.PhotoSigner
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Photo uploads disabled")
	} else {
		if err := storageService.EnsureBucket(ctx); err != nil {
			logrus.WithError(err).Warn("Failed to ensure photo bucket")
		}
		objects = storageService
		photos = services.NewPhotoSigner(storageService, cfg.PhotoURLTTL)
	}

	messaging = services.NewMessagingService(store, notifier, hub, clock)
	authService := services.NewAuthService(store, cfg.JWTSecret, cfg.JWTExpiry, clock)
	profileService := services.NewProfileService(store, objects, photos)
	matchService := services.NewMatchService(store, store, redisClient, notifier, clock, cfg.MatchCacheTTL, photos)
	activityService := services.NewActivityService(store, clock)
	summaryService := services.NewSummaryService(store, clock)
	liveService := services.NewLiveActivityService(store, clock, redisClient, events, cfg.LiveSnapshotTTL)

	if err := handlers.RegisterValidators(); err != nil {
		logrus.WithError(err).Fatal("Failed to register validators")
	}

	router := setupRoutes(cfg, hub,
		handlers.NewAuthHandler(authService),
		handlers.NewProfileHandler(profileService, notifier, cfg),
		handlers.NewMatchHandler(matchService),
		handlers.NewActivityHandler(activityService),
		handlers.NewLiveActivityHandler(liveService),
		handlers.NewSummaryHandler(summaryService),
		handlers.NewMessageHandler(messaging),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	gin.SetMode(cfg.GinMode)
	if cfg.GinMode == gin.ReleaseMode {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func setupRoutes(cfg *config.Config, hub *websocket.Hub,
	authHandler *handlers.AuthHandler, profileHandler *handlers.ProfileHandler,
	matchHandler *handlers.MatchHandler, activityHandler *handlers.ActivityHandler,
	liveHandler *handlers.LiveActivityHandler, summaryHandler *handlers.SummaryHandler,
	messageHandler *handlers.MessageHandler) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(cfg.CORSAllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRequired := middleware.AuthRequired(cfg.JWTSecret)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		profiles := v1.Group("/profiles")
		profiles.Use(authRequired)
		{
			profiles.GET("/me", profileHandler.GetProfile)
			profiles.PUT("/me", profileHandler.UpdateProfile)
			profiles.POST("/me/photo", profileHandler.UploadPhoto)
			profiles.POST("/me/devices", profileHandler.RegisterDevice)
			profiles.GET("/me/stats", activityHandler.LifetimeStats)
			profiles.GET("/me/goals", summaryHandler.GetGoals)
			profiles.PUT("/me/goals", summaryHandler.UpdateGoals)
			profiles.GET("/discover", matchHandler.Discover)
		}

		swipes := v1.Group("/swipes")
		swipes.Use(authRequired)
		{
			swipes.POST("", matchHandler.Swipe)
			swipes.GET("/likes", matchHandler.MyLikes)
			swipes.GET("/likes-received", matchHandler.LikesReceived)
		}

		matches := v1.Group("/matches")
		matches.Use(authRequired)
		{
			matches.GET("", matchHandler.GetMatches)
			matches.GET("/recent", matchHandler.RecentMatches)
			matches.GET("/:id", matchHandler.GetMatch)
			matches.POST("/:id/unmatch", matchHandler.Unmatch)
		}

		activities := v1.Group("/activities")
		activities.Use(authRequired)
		{
			activities.GET("", activityHandler.List)
			activities.POST("", activityHandler.Create)
			activities.GET("/recent", activityHandler.Recent)
			activities.GET("/stats", activityHandler.Stats)
			activities.GET("/summaries", summaryHandler.List)
			activities.GET("/summaries/today", summaryHandler.Today)
			activities.POST("/summaries/update", summaryHandler.Update)
			activities.GET("/:id", activityHandler.Get)
			activities.PUT("/:id", activityHandler.Update)
			activities.DELETE("/:id", activityHandler.Delete)
		}

		live := activities.Group("/live")
		{
			live.POST("", liveHandler.Start)
			live.GET("", liveHandler.List)
			live.GET("/active", liveHandler.Active)
			live.GET("/:id", liveHandler.Get)
			live.GET("/:id/snapshot", liveHandler.Snapshot)
			live.POST("/:id/points", liveHandler.AddPoint)
			live.POST("/:id/pause", liveHandler.Pause)
			live.POST("/:id/resume", liveHandler.Resume)
			live.POST("/:id/metrics", liveHandler.UpdateMetrics)
			live.POST("/:id/stop", liveHandler.Stop)
		}

		messages := v1.Group("/messages")
		messages.Use(authRequired)
		{
			messages.GET("/conversations", messageHandler.GetConversations)
			messages.GET("/conversations/:id", messageHandler.GetMessages)
			messages.POST("/conversations/:id", messageHandler.SendMessage)
			messages.PUT("/conversations/:id/read", messageHandler.MarkAsRead)
		}

		v1.GET("/ws", authRequired, func(c *gin.Context) {
			websocket.HandleWebSocket(hub, c)
		})
	}

	return router
}
