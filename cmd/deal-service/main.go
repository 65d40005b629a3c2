package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"viewora-deals/internal/api/handlers"
	appmw "viewora-deals/internal/api/middleware"
	"viewora-deals/internal/auth"
	"viewora-deals/internal/config"
	"viewora-deals/internal/domain"
	"viewora-deals/internal/infrastructure/leader"
	"viewora-deals/internal/infrastructure/mysql"
	"viewora-deals/internal/infrastructure/redis"
	ws "viewora-deals/internal/infrastructure/websocket"
	"viewora-deals/internal/services"
	"viewora-deals/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (overrides the default search)")
	flag.Parse()

	log := logger.New()
	log.Info("Starting deal service")

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	// Test MySQL connection
	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Initialize repositories
	interestRepo := mysql.NewMySQLInterestRepository(db)
	chatRepo := mysql.NewMySQLChatRepository(db)
	userRepo := mysql.NewMySQLUserRepository(db)
	propertyRepo := mysql.NewMySQLPropertyRepository(db)
	notificationRepo := mysql.NewMySQLNotificationRepository(db)

	// Initialize Redis based components
	eventPublisher := redis.NewRedisEventPublisher(rdb)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Notification dispatch is best-effort: store a row, hand off to push.
	notifier := services.NewNotifier(notificationRepo, services.NewLogPushGateway(log), log)

	// Initialize the room hub, bridged over redis when configured
	localHub := ws.NewHub(log)
	var hub domain.RoomHub = localHub
	var bridge *redis.RoomBridge
	if cfg.Realtime.Bridge {
		bridge = redis.NewRoomBridge(rdb, cfg.Instance.ID, log)
		hub = ws.NewBridgedHub(localHub, bridge, log)
	}

	// Initialize services
	interestService := services.NewInterestService(
		interestRepo, propertyRepo, userRepo, notifier, eventPublisher, log)
	chatService := services.NewChatService(interestRepo, chatRepo, hub, log)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, 0)

	reminder := services.NewPendingInterestReminder(
		userRepo, notifier, leaderElection, cfg.Instance.ID, cfg.Reminder.Schedule, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Initialize handlers
	interestHandler := handlers.NewInterestHandler(interestService, log)
	chatHandler := handlers.NewChatHandler(chatService, userRepo, log)

	// API routes
	api := e.Group("/api/v1", appmw.Auth(tokens))
	api.POST("/properties/:propertyID/interests", interestHandler.Create, appmw.RequireClient)
	api.GET("/interests/mine", interestHandler.ListMine, appmw.RequireClient)
	api.GET("/interests/assigned", interestHandler.ListAssigned, appmw.RequireApprovedBroker)
	api.GET("/interests/available", interestHandler.ListAvailable, appmw.RequireApprovedBroker)
	api.POST("/interests/:id/accept", interestHandler.Accept, appmw.RequireApprovedBroker)
	api.POST("/interests/:id/start", interestHandler.Start, appmw.RequireApprovedBroker)
	api.POST("/interests/:id/close", interestHandler.Close, appmw.RequireApprovedBroker)
	api.POST("/interests/:id/assign", interestHandler.AutoAssign, appmw.RequireAdmin)
	api.GET("/interests/:id/messages", chatHandler.History)
	api.POST("/interests/:id/messages/read", chatHandler.MarkRead)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "deal-service",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Realtime routes
	wsHandlers := ws.NewChatHandlers(chatService, tokens, hub, log)

	router := mux.NewRouter()
	router.Use(appmw.CORS)
	router.HandleFunc("/ws/chat/{interestID}", wsHandlers.HandleConnection)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	realtimeServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Realtime.Port),
		Handler: router,
	}

	// Start background services
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if bridge != nil {
		go func() {
			deliver := func(interestID string, payload json.RawMessage, excludeSessionID string) {
				localHub.Publish(interestID, payload, excludeSessionID)
			}
			if err := bridge.Run(bgCtx, deliver); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Room bridge stopped", "error", err)
			}
		}()
	}

	go func() {
		if err := reminder.Start(bgCtx); err != nil {
			log.Error("Failed to start reminder", "error", err)
		}
	}()

	// Try to become leader
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(bgCtx, cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became deal service leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	// Start servers
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info("Starting API server", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("API server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		log.Info("Starting realtime server", "address", realtimeServer.Addr)
		if err := realtimeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Realtime server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down deal service...")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bgCancel()

	if err := reminder.Stop(); err != nil {
		log.Error("Failed to stop reminder", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}

	if err := realtimeServer.Shutdown(ctx); err != nil {
		log.Error("Realtime server forced to shutdown", "error", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		log.Error("API server forced to shutdown", "error", err)
	}

	log.Info("Deal service stopped")
}
