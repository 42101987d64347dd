package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/cinequiz/internal/catalog"
	"github.com/yourusername/cinequiz/internal/config"
	"github.com/yourusername/cinequiz/internal/domain/repository"
	"github.com/yourusername/cinequiz/internal/handler"
	"github.com/yourusername/cinequiz/internal/middleware"
	pgRepo "github.com/yourusername/cinequiz/internal/repository/postgres"
	redisRepo "github.com/yourusername/cinequiz/internal/repository/redis"
	"github.com/yourusername/cinequiz/internal/service/promptmanager"
	"github.com/yourusername/cinequiz/internal/service/session"
	ws "github.com/yourusername/cinequiz/internal/websocket"
	"github.com/yourusername/cinequiz/pkg/database"
)

// recentTTL - сколько хранится память недавних элементов игрока без обновлений
const recentTTL = 30 * 24 * time.Hour

func main() {
	// .env необязателен: в проде переменные приходят из окружения
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к базе данных
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if err := database.MigrateDB(db, migrationsPath); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Репозитории
	settingsRepo := pgRepo.NewSettingsRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient, "cinequiz:")
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	var recentRepo repository.RecentItemsRepository
	if cfg.Recent.Persist {
		recentRepo, err = redisRepo.NewRecentRepo(redisClient, "cinequiz:", recentTTL)
		if err != nil {
			log.Printf("Failed to initialize RecentRepo: %v", err)
			os.Exit(1)
		}
	}

	// Каталог: шлюз переживает рестарт, чтобы не нарушить чужой Retry-After
	gate := catalog.NewRequestGate(cfg.Catalog.Backoff(), cacheRepo)
	gate.Restore()

	catalogClient, err := catalog.NewClient(catalog.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		ImageBaseURL:      cfg.Catalog.ImageBaseURL,
		APIKey:            cfg.Catalog.APIKey,
		BearerToken:       cfg.Catalog.BearerToken,
		Language:          cfg.Catalog.Language,
		Timeout:           cfg.Catalog.CatalogTimeout(),
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
	}, gate)
	if err != nil {
		log.Printf("Failed to initialize catalog client: %v", err)
		os.Exit(1)
	}

	promptConfig := promptmanager.Config{
		CacheCapacity: cfg.Prompts.CacheCapacity,
		MaxParallel:   cfg.Prompts.MaxParallel,
		AttemptFactor: cfg.Prompts.AttemptFactor,
	}

	sessionManager := session.NewManager(
		session.Config{
			IdleTimeout:     cfg.Session.IdleTimeout,
			JanitorInterval: cfg.Session.JanitorInterval,
			DefaultCount:    cfg.Prompts.DefaultCount,
			RecentCapacity:  cfg.Recent.Capacity,
		},
		settingsRepo,
		recentRepo,
		session.NewControllerFactory(catalogClient, promptConfig, cfg.Catalog.MaxPage),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sessionManager.RunJanitor(ctx)

	wsManager := ws.NewManager(ws.NewHub())
	sessionManager.OnClose(wsManager.Hub().CloseSession)

	// Обработчики
	sessionHandler := handler.NewSessionHandler(sessionManager)
	settingsHandler := handler.NewSettingsHandler(sessionManager)
	genreHandler := handler.NewGenreHandler(catalogClient, cacheRepo)
	wsHandler := handler.NewWSHandler(sessionManager, wsManager, cfg.Server.AllowedOrigins)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"sessions":        sessionManager.Count(),
			"ws_clients":      wsManager.GetMetrics()["client_count"],
			"catalog_allowed": gate.Allowed(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	loadLimit := []gin.HandlerFunc{}
	if cfg.RateLimit.Enabled {
		api.Use(rateLimiter.LimitByIP(middleware.APIRateLimitConfig(cfg.RateLimit)))
		loadLimit = append(loadLimit, rateLimiter.Limit(middleware.LoadRateLimitConfig(cfg.RateLimit)))
	}
	{
		api.POST("/sessions", sessionHandler.CreateSession)

		sessionWithID := api.Group("/sessions/:id")
		sessionWithID.Use(middleware.ExtractSessionID("id"))
		{
			sessionWithID.GET("/state", sessionHandler.GetState)
			sessionWithID.POST("/load", append(loadLimit, sessionHandler.LoadPrompts)...)
			sessionWithID.POST("/next", sessionHandler.NextPrompt)
			sessionWithID.POST("/answer", sessionHandler.Answer)
			sessionWithID.POST("/cancel", sessionHandler.CancelPrompts)
			sessionWithID.POST("/reset", sessionHandler.ResetPrompts)
			sessionWithID.PUT("/group", sessionHandler.UpdateGroup)
			sessionWithID.GET("/stats", sessionHandler.GetStats)
			sessionWithID.DELETE("", sessionHandler.DeleteSession)
		}

		players := api.Group("/players/:playerID")
		{
			players.GET("/settings", settingsHandler.GetSettings)
			players.PUT("/settings", settingsHandler.UpdateSettings)
		}

		api.GET("/genres/:group", middleware.ExtractPromptGroup("group"), genreHandler.GetGenres)
	}

	// WebSocket маршрут
	router.GET("/ws/sessions/:id", middleware.ExtractSessionID("id"), wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем janitor и фоновые загрузки всех сессий
	cancel()
	sessionManager.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("Server exited properly")
}
