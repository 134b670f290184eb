package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/internal/config"
	"vehicle-tracker-go/internal/database"
	"vehicle-tracker-go/internal/handler"
	"vehicle-tracker-go/internal/otfile"
	"vehicle-tracker-go/internal/repository"
	"vehicle-tracker-go/internal/service"
	"vehicle-tracker-go/internal/version"
)

func main() {
	cfg := config.LoadConfig()

	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Infof("Запуск Vehicle Tracker API Server %s", version.Version)

	if err := validateTrackerDefaults(cfg); err != nil {
		logger.Fatalf("Некорректные параметры трекера: %v", err)
	}

	// Инициализируем базу данных
	logger.Info("Подключение к базе данных...")
	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		Username: cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
	}
	if err := database.Connect(dbConfig, logger); err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(logger); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	if err := database.HealthCheck(); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	// Директория с файлами детекций
	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		logger.Fatalf("Ошибка создания директории данных: %v", err)
	}

	// Инициализируем репозитории
	runRepo := repository.NewRunRepository(database.DB)

	// Инициализируем сервисы
	trackingService := service.NewTrackingService(otfile.NewReader(logger), otfile.NewWriter(logger), logger)
	runService := service.NewRunService(
		runRepo,
		trackingService,
		cfg.Data.Dir,
		cfg.TrackerConfig(),
		cfg.Tracker.TimeWithoutFrames,
		database.HealthCheck,
		logger,
	)

	// Настраиваем Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	api := router.Group("/api/v1")
	handler.NewTrackingHandler(runService, logger).RegisterRoutes(api)
	handler.NewRunHandler(runService, logger).RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Vehicle Tracker API Server",
			"version": version.Version,
			"status":  "running",
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Сервер запущен на %s", serverAddr)
	logger.Infof("API доступно по адресу: http://localhost:%d/api/v1", cfg.Server.Port)

	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// validateTrackerDefaults проверяет параметры трекера из окружения до запуска сервера
func validateTrackerDefaults(cfg *config.Config) error {
	if cfg.Tracker.TimeWithoutFrames < 0 {
		return fmt.Errorf("TRACK_TIME_WITHOUT_FRAMES must not be negative")
	}
	return cfg.TrackerConfig().Validate()
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
