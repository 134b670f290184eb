package config

import (
	"os"
	"strconv"
	"time"

	"vehicle-tracker-go/internal/preprocess"
	"vehicle-tracker-go/internal/tracker"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int
		Host        string
		Environment string
	}
	Data struct {
		Dir string // Корневая директория с файлами детекций
	}
	Database struct {
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
	}
	Tracker struct {
		SigmaL            float64
		SigmaH            float64
		SigmaIoU          float64
		TMin              int
		TMissMax          int
		TimeWithoutFrames time.Duration
	}
	Client struct {
		BaseURL string
		Timeout int // в секундах
	}
	Logging struct {
		Level string
	}
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() *Config {
	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	cfg.Data.Dir = getEnv("DATA_DIR", "./data")

	// Конфигурация базы данных
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Name = getEnv("DB_NAME", "vehicle_tracker")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	// Параметры трекера по умолчанию
	defaults := tracker.DefaultConfig()
	cfg.Tracker.SigmaL = getEnvFloat("TRACK_SIGMA_L", defaults.SigmaL)
	cfg.Tracker.SigmaH = getEnvFloat("TRACK_SIGMA_H", defaults.SigmaH)
	cfg.Tracker.SigmaIoU = getEnvFloat("TRACK_SIGMA_IOU", defaults.SigmaIoU)
	cfg.Tracker.TMin = getEnvInt("TRACK_T_MIN", defaults.TMin)
	cfg.Tracker.TMissMax = getEnvInt("TRACK_T_MISS_MAX", defaults.TMissMax)
	cfg.Tracker.TimeWithoutFrames = getEnvDuration("TRACK_TIME_WITHOUT_FRAMES", preprocess.DefaultTimeWithoutFrames)

	// Конфигурация клиента API
	cfg.Client.BaseURL = getEnv("TRACKER_API_BASE_URL", "http://localhost:8080")
	cfg.Client.Timeout = getEnvInt("TRACKER_API_TIMEOUT_SECONDS", 300) // 5 минут по умолчанию

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// TrackerConfig возвращает параметры трекера по умолчанию
func (c *Config) TrackerConfig() tracker.Config {
	return tracker.Config{
		SigmaL:   c.Tracker.SigmaL,
		SigmaH:   c.Tracker.SigmaH,
		SigmaIoU: c.Tracker.SigmaIoU,
		TMin:     c.Tracker.TMin,
		TMissMax: c.Tracker.TMissMax,
	}
}

// IsProduction проверяет, запущен ли сервис в production окружении
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает float значение переменной окружения или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration принимает как "90s", так и число секунд
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return defaultValue
}
