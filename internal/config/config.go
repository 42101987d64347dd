package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Prompts   PromptsConfig
	Recent    RecentConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Session   SessionConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns int `mapstructure:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт).
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// CatalogConfig содержит настройки клиента каталога фильмов (TMDB v3)
type CatalogConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	APIKey       string `mapstructure:"api_key"`
	// BearerToken - токен чтения v4; если задан, используется вместо api_key
	BearerToken string `mapstructure:"bearer_token"`
	Language    string `mapstructure:"language"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`

	// RequestsPerSecond - собственный темп запросов клиента (до 429 от сервера)
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`

	// BackoffSec - пауза после 429 без Retry-After
	BackoffSec int `mapstructure:"backoff_sec"`

	// MaxPage - верхняя граница случайной страницы discover
	MaxPage int `mapstructure:"max_page"`
}

// PromptsConfig содержит настройки конвейера загрузки вопросов
type PromptsConfig struct {
	CacheCapacity int `mapstructure:"cache_capacity"`
	MaxParallel   int `mapstructure:"max_parallel"`
	AttemptFactor int `mapstructure:"attempt_factor"`
	DefaultCount  int `mapstructure:"default_count"`
}

// RecentConfig содержит настройки памяти недавно показанных элементов
type RecentConfig struct {
	Capacity int  `mapstructure:"capacity"`
	Persist  bool `mapstructure:"persist"`
}

// RateLimitConfig содержит настройки ограничения запросов к нашему API
type RateLimitConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MaxRequests int  `mapstructure:"max_requests"`
	WindowSec   int  `mapstructure:"window_sec"`
	// LoadMaxRequests - отдельный лимит на запуск загрузок (каждая ходит в каталог)
	LoadMaxRequests int `mapstructure:"load_max_requests"`
}

// SessionConfig содержит настройки игровых сессий
type SessionConfig struct {
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения (нужен для golang-migrate)
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// CatalogTimeout возвращает таймаут HTTP клиента каталога
func (c *CatalogConfig) CatalogTimeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Backoff возвращает паузу после 429 без Retry-After
func (c *CatalogConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffSec) * time.Second
}

// setDefaults задаёт значения по умолчанию для всех настраиваемых параметров
func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 15)
	vip.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")

	vip.SetDefault("catalog.base_url", "https://api.themoviedb.org/3")
	vip.SetDefault("catalog.image_base_url", "https://image.tmdb.org/t/p/w500")
	vip.SetDefault("catalog.language", "en-US")
	vip.SetDefault("catalog.timeout_sec", 10)
	vip.SetDefault("catalog.requests_per_second", 20.0)
	vip.SetDefault("catalog.burst", 5)
	vip.SetDefault("catalog.backoff_sec", 120)
	vip.SetDefault("catalog.max_page", 5)

	vip.SetDefault("prompts.cache_capacity", 7)
	vip.SetDefault("prompts.max_parallel", 2)
	vip.SetDefault("prompts.attempt_factor", 2)
	vip.SetDefault("prompts.default_count", 7)

	vip.SetDefault("recent.capacity", 100)
	vip.SetDefault("recent.persist", true)

	vip.SetDefault("rate_limit.enabled", true)
	vip.SetDefault("rate_limit.max_requests", 120)
	vip.SetDefault("rate_limit.window_sec", 60)
	vip.SetDefault("rate_limit.load_max_requests", 20)

	vip.SetDefault("session.idle_timeout", 30*time.Minute)
	vip.SetDefault("session.janitor_interval", time.Minute)
}

// Load загружает конфигурацию из файла и проверяет обязательные параметры
func Load(configPath string) (*Config, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase загружает только настройки БД (для утилиты миграций, которой не нужен каталог)
func LoadDatabase(configPath string) (*DatabaseConfig, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete")
	}
	return &cfg.Database, nil
}

func read(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	setDefaults(vip)

	// 2. Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("catalog.base_url", "CATALOG_BASE_URL")
	vip.BindEnv("catalog.api_key", "CATALOG_API_KEY")
	vip.BindEnv("catalog.bearer_token", "CATALOG_BEARER_TOKEN")
	vip.BindEnv("catalog.language", "CATALOG_LANGUAGE")
	vip.BindEnv("catalog.backoff_sec", "CATALOG_BACKOFF_SEC")

	vip.BindEnv("prompts.cache_capacity", "PROMPTS_CACHE_CAPACITY")
	vip.BindEnv("prompts.default_count", "PROMPTS_DEFAULT_COUNT")

	vip.BindEnv("recent.capacity", "RECENT_CAPACITY")
	vip.BindEnv("recent.persist", "RECENT_PERSIST")

	vip.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	vip.BindEnv("rate_limit.load_max_requests", "RATE_LIMIT_LOAD_MAX_REQUESTS")

	vip.BindEnv("server.port", "SERVER_PORT")

	// 3. Файл конфигурации (не страшно, если его нет, т.к. есть BindEnv и умолчания)
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else if os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Catalog Base URL: %s", cfg.Catalog.BaseURL)
		log.Printf("Catalog Credentials Set: %t", cfg.Catalog.APIKey != "" || cfg.Catalog.BearerToken != "")
		log.Printf("Prompt Cache Capacity: %d", cfg.Prompts.CacheCapacity)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Catalog.APIKey == "" && c.Catalog.BearerToken == "" {
		return fmt.Errorf("catalog credentials are required (check CATALOG_API_KEY or CATALOG_BEARER_TOKEN env vars)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Prompts.CacheCapacity < 1 {
		return fmt.Errorf("prompts.cache_capacity must be positive, got %d", c.Prompts.CacheCapacity)
	}
	if c.Prompts.MaxParallel < 1 {
		return fmt.Errorf("prompts.max_parallel must be positive, got %d", c.Prompts.MaxParallel)
	}
	if c.Prompts.AttemptFactor < 1 {
		return fmt.Errorf("prompts.attempt_factor must be positive, got %d", c.Prompts.AttemptFactor)
	}
	return nil
}
