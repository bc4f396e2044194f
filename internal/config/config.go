package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	Roadmap RoadmapConfig `yaml:"roadmap"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Events  EventsConfig  `yaml:"events"`
	Server  ServerConfig  `yaml:"server"`
	World   WorldConfig   `yaml:"world"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScannerConfig управляет обходом дорожной сети
type ScannerConfig struct {
	// Максимальное расстояние от наблюдателя, в пределах которого блоки записываются
	ScanRadius float64 `yaml:"scan_radius"`
	// Окно поиска пола под наблюдателем и максимальная высота поиска потолка
	ScanHeight int `yaml:"scan_height"`
	// Жёсткий предел числа итераций одного скана
	MaxIterations int      `yaml:"max_iterations"`
	RoadBlocks    []string `yaml:"road_blocks"`
	// Блоки, всегда считающиеся твёрдыми
	TerrainBlocks []string `yaml:"terrain_blocks"`
	// Блоки, всегда считающиеся проходимыми
	IgnoredBlocks []string `yaml:"ignored_blocks"`
	// Записывать ли пустую запись, если пол не найден
	RecordVoid *bool `yaml:"record_void"`
	// Продолжать обход от любых найденных поверхностей, а не только от дорог
	ScanEverything bool `yaml:"scan_everything"`
}

// RoadmapConfig описывает хранилище карты
type RoadmapConfig struct {
	DataPath            string  `yaml:"data_path"`
	UndoHistoryLimit    int     `yaml:"undo_history_limit"`
	FrontierGroupRadius float64 `yaml:"frontier_group_radius"`
}

// StorageConfig выбирает бэкенд для файлов карты
type StorageConfig struct {
	Backend  string `yaml:"backend"` // file | badger
	Compress bool   `yaml:"compress"`
}

// CacheConfig выбирает кеш состояний блоков мира
type CacheConfig struct {
	Backend       string `yaml:"backend"` // memory | redis
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
}

// EventsConfig выбирает шину уведомлений об изменениях карты
type EventsConfig struct {
	Backend          string `yaml:"backend"` // none | memory | nats
	Buffer           int    `yaml:"buffer"`
	NatsURL          string `yaml:"nats_url"`
	Stream           string `yaml:"stream"`
	RetentionMinutes int    `yaml:"retention_minutes"`
}

type ServerConfig struct {
	RESTPort       int   `yaml:"rest_port"`
	MetricsEnabled *bool `yaml:"metrics_enabled"`
	// Экспорт трассировок по OTLP HTTP (адрес из OTEL_EXPORTER_OTLP_ENDPOINT)
	TracingEnabled bool `yaml:"tracing_enabled"`
}

// WorldConfig настраивает демонстрационный мир
type WorldConfig struct {
	Seed int64 `yaml:"seed"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

const (
	StorageFile   = "file"
	StorageBadger = "badger"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	EventsNone    = "none"
	EventsMemory  = "memory"
	EventsNats    = "nats"
)

// Значения по умолчанию
const (
	DefaultScanRadius          = 64.0
	DefaultScanHeight          = 16
	DefaultMaxIterations       = 100000
	DefaultUndoHistoryLimit    = 16
	DefaultFrontierGroupRadius = 8.0
	DefaultDataPath            = "roadmap/scan"
)

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults заполняет незаданные поля
func (c *Config) ApplyDefaults() {
	c.Scanner.applyDefaults()

	if c.Roadmap.DataPath == "" {
		c.Roadmap.DataPath = DefaultDataPath
	}
	if c.Roadmap.UndoHistoryLimit <= 0 {
		c.Roadmap.UndoHistoryLimit = DefaultUndoHistoryLimit
	}
	if c.Roadmap.FrontierGroupRadius <= 0 {
		c.Roadmap.FrontierGroupRadius = DefaultFrontierGroupRadius
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageFile
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}
	if c.Cache.RedisURL == "" {
		c.Cache.RedisURL = "localhost:6379"
	}
	if c.Events.Backend == "" {
		c.Events.Backend = EventsMemory
	}
	if c.Events.Buffer <= 0 {
		c.Events.Buffer = 256
	}
	if c.Events.NatsURL == "" {
		c.Events.NatsURL = "nats://127.0.0.1:4222"
	}
	if c.Events.RetentionMinutes <= 0 {
		c.Events.RetentionMinutes = 60
	}
	if c.Server.MetricsEnabled == nil {
		v := true
		c.Server.MetricsEnabled = &v
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
}

func (s *ScannerConfig) applyDefaults() {
	if s.ScanRadius <= 0 {
		s.ScanRadius = DefaultScanRadius
	}
	if s.ScanHeight <= 0 {
		s.ScanHeight = DefaultScanHeight
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = DefaultMaxIterations
	}
	if s.RoadBlocks == nil {
		s.RoadBlocks = []string{"minecraft:gravel", "minecraft:dirt_path"}
	}
	if s.TerrainBlocks == nil {
		s.TerrainBlocks = []string{}
	}
	if s.IgnoredBlocks == nil {
		s.IgnoredBlocks = []string{"minecraft:snow"}
	}
	if s.RecordVoid == nil {
		v := true
		s.RecordVoid = &v
	}
}

// DefaultScanner возвращает настройки сканера по умолчанию
func DefaultScanner() ScannerConfig {
	s := ScannerConfig{}
	s.applyDefaults()
	return s
}

// ShouldRecordVoid сообщает, нужно ли записывать пустые колонны
func (s ScannerConfig) ShouldRecordVoid() bool {
	return s.RecordVoid == nil || *s.RecordVoid
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFile, StorageBadger:
	default:
		return fmt.Errorf("неизвестный бэкенд хранилища %q", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("неизвестный бэкенд кеша %q", c.Cache.Backend)
	}
	switch c.Events.Backend {
	case EventsNone, EventsMemory, EventsNats:
	default:
		return fmt.Errorf("неизвестный бэкенд событий %q", c.Events.Backend)
	}
	if c.Scanner.ScanHeight < 1 {
		return fmt.Errorf("scan_height должен быть положительным, получено %d", c.Scanner.ScanHeight)
	}
	return nil
}

// IsMetricsEnabled сообщает, нужно ли публиковать метрики Prometheus
func (s ServerConfig) IsMetricsEnabled() bool {
	return s.MetricsEnabled == nil || *s.MetricsEnabled
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "ROADMAP_REST_PORT", 8090)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV ROADMAP_CONFIG или возвращает значения по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ROADMAP_CONFIG")
		if path == "" {
			return Default(), nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save записывает конфигурацию в YAML файл
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("ошибка сериализации конфигурации: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
