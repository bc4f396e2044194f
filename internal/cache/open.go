package cache

import (
	"fmt"

	"github.com/annel0/roadmap/internal/config"
)

// Open создаёт кеш по конфигурации
func Open(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case config.CacheMemory, "":
		return NewMemoryCache(), nil
	case config.CacheRedis:
		return NewRedisCache(&RedisConfig{
			RedisURL:      cfg.RedisURL,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("неизвестный бэкенд кеша %q", cfg.Backend)
	}
}
