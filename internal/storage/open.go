package storage

import (
	"fmt"

	"github.com/annel0/roadmap/internal/config"
)

// Open создаёт бэкенд по конфигурации
func Open(storageCfg config.StorageConfig, dataPath string) (Backend, error) {
	switch storageCfg.Backend {
	case "", config.StorageFile:
		return NewFileStorage(dataPath), nil
	case config.StorageBadger:
		return NewBadgerStorage(dataPath, storageCfg.Compress)
	default:
		return nil, fmt.Errorf("неизвестный бэкенд хранилища %q", storageCfg.Backend)
	}
}
