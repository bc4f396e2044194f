package eventbus

import (
	"fmt"
	"time"

	"github.com/annel0/roadmap/internal/config"
)

// Open создаёт шину по конфигурации; для backend "none" возвращает nil
func Open(cfg config.EventsConfig) (EventBus, error) {
	switch cfg.Backend {
	case config.EventsNone:
		return nil, nil
	case config.EventsMemory, "":
		return NewMemoryBus(cfg.Buffer), nil
	case config.EventsNats:
		bus, err := NewJetStreamBus(cfg.NatsURL, cfg.Stream, time.Duration(cfg.RetentionMinutes)*time.Minute)
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("неизвестный бэкенд событий %q", cfg.Backend)
	}
}
