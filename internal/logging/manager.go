package logging

import (
	"errors"
	"fmt"
	"sync"
)

// LoggerManager хранит по одному логгеру на компонент (scanner, roadmap, app, http...)
type LoggerManager struct {
	mu       sync.Mutex
	loggers  map[string]*Logger
	level    LogLevel // консольный уровень для всех компонентов
	fileless bool
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает общий менеджер процесса
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers: make(map[string]*Logger),
			level:   INFO,
		}
	})
	return globalManager
}

// DisableFiles отключает файлы для логгеров, созданных после вызова (тесты)
func (lm *LoggerManager) DisableFiles() {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.fileless = true
}

// Component возвращает логгер компонента, создавая его при первом обращении.
// Если файл создать не удалось, компонент пишет только в консоль.
func (lm *LoggerManager) Component(name string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[name]; ok {
		return logger
	}

	var logger *Logger
	if !lm.fileless {
		var err error
		if logger, err = NewLogger(name); err != nil {
			Default().Warn("⚠️ Логгер %s без файла: %v", name, err)
			logger = nil
		}
	}
	if logger == nil {
		logger = &Logger{
			component:     name,
			consoleLogger: Default().consoleLogger,
			minFileLevel:  OFF,
		}
	}
	logger.minConsoleLevel = lm.level

	lm.loggers[name] = logger
	return logger
}

// SetLevel меняет консольный уровень у всех компонентов, в том числе будущих
func (lm *LoggerManager) SetLevel(level LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.level = level
	for _, logger := range lm.loggers {
		logger.mu.Lock()
		logger.minConsoleLevel = level
		logger.mu.Unlock()
	}
}

// Close закрывает файлы всех компонентов и забывает их
func (lm *LoggerManager) Close() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for name, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", name, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// GetComponentLogger сокращение для GetLoggerManager().Component
func GetComponentLogger(name string) *Logger {
	return GetLoggerManager().Component(name)
}
