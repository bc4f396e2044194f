package storage

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, если запись отсутствует в хранилище
var ErrNotFound = errors.New("storage: запись не найдена")

// Backend определяет интерфейс для хранения именованных файлов карты.
// Имена плоские (без каталогов), например chunk_0_-1.txt или markers.txt.
type Backend interface {
	// List возвращает имена всех записей
	List(ctx context.Context) ([]string, error)

	// Read читает запись; ErrNotFound если её нет
	Read(ctx context.Context, name string) ([]byte, error)

	// Write создаёт или перезаписывает запись
	Write(ctx context.Context, name string, data []byte) error

	// Remove удаляет запись; false если её не было
	Remove(ctx context.Context, name string) (bool, error)

	// Close закрывает хранилище
	Close() error
}
