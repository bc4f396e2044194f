package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

const (
	badgerKeyPrefix = "roadmap:"

	valuePlain      byte = 'p'
	valueCompressed byte = 'z'
)

// BadgerStorage хранит записи карты в BadgerDB под ключами roadmap:<имя>.
// Значения опционально сжимаются zstd.
type BadgerStorage struct {
	db       *badger.DB
	dbPath   string
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	mutex    sync.RWMutex
	isReady  bool
}

// NewBadgerStorage открывает (или создаёт) базу в каталоге dataPath
func NewBadgerStorage(dataPath string, compress bool) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dataPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	return &BadgerStorage{
		db:       db,
		dbPath:   dataPath,
		compress: compress,
		encoder:  encoder,
		decoder:  decoder,
		isReady:  true,
	}, nil
}

// List возвращает имена всех записей карты
func (bs *BadgerStorage) List(ctx context.Context) ([]string, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var names []string
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, badgerKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключей BadgerDB: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

// Read читает запись
func (bs *BadgerStorage) Read(ctx context.Context, name string) ([]byte, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var data []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + name))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	return bs.decode(name, data)
}

// Write сохраняет запись
func (bs *BadgerStorage) Write(ctx context.Context, name string, data []byte) error {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	value := bs.encode(data)
	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+name), value)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Remove удаляет запись
func (bs *BadgerStorage) Remove(ctx context.Context, name string) (bool, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return false, fmt.Errorf("хранилище не готово")
	}

	key := []byte(badgerKeyPrefix + name)
	existed := false
	err := bs.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return existed, nil
}

// Close закрывает хранилище данных
func (bs *BadgerStorage) Close() error {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if !bs.isReady {
		return nil
	}

	bs.isReady = false
	bs.encoder.Close()
	bs.decoder.Close()
	return bs.db.Close()
}

func (bs *BadgerStorage) encode(data []byte) []byte {
	if !bs.compress {
		return append([]byte{valuePlain}, data...)
	}
	out := make([]byte, 1, len(data)/2+1)
	out[0] = valueCompressed
	return bs.encoder.EncodeAll(data, out)
}

func (bs *BadgerStorage) decode(name string, value []byte) ([]byte, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("пустое значение записи %s", name)
	}
	switch value[0] {
	case valuePlain:
		return value[1:], nil
	case valueCompressed:
		data, err := bs.decoder.DecodeAll(value[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("ошибка распаковки записи %s: %w", name, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("неизвестный формат значения записи %s", name)
	}
}
