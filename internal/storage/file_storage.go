package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStorage хранит записи карты как файлы в одном каталоге
type FileStorage struct {
	basePath string // Базовый путь для хранения файлов
}

// NewFileStorage создаёт файловое хранилище. Каталог создаётся при первой записи.
func NewFileStorage(basePath string) *FileStorage {
	return &FileStorage{basePath: basePath}
}

// BasePath возвращает каталог хранилища
func (s *FileStorage) BasePath() string {
	return s.basePath
}

// List возвращает имена файлов каталога; отсутствующий каталог считается пустым
func (s *FileStorage) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога %s: %w", s.basePath, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read читает файл
func (s *FileStorage) Read(ctx context.Context, name string) ([]byte, error) {
	filename, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}
	return data, nil
}

// Write сохраняет файл, создавая каталог при необходимости
func (s *FileStorage) Write(ctx context.Context, name string, data []byte) error {
	filename, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", s.basePath, err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла %s: %w", filename, err)
	}
	return nil
}

// Remove удаляет файл
func (s *FileStorage) Remove(ctx context.Context, name string) (bool, error) {
	filename, err := s.path(name)
	if err != nil {
		return false, err
	}

	err = os.Remove(filename)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка удаления файла %s: %w", filename, err)
	}
	return true, nil
}

// Close ничего не делает для файлового хранилища
func (s *FileStorage) Close() error {
	return nil
}

// Stats возвращает статистику хранилища
func (s *FileStorage) Stats() map[string]interface{} {
	var fileCount int
	var totalBytes int64
	filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			fileCount++
			if info, infoErr := d.Info(); infoErr == nil {
				totalBytes += info.Size()
			}
		}
		return nil
	})

	return map[string]interface{}{
		"stored_files": fileCount,
		"total_bytes":  totalBytes,
		"base_path":    s.basePath,
	}
}

func (s *FileStorage) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("некорректное имя файла %q", name)
	}
	return filepath.Join(s.basePath, name), nil
}
