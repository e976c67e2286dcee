// Package cache хранит последний якорь синхронизации, чтобы время было доступно
// сразу после перезапуска процесса, без обращения к сети.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Record: сериализуемая тройка якоря
type Record struct {
	DeviceWallMs      int64 `yaml:"device_wall_ms"`
	DeviceMonotonicMs int64 `yaml:"device_monotonic_ms"`
	OffsetMs          int64 `yaml:"offset_ms"`
}

// Store: хранилище одной записи
type Store interface {
	// Load возвращает (запись, true) или (zero, false), если записи нет
	Load() (Record, bool, error)
	Save(Record) error
	Clear() error
}

// MemoryStore: хранилище в памяти процесса
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemoryStore создаёт пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return Record{}, false, nil
	}
	return *s.rec, true, nil
}

func (s *MemoryStore) Save(r Record) error {
	s.mu.Lock()
	s.rec = &r
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.rec = nil
	s.mu.Unlock()
	return nil
}

// FileStore: запись в YAML файле. Запись атомарна: временный файл + rename.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore создаёт хранилище по пути path (каталог создаётся при первой записи)
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path возвращает путь к файлу
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("read cache: %w", err)
	}
	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Record{}, false, fmt.Errorf("parse cache: %w", err)
	}
	return r, true, nil
}

func (s *FileStore) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}
