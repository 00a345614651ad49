package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Multipart MultipartConfig `yaml:"multipart"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sync      SyncConfig      `yaml:"sync"`
}

type MultipartConfig struct {
	CollapseEmpty *bool `yaml:"collapse_empty"`
	MaxQueryDepth int   `yaml:"max_query_depth"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Capacity  int    `yaml:"capacity"`
}

type StorageConfig struct {
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	CacheTTL int    `yaml:"cache_ttl_seconds"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Dir       string `yaml:"dir"`
	Component string `yaml:"component"`
	Level     string `yaml:"level"`
}

type SyncConfig struct {
	Source      string `yaml:"source"`
	FlushEvery  int    `yaml:"flush_every_ms"`
	Compression string `yaml:"compression"` // none | zstd
	Mirror      bool   `yaml:"mirror"`      // только применять изменения других узлов
}

// Default возвращает конфигурацию, с которой сервер стартует без файла
func Default() *Config {
	return &Config{
		EventBus:  EventBusConfig{Stream: "MULTIPART", Retention: 24, Capacity: 1024},
		Storage:   StorageConfig{Path: "data/multipart", CacheTTL: 300},
		Metrics:   MetricsConfig{Addr: ":2112"},
		Telemetry: TelemetryConfig{ServiceName: "multipart-server"},
		Logging:   LoggingConfig{Dir: "logs", Component: "server", Level: "info"},
		Sync:      SyncConfig{Source: "multipart-server", FlushEvery: 50, Compression: "zstd"},
	}
}

// GetCollapseEmpty возвращает политику опустевших контейнеров (по умолчанию true)
func (m *MultipartConfig) GetCollapseEmpty() bool {
	if m.CollapseEmpty == nil {
		return true
	}
	return *m.CollapseEmpty
}

// GetAddr возвращает адрес /metrics с приоритетом: config -> env -> default
func (m *MetricsConfig) GetAddr() string {
	return getStringWithEnvFallback(m.Addr, "MULTIPART_METRICS_ADDR", ":2112")
}

// GetPath возвращает директорию badger с приоритетом: config -> env -> default
func (s *StorageConfig) GetPath() string {
	return getStringWithEnvFallback(s.Path, "MULTIPART_DATA_DIR", "data/multipart")
}

// GetCacheTTL возвращает время жизни записей кэша
func (s *StorageConfig) GetCacheTTL() time.Duration {
	return time.Duration(getIntWithEnvFallback(s.CacheTTL, "MULTIPART_CACHE_TTL", 300)) * time.Second
}

// GetFlushInterval возвращает период рассылки изменений
func (s *SyncConfig) GetFlushInterval() time.Duration {
	return time.Duration(getIntWithEnvFallback(s.FlushEvery, "MULTIPART_FLUSH_MS", 50)) * time.Millisecond
}

// getStringWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configVal > 0 {
		return configVal
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if n, err := strconv.Atoi(envVal); err == nil && n > 0 {
			return n
		}
	}

	return defaultVal
}

// Load читает YAML файл конфигурации поверх Default().
// Если path == "", пытается прочитать из ENV MULTIPART_CONFIG; без файла возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MULTIPART_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	return cfg, nil
}
