// Package config описывает конфигурацию sntp-sync (YAML). Формат секции clock_sync близок к Timebeat:
// primary/secondary серверы; неизвестные ключи игнорируются.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config: конфигурация sntp-sync
type Config struct {
	ClockSync ClockSyncConfig `yaml:"clock_sync"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Daemon    DaemonConfig    `yaml:"daemon"`
}

// ClockSyncConfig: серверы и параметры синхронизации. Длительности в формате time.ParseDuration.
type ClockSyncConfig struct {
	PrimaryServers      []string `yaml:"primary_servers"`
	SecondaryServers    []string `yaml:"secondary_servers"`
	Timeout             string   `yaml:"timeout"`
	MinWaitBetweenSyncs string   `yaml:"min_wait_between_syncs"`
	CacheExpiration     string   `yaml:"cache_expiration"`
	CacheFile           string   `yaml:"cache_file"` // пусто: якорь только в памяти
}

// ResolverConfig: DNS. При пустом nameserver используется системный резолвер.
type ResolverConfig struct {
	Nameserver string `yaml:"nameserver"`
	Timeout    string `yaml:"timeout"`
}

// DaemonConfig: режим -run
type DaemonConfig struct {
	Interval string `yaml:"interval"`
}

// Default возвращает конфиг по умолчанию
func Default() *Config {
	return &Config{
		ClockSync: ClockSyncConfig{
			PrimaryServers:      []string{"0.pool.ntp.org", "1.pool.ntp.org"},
			SecondaryServers:    []string{"2.pool.ntp.org", "3.pool.ntp.org"},
			Timeout:             "6s",
			MinWaitBetweenSyncs: "1m",
			CacheExpiration:     "1m",
		},
		Resolver: ResolverConfig{
			Timeout: "2s",
		},
		Daemon: DaemonConfig{
			Interval: "1m",
		},
	}
}

// Load читает конфиг из YAML
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML и подставляет значения по умолчанию
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate проверяет длительности и наличие хотя бы одного сервера
func (c *Config) Validate() error {
	if len(c.ClockSync.PrimaryServers)+len(c.ClockSync.SecondaryServers) == 0 {
		return fmt.Errorf("config: clock_sync has no servers")
	}
	for key, v := range map[string]string{
		"clock_sync.timeout":                c.ClockSync.Timeout,
		"clock_sync.min_wait_between_syncs": c.ClockSync.MinWaitBetweenSyncs,
		"clock_sync.cache_expiration":       c.ClockSync.CacheExpiration,
		"resolver.timeout":                  c.Resolver.Timeout,
		"daemon.interval":                   c.Daemon.Interval,
	} {
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		if d < 0 {
			return fmt.Errorf("config: %s: negative duration %s", key, v)
		}
	}
	return nil
}

// Hosts возвращает все серверы: сначала primary, затем secondary
func (c *ClockSyncConfig) Hosts() []string {
	hosts := make([]string, 0, len(c.PrimaryServers)+len(c.SecondaryServers))
	hosts = append(hosts, c.PrimaryServers...)
	return append(hosts, c.SecondaryServers...)
}

// ParseDuration парсит длительность из конфига; при пустой строке или ошибке возвращает def.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func applyDefaults(c *Config) {
	d := Default()
	if len(c.ClockSync.PrimaryServers) == 0 && len(c.ClockSync.SecondaryServers) == 0 {
		c.ClockSync.PrimaryServers = d.ClockSync.PrimaryServers
		c.ClockSync.SecondaryServers = d.ClockSync.SecondaryServers
	}
	if c.ClockSync.Timeout == "" {
		c.ClockSync.Timeout = d.ClockSync.Timeout
	}
	if c.ClockSync.MinWaitBetweenSyncs == "" {
		c.ClockSync.MinWaitBetweenSyncs = d.ClockSync.MinWaitBetweenSyncs
	}
	if c.ClockSync.CacheExpiration == "" {
		c.ClockSync.CacheExpiration = d.ClockSync.CacheExpiration
	}
	if c.Resolver.Timeout == "" {
		c.Resolver.Timeout = d.Resolver.Timeout
	}
	if c.Daemon.Interval == "" {
		c.Daemon.Interval = d.Daemon.Interval
	}
}
