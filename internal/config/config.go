// Package config loads the store list and live-sync policy. Defaults are
// embedded; FRUGAL_CONFIG_YAML points at a replacement file and individual
// env vars override single values.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/envutil"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

const configPathEnv = "FRUGAL_CONFIG_YAML"

//go:embed stores.yaml
var defaultYAML []byte

type StoreConfig struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Enabled     *bool  `yaml:"enabled"`
}

type LiveSyncConfig struct {
	MaxRows                 int             `yaml:"max_rows"`
	ProteinThresholdRaw     string          `yaml:"protein_threshold"`
	TruncateConfirmAttempts int             `yaml:"truncate_confirm_attempts"`
	TruncateConfirmInterval time.Duration   `yaml:"truncate_confirm_interval"`
	ProteinThreshold        decimal.Decimal `yaml:"-"`
}

type ScrapeConfig struct {
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type Config struct {
	Version  int            `yaml:"version"`
	Stores   []StoreConfig  `yaml:"stores"`
	LiveSync LiveSyncConfig `yaml:"live_sync"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
}

// Load reads the YAML, applies env overrides and validates the result.
func Load(log *logger.Logger) (Config, error) {
	data := defaultYAML
	source := "embedded"
	if path := strings.TrimSpace(os.Getenv(configPathEnv)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", configPathEnv, err)
		}
		data, source = b, path
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", source, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", source, err)
	}
	if log != nil {
		log.Info("Config loaded",
			"source", source,
			"stores", cfg.EnabledStores(),
			"live_max_rows", cfg.LiveSync.MaxRows,
			"live_protein_threshold", cfg.LiveSync.ProteinThreshold.String(),
		)
	}
	return cfg, nil
}

func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if raw := strings.TrimSpace(cfg.LiveSync.ProteinThresholdRaw); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("live_sync.protein_threshold: %w", err)
		}
		cfg.LiveSync.ProteinThreshold = d
	}
	if cfg.LiveSync.TruncateConfirmAttempts <= 0 {
		cfg.LiveSync.TruncateConfirmAttempts = 5
	}
	if cfg.LiveSync.TruncateConfirmInterval <= 0 {
		cfg.LiveSync.TruncateConfirmInterval = time.Second
	}
	if cfg.Scrape.LockTTL <= 0 {
		cfg.Scrape.LockTTL = 6 * time.Hour
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.LiveSync.MaxRows = envutil.Int("LIVE_MAX_ROWS", c.LiveSync.MaxRows)
	if raw := strings.TrimSpace(os.Getenv("LIVE_PROTEIN_THRESHOLD")); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("LIVE_PROTEIN_THRESHOLD: %w", err)
		}
		c.LiveSync.ProteinThreshold = d
	}
	c.Scrape.LockTTL = envutil.Duration("SCRAPE_LOCK_TTL", c.Scrape.LockTTL)
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if len(c.EnabledStores()) == 0 {
		errs = append(errs, errors.New("no enabled stores"))
	}
	for _, s := range c.Stores {
		if _, err := types.ParseStore(s.Name); err != nil {
			errs = append(errs, fmt.Errorf("stores: %w", err))
		}
	}
	if c.LiveSync.MaxRows <= 0 {
		errs = append(errs, errors.New("live_sync.max_rows must be positive"))
	}
	if c.LiveSync.ProteinThreshold.IsNegative() {
		errs = append(errs, errors.New("live_sync.protein_threshold must not be negative"))
	}
	return errors.Join(errs...)
}

// EnabledStores keeps file order and skips unknown names.
func (c Config) EnabledStores() []types.Store {
	var out []types.Store
	for _, s := range c.Stores {
		if s.Enabled != nil && !*s.Enabled {
			continue
		}
		if st, err := types.ParseStore(s.Name); err == nil {
			out = append(out, st)
		}
	}
	return out
}

func (c Config) DisplayName(s types.Store) string {
	for _, sc := range c.Stores {
		if sc.Name == string(s) && sc.DisplayName != "" {
			return sc.DisplayName
		}
	}
	return string(s)
}
