package app

import (
	"strings"

	"github.com/yungbote/frugalprotein-backend/internal/platform/envutil"
)

const (
	CatalogPrimary = "primary"
	CatalogLive    = "live"
)

type Config struct {
	Env        string
	LogMode    string
	PrimaryDSN string
	LiveDSN    string
	MediaRoot  string
	// MediaURL prefixes product image paths when object storage is disabled.
	MediaURL string
	HTTPAddr string
	// APICatalog is the database the HTTP API reads, live or primary.
	APICatalog string
}

func LoadConfig() Config {
	cfg := Config{
		Env:        envutil.String("APP_ENV", "development"),
		LogMode:    envutil.String("LOG_MODE", "development"),
		PrimaryDSN: envutil.String("PRIMARY_DATABASE_DSN", "file:frugal.db?_foreign_keys=on"),
		LiveDSN:    envutil.String("LIVE_DATABASE_DSN", ""),
		MediaRoot:  envutil.String("MEDIA_ROOT", "media"),
		MediaURL:   strings.TrimRight(envutil.String("MEDIA_URL", "/media"), "/"),
		HTTPAddr:   envutil.String("HTTP_ADDR", ":8080"),
		APICatalog: strings.ToLower(envutil.String("API_CATALOG", "")),
	}
	if cfg.APICatalog != CatalogPrimary && cfg.APICatalog != CatalogLive {
		cfg.APICatalog = CatalogPrimary
		if cfg.LiveDSN != "" {
			cfg.APICatalog = CatalogLive
		}
	}
	return cfg
}
