package app

import "testing"

func TestLoadConfigPicksAPICatalog(t *testing.T) {
	t.Setenv("API_CATALOG", "")
	t.Setenv("LIVE_DATABASE_DSN", "")
	if got := LoadConfig().APICatalog; got != CatalogPrimary {
		t.Fatalf("without live dsn: want=%q got=%q", CatalogPrimary, got)
	}

	t.Setenv("LIVE_DATABASE_DSN", "postgres://live@localhost/frugal")
	if got := LoadConfig().APICatalog; got != CatalogLive {
		t.Fatalf("with live dsn: want=%q got=%q", CatalogLive, got)
	}

	t.Setenv("API_CATALOG", "PRIMARY")
	if got := LoadConfig().APICatalog; got != CatalogPrimary {
		t.Fatalf("explicit primary: want=%q got=%q", CatalogPrimary, got)
	}
}

func TestLoadConfigTrimsMediaURL(t *testing.T) {
	t.Setenv("MEDIA_URL", "https://cdn.example/media/")
	if got := LoadConfig().MediaURL; got != "https://cdn.example/media" {
		t.Fatalf("media url: got=%q", got)
	}
}
