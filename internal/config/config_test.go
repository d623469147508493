package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("LIVE_MAX_ROWS", "")
	t.Setenv("LIVE_PROTEIN_THRESHOLD", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, []types.Store{types.StoreTesco, types.StoreIceland}, cfg.EnabledStores())
	require.Equal(t, 9500, cfg.LiveSync.MaxRows)
	require.Equal(t, "10", cfg.LiveSync.ProteinThreshold.String())
	require.Equal(t, 6*time.Hour, cfg.Scrape.LockTTL)
	require.Equal(t, "Tesco", cfg.DisplayName(types.StoreTesco))
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("LIVE_MAX_ROWS", "120")
	t.Setenv("LIVE_PROTEIN_THRESHOLD", "12.5")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, 120, cfg.LiveSync.MaxRows)
	require.Equal(t, "12.5", cfg.LiveSync.ProteinThreshold.String())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stores:
  - name: tesco
  - name: iceland
    enabled: false
live_sync:
  max_rows: 50
  protein_threshold: "8"
`), 0o644))
	t.Setenv(configPathEnv, path)
	t.Setenv("LIVE_MAX_ROWS", "")
	t.Setenv("LIVE_PROTEIN_THRESHOLD", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, []types.Store{types.StoreTesco}, cfg.EnabledStores())
	require.Equal(t, 5, cfg.LiveSync.TruncateConfirmAttempts)
	require.Equal(t, "tesco", cfg.DisplayName(types.StoreTesco))
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg, err := Parse([]byte(`
stores:
  - name: aldi
live_sync:
  max_rows: 10
`))
	require.NoError(t, err)
	require.Error(t, cfg.Validate())
}
