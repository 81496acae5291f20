package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.yaml")
	body := `
database:
  path: /var/lib/pos/till.db
admin:
  password: s3cret
cart:
  low_stock_threshold: 3
seed_sample_products: false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/var/lib/pos/till.db", cfg.Database.Path)
	assert.Equal(t, "s3cret", cfg.Admin.Password)
	assert.Equal(t, 3, cfg.Cart.LowStockThreshold)
	assert.False(t, cfg.SeedSampleProducts)
	assert.Equal(t, "backups", cfg.Backup.Dir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("POS_DB_PATH", "/tmp/env.db")
	t.Setenv("POS_ADMIN_PASSWORD", "from-env")
	t.Setenv("POS_LOW_STOCK_THRESHOLD", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, "from-env", cfg.Admin.Password)
	assert.Equal(t, 7, cfg.Cart.LowStockThreshold)
}

func TestLoad_BadThresholdEnv(t *testing.T) {
	t.Setenv("POS_LOW_STOCK_THRESHOLD", "many")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate(), "postgres without dsn")
	cfg.Database.DSN = "postgres://pos@localhost/pos?sslmode=disable"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Admin.Password = ""
	assert.Error(t, cfg.Validate())
}
