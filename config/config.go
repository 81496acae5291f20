// Package config loads till settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database           Database  `yaml:"database"`
	Server             Server    `yaml:"server"`
	Admin              Admin     `yaml:"admin"`
	Backup             Backup    `yaml:"backup"`
	Receipts           Receipts  `yaml:"receipts"`
	Log                Log       `yaml:"log"`
	Cart               Cart      `yaml:"cart"`
	Telemetry          Telemetry `yaml:"telemetry"`
	SeedSampleProducts bool      `yaml:"seed_sample_products"`
}

type Database struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// DSN is only used by the postgres driver.
	DSN string `yaml:"dsn"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Admin struct {
	Password string `yaml:"password"`
}

type Backup struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type Receipts struct {
	Dir string `yaml:"dir"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Cart struct {
	LowStockThreshold int `yaml:"low_stock_threshold"`
}

type Telemetry struct {
	// OTLPEndpoint enables trace and metric export when set (host:port).
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Database: Database{
			Driver: "sqlite",
			Path:   "data/pos_system.db",
		},
		Server:             Server{Addr: "127.0.0.1:8082"},
		Admin:              Admin{Password: "admin123"},
		Backup:             Backup{Enabled: true, Dir: "backups"},
		Receipts:           Receipts{Dir: "receipts"},
		Log:                Log{Level: "info"},
		Cart:               Cart{LowStockThreshold: 5},
		Telemetry:          Telemetry{ServiceName: "point-of-sale"},
		SeedSampleProducts: true,
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.Database.Driver = getEnv("POS_DB_DRIVER", c.Database.Driver)
	c.Database.Path = getEnv("POS_DB_PATH", c.Database.Path)
	c.Database.DSN = getEnv("POS_DB_DSN", c.Database.DSN)
	c.Server.Addr = getEnv("POS_ADDR", c.Server.Addr)
	c.Admin.Password = getEnv("POS_ADMIN_PASSWORD", c.Admin.Password)
	c.Backup.Dir = getEnv("POS_BACKUP_DIR", c.Backup.Dir)
	c.Receipts.Dir = getEnv("POS_RECEIPTS_DIR", c.Receipts.Dir)
	c.Log.Level = getEnv("POS_LOG_LEVEL", c.Log.Level)
	c.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = getEnv("SERVICE_NAME", c.Telemetry.ServiceName)

	if v := os.Getenv("POS_LOW_STOCK_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POS_LOW_STOCK_THRESHOLD: %w", err)
		}
		c.Cart.LowStockThreshold = n
	}
	return nil
}

// Validate reports settings the till cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Admin.Password == "" {
		return errors.New("admin.password must not be empty")
	}
	if c.Cart.LowStockThreshold < 0 {
		return errors.New("cart.low_stock_threshold must be >= 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
