package config

import (
	"testing"
	"time"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HEALTHLOG_AUTH_JWT_SECRET", "secret")
	t.Setenv("HEALTHLOG_DATABASE_DRIVER", "pgx")
	t.Setenv("HEALTHLOG_DATABASE_DSN", "postgres://localhost/healthlog")
	t.Setenv("HEALTHLOG_REDIS_ADDR", "localhost:6379")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "pgx" || cfg.Database.DSN != "postgres://localhost/healthlog" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want default 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Backend != "slog" {
		t.Errorf("Logging.Backend = %q, want slog", cfg.Logging.Backend)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite", DSN: "file:test.db"},
			Auth:     AuthConfig{SupabaseURL: "https://x.supabase.co", ServiceKey: "key"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"supabase auth", func(c *Config) {}, false},
		{"local jwt only", func(c *Config) { c.Auth = AuthConfig{JWTSecret: "s"} }, false},
		{"no auth", func(c *Config) { c.Auth = AuthConfig{} }, true},
		{"missing service key", func(c *Config) { c.Auth.ServiceKey = "" }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, true},
		{"bucket without region", func(c *Config) { c.Storage.Bucket = "backups" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
