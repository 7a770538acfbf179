// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
	"time"
)

var configEnv = []string{
	"PORT", "DATABASE_URL", "DATABASE_TYPE", "MONGO_DATABASE", "REDIS_URL",
	"REDIS_CHANNEL_PREFIX", "IP_HASH_SALT", "STORE_TIMEOUT", "STREAM_KEEPALIVE", "CORS_ORIGIN",
}

// clearEnv unsets every config variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("IP_HASH_SALT", "test-salt")
	t.Setenv("STORE_TIMEOUT", "2s")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabasePostgres {
		t.Errorf("expected postgres, got %q", cfg.DatabaseType)
	}
	if cfg.StoreTimeout != 2*time.Second {
		t.Errorf("expected store timeout 2s, got %v", cfg.StoreTimeout)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"-d", "file:test.db", "-ip-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabaseSQLite {
		t.Errorf("expected default type sqlite, got %q", cfg.DatabaseType)
	}
	if cfg.MongoDatabase != "pollcast" {
		t.Errorf("expected default mongo database pollcast, got %q", cfg.MongoDatabase)
	}
	if cfg.RedisChannelPrefix != "pollcast:poll:" {
		t.Errorf("unexpected channel prefix %q", cfg.RedisChannelPrefix)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("expected store timeout 5s, got %v", cfg.StoreTimeout)
	}
	if cfg.StreamKeepalive != 25*time.Second {
		t.Errorf("expected keepalive 25s, got %v", cfg.StreamKeepalive)
	}
	if cfg.RedisURL != "" {
		t.Errorf("expected no redis URL, got %q", cfg.RedisURL)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_URL", "redis://env:6379")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-ip-salt", "s1", "-redis", "redis://cli:6379"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.RedisURL != "redis://cli:6379" {
		t.Errorf("CLI should override env: got %q", cfg.RedisURL)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{
			name: "missing database URL",
			args: []string{"-ip-salt", "s1"},
		},
		{
			name: "missing salt",
			args: []string{"-d", "file:test.db"},
		},
		{
			name: "unknown database type",
			args: []string{"-d", "file:test.db", "-ip-salt", "s1", "-t", "mysql"},
		},
		{
			name: "invalid port env",
			env:  map[string]string{"PORT": "not-a-port"},
			args: []string{"-d", "file:test.db", "-ip-salt", "s1"},
		},
		{
			name: "invalid duration env",
			env:  map[string]string{"STORE_TIMEOUT": "soon"},
			args: []string{"-d", "file:test.db", "-ip-salt", "s1"},
		},
		{
			name: "port out of range",
			args: []string{"-d", "file:test.db", "-ip-salt", "s1", "-p", "70000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
