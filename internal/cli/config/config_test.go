package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Log.Level)
	}
	if cfg.Cache.Backend != CacheMemory {
		t.Errorf("expected memory cache, got %s", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("expected 10m ttl, got %s", cfg.Cache.TTL)
	}
	if cfg.Store.Driver != "sqlite3" || cfg.Store.DSN != "mockgraph.db" {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Server.Addr != "127.0.0.1:7357" {
		t.Errorf("unexpected server addr %s", cfg.Server.Addr)
	}
	if cfg.Fixtures.Dir != "fixtures" {
		t.Errorf("unexpected fixtures dir %s", cfg.Fixtures.Dir)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := `
log:
  level: debug
cache:
  backend: redis
  redis_addr: cache:6379
  ttl: 90s
store:
  driver: pgx
  dsn: postgres://localhost/mockgraph
server:
  addr: 0.0.0.0:9000
  jwt_secret: s3cret
fixtures:
  dir: testdata
`
	if err := os.WriteFile(FileName, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Log.Level)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("expected 90s ttl, got %s", cfg.Cache.TTL)
	}
	if cfg.Store.Driver != "pgx" {
		t.Errorf("expected pgx, got %s", cfg.Store.Driver)
	}
	if cfg.Server.JWTSecret != "s3cret" {
		t.Errorf("expected jwt secret, got %q", cfg.Server.JWTSecret)
	}
	if cfg.Fixtures.Dir != "testdata" {
		t.Errorf("expected testdata, got %s", cfg.Fixtures.Dir)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(FileName, []byte("store:\n  dsn: from-file.db\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MOCKGRAPH_STORE_DSN", "from-env.db")
	t.Setenv("MOCKGRAPH_SERVER_JWT_SECRET", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.DSN != "from-env.db" {
		t.Errorf("expected env dsn, got %s", cfg.Store.DSN)
	}
	if cfg.Server.JWTSecret != "env-secret" {
		t.Errorf("expected env secret, got %q", cfg.Server.JWTSecret)
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"cache backend", "cache:\n  backend: memcached\n", "cache.backend"},
		{"store driver", "store:\n  driver: mysql\n", "store.driver"},
		{"log level", "log:\n  level: loud\n", "log.level"},
		{"negative ttl", "cache:\n  ttl: -1s\n", "cache.ttl"},
		{"redis without addr", "cache:\n  backend: redis\n  redis_addr: \"\"\n", "cache.redis_addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %s, got %v", tt.want, err)
			}
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", FileName)

	cfg := Defaults()
	cfg.Cache.Backend = CacheRedis
	cfg.Cache.RedisAddr = "redis:6379"
	cfg.Cache.TTL = 5 * time.Minute
	cfg.Server.JWTSecret = "s3cret"

	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *loaded, *cfg)
	}
}

func TestWrite_RejectsInvalid(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Driver = "oracle"

	err := Write(filepath.Join(t.TempDir(), FileName), cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
