package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Addr != ":1234" {
		t.Errorf("Addr = %q, want :1234", cfg.Addr)
	}
	if cfg.Store.Backend != BackendFile {
		t.Errorf("Store.Backend = %q, want file", cfg.Store.Backend)
	}
	if cfg.Store.Path != "SCHEDULE.csv" {
		t.Errorf("Store.Path = %q, want SCHEDULE.csv", cfg.Store.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timetable.yaml")
	content := `addr: ":4321"
admin_addr: "127.0.0.1:9090"
log_level: debug
store:
  backend: SQLite
  path: /tmp/schedule.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":4321" {
		t.Errorf("Addr = %q, want :4321", cfg.Addr)
	}
	if cfg.AdminAddr != "127.0.0.1:9090" {
		t.Errorf("AdminAddr = %q", cfg.AdminAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("Store.Backend = %q, want sqlite", cfg.Store.Backend)
	}
	if cfg.Store.Path != "/tmp/schedule.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	// Unset keys keep their defaults.
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timetable.yaml")
	if err := os.WriteFile(path, []byte("addr: \":4321\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TIMETABLE_ADDR", ":5555")
	t.Setenv("TIMETABLE_STORE_BACKEND", "memory")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":5555" {
		t.Errorf("Addr = %q, want :5555", cfg.Addr)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"unknown backend", func(c *ServerConfig) { c.Store.Backend = "redis" }, "unknown store backend"},
		{"s3 without bucket", func(c *ServerConfig) { c.Store.Backend = BackendS3 }, "requires a bucket"},
		{"file without path", func(c *ServerConfig) { c.Store.Path = "" }, "requires a path"},
		{"empty addr", func(c *ServerConfig) { c.Addr = "" }, "addr"},
		{"s3 ok", func(c *ServerConfig) { c.Store.Backend = BackendS3; c.Store.Bucket = "b" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultClientConfig_Env(t *testing.T) {
	t.Setenv("TIMETABLE_SERVER", "example.org:1234")
	if got := DefaultClientConfig().Server; got != "example.org:1234" {
		t.Errorf("Server = %q, want example.org:1234", got)
	}
}
