package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aitools.yaml")
	yml := `
workspace: /srv/docs
transport: http
http:
  addr: 127.0.0.1:8765
  basic_auth_user: editor
  basic_auth_hash: "$2a$10$abc"
  shutdown_timeout: 2s
max_file_size: 1048576
audit_db: /var/lib/aitools/audit.db
thresholds:
  tiny_items_min: 100
  suspicious_angle_share: 0.05
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workspace != "/srv/docs" || cfg.Transport != TransportHTTP || cfg.HTTP.Addr != "127.0.0.1:8765" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.HTTP.BasicAuthUser != "editor" || cfg.HTTP.ShutdownTimeout != 2*time.Second {
		t.Fatalf("http = %+v", cfg.HTTP)
	}
	if cfg.MaxFileSize != 1<<20 || cfg.AuditDB != "/var/lib/aitools/audit.db" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Thresholds.TinyItemsMin != 100 || cfg.Thresholds.SuspiciousAngleShare != 0.05 {
		t.Fatalf("thresholds = %+v", cfg.Thresholds)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("transport: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.defaults()
	if cfg.Workspace != "." || cfg.Transport != TransportStdio {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.HTTP.Addr != "127.0.0.1:0" || cfg.HTTP.MCPPath != "/mcp" || cfg.HTTP.HealthPath != "/mcp-health" {
		t.Fatalf("http = %+v", cfg.HTTP)
	}
	if cfg.Logger == nil {
		t.Fatal("logger not defaulted")
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		"AI_TOOLS_WORKSPACE":     "/ws",
		"AI_TOOLS_TRANSPORT":     "http",
		"AI_TOOLS_ADDR":          ":9000",
		"AI_TOOLS_AUDIT_DB":      "audit.db",
		"AI_TOOLS_MAX_FILE_SIZE": "2048",
	}
	cfg := Config{Workspace: "/from-file", Transport: TransportStdio}
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Workspace != "/ws" || cfg.Transport != "http" || cfg.HTTP.Addr != ":9000" || cfg.AuditDB != "audit.db" || cfg.MaxFileSize != 2048 {
		t.Fatalf("cfg = %+v", cfg)
	}

	env = map[string]string{"AI_TOOLS_MAX_FILE_SIZE": "lots"}
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err == nil {
		t.Fatal("bad size accepted")
	}
}
