package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	defaults := GetDefaults()
	if cfg.General.Target != defaults.General.Target {
		t.Errorf("Target = %q, want %q", cfg.General.Target, defaults.General.Target)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Port = %d, want 5432", cfg.Database.Port)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Size != 256 {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Mappings.File != "mappings.yaml" {
		t.Errorf("Mappings.File = %q", cfg.Mappings.File)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
general:
  target: elastic
  prefix: "WHERE "
  dialect: postgres
  bind_vars: true
database:
  driver: sqlite
  path: data.db
elastic:
  parameters:
    locale: en
    user: 123
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.General.Target != "elastic" || cfg.General.Prefix != "WHERE " || !cfg.General.BindVars {
		t.Errorf("unexpected general config: %+v", cfg.General)
	}
	if cfg.General.Dialect != "postgres" {
		t.Errorf("Dialect = %q", cfg.General.Dialect)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "data.db" {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("unset keys should keep defaults, Host = %q", cfg.Database.Host)
	}
	if cfg.Elastic.Parameters["locale"] != "en" {
		t.Errorf("unexpected parameters: %v", cfg.Elastic.Parameters)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q", cfg.Logging.Format)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, "general:\n  target: sql\n")
	t.Setenv("LAZYSEARCH_GENERAL_TARGET", "elastic")
	t.Setenv("LAZYSEARCH_DATABASE_PORT", "6543")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.General.Target != "elastic" {
		t.Errorf("Target = %q, want elastic", cfg.General.Target)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("Port = %d, want 6543", cfg.Database.Port)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for an explicit missing file")
	}

	tests := []string{
		"general:\n  target: mongo\n",
		"general:\n  dialect: oracle\n",
		"database:\n  driver: mysql\n",
		"logging:\n  level: chatty\n",
		"cache:\n  size: -1\n",
	}
	for _, content := range tests {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("expected a validation error for %q", content)
		}
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		configFile, path, want string
	}{
		{"/etc/lazysearch/config.yaml", "mappings.yaml", "/etc/lazysearch/mappings.yaml"},
		{"/etc/lazysearch/config.yaml", "/srv/mappings.yaml", "/srv/mappings.yaml"},
		{"", "mappings.yaml", "mappings.yaml"},
		{"/etc/lazysearch/config.yaml", "", ""},
	}
	for _, tt := range tests {
		if got := ResolvePath(tt.configFile, tt.path); got != tt.want {
			t.Errorf("ResolvePath(%q, %q) = %q, want %q", tt.configFile, tt.path, got, tt.want)
		}
	}
}
