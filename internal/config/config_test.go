package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.ServerName != "fieldline" {
		t.Errorf("Expected default server name to be 'fieldline', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	if cfg.FuzzyThreshold != 0.7 {
		t.Errorf("Expected default fuzzy threshold to be 0.7, got %v", cfg.FuzzyThreshold)
	}

	if cfg.BulkApproveThreshold != 0.9 {
		t.Errorf("Expected default bulk approve threshold to be 0.9, got %v", cfg.BulkApproveThreshold)
	}

	if cfg.DefaultApprover != "user" {
		t.Errorf("Expected default approver to be 'user', got '%s'", cfg.DefaultApprover)
	}

	currentDir, _ := os.Getwd()
	if cfg.FormsDirectory != currentDir {
		t.Errorf("Expected default forms directory to be '%s', got '%s'", currentDir, cfg.FormsDirectory)
	}
	if cfg.DataDirectory != filepath.Join(currentDir, "data") {
		t.Errorf("Expected default data directory under the working directory, got '%s'", cfg.DataDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	validBase := func() *Config {
		cfg := DefaultConfig()
		cfg.FormsDirectory = os.TempDir()
		cfg.DataDirectory = os.TempDir()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid stdio config", func(c *Config) {}, false},
		{"valid server config", func(c *Config) { c.Mode = ModeServer }, false},
		{"invalid mode", func(c *Config) { c.Mode = "http" }, true},
		{"server mode with bad port", func(c *Config) { c.Mode = ModeServer; c.Port = 0 }, true},
		{"stdio mode ignores port", func(c *Config) { c.Port = 0 }, false},
		{"empty forms directory", func(c *Config) { c.FormsDirectory = "" }, true},
		{"empty data directory", func(c *Config) { c.DataDirectory = "" }, true},
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }, true},
		{"fuzzy threshold too high", func(c *Config) { c.FuzzyThreshold = 1.5 }, true},
		{"fuzzy threshold zero", func(c *Config) { c.FuzzyThreshold = 0 }, true},
		{"bulk threshold zero", func(c *Config) { c.BulkApproveThreshold = 0 }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.FormsDirectory = filepath.Join(base, "forms")
	cfg.DataDirectory = filepath.Join(base, "data")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	for _, dir := range []string{cfg.FormsDirectory, cfg.DataDirectory} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected %s to be created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}
}

func TestConfigDataSubdirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDirectory = "/var/lib/fieldline"

	if got := cfg.SchemasDirectory(); got != "/var/lib/fieldline/schemas" {
		t.Errorf("SchemasDirectory() = %s", got)
	}
	if got := cfg.MappingsDirectory(); got != "/var/lib/fieldline/mappings" {
		t.Errorf("MappingsDirectory() = %s", got)
	}
	if got := cfg.AuditDirectory(); got != "/var/lib/fieldline/audit" {
		t.Errorf("AuditDirectory() = %s", got)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 9090}
	if got := cfg.Address(); got != "0.0.0.0:9090" {
		t.Errorf("Address() = %s, want 0.0.0.0:9090", got)
	}
}

func TestConfigIsDebug(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	if !cfg.IsDebug() {
		t.Error("IsDebug() should be true for debug level")
	}
	cfg.LogLevel = "info"
	if cfg.IsDebug() {
		t.Error("IsDebug() should be false for info level")
	}
}

func TestConfigModeHelpers(t *testing.T) {
	cfg := &Config{Mode: ModeServer}
	if !cfg.IsServerMode() || cfg.IsStdioMode() {
		t.Error("mode helpers disagree for server mode")
	}
	cfg.Mode = ModeStdio
	if cfg.IsServerMode() || !cfg.IsStdioMode() {
		t.Error("mode helpers disagree for stdio mode")
	}
}
