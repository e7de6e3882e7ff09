package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "greeter.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	configContent := `
server:
  port: 9090
  shutdown_timeout: 3
  timeouts:
    read: 5
    idle: 30

greeting:
  message: "Goodbye"

logging:
  level: "debug"
  format: "json"
  request_id:
    enabled: true
    header: "X-Correlation-ID"

plugins:
  enabled: true
  chain:
    - name: headers
      config:
        set:
          X-Served-By: greeter
    - name: logging
`
	cfg, err := LoadConfig(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 3 {
		t.Errorf("Expected shutdown timeout 3, got %d", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.Timeouts.Read != 5 || cfg.Server.Timeouts.Idle != 30 {
		t.Errorf("Unexpected timeouts: %+v", cfg.Server.Timeouts)
	}
	if cfg.Greeting.Message != "Goodbye" {
		t.Errorf("Expected greeting 'Goodbye', got '%s'", cfg.Greeting.Message)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Logging.RequestID.Header != "X-Correlation-ID" {
		t.Errorf("Expected request id header 'X-Correlation-ID', got '%s'", cfg.Logging.RequestID.Header)
	}
	if !cfg.Plugins.Enabled || len(cfg.Plugins.Chain) != 2 {
		t.Fatalf("Expected 2 enabled plugins, got %+v", cfg.Plugins)
	}
	if cfg.Plugins.Chain[0].Name != "headers" {
		t.Errorf("Expected first plugin 'headers', got '%s'", cfg.Plugins.Chain[0].Name)
	}
	set, ok := cfg.Plugins.Chain[0].Config["set"].(map[string]interface{})
	if !ok || set["X-Served-By"] != "greeter" {
		t.Errorf("Unexpected headers plugin config: %v", cfg.Plugins.Chain[0].Config)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: 8081\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("Expected port 8081, got %d", cfg.Server.Port)
	}
	if cfg.Greeting.Message != DefaultGreeting {
		t.Errorf("Expected default greeting %q, got %q", DefaultGreeting, cfg.Greeting.Message)
	}
	if !cfg.Logging.RequestID.Enabled {
		t.Error("Expected request ids to stay enabled by default")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Expected port %d, got %d", DefaultPort, cfg.Server.Port)
	}
}

func TestLoadConfigError(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "invalid: yaml: content:"))
	if err == nil {
		t.Error("Expected error when loading invalid YAML, got nil")
	}

	_, err = LoadConfig(t.TempDir())
	if err == nil {
		t.Error("Expected error when config path is a directory, got nil")
	}
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "typical", raw: "8080", want: 8080},
		{name: "default value", raw: "2593", want: 2593},
		{name: "lowest", raw: "1", want: 1},
		{name: "highest", raw: "65535", want: 65535},
		{name: "surrounding spaces", raw: " 9000 ", want: 9000},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "too large", raw: "65536", wantErr: true},
		{name: "not a number", raw: "http", wantErr: true},
		{name: "trailing junk", raw: "80a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePort(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPort) {
					t.Fatalf("ParsePort(%q) error = %v, want ErrInvalidPort", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePort(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParsePort(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("GREETING", "Goodbye")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")

	cfg := Default()
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Greeting.Message != "Goodbye" {
		t.Errorf("Expected greeting 'Goodbye', got '%s'", cfg.Greeting.Message)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging config: %+v", cfg.Logging)
	}
}

func TestApplyEnvEmptyKeepsFileValues(t *testing.T) {
	path := writeConfig(t, "greeting:\n  message: \"Goodbye\"\nlogging:\n  level: \"debug\"\n  format: \"json\"\n")
	t.Setenv("GREETER_CONFIG", path)
	for _, key := range []string{"PORT", "GREETING", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Greeting.Message != "Goodbye" {
		t.Errorf("Expected greeting 'Goodbye' from file, got '%s'", cfg.Greeting.Message)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Expected logging from file, got %+v", cfg.Logging)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Expected port %d, got %d", DefaultPort, cfg.Server.Port)
	}
}

func TestApplyEnvInvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	err := ApplyEnv(Default())
	if !errors.Is(err, ErrInvalidPort) {
		t.Fatalf("Expected ErrInvalidPort, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		file     string
		expected int
		wantErr  bool
	}{
		{name: "default port when not set", expected: DefaultPort},
		{name: "custom port set", port: "8080", expected: 8080},
		{name: "file port", file: "server:\n  port: 7000\n", expected: 7000},
		{name: "env overrides file", port: "7001", file: "server:\n  port: 7000\n", expected: 7001},
		{name: "out of range env", port: "70000", wantErr: true},
		{name: "out of range file", file: "server:\n  port: 70000\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.yaml")
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			t.Setenv("GREETER_CONFIG", path)
			t.Setenv("PORT", tt.port)
			if tt.port == "" {
				os.Unsetenv("PORT")
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Server.Port != tt.expected {
				t.Errorf("expected port %d, got %d", tt.expected, cfg.Server.Port)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	cfg.Greeting.Message = "  "
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for blank greeting")
	}

	cfg = Default()
	cfg.Server.Port = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidPort) {
		t.Errorf("expected ErrInvalidPort, got %v", err)
	}

	cfg = Default()
	cfg.Server.ShutdownTimeout = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative shutdown timeout")
	}
}
