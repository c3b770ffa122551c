package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Assembler     struct {
		MaxRounds int     `mapstructure:"max_rounds"`
		EndMargin float64 `mapstructure:"end_margin"`
	} `mapstructure:"assembler"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "scribe"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" {
		t.Errorf("expected 'development', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging defaults, got %+v", cfg.Logging)
	}

	debug := ServiceConfig{Name: "scribe", Debug: true}
	debug.ApplyDefaults()
	if debug.Logging.Level != "debug" {
		t.Errorf("debug should lower the log level, got %q", debug.Logging.Level)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "scribe", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "scribe", Environment: "moon"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: scribe
environment: staging
assembler:
  max_rounds: 12
  end_margin: 1.5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("scribe", &cfg, WithConfigFile(configPath), WithEnvPrefix("SCRIBETEST")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "scribe" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config: %+v", cfg.ServiceConfig)
	}
	if cfg.Assembler.MaxRounds != 12 || cfg.Assembler.EndMargin != 1.5 {
		t.Errorf("unexpected assembler config: %+v", cfg.Assembler)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("assembler:\n  max_rounds: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCRIBETEST_ASSEMBLER_MAX_ROUNDS", "7")
	t.Setenv("ASSEMBLER_MAX_ROUNDS", "99")

	var cfg testConfig
	if err := LoadConfig("scribe", &cfg, WithConfigFile(configPath), WithEnvPrefix("SCRIBETEST")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Assembler.MaxRounds != 7 {
		t.Errorf("expected prefixed env to win, got %d", cfg.Assembler.MaxRounds)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("scribe", &cfg,
		WithFileSystem(&mockFS{}),
		WithEnvPrefix("SCRIBETEST"),
		WithDefaults(map[string]any{"assembler.max_rounds": 40}),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Assembler.MaxRounds != 40 {
		t.Errorf("expected default 40, got %d", cfg.Assembler.MaxRounds)
	}
}

func TestLoader_Resolve(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		opts  []LoaderOption
		want  ResolvedFiles
	}{
		{
			name: "nothing found",
			want: ResolvedFiles{},
		},
		{
			name:  "cmd dir before root",
			files: []string{"cmd/scribe/config.yml", "config.yml", ".env"},
			want:  ResolvedFiles{ConfigFile: "cmd/scribe/config.yml", EnvFile: ".env"},
		},
		{
			name:  "service env file preferred",
			files: []string{".env", "config/.env.scribe"},
			want:  ResolvedFiles{EnvFile: "config/.env.scribe"},
		},
		{
			name:  "extra search dir last",
			files: []string{"/home/u/.config/interviewscribe/config.yml"},
			opts:  []LoaderOption{WithSearchDir("/home/u/.config/interviewscribe")},
			want:  ResolvedFiles{ConfigFile: "/home/u/.config/interviewscribe/config.yml"},
		},
		{
			name:  "explicit wins",
			files: []string{"config.yml"},
			opts:  []LoaderOption{WithConfigFile("/etc/scribe.yml"), WithEnvFile("/etc/scribe.env")},
			want:  ResolvedFiles{ConfigFile: "/etc/scribe.yml", EnvFile: "/etc/scribe.env"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := &mockFS{files: map[string]bool{}}
			for _, f := range tc.files {
				fs.files[f] = true
			}
			opts := append([]LoaderOption{WithFileSystem(fs)}, tc.opts...)
			if got := NewLoader("scribe", opts...).Resolve(); got != tc.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("scribe", &cfg, WithConfigFile(filepath.Join(t.TempDir(), "nope.yml")), WithEnvPrefix("SCRIBETEST"))
	if err == nil {
		t.Fatal("expected an error for a missing --config file")
	}
}

func TestEnvKeyVariants(t *testing.T) {
	tests := map[string][]string{
		"DEBUG":                 {"debug"},
		"STORE_REDIS_ADDR":      {"store_redis_addr", "store.redis_addr", "store.redis.addr"},
		"GENERATION_MAX_TOKENS": {"generation_max_tokens", "generation.max_tokens", "generation.max.tokens"},
	}
	for in, want := range tests {
		if got := envKeyVariants(in); !slices.Equal(got, want) {
			t.Errorf("envKeyVariants(%q) = %v, want %v", in, got, want)
		}
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
