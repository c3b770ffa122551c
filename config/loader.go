package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/interviewscribe/logger"
)

// FileSystem is the part of the OS the loader touches.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem reads the real filesystem. LoadEnv leaves variables that
// are already set untouched.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (OSFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

// ResolvedFiles are the files a load reads. Empty means none was found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Loader fills a config struct through viper. Precedence, lowest first:
// defaults, config.yml, .env, process environment.
type Loader struct {
	service  string
	fs       FileSystem
	explicit ResolvedFiles
	dirs     []string
	prefix   string
	defaults map[string]any
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

func WithFileSystem(fs FileSystem) LoaderOption {
	return func(l *Loader) { l.fs = fs }
}

// WithConfigFile skips the search for config.yml.
func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) { l.explicit.ConfigFile = path }
}

// WithEnvFile skips the search for a .env file.
func WithEnvFile(path string) LoaderOption {
	return func(l *Loader) { l.explicit.EnvFile = path }
}

// WithSearchDir adds dir after the built-in search locations.
func WithSearchDir(dir string) LoaderOption {
	return func(l *Loader) { l.dirs = append(l.dirs, dir) }
}

// WithEnvPrefix only binds variables named PREFIX_*, with the prefix
// stripped before key mapping.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) { l.prefix = strings.ToUpper(strings.TrimSuffix(prefix, "_")) }
}

// WithDefaults seeds values keyed by dotted path, e.g. "generation.model".
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(l *Loader) { l.defaults = defaults }
}

func NewLoader(service string, opts ...LoaderOption) *Loader {
	l := &Loader{
		service: service,
		fs:      OSFileSystem{},
		dirs: []string{
			filepath.Join(".", "cmd", service),
			filepath.Join("..", "cmd", service),
			filepath.Join(".", "config"),
			filepath.Join("..", "config"),
			".",
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve picks the config and env files. Explicit paths win. Otherwise
// the first config.yml in the search dirs is used, and the first
// .env.<service> or else the first .env.
func (l *Loader) Resolve() ResolvedFiles {
	files := l.explicit
	if files.ConfigFile == "" {
		files.ConfigFile = l.find("config.yml")
	}
	if files.EnvFile == "" {
		files.EnvFile = l.find(".env." + l.service)
	}
	if files.EnvFile == "" {
		files.EnvFile = l.find(".env")
	}
	return files
}

func (l *Loader) find(name string) string {
	for _, dir := range l.dirs {
		if p := filepath.Join(dir, name); l.fs.Exists(p) {
			return p
		}
	}
	return ""
}

// Load decodes the merged sources into cfg, a pointer to a struct with
// mapstructure tags.
func (l *Loader) Load(cfg any) error {
	v := viper.New()
	for k, val := range l.defaults {
		v.SetDefault(k, val)
	}

	files := l.Resolve()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", files.ConfigFile, err)
		}
	}
	if files.EnvFile != "" && l.fs.Exists(files.EnvFile) {
		if err := l.fs.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("Skipping env file", logger.Fields("path", files.EnvFile, logger.FieldError, err.Error()))
		}
	}
	l.bindEnv(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", l.service, err)
	}
	return nil
}

// LoadConfig is NewLoader(service, opts...).Load(cfg).
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	return NewLoader(service, opts...).Load(cfg)
}

// bindEnv sets every dotted key a KEY=VALUE pair could address.
func (l *Loader) bindEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if l.prefix != "" {
			if key, ok = strings.CutPrefix(key, l.prefix+"_"); !ok {
				continue
			}
		}
		for _, k := range envKeyVariants(key) {
			v.Set(k, value)
		}
	}
}

// envKeyVariants maps an env name to candidate viper keys: the lowered
// name, then each split into a dotted section path and an underscored
// leaf.
//
//	GENERATION_MAX_TOKENS -> generation_max_tokens, generation.max_tokens, generation.max.tokens
func envKeyVariants(name string) []string {
	lower := strings.ToLower(name)
	parts := strings.Split(lower, "_")
	out := []string{lower}
	for i := 1; i < len(parts); i++ {
		out = append(out, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return out
}
