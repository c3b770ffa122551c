package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/kbukum/interviewscribe/config"
	"github.com/kbukum/interviewscribe/credential"
	"github.com/kbukum/interviewscribe/database"
	"github.com/kbukum/interviewscribe/llm"
	"github.com/kbukum/interviewscribe/llm/gemini"
	"github.com/kbukum/interviewscribe/media"
	"github.com/kbukum/interviewscribe/observability"
	"github.com/kbukum/interviewscribe/redis"
	"github.com/kbukum/interviewscribe/relay"
	"github.com/kbukum/interviewscribe/storage"
	"github.com/kbukum/interviewscribe/store"
	"github.com/kbukum/interviewscribe/transcription"
	"github.com/kbukum/interviewscribe/upload"
	"github.com/kbukum/interviewscribe/version"
)

const serviceName = "scribe"

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// AppConfig is the configuration of the scribe binary.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Store         StoreConfig          `yaml:"store" mapstructure:"store"`
	Upload        upload.Config        `yaml:"upload" mapstructure:"upload"`
	Generation    llm.Config           `yaml:"generation" mapstructure:"generation"`
	Assembler     transcription.Config `yaml:"assembler" mapstructure:"assembler"`
	Credential    CredentialConfig     `yaml:"credential" mapstructure:"credential"`
	Sources       storage.Config       `yaml:"sources" mapstructure:"sources"`
	Probe         media.Config         `yaml:"probe" mapstructure:"probe"`
	Relay         relay.Config         `yaml:"relay" mapstructure:"relay"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is memory, sqlite or redis.
	Backend  string        `yaml:"backend" mapstructure:"backend"`
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
	// Namespace prefixes redis keys.
	Namespace string          `yaml:"namespace" mapstructure:"namespace"`
	SQLite    database.Config `yaml:"sqlite" mapstructure:"sqlite"`
	Redis     redis.Config    `yaml:"redis" mapstructure:"redis"`
}

// CredentialConfig says where the API key is looked up.
type CredentialConfig struct {
	// EnvVar is checked first.
	EnvVar string `yaml:"env_var" mapstructure:"env_var"`
	// KeyFile is the sealed key file written by "scribe key set".
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`
	// PassphraseEnv names the variable holding the key file passphrase.
	PassphraseEnv string `yaml:"passphrase_env" mapstructure:"passphrase_env"`
	Algorithm     string `yaml:"algorithm" mapstructure:"algorithm"`
}

// ApplyDefaults fills zero fields of every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Short()
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if c.Store.Debounce <= 0 {
		c.Store.Debounce = store.DefaultDebounce
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = serviceName
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = filepath.Join(dataDir(), "scribe.db")
	}
	c.Store.SQLite.ApplyDefaults()
	c.Store.Redis.ApplyDefaults()

	c.Upload.ApplyDefaults()

	if c.Generation.Dialect == "" {
		c.Generation.Dialect = "gemini"
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = gemini.DefaultBaseURL
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gemini-2.5-flash"
	}
	c.Generation.ApplyDefaults()
	c.Assembler.ApplyDefaults()

	if c.Credential.EnvVar == "" {
		c.Credential.EnvVar = "GEMINI_API_KEY"
	}
	if c.Credential.KeyFile == "" {
		c.Credential.KeyFile = filepath.Join(dataDir(), "key.json")
	}
	if c.Credential.PassphraseEnv == "" {
		c.Credential.PassphraseEnv = "SCRIBE_KEY_PASSPHRASE"
	}

	c.Sources.ApplyDefaults()
	c.Probe.ApplyDefaults()
	c.Relay.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if !slices.Contains([]string{BackendMemory, BackendSQLite, BackendRedis}, c.Store.Backend) {
		return fmt.Errorf("store.backend must be one of memory, sqlite, redis (got: %s)", c.Store.Backend)
	}
	switch c.Store.Backend {
	case BackendSQLite:
		if err := c.Store.SQLite.Validate(); err != nil {
			return fmt.Errorf("store.sqlite: %w", err)
		}
	case BackendRedis:
		if err := c.Store.Redis.Validate(); err != nil {
			return fmt.Errorf("store.redis: %w", err)
		}
	}
	if err := c.Upload.Validate(); err != nil {
		return err
	}
	if err := c.Generation.Validate(); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := c.Assembler.Validate(); err != nil {
		return fmt.Errorf("assembler: %w", err)
	}
	if _, err := credential.ParseAlgorithm(c.Credential.Algorithm); err != nil {
		return fmt.Errorf("credential.algorithm: %w", err)
	}
	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}

// Credentials returns the lookup chain: the environment variable, then the
// sealed key file.
func (c *AppConfig) Credentials() *credential.ChainProvider {
	return credential.Chain(
		credential.Env{Var: c.Credential.EnvVar},
		c.KeyFile(),
	)
}

// KeyFile returns the sealed key file with the passphrase taken from the
// environment.
func (c *AppConfig) KeyFile() *credential.SealedFile {
	return &credential.SealedFile{
		Path:       c.Credential.KeyFile,
		Passphrase: os.Getenv(c.Credential.PassphraseEnv),
		Algorithm:  credential.Algorithm(c.Credential.Algorithm),
	}
}

// dataDir is where the database and key file live by default.
func dataDir() string {
	if dir := os.Getenv("SCRIBE_HOME"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "interviewscribe")
	}
	return "."
}

// loadConfig reads config.yml, .env and the environment into an AppConfig.
// dataDir is searched after the working directory.
func loadConfig(configFile, envFile string) (*AppConfig, error) {
	opts := []config.LoaderOption{config.WithSearchDir(dataDir())}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
