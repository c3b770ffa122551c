// Package config loads service configuration from config.yml, .env files
// and the process environment using Viper and godotenv.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("scribe", &cfg, config.WithSearchDir(home))
//	cfg.ApplyDefaults()
//
// config.yml is looked up in ./cmd/<service>, ../cmd/<service>, ./config,
// ../config, the working directory and then any WithSearchDir dirs.
//
// Environment variables override file values. GENERATION_MODEL sets
// generation.model; when an env prefix is configured, SCRIBE_GENERATION_MODEL
// does the same and unprefixed variables are ignored.
package config
