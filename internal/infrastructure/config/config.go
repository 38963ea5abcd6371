// Package config loads the fleet core's configuration the way the
// teacher does: godotenv for an optional .env file, viper for env-var
// binding and an optional YAML overlay, go-playground/validator for
// struct-tag validation.
package config

import (
	"fmt"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete set of knobs spec.md §6 lists as the inbound
// environment, plus the database/logging/events ambient sections every
// teacher service carries regardless of what the spec's Non-goals exclude.
type Config struct {
	Agent    AgentConfig    `mapstructure:"agent"`
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Events   EventsConfig   `mapstructure:"events"`
	Debug    DebugConfig    `mapstructure:"debug"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	ImportCaps ImportCapsConfig `mapstructure:"import_caps"`
}

// AgentConfig identifies which SpaceTraders agent this process controls.
type AgentConfig struct {
	Callsign string `mapstructure:"callsign" validate:"required"`
	Faction  string `mapstructure:"faction"`
}

var envBindings = [][2]string{
	{"agent.callsign", "AGENT_CALLSIGN"},
	{"agent.faction", "AGENT_FACTION"},
	{"api.base_url", "SPACETRADERS_API_URL"},
	{"database.url", "DATABASE_URL"},
	{"database.postgres_schema", "POSTGRES_SCHEMA"},
	{"database.scylla_uri", "SCYLLA_URI"},
	{"events.kafka_url", "KAFKA_URL"},
	{"debug.job_id_filter", "JOB_ID_FILTER"},
	{"debug.scrap_all_ships", "SCRAP_ALL_SHIPS"},
	{"debug.scrap_unassigned", "SCRAP_UNASSIGNED"},
	{"debug.no_gate_mode", "NO_GATE_MODE"},
	{"debug.disable_trading_tasks", "DEBUG_DISABLE_TRADING_TASKS"},
	{"debug.disable_contract_tasks", "DEBUG_DISABLE_CONTRACT_TASKS"},
	{"debug.override_construction_supply_check", "OVERRIDE_CONSTRUCTION_SUPPLY_CHECK"},
	{"debug.era_override", "ERA_OVERRIDE"},
}

// LoadConfig loads configuration with priority env vars > optional YAML
// overlay > defaults, following the teacher's LoadConfig shape.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	for _, binding := range envBindings {
		if err := v.BindEnv(binding[0], binding[1]); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", binding[1], err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := regexp.Compile(cfg.Debug.JobIDFilter); err != nil {
		return nil, fmt.Errorf("invalid JOB_ID_FILTER regex %q: %w", cfg.Debug.JobIDFilter, err)
	}

	return &cfg, nil
}

// LoadConfigOrDefault loads configuration or falls back to bare defaults,
// used by CLI subcommands that don't require a valid agent session.
func LoadConfigOrDefault(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		defaultCfg := &Config{}
		SetDefaults(defaultCfg)
		return defaultCfg
	}
	return cfg
}

// MustLoadConfig loads configuration and panics on error, for use in main.
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
