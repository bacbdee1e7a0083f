// Package config loads resumectl settings from a TOML or YAML file, a .env
// file and RESUME_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const appDirName = "go-resume"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	Store    StoreConfig    `toml:"store" yaml:"store"`
	History  HistoryConfig  `toml:"history" yaml:"history"`
	Preview  PreviewConfig  `toml:"preview" yaml:"preview"`
	Rules    RulesConfig    `toml:"rules" yaml:"rules"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Activity ActivityConfig `toml:"activity" yaml:"activity"`
}

type StoreConfig struct {
	// Driver is one of memory, file or postgres.
	Driver string `toml:"driver" yaml:"driver"`
	// Dir holds one JSON file per key for the file driver.
	Dir         string `toml:"dir" yaml:"dir"`
	DatabaseURL string `toml:"database_url" yaml:"database_url"`
	Table       string `toml:"table" yaml:"table"`
	Key         string `toml:"key" yaml:"key"`
}

type HistoryConfig struct {
	Limit int `toml:"limit" yaml:"limit"`
}

type PreviewConfig struct {
	DelayMS int `toml:"delay_ms" yaml:"delay_ms"`
}

type RulesConfig struct {
	Engine string `toml:"engine" yaml:"engine"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

type ActivityConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Channel string `toml:"channel" yaml:"channel"`
	ActorID string `toml:"actor_id" yaml:"actor_id"`
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DriverFile,
			Dir:    GetDataDir(),
			Table:  "resume_snapshots",
			Key:    "resume-history-storage",
		},
		History: HistoryConfig{Limit: 50},
		Preview: PreviewConfig{DelayMS: 300},
		Rules:   RulesConfig{Engine: "expr"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Activity: ActivityConfig{
			Enabled: false,
			Channel: "resume",
		},
	}
}

// ConfigPath is the file read when Load is given no path.
func ConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.toml")
}

// Load reads path (or ConfigPath when empty), then the .env files (default
// ".env" in the working directory), then RESUME_* variables, and validates the
// result. A missing default config file is not an error; a missing explicit
// one is.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}
	if err := readFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	var err error
	if cfg.Store.Dir, err = ExpandPath(cfg.Store.Dir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML for .yaml/.yml paths and TOML otherwise.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = toml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("config: load env file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Store.Driver, "RESUME_STORE_DRIVER")
	setString(&cfg.Store.Dir, "RESUME_DATA_DIR")
	setString(&cfg.Store.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Store.DatabaseURL, "RESUME_DATABASE_URL")
	setString(&cfg.Store.Table, "RESUME_STORE_TABLE")
	setString(&cfg.Store.Key, "RESUME_STORAGE_KEY")
	setString(&cfg.Rules.Engine, "RESUME_RULES_ENGINE")
	setString(&cfg.Log.Level, "RESUME_LOG_LEVEL")
	setString(&cfg.Log.Format, "RESUME_LOG_FORMAT")
	setString(&cfg.Activity.Channel, "RESUME_ACTIVITY_CHANNEL")
	setString(&cfg.Activity.ActorID, "RESUME_ACTOR_ID")

	if err := setInt(&cfg.History.Limit, "RESUME_HISTORY_LIMIT"); err != nil {
		return err
	}
	if err := setInt(&cfg.Preview.DelayMS, "RESUME_PREVIEW_DELAY_MS"); err != nil {
		return err
	}
	if value, ok := lookup("RESUME_ACTIVITY_ENABLED"); ok {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("config: RESUME_ACTIVITY_ENABLED: %w", err)
		}
		cfg.Activity.Enabled = enabled
	}
	return nil
}

func lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func setString(target *string, key string) {
	if value, ok := lookup(key); ok {
		*target = value
	}
}

func setInt(target *int, key string) error {
	value, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = n
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Store),
		validation.Field(&c.History),
		validation.Field(&c.Preview),
		validation.Field(&c.Rules),
		validation.Field(&c.Log),
	)
}

func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required, validation.In(DriverMemory, DriverFile, DriverPostgres)),
		validation.Field(&s.Dir, validation.When(s.Driver == DriverFile, validation.Required)),
		validation.Field(&s.DatabaseURL, validation.When(s.Driver == DriverPostgres, validation.Required)),
		validation.Field(&s.Key, validation.Required),
	)
}

func (h HistoryConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Limit, validation.Required, validation.Min(1)),
	)
}

func (p PreviewConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DelayMS, validation.Min(0)),
	)
}

func (r RulesConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Engine, validation.In("expr", "cel", "js")),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}
