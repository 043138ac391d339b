package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbrag/dbrag-server/internal/templates"
	"github.com/dbrag/dbrag-server/internal/utils/pathutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "pg"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port        int           `mapstructure:"port"`
	Host        string        `mapstructure:"host"`
	HomeDir     string        `mapstructure:"home_dir"`
	Environment string        `mapstructure:"environment"`
	EnableAuth  bool          `mapstructure:"enable_auth"`
	PublicDir   string        `mapstructure:"public_dir"`
	Workers     int           `mapstructure:"workers"`
	DB          *DBConfig     `mapstructure:"db"`
	Ollama      *OllamaConfig `mapstructure:"ollama"`
	Pulsar      *PulsarConfig `mapstructure:"pulsar"`
}

type DBConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Database    string `mapstructure:"database"`
	Table       string `mapstructure:"table"`
	DSN         string `mapstructure:"dsn"`
	AllowWrites bool   `mapstructure:"allow_writes"`
}

type OllamaConfig struct {
	Host           string `mapstructure:"host"`
	Model          string `mapstructure:"model"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	ContextWindow  int    `mapstructure:"context_window"`
}

type PulsarConfig struct {
	URL string `mapstructure:"url"`
}

var config *Config

// LoadEnvAndConfigFiles resolves the dbrag home directory, scaffolds the
// starter .env and config.yaml files on first run, loads them into viper,
// and unmarshals the merged state into the package Config.
func LoadEnvAndConfigFiles() error {
	homeDir, err := getHomeDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(homeDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create dbrag home directory: %w", err)
	}

	viper.Set("home_dir", homeDir)

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(homeDir, ".env")
	}

	configFile := viper.GetString("config_file")
	if configFile == "" {
		configFile = filepath.Join(homeDir, "config.yaml")
	}

	if _, err := os.Stat(envFile); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat .env file: %w", err)
		}

		if err := templates.WriteEnv(envFile); err != nil {
			return fmt.Errorf("failed to create .env file: %w", err)
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	if _, err := os.Stat(configFile); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config.yaml file: %w", err)
		}

		if err := templates.WriteConfig(configFile); err != nil {
			return fmt.Errorf("failed to create config.yaml file: %w", err)
		}
	}

	setDefaults()
	bindEnvs()

	viper.SetConfigFile(configFile)

	return LoadConfig(false)
}

func LoadConfig(reload bool) error {
	if config != nil && !reload {
		return fmt.Errorf("config already loaded")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("error reading config: %w", err)
		}
	}

	config = &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	return nil
}

func GetConfig() *Config {
	return config
}

func MustGetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

func setDefaults() {
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("host", DefaultHost)
	viper.SetDefault("environment", "dev")
	viper.SetDefault("enable_auth", false)
	viper.SetDefault("public_dir", "")
	viper.SetDefault("workers", 1)

	viper.SetDefault("db.driver", DriverPostgres)
	viper.SetDefault("db.host", "host.docker.internal")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.password", "")
	viper.SetDefault("db.database", "testdb")
	viper.SetDefault("db.table", "actor")
	viper.SetDefault("db.allow_writes", false)

	viper.SetDefault("ollama.host", "http://host.docker.internal:11434")
	viper.SetDefault("ollama.model", "llama2:latest")
	viper.SetDefault("ollama.request_timeout", 180)
	viper.SetDefault("ollama.context_window", 30000)
}

func bindEnvs() {
	// Core settings (will use DBRAG_ prefix)
	// Example: DBRAG_PORT
	viper.BindEnv("port")
	viper.BindEnv("host")
	viper.BindEnv("environment")
	viper.BindEnv("enable_auth")
	viper.BindEnv("public_dir")
	viper.BindEnv("workers")

	// The database and model settings keep their original unprefixed
	// names; they are the contract of the pipeline.
	// Example: DB_HOST, TEXT_TO_SQL_MODEL
	viper.BindEnv("db.host", "DB_HOST")
	viper.BindEnv("db.port", "DB_PORT")
	viper.BindEnv("db.user", "DB_USER")
	viper.BindEnv("db.password", "DB_PASSWORD")
	viper.BindEnv("db.database", "DB_DATABASE")
	viper.BindEnv("db.table", "DB_TABLE")
	viper.BindEnv("ollama.host", "OLLAMA_HOST")
	viper.BindEnv("ollama.model", "TEXT_TO_SQL_MODEL")

	// Service settings (will use DBRAG_ prefix)
	// Example: DBRAG_ALLOW_WRITES
	viper.BindEnv("db.driver", "DBRAG_DB_DRIVER")
	viper.BindEnv("db.dsn", "DBRAG_DB_DSN")
	viper.BindEnv("db.allow_writes", "DBRAG_ALLOW_WRITES")
	viper.BindEnv("ollama.request_timeout", "DBRAG_OLLAMA_TIMEOUT")
	viper.BindEnv("ollama.context_window", "DBRAG_OLLAMA_CONTEXT_WINDOW")
	viper.BindEnv("pulsar.url", "DBRAG_PULSAR_URL")
}

// Tables returns the configured table names. DB_TABLE accepts a
// comma-separated list; a single name is the common case.
func (c *DBConfig) Tables() []string {
	parts := strings.Split(c.Table, ",")
	tables := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			tables = append(tables, name)
		}
	}

	return tables
}

func (c *OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Returns the dbrag home directory path.
// It attempts to retrieve it from the following sources in order:
// 1. The `home_dir` flag from viper.
// 2. The `DBRAG_HOME` environment variable.
// 3. The default dbrag home directory.
func getHomeDir() (string, error) {
	homeDir := viper.GetString("home_dir")
	if homeDir == "" {
		homeDir = os.Getenv("DBRAG_HOME")
		if homeDir == "" {
			homeDir = DefaultDbragHome
		}
	}

	homeDir, err := pathutil.ExpandPath(homeDir)
	if err != nil {
		return "", ErrHomeDirExpandFailed
	}

	return homeDir, nil
}
