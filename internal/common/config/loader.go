// internal/common/config/loader.go
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "intent-classifier/internal/common/errors"
)

// envAliases binds the short variable names operators already use for the
// demo deployment. Every other key is reachable as its upper-cased dotted
// path (model.name -> MODEL_NAME).
var envAliases = map[string][]string{
	"model.api_key":            {"MODEL_API_KEY", "GROQ_API_KEY"},
	"audit.sheets.url":         {"AUDIT_SHEETS_URL", "SHEET_URL"},
	"audit.sheets.credentials": {"AUDIT_SHEETS_CREDENTIALS", "CREDS"},
}

// Load reads .env, configs/config.yaml (plus config.<env>.yaml) and the
// environment, then applies defaults and validates.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperrors.NewConfigError(fmt.Sprintf("error reading base config: %v", err))
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to read config file %s: %v", path, err))
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	for key, names := range envAliases {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to unmarshal config: %v", err))
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking from the working
// directory up to the module root. Existing environment variables win.
func loadEnvFile() string {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in YAML values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// setDefaults registers every key so AutomaticEnv can populate it during
// Unmarshal even when no config file is present.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "intent-classifier")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.address", ":8501")
	v.SetDefault("server.read_timeout", 0)
	v.SetDefault("server.shutdown_timeout", 10000)

	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.max_jobs_active", 1)
	v.SetDefault("camunda.timeout", 0)

	v.SetDefault("model.name", "")
	v.SetDefault("model.provider", "groq")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.response_format", "json_schema")
	v.SetDefault("model.timeout", 0)

	v.SetDefault("audit.sink", SinkSheets)
	v.SetDefault("audit.label", "demo")
	v.SetDefault("audit.sheets.url", "")
	v.SetDefault("audit.sheets.credentials", "")
	v.SetDefault("audit.sheets.range", "")
	v.SetDefault("audit.postgres.host", "")
	v.SetDefault("audit.postgres.port", 5432)
	v.SetDefault("audit.postgres.database", "")
	v.SetDefault("audit.postgres.user", "")
	v.SetDefault("audit.postgres.password", "")
	v.SetDefault("audit.postgres.max_connections", 2)
	v.SetDefault("audit.postgres.max_idle", 1)
	v.SetDefault("audit.postgres.sslmode", "disable")
	v.SetDefault("audit.postgres.table", "classification_audit")
	v.SetDefault("audit.redis.address", "")
	v.SetDefault("audit.redis.password", "")
	v.SetDefault("audit.redis.db", 0)
	v.SetDefault("audit.redis.stream", "classification:audit")
	v.SetDefault("audit.elasticsearch.addresses", []string{})
	v.SetDefault("audit.elasticsearch.username", "")
	v.SetDefault("audit.elasticsearch.password", "")
	v.SetDefault("audit.elasticsearch.index", "classification-audit")
	v.SetDefault("audit.sns.region", "us-east-1")
	v.SetDefault("audit.sns.topic_arn", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// applyDefaults covers values a YAML file may have blanked out.
func applyDefaults(cfg *Config) {
	if cfg.Audit.Sink == "" {
		cfg.Audit.Sink = SinkSheets
	}
	cfg.Audit.Sink = strings.ToLower(strings.TrimSpace(cfg.Audit.Sink))
	if cfg.Audit.Label == "" {
		cfg.Audit.Label = "demo"
	}
	if cfg.Model.ResponseFormat == "" {
		cfg.Model.ResponseFormat = "json_schema"
	}
	if cfg.Camunda.MaxJobsActive <= 0 {
		cfg.Camunda.MaxJobsActive = 1
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Workers == nil {
		cfg.Workers = make(map[string]WorkerConfig)
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 1
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig enforces the startup contract: the model key and the
// selected sink's address and credential must be present.
func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Model.APIKey) == "" {
		return apperrors.NewConfigError("model.api_key (MODEL_API_KEY or GROQ_API_KEY) is required")
	}

	switch cfg.Audit.Sink {
	case SinkSheets:
		if cfg.Audit.Sheets.URL == "" {
			return apperrors.NewConfigError("audit.sheets.url (SHEET_URL) is required")
		}
		if cfg.Audit.Sheets.Credentials == "" {
			return apperrors.NewConfigError("audit.sheets.credentials (CREDS) is required")
		}
		if _, err := base64.StdEncoding.DecodeString(cfg.Audit.Sheets.Credentials); err != nil {
			return apperrors.NewConfigError(fmt.Sprintf("audit.sheets.credentials is not valid base64: %v", err))
		}
	case SinkPostgres:
		if cfg.Audit.Postgres.Host == "" || cfg.Audit.Postgres.Database == "" {
			return apperrors.NewConfigError("audit.postgres.host and audit.postgres.database are required")
		}
		if cfg.Audit.Postgres.User == "" {
			return apperrors.NewConfigError("audit.postgres.user is required")
		}
	case SinkRedis:
		if cfg.Audit.Redis.Address == "" {
			return apperrors.NewConfigError("audit.redis.address is required")
		}
	case SinkElasticsearch:
		if len(cfg.Audit.Elasticsearch.Addresses) == 0 {
			return apperrors.NewConfigError("audit.elasticsearch.addresses is required")
		}
	case SinkSNS:
		if cfg.Audit.SNS.TopicARN == "" {
			return apperrors.NewConfigError("audit.sns.topic_arn is required")
		}
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown audit.sink %q", cfg.Audit.Sink))
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return apperrors.NewConfigError("camunda.broker_address is required when camunda.enabled is true")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: cfg.Camunda.MaxJobsActive,
		Timeout:       cfg.Camunda.Timeout,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
