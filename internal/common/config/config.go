// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct. It is built once by
// Load and passed by reference to every component.
type Config struct {
	App     AppConfig               `mapstructure:"app"`
	Server  ServerConfig            `mapstructure:"server"`
	Camunda CamundaConfig           `mapstructure:"camunda"`
	Model   ModelConfig             `mapstructure:"model"`
	Audit   AuditConfig             `mapstructure:"audit"`
	Workers map[string]WorkerConfig `mapstructure:"workers"`
	Logging LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// --- Model Provider ---
type ModelConfig struct {
	Name           string  `mapstructure:"name"`
	Provider       string  `mapstructure:"provider"`
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Temperature    float64 `mapstructure:"temperature"`
	ResponseFormat string  `mapstructure:"response_format"` // json_schema | json_object
	Timeout        int     `mapstructure:"timeout"`         // milliseconds, 0 = no client-side bound
}

// --- Audit Sinks ---
const (
	SinkSheets        = "sheets"
	SinkPostgres      = "postgres"
	SinkRedis         = "redis"
	SinkElasticsearch = "elasticsearch"
	SinkSNS           = "sns"
)

type AuditConfig struct {
	Sink          string              `mapstructure:"sink"`
	Label         string              `mapstructure:"label"`
	Sheets        SheetsConfig        `mapstructure:"sheets"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	SNS           SNSConfig           `mapstructure:"sns"`
}

type SheetsConfig struct {
	URL         string `mapstructure:"url"`
	Credentials string `mapstructure:"credentials"` // base64 service-account JSON
	Range       string `mapstructure:"range"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	Table          string `mapstructure:"table"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type SNSConfig struct {
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

// --- Workers & Logging ---
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
