package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
// Leaf fields are untagged for envconfig so lookups never fall back to
// unprefixed variables such as PATH.
type Config struct {
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Schema    SchemaConfig    `yaml:"schema" envconfig:"SCHEMA"`
	Reports   ReportsConfig   `yaml:"reports" envconfig:"REPORTS"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
}

// InputConfig locates the flow records file
type InputConfig struct {
	Path      string `yaml:"path" validate:"required"`
	Delimiter string `yaml:"delimiter" validate:"len=1"`
}

// SchemaConfig names the columns of the flow table. Input columns must be
// present in the file header; derived columns are added by the transformer.
type SchemaConfig struct {
	Client      string `yaml:"client" validate:"required"`
	Server      string `yaml:"server" validate:"required"`
	ClientBytes string `yaml:"client_bytes" split_words:"true" validate:"required"`
	ServerBytes string `yaml:"server_bytes" split_words:"true" validate:"required"`
	Start       string `yaml:"start" validate:"required"`
	Stop        string `yaml:"stop" validate:"required"`

	StartTS    string `yaml:"start_ts" split_words:"true" validate:"required"`
	StopTS     string `yaml:"stop_ts" split_words:"true" validate:"required"`
	TotalBytes string `yaml:"total_bytes" split_words:"true" validate:"required"`
	IsOutside  string `yaml:"is_outside" split_words:"true" validate:"required"`
	Date       string `yaml:"date" validate:"required"`
}

// InputColumns returns the columns that must be present in the file header
func (s SchemaConfig) InputColumns() []string {
	return []string{s.Client, s.Server, s.ClientBytes, s.ServerBytes, s.Start, s.Stop}
}

// ReportsConfig selects the reports to run and their parameters
type ReportsConfig struct {
	Enabled            []string `yaml:"enabled" validate:"dive,oneof=daily_client_totals external_per_client field_per_bucket field_per_bucket_per_client external_share"`
	Field              string   `yaml:"field" validate:"required"`
	BucketWindow       string   `yaml:"bucket_window" split_words:"true" validate:"required"`
	ClientBucketWindow string   `yaml:"client_bucket_window" split_words:"true" validate:"required"`
	ChartPerClient     bool     `yaml:"chart_per_client" split_words:"true"`
}

// IsEnabled reports whether the named report is selected
func (r ReportsConfig) IsEnabled(name string) bool {
	for _, e := range r.Enabled {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}

// OutputConfig controls where and what the pipeline writes
type OutputConfig struct {
	Dir         string `yaml:"dir" validate:"required"`
	Charts      bool   `yaml:"charts"`
	CSV         bool   `yaml:"csv"`
	XLSX        bool   `yaml:"xlsx"`
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
	ChartWidth  int    `yaml:"chart_width" split_words:"true" validate:"min=200,max=8000"`
	ChartHeight int    `yaml:"chart_height" split_words:"true" validate:"min=150,max=8000"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Format   string `yaml:"format" validate:"oneof=json text"`
	Output   string `yaml:"output" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// TelemetryConfig toggles tracing and metrics
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" split_words:"true" validate:"oneof=stdout none"`
	Metrics       bool   `yaml:"metrics"`
}

// ServerConfig is used by the optional chart browser
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	RateLimit       float64       `yaml:"rate_limit" split_words:"true" validate:"gte=0"`
	RateBurst       int           `yaml:"rate_burst" split_words:"true" validate:"gte=0"`
}

// EnvPrefix is the prefix of every environment variable read by Load
const EnvPrefix = "FLOW"

// Load builds the configuration from defaults, an optional YAML file and
// FLOW_* environment variables, in increasing order of precedence.
// An empty configFile searches the usual locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalizes a few values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"flowcli.yaml",
		"configs/flowcli.yaml",
		"../configs/flowcli.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// DefaultSchema returns the column names used by the flow exports
func DefaultSchema() SchemaConfig {
	return SchemaConfig{
		Client:      "client",
		Server:      "server",
		ClientBytes: "client_bytes",
		ServerBytes: "server_bytes",
		Start:       "start",
		Stop:        "stop",
		StartTS:     "start_ts",
		StopTS:      "stop_ts",
		TotalBytes:  "total_bytes",
		IsOutside:   "is_outside",
		Date:        "date",
	}
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:      DefaultInputPath,
			Delimiter: ",",
		},
		Schema: DefaultSchema(),
		Reports: ReportsConfig{
			Enabled: []string{
				"daily_client_totals",
				"external_per_client",
				"field_per_bucket",
				"field_per_bucket_per_client",
				"external_share",
			},
			Field:              "total_bytes",
			BucketWindow:       "4H",
			ClientBucketWindow: "D",
			ChartPerClient:     true,
		},
		Output: OutputConfig{
			Dir:         DefaultOutputDir,
			Charts:      true,
			CSV:         true,
			XLSX:        true,
			MetricsFile: "flowcli.prom",
			ChartWidth:  1024,
			ChartHeight: 512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			Metrics:       true,
		},
		Server: ServerConfig{
			Addr:            ":8090",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       50,
			RateBurst:       100,
		},
	}
}
