package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "marketpipe/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database" envconfig:"DB"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Publish   PublishConfig   `yaml:"publish" envconfig:"PUBLISH"`
	Transform TransformConfig `yaml:"transform" envconfig:"TRANSFORM"`
	Load      LoadConfig      `yaml:"load" envconfig:"LOAD"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// DatabaseConfig contains MySQL connection settings. Tagged variables may
// also be given without the SP500_DB_ prefix.
type DatabaseConfig struct {
	Host           string        `yaml:"host" envconfig:"HOST" validate:"required"`
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	Name           string        `yaml:"name" envconfig:"DATABASE" validate:"required"`
	User           string        `yaml:"user" envconfig:"USER" validate:"required"`
	Password       string        `yaml:"password" envconfig:"PASSWORD"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" split_words:"true" validate:"min=0"`
}

// SourceConfig locates the constituents file used to seed the raw table
type SourceConfig struct {
	Path string `yaml:"path" envconfig:"CSV_FILE_PATH" validate:"required"`
}

// PublishConfig selects the object storage backend and destination
type PublishConfig struct {
	Backend         string `yaml:"backend" validate:"oneof=s3 gcs file"`
	Bucket          string `yaml:"bucket" envconfig:"BUCKET_NAME" validate:"required"`
	Key             string `yaml:"key" envconfig:"FILE_NAME" validate:"required"`
	Region          string `yaml:"region" envconfig:"AWS_REGION"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	LocalDir        string `yaml:"local_dir" split_words:"true" validate:"required_if=Backend file"`
}

// TransformConfig toggles optional transformation behavior
type TransformConfig struct {
	Diagnostics          bool   `yaml:"diagnostics"`
	LegacyWholeFrameFill bool   `yaml:"legacy_whole_frame_fill" split_words:"true"`
	DiagnosticsDir       string `yaml:"diagnostics_dir" split_words:"true"`
}

// LoadConfig controls how rows are written to the store
type LoadConfig struct {
	BatchSize int `yaml:"batch_size" split_words:"true" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"oneof=debug info warn error"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// TelemetryConfig contains tracing and metrics export settings
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" split_words:"true" validate:"required"`
	TraceStdout    bool   `yaml:"trace_stdout" split_words:"true"`
	PushgatewayURL string `yaml:"pushgateway_url" split_words:"true" validate:"omitempty,url"`
	JobName        string `yaml:"job_name" split_words:"true"`
}

// EnvPrefix namespaces every environment variable
const EnvPrefix = "SP500"

// Load loads configuration from an optional .env file, an optional YAML
// file and environment variables, in increasing order of precedence
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigError("failed to read .env file", err)
	}
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration using the given YAML file (empty for none)
// underneath the environment
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("file", configFile)
		}
	}

	// Variables left unset keep the default or file value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report YAML names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}
	if c.Telemetry.JobName == "" {
		c.Telemetry.JobName = c.Telemetry.ServiceName
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Port:           DefaultDBPort,
			ConnectTimeout: DefaultConnectTimeout,
		},
		Publish: PublishConfig{
			Backend:  "s3",
			Region:   DefaultAWSRegion,
			LocalDir: "published",
		},
		Transform: TransformConfig{
			Diagnostics:          true,
			LegacyWholeFrameFill: false,
		},
		Load: LoadConfig{
			BatchSize: DefaultBatchSize,
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName: AppName,
			JobName:     AppName,
		},
	}
}
