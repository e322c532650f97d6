package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "marketpipe/internal/errors"
)

// setRequiredEnv sets the minimum variables for a valid configuration
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SP500_DB_HOST", "db.test")
	t.Setenv("SP500_DB_DATABASE", "markets")
	t.Setenv("SP500_DB_USER", "etl")
	t.Setenv("SP500_DB_PASSWORD", "secret")
	t.Setenv("SP500_SOURCE_CSV_FILE_PATH", "testdata/sp500.csv")
	t.Setenv("SP500_PUBLISH_BUCKET_NAME", "sp500-bucket")
	t.Setenv("SP500_PUBLISH_FILE_NAME", "sp500_transformed.csv")
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(t *testing.T)
		configFile  func(t *testing.T) string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name:     "defaults with required env vars",
			setupEnv: setRequiredEnv,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "db.test", cfg.Database.Host)
				assert.Equal(t, 3306, cfg.Database.Port)
				assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
				assert.Equal(t, "markets", cfg.Database.Name)
				assert.Equal(t, "etl", cfg.Database.User)
				assert.Equal(t, "s3", cfg.Publish.Backend)
				assert.Equal(t, "us-east-1", cfg.Publish.Region)
				assert.True(t, cfg.Transform.Diagnostics)
				assert.False(t, cfg.Transform.LegacyWholeFrameFill)
				assert.Equal(t, 1000, cfg.Load.BatchSize)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "process_log.log", cfg.Logging.FilePath)
				assert.Equal(t, AppName, cfg.Telemetry.JobName)
			},
		},
		{
			name: "unprefixed names are accepted",
			setupEnv: func(t *testing.T) {
				t.Setenv("HOST", "rds.example.com")
				t.Setenv("DATABASE", "sp500")
				t.Setenv("USER", "admin")
				t.Setenv("PASSWORD", "pw")
				t.Setenv("CSV_FILE_PATH", "data/sp500_companies.csv")
				t.Setenv("BUCKET_NAME", "raw-bucket")
				t.Setenv("FILE_NAME", "out.csv")
				t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
				t.Setenv("AWS_SECRET_ACCESS_KEY", "wJalrXUtnFEMI")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "rds.example.com", cfg.Database.Host)
				assert.Equal(t, "sp500", cfg.Database.Name)
				assert.Equal(t, "admin", cfg.Database.User)
				assert.Equal(t, "data/sp500_companies.csv", cfg.Source.Path)
				assert.Equal(t, "raw-bucket", cfg.Publish.Bucket)
				assert.Equal(t, "out.csv", cfg.Publish.Key)
				assert.Equal(t, "AKIDEXAMPLE", cfg.Publish.AccessKeyID)
				assert.Equal(t, "wJalrXUtnFEMI", cfg.Publish.SecretAccessKey)
			},
		},
		{
			name: "prefixed name wins over unprefixed",
			setupEnv: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("USER", "os-login")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "etl", cfg.Database.User)
			},
		},
		{
			name:     "file overlays defaults and env overrides file",
			setupEnv: setRequiredEnv,
			configFile: func(t *testing.T) string {
				return writeConfigFile(t, `
database:
  host: from-file
  port: 3307
transform:
  diagnostics: false
load:
  batch_size: 250
logging:
  level: DEBUG
`)
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "db.test", cfg.Database.Host)
				assert.Equal(t, 3307, cfg.Database.Port)
				assert.False(t, cfg.Transform.Diagnostics)
				assert.Equal(t, 250, cfg.Load.BatchSize)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "env vars for optional sections",
			setupEnv: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("SP500_DB_PORT", "3310")
				t.Setenv("SP500_DB_CONNECT_TIMEOUT", "3s")
				t.Setenv("SP500_PUBLISH_BACKEND", "file")
				t.Setenv("SP500_PUBLISH_LOCAL_DIR", "/tmp/published")
				t.Setenv("SP500_TRANSFORM_LEGACY_WHOLE_FRAME_FILL", "true")
				t.Setenv("SP500_LOAD_BATCH_SIZE", "10")
				t.Setenv("SP500_TELEMETRY_PUSHGATEWAY_URL", "http://pushgateway:9091")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3310, cfg.Database.Port)
				assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
				assert.Equal(t, "file", cfg.Publish.Backend)
				assert.Equal(t, "/tmp/published", cfg.Publish.LocalDir)
				assert.True(t, cfg.Transform.LegacyWholeFrameFill)
				assert.Equal(t, 10, cfg.Load.BatchSize)
				assert.Equal(t, "http://pushgateway:9091", cfg.Telemetry.PushgatewayURL)
			},
		},
		{
			name: "missing host fails validation",
			setupEnv: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("SP500_DB_HOST", "")
			},
			wantErr: true,
		},
		{
			name: "unknown backend fails validation",
			setupEnv: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("SP500_PUBLISH_BACKEND", "ftp")
			},
			wantErr: true,
		},
		{
			name: "invalid port",
			setupEnv: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("SP500_DB_PORT", "not-a-port")
			},
			wantErr: true,
		},
		{
			name:     "malformed yaml",
			setupEnv: setRequiredEnv,
			configFile: func(t *testing.T) string {
				return writeConfigFile(t, "database: [unterminated")
			},
			wantErr: true,
		},
		{
			name:     "missing config file",
			setupEnv: setRequiredEnv,
			configFile: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent.yaml")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setupEnv != nil {
				tt.setupEnv(t)
			}
			var file string
			if tt.configFile != nil {
				file = tt.configFile(t)
			}

			cfg, err := LoadFrom(file)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrTypeConfig, apperrors.TypeOf(err))
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestValidate_NamesFieldsByYAMLPath(t *testing.T) {
	cfg := Default()
	cfg.Publish.Backend = "file"
	cfg.Publish.LocalDir = ""

	err := cfg.validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.database.host (required)")
	assert.Contains(t, err.Error(), "Config.publish.local_dir (required_if)")
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	setRequiredEnv(t)
	t.Setenv("SP500_CONFIG_FILE", "")
	// godotenv never overrides variables already present in the environment
	t.Setenv("SP500_LOAD_BATCH_SIZE", "")
	require.NoError(t, os.Unsetenv("SP500_LOAD_BATCH_SIZE"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SP500_LOAD_BATCH_SIZE=42\nSP500_DB_HOST=ignored\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Load.BatchSize)
	assert.Equal(t, "db.test", cfg.Database.Host)
}

func TestLoad_WithoutDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	setRequiredEnv(t)
	t.Setenv("SP500_CONFIG_FILE", "")

	_, err = Load()
	assert.NoError(t, err)
}

func TestConfigError_IsAppError(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
}
