// Package config provides centralized configuration management for the
// pipeline. It loads configuration from multiple sources, validates it and
// exposes a typed Config to the rest of the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A .env file in the working directory (never overrides the environment)
//	3. A YAML file: $SP500_CONFIG_FILE, config.yaml or configs/config.yaml
//	4. Default values (lowest priority)
//
// # Environment Variables
//
// Variables follow the pattern SP500_<SECTION>_<FIELD>:
//
//	SP500_DB_HOST=db.internal
//	SP500_DB_PORT=3306
//	SP500_PUBLISH_BACKEND=s3
//	SP500_TRANSFORM_DIAGNOSTICS=false
//	SP500_LOAD_BATCH_SIZE=500
//
// The connection, source and publication settings also accept the short
// names used by earlier deployments when the prefixed form is unset:
// HOST, DATABASE, USER, PASSWORD, CSV_FILE_PATH, BUCKET_NAME, FILE_NAME,
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION and
// GOOGLE_APPLICATION_CREDENTIALS.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Validation errors are returned as CONFIG application errors naming every
// invalid field by its YAML path.
package config
