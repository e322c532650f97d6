package config

import "time"

// Application constants
const (
	AppName    = "sp500-pipeline"
	AppVersion = "1.0.0"

	// Store
	DefaultDBPort         = 3306
	DefaultConnectTimeout = 10 * time.Second
	DefaultBatchSize      = 1000

	// Publication
	DefaultAWSRegion = "us-east-1"
	CSVContentType   = "text/csv"

	// Logging
	DefaultLogFile = "process_log.log"
)
