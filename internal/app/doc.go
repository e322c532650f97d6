// Package app wires the pipeline components together and runs one batch.
//
// # Initialization Flow
//
//	1. Load configuration from .env, an optional YAML file and the environment
//	2. Initialize logging and OpenTelemetry
//	3. Open the MySQL store and select the object storage backend
//	4. Register the pipeline steps with the operation manager
//
// # Usage
//
//	application, err := app.NewApplication(ctx)
//	if err != nil {
//	    os.Exit(1)
//	}
//	defer application.Close(ctx)
//	if err := application.Run(ctx); err != nil {
//	    os.Exit(1)
//	}
//
// Run logs a terminal success or failure message, records run metrics and
// pushes them to a Pushgateway when one is configured. The app never calls
// os.Exit itself.
package app
