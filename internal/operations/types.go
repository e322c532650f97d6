package operations

// Step identifiers, in run order
const (
	StageIDVerifyConnection = "verify_connection"
	StageIDBootstrapRaw     = "bootstrap_raw_table"
	StageIDSeedRaw          = "seed_raw_table"
	StageIDReadRaw          = "read_raw"
	StageIDTransform        = "transform"
	StageIDLoadDerived      = "load_derived"
	StageIDPublish          = "publish"
)

// Step names
const (
	StageNameVerifyConnection = "Verify Connection"
	StageNameBootstrapRaw     = "Bootstrap Raw Table"
	StageNameSeedRaw          = "Seed Raw Table"
	StageNameReadRaw          = "Read Raw Dataset"
	StageNameTransform        = "Transform"
	StageNameLoadDerived      = "Load Derived Dataset"
	StageNamePublish          = "Publish"
)

// Context keys for data passed between steps
const (
	ContextKeyRawFrame        = "raw_frame"
	ContextKeyDerivedFrame    = "derived_frame"
	ContextKeyTransformReport = "transform_report"
	ContextKeySeededRows      = "seeded_rows"
	ContextKeyLoadedRows      = "loaded_rows"
)

// MetadataKeyRows is the step metadata key for the number of rows a step handled
const MetadataKeyRows = "rows"

// Operation statuses
const (
	OperationStatusPending   = "pending"
	OperationStatusRunning   = "running"
	OperationStatusCompleted = "completed"
	OperationStatusFailed    = "failed"
)
