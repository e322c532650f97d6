package operations

import (
	"context"

	"marketpipe/internal/dataprocessing"
	"marketpipe/internal/dataset"
	apperrors "marketpipe/internal/errors"
)

// RawStore is the store access the raw table steps need
type RawStore interface {
	Ping(ctx context.Context) error
	EnsureRawTable(ctx context.Context) (bool, error)
	SeedRaw(ctx context.Context, load func() (*dataset.Frame, error)) (int, error)
	ReadRaw(ctx context.Context) (*dataset.Frame, error)
}

// SourceReader loads the constituents source file
type SourceReader interface {
	ReadSource(path string) (*dataset.Frame, error)
}

// Transformer derives the analytical dataset from the raw one
type Transformer interface {
	Transform(ctx context.Context, raw *dataset.Frame) (*dataset.Frame, *dataprocessing.Report, error)
}

// DerivedLoader replaces the derived table with a dataset
type DerivedLoader interface {
	Load(ctx context.Context, derived *dataset.Frame) (int, error)
}

// FramePublisher uploads a dataset to object storage
type FramePublisher interface {
	Publish(ctx context.Context, frame *dataset.Frame, bucket, key string) error
}

// VerifyConnectionStage checks that the store is reachable
type VerifyConnectionStage struct {
	BaseStage
	store RawStore
}

// NewVerifyConnectionStage creates the connectivity check step
func NewVerifyConnectionStage(store RawStore) *VerifyConnectionStage {
	return &VerifyConnectionStage{
		BaseStage: NewBaseStage(StageIDVerifyConnection, StageNameVerifyConnection, nil),
		store:     store,
	}
}

// Execute pings the store
func (s *VerifyConnectionStage) Execute(ctx context.Context, state *OperationState) error {
	return s.store.Ping(ctx)
}

// BootstrapRawStage creates the raw table when it does not exist
type BootstrapRawStage struct {
	BaseStage
	store RawStore
}

// NewBootstrapRawStage creates the raw table bootstrap step
func NewBootstrapRawStage(store RawStore) *BootstrapRawStage {
	return &BootstrapRawStage{
		BaseStage: NewBaseStage(StageIDBootstrapRaw, StageNameBootstrapRaw, []string{StageIDVerifyConnection}),
		store:     store,
	}
}

// Execute creates the raw table if needed
func (s *BootstrapRawStage) Execute(ctx context.Context, state *OperationState) error {
	created, err := s.store.EnsureRawTable(ctx)
	if err != nil {
		return err
	}
	state.GetStage(s.ID()).SetMetadata("created", created)
	return nil
}

// Tolerates lets the run continue when the store dropped the connection;
// reading the raw table decides whether it can proceed
func (s *BootstrapRawStage) Tolerates(err error) bool {
	return apperrors.IsConnectivity(err)
}

// SeedRawStage fills an empty raw table from the source file
type SeedRawStage struct {
	BaseStage
	reader     SourceReader
	store      RawStore
	sourcePath string
}

// NewSeedRawStage creates the raw table seed step
func NewSeedRawStage(reader SourceReader, store RawStore, sourcePath string) *SeedRawStage {
	return &SeedRawStage{
		BaseStage:  NewBaseStage(StageIDSeedRaw, StageNameSeedRaw, []string{StageIDBootstrapRaw}),
		reader:     reader,
		store:      store,
		sourcePath: sourcePath,
	}
}

// Validate requires a configured source path
func (s *SeedRawStage) Validate(state *OperationState) error {
	if s.sourcePath == "" {
		return NewValidationError(s.ID(), "source path is not configured")
	}
	return nil
}

// Execute seeds an empty raw table from the source. The source is only read
// when the table holds no rows.
func (s *SeedRawStage) Execute(ctx context.Context, state *OperationState) error {
	inserted, err := s.store.SeedRaw(ctx, func() (*dataset.Frame, error) {
		return s.reader.ReadSource(s.sourcePath)
	})
	if err != nil {
		return err
	}
	state.SetContext(ContextKeySeededRows, inserted)
	state.GetStage(s.ID()).SetMetadata(MetadataKeyRows, inserted)
	return nil
}

// Tolerates lets the run continue with whatever the raw table already holds
// when the store dropped the connection
func (s *SeedRawStage) Tolerates(err error) bool {
	return apperrors.IsConnectivity(err)
}

// ReadRawStage reads the raw dataset from the store
type ReadRawStage struct {
	BaseStage
	store RawStore
}

// NewReadRawStage creates the raw read step
func NewReadRawStage(store RawStore) *ReadRawStage {
	return &ReadRawStage{
		BaseStage: NewBaseStage(StageIDReadRaw, StageNameReadRaw, []string{StageIDSeedRaw}),
		store:     store,
	}
}

// Execute reads the raw table into the operation context
func (s *ReadRawStage) Execute(ctx context.Context, state *OperationState) error {
	raw, err := s.store.ReadRaw(ctx)
	if err != nil {
		return err
	}
	state.SetContext(ContextKeyRawFrame, raw)
	state.GetStage(s.ID()).SetMetadata(MetadataKeyRows, raw.Len())
	return nil
}

// TransformStage runs the transformation engine over the raw dataset
type TransformStage struct {
	BaseStage
	engine Transformer
}

// NewTransformStage creates the transform step
func NewTransformStage(engine Transformer) *TransformStage {
	return &TransformStage{
		BaseStage: NewBaseStage(StageIDTransform, StageNameTransform, []string{StageIDReadRaw}),
		engine:    engine,
	}
}

// Validate requires the raw dataset
func (s *TransformStage) Validate(state *OperationState) error {
	if _, ok := state.Frame(ContextKeyRawFrame); !ok {
		return NewDependencyError(s.ID(), StageIDReadRaw, "raw dataset not available")
	}
	return nil
}

// Execute derives the analytical dataset
func (s *TransformStage) Execute(ctx context.Context, state *OperationState) error {
	raw, _ := state.Frame(ContextKeyRawFrame)

	derived, report, err := s.engine.Transform(ctx, raw)
	if report != nil {
		state.SetContext(ContextKeyTransformReport, report)
	}
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyDerivedFrame, derived)
	stepState := state.GetStage(s.ID())
	stepState.SetMetadata(MetadataKeyRows, derived.Len())
	if report != nil {
		stepState.SetMetadata("degraded", report.Degraded())
	}
	return nil
}

// LoadDerivedStage writes the derived dataset to the derived table
type LoadDerivedStage struct {
	BaseStage
	loader DerivedLoader
}

// NewLoadDerivedStage creates the derived load step
func NewLoadDerivedStage(loader DerivedLoader) *LoadDerivedStage {
	return &LoadDerivedStage{
		BaseStage: NewBaseStage(StageIDLoadDerived, StageNameLoadDerived, []string{StageIDTransform}),
		loader:    loader,
	}
}

// Validate requires the derived dataset
func (s *LoadDerivedStage) Validate(state *OperationState) error {
	if _, ok := state.Frame(ContextKeyDerivedFrame); !ok {
		return NewDependencyError(s.ID(), StageIDTransform, "derived dataset not available")
	}
	return nil
}

// Execute loads the derived dataset
func (s *LoadDerivedStage) Execute(ctx context.Context, state *OperationState) error {
	derived, _ := state.Frame(ContextKeyDerivedFrame)

	loaded, err := s.loader.Load(ctx, derived)
	if err != nil {
		return err
	}
	state.SetContext(ContextKeyLoadedRows, loaded)
	state.GetStage(s.ID()).SetMetadata(MetadataKeyRows, loaded)
	return nil
}

// Tolerates lets publication go ahead when the store dropped the
// connection. Statement failures and contract violations end the run.
func (s *LoadDerivedStage) Tolerates(err error) bool {
	return apperrors.IsConnectivity(err)
}

// PublishStage uploads the derived dataset as CSV
type PublishStage struct {
	BaseStage
	publisher FramePublisher
	bucket    string
	key       string
}

// NewPublishStage creates the publication step
func NewPublishStage(publisher FramePublisher, bucket, key string) *PublishStage {
	return &PublishStage{
		BaseStage: NewBaseStage(StageIDPublish, StageNamePublish, []string{StageIDTransform}),
		publisher: publisher,
		bucket:    bucket,
		key:       key,
	}
}

// Validate requires the derived dataset and a destination
func (s *PublishStage) Validate(state *OperationState) error {
	if s.bucket == "" || s.key == "" {
		return NewValidationError(s.ID(), "publication destination is not configured")
	}
	if _, ok := state.Frame(ContextKeyDerivedFrame); !ok {
		return NewDependencyError(s.ID(), StageIDTransform, "derived dataset not available")
	}
	return nil
}

// Execute publishes the derived dataset
func (s *PublishStage) Execute(ctx context.Context, state *OperationState) error {
	derived, _ := state.Frame(ContextKeyDerivedFrame)

	if err := s.publisher.Publish(ctx, derived, s.bucket, s.key); err != nil {
		return err
	}
	state.GetStage(s.ID()).SetMetadata(MetadataKeyRows, derived.Len())
	return nil
}

// RegisterPipeline registers the pipeline steps in run order
func RegisterPipeline(registry *Registry, steps ...Step) error {
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return err
		}
	}
	return registry.ValidateDependencies()
}
