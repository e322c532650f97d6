package operations_test

import (
	"context"
	"sync"

	"marketpipe/internal/dataprocessing"
	"marketpipe/internal/dataset"
	"marketpipe/internal/operations"
)

// mockStage is a configurable step
type mockStage struct {
	operations.BaseStage
	executeFunc  func(ctx context.Context, state *operations.OperationState) error
	validateFunc func(state *operations.OperationState) error
	tolerate     func(err error) bool

	mu    sync.Mutex
	calls int
}

func newMockStage(id string, deps ...string) *mockStage {
	return &mockStage{BaseStage: operations.NewBaseStage(id, "Step "+id, deps)}
}

func (m *mockStage) Execute(ctx context.Context, state *operations.OperationState) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.executeFunc != nil {
		return m.executeFunc(ctx, state)
	}
	return nil
}

func (m *mockStage) Validate(state *operations.OperationState) error {
	if m.validateFunc != nil {
		return m.validateFunc(state)
	}
	return nil
}

func (m *mockStage) Tolerates(err error) bool {
	if m.tolerate != nil {
		return m.tolerate(err)
	}
	return false
}

func (m *mockStage) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeStore implements RawStore with canned results
type fakeStore struct {
	pingErr   error
	ensureErr error
	seedErr   error
	readErr   error
	raw       *dataset.Frame
	rowCount  int

	seeded []*dataset.Frame
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) EnsureRawTable(ctx context.Context) (bool, error) {
	if f.ensureErr != nil {
		return false, f.ensureErr
	}
	return true, nil
}

func (f *fakeStore) SeedRaw(ctx context.Context, load func() (*dataset.Frame, error)) (int, error) {
	if f.seedErr != nil {
		return 0, f.seedErr
	}
	if f.rowCount > 0 {
		return 0, nil
	}
	source, err := load()
	if err != nil {
		return 0, err
	}
	f.seeded = append(f.seeded, source)
	if f.raw == nil {
		f.raw = source
	}
	return source.Len(), nil
}

func (f *fakeStore) ReadRaw(ctx context.Context) (*dataset.Frame, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.raw, nil
}

// fakeReader implements SourceReader
type fakeReader struct {
	frame *dataset.Frame
	err   error
	paths []string
}

func (f *fakeReader) ReadSource(path string) (*dataset.Frame, error) {
	f.paths = append(f.paths, path)
	return f.frame, f.err
}

// fakeTransformer implements Transformer
type fakeTransformer struct {
	derived *dataset.Frame
	err     error
}

func (f *fakeTransformer) Transform(ctx context.Context, raw *dataset.Frame) (*dataset.Frame, *dataprocessing.Report, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if f.derived == nil {
		return raw, nil, nil
	}
	return f.derived, nil, nil
}

// fakeLoader implements DerivedLoader
type fakeLoader struct {
	err    error
	loaded []*dataset.Frame
}

func (f *fakeLoader) Load(ctx context.Context, derived *dataset.Frame) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.loaded = append(f.loaded, derived)
	return derived.Len(), nil
}

// fakePublisher implements FramePublisher
type fakePublisher struct {
	err       error
	published []*dataset.Frame
	bucket    string
	key       string
}

func (f *fakePublisher) Publish(ctx context.Context, frame *dataset.Frame, bucket, key string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, frame)
	f.bucket, f.key = bucket, key
	return nil
}
