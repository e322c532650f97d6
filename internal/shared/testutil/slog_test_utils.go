package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// CapturedRecord is one log record kept by a CaptureHandler
type CapturedRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type captureSink struct {
	mu      sync.Mutex
	records []CapturedRecord
}

// CaptureHandler keeps every record at every level. Loggers derived with
// With share the sink and carry their attributes into each record.
type CaptureHandler struct {
	sink  *captureSink
	attrs []slog.Attr
	t     *testing.T
}

// NewTestLogger returns a logger whose records can be inspected through
// the returned handler. Records are echoed to the test log.
func NewTestLogger(t *testing.T) (*slog.Logger, *CaptureHandler) {
	handler := &CaptureHandler{sink: &captureSink{}, t: t}
	return slog.New(handler), handler
}

func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.sink.mu.Lock()
	h.sink.records = append(h.sink.records, CapturedRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.sink.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CaptureHandler{
		sink:  h.sink,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
		t:     h.t,
	}
}

// WithGroup flattens groups
func (h *CaptureHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the captured records, optionally limited to
// the given levels
func (h *CaptureHandler) Records(levels ...slog.Level) []CapturedRecord {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()

	var out []CapturedRecord
	for _, r := range h.sink.records {
		if len(levels) == 0 || containsLevel(levels, r.Level) {
			out = append(out, r)
		}
	}
	return out
}

// ContainsMessage reports whether any record message contains message
func (h *CaptureHandler) ContainsMessage(message string) bool {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, message) {
			return true
		}
	}
	return false
}

// ContainsAttr reports whether any record carries key=value
func (h *CaptureHandler) ContainsAttr(key string, value any) bool {
	for _, r := range h.Records() {
		if v, ok := r.Attrs[key]; ok && assert.ObjectsAreEqual(value, v) {
			return true
		}
	}
	return false
}

// AssertLogContains fails the test unless a record at level contains message
func AssertLogContains(t *testing.T, handler *CaptureHandler, level slog.Level, message string) {
	t.Helper()
	for _, r := range handler.Records(level) {
		if strings.Contains(r.Message, message) {
			return
		}
	}
	t.Errorf("no %s record containing %q", level, message)
	dump(t, handler.Records())
}

// AssertLogAttr fails the test unless some record carries key=value
func AssertLogAttr(t *testing.T, handler *CaptureHandler, key string, value any) {
	t.Helper()
	if !handler.ContainsAttr(key, value) {
		t.Errorf("no record with %s=%v", key, value)
		dump(t, handler.Records())
	}
}

// AssertNoErrors fails the test for every error-level record
func AssertNoErrors(t *testing.T, handler *CaptureHandler) {
	t.Helper()
	for _, r := range handler.Records(slog.LevelError) {
		t.Errorf("unexpected error log %s: %v", r.Message, r.Attrs)
	}
}

func containsLevel(levels []slog.Level, level slog.Level) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

func dump(t *testing.T, records []CapturedRecord) {
	t.Helper()
	for _, r := range records {
		t.Logf("  [%s] %s %v", r.Level, r.Message, r.Attrs)
	}
}
