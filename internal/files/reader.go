package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"marketpipe/internal/dataset"
	"marketpipe/internal/errors"
	"marketpipe/internal/exporter"
	"marketpipe/internal/infrastructure"
)

// Source file extensions understood by ReadSource
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// Reader loads source datasets from the local filesystem
type Reader struct {
	discovery *Discovery
	logger    *slog.Logger
}

// NewReader creates a reader. Relative paths resolve against basePath.
func NewReader(basePath string, logger *slog.Logger) *Reader {
	return &Reader{
		discovery: NewDiscovery(basePath),
		logger:    infrastructure.WithComponent(logger, "source_reader"),
	}
}

// ReadSource loads a CSV or xlsx file into a frame. When path is a
// directory the most recently modified source file inside it is used.
func (r *Reader) ReadSource(path string) (*dataset.Frame, error) {
	resolved, err := r.discovery.ResolveSource(path)
	if err != nil {
		return nil, err
	}

	frame, err := ReadSource(resolved)
	if err != nil {
		return nil, err
	}

	r.logger.Info("source_loaded",
		slog.String("path", resolved),
		slog.Int("rows", frame.Len()),
		slog.Int("columns", frame.Width()))
	return frame, nil
}

// ReadSource loads a single CSV or xlsx file into a frame. Empty cells are
// missing and column kinds are inferred from the values.
func ReadSource(path string) (*dataset.Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV:
		return readCSV(path)
	case ExtXLSX:
		return readXLSX(path)
	default:
		return nil, errors.NewAppValidationError(fmt.Sprintf("unsupported source file type %q", filepath.Ext(path)))
	}
}

func readCSV(path string) (*dataset.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to open source file", err)
	}
	defer file.Close()

	return exporter.DecodeCSV(file)
}

// readXLSX reads the first sheet; its first row is the header
func readXLSX(path string) (*dataset.Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError("workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParsingError(fmt.Sprintf("sheet %q is empty", sheets[0]), nil)
	}

	header := rows[0]
	records := lo.Reject(rows[1:], func(row []string, _ int) bool {
		return lo.EveryBy(row, func(cell string) bool { return strings.TrimSpace(cell) == "" })
	})

	frame, err := dataset.FromStrings(header, records)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("malformed sheet %q", sheets[0]), err)
	}
	return frame, nil
}
