package exporter

import (
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"marketpipe/internal/dataset"
	"marketpipe/internal/errors"
	"marketpipe/internal/infrastructure"
)

// EncodeCSV writes the frame as a header row followed by one record per row.
// There is no index column.
func EncodeCSV(w io.Writer, frame *dataset.Frame) error {
	if frame == nil {
		return errors.NewAppValidationError("no dataset to encode")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(frame.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, frame.Width())
	for i := 0; i < frame.Len(); i++ {
		for j, v := range frame.Row(i) {
			record[j] = formatValue(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// MarshalCSV encodes the frame into memory
func MarshalCSV(frame *dataset.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, frame); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCSV reads a header row and records back into a frame, inferring
// column kinds from the values
func DecodeCSV(r io.Reader) (*dataset.Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if stderrors.Is(err, io.EOF) {
		return nil, errors.NewParsingError("CSV has no header row", err)
	}
	if err != nil {
		return nil, errors.NewParsingError("failed to read CSV header", err)
	}
	header[0] = trimBOM(header[0])

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError("failed to read CSV records", err)
	}

	frame, err := dataset.FromStrings(header, records)
	if err != nil {
		return nil, errors.NewParsingError("malformed CSV", err)
	}
	return frame, nil
}

func trimBOM(s string) string {
	return string(bytes.TrimPrefix([]byte(s), []byte{0xEF, 0xBB, 0xBF}))
}

// CSVWriter writes frames as CSV files below a base directory
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{
		baseDir: baseDir,
		logger:  infrastructure.WithComponent(logger, "csv_writer"),
	}
}

// WriteFrame writes the frame to filePath, replacing any existing file.
// Relative paths are resolved against the base directory.
func (w *CSVWriter) WriteFrame(filePath string, frame *dataset.Frame) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("writing_csv_file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", frame.Len()))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := EncodeCSV(file, frame); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// resolvePath resolves a path against the base directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}
