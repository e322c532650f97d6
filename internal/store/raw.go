package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"marketpipe/internal/dataset"
	"marketpipe/internal/errors"
	"marketpipe/pkg/contracts/domain"
)

// EnsureRawTable creates the raw table when it does not exist yet. An
// existing table is left untouched whatever its columns.
func (s *Store) EnsureRawTable(ctx context.Context) (bool, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var name string
	err = conn.QueryRowContext(ctx, "SHOW TABLES LIKE '"+domain.RawTable+"'").Scan(&name)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "raw_table_exists", slog.String("table", domain.RawTable))
		return false, nil
	case !stderrors.Is(err, sql.ErrNoRows):
		return false, classify(err, "failed to look up raw table")
	}

	if _, err := conn.ExecContext(ctx, domain.CreateTableSQL(domain.RawTable, domain.RawColumns)); err != nil {
		return false, classify(err, "failed to create raw table")
	}
	s.logger.InfoContext(ctx, "raw_table_created", slog.String("table", domain.RawTable))
	return true, nil
}

// SeedRaw loads the source into the raw table once. When the table already
// holds rows the source is never loaded and 0 is returned.
func (s *Store) SeedRaw(ctx context.Context, load func() (*dataset.Frame, error)) (int, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var count int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM `"+domain.RawTable+"`").Scan(&count); err != nil {
		return 0, classify(err, "failed to count raw rows")
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "raw_table_already_seeded", slog.Int("rows", count))
		return 0, nil
	}

	source, err := load()
	if err != nil {
		return 0, err
	}
	if source == nil {
		return 0, errors.NewAppValidationError("no source dataset to seed")
	}
	rows, err := contractRows(source, domain.RawColumns)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify(err, "failed to begin seed transaction")
	}
	defer tx.Rollback()

	err = s.insertBatches(ctx, tx, domain.RawTable, rows, func(n int) string {
		return domain.InsertSQL(domain.RawTable, domain.RawColumns, n)
	})
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, classify(err, "failed to commit seed transaction")
	}

	s.logger.InfoContext(ctx, "raw_table_seeded", slog.Int("rows", len(rows)))
	return len(rows), nil
}

// ReadRaw returns the full contents of the raw table, typed by the declared
// column types
func (s *Store) ReadRaw(ctx context.Context) (*dataset.Frame, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, "SELECT * FROM `"+domain.RawTable+"`")
	if err != nil {
		return nil, classify(err, "failed to query raw table")
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, classify(err, "failed to read raw column types")
	}
	columns := lo.Map(types, func(ct *sql.ColumnType, _ int) dataset.Column {
		return dataset.Column{Name: ct.Name(), Kind: kindOfDatabaseType(ct.DatabaseTypeName())}
	})

	frame := dataset.New(columns)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify(err, "failed to scan raw row")
		}
		for i, v := range values {
			typed, err := parseStoreValue(v, columns[i].Kind)
			if err != nil {
				return nil, errors.NewParsingError(fmt.Sprintf("column %s", columns[i].Name), err)
			}
			values[i] = typed
		}
		if err := frame.Append(values); err != nil {
			return nil, errors.NewParsingError("malformed raw row", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "failed to iterate raw rows")
	}

	s.logger.InfoContext(ctx, "raw_table_read",
		slog.Int("rows", frame.Len()),
		slog.Int("columns", frame.Width()))
	return frame, nil
}

func kindOfDatabaseType(name string) dataset.Kind {
	name = strings.ToUpper(name)
	switch {
	case name == "FLOAT", name == "DOUBLE", name == "DECIMAL", name == "REAL":
		return dataset.KindFloat
	case strings.HasSuffix(name, "INT"):
		return dataset.KindInt
	default:
		return dataset.KindString
	}
}

// parseStoreValue types a scanned cell. Text cells are parsed by the
// declared column kind; typed driver values are normalized.
func parseStoreValue(v any, kind dataset.Kind) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return dataset.Normalize(v), nil
	}
	text := string(b)
	switch kind {
	case dataset.KindInt:
		return strconv.ParseInt(text, 10, 64)
	case dataset.KindFloat:
		return strconv.ParseFloat(text, 64)
	default:
		return text, nil
	}
}
