package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cast"

	"marketpipe/internal/dataset"
	"marketpipe/internal/errors"
	"marketpipe/internal/infrastructure"
	"marketpipe/pkg/contracts/domain"
)

// Loader persists the derived dataset under the fixed column contract
type Loader struct {
	store  *Store
	logger *slog.Logger
}

// NewLoader creates a loader writing through store
func NewLoader(store *Store, logger *slog.Logger) *Loader {
	return &Loader{
		store:  store,
		logger: infrastructure.WithComponent(logger, "loader"),
	}
}

// Load replaces the derived table with the contract projection of derived.
// The column count is checked before the store is touched; all rows are
// written in one transaction and nothing is committed unless every batch
// succeeds.
func (l *Loader) Load(ctx context.Context, derived *dataset.Frame) (int, error) {
	if derived == nil {
		return 0, errors.NewAppValidationError("no derived dataset to load")
	}

	projected, missing := derived.Project(domain.ColumnNames(domain.DerivedColumns))
	if projected.Width() != len(domain.DerivedColumns) {
		l.logger.ErrorContext(ctx, "shape_mismatch",
			slog.Int("got", projected.Width()),
			slog.Int("want", len(domain.DerivedColumns)),
			slog.Any("missing", missing))
		return 0, errors.NewShapeMismatchError(projected.Width(), len(domain.DerivedColumns))
	}

	rows, err := contractRows(projected, domain.DerivedColumns)
	if err != nil {
		return 0, err
	}

	conn, err := l.store.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, domain.DropTableSQL(domain.DerivedTable)); err != nil {
		return 0, classify(err, "failed to drop derived table")
	}
	if _, err := conn.ExecContext(ctx, domain.CreateTableSQL(domain.DerivedTable, domain.DerivedColumns)); err != nil {
		return 0, classify(err, "failed to create derived table")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify(err, "failed to begin load transaction")
	}
	defer tx.Rollback()

	if len(rows) > 0 {
		err = l.store.insertBatches(ctx, tx, domain.DerivedTable, rows, func(n int) string {
			return domain.InsertSQL(domain.DerivedTable, domain.DerivedColumns, n)
		})
		if err != nil {
			l.logger.ErrorContext(ctx, "load_rolled_back", slog.String("error", err.Error()))
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, classify(err, "failed to commit load transaction")
	}

	l.logger.InfoContext(ctx, "derived_table_loaded",
		slog.String("table", domain.DerivedTable),
		slog.Int("rows", len(rows)))
	return len(rows), nil
}

// contractRows projects frame onto columns and coerces every cell to the
// declared type. Missing cells become NULL.
func contractRows(frame *dataset.Frame, columns []domain.ContractColumn) ([][]any, error) {
	names := domain.ColumnNames(columns)
	projected, missing := frame.Project(names)
	if len(missing) > 0 {
		return nil, errors.NewAppValidationError(fmt.Sprintf("dataset is missing contract columns %v", missing))
	}

	rows := make([][]any, projected.Len())
	for i := range rows {
		row := projected.Row(i)
		for j, c := range columns {
			v, err := coerce(row[j], c.Type)
			if err != nil {
				return nil, errors.NewAppValidationError(
					fmt.Sprintf("row %d column %s: %v", i, c.Name, err))
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows, nil
}

func coerce(v any, t domain.ColumnType) (any, error) {
	if dataset.IsMissing(v) {
		return nil, nil
	}
	switch t {
	case domain.ColumnFloat:
		return cast.ToFloat64E(v)
	case domain.ColumnBigInt:
		return cast.ToInt64E(v)
	default:
		return cast.ToStringE(v)
	}
}
