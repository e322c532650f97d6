package store

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpipe/internal/config"
	"marketpipe/internal/dataset"
	"marketpipe/internal/errors"
	"marketpipe/internal/shared/testutil"
	"marketpipe/pkg/contracts/domain"
)

func newMockStore(t *testing.T, batchSize int) (*Store, sqlmock.Sqlmock, *testutil.CaptureHandler) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger, handler := testutil.NewTestLogger(t)
	return New(db, batchSize, logger), mock, handler
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     3307,
		Name:     "markets",
		User:     "etl",
		Password: "secret",
	})

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "etl", parsed.User)
	assert.Equal(t, "secret", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "markets", parsed.DBName)
}

func TestPing(t *testing.T) {
	s, mock, _ := newMockStore(t, 10)

	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassify(t *testing.T) {
	err := classify(stderrors.New("dial tcp 10.0.0.1:3306: connect: connection refused"), "ping failed")
	assert.ErrorIs(t, err, errors.ErrConnectivity)

	err = classify(&mysql.MySQLError{Number: 1045, Message: "Access denied"}, "ping failed")
	assert.Equal(t, errors.ErrTypeStorage, errors.TypeOf(err))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, uint16(1045), appErr.Context["code"])
}

func TestPing_ClosedHandle(t *testing.T) {
	s, mock, _ := newMockStore(t, 10)
	mock.ExpectClose()
	require.NoError(t, s.Close())

	err := s.Ping(context.Background())
	assert.True(t, errors.IsConnectivity(err))
}

func TestEnsureRawTable(t *testing.T) {
	lookup := "SHOW TABLES LIKE 'SP500'"

	t.Run("creates a missing table", func(t *testing.T) {
		s, mock, handler := newMockStore(t, 10)
		mock.ExpectQuery(lookup).WillReturnRows(sqlmock.NewRows([]string{"Tables_in_markets (SP500)"}))
		mock.ExpectExec(domain.CreateTableSQL(domain.RawTable, domain.RawColumns)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := s.EnsureRawTable(context.Background())
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, handler.ContainsMessage("raw_table_created"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("leaves an existing table alone", func(t *testing.T) {
		s, mock, _ := newMockStore(t, 10)
		mock.ExpectQuery(lookup).
			WillReturnRows(sqlmock.NewRows([]string{"Tables_in_markets (SP500)"}).AddRow("SP500"))

		created, err := s.EnsureRawTable(context.Background())
		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("server error is a storage error", func(t *testing.T) {
		s, mock, _ := newMockStore(t, 10)
		mock.ExpectQuery(lookup).WillReturnRows(sqlmock.NewRows([]string{"Tables_in_markets (SP500)"}))
		mock.ExpectExec(domain.CreateTableSQL(domain.RawTable, domain.RawColumns)).
			WillReturnError(&mysql.MySQLError{Number: 1142, Message: "CREATE command denied"})

		_, err := s.EnsureRawTable(context.Background())
		assert.Equal(t, errors.ErrTypeStorage, errors.TypeOf(err))
		assert.False(t, errors.IsConnectivity(err))
	})
}

func sourceOf(frame *dataset.Frame) func() (*dataset.Frame, error) {
	return func() (*dataset.Frame, error) { return frame, nil }
}

func TestSeedRaw(t *testing.T) {
	count := "SELECT COUNT(*) FROM `SP500`"
	width := len(domain.RawColumns)

	t.Run("inserts every row in batches inside one transaction", func(t *testing.T) {
		s, mock, _ := newMockStore(t, 2)
		frame := testutil.RawFrame(t, testutil.Constituents(1, 3))

		mock.ExpectQuery(count).WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectExec(domain.InsertSQL(domain.RawTable, domain.RawColumns, 2)).
			WithArgs(anyArgs(2 * width)...).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(domain.InsertSQL(domain.RawTable, domain.RawColumns, 1)).
			WithArgs(anyArgs(width)...).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		inserted, err := s.SeedRaw(context.Background(), sourceOf(frame))
		require.NoError(t, err)
		assert.Equal(t, 3, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second seed is a no-op", func(t *testing.T) {
		s, mock, handler := newMockStore(t, 10)
		frame := testutil.RawFrame(t, testutil.Constituents(2, 4))

		mock.ExpectQuery(count).WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectExec(domain.InsertSQL(domain.RawTable, domain.RawColumns, 4)).
			WithArgs(anyArgs(4 * width)...).
			WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectCommit()
		mock.ExpectQuery(count).WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(4))

		first, err := s.SeedRaw(context.Background(), sourceOf(frame))
		require.NoError(t, err)
		second, err := s.SeedRaw(context.Background(), sourceOf(frame))
		require.NoError(t, err)

		assert.Equal(t, 4, first)
		assert.Equal(t, 0, second)
		assert.True(t, handler.ContainsMessage("raw_table_already_seeded"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("source is not loaded when the table holds rows", func(t *testing.T) {
		s, mock, handler := newMockStore(t, 10)
		mock.ExpectQuery(count).WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(503))

		loaded := false
		inserted, err := s.SeedRaw(context.Background(), func() (*dataset.Frame, error) {
			loaded = true
			return nil, errors.NewParsingError("source not found", stderrors.New("no such file"))
		})

		require.NoError(t, err)
		assert.Zero(t, inserted)
		assert.False(t, loaded)
		assert.True(t, handler.ContainsMessage("raw_table_already_seeded"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("source failure on an empty table is returned", func(t *testing.T) {
		s, mock, _ := newMockStore(t, 10)
		mock.ExpectQuery(count).WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

		_, err := s.SeedRaw(context.Background(), func() (*dataset.Frame, error) {
			return nil, errors.NewParsingError("source not found", stderrors.New("no such file"))
		})

		assert.Equal(t, errors.ErrTypeParsing, errors.TypeOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing contract columns fail before any insert", func(t *testing.T) {
		s, mock, _ := newMockStore(t, 10)
		partial, _ := testutil.RawFrame(t, testutil.Constituents(3, 2)).Project([]string{"Exchange", "Symbol"})
		mock.ExpectQuery(count).WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

		_, err := s.SeedRaw(context.Background(), sourceOf(partial))
		assert.Equal(t, errors.ErrTypeValidation, errors.TypeOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed batch rolls back", func(t *testing.T) {
		s, mock, _ := newMockStore(t, 10)
		frame := testutil.RawFrame(t, testutil.Constituents(4, 1))

		mock.ExpectQuery(count).WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectExec(domain.InsertSQL(domain.RawTable, domain.RawColumns, 1)).
			WithArgs(anyArgs(width)...).
			WillReturnError(&mysql.MySQLError{Number: 1406, Message: "Data too long for column 'Symbol'"})
		mock.ExpectRollback()

		_, err := s.SeedRaw(context.Background(), sourceOf(frame))
		assert.Equal(t, errors.ErrTypeStorage, errors.TypeOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReadRaw(t *testing.T) {
	s, mock, _ := newMockStore(t, 10)

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("Exchange").OfType("VARCHAR", ""),
		sqlmock.NewColumn("Marketcap").OfType("BIGINT", int64(0)),
		sqlmock.NewColumn("Weight").OfType("FLOAT", float64(0)),
	).
		AddRow([]byte("NYSE"), []byte("3000000"), []byte("0.0625")).
		AddRow([]byte("NMS"), nil, nil)
	mock.ExpectQuery("SELECT * FROM `SP500`").WillReturnRows(rows)

	frame, err := s.ReadRaw(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []dataset.Column{
		{Name: "Exchange", Kind: dataset.KindString},
		{Name: "Marketcap", Kind: dataset.KindInt},
		{Name: "Weight", Kind: dataset.KindFloat},
	}, frame.Columns())
	assert.Equal(t, []any{"NYSE", int64(3000000), 0.0625}, frame.Row(0))
	assert.Equal(t, []any{"NMS", nil, nil}, frame.Row(1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadRaw_TypedDriverValues(t *testing.T) {
	s, mock, _ := newMockStore(t, 10)

	// The MySQL driver returns FLOAT as float32 and BIGINT as int64
	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("Currentprice").OfType("FLOAT", float32(0)),
		sqlmock.NewColumn("Revenuegrowth").OfType("FLOAT", float32(0)),
		sqlmock.NewColumn("Fulltimeemployees").OfType("BIGINT", int64(0)),
	).AddRow(float32(254.49), float32(0.08), int64(161000))
	mock.ExpectQuery("SELECT * FROM `SP500`").WillReturnRows(rows)

	frame, err := s.ReadRaw(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []any{254.49, 0.08, int64(161000)}, frame.Row(0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadRaw_ConnectionDropped(t *testing.T) {
	s, mock, _ := newMockStore(t, 10)
	mock.ExpectQuery("SELECT * FROM `SP500`").WillReturnError(mysql.ErrInvalidConn)

	_, err := s.ReadRaw(context.Background())
	assert.ErrorIs(t, err, errors.ErrConnectivity)
}

func TestKindOfDatabaseType(t *testing.T) {
	tests := []struct {
		name string
		want dataset.Kind
	}{
		{"FLOAT", dataset.KindFloat},
		{"DOUBLE", dataset.KindFloat},
		{"DECIMAL", dataset.KindFloat},
		{"BIGINT", dataset.KindInt},
		{"INT", dataset.KindInt},
		{"TINYINT", dataset.KindInt},
		{"VARCHAR", dataset.KindString},
		{"TEXT", dataset.KindString},
		{"", dataset.KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kindOfDatabaseType(tt.name))
		})
	}
}

func TestParseStoreValue(t *testing.T) {
	v, err := parseStoreValue([]byte("0012"), dataset.KindInt)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	v, err = parseStoreValue(float64(1.5), dataset.KindFloat)
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = parseStoreValue(float32(0.08), dataset.KindFloat)
	require.NoError(t, err)
	assert.Equal(t, 0.08, v)

	_, err = parseStoreValue([]byte("n/a"), dataset.KindFloat)
	assert.Error(t, err)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   domain.ColumnType
		want  any
	}{
		{"nil is null", nil, domain.ColumnFloat, nil},
		{"NaN is null", math.NaN(), domain.ColumnFloat, nil},
		{"int widened to float", int64(3), domain.ColumnFloat, float64(3)},
		{"float truncated to bigint", float64(42), domain.ColumnBigInt, int64(42)},
		{"number rendered as string", int64(7), domain.ColumnString, "7"},
		{"string kept", "NYSE", domain.ColumnString, "NYSE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := coerce("Unknown", domain.ColumnBigInt)
	assert.Error(t, err)
}
