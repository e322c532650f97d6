package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"marketpipe/internal/config"
	"marketpipe/internal/errors"
	"marketpipe/internal/infrastructure"
)

// Store is the single shared handle to the relational store for one run
type Store struct {
	db        *sql.DB
	batchSize int
	logger    *slog.Logger
}

// DSN renders the go-sql-driver DSN for the database section
func DSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Host + ":" + strconv.Itoa(cfg.Port)
	mc.DBName = cfg.Name
	mc.Timeout = cfg.ConnectTimeout
	return mc.FormatDSN()
}

// Open creates the handle. No connection is made until the first operation.
func Open(cfg config.DatabaseConfig, batchSize int, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, errors.NewConfigError("invalid database configuration", err)
	}
	return New(db, batchSize, logger), nil
}

// New wraps an existing *sql.DB. The pool is capped at one connection.
func New(db *sql.DB, batchSize int, logger *slog.Logger) *Store {
	if batchSize < 1 {
		batchSize = config.DefaultBatchSize
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Store{
		db:        db,
		batchSize: batchSize,
		logger:    infrastructure.WithComponent(logger, "store"),
	}
}

// DB exposes the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the store is reachable
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return errors.NewConnectivityError("ping failed", err)
	}
	return nil
}

func (s *Store) conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, errors.NewConnectivityError("failed to acquire connection", err)
	}
	return conn, nil
}

// classify maps a driver failure onto the error taxonomy. Server-side errors
// (the statement reached MySQL) are storage errors; anything else means the
// store could not be reached.
func classify(err error, msg string) error {
	var mysqlErr *mysql.MySQLError
	if stderrors.As(err, &mysqlErr) {
		return errors.NewStorageError(msg, err).
			WithContext("code", mysqlErr.Number)
	}
	return errors.NewConnectivityError(msg, err)
}

// insertBatches writes rows with one multi-row INSERT per batch
func (s *Store) insertBatches(ctx context.Context, tx *sql.Tx, table string, rows [][]any, render func(n int) string) error {
	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))
		batch := rows[start:end]

		args := make([]any, 0, len(batch)*len(batch[0]))
		for _, row := range batch {
			args = append(args, row...)
		}
		if _, err := tx.ExecContext(ctx, render(len(batch)), args...); err != nil {
			return classify(err, fmt.Sprintf("insert into %s failed at row %d", table, start))
		}
		s.logger.DebugContext(ctx, "batch_inserted",
			slog.String("table", table),
			slog.Int("from", start),
			slog.Int("rows", len(batch)))
	}
	return nil
}
