package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// ErrTableExists is returned by CreateTable when the table is already present.
// It is informational, not fatal.
var ErrTableExists = errors.New("table already exists")

// Column describes one column of a table schema in declaration order.
type Column struct {
	Name string
	Type string
}

// Cond is a single equality condition; multiple conditions are AND-joined.
// Conditions are always bound as parameters, never spliced into the statement.
type Cond struct {
	Column string
	Value  any
}

// Gateway is the sole point of contact with the SQLite database. Every write
// is staged in a transaction begun lazily on the first write and stays
// pending until Commit; Rollback or Close discards it. The gateway is not
// safe for concurrent writers.
type Gateway struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open creates the database file if needed and enables WAL and foreign keys.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Gateway, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// foreign_keys is per-connection, so the pool must stay at one.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	return &Gateway{db: db, logger: logger}, nil
}

// conn picks the open transaction when there is one, so reads observe staged
// writes, matching the single-connection behaviour callers rely on.
func (g *Gateway) conn() executor {
	if g.tx != nil {
		return g.tx
	}
	return g.db
}

// writer returns the pending transaction, beginning one if needed.
func (g *Gateway) writer(ctx context.Context) (executor, error) {
	if g.tx == nil {
		tx, err := g.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		g.tx = tx
	}
	return g.tx, nil
}

// CreateTable creates the named table. An existing table is reported with
// ErrTableExists and nothing changes.
func (g *Gateway) CreateTable(ctx context.Context, name string, columns []Column) error {
	rows, err := g.conn().QueryContext(ctx,
		"SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return fmt.Errorf("probe table %s: %w", name, err)
	}
	present := rows.Next()
	if err := rows.Close(); err != nil {
		return fmt.Errorf("probe table %s: %w", name, err)
	}
	if present {
		return fmt.Errorf("table %s: %w", name, ErrTableExists)
	}

	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, col.Name+" "+col.Type)
	}

	w, err := g.writer(ctx)
	if err != nil {
		return err
	}
	if _, err := w.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// Select runs a read-only statement with bound arguments and returns every
// matching row. When a transaction is open the read goes through it.
func (g *Gateway) Select(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := g.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("select columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// Insert stages rows into the table. When columns is nil, the table's own
// column list is used. With checkDuplicates set, every row is first probed
// for an exact match on all supplied columns; any hit aborts the whole call
// with a message naming the colliding row, and nothing from the call is
// staged.
func (g *Gateway) Insert(ctx context.Context, table string, rows [][]any, columns []string, checkDuplicates bool) error {
	if len(rows) == 0 {
		return nil
	}

	if columns == nil {
		var err error
		columns, err = g.tableColumns(ctx, table)
		if err != nil {
			return err
		}
	}
	if len(rows[0]) != len(columns) {
		return fmt.Errorf("insert %s: row has %d values for %d columns", table, len(rows[0]), len(columns))
	}

	if checkDuplicates {
		for _, row := range rows {
			eq := sq.Eq{}
			for i, col := range columns {
				eq[col] = row[i]
			}
			query, args, err := sq.Select("1").From(table).Where(eq).Limit(1).ToSql()
			if err != nil {
				return fmt.Errorf("build duplicate probe for %s: %w", table, err)
			}
			hits, err := g.Select(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("probe duplicates in %s: %w", table, err)
			}
			if len(hits) > 0 {
				return fmt.Errorf("insert %s: duplicate row %v", table, row)
			}
		}
	}

	w, err := g.writer(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		query, args, err := sq.Insert(table).Columns(columns...).Values(row...).ToSql()
		if err != nil {
			return fmt.Errorf("build insert for %s: %w", table, err)
		}
		if _, err := w.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

// Update stages an update of the given columns on rows matching every
// condition, and reports how many rows were affected.
func (g *Gateway) Update(ctx context.Context, table string, set map[string]any, conds []Cond) (int64, error) {
	builder := sq.Update(table).SetMap(set)
	if len(conds) > 0 {
		builder = builder.Where(condExpr(conds))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update for %s: %w", table, err)
	}

	w, err := g.writer(ctx)
	if err != nil {
		return 0, err
	}
	res, err := w.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s rows affected: %w", table, err)
	}
	return affected, nil
}

// Delete stages the removal of rows matching every condition and reports how
// many rows were affected.
func (g *Gateway) Delete(ctx context.Context, table string, conds []Cond) (int64, error) {
	if len(conds) == 0 {
		return 0, fmt.Errorf("delete %s: refusing to delete without conditions", table)
	}
	query, args, err := sq.Delete(table).Where(condExpr(conds)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete for %s: %w", table, err)
	}

	w, err := g.writer(ctx)
	if err != nil {
		return 0, err
	}
	res, err := w.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete from %s rows affected: %w", table, err)
	}
	return affected, nil
}

// LoadCSV bulk-loads a CSV file whose header row names the target columns.
// The rows stay staged until Commit, like any other write.
func (g *Gateway) LoadCSV(ctx context.Context, table, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return 0, nil
	}

	header := records[0]
	rows := make([][]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]any, len(record))
		for i, field := range record {
			row[i] = field
		}
		rows = append(rows, row)
	}

	if err := g.Insert(ctx, table, rows, header, false); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Commit makes the pending transaction permanent. Without pending work it is
// a no-op.
func (g *Gateway) Commit() error {
	if g.tx == nil {
		return nil
	}
	err := g.tx.Commit()
	g.tx = nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the pending transaction. Without pending work it is a
// no-op.
func (g *Gateway) Rollback() error {
	if g.tx == nil {
		return nil
	}
	err := g.tx.Rollback()
	g.tx = nil
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Close discards any uncommitted work and releases the connection. Commits
// are always explicit; teardown never commits on the caller's behalf.
func (g *Gateway) Close() error {
	if g.tx != nil {
		if err := g.tx.Rollback(); err != nil && g.logger != nil {
			g.logger.Warn("discard pending transaction", "error", err)
		}
		g.tx = nil
	}
	return g.db.Close()
}

func (g *Gateway) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := g.conn().QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, ctype      string
			dflt             any
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info for %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table info for %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", table)
	}
	return columns, nil
}

func condExpr(conds []Cond) sq.Sqlizer {
	and := make(sq.And, 0, len(conds))
	for _, c := range conds {
		and = append(and, sq.Eq{c.Column: c.Value})
	}
	return and
}
