package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/eosprofile/internal/retry"
)

// Execer is an interface that matches both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table represents a generic database table wrapper for type T.
type Table[T any] struct {
	db              Execer
	tableName       string
	columns         []string
	pkColumns       []string
	immutableFields map[string]bool // Kept from the first insert.
	fieldMap        map[string]int
	logger          zerolog.Logger
}

// NewTable creates a new Table[T] instance.
// T must be a struct with `duckdb:"column[,pk][,immutable]"` tags.
func NewTable[T any](db Execer, tableName string) *Table[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		panic("Table generic type T must be a struct")
	}

	table := &Table[T]{
		db:              db,
		tableName:       tableName,
		immutableFields: make(map[string]bool),
		fieldMap:        make(map[string]int),
		logger:          zerolog.Nop(),
	}

	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("duckdb")
		if tag == "" || tag == "-" {
			continue
		}

		parts := strings.Split(tag, ",")
		col := strings.TrimSpace(parts[0])
		table.columns = append(table.columns, col)
		table.fieldMap[col] = i

		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "pk":
				table.pkColumns = append(table.pkColumns, col)
			case "immutable":
				table.immutableFields[col] = true
			}
		}
	}

	return table
}

// WithLogger sets the logger used for query tracing.
func (t *Table[T]) WithLogger(logger zerolog.Logger) *Table[T] {
	t.logger = logger
	return t
}

// Name returns the table name.
func (t *Table[T]) Name() string {
	return t.tableName
}

// Columns returns the mapped column names in struct order.
func (t *Table[T]) Columns() []string {
	return slices.Clone(t.columns)
}

// convertFieldValue converts a Go value to a DuckDB-compatible parameter.
func convertFieldValue(v any) any {
	switch val := v.(type) {
	case Int64List:
		return Int64ArrayToString(val)
	case []int64:
		return Int64ArrayToString(val)
	default:
		return v
	}
}

func (t *Table[T]) values(item *T) []any {
	val := reflect.ValueOf(item).Elem()
	values := make([]any, len(t.columns))
	for i, col := range t.columns {
		values[i] = convertFieldValue(val.Field(t.fieldMap[col]).Interface())
	}
	return values
}

func (t *Table[T]) upsertQuery() string {
	placeholders := make([]string, len(t.columns))
	updates := make([]string, 0, len(t.columns))

	for i, col := range t.columns {
		placeholders[i] = "?"
		if !slices.Contains(t.pkColumns, col) && !t.immutableFields[col] {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}

	// #nosec G201 - table and column names come from struct tags, not user input.
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.tableName,
		strings.Join(t.columns, ", "),
		strings.Join(placeholders, ", "),
	)

	if len(t.pkColumns) > 0 {
		action := "DO NOTHING"
		if len(updates) > 0 {
			action = "DO UPDATE SET " + strings.Join(updates, ", ")
		}
		query += fmt.Sprintf(" ON CONFLICT (%s) %s", strings.Join(t.pkColumns, ", "), action)
	}

	return query
}

// Upsert inserts or updates a single item.
func (t *Table[T]) Upsert(ctx context.Context, item *T) error {
	query := t.upsertQuery()
	values := t.values(item)

	t.logger.Trace().Str("query", InterpolateQuery(query, values)).Msg("Upsert")

	return retry.Do(ctx, retry.WriteConflict, func() error {
		_, err := t.db.ExecContext(ctx, query, values...)
		return err
	}, IsTransactionConflict)
}

// BatchUpsert writes items through one prepared statement inside a
// transaction. When the table was created on a *sql.DB the whole
// transaction is retried on write conflicts. On a *sql.Tx the caller owns
// commit and retry.
func (t *Table[T]) BatchUpsert(ctx context.Context, items []*T) error {
	if len(items) == 0 {
		return nil
	}

	query := t.upsertQuery()
	t.logger.Debug().
		Str("table", t.tableName).
		Int("rows", len(items)).
		Str("first", InterpolateQuery(query, t.values(items[0]))).
		Msg("Batch upsert")

	switch d := t.db.(type) {
	case *sql.Tx:
		return t.execBatch(ctx, d, query, items)
	case *sql.DB:
		return retry.Do(ctx, retry.WriteConflict, func() (err error) {
			tx, err := d.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin tx: %w", err)
			}
			defer func() {
				if err != nil {
					_ = tx.Rollback()
				}
			}()

			if err = t.execBatch(ctx, tx, query, items); err != nil {
				return err
			}
			if err = tx.Commit(); err != nil {
				return fmt.Errorf("commit: %w", err)
			}
			return nil
		}, IsTransactionConflict)
	default:
		return fmt.Errorf("unsupported Execer type for BatchUpsert: %T", t.db)
	}
}

func (t *Table[T]) execBatch(ctx context.Context, tx *sql.Tx, query string, items []*T) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, t.values(item)...); err != nil {
			return fmt.Errorf("batch exec %s: %w", t.tableName, err)
		}
	}
	return nil
}

// Get retrieves a single item by its primary key. Composite keys take one
// value per pk column, in tag order.
func (t *Table[T]) Get(ctx context.Context, key ...any) (*T, error) {
	if len(t.pkColumns) == 0 {
		return nil, errors.New("no primary key defined for table")
	}
	if len(key) != len(t.pkColumns) {
		return nil, fmt.Errorf("table %s: expected %d key values, got %d", t.tableName, len(t.pkColumns), len(key))
	}

	where := make([]string, len(t.pkColumns))
	for i, pk := range t.pkColumns {
		where[i] = pk + " = ?"
	}

	// #nosec G201 - table and column names come from struct tags, not user input.
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(t.columns, ", "),
		t.tableName,
		strings.Join(where, " AND "),
	)

	return t.scan(t.db.QueryRowContext(ctx, query, key...))
}

// List retrieves all items matching the "column = value" filters, ordered
// by primary key.
func (t *Table[T]) List(ctx context.Context, filters map[string]any) ([]*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.columns, ", "), t.tableName)
	var args []any

	if len(filters) > 0 {
		cols := make([]string, 0, len(filters))
		for col := range filters {
			if _, ok := t.fieldMap[col]; !ok {
				return nil, fmt.Errorf("column %s does not exist in table %s", col, t.tableName)
			}
			cols = append(cols, col)
		}
		slices.Sort(cols)

		clauses := make([]string, len(cols))
		for i, col := range cols {
			clauses[i] = col + " = ?"
			args = append(args, filters[col])
		}
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	if len(t.pkColumns) > 0 {
		query += " ORDER BY " + strings.Join(t.pkColumns, ", ")
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []*T
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (t *Table[T]) scan(row scanner) (*T, error) {
	var item T
	val := reflect.ValueOf(&item).Elem()
	dest := make([]any, len(t.columns))

	for i, col := range t.columns {
		dest[i] = val.Field(t.fieldMap[col]).Addr().Interface()
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &item, nil
}

// IsTransactionConflict reports whether err is a DuckDB write conflict worth
// retrying.
func IsTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "conflict") ||
		strings.Contains(msg, "serialization") ||
		strings.Contains(msg, "TransactionContext Error") ||
		(strings.Contains(msg, "PRIMARY KEY") && strings.Contains(msg, "constraint violated"))
}
