// Package crud provides a generic data-access layer that turns declarative
// filter and sort options into SQL over a single table.
//
// A Builder never owns its connection: callers hand it a *sqlx.DB or *sqlx.Tx
// and keep responsibility for its lifecycle. Each mutation is a single
// statement, so it commits on its own unless the caller supplied a transaction.
package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

// Schema describes the table a Builder operates on.
type Schema struct {
	Table      string
	PrimaryKey string
	// Columns is the select list; it must match the db tags of the record type.
	Columns []string
	// Fields maps the public field names accepted in filters and sorts to columns.
	Fields map[string]string
	// UpdatedAt, when set, is stamped with NOW() on every update.
	UpdatedAt string
}

// Values maps column names to the values written by Create and Update.
type Values = map[string]interface{}

// Payload is a validated set of column values. Implementations carry
// go-playground/validator struct tags describing their constraints.
type Payload interface {
	Values() Values
}

// Observer receives the duration of every executed query, labelled "<table>.<op>".
type Observer func(label string, duration time.Duration)

// Option customises a Builder.
type Option func(*options)

type options struct {
	validate *validator.Validate
	observe  Observer
}

// WithValidator sets the validator used for payloads.
func WithValidator(v *validator.Validate) Option {
	return func(o *options) { o.validate = v }
}

// WithObserver registers a query timing callback.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observe = fn }
}

// Builder executes filtered, sorted and paginated queries for records of type T.
type Builder[T any] struct {
	db         sqlx.ExtContext
	schema     Schema
	selectList string
	writable   map[string]struct{}
	validate   *validator.Validate
	observe    Observer
}

// New returns a Builder for schema executing against db.
func New[T any](db sqlx.ExtContext, schema Schema, opts ...Option) *Builder[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.validate == nil {
		o.validate = NewValidator()
	}

	writable := make(map[string]struct{}, len(schema.Columns))
	for _, col := range schema.Columns {
		if col != schema.PrimaryKey {
			writable[col] = struct{}{}
		}
	}

	return &Builder[T]{
		db:         db,
		schema:     schema,
		selectList: strings.Join(schema.Columns, ", "),
		writable:   writable,
		validate:   o.validate,
		observe:    o.observe,
	}
}

// WithDB returns a copy of the builder bound to another connection or transaction.
func (b *Builder[T]) WithDB(db sqlx.ExtContext) *Builder[T] {
	clone := *b
	clone.db = db
	return &clone
}

// Get returns the first record matching filters, or nil when nothing matches.
func (b *Builder[T]) Get(ctx context.Context, filters Filters) (*T, error) {
	where, args, err := b.schema.whereClause(filters, nil)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s LIMIT 1", b.selectList, b.schema.Table, where)

	var rec T
	err = b.run("get", func() error { return sqlx.GetContext(ctx, b.db, &rec, query, args...) })
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", b.schema.Table, err)
	}
	return &rec, nil
}

// GetByKey returns the record with primary key id, or nil when absent.
func (b *Builder[T]) GetByKey(ctx context.Context, id interface{}) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 LIMIT 1", b.selectList, b.schema.Table, b.schema.PrimaryKey)

	var rec T
	err := b.run("get_by_key", func() error { return sqlx.GetContext(ctx, b.db, &rec, query, id) })
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s by key: %w", b.schema.Table, err)
	}
	return &rec, nil
}

// List returns every record matching filters in the requested order.
func (b *Builder[T]) List(ctx context.Context, filters Filters, orders Sort) ([]T, error) {
	where, args, err := b.schema.whereClause(filters, nil)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s%s", b.selectList, b.schema.Table, where, b.schema.orderClause(orders))

	items := []T{}
	if err := b.run("list", func() error { return sqlx.SelectContext(ctx, b.db, &items, query, args...) }); err != nil {
		return nil, fmt.Errorf("list %s: %w", b.schema.Table, err)
	}
	return items, nil
}

// Count returns the number of records matching filters.
func (b *Builder[T]) Count(ctx context.Context, filters Filters) (int, error) {
	where, args, err := b.schema.whereClause(filters, nil)
	if err != nil {
		return 0, err
	}
	return b.count(ctx, where, args)
}

// Page returns the slice [offset, offset+limit) of the filtered, sorted records
// together with the filtered total. limit must be positive and offset a
// non-negative multiple of limit so that page_no names a whole page.
func (b *Builder[T]) Page(ctx context.Context, offset, limit int, orders Sort, filters Filters) (*Page[T], error) {
	if limit <= 0 {
		return nil, appErrors.InvalidArgument("limit must be greater than zero")
	}
	if offset < 0 {
		return nil, appErrors.InvalidArgument("offset must not be negative")
	}
	if offset%limit != 0 {
		return nil, appErrors.InvalidArgument(fmt.Sprintf("offset %d is not a multiple of limit %d", offset, limit))
	}

	where, args, err := b.schema.whereClause(filters, nil)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.selectList, b.schema.Table, where, b.schema.orderClause(orders), limit, offset)

	items := []T{}
	if err := b.run("page", func() error { return sqlx.SelectContext(ctx, b.db, &items, query, args...) }); err != nil {
		return nil, fmt.Errorf("page %s: %w", b.schema.Table, err)
	}

	total, err := b.count(ctx, where, args)
	if err != nil {
		return nil, err
	}

	return NewPage(items, total, offset, limit), nil
}

// Create validates payload, inserts it and returns the stored record including
// server-assigned columns.
func (b *Builder[T]) Create(ctx context.Context, payload Payload) (*T, error) {
	if err := b.check(payload, "invalid create payload"); err != nil {
		return nil, err
	}

	cols, args, err := b.columns(payload.Values())
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, appErrors.InvalidArgument("create payload has no values")
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		b.schema.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), b.selectList)

	var rec T
	if err := b.run("create", func() error { return sqlx.GetContext(ctx, b.db, &rec, query, args...) }); err != nil {
		return nil, fmt.Errorf("create %s: %w", b.schema.Table, err)
	}
	return &rec, nil
}

// Update applies the values present in payload to the record with primary key id.
// Columns absent from the payload are left untouched.
func (b *Builder[T]) Update(ctx context.Context, id interface{}, payload Payload) (*T, error) {
	if err := b.check(payload, "invalid update payload"); err != nil {
		return nil, err
	}

	current, err := b.GetByKey(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, b.notFound(id)
	}

	cols, args, err := b.columns(payload.Values())
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return current, nil
	}

	sets := make([]string, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
	}
	if b.schema.UpdatedAt != "" && !contains(cols, b.schema.UpdatedAt) {
		sets = append(sets, b.schema.UpdatedAt+" = NOW()")
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		b.schema.Table, strings.Join(sets, ", "), b.schema.PrimaryKey, len(args), b.selectList)

	var rec T
	if err := b.run("update", func() error { return sqlx.GetContext(ctx, b.db, &rec, query, args...) }); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, b.notFound(id)
		}
		return nil, fmt.Errorf("update %s: %w", b.schema.Table, err)
	}
	return &rec, nil
}

// Delete removes the record with primary key id and returns a confirmation message.
func (b *Builder[T]) Delete(ctx context.Context, id interface{}) (string, error) {
	current, err := b.GetByKey(ctx, id)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", b.notFound(id)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", b.schema.Table, b.schema.PrimaryKey)
	var res sql.Result
	err = b.run("delete", func() error {
		var execErr error
		res, execErr = b.db.ExecContext(ctx, query, id)
		return execErr
	})
	if err != nil {
		return "", fmt.Errorf("delete %s: %w", b.schema.Table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", b.notFound(id)
	}
	return fmt.Sprintf("%v deleted", id), nil
}

func (b *Builder[T]) count(ctx context.Context, where string, args []interface{}) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.schema.Table, where)
	var total int
	if err := b.run("count", func() error { return sqlx.GetContext(ctx, b.db, &total, query, args...) }); err != nil {
		return 0, fmt.Errorf("count %s: %w", b.schema.Table, err)
	}
	return total, nil
}

func (b *Builder[T]) check(payload Payload, message string) error {
	if payload == nil {
		return appErrors.InvalidArgument("payload is required")
	}
	if err := b.validate.Struct(payload); err != nil {
		return ValidationError(err, message)
	}
	return nil
}

// columns returns the payload columns in name order with their values.
func (b *Builder[T]) columns(values Values) ([]string, []interface{}, error) {
	cols := make([]string, 0, len(values))
	for col := range values {
		if _, ok := b.writable[col]; !ok {
			return nil, nil, appErrors.InvalidArgument(fmt.Sprintf("column %q is not writable on %s", col, b.schema.Table))
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]interface{}, len(cols))
	for i, col := range cols {
		args[i] = values[col]
	}
	return cols, args, nil
}

func (b *Builder[T]) notFound(id interface{}) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %v not found", b.schema.Table, id))
}

func (b *Builder[T]) run(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if b.observe != nil {
		b.observe(b.schema.Table+"."+op, time.Since(start))
	}
	return err
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
