package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// BaseRepo provides the query plumbing shared by every repository.
// Embed it in specific repositories.
type BaseRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewBaseRepo creates a base repository bound to txManager.
func NewBaseRepo(txManager *TxManager) BaseRepo {
	return BaseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholder format.
func (r BaseRepo) Builder() squirrel.StatementBuilderType {
	return r.builder
}

// TxManager returns the transaction manager the repository runs on.
func (r BaseRepo) TxManager() *TxManager {
	return r.txManager
}

// Querier returns the transaction in ctx, or the pool.
func (r BaseRepo) Querier(ctx context.Context) Querier {
	return r.txManager.GetQuerier(ctx)
}

// InsertStruct inserts entity into table, writing only the given columns.
func (r BaseRepo) InsertStruct(ctx context.Context, table string, columns []string, entity any) error {
	data := StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %T", entity)
	}

	filtered := make(map[string]any, len(columns))
	for _, col := range columns {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder.Insert(table).SetMap(filtered).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Exec runs a built statement and returns the number of affected rows.
func (r BaseRepo) Exec(ctx context.Context, q squirrel.Sqlizer) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Get scans exactly one row into dst. Use pgxscan.NotFound to test for absence.
func (r BaseRepo) Get(ctx context.Context, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Get(ctx, r.Querier(ctx), dst, sql, args...)
}

// Select scans all rows into dst.
func (r BaseRepo) Select(ctx context.Context, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, r.Querier(ctx), dst, sql, args...)
}

// Qualify prefixes every column with alias.
func Qualify(alias string, columns []string) []string {
	out := slices.Clone(columns)
	for i, c := range out {
		out[i] = alias + "." + c
	}
	return out
}

// Without returns columns minus the excluded names.
func Without(columns []string, excluded ...string) []string {
	return slices.DeleteFunc(slices.Clone(columns), func(c string) bool {
		return slices.Contains(excluded, c)
	})
}
