package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const setLogTable = "exercise_set"

// SchemaRepo reads the live layout of the set log.
type SchemaRepo interface {
	SetLogSchema(ctx context.Context) (*SetLogSchema, error)
}

// SetLogSchema is what the database reports about the set log table.
// EstimatedRows comes from planner statistics and is 0 before the first
// ANALYZE.
type SetLogSchema struct {
	Table         string
	Columns       []SchemaColumn
	Indexes       []SchemaIndex
	EstimatedRows int64
}

type SchemaColumn struct {
	Name     string
	DataType string
	Nullable bool
	Default  string
}

type SchemaIndex struct {
	Name       string
	Definition string
}

type poolSchemaRepo struct {
	pool *pgxpool.Pool
}

func NewPoolSchemaRepo(pool *pgxpool.Pool) SchemaRepo {
	return &poolSchemaRepo{pool: pool}
}

func (r *poolSchemaRepo) SetLogSchema(ctx context.Context) (*SetLogSchema, error) {
	schema := &SetLogSchema{Table: setLogTable}

	rows, err := r.pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES', COALESCE(column_default, '')
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, setLogTable)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	schema.Columns, err = pgx.CollectRows(rows, pgx.RowToStructByPos[SchemaColumn])
	if err != nil {
		return nil, fmt.Errorf("collect columns: %w", err)
	}
	if len(schema.Columns) == 0 {
		return schema, nil
	}

	rows, err = r.pool.Query(ctx, `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = 'public' AND tablename = $1
		ORDER BY indexname`, setLogTable)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	schema.Indexes, err = pgx.CollectRows(rows, pgx.RowToStructByPos[SchemaIndex])
	if err != nil {
		return nil, fmt.Errorf("collect indexes: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT GREATEST(reltuples, 0)::bigint
		FROM pg_class
		WHERE oid = to_regclass('public.' || $1)`, setLogTable).Scan(&schema.EstimatedRows)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("estimate rows: %w", err)
	}

	return schema, nil
}
