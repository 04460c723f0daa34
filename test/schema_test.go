package test

import (
	"context"
	"time"

	gymstatsmcp "github.com/2beens/gymfatigue/internal/gymstats/mcp"

	"github.com/jackc/pgx/v5/pgxpool"
)

func (s *IntegrationTestSuite) TestSetLogSchema() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, s.pgDSN)
	s.Require().NoError(err)
	defer pool.Close()

	schema, err := gymstatsmcp.NewPoolSchemaRepo(pool).SetLogSchema(ctx)
	s.Require().NoError(err)
	s.Equal("exercise_set", schema.Table)
	s.GreaterOrEqual(schema.EstimatedRows, int64(0))

	columns := make(map[string]gymstatsmcp.SchemaColumn)
	for _, c := range schema.Columns {
		columns[c.Name] = c
	}
	s.Require().Contains(columns, "rpe")
	s.Equal("double precision", columns["rpe"].DataType)
	s.False(columns["rpe"].Nullable)
	s.Equal("0", columns["rpe"].Default)
	s.Require().Contains(columns, "rir")
	s.True(columns["rir"].Nullable)
	s.Empty(columns["rir"].Default)

	indexes := make([]string, 0, len(schema.Indexes))
	for _, idx := range schema.Indexes {
		indexes = append(indexes, idx.Name)
	}
	s.Contains(indexes, "ix_exercise_set_user_created_at")
	s.Contains(indexes, "ix_exercise_set_user_exercise")
}
