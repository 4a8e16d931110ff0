package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/snowflakedb/gosnowflake"
)

// Snowflake runs statements through database/sql with positional parameters.
type Snowflake struct {
	db *sql.DB
}

// OpenSnowflake validates dsn with the driver's parser, opens the pool and pings.
func OpenSnowflake(ctx context.Context, dsn string) (*Snowflake, error) {
	cfg, err := gosnowflake.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("snowflake dsn: %w", err)
	}
	if cfg.Warehouse == "" {
		return nil, errors.New("snowflake dsn: warehouse is required")
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("snowflake open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snowflake ping: %w: %w", model.ErrDataSource, err)
	}
	return &Snowflake{db: db}, nil
}

// Driver implements Querier.
func (s *Snowflake) Driver() string { return DriverSnowflake }

// Bind implements Querier.
func (s *Snowflake) Bind(i int, v any) (string, any) { return Positional(i, v) }

// Query implements Querier.
func (s *Snowflake) Query(ctx context.Context, st Statement) ([]model.Row, error) {
	rows, err := s.db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("snowflake query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("snowflake columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("snowflake column types: %w", err)
	}
	dbTypes := make([]string, len(types))
	for i, t := range types {
		dbTypes[i] = t.DatabaseTypeName()
	}

	var out []model.Row
	for rows.Next() {
		values := make([]any, len(names))
		dest := make([]any, len(names))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("snowflake scan: %w", err)
		}
		out = append(out, toRow(names, dbTypes, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snowflake rows: %w", err)
	}
	return out, nil
}

// Close implements Querier.
func (s *Snowflake) Close() error { return s.db.Close() }
