package warehouse

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	model "github.com/okian/salesboard/internal/domain/model"
)

// ClickHouse runs statements over the native protocol with named parameters.
type ClickHouse struct {
	conn driver.Conn
}

// OpenClickHouse parses dsn, connects and pings.
func OpenClickHouse(ctx context.Context, dsn string) (*ClickHouse, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w: %w", model.ErrDataSource, err)
	}
	return &ClickHouse{conn: conn}, nil
}

// Driver implements Querier.
func (c *ClickHouse) Driver() string { return DriverClickHouse }

// Bind implements Querier with @pN placeholders.
func (c *ClickHouse) Bind(i int, v any) (string, any) {
	name := "p" + strconv.Itoa(i)
	return "@" + name, clickhouse.Named(name, v)
}

// Query implements Querier. Values are scanned into the column scan types
// and reduced to scalars.
func (c *ClickHouse) Query(ctx context.Context, st Statement) ([]model.Row, error) {
	rows, err := c.conn.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	types := rows.ColumnTypes()
	names := make([]string, len(types))
	dbTypes := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name()
		dbTypes[i] = t.DatabaseTypeName()
	}

	var out []model.Row
	for rows.Next() {
		dest := make([]any, len(types))
		for i, t := range types {
			dest[i] = reflect.New(t.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("clickhouse scan: %w", err)
		}
		out = append(out, toRow(names, dbTypes, dest))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clickhouse rows: %w", err)
	}
	return out, nil
}

// Close implements Querier.
func (c *ClickHouse) Close() error { return c.conn.Close() }
