package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const DefaultOrderRowsQuery = `
        SELECT
            order_id AS "Order ID", darkstore_name AS "Darkstore Name", brand_name AS "Brand Name",
            created_at AS "Created At", import_at AS "Import At", assigned_at AS "Assigned At",
            confirmed_at AS "Confirmed At", printed_at AS "Printed At", manifest_at AS "Manifest At"
        FROM order_lifecycle
        ORDER BY created_at`

// rowTimeLayout matches the primary layout of the timestamp parser.
const rowTimeLayout = "1/2/2006 3:04:05 PM"

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type OrderRowRepository struct {
	pool     querier
	query    string
	location *time.Location
}

// NewOrderRowRepository reads rows with query, or DefaultOrderRowsQuery when
// empty. Timestamps are rendered in loc so they parse back to the same instant.
func NewOrderRowRepository(pool *pgxpool.Pool, query string, loc *time.Location) *OrderRowRepository {
	return newOrderRowRepository(pool, query, loc)
}

func newOrderRowRepository(pool querier, query string, loc *time.Location) *OrderRowRepository {
	if query == "" {
		query = DefaultOrderRowsQuery
	}
	if loc == nil {
		loc = time.Local
	}
	return &OrderRowRepository{pool: pool, query: query, location: loc}
}

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

func (r *OrderRowRepository) Rows(ctx context.Context) ([]string, [][]string, error) {
	rows, err := r.pool.Query(ctx, r.query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	headers := make([]string, len(fields))
	for i, fd := range fields {
		headers[i] = fd.Name
	}

	var records [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = r.formatValue(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return headers, records, nil
}

func (r *OrderRowRepository) formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.In(r.location).Format(rowTimeLayout)
	default:
		return fmt.Sprint(x)
	}
}
