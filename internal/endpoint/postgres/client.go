// Package postgres implements the endpoint client contract over a
// PostgreSQL endpoint using sqlx on the pgx stdlib driver.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx via database/sql
	"github.com/jmoiron/sqlx"

	"github.com/wayfarerhq/datacore/internal/endpoint"
)

// Client is a long-lived client for one PostgreSQL endpoint.
type Client struct {
	db *sqlx.DB
}

var _ endpoint.Client = (*Client)(nil)

// NewClient opens a connection pool for the endpoint. The API key is
// applied as the connection password when the URL does not carry one.
func NewClient(rawURL, apiKey string, maxConns int) (*Client, error) {
	dsn, err := buildDSN(rawURL, apiKey)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open endpoint: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	return &Client{db: db}, nil
}

func buildDSN(rawURL, apiKey string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint url: %w", err)
	}
	if u.User != nil {
		if _, hasPass := u.User.Password(); !hasPass && apiKey != "" {
			u.User = url.UserPassword(u.User.Username(), apiKey)
		}
	}
	return u.String(), nil
}

// Select fetches rows from a table.
func (c *Client) Select(ctx context.Context, table string, q endpoint.Query) ([]endpoint.Record, error) {
	query, args := buildSelect(table, q)
	return c.queryRecords(ctx, query, args...)
}

// Count returns the number of rows matching the filters.
func (c *Client) Count(ctx context.Context, table string, filters endpoint.Filter) (int64, error) {
	query, args := buildCount(table, filters)

	var count int64
	if err := c.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count on %s failed: %w", table, err)
	}
	return count, nil
}

// Insert adds one row and returns it.
func (c *Client) Insert(ctx context.Context, table string, data endpoint.Record) ([]endpoint.Record, error) {
	query, args := buildInsert(table, data)
	return c.queryRecords(ctx, query, args...)
}

// Update modifies matching rows and returns them.
func (c *Client) Update(ctx context.Context, table string, data endpoint.Record, filters endpoint.Filter) ([]endpoint.Record, error) {
	query, args := buildUpdate(table, data, filters)
	return c.queryRecords(ctx, query, args...)
}

// Delete removes matching rows and returns them.
func (c *Client) Delete(ctx context.Context, table string, filters endpoint.Filter) ([]endpoint.Record, error) {
	query, args := buildDelete(table, filters)
	return c.queryRecords(ctx, query, args...)
}

// Upsert inserts a row, updating it on conflict with the given columns.
func (c *Client) Upsert(ctx context.Context, table string, data endpoint.Record, conflictColumns []string) ([]endpoint.Record, error) {
	query, args := buildUpsert(table, data, conflictColumns)
	return c.queryRecords(ctx, query, args...)
}

// VectorSearch runs a cosine-similarity search on a pgvector column.
func (c *Client) VectorSearch(ctx context.Context, table, column string, vector []float32, limit int, threshold float64) ([]endpoint.Record, error) {
	query, args := buildVectorSearch(table, column, vector, limit, threshold)
	return c.queryRecords(ctx, query, args...)
}

// ExecSQL runs a raw statement and returns any rows it produces.
func (c *Client) ExecSQL(ctx context.Context, query string, args ...any) ([]endpoint.Record, error) {
	return c.queryRecords(ctx, query, args...)
}

// Probe runs the minimal health-check query.
func (c *Client) Probe(ctx context.Context) error {
	var one int
	if err := c.db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) queryRecords(ctx context.Context, query string, args ...any) ([]endpoint.Record, error) {
	rows, err := c.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]endpoint.Record, 0)
	for rows.Next() {
		rec := endpoint.Record{}
		if err := rows.MapScan(rec); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
