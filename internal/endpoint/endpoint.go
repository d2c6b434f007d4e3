// Package endpoint defines the narrow client contract for a single
// database endpoint (primary or replica). The routing and database
// layers depend only on this interface; the postgres subpackage
// provides the production implementation.
package endpoint

import "context"

// Record is one row as a mapping of column name to value.
type Record = map[string]any

// Filter maps column names to required values (equality match).
type Filter = map[string]any

// Query describes the shape of a read against one table.
type Query struct {
	Columns    []string
	Filters    Filter
	OrderBy    string
	Descending bool
	Limit      int
	Offset     int
}

// Client is a table-style client for one endpoint. Implementations
// must be safe for concurrent use: one long-lived client is shared by
// all callers for the lifetime of the manager.
type Client interface {
	Select(ctx context.Context, table string, q Query) ([]Record, error)
	Count(ctx context.Context, table string, filters Filter) (int64, error)

	Insert(ctx context.Context, table string, data Record) ([]Record, error)
	Update(ctx context.Context, table string, data Record, filters Filter) ([]Record, error)
	Delete(ctx context.Context, table string, filters Filter) ([]Record, error)
	Upsert(ctx context.Context, table string, data Record, conflictColumns []string) ([]Record, error)

	// VectorSearch returns up to limit rows whose vector column is
	// within the similarity threshold of the query vector, most
	// similar first.
	VectorSearch(ctx context.Context, table, column string, vector []float32, limit int, threshold float64) ([]Record, error)

	// ExecSQL runs a raw statement on the administrative/analytics path.
	ExecSQL(ctx context.Context, query string, args ...any) ([]Record, error)

	// Probe runs a minimal fetch-at-most-one-row query used by health
	// checks. It must be cheap and respect the context deadline.
	Probe(ctx context.Context) error

	Close() error
}

// Factory constructs a client for one configured endpoint.
type Factory func(url, apiKey string, maxConns int) (Client, error)
