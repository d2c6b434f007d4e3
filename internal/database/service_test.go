package database

import (
	"context"
	"errors"
	"testing"

	"github.com/wayfarerhq/datacore/internal/core/config"
	"github.com/wayfarerhq/datacore/internal/core/domain"
	"github.com/wayfarerhq/datacore/internal/endpoint"
)

// =============================================================================
// Mocks
// =============================================================================

type opCall struct {
	op    string
	table string
}

type mockEndpointClient struct {
	calls   []opCall
	failOp  string
	failErr error
}

func (c *mockEndpointClient) fail(op string) error {
	if c.failOp == op {
		return c.failErr
	}
	return nil
}

func (c *mockEndpointClient) Select(ctx context.Context, table string, q endpoint.Query) ([]endpoint.Record, error) {
	c.calls = append(c.calls, opCall{"select", table})
	return []endpoint.Record{{"table": table}}, c.fail("select")
}
func (c *mockEndpointClient) Count(ctx context.Context, table string, f endpoint.Filter) (int64, error) {
	c.calls = append(c.calls, opCall{"count", table})
	return 42, c.fail("count")
}
func (c *mockEndpointClient) Insert(ctx context.Context, table string, d endpoint.Record) ([]endpoint.Record, error) {
	c.calls = append(c.calls, opCall{"insert", table})
	return []endpoint.Record{d}, c.fail("insert")
}
func (c *mockEndpointClient) Update(ctx context.Context, table string, d endpoint.Record, f endpoint.Filter) ([]endpoint.Record, error) {
	c.calls = append(c.calls, opCall{"update", table})
	return []endpoint.Record{d}, c.fail("update")
}
func (c *mockEndpointClient) Delete(ctx context.Context, table string, f endpoint.Filter) ([]endpoint.Record, error) {
	c.calls = append(c.calls, opCall{"delete", table})
	return nil, c.fail("delete")
}
func (c *mockEndpointClient) Upsert(ctx context.Context, table string, d endpoint.Record, cols []string) ([]endpoint.Record, error) {
	c.calls = append(c.calls, opCall{"upsert", table})
	return []endpoint.Record{d}, c.fail("upsert")
}
func (c *mockEndpointClient) VectorSearch(ctx context.Context, table, col string, v []float32, l int, th float64) ([]endpoint.Record, error) {
	c.calls = append(c.calls, opCall{"vector_search", table})
	return nil, c.fail("vector_search")
}
func (c *mockEndpointClient) ExecSQL(ctx context.Context, q string, args ...any) ([]endpoint.Record, error) {
	c.calls = append(c.calls, opCall{"exec_sql", ""})
	return nil, c.fail("exec_sql")
}
func (c *mockEndpointClient) Probe(ctx context.Context) error { return nil }
func (c *mockEndpointClient) Close() error                    { return nil }

// mockRouter records which path each operation took.
type mockRouter struct {
	primary     *mockEndpointClient
	replica     *mockEndpointClient
	initialized bool
	closed      bool

	withConnTypes []domain.QueryType
	primaryCalls  int
}

func (r *mockRouter) Initialize(ctx context.Context) error { r.initialized = true; return nil }
func (r *mockRouter) Close() error                         { r.closed = true; return nil }
func (r *mockRouter) Health() map[string]domain.ReplicaHealth {
	return map[string]domain.ReplicaHealth{}
}
func (r *mockRouter) Configs() []domain.ReplicaConfig { return nil }

func (r *mockRouter) PrimaryClient() (endpoint.Client, error) {
	r.primaryCalls++
	return r.primary, nil
}

func (r *mockRouter) WithConn(ctx context.Context, qt domain.QueryType, region string, fn func(string, endpoint.Client) error) error {
	r.withConnTypes = append(r.withConnTypes, qt)
	return fn("replica-1", r.replica)
}

func newTestService() (*Service, *mockRouter) {
	router := &mockRouter{
		primary: &mockEndpointClient{},
		replica: &mockEndpointClient{},
	}
	cfg := config.DatabaseConfig{
		Primary: config.EndpointConfig{URL: "postgres://primary.db.local/app", APIKey: "key"},
	}
	return NewService(cfg, router, nil), router
}

// =============================================================================
// Connect validation
// =============================================================================

func TestConnect_ValidatesBeforeInitialize(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		apiKey string
	}{
		{"empty url", "", "key"},
		{"no scheme", "primary.db.local/app", "key"},
		{"whitespace key", "postgres://primary.db.local/app", "bad key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := &mockRouter{primary: &mockEndpointClient{}}
			svc := NewService(config.DatabaseConfig{
				Primary: config.EndpointConfig{URL: tt.url, APIKey: tt.apiKey},
			}, router, nil)

			err := svc.Connect(context.Background())
			var connErr *ConnectionError
			if !errors.As(err, &connErr) {
				t.Fatalf("Connect error = %v, want ConnectionError", err)
			}
			if connErr.Code != CodeBadConfig {
				t.Errorf("code = %s, want %s", connErr.Code, CodeBadConfig)
			}
			if router.initialized {
				t.Error("Initialize was called despite invalid config")
			}
		})
	}
}

func TestConnect_ValidConfigInitializes(t *testing.T) {
	svc, router := newTestService()
	if err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !router.initialized {
		t.Error("Initialize not called")
	}
}

// =============================================================================
// Routing contracts
// =============================================================================

func TestWrites_GoDirectlyToPrimary(t *testing.T) {
	svc, router := newTestService()
	ctx := context.Background()

	if _, err := svc.Insert(ctx, "trips", endpoint.Record{"name": "Kyoto"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := svc.Update(ctx, "trips", endpoint.Record{"name": "Osaka"}, endpoint.Filter{"id": 1}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := svc.Delete(ctx, "trips", endpoint.Filter{"id": 1}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Upsert(ctx, "trips", endpoint.Record{"id": 1}, []string{"id"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if len(router.withConnTypes) != 0 {
		t.Errorf("writes acquired routed connections: %v", router.withConnTypes)
	}
	if len(router.primary.calls) != 4 {
		t.Errorf("primary saw %d calls, want 4", len(router.primary.calls))
	}
	if len(router.replica.calls) != 0 {
		t.Errorf("replica saw write calls: %v", router.replica.calls)
	}
}

func TestReads_RouteThroughManager(t *testing.T) {
	svc, router := newTestService()
	ctx := context.Background()

	if _, err := svc.Select(ctx, "trips", endpoint.Query{}, "eu-west"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if _, err := svc.Count(ctx, "trips", nil, ""); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if _, err := svc.VectorSearch(ctx, "places", "embedding", []float32{1}, 5, 0.5, ""); err != nil {
		t.Fatalf("VectorSearch failed: %v", err)
	}
	if _, err := svc.ExecSQL(ctx, "ANALYZE trips"); err != nil {
		t.Fatalf("ExecSQL failed: %v", err)
	}

	want := []domain.QueryType{
		domain.QueryRead,
		domain.QueryRead,
		domain.QueryVectorSearch,
		domain.QueryAnalytics,
	}
	if len(router.withConnTypes) != len(want) {
		t.Fatalf("routed %d queries, want %d", len(router.withConnTypes), len(want))
	}
	for i, qt := range want {
		if router.withConnTypes[i] != qt {
			t.Errorf("query %d routed as %s, want %s", i, router.withConnTypes[i], qt)
		}
	}
	if router.primaryCalls != 0 {
		t.Errorf("reads touched the primary path %d times", router.primaryCalls)
	}
}

func TestOperationError_CarriesTableAndCause(t *testing.T) {
	svc, router := newTestService()
	cause := errors.New("column does not exist")
	router.replica.failOp = "select"
	router.replica.failErr = cause

	_, err := svc.Select(context.Background(), "trips", endpoint.Query{}, "")

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("error = %v, want OperationError", err)
	}
	if opErr.Table != "trips" || opErr.Op != "select" {
		t.Errorf("op = %s table = %s", opErr.Op, opErr.Table)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
}
