package database

import (
	"context"
	"fmt"

	"github.com/wayfarerhq/datacore/internal/endpoint"
)

type txOpKind string

const (
	txInsert txOpKind = "insert"
	txUpdate txOpKind = "update"
	txDelete txOpKind = "delete"
	txUpsert txOpKind = "upsert"
)

type txOp struct {
	kind     txOpKind
	table    string
	data     endpoint.Record
	filters  endpoint.Filter
	conflict []string
}

// Tx queues write operations and applies them sequentially against
// the primary on Commit, collecting each result in order.
//
// This is best-effort sequential application, not cross-statement
// atomicity: a failing step aborts the remaining steps but already
// applied steps are not undone.
type Tx struct {
	svc  *Service
	ops  []txOp
	done bool
}

// Begin opens a transaction bound to the primary.
func (s *Service) Begin() *Tx {
	return &Tx{svc: s}
}

// Insert queues an insert.
func (t *Tx) Insert(table string, data endpoint.Record) *Tx {
	t.ops = append(t.ops, txOp{kind: txInsert, table: table, data: data})
	return t
}

// Update queues an update.
func (t *Tx) Update(table string, data endpoint.Record, filters endpoint.Filter) *Tx {
	t.ops = append(t.ops, txOp{kind: txUpdate, table: table, data: data, filters: filters})
	return t
}

// Delete queues a delete.
func (t *Tx) Delete(table string, filters endpoint.Filter) *Tx {
	t.ops = append(t.ops, txOp{kind: txDelete, table: table, filters: filters})
	return t
}

// Upsert queues an upsert.
func (t *Tx) Upsert(table string, data endpoint.Record, conflictColumns []string) *Tx {
	t.ops = append(t.ops, txOp{kind: txUpsert, table: table, data: data, conflict: conflictColumns})
	return t
}

// Commit applies the queued operations in order on the primary and
// returns the per-step results. On a step failure the remaining steps
// are skipped and the error reports the failing step index.
func (t *Tx) Commit(ctx context.Context) ([][]endpoint.Record, error) {
	if t.done {
		return nil, &OperationError{Code: CodeTxAborted, Op: "commit", Err: fmt.Errorf("transaction already finished")}
	}
	t.done = true

	cl, err := t.svc.router.PrimaryClient()
	if err != nil {
		return nil, err
	}

	results := make([][]endpoint.Record, 0, len(t.ops))
	for i, op := range t.ops {
		var (
			recs []endpoint.Record
			err  error
		)
		switch op.kind {
		case txInsert:
			recs, err = cl.Insert(ctx, op.table, op.data)
		case txUpdate:
			recs, err = cl.Update(ctx, op.table, op.data, op.filters)
		case txDelete:
			recs, err = cl.Delete(ctx, op.table, op.filters)
		case txUpsert:
			recs, err = cl.Upsert(ctx, op.table, op.data, op.conflict)
		}
		if err != nil {
			return results, &OperationError{
				Code:  CodeTxAborted,
				Op:    string(op.kind),
				Table: op.table,
				Err:   fmt.Errorf("step %d of %d: %w", i+1, len(t.ops), err),
			}
		}
		results = append(results, recs)
	}
	return results, nil
}

// Rollback discards queued operations that have not been applied.
// Already committed steps are not undone.
func (t *Tx) Rollback() {
	t.done = true
	t.ops = nil
}
