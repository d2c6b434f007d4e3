package postgres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wayfarerhq/datacore/internal/endpoint"
)

// Statement builders are separated from execution so they can be
// verified without a live database. Map keys are sorted to keep the
// generated SQL deterministic.

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// whereClause renders equality filters as "WHERE a = $n AND b = $n+1".
// next is the first placeholder number to use.
func whereClause(filters endpoint.Filter, next int) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	var (
		conds []string
		args  []any
	)
	for _, k := range sortedKeys(filters) {
		conds = append(conds, fmt.Sprintf("%s = $%d", k, next))
		args = append(args, filters[k])
		next++
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildSelect(table string, q endpoint.Query) (string, []any) {
	cols := "*"
	if len(q.Columns) > 0 {
		cols = strings.Join(q.Columns, ", ")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", cols, table)
	where, args := whereClause(q.Filters, 1)
	sql += where

	if q.OrderBy != "" {
		sql += " ORDER BY " + q.OrderBy
		if q.Descending {
			sql += " DESC"
		}
	}
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", q.Offset)
	}
	return sql, args
}

func buildCount(table string, filters endpoint.Filter) (string, []any) {
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	where, args := whereClause(filters, 1)
	return sql + where, args
}

func buildInsert(table string, data endpoint.Record) (string, []any) {
	keys := sortedKeys(data)
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = data[k]
	}
	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(keys, ", "), strings.Join(placeholders, ", "),
	)
	return sql, args
}

func buildUpdate(table string, data endpoint.Record, filters endpoint.Filter) (string, []any) {
	keys := sortedKeys(data)
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+len(filters))
	for i, k := range keys {
		sets[i] = fmt.Sprintf("%s = $%d", k, i+1)
		args = append(args, data[k])
	}
	sql := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(sets, ", "))

	where, whereArgs := whereClause(filters, len(keys)+1)
	sql += where + " RETURNING *"
	args = append(args, whereArgs...)
	return sql, args
}

func buildDelete(table string, filters endpoint.Filter) (string, []any) {
	sql := fmt.Sprintf("DELETE FROM %s", table)
	where, args := whereClause(filters, 1)
	return sql + where + " RETURNING *", args
}

func buildUpsert(table string, data endpoint.Record, conflictColumns []string) (string, []any) {
	keys := sortedKeys(data)
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	updates := make([]string, 0, len(keys))

	conflict := make(map[string]bool, len(conflictColumns))
	for _, c := range conflictColumns {
		conflict[c] = true
	}

	for i, k := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = data[k]
		if !conflict[k] {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", k, k))
		}
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING *",
		table,
		strings.Join(keys, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(conflictColumns, ", "),
		strings.Join(updates, ", "),
	)
	return sql, args
}

func buildVectorSearch(table, column string, vector []float32, limit int, threshold float64) (string, []any) {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = fmt.Sprintf("%g", v)
	}
	vec := "[" + strings.Join(parts, ",") + "]"

	if limit <= 0 {
		limit = 10
	}

	// Cosine similarity via the pgvector distance operator.
	sql := fmt.Sprintf(
		"SELECT *, 1 - (%s <=> $1) AS similarity FROM %s WHERE 1 - (%s <=> $1) >= $2 ORDER BY %s <=> $1 LIMIT %d",
		column, table, column, column, limit,
	)
	return sql, []any{vec, threshold}
}
