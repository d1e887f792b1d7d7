package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Allocator hands out the next unused primary key for a table.
//
// NextID is a plain max+1 read with no locking: two concurrent ingestion
// runs against the same database would allocate the same identifier.
// Callers serialize runs (single-writer usage).
type Allocator struct {
	gw *Gateway
}

// NewAllocator wires the allocator onto an open gateway.
func NewAllocator(gw *Gateway) *Allocator {
	return &Allocator{gw: gw}
}

// NextID returns max(column)+1 over the table, or 1 when it is empty.
func (a *Allocator) NextID(ctx context.Context, table, column string) (int64, error) {
	query, args, err := sq.Select(fmt.Sprintf("COALESCE(MAX(%s), 0) + 1", column)).From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build allocator query for %s: %w", table, err)
	}

	rows, err := a.gw.Select(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("allocate id for %s: %w", table, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 1, nil
	}

	id, ok := rows[0][0].(int64)
	if !ok {
		return 0, fmt.Errorf("allocate id for %s: unexpected value %v", table, rows[0][0])
	}
	return id, nil
}
