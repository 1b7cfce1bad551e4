package store

import (
	"context"

	"github.com/pashagolub/pgxmock/v4"
)

// NewMockContext places the mock where conn() looks for an active
// transaction, so store methods run against the mock instead of a pool.
// Tests in higher layers use it to drive services through a mocked store.
func NewMockContext(mock pgxmock.PgxPoolIface) context.Context {
	return context.WithValue(context.Background(), txKey{}, mock)
}
