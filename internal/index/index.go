package index

import (
	"context"
	"time"
)

// PayloadIndex defines the interface for payload history operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type PayloadIndex interface {
	UpsertPayload(ctx context.Context, p PayloadRow) error
	GetPayload(ctx context.Context, id string) (*PayloadRow, error)
	ListPayloads(ctx context.Context, f ListFilter) ([]PayloadRow, int, error)
	RecordScan(ctx context.Context, id string, at time.Time) (bool, error)
	DeletePayload(ctx context.Context, id string) (*PayloadRow, error)
	Close() error
}

// Verify *DB satisfies PayloadIndex at compile time.
var _ PayloadIndex = (*DB)(nil)
