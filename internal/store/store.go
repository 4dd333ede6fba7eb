package store

import (
	"context"
	"errors"

	"github.com/nhle/casewatch/internal/model"
)

// ErrNotFound is returned by GetValue when the key has never been written.
var ErrNotFound = errors.New("not found")

// Store defines the local persistence interface: an opaque key/value area
// for client-side state (such as the seen-notification set) and a log of
// derivation cycles.
type Store interface {
	// === Settings ===

	GetValue(ctx context.Context, key string) ([]byte, error)
	PutValue(ctx context.Context, key string, value []byte) error

	// === Cycle log ===

	RecordCycle(ctx context.Context, rec model.CycleRecord) error
	RecentCycles(ctx context.Context, limit int) ([]model.CycleRecord, error)
}
