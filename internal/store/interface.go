// Package store defines the persistence capability consumed by the engine:
// an append-only log of portfolio snapshots, position lifecycle events and
// per-market decisions. The only update-in-place is the OPEN -> CLOSED
// position transition, keyed by position id.
package store

import (
	"context"

	"polytrader/internal/model"
)

// Store is the durable sink for every engine state transition. Writes are
// at-least-once: a failed cycle write is retried implicitly by later cycles,
// so readers must tolerate duplicate cycle numbers.
type Store interface {
	// AppendPortfolioState persists one portfolio snapshot per cycle.
	AppendPortfolioState(ctx context.Context, state model.PortfolioState) error
	// AppendPosition records a newly opened position.
	AppendPosition(ctx context.Context, pos model.Position) error
	// ClosePosition updates the named position with its exit fields.
	ClosePosition(ctx context.Context, pos model.Position) error
	// AppendDecision records the audit row linking a decision to its snapshot.
	AppendDecision(ctx context.Context, rec model.CycleRecord) error

	// ListOpenPositions returns positions still marked OPEN.
	ListOpenPositions(ctx context.Context) ([]model.Position, error)
	// RecentDecisions returns the latest decision rows, newest first.
	RecentDecisions(ctx context.Context, limit int) ([]model.CycleRecord, error)

	Close() error
}
