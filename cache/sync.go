package cache

import (
	"context"

	"github.com/warp/kpi-tracker/model"
)

// Outcome is what a SyncProvider reports for a push.
type Outcome int

const (
	// Committed means every pushed entry is stored remotely.
	Committed Outcome = iota
	// RetryLater means nothing was stored; keep the queue and try again.
	RetryLater
)

func (o Outcome) String() string {
	if o == Committed {
		return "committed"
	}
	return "retry-later"
}

// SyncProvider sends pending entries to a remote system.
type SyncProvider interface {
	Push(ctx context.Context, pending []model.KPIEntry) (Outcome, error)
}

// SyncFunc adapts a function to SyncProvider.
type SyncFunc func(ctx context.Context, pending []model.KPIEntry) (Outcome, error)

func (f SyncFunc) Push(ctx context.Context, pending []model.KPIEntry) (Outcome, error) {
	return f(ctx, pending)
}

// LocalCommit reports every push as committed without sending anything.
// It is the default until a real backend exists.
type LocalCommit struct{}

func (LocalCommit) Push(context.Context, []model.KPIEntry) (Outcome, error) {
	return Committed, nil
}
