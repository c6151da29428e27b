package backup

import (
	"context"
	"time"

	"github.com/aelfread/wordhoard/internal/logging"
	"github.com/aelfread/wordhoard/internal/store"
)

// AutoSaver periodically backs up every project.
type AutoSaver struct {
	manager  *Manager
	interval time.Duration
}

// NewAutoSaver returns an AutoSaver driving m. A non-positive interval
// falls back to the default.
func NewAutoSaver(m *Manager, interval time.Duration) *AutoSaver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &AutoSaver{manager: m, interval: interval}
}

// Run ticks until ctx is cancelled. Intended as a goroutine next to
// the API server.
func (a *AutoSaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.saveAll(ctx)
		}
	}
}

// saveAll backs up each project, logging failures rather than
// stopping: one broken project must not starve the rest.
func (a *AutoSaver) saveAll(ctx context.Context) {
	var projects []store.Project
	err := a.manager.store.View(ctx, func(tx *store.Tx) error {
		var err error
		projects, err = tx.ListProjects(ctx)
		return err
	})
	if err != nil {
		logging.Error("autosave list projects failed", "error", err)
		return
	}
	for _, p := range projects {
		if _, err := a.manager.Create(ctx, p.ID); err != nil {
			logging.Error("autosave failed", "project", p.Name, "error", err)
		}
	}
}
