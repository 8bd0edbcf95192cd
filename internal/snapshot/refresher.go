package snapshot

import (
	"context"
	"time"

	"github.com/vietcv/skillpath/internal/platform/logger"
)

// Loader produces a fresh snapshot from the backing stores.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Refresher reloads the snapshot on a fixed interval and swaps it into the
// holder. A failed reload keeps the previous snapshot live.
type Refresher struct {
	log      *logger.Logger
	holder   *Holder
	loader   Loader
	interval time.Duration
}

func NewRefresher(log *logger.Logger, holder *Holder, loader Loader, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Refresher{
		log:      log.With("component", "SnapshotRefresher"),
		holder:   holder,
		loader:   loader,
		interval: interval,
	}
}

// Start performs one initial load, then refreshes until ctx is done. The
// initial load error is returned so the caller can decide whether to serve
// degraded or abort.
func (r *Refresher) Start(ctx context.Context) error {
	err := r.refresh(ctx)
	go r.loop(ctx)
	return err
}

func (r *Refresher) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.refresh(ctx); err != nil {
				r.log.Warn("snapshot refresh failed, keeping previous snapshot", "error", err)
			}
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) error {
	started := time.Now()
	s, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}
	r.holder.Swap(s)
	r.log.Info("snapshot swapped",
		"version", s.Version,
		"skills", len(s.SkillVectors),
		"courses", len(s.Courses),
		"elapsed", time.Since(started).String(),
	)
	return nil
}
