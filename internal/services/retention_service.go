package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CachePurger drops cached reports that were not read since cutoff
type CachePurger interface {
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionService periodically deletes stored files older than maxAge.
// Task records are not touched.
type RetentionService struct {
	areas  map[string]Storage
	cache  CachePurger
	maxAge time.Duration
	cron   *cron.Cron
	now    func() time.Time
}

// NewRetentionService creates a sweeper over the named storage areas
func NewRetentionService(maxAge time.Duration, areas map[string]Storage) *RetentionService {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &RetentionService{
		areas:  areas,
		maxAge: maxAge,
		cron:   c,
		now:    time.Now,
	}
}

// SetCachePurger makes every sweep also expire cached reports
func (s *RetentionService) SetCachePurger(p CachePurger) {
	s.cache = p
}

// Schedule registers the sweep on a cron spec with seconds
func (s *RetentionService) Schedule(spec string) (cron.EntryID, error) {
	entryID, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			log.Printf("[RETENTION] ERROR: sweep failed: %v", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("failed to schedule retention sweep: %w", err)
	}

	log.Printf("[RETENTION] Sweeping files older than %s with schedule: %s", s.maxAge, spec)
	return entryID, nil
}

// Start starts the cron scheduler
func (s *RetentionService) Start() {
	s.cron.Start()
	log.Println("[RETENTION] Cron scheduler started")
}

// Stop stops the cron scheduler and waits for a running sweep
func (s *RetentionService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[RETENTION] Cron scheduler stopped")
}

// Sweep deletes every expired object and returns how many were removed.
// A failing area is logged and the others are still swept.
func (s *RetentionService) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	var firstErr error

	for name, store := range s.areas {
		objects, err := store.List(ctx)
		if err != nil {
			log.Printf("[RETENTION] WARNING: could not list %s: %v", name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, obj := range objects {
			if !obj.LastModified.Before(cutoff) {
				continue
			}
			if err := store.Delete(ctx, obj.Key); err != nil {
				log.Printf("[RETENTION] WARNING: could not delete %s/%s: %v", name, obj.Key, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		log.Printf("[RETENTION] Removed %d expired files", removed)
	}

	if s.cache != nil {
		purged, err := s.cache.PurgeStale(ctx, cutoff)
		if err != nil {
			log.Printf("[RETENTION] WARNING: could not purge report cache: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		} else if purged > 0 {
			log.Printf("[RETENTION] Purged %d cached reports", purged)
		}
	}
	return removed, firstErr
}
