package worker

import (
	"context"
	"time"

	"hyunsoo718/briefingworker/services/store"
)

// dedupWindow is how far back the keyword check looks. A program that
// reran within the window counts as already captured; anything older
// is treated as a fresh broadcast.
const dedupWindow = 5 * 24 * time.Hour

// DedupGate decides whether a candidate video was already captured.
// Two checks run in order: any report referencing the same video URL,
// then reports under the same keyword within the recent window.
type DedupGate struct {
	store store.Store
}

// NewDedupGate creates a gate over the record store
func NewDedupGate(st store.Store) *DedupGate {
	return &DedupGate{store: st}
}

// AlreadyCaptured reports whether the video needs no further processing
func (g *DedupGate) AlreadyCaptured(ctx context.Context, keyword, videoURL string, now time.Time) (bool, error) {
	exists, err := g.store.ReportExistsByURL(ctx, videoURL)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	return g.store.RecentReportExists(ctx, keyword, videoURL, now.Add(-dedupWindow))
}
