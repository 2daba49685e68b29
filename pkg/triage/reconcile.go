package triage

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/prsweep/prsweep/pkg/pool"
	"github.com/prsweep/prsweep/pkg/types"
)

// ReconcileStatuses resolves a batch of (possibly repeated) references to
// pull request statuses. Duplicates collapse to a single lookup, statuses
// already resolved earlier in the run are served from the session cache,
// and the rest are fetched with at most Concurrency lookups in flight.
// The returned map covers every unique reference key, error entries
// included.
func (s *Session) ReconcileStatuses(ctx context.Context, refs []types.PullRequestReference) (map[string]*types.PullRequestStatus, error) {
	if _, err := s.Login(ctx); err != nil {
		return nil, err
	}

	// Deduplicate, preserving first-seen order of unique keys.
	seen := make(map[string]bool, len(refs))
	var unique []types.PullRequestReference
	for _, ref := range refs {
		if seen[ref.Key()] {
			continue
		}
		seen[ref.Key()] = true
		unique = append(unique, ref)
	}

	result := make(map[string]*types.PullRequestStatus, len(unique))
	var missing []types.PullRequestReference
	for _, ref := range unique {
		if status, ok := s.statuses[ref.Key()]; ok {
			result[ref.Key()] = status
			continue
		}
		missing = append(missing, ref)
	}

	slog.Info("Reconciling PR statuses", "emails", len(refs), "unique", len(unique), "cached", len(unique)-len(missing))
	if len(missing) == 0 {
		return result, nil
	}

	total := len(missing)
	var completed atomic.Int64
	statuses, err := pool.Map(ctx, missing, s.concurrency(),
		func(ctx context.Context, ref types.PullRequestReference) (*types.PullRequestStatus, error) {
			status := s.resolve(ctx, ref)
			if n := completed.Add(1); n%progressInterval == 0 || n == int64(total) {
				slog.Info("Resolution progress", "completed", n, "total", total)
			}
			return status, nil
		})
	if err != nil {
		return nil, err
	}

	// Populate the run cache sequentially; the keys are unique, so this is
	// the only writer per key for the whole run.
	for i, ref := range missing {
		s.statuses[ref.Key()] = statuses[i]
		result[ref.Key()] = statuses[i]
	}
	return result, nil
}
