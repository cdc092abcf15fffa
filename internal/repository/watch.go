package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/debemdeboas/folio/internal/model"
)

// Watch polls the store for writes made by other processes (another replica, the
// migrate tool) and turns them into change events and cache invalidations. It blocks
// until ctx is done.
func (r *DBRecordRepository) Watch(ctx context.Context, kinds []model.Kind, interval time.Duration) {
	for _, kind := range kinds {
		if _, err := r.Sync(ctx, kind); err != nil {
			repoLogger.Error().Err(err).Str("kind", string(kind)).Msg("Error taking initial snapshot")
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, kind := range kinds {
			changes, err := r.Sync(ctx, kind)
			if err != nil {
				repoLogger.Error().Err(err).Str("kind", string(kind)).Msg("Error checking for external changes")
				continue
			}
			if changes == 0 {
				repoLogger.Debug().Str("kind", string(kind)).Msg("No records modified, skipping")
			}
		}
	}
}

// Sync compares the stored hashes of kind against the last snapshot and reports the
// number of differences. The first call only records a snapshot.
func (r *DBRecordRepository) Sync(ctx context.Context, kind model.Kind) (int, error) {
	rows, err := r.db.Query(ctx, `SELECT id, fields_hash FROM records WHERE kind = ?`, string(kind))
	if err != nil {
		return 0, fmt.Errorf("error querying record hashes: %w", err)
	}
	current := make(map[model.RecordID]string)
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			rows.Close()
			return 0, fmt.Errorf("error scanning record hash: %w", err)
		}
		current[model.RecordID(id)] = hash
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	previous, known := r.seen[kind]
	r.seen[kind] = current
	r.mu.Unlock()

	if !known {
		return 0, nil
	}

	var events []model.ChangeEvent
	for id, hash := range current {
		old, ok := previous[id]
		switch {
		case !ok:
			events = append(events, model.ChangeEvent{Op: model.OpCreated, Kind: kind, ID: id})
		case old != hash:
			events = append(events, model.ChangeEvent{Op: model.OpUpdated, Kind: kind, ID: id})
		}
	}
	for id := range previous {
		if _, ok := current[id]; !ok {
			events = append(events, model.ChangeEvent{Op: model.OpDeleted, Kind: kind, ID: id})
		}
	}

	if len(events) == 0 {
		return 0, nil
	}

	repoLogger.Info().Str("kind", string(kind)).Int("changes", len(events)).Msg("Records changed outside this process")
	r.lists.Invalidate(ctx, kind)
	for _, e := range events {
		r.notify(e.Op, e.Kind, e.ID)
	}
	return len(events), nil
}
