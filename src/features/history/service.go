// Package history records plays and serves per-user listening history.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"vibecast/src/catalog"
	"vibecast/src/features/caching"
	"vibecast/src/infra/cache"
)

// Service is the domain service for the history feature.
type Service struct {
	historyStore catalog.HistoryStore
	store        catalog.Store
	userStore    catalog.UserStore
	listCache    *cache.TTLCache
	invalidator  *caching.Invalidator
}

// NewService creates a new history service.
func NewService(historyStore catalog.HistoryStore, store catalog.Store, userStore catalog.UserStore, listCache *cache.TTLCache, invalidator *caching.Invalidator) *Service {
	return &Service{
		historyStore: historyStore,
		store:        store,
		userStore:    userStore,
		listCache:    listCache,
		invalidator:  invalidator,
	}
}

// RecordPlay registers one play of a track by a user: the per-user history
// counter and the track's global play count both move. The user's cache
// namespace is invalidated so stale history pages and rewind payloads drop
// out.
func (s *Service) RecordPlay(ctx context.Context, userID, trackID string) error {
	slog.Debug("RecordPlay service called", "user", userID, "track", trackID)

	if userID == "" || trackID == "" {
		return fmt.Errorf("%w: userId and trackId are required", catalog.ErrValidation)
	}
	if _, err := s.userStore.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.store.GetTrack(ctx, trackID); err != nil {
		return err
	}

	if err := s.historyStore.RecordPlay(ctx, userID, trackID); err != nil {
		slog.Error("RecordPlay failed", "user", userID, "track", trackID, "error", err)
		return err
	}
	if err := s.store.IncrementPlayCount(ctx, trackID); err != nil {
		// The history row is already written; the global counter drifting
		// by one is tolerable, losing the play is not.
		slog.Warn("failed to bump global play count", "track", trackID, "error", err)
	}

	s.invalidator.UserActivity(userID)
	s.invalidator.TracksChanged()
	return nil
}

// ListForUser returns one page of the user's history, most recent first.
func (s *Service) ListForUser(ctx context.Context, userID string, page catalog.PageRequest) (catalog.PageResult[*catalog.PlayHistory], error) {
	slog.Debug("ListForUser service called", "user", userID)

	if _, err := s.userStore.GetUser(ctx, userID); err != nil {
		return catalog.PageResult[*catalog.PlayHistory]{}, err
	}

	n := page.Normalize()
	key := caching.UserScopedKey(userID, "history", map[string]string{
		"page":  fmt.Sprint(n.Page),
		"limit": fmt.Sprint(n.Limit),
	})
	return caching.Through(ctx, s.listCache, key, func() (catalog.PageResult[*catalog.PlayHistory], error) {
		rows, err := s.historyStore.ListForUser(ctx, userID, page)
		if err != nil {
			return catalog.PageResult[*catalog.PlayHistory]{}, err
		}
		total, err := s.historyStore.CountForUser(ctx, userID)
		if err != nil {
			return catalog.PageResult[*catalog.PlayHistory]{}, err
		}
		return catalog.NewPageResult(rows, total, page), nil
	})
}
