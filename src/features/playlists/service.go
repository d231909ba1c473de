// Package playlists owns playlist CRUD and track membership. Every
// successful mutation fires the cache invalidation mapping; invalidation is
// best-effort and never fails the mutation.
package playlists

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vibecast/src/catalog"
	"vibecast/src/features/caching"
	"vibecast/src/infra/cache"
)

// Service is the domain service for the playlists feature.
type Service struct {
	playlistStore catalog.PlaylistStore
	store         catalog.Store
	detailCache   *cache.TTLCache
	invalidator   *caching.Invalidator
}

// NewService creates a new playlists service. detailCache may be nil when
// caching is disabled.
func NewService(playlistStore catalog.PlaylistStore, store catalog.Store, detailCache *cache.TTLCache, invalidator *caching.Invalidator) *Service {
	return &Service{
		playlistStore: playlistStore,
		store:         store,
		detailCache:   detailCache,
		invalidator:   invalidator,
	}
}

// PlaylistDetail is a playlist together with its ordered track list.
type PlaylistDetail struct {
	Playlist *catalog.Playlist `json:"playlist"`
	Tracks   []*catalog.Track  `json:"tracks"`
}

// CreatePlaylist creates a new playlist. A nil owner creates a system
// template playlist.
func (s *Service) CreatePlaylist(ctx context.Context, name, description string, ownerUserID *string) (*catalog.Playlist, error) {
	slog.Debug("CreatePlaylist service called", "name", name)

	playlist := &catalog.Playlist{
		ID:           catalog.GeneratePlaylistID(),
		Name:         name,
		Description:  description,
		OwnerUserID:  ownerUserID,
		Kind:         catalog.PlaylistKindUser,
		CreatedAt:    time.Now(),
		ModifiedDate: time.Now(),
	}
	if ownerUserID == nil {
		playlist.Kind = catalog.PlaylistKindSystem
	}

	if err := playlist.Validate(); err != nil {
		slog.Error("CreatePlaylist validation failed", "error", err)
		return nil, err
	}

	if err := s.playlistStore.Create(ctx, playlist); err != nil {
		slog.Error("CreatePlaylist failed", "name", name, "error", err)
		return nil, err
	}

	s.invalidator.PlaylistChanged(playlist.ID, playlist.OwnerUserID)
	slog.Debug("CreatePlaylist completed", "id", playlist.ID, "name", name)
	return playlist, nil
}

// GetPlaylist gets a playlist with its tracks, read-through cached.
func (s *Service) GetPlaylist(ctx context.Context, id string) (*PlaylistDetail, error) {
	slog.Debug("GetPlaylist service called", "id", id)

	return caching.Through(ctx, s.detailCache, caching.PlaylistDetailKey(id), func() (*PlaylistDetail, error) {
		playlist, err := s.playlistStore.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		tracks, err := s.playlistStore.GetTracksForPlaylist(ctx, id)
		if err != nil {
			return nil, err
		}
		return &PlaylistDetail{Playlist: playlist, Tracks: tracks}, nil
	})
}

// UpdatePlaylist updates a playlist's name and description.
func (s *Service) UpdatePlaylist(ctx context.Context, id, name, description string) (*catalog.Playlist, error) {
	slog.Debug("UpdatePlaylist service called", "id", id)

	playlist, err := s.playlistStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	playlist.Name = name
	playlist.Description = description
	if err := playlist.Validate(); err != nil {
		return nil, err
	}

	if err := s.playlistStore.Update(ctx, playlist); err != nil {
		slog.Error("UpdatePlaylist failed", "id", id, "error", err)
		return nil, err
	}

	s.invalidator.PlaylistChanged(playlist.ID, playlist.OwnerUserID)
	return playlist, nil
}

// DeletePlaylist deletes a playlist.
func (s *Service) DeletePlaylist(ctx context.Context, id string) error {
	slog.Debug("DeletePlaylist service called", "id", id)

	playlist, err := s.playlistStore.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.playlistStore.Delete(ctx, id); err != nil {
		slog.Error("DeletePlaylist failed", "id", id, "error", err)
		return err
	}

	s.invalidator.PlaylistChanged(id, playlist.OwnerUserID)
	return nil
}

// AddTrack adds a track to the end of a playlist.
func (s *Service) AddTrack(ctx context.Context, playlistID, trackID string) error {
	slog.Debug("AddTrack service called", "playlist", playlistID, "track", trackID)

	playlist, err := s.playlistStore.GetByID(ctx, playlistID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetTrack(ctx, trackID); err != nil {
		return err
	}

	if err := s.playlistStore.AddTrackToPlaylist(ctx, playlistID, trackID); err != nil {
		slog.Error("AddTrack failed", "playlist", playlistID, "track", trackID, "error", err)
		return err
	}

	s.invalidator.PlaylistChanged(playlistID, playlist.OwnerUserID)
	return nil
}

// AddTracks adds several tracks to the end of a playlist in one call.
func (s *Service) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	slog.Debug("AddTracks service called", "playlist", playlistID, "count", len(trackIDs))

	if len(trackIDs) == 0 {
		return fmt.Errorf("%w: no track ids given", catalog.ErrValidation)
	}
	playlist, err := s.playlistStore.GetByID(ctx, playlistID)
	if err != nil {
		return err
	}
	for _, trackID := range trackIDs {
		if _, err := s.store.GetTrack(ctx, trackID); err != nil {
			return err
		}
	}

	if err := s.playlistStore.AddTracksToPlaylist(ctx, playlistID, trackIDs); err != nil {
		slog.Error("AddTracks failed", "playlist", playlistID, "error", err)
		return err
	}

	s.invalidator.PlaylistChanged(playlistID, playlist.OwnerUserID)
	return nil
}

// RemoveTrack removes a track from a playlist.
func (s *Service) RemoveTrack(ctx context.Context, playlistID, trackID string) error {
	slog.Debug("RemoveTrack service called", "playlist", playlistID, "track", trackID)

	playlist, err := s.playlistStore.GetByID(ctx, playlistID)
	if err != nil {
		return err
	}

	if err := s.playlistStore.RemoveTrackFromPlaylist(ctx, playlistID, trackID); err != nil {
		slog.Error("RemoveTrack failed", "playlist", playlistID, "track", trackID, "error", err)
		return err
	}

	s.invalidator.PlaylistChanged(playlistID, playlist.OwnerUserID)
	return nil
}

// RemoveTrackEverywhere removes a track from every playlist that contains
// it. No single owning playlist is derivable, so the whole playlist cache
// namespace is invalidated.
func (s *Service) RemoveTrackEverywhere(ctx context.Context, trackID string) (int, error) {
	slog.Debug("RemoveTrackEverywhere service called", "track", trackID)

	removed, err := s.playlistStore.RemoveTrackEverywhere(ctx, trackID)
	if err != nil {
		slog.Error("RemoveTrackEverywhere failed", "track", trackID, "error", err)
		return 0, err
	}

	if removed > 0 {
		s.invalidator.PlaylistsCoarse()
	}
	slog.Debug("RemoveTrackEverywhere completed", "track", trackID, "removed", removed)
	return removed, nil
}
