// Package rewind maintains the per-user "Vibe Rewind" system playlists: a
// periodic job scores each user's listening history and rebuilds their
// playlist from the most promising candidate tracks.
package rewind

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"vibecast/src/catalog"
	"vibecast/src/features/caching"
	"vibecast/src/infra/cache"
)

// DefaultTemplateName is the base playlist every user gets an instance of.
const DefaultTemplateName = "Vibe Rewind"

// Params controls one recompute run.
type Params struct {
	// PlaylistSize is the target track count after dedup and truncation.
	PlaylistSize int
	// ScoreMinPlays is the play-count floor (strict) for history rows that
	// feed genre/artist scoring.
	ScoreMinPlays int
	// TopMinPlays is the play-count floor (strict) for a track to qualify
	// for the user's own most-played list.
	TopMinPlays int
}

// Service recomputes a single user's rewind playlist.
type Service struct {
	playlistStore catalog.PlaylistStore
	historyStore  catalog.HistoryStore
	detailCache   *cache.TTLCache
	invalidator   *caching.Invalidator
}

// NewService creates a new rewind service. detailCache may be nil when
// caching is disabled.
func NewService(playlistStore catalog.PlaylistStore, historyStore catalog.HistoryStore, detailCache *cache.TTLCache, invalidator *caching.Invalidator) *Service {
	return &Service{
		playlistStore: playlistStore,
		historyStore:  historyStore,
		detailCache:   detailCache,
		invalidator:   invalidator,
	}
}

// UserRewind is a user's rewind playlist with its current track list.
type UserRewind struct {
	Playlist *catalog.Playlist `json:"playlist"`
	Tracks   []*catalog.Track  `json:"tracks"`
}

// GetUserRewind returns the user's instance of the default template,
// read-through cached in the user's namespace so a recompute drops it.
func (s *Service) GetUserRewind(ctx context.Context, userID string) (*UserRewind, error) {
	key := caching.UserScopedKey(userID, "rewind", nil)
	return caching.Through(ctx, s.detailCache, key, func() (*UserRewind, error) {
		playlist, err := s.playlistStore.FindByOwnerAndName(ctx, &userID, DefaultTemplateName)
		if err != nil {
			return nil, err
		}
		tracks, err := s.playlistStore.GetTracksForPlaylist(ctx, playlist.ID)
		if err != nil {
			return nil, err
		}
		return &UserRewind{Playlist: playlist, Tracks: tracks}, nil
	})
}

// Recompute rebuilds one user's instance of the given template playlist.
// The playlist row is always ensured; its track list is only replaced when
// the user has scorable history and the candidate union is non-empty, so an
// existing list is never cleared by an empty input.
func (s *Service) Recompute(ctx context.Context, userID string, template *catalog.Playlist, params Params) error {
	playlist, err := s.ensurePlaylist(ctx, userID, template)
	if err != nil {
		return err
	}

	played, err := s.historyStore.PlayedAbove(ctx, userID, params.ScoreMinPlays)
	if err != nil {
		return err
	}
	if len(played) == 0 {
		slog.Debug("rewind: no scorable history, keeping existing list", "user", userID)
		return nil
	}

	topGenres, topArtists := scoreTaste(played)

	mostPlayed, err := s.historyStore.MostPlayedTracks(ctx, userID, params.TopMinPlays, params.PlaylistSize)
	if err != nil {
		return err
	}
	byTaste, err := s.historyStore.TopTracksByTaste(ctx, topGenres, topArtists, params.PlaylistSize)
	if err != nil {
		return err
	}
	collaborative, err := s.historyStore.CollaborativeTracks(ctx, userID, params.PlaylistSize)
	if err != nil {
		return err
	}

	trackIDs := dedupeUnion(params.PlaylistSize, mostPlayed, byTaste, collaborative)
	if len(trackIDs) == 0 {
		slog.Debug("rewind: empty candidate union, keeping existing list", "user", userID)
		return nil
	}

	if err := s.playlistStore.ReplaceTracks(ctx, playlist.ID, trackIDs); err != nil {
		return err
	}

	s.invalidator.PlaylistChanged(playlist.ID, playlist.OwnerUserID)
	slog.Debug("rewind: playlist rebuilt", "user", userID, "playlist", playlist.ID, "tracks", len(trackIDs))
	return nil
}

// ensurePlaylist returns the user's instance of the template, creating an
// empty one if absent.
func (s *Service) ensurePlaylist(ctx context.Context, userID string, template *catalog.Playlist) (*catalog.Playlist, error) {
	playlist, err := s.playlistStore.FindByOwnerAndName(ctx, &userID, template.Name)
	if err == nil {
		return playlist, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}

	playlist = &catalog.Playlist{
		ID:           catalog.GeneratePlaylistID(),
		Name:         template.Name,
		Description:  template.Description,
		OwnerUserID:  &userID,
		Kind:         catalog.PlaylistKindSystem,
		CreatedAt:    time.Now(),
		ModifiedDate: time.Now(),
	}
	if err := s.playlistStore.Create(ctx, playlist); err != nil {
		// A concurrent recompute may have created it between lookup and
		// insert; re-read rather than fail.
		if errors.Is(err, catalog.ErrConflict) {
			return s.playlistStore.FindByOwnerAndName(ctx, &userID, template.Name)
		}
		return nil, err
	}
	s.invalidator.PlaylistChanged(playlist.ID, playlist.OwnerUserID)
	return playlist, nil
}

// EnsureDefaultTemplate creates the base rewind template if no templates
// exist yet. Called once at startup.
func (s *Service) EnsureDefaultTemplate(ctx context.Context) error {
	templates, err := s.playlistStore.ListTemplates(ctx)
	if err != nil {
		return err
	}
	if len(templates) > 0 {
		return nil
	}

	template := &catalog.Playlist{
		ID:           catalog.GeneratePlaylistID(),
		Name:         DefaultTemplateName,
		Description:  "Your most played tracks and fresh picks based on your taste.",
		Kind:         catalog.PlaylistKindSystem,
		CreatedAt:    time.Now(),
		ModifiedDate: time.Now(),
	}
	if err := s.playlistStore.Create(ctx, template); err != nil && !errors.Is(err, catalog.ErrConflict) {
		return err
	}
	return nil
}

const tasteTopN = 3

// scoreTaste counts genre and artist occurrences across the history rows
// and returns the top three of each. Ties break on name so repeated runs
// over the same history give the same answer.
func scoreTaste(played []*catalog.PlayedTrack) (genres, artists []string) {
	genreCounts := map[string]int{}
	artistCounts := map[string]int{}
	for _, p := range played {
		if p.Genre != "" {
			genreCounts[p.Genre]++
		}
		if p.ArtistID != "" {
			artistCounts[p.ArtistID]++
		}
	}
	return topKeys(genreCounts, tasteTopN), topKeys(artistCounts, tasteTopN)
}

func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// dedupeUnion merges the candidate lists in order, drops duplicates, and
// truncates to size.
func dedupeUnion(size int, lists ...[]string) []string {
	seen := map[string]bool{}
	union := []string{}
	for _, list := range lists {
		for _, id := range list {
			if seen[id] {
				continue
			}
			seen[id] = true
			union = append(union, id)
			if len(union) == size {
				return union
			}
		}
	}
	return union
}
