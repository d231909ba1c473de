// Package library manages the catalog's write side: album, track, artist
// and user records. Mutations here feed the same invalidation mapping the
// read side depends on.
package library

import (
	"context"
	"log/slog"
	"time"

	"vibecast/src/catalog"
	"vibecast/src/features/caching"
)

// Service is the domain service for the library feature.
type Service struct {
	store       catalog.Store
	users       catalog.UserStore
	invalidator *caching.Invalidator
}

// NewService creates a new library service.
func NewService(store catalog.Store, users catalog.UserStore, invalidator *caching.Invalidator) *Service {
	return &Service{
		store:       store,
		users:       users,
		invalidator: invalidator,
	}
}

// AddArtist adds an artist to the catalog.
func (s *Service) AddArtist(ctx context.Context, name string) (*catalog.Artist, error) {
	artist := &catalog.Artist{ID: catalog.GenerateArtistID(), Name: name}
	if err := artist.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.AddArtist(ctx, artist); err != nil {
		slog.Error("AddArtist failed", "name", name, "error", err)
		return nil, err
	}
	return artist, nil
}

// AddAlbum adds an album to the catalog.
func (s *Service) AddAlbum(ctx context.Context, album *catalog.Album) (*catalog.Album, error) {
	if album.ID == "" {
		album.ID = catalog.GenerateAlbumID()
	}
	if err := album.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetArtist(ctx, album.ArtistID); err != nil {
		return nil, err
	}
	if err := s.store.AddAlbum(ctx, album); err != nil {
		slog.Error("AddAlbum failed", "title", album.Title, "error", err)
		return nil, err
	}

	s.invalidator.AlbumsChanged()
	return album, nil
}

// UpdateAlbum updates an album's fields.
func (s *Service) UpdateAlbum(ctx context.Context, album *catalog.Album) error {
	if err := album.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateAlbum(ctx, album); err != nil {
		slog.Error("UpdateAlbum failed", "id", album.ID, "error", err)
		return err
	}

	s.invalidator.AlbumsChanged()
	return nil
}

// DeleteAlbum deletes an album; its tracks stay, unlinked.
func (s *Service) DeleteAlbum(ctx context.Context, id string) error {
	if err := s.store.DeleteAlbum(ctx, id); err != nil {
		slog.Error("DeleteAlbum failed", "id", id, "error", err)
		return err
	}

	// Track payloads embed album links, so both namespaces go.
	s.invalidator.TracksChanged()
	return nil
}

// AddTrack adds a track to the catalog.
func (s *Service) AddTrack(ctx context.Context, track *catalog.Track) (*catalog.Track, error) {
	if track.ID == "" {
		track.ID = catalog.GenerateTrackID()
	}
	if err := track.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetArtist(ctx, track.ArtistID); err != nil {
		return nil, err
	}
	if track.AlbumID != "" {
		if _, err := s.store.GetAlbum(ctx, track.AlbumID); err != nil {
			return nil, err
		}
	}
	if err := s.store.AddTrack(ctx, track); err != nil {
		slog.Error("AddTrack failed", "title", track.Title, "error", err)
		return nil, err
	}

	s.invalidator.TracksChanged()
	return track, nil
}

// UpdateTrack updates a track's fields.
func (s *Service) UpdateTrack(ctx context.Context, track *catalog.Track) error {
	if err := track.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateTrack(ctx, track); err != nil {
		slog.Error("UpdateTrack failed", "id", track.ID, "error", err)
		return err
	}

	s.invalidator.TracksChanged()
	return nil
}

// DeleteTrack deletes a track together with its playlist memberships and
// history rows. The affected playlists are not derivable from the delete,
// so the playlist cache namespace drops coarsely.
func (s *Service) DeleteTrack(ctx context.Context, id string) error {
	if err := s.store.DeleteTrack(ctx, id); err != nil {
		slog.Error("DeleteTrack failed", "id", id, "error", err)
		return err
	}

	s.invalidator.TracksChanged()
	s.invalidator.PlaylistsCoarse()
	return nil
}

// CreateUser registers a new user.
func (s *Service) CreateUser(ctx context.Context, name, email string) (*catalog.User, error) {
	user := &catalog.User{
		ID:        catalog.GenerateUserID(),
		Name:      name,
		Email:     email,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		slog.Error("CreateUser failed", "email", email, "error", err)
		return nil, err
	}

	s.invalidator.UserChanged(user.ID)
	return user, nil
}

// UpdateUser updates a user's profile fields.
func (s *Service) UpdateUser(ctx context.Context, user *catalog.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		slog.Error("UpdateUser failed", "id", user.ID, "error", err)
		return err
	}

	s.invalidator.UserChanged(user.ID)
	return nil
}

// DeleteUser removes a user with their history and owned playlists.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		slog.Error("DeleteUser failed", "id", id, "error", err)
		return err
	}

	s.invalidator.UserChanged(id)
	s.invalidator.PlaylistsCoarse()
	return nil
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, id string) (*catalog.User, error) {
	return s.users.GetUser(ctx, id)
}
