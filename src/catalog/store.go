package catalog

import "context"

// Store is the primary repository interface for the catalog domain. List and
// Count methods take the same FilterSpec; implementations must compile both
// from one predicate builder so the pair can never diverge in meaning. The
// two queries remain independent statements, so total may be stale relative
// to data under concurrent writes.
type Store interface {
	// Album methods
	AddAlbum(ctx context.Context, album *Album) error
	GetAlbum(ctx context.Context, id string) (*Album, error)
	UpdateAlbum(ctx context.Context, album *Album) error
	DeleteAlbum(ctx context.Context, id string) error
	ListAlbums(ctx context.Context, filter FilterSpec, sort SortSpec, page PageRequest) ([]*Album, error)
	CountAlbums(ctx context.Context, filter FilterSpec) (int, error)

	// Track methods
	AddTrack(ctx context.Context, track *Track) error
	GetTrack(ctx context.Context, id string) (*Track, error)
	UpdateTrack(ctx context.Context, track *Track) error
	DeleteTrack(ctx context.Context, id string) error
	ListTracks(ctx context.Context, filter FilterSpec, sort SortSpec, page PageRequest) ([]*Track, error)
	CountTracks(ctx context.Context, filter FilterSpec) (int, error)
	IncrementPlayCount(ctx context.Context, trackID string) error

	// Artist methods
	AddArtist(ctx context.Context, artist *Artist) error
	GetArtist(ctx context.Context, id string) (*Artist, error)
}

// PlaylistStore manages playlists and their membership rows.
type PlaylistStore interface {
	Create(ctx context.Context, playlist *Playlist) error
	GetByID(ctx context.Context, id string) (*Playlist, error)
	Update(ctx context.Context, playlist *Playlist) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter FilterSpec, sort SortSpec, page PageRequest) ([]*Playlist, error)
	Count(ctx context.Context, filter FilterSpec) (int, error)

	// FindByOwnerAndName looks a playlist up by its (owner, name) pair.
	// A nil owner matches template playlists. Returns ErrNotFound when
	// absent.
	FindByOwnerAndName(ctx context.Context, ownerUserID *string, name string) (*Playlist, error)
	// ListTemplates returns every ownerless base playlist.
	ListTemplates(ctx context.Context) ([]*Playlist, error)

	AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error
	RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error
	AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error
	// RemoveTrackEverywhere deletes every membership row for the track
	// across all playlists and returns how many rows went away. No single
	// owning playlist is derivable from this operation.
	RemoveTrackEverywhere(ctx context.Context, trackID string) (int, error)
	// ReplaceTracks atomically swaps the playlist's track list: existing
	// membership rows are deleted, the new deduplicated list is inserted
	// with explicit positions, and the denormalized totalTracks and
	// totalDuration counters are updated, all in one transaction.
	ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error
	GetTracksForPlaylist(ctx context.Context, playlistID string) ([]*Track, error)
}

// HistoryStore records plays and feeds the rewind recompute queries. The
// candidate queries order deterministically (play count desc, then id) so a
// recompute over unchanged history is a pure function of that history.
type HistoryStore interface {
	RecordPlay(ctx context.Context, userID, trackID string) error
	ListForUser(ctx context.Context, userID string, page PageRequest) ([]*PlayHistory, error)
	CountForUser(ctx context.Context, userID string) (int, error)

	// PlayedAbove returns the user's history rows with play counts
	// strictly above minPlays, joined with genre and artist.
	PlayedAbove(ctx context.Context, userID string, minPlays int) ([]*PlayedTrack, error)
	// MostPlayedTracks returns the user's own track ids with play counts
	// strictly above minPlays, most played first.
	MostPlayedTracks(ctx context.Context, userID string, minPlays, limit int) ([]string, error)
	// TopTracksByTaste returns track ids matching any of the genres or
	// artists, ordered by global play count.
	TopTracksByTaste(ctx context.Context, genres, artistIDs []string, limit int) ([]string, error)
	// CollaborativeTracks returns track ids played by users who share at
	// least one played track with this user, ordered by those users' play
	// counts.
	CollaborativeTracks(ctx context.Context, userID string, limit int) ([]string, error)
}

// UserStore manages listener accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, filter FilterSpec, sort SortSpec, page PageRequest) ([]*User, error)
	CountUsers(ctx context.Context, filter FilterSpec) (int, error)
	ListActive(ctx context.Context) ([]*User, error)
}
