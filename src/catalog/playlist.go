package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Playlist kinds. System playlists are maintained by the rewind job; a
// system playlist with no owner is a template the bulk driver clones per
// user.
const (
	PlaylistKindUser   = "user"
	PlaylistKindSystem = "system"
)

// Playlist represents an ordered collection of tracks. TotalTracks and
// TotalDuration are denormalized counters and must always equal the current
// track list's count and duration sum; they are never independently
// authoritative.
type Playlist struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	OwnerUserID   *string   `json:"ownerUserId"` // nil => template playlist
	Kind          string    `json:"kind"`
	TotalTracks   int       `json:"totalTracks"`
	TotalDuration int       `json:"totalDuration"`
	CreatedAt     time.Time `json:"createdAt"`
	ModifiedDate  time.Time `json:"modifiedDate"`
}

// PlaylistEntry is a single membership row linking a track to a playlist.
type PlaylistEntry struct {
	PlaylistID string `json:"playlistId"`
	TrackID    string `json:"trackId"`
	Position   int    `json:"position"`
}

// IsTemplate reports whether the playlist is an ownerless base playlist.
func (p *Playlist) IsTemplate() bool {
	return p.OwnerUserID == nil
}

// Validate validates the playlist fields.
func (p *Playlist) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: playlist name cannot be empty", ErrValidation)
	}
	if len(p.Name) > 200 {
		return fmt.Errorf("%w: playlist name cannot exceed 200 characters, got %d", ErrValidation, len(p.Name))
	}
	if len(p.Description) > 1000 {
		return fmt.Errorf("%w: playlist description cannot exceed 1000 characters, got %d", ErrValidation, len(p.Description))
	}
	switch p.Kind {
	case PlaylistKindUser, PlaylistKindSystem:
	default:
		return fmt.Errorf("%w: unknown playlist kind %q", ErrValidation, p.Kind)
	}
	if p.Kind == PlaylistKindUser && p.OwnerUserID == nil {
		return fmt.Errorf("%w: user playlist must have an owner", ErrValidation)
	}
	return nil
}

// GeneratePlaylistID creates a UUID for a playlist.
func GeneratePlaylistID() string {
	return uuid.New().String()
}
