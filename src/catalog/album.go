package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Album represents a released collection of tracks.
type Album struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ArtistID    string    `json:"artistId"`
	ArtistName  string    `json:"artistName,omitempty"`
	Type        string    `json:"type,omitempty"` // album, single, ep, compilation
	ReleaseDate string    `json:"releaseDate,omitempty"`
	TotalTracks int       `json:"totalTracks"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate validates the album fields.
func (a *Album) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: album title cannot be empty", ErrValidation)
	}
	if len(a.Title) > 500 {
		return fmt.Errorf("%w: album title cannot exceed 500 characters, got %d", ErrValidation, len(a.Title))
	}
	if a.ArtistID == "" {
		return fmt.Errorf("%w: album must reference an artist: title -> %s", ErrValidation, a.Title)
	}
	return nil
}

// Artist represents a performing artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Validate validates the artist fields.
func (a *Artist) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: artist name cannot be empty", ErrValidation)
	}
	return nil
}

// GenerateAlbumID creates a UUID for an album.
func GenerateAlbumID() string {
	return uuid.New().String()
}

// GenerateArtistID creates a UUID for an artist.
func GenerateArtistID() string {
	return uuid.New().String()
}
