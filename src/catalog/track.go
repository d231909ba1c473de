package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Track represents a single streamable track.
type Track struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ArtistID        string    `json:"artistId"`
	ArtistName      string    `json:"artistName,omitempty"`
	AlbumID         string    `json:"albumId,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	PlayCount       int       `json:"playCount"`
	ReleaseDate     string    `json:"releaseDate,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Validate validates the track fields.
func (t *Track) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: track title cannot be empty", ErrValidation)
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("%w: track title cannot exceed 500 characters, got %d", ErrValidation, len(t.Title))
	}
	if t.ArtistID == "" {
		return fmt.Errorf("%w: track must reference an artist: title -> %s", ErrValidation, t.Title)
	}
	if t.DurationSeconds < 0 {
		return fmt.Errorf("%w: track duration cannot be negative", ErrValidation)
	}
	return nil
}

// GenerateTrackID creates a UUID for a track.
func GenerateTrackID() string {
	return uuid.New().String()
}
