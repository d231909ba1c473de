package catalog

import "time"

// PlayHistory is one user/track play-count row. A row is upserted per
// (user, track) pair; PlayCount accumulates.
type PlayHistory struct {
	UserID       string    `json:"userId"`
	TrackID      string    `json:"trackId"`
	TrackTitle   string    `json:"trackTitle,omitempty"`
	PlayCount    int       `json:"playCount"`
	LastPlayedAt time.Time `json:"lastPlayedAt"`
}

// PlayedTrack is a history row joined with the track's taste attributes.
// The rewind scorer consumes these.
type PlayedTrack struct {
	TrackID   string
	Genre     string
	ArtistID  string
	PlayCount int
}
