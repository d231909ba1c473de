package config

// Config holds the application configuration.
type Config struct {
	Logger   Logger   `yaml:"logger"`
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Cache    Cache    `yaml:"cache"`
	Rewind   Rewind   `yaml:"rewind"`
	Jobs     Jobs     `yaml:"jobs"`
}

type Jobs struct {
	Log     bool   `yaml:"log"`
	LogPath string `yaml:"log_path"`
}

// Database holds the configuration for the database
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// Cache holds the configuration for the in-process read cache.
type Cache struct {
	Enabled            bool `yaml:"enabled"`
	MaxEntries         int  `yaml:"max_entries" validate:"gte=0"`
	TTLSeconds         int  `yaml:"ttl_seconds" validate:"gte=0"`
	PlaylistTTLSeconds int  `yaml:"playlist_ttl_seconds" validate:"gte=0"`
}

// Rewind holds the configuration for the Vibe Rewind recompute job.
type Rewind struct {
	Enabled        bool    `yaml:"enabled"`
	IntervalHours  int     `yaml:"interval_hours" validate:"gte=0"`
	PlaylistSize   int     `yaml:"playlist_size" validate:"gt=0"`
	ScoreMinPlays  int     `yaml:"score_min_plays" validate:"gte=0"`
	TopMinPlays    int     `yaml:"top_min_plays" validate:"gte=0"`
	PairsPerSecond float64 `yaml:"pairs_per_second" validate:"gte=0"`
}
