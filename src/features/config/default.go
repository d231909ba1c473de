package config

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			PrintRoutes: false,
			Port:        3535,
		},
		Database: Database{
			Path: "./vibecast.db",
		},
		Cache: Cache{
			Enabled:            true,
			MaxEntries:         2048,
			TTLSeconds:         600,
			PlaylistTTLSeconds: 1800,
		},
		Rewind: Rewind{
			Enabled:        true,
			IntervalHours:  24,
			PlaylistSize:   10,
			ScoreMinPlays:  2,
			TopMinPlays:    5,
			PairsPerSecond: 50,
		},
		Jobs: Jobs{
			Log:     true,
			LogPath: "./logs/jobs",
		},
	}
}
