package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vibecast/src/catalog"
)

// SqliteStore is the SQLite implementation of the catalog store interfaces.
// It is constructed once at startup and injected; there is no package-level
// handle.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SqliteStore{db: db}, nil
}

// Close releases the underlying handle. Call during graceful shutdown.
func (d *SqliteStore) Close() error {
	return d.db.Close()
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT
		);

		CREATE TABLE IF NOT EXISTS artists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS albums (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist_id TEXT NOT NULL,
			type TEXT,
			release_date TEXT,
			created_at TEXT,
			FOREIGN KEY (artist_id) REFERENCES artists(id)
		);

		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist_id TEXT NOT NULL,
			album_id TEXT,
			genre TEXT,
			duration INTEGER NOT NULL DEFAULT 0,
			play_count INTEGER NOT NULL DEFAULT 0,
			release_date TEXT,
			created_at TEXT,
			FOREIGN KEY (artist_id) REFERENCES artists(id),
			FOREIGN KEY (album_id) REFERENCES albums(id)
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			owner_user_id TEXT,
			kind TEXT NOT NULL DEFAULT 'user',
			total_tracks INTEGER NOT NULL DEFAULT 0,
			total_duration INTEGER NOT NULL DEFAULT 0,
			created_at TEXT,
			modified_date TEXT,
			UNIQUE (owner_user_id, name),
			FOREIGN KEY (owner_user_id) REFERENCES users(id)
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (playlist_id, track_id),
			FOREIGN KEY (playlist_id) REFERENCES playlists(id),
			FOREIGN KEY (track_id) REFERENCES tracks(id)
		);

		CREATE TABLE IF NOT EXISTS play_history (
			user_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			play_count INTEGER NOT NULL DEFAULT 0,
			last_played_at TEXT,
			PRIMARY KEY (user_id, track_id),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (track_id) REFERENCES tracks(id)
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist_id);
		CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album_id);
		CREATE INDEX IF NOT EXISTS idx_tracks_genre ON tracks(genre);
		CREATE INDEX IF NOT EXISTS idx_albums_artist ON albums(artist_id);
		CREATE INDEX IF NOT EXISTS idx_playlists_owner ON playlists(owner_user_id);
		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_track ON playlist_tracks(track_id);
		CREATE INDEX IF NOT EXISTS idx_play_history_track ON play_history(track_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// --- FilterSpec compilation -------------------------------------------------

// Column expressions per entity. These must cover every field the catalog
// filter builder accepts for the entity.
var (
	albumCols = map[string]string{
		"title":        "a.title",
		"type":         "a.type",
		"artist_id":    "a.artist_id",
		"release_date": "a.release_date",
	}
	trackCols = map[string]string{
		"title":       "t.title",
		"genre":       "t.genre",
		"artist_id":   "t.artist_id",
		"album_id":    "t.album_id",
		"artist_name": "ar.name",
	}
	playlistCols = map[string]string{
		"name":          "p.name",
		"kind":          "p.kind",
		"owner_user_id": "p.owner_user_id",
		"description":   "p.description",
	}
	userCols = map[string]string{
		"name":   "u.name",
		"email":  "u.email",
		"active": "u.active",
	}

	trackExists = map[string]string{
		"playlist": "EXISTS (SELECT 1 FROM playlist_tracks pt WHERE pt.track_id = t.id AND pt.playlist_id IN (%s))",
	}
	playlistExists = map[string]string{
		"track": "EXISTS (SELECT 1 FROM playlist_tracks pt WHERE pt.playlist_id = p.id AND pt.track_id IN (%s))",
	}
)

func placeholders(n int) string {
	ph := strings.Repeat("?,", n)
	return ph[:len(ph)-1]
}

func stringArgs(values []string) []any {
	args := make([]any, 0, len(values))
	for _, v := range values {
		args = append(args, v)
	}
	return args
}

func predicateSQL(cols map[string]string, exists map[string]string, p catalog.Predicate) (string, []any) {
	switch p.Kind {
	case catalog.PredicateEquals:
		return cols[p.Field] + " = ?", []any{p.Value}
	case catalog.PredicateContainsFold:
		return "LOWER(" + cols[p.Field] + ") LIKE ?", []any{"%" + strings.ToLower(p.Value) + "%"}
	case catalog.PredicateInSet:
		return cols[p.Field] + " IN (" + placeholders(len(p.Values)) + ")", stringArgs(p.Values)
	case catalog.PredicateHasRelated:
		return fmt.Sprintf(exists[p.Relation], placeholders(len(p.Values))), stringArgs(p.Values)
	}
	return "", nil
}

// compileFilter turns a validated FilterSpec into a WHERE clause. The data
// query and the count query for an entity both go through this single
// compiler so their predicates can never diverge.
func compileFilter(cols map[string]string, exists map[string]string, f catalog.FilterSpec) (string, []any) {
	conditions := []string{}
	args := []any{}

	if len(f.TextOr) > 0 {
		ors := make([]string, 0, len(f.TextOr))
		for _, p := range f.TextOr {
			clause, a := predicateSQL(cols, exists, p)
			ors = append(ors, clause)
			args = append(args, a...)
		}
		conditions = append(conditions, "("+strings.Join(ors, " OR ")+")")
	}
	for _, p := range f.And {
		clause, a := predicateSQL(cols, exists, p)
		conditions = append(conditions, clause)
		args = append(args, a...)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Derived sort expressions: total_tracks is not a stored ordering column, it
// is the related-row count.
var derivedSortExpr = map[catalog.Entity]map[string]string{
	catalog.EntityAlbums: {
		"total_tracks": "(SELECT COUNT(*) FROM tracks tr WHERE tr.album_id = a.id)",
	},
	catalog.EntityPlaylists: {
		"total_tracks": "(SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = p.id)",
	},
}

// orderClause builds the ORDER BY for a validated SortSpec. A trailing id
// tiebreaker keeps result order stable across identical requests.
func orderClause(entity catalog.Entity, alias string, sort catalog.SortSpec) string {
	col := alias + "." + sort.Key
	if sort.ByRelatedCount {
		col = derivedSortExpr[entity][sort.Key]
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + ", " + alias + ".id ASC"
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Albums -----------------------------------------------------------------

const albumSelect = `SELECT a.id, a.title, a.artist_id, COALESCE(ar.name, ''), COALESCE(a.type, ''), COALESCE(a.release_date, ''), (SELECT COUNT(*) FROM tracks tr WHERE tr.album_id = a.id), COALESCE(a.created_at, '') FROM albums a LEFT JOIN artists ar ON ar.id = a.artist_id`

func scanAlbum(row interface{ Scan(...any) error }) (*catalog.Album, error) {
	var a catalog.Album
	var created string
	if err := row.Scan(&a.ID, &a.Title, &a.ArtistID, &a.ArtistName, &a.Type, &a.ReleaseDate, &a.TotalTracks, &created); err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &a, nil
}

// AddAlbum adds an album to the catalog.
func (d *SqliteStore) AddAlbum(ctx context.Context, album *catalog.Album) error {
	if album.CreatedAt.IsZero() {
		album.CreatedAt = time.Now()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO albums (id, title, artist_id, type, release_date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		album.ID, album.Title, album.ArtistID, album.Type, album.ReleaseDate, album.CreatedAt.Format(time.RFC3339))
	if isUniqueViolation(err) {
		return fmt.Errorf("album %s: %w", album.ID, catalog.ErrConflict)
	}
	return err
}

// GetAlbum returns a single album, or ErrNotFound.
func (d *SqliteStore) GetAlbum(ctx context.Context, id string) (*catalog.Album, error) {
	album, err := scanAlbum(d.db.QueryRowContext(ctx, albumSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("album %s: %w", id, catalog.ErrNotFound)
	}
	return album, err
}

// UpdateAlbum updates an album's stored fields.
func (d *SqliteStore) UpdateAlbum(ctx context.Context, album *catalog.Album) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE albums SET title = ?, artist_id = ?, type = ?, release_date = ? WHERE id = ?`,
		album.Title, album.ArtistID, album.Type, album.ReleaseDate, album.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, "album", album.ID)
}

// DeleteAlbum deletes an album; tracks keep their rows with the album link
// cleared.
func (d *SqliteStore) DeleteAlbum(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE tracks SET album_id = NULL WHERE album_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "album", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListAlbums returns one page of albums under the filter and sort.
func (d *SqliteStore) ListAlbums(ctx context.Context, filter catalog.FilterSpec, sort catalog.SortSpec, page catalog.PageRequest) ([]*catalog.Album, error) {
	where, args := compileFilter(albumCols, nil, filter)
	n := page.Normalize()
	query := albumSelect + where + orderClause(catalog.EntityAlbums, "a", sort) + " LIMIT ? OFFSET ?"
	args = append(args, n.Limit, page.Offset())

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	albums := []*catalog.Album{}
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

// CountAlbums counts albums matching the same filter as ListAlbums. The
// count runs as its own statement; it is not transactionally linked to the
// page fetch.
func (d *SqliteStore) CountAlbums(ctx context.Context, filter catalog.FilterSpec) (int, error) {
	where, args := compileFilter(albumCols, nil, filter)
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM albums a LEFT JOIN artists ar ON ar.id = a.artist_id`+where, args...).Scan(&count)
	return count, err
}

// --- Tracks -----------------------------------------------------------------

const trackSelect = `SELECT t.id, t.title, t.artist_id, COALESCE(ar.name, ''), COALESCE(t.album_id, ''), COALESCE(t.genre, ''), t.duration, t.play_count, COALESCE(t.release_date, ''), COALESCE(t.created_at, '') FROM tracks t LEFT JOIN artists ar ON ar.id = t.artist_id`

func scanTrack(row interface{ Scan(...any) error }) (*catalog.Track, error) {
	var t catalog.Track
	var created string
	if err := row.Scan(&t.ID, &t.Title, &t.ArtistID, &t.ArtistName, &t.AlbumID, &t.Genre, &t.DurationSeconds, &t.PlayCount, &t.ReleaseDate, &created); err != nil {
		return nil, err
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &t, nil
}

// AddTrack adds a track to the catalog.
func (d *SqliteStore) AddTrack(ctx context.Context, track *catalog.Track) error {
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now()
	}
	var albumID any
	if track.AlbumID != "" {
		albumID = track.AlbumID
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO tracks (id, title, artist_id, album_id, genre, duration, play_count, release_date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		track.ID, track.Title, track.ArtistID, albumID, track.Genre, track.DurationSeconds, track.PlayCount, track.ReleaseDate, track.CreatedAt.Format(time.RFC3339))
	if isUniqueViolation(err) {
		return fmt.Errorf("track %s: %w", track.ID, catalog.ErrConflict)
	}
	return err
}

// GetTrack returns a single track, or ErrNotFound.
func (d *SqliteStore) GetTrack(ctx context.Context, id string) (*catalog.Track, error) {
	track, err := scanTrack(d.db.QueryRowContext(ctx, trackSelect+` WHERE t.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track %s: %w", id, catalog.ErrNotFound)
	}
	return track, err
}

// UpdateTrack updates a track's stored fields.
func (d *SqliteStore) UpdateTrack(ctx context.Context, track *catalog.Track) error {
	var albumID any
	if track.AlbumID != "" {
		albumID = track.AlbumID
	}
	res, err := d.db.ExecContext(ctx,
		`UPDATE tracks SET title = ?, artist_id = ?, album_id = ?, genre = ?, duration = ?, release_date = ? WHERE id = ?`,
		track.Title, track.ArtistID, albumID, track.Genre, track.DurationSeconds, track.ReleaseDate, track.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, "track", track.ID)
}

// DeleteTrack deletes a track along with its membership and history rows.
func (d *SqliteStore) DeleteTrack(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE track_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM play_history WHERE track_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "track", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListTracks returns one page of tracks under the filter and sort.
func (d *SqliteStore) ListTracks(ctx context.Context, filter catalog.FilterSpec, sort catalog.SortSpec, page catalog.PageRequest) ([]*catalog.Track, error) {
	where, args := compileFilter(trackCols, trackExists, filter)
	n := page.Normalize()
	query := trackSelect + where + orderClause(catalog.EntityTracks, "t", sort) + " LIMIT ? OFFSET ?"
	args = append(args, n.Limit, page.Offset())

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []*catalog.Track{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// CountTracks counts tracks matching the same filter as ListTracks.
func (d *SqliteStore) CountTracks(ctx context.Context, filter catalog.FilterSpec) (int, error) {
	where, args := compileFilter(trackCols, trackExists, filter)
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks t LEFT JOIN artists ar ON ar.id = t.artist_id`+where, args...).Scan(&count)
	return count, err
}

// IncrementPlayCount bumps the track's global play counter.
func (d *SqliteStore) IncrementPlayCount(ctx context.Context, trackID string) error {
	res, err := d.db.ExecContext(ctx, `UPDATE tracks SET play_count = play_count + 1 WHERE id = ?`, trackID)
	if err != nil {
		return err
	}
	return requireAffected(res, "track", trackID)
}

// --- Artists ----------------------------------------------------------------

// AddArtist adds an artist.
func (d *SqliteStore) AddArtist(ctx context.Context, artist *catalog.Artist) error {
	_, err := d.db.ExecContext(ctx, `INSERT INTO artists (id, name) VALUES (?, ?)`, artist.ID, artist.Name)
	if isUniqueViolation(err) {
		return fmt.Errorf("artist %s: %w", artist.Name, catalog.ErrConflict)
	}
	return err
}

// GetArtist returns a single artist, or ErrNotFound.
func (d *SqliteStore) GetArtist(ctx context.Context, id string) (*catalog.Artist, error) {
	var a catalog.Artist
	err := d.db.QueryRowContext(ctx, `SELECT id, name FROM artists WHERE id = ?`, id).Scan(&a.ID, &a.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artist %s: %w", id, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// --- Playlists --------------------------------------------------------------

const playlistSelect = `SELECT p.id, p.name, COALESCE(p.description, ''), p.owner_user_id, p.kind, p.total_tracks, p.total_duration, COALESCE(p.created_at, ''), COALESCE(p.modified_date, '') FROM playlists p`

func scanPlaylist(row interface{ Scan(...any) error }) (*catalog.Playlist, error) {
	var p catalog.Playlist
	var owner sql.NullString
	var created, modified string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &owner, &p.Kind, &p.TotalTracks, &p.TotalDuration, &created, &modified); err != nil {
		return nil, err
	}
	if owner.Valid {
		p.OwnerUserID = &owner.String
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	p.ModifiedDate, _ = time.Parse(time.RFC3339, modified)
	return &p, nil
}

// Create inserts a playlist row.
func (d *SqliteStore) Create(ctx context.Context, playlist *catalog.Playlist) error {
	now := time.Now()
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = now
	}
	if playlist.ModifiedDate.IsZero() {
		playlist.ModifiedDate = now
	}
	var owner any
	if playlist.OwnerUserID != nil {
		owner = *playlist.OwnerUserID
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO playlists (id, name, description, owner_user_id, kind, total_tracks, total_duration, created_at, modified_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playlist.ID, playlist.Name, playlist.Description, owner, playlist.Kind, playlist.TotalTracks, playlist.TotalDuration,
		playlist.CreatedAt.Format(time.RFC3339), playlist.ModifiedDate.Format(time.RFC3339))
	if isUniqueViolation(err) {
		return fmt.Errorf("playlist %q: %w", playlist.Name, catalog.ErrConflict)
	}
	return err
}

// GetByID returns a single playlist, or ErrNotFound.
func (d *SqliteStore) GetByID(ctx context.Context, id string) (*catalog.Playlist, error) {
	playlist, err := scanPlaylist(d.db.QueryRowContext(ctx, playlistSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist %s: %w", id, catalog.ErrNotFound)
	}
	return playlist, err
}

// Update updates a playlist's metadata fields. Counters are maintained by
// the membership operations, not here.
func (d *SqliteStore) Update(ctx context.Context, playlist *catalog.Playlist) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE playlists SET name = ?, description = ?, modified_date = ? WHERE id = ?`,
		playlist.Name, playlist.Description, time.Now().Format(time.RFC3339), playlist.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("playlist %q: %w", playlist.Name, catalog.ErrConflict)
	}
	if err != nil {
		return err
	}
	return requireAffected(res, "playlist", playlist.ID)
}

// Delete removes a playlist and its membership rows.
func (d *SqliteStore) Delete(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "playlist", id); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns one page of playlists under the filter and sort.
func (d *SqliteStore) List(ctx context.Context, filter catalog.FilterSpec, sort catalog.SortSpec, page catalog.PageRequest) ([]*catalog.Playlist, error) {
	where, args := compileFilter(playlistCols, playlistExists, filter)
	n := page.Normalize()
	query := playlistSelect + where + orderClause(catalog.EntityPlaylists, "p", sort) + " LIMIT ? OFFSET ?"
	args = append(args, n.Limit, page.Offset())

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playlists := []*catalog.Playlist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	return playlists, rows.Err()
}

// Count counts playlists matching the same filter as List.
func (d *SqliteStore) Count(ctx context.Context, filter catalog.FilterSpec) (int, error) {
	where, args := compileFilter(playlistCols, playlistExists, filter)
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlists p`+where, args...).Scan(&count)
	return count, err
}

// FindByOwnerAndName looks a playlist up by owner and name. A nil owner
// matches template playlists.
func (d *SqliteStore) FindByOwnerAndName(ctx context.Context, ownerUserID *string, name string) (*catalog.Playlist, error) {
	var row *sql.Row
	if ownerUserID == nil {
		row = d.db.QueryRowContext(ctx, playlistSelect+` WHERE p.owner_user_id IS NULL AND p.name = ?`, name)
	} else {
		row = d.db.QueryRowContext(ctx, playlistSelect+` WHERE p.owner_user_id = ? AND p.name = ?`, *ownerUserID, name)
	}
	playlist, err := scanPlaylist(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist %q: %w", name, catalog.ErrNotFound)
	}
	return playlist, err
}

// ListTemplates returns every ownerless base playlist.
func (d *SqliteStore) ListTemplates(ctx context.Context) ([]*catalog.Playlist, error) {
	rows, err := d.db.QueryContext(ctx, playlistSelect+` WHERE p.owner_user_id IS NULL ORDER BY p.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playlists := []*catalog.Playlist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	return playlists, rows.Err()
}

// AddTrackToPlaylist appends a track at the end of the playlist.
func (d *SqliteStore) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	return d.AddTracksToPlaylist(ctx, playlistID, []string{trackID})
}

// AddTracksToPlaylist appends tracks in order, skipping ones already
// present, and refreshes the denormalized counters in the same transaction.
func (d *SqliteStore) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM playlist_tracks WHERE playlist_id = ?`, playlistID).Scan(&next); err != nil {
		return err
	}
	for _, trackID := range trackIDs {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO playlist_tracks (playlist_id, track_id, position) VALUES (?, ?, ?)`,
			playlistID, trackID, next)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			next++
		}
	}
	if err := refreshPlaylistTotals(ctx, tx, playlistID); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveTrackFromPlaylist removes one membership row and refreshes the
// counters.
func (d *SqliteStore) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`, playlistID, trackID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("track %s in playlist %s: %w", trackID, playlistID, catalog.ErrNotFound)
	}
	if err := refreshPlaylistTotals(ctx, tx, playlistID); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveTrackEverywhere deletes the track's membership rows across all
// playlists. Callers cannot derive a single owning playlist from this, so
// they invalidate the whole playlist cache namespace.
func (d *SqliteStore) RemoveTrackEverywhere(ctx context.Context, trackID string) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE track_id = ?`, trackID)
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()
	if _, err := tx.ExecContext(ctx, `
		UPDATE playlists SET
			total_tracks = (SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = playlists.id),
			total_duration = (SELECT COALESCE(SUM(t.duration), 0) FROM playlist_tracks pt JOIN tracks t ON t.id = pt.track_id WHERE pt.playlist_id = playlists.id)
	`); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(removed), nil
}

// ReplaceTracks swaps the playlist's entire track list in one transaction:
// delete, ordered insert, counter update. A concurrent reader sees either
// the old complete list or the new one, never a half-replaced state.
func (d *SqliteStore) ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlistID); err != nil {
		return err
	}
	for pos, trackID := range trackIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES (?, ?, ?)`,
			playlistID, trackID, pos); err != nil {
			return err
		}
	}
	if err := refreshPlaylistTotals(ctx, tx, playlistID); err != nil {
		return err
	}
	return tx.Commit()
}

// refreshPlaylistTotals recomputes the denormalized counters from the
// current membership rows. Must run inside the mutating transaction.
func refreshPlaylistTotals(ctx context.Context, tx *sql.Tx, playlistID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE playlists SET
			total_tracks = (SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = ?),
			total_duration = (SELECT COALESCE(SUM(t.duration), 0) FROM playlist_tracks pt JOIN tracks t ON t.id = pt.track_id WHERE pt.playlist_id = ?),
			modified_date = ?
		WHERE id = ?`,
		playlistID, playlistID, time.Now().Format(time.RFC3339), playlistID)
	return err
}

// GetTracksForPlaylist returns the playlist's tracks in position order.
func (d *SqliteStore) GetTracksForPlaylist(ctx context.Context, playlistID string) ([]*catalog.Track, error) {
	rows, err := d.db.QueryContext(ctx, trackSelect+` JOIN playlist_tracks pt ON pt.track_id = t.id WHERE pt.playlist_id = ? ORDER BY pt.position ASC`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []*catalog.Track{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// --- Play history -----------------------------------------------------------

// RecordPlay upserts the (user, track) history row, accumulating the play
// count.
func (d *SqliteStore) RecordPlay(ctx context.Context, userID, trackID string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO play_history (user_id, track_id, play_count, last_played_at) VALUES (?, ?, 1, ?)
		ON CONFLICT(user_id, track_id) DO UPDATE SET play_count = play_count + 1, last_played_at = excluded.last_played_at`,
		userID, trackID, time.Now().Format(time.RFC3339))
	return err
}

// ListForUser returns one page of the user's history, most recent first.
func (d *SqliteStore) ListForUser(ctx context.Context, userID string, page catalog.PageRequest) ([]*catalog.PlayHistory, error) {
	n := page.Normalize()
	rows, err := d.db.QueryContext(ctx, `
		SELECT ph.user_id, ph.track_id, COALESCE(t.title, ''), ph.play_count, COALESCE(ph.last_played_at, '')
		FROM play_history ph LEFT JOIN tracks t ON t.id = ph.track_id
		WHERE ph.user_id = ?
		ORDER BY ph.last_played_at DESC, ph.track_id ASC
		LIMIT ? OFFSET ?`,
		userID, n.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []*catalog.PlayHistory{}
	for rows.Next() {
		var h catalog.PlayHistory
		var played string
		if err := rows.Scan(&h.UserID, &h.TrackID, &h.TrackTitle, &h.PlayCount, &played); err != nil {
			return nil, err
		}
		h.LastPlayedAt, _ = time.Parse(time.RFC3339, played)
		history = append(history, &h)
	}
	return history, rows.Err()
}

// CountForUser counts the user's history rows.
func (d *SqliteStore) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM play_history WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// PlayedAbove returns the user's history joined with taste attributes, for
// rows with play counts strictly above minPlays.
func (d *SqliteStore) PlayedAbove(ctx context.Context, userID string, minPlays int) ([]*catalog.PlayedTrack, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT ph.track_id, COALESCE(t.genre, ''), COALESCE(t.artist_id, ''), ph.play_count
		FROM play_history ph JOIN tracks t ON t.id = ph.track_id
		WHERE ph.user_id = ? AND ph.play_count > ?
		ORDER BY ph.play_count DESC, ph.track_id ASC`,
		userID, minPlays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	played := []*catalog.PlayedTrack{}
	for rows.Next() {
		var p catalog.PlayedTrack
		if err := rows.Scan(&p.TrackID, &p.Genre, &p.ArtistID, &p.PlayCount); err != nil {
			return nil, err
		}
		played = append(played, &p)
	}
	return played, rows.Err()
}

// MostPlayedTracks returns the user's own track ids above minPlays, most
// played first with a stable id tiebreaker.
func (d *SqliteStore) MostPlayedTracks(ctx context.Context, userID string, minPlays, limit int) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT track_id FROM play_history
		WHERE user_id = ? AND play_count > ?
		ORDER BY play_count DESC, track_id ASC
		LIMIT ?`,
		userID, minPlays, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// TopTracksByTaste returns track ids matching any of the genres or artists,
// ordered by global play count.
func (d *SqliteStore) TopTracksByTaste(ctx context.Context, genres, artistIDs []string, limit int) ([]string, error) {
	if len(genres) == 0 && len(artistIDs) == 0 {
		return []string{}, nil
	}

	conditions := []string{}
	args := []any{}
	if len(genres) > 0 {
		conditions = append(conditions, "genre IN ("+placeholders(len(genres))+")")
		args = append(args, stringArgs(genres)...)
	}
	if len(artistIDs) > 0 {
		conditions = append(conditions, "artist_id IN ("+placeholders(len(artistIDs))+")")
		args = append(args, stringArgs(artistIDs)...)
	}
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, `
		SELECT id FROM tracks
		WHERE `+strings.Join(conditions, " OR ")+`
		ORDER BY play_count DESC, id ASC
		LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// CollaborativeTracks returns track ids played by users sharing at least one
// played track with this user, ordered by those users' accumulated play
// counts.
func (d *SqliteStore) CollaborativeTracks(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT ph.track_id
		FROM play_history ph
		WHERE ph.user_id != ? AND ph.user_id IN (
			SELECT DISTINCT ph2.user_id FROM play_history ph2
			WHERE ph2.user_id != ? AND ph2.track_id IN (
				SELECT track_id FROM play_history WHERE user_id = ?
			)
		)
		GROUP BY ph.track_id
		ORDER BY SUM(ph.play_count) DESC, ph.track_id ASC
		LIMIT ?`,
		userID, userID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Users ------------------------------------------------------------------

const userSelect = `SELECT u.id, u.name, u.email, u.active, COALESCE(u.created_at, '') FROM users u`

func scanUser(row interface{ Scan(...any) error }) (*catalog.User, error) {
	var u catalog.User
	var created string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Active, &created); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// CreateUser inserts a user row.
func (d *SqliteStore) CreateUser(ctx context.Context, user *catalog.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, active, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Active, user.CreatedAt.Format(time.RFC3339))
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, catalog.ErrConflict)
	}
	return err
}

// GetUser returns a single user, or ErrNotFound.
func (d *SqliteStore) GetUser(ctx context.Context, id string) (*catalog.User, error) {
	user, err := scanUser(d.db.QueryRowContext(ctx, userSelect+` WHERE u.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, catalog.ErrNotFound)
	}
	return user, err
}

// UpdateUser updates a user's stored fields.
func (d *SqliteStore) UpdateUser(ctx context.Context, user *catalog.User) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, active = ? WHERE id = ?`,
		user.Name, user.Email, user.Active, user.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, catalog.ErrConflict)
	}
	if err != nil {
		return err
	}
	return requireAffected(res, "user", user.ID)
}

// DeleteUser removes a user along with their history and owned playlists.
func (d *SqliteStore) DeleteUser(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM play_history WHERE user_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id IN (SELECT id FROM playlists WHERE owner_user_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE owner_user_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "user", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListUsers returns one page of users under the filter and sort.
func (d *SqliteStore) ListUsers(ctx context.Context, filter catalog.FilterSpec, sort catalog.SortSpec, page catalog.PageRequest) ([]*catalog.User, error) {
	where, args := compileFilter(userCols, nil, filter)
	n := page.Normalize()
	query := userSelect + where + orderClause(catalog.EntityUsers, "u", sort) + " LIMIT ? OFFSET ?"
	args = append(args, n.Limit, page.Offset())

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*catalog.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsers counts users matching the same filter as ListUsers.
func (d *SqliteStore) CountUsers(ctx context.Context, filter catalog.FilterSpec) (int, error) {
	where, args := compileFilter(userCols, nil, filter)
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&count)
	return count, err
}

// ListActive returns every active user, for the bulk recompute driver.
func (d *SqliteStore) ListActive(ctx context.Context) ([]*catalog.User, error) {
	rows, err := d.db.QueryContext(ctx, userSelect+` WHERE u.active = 1 ORDER BY u.created_at ASC, u.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*catalog.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, catalog.ErrNotFound)
	}
	return nil
}
