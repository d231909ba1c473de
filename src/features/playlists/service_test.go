package playlists

import (
	"context"
	"errors"
	"testing"
	"time"

	"vibecast/src/catalog"
	"vibecast/src/features/caching"
	"vibecast/src/infra/cache"
)

type mockPlaylistStore struct {
	playlists map[string]*catalog.Playlist
	tracks    map[string][]string
	removed   int
}

func newMockPlaylistStore() *mockPlaylistStore {
	return &mockPlaylistStore{
		playlists: map[string]*catalog.Playlist{},
		tracks:    map[string][]string{},
	}
}

func (m *mockPlaylistStore) Create(ctx context.Context, p *catalog.Playlist) error {
	if _, ok := m.playlists[p.ID]; ok {
		return catalog.ErrConflict
	}
	m.playlists[p.ID] = p
	return nil
}

func (m *mockPlaylistStore) GetByID(ctx context.Context, id string) (*catalog.Playlist, error) {
	p, ok := m.playlists[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *mockPlaylistStore) Update(ctx context.Context, p *catalog.Playlist) error {
	if _, ok := m.playlists[p.ID]; !ok {
		return catalog.ErrNotFound
	}
	m.playlists[p.ID] = p
	return nil
}

func (m *mockPlaylistStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.playlists[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(m.playlists, id)
	delete(m.tracks, id)
	return nil
}

func (m *mockPlaylistStore) List(ctx context.Context, filter catalog.FilterSpec, sort catalog.SortSpec, page catalog.PageRequest) ([]*catalog.Playlist, error) {
	return nil, nil
}

func (m *mockPlaylistStore) Count(ctx context.Context, filter catalog.FilterSpec) (int, error) {
	return 0, nil
}

func (m *mockPlaylistStore) FindByOwnerAndName(ctx context.Context, owner *string, name string) (*catalog.Playlist, error) {
	return nil, catalog.ErrNotFound
}

func (m *mockPlaylistStore) ListTemplates(ctx context.Context) ([]*catalog.Playlist, error) {
	return nil, nil
}

func (m *mockPlaylistStore) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	m.tracks[playlistID] = append(m.tracks[playlistID], trackID)
	return nil
}

func (m *mockPlaylistStore) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	kept := m.tracks[playlistID][:0]
	for _, id := range m.tracks[playlistID] {
		if id != trackID {
			kept = append(kept, id)
		}
	}
	m.tracks[playlistID] = kept
	return nil
}

func (m *mockPlaylistStore) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	m.tracks[playlistID] = append(m.tracks[playlistID], trackIDs...)
	return nil
}

func (m *mockPlaylistStore) RemoveTrackEverywhere(ctx context.Context, trackID string) (int, error) {
	return m.removed, nil
}

func (m *mockPlaylistStore) ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.tracks[playlistID] = append([]string{}, trackIDs...)
	return nil
}

func (m *mockPlaylistStore) GetTracksForPlaylist(ctx context.Context, playlistID string) ([]*catalog.Track, error) {
	var out []*catalog.Track
	for _, id := range m.tracks[playlistID] {
		out = append(out, &catalog.Track{ID: id})
	}
	return out, nil
}

type mockTrackStore struct {
	tracks map[string]*catalog.Track
}

func (m *mockTrackStore) AddAlbum(ctx context.Context, album *catalog.Album) error { return nil }

func (m *mockTrackStore) GetAlbum(ctx context.Context, id string) (*catalog.Album, error) {
	return nil, catalog.ErrNotFound
}

func (m *mockTrackStore) UpdateAlbum(ctx context.Context, album *catalog.Album) error { return nil }
func (m *mockTrackStore) DeleteAlbum(ctx context.Context, id string) error            { return nil }

func (m *mockTrackStore) ListAlbums(ctx context.Context, filter catalog.FilterSpec, sort catalog.SortSpec, page catalog.PageRequest) ([]*catalog.Album, error) {
	return nil, nil
}

func (m *mockTrackStore) CountAlbums(ctx context.Context, filter catalog.FilterSpec) (int, error) {
	return 0, nil
}

func (m *mockTrackStore) AddTrack(ctx context.Context, track *catalog.Track) error { return nil }

func (m *mockTrackStore) GetTrack(ctx context.Context, id string) (*catalog.Track, error) {
	t, ok := m.tracks[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return t, nil
}

func (m *mockTrackStore) UpdateTrack(ctx context.Context, track *catalog.Track) error { return nil }
func (m *mockTrackStore) DeleteTrack(ctx context.Context, id string) error            { return nil }

func (m *mockTrackStore) ListTracks(ctx context.Context, filter catalog.FilterSpec, sort catalog.SortSpec, page catalog.PageRequest) ([]*catalog.Track, error) {
	return nil, nil
}

func (m *mockTrackStore) CountTracks(ctx context.Context, filter catalog.FilterSpec) (int, error) {
	return 0, nil
}

func (m *mockTrackStore) IncrementPlayCount(ctx context.Context, trackID string) error { return nil }
func (m *mockTrackStore) AddArtist(ctx context.Context, artist *catalog.Artist) error  { return nil }

func (m *mockTrackStore) GetArtist(ctx context.Context, id string) (*catalog.Artist, error) {
	return nil, catalog.ErrNotFound
}

type testbed struct {
	playlists *mockPlaylistStore
	tracks    *mockTrackStore
	details   *cache.TTLCache
	runner    *caching.Runner
	service   *Service
}

func newTestbed(t *testing.T) *testbed {
	t.Helper()
	tb := &testbed{
		playlists: newMockPlaylistStore(),
		tracks:    &mockTrackStore{tracks: map[string]*catalog.Track{"t1": {ID: "t1"}, "t2": {ID: "t2"}}},
		details:   cache.New("t-pl-details", 64, time.Minute),
		runner:    caching.NewRunner(32),
	}
	t.Cleanup(tb.runner.Close)
	tb.service = NewService(tb.playlists, tb.tracks, tb.details, caching.NewInvalidator(nil, tb.details, tb.runner))
	return tb
}

func (tb *testbed) drain() {
	done := make(chan struct{})
	tb.runner.Submit(func() { close(done) })
	<-done
}

func TestCreatePlaylistOwned(t *testing.T) {
	tb := newTestbed(t)
	owner := "u-1"
	playlist, err := tb.service.CreatePlaylist(context.Background(), "Road Trip", "long drives", &owner)
	if err != nil {
		t.Fatal(err)
	}
	if playlist.Kind != catalog.PlaylistKindUser {
		t.Errorf("kind = %q, want user", playlist.Kind)
	}
	if playlist.OwnerUserID == nil || *playlist.OwnerUserID != "u-1" {
		t.Errorf("owner = %v", playlist.OwnerUserID)
	}
}

func TestCreatePlaylistTemplate(t *testing.T) {
	tb := newTestbed(t)
	playlist, err := tb.service.CreatePlaylist(context.Background(), "Discover", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if playlist.Kind != catalog.PlaylistKindSystem {
		t.Errorf("ownerless playlist kind = %q, want system", playlist.Kind)
	}
}

func TestCreatePlaylistEmptyName(t *testing.T) {
	tb := newTestbed(t)
	if _, err := tb.service.CreatePlaylist(context.Background(), "  ", "", nil); !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestGetPlaylistDetail(t *testing.T) {
	tb := newTestbed(t)
	tb.playlists.playlists["pl-1"] = &catalog.Playlist{ID: "pl-1", Name: "P"}
	tb.playlists.tracks["pl-1"] = []string{"t1", "t2"}

	detail, err := tb.service.GetPlaylist(context.Background(), "pl-1")
	if err != nil {
		t.Fatal(err)
	}
	if detail.Playlist.ID != "pl-1" || len(detail.Tracks) != 2 {
		t.Errorf("detail = %+v", detail)
	}

	if _, err := tb.service.GetPlaylist(context.Background(), "ghost"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAddTrackInvalidatesDetail(t *testing.T) {
	tb := newTestbed(t)
	owner := "u-1"
	tb.playlists.playlists["pl-1"] = &catalog.Playlist{ID: "pl-1", Name: "P", OwnerUserID: &owner}

	// warm the detail cache
	if _, err := tb.service.GetPlaylist(context.Background(), "pl-1"); err != nil {
		t.Fatal(err)
	}
	if err := tb.service.AddTrack(context.Background(), "pl-1", "t1"); err != nil {
		t.Fatal(err)
	}
	tb.drain()

	detail, err := tb.service.GetPlaylist(context.Background(), "pl-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.Tracks) != 1 {
		t.Errorf("stale detail served after AddTrack: %+v", detail.Tracks)
	}
}

func TestAddTrackUnknownTrack(t *testing.T) {
	tb := newTestbed(t)
	tb.playlists.playlists["pl-1"] = &catalog.Playlist{ID: "pl-1", Name: "P"}
	if err := tb.service.AddTrack(context.Background(), "pl-1", "ghost"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if len(tb.playlists.tracks["pl-1"]) != 0 {
		t.Error("nothing should have been added")
	}
}

func TestAddTracksValidatesEveryTrack(t *testing.T) {
	tb := newTestbed(t)
	tb.playlists.playlists["pl-1"] = &catalog.Playlist{ID: "pl-1", Name: "P"}

	if err := tb.service.AddTracks(context.Background(), "pl-1", nil); !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("empty list: err = %v, want ErrValidation", err)
	}
	if err := tb.service.AddTracks(context.Background(), "pl-1", []string{"t1", "ghost"}); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("unknown member: err = %v, want ErrNotFound", err)
	}
	if err := tb.service.AddTracks(context.Background(), "pl-1", []string{"t1", "t2"}); err != nil {
		t.Fatal(err)
	}
	if len(tb.playlists.tracks["pl-1"]) != 2 {
		t.Errorf("tracks = %v", tb.playlists.tracks["pl-1"])
	}
}

func TestUpdatePlaylist(t *testing.T) {
	tb := newTestbed(t)
	owner := "u-1"
	tb.playlists.playlists["pl-1"] = &catalog.Playlist{ID: "pl-1", Name: "Old", Kind: catalog.PlaylistKindUser, OwnerUserID: &owner}

	playlist, err := tb.service.UpdatePlaylist(context.Background(), "pl-1", "New", "desc")
	if err != nil {
		t.Fatal(err)
	}
	if playlist.Name != "New" || playlist.Description != "desc" {
		t.Errorf("playlist = %+v", playlist)
	}
	if _, err := tb.service.UpdatePlaylist(context.Background(), "ghost", "X", ""); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeletePlaylist(t *testing.T) {
	tb := newTestbed(t)
	tb.playlists.playlists["pl-1"] = &catalog.Playlist{ID: "pl-1", Name: "P"}

	if err := tb.service.DeletePlaylist(context.Background(), "pl-1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := tb.playlists.playlists["pl-1"]; ok {
		t.Error("playlist not deleted")
	}
	if err := tb.service.DeletePlaylist(context.Background(), "pl-1"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestRemoveTrackEverywhere(t *testing.T) {
	tb := newTestbed(t)
	tb.playlists.removed = 3
	tb.details.Set(caching.PlaylistDetailKey("pl-1"), []byte("d"))

	removed, err := tb.service.RemoveTrackEverywhere(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	tb.drain()
	if _, ok := tb.details.Get(caching.PlaylistDetailKey("pl-1")); ok {
		t.Error("coarse invalidation must drop every playlist detail entry")
	}
}

func TestRemoveTrackEverywhereNoMemberships(t *testing.T) {
	tb := newTestbed(t)
	tb.playlists.removed = 0
	tb.details.Set(caching.PlaylistDetailKey("pl-1"), []byte("d"))

	removed, err := tb.service.RemoveTrackEverywhere(context.Background(), "t1")
	if err != nil || removed != 0 {
		t.Fatalf("removed = %d, err = %v", removed, err)
	}
	tb.drain()
	if _, ok := tb.details.Get(caching.PlaylistDetailKey("pl-1")); !ok {
		t.Error("nothing changed; the cache must be left alone")
	}
}
