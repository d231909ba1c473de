package rewind

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"vibecast/src/catalog"
	"vibecast/src/features/caching"
)

type mockPlaylistStore struct {
	mu           sync.Mutex
	playlists    map[string]*catalog.Playlist
	tracks       map[string][]string
	replaceCalls int
	conflictOnce bool
}

func newMockPlaylistStore() *mockPlaylistStore {
	return &mockPlaylistStore{
		playlists: map[string]*catalog.Playlist{},
		tracks:    map[string][]string{},
	}
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *mockPlaylistStore) Create(ctx context.Context, p *catalog.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflictOnce {
		m.conflictOnce = false
		// simulate the concurrent insert winning the race
		raced := *p
		raced.ID = "raced-" + p.ID
		m.playlists[raced.ID] = &raced
		return catalog.ErrConflict
	}
	for _, existing := range m.playlists {
		if existing.Name == p.Name && sameOwner(existing.OwnerUserID, p.OwnerUserID) {
			return catalog.ErrConflict
		}
	}
	m.playlists[p.ID] = p
	return nil
}

func (m *mockPlaylistStore) GetByID(ctx context.Context, id string) (*catalog.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playlists[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *mockPlaylistStore) Update(ctx context.Context, p *catalog.Playlist) error { return nil }
func (m *mockPlaylistStore) Delete(ctx context.Context, id string) error           { return nil }

func (m *mockPlaylistStore) List(ctx context.Context, filter catalog.FilterSpec, sort catalog.SortSpec, page catalog.PageRequest) ([]*catalog.Playlist, error) {
	return nil, nil
}

func (m *mockPlaylistStore) Count(ctx context.Context, filter catalog.FilterSpec) (int, error) {
	return 0, nil
}

func (m *mockPlaylistStore) FindByOwnerAndName(ctx context.Context, owner *string, name string) (*catalog.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.playlists {
		if p.Name == name && sameOwner(p.OwnerUserID, owner) {
			return p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *mockPlaylistStore) ListTemplates(ctx context.Context) ([]*catalog.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Playlist
	for _, p := range m.playlists {
		if p.OwnerUserID == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPlaylistStore) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks[playlistID] = append(m.tracks[playlistID], trackID)
	return nil
}

func (m *mockPlaylistStore) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	return nil
}

func (m *mockPlaylistStore) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks[playlistID] = append(m.tracks[playlistID], trackIDs...)
	return nil
}

func (m *mockPlaylistStore) RemoveTrackEverywhere(ctx context.Context, trackID string) (int, error) {
	return 0, nil
}

func (m *mockPlaylistStore) ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.playlists[playlistID]; !ok {
		return catalog.ErrNotFound
	}
	m.replaceCalls++
	m.tracks[playlistID] = append([]string{}, trackIDs...)
	return nil
}

func (m *mockPlaylistStore) GetTracksForPlaylist(ctx context.Context, playlistID string) ([]*catalog.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Track
	for _, id := range m.tracks[playlistID] {
		out = append(out, &catalog.Track{ID: id})
	}
	return out, nil
}

type mockHistoryStore struct {
	played        []*catalog.PlayedTrack
	mostPlayed    []string
	byTaste       []string
	collaborative []string

	playedErr  error
	gotGenres  []string
	gotArtists []string
}

func (m *mockHistoryStore) RecordPlay(ctx context.Context, userID, trackID string) error { return nil }

func (m *mockHistoryStore) ListForUser(ctx context.Context, userID string, page catalog.PageRequest) ([]*catalog.PlayHistory, error) {
	return nil, nil
}

func (m *mockHistoryStore) CountForUser(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (m *mockHistoryStore) PlayedAbove(ctx context.Context, userID string, minPlays int) ([]*catalog.PlayedTrack, error) {
	if m.playedErr != nil {
		return nil, m.playedErr
	}
	return m.played, nil
}

func (m *mockHistoryStore) MostPlayedTracks(ctx context.Context, userID string, minPlays, limit int) ([]string, error) {
	return m.mostPlayed, nil
}

func (m *mockHistoryStore) TopTracksByTaste(ctx context.Context, genres, artistIDs []string, limit int) ([]string, error) {
	m.gotGenres = genres
	m.gotArtists = artistIDs
	return m.byTaste, nil
}

func (m *mockHistoryStore) CollaborativeTracks(ctx context.Context, userID string, limit int) ([]string, error) {
	return m.collaborative, nil
}

func testTemplate() *catalog.Playlist {
	return &catalog.Playlist{
		ID:           "tpl-1",
		Name:         DefaultTemplateName,
		Kind:         catalog.PlaylistKindSystem,
		CreatedAt:    time.Now(),
		ModifiedDate: time.Now(),
	}
}

func testParams() Params {
	return Params{PlaylistSize: 10, ScoreMinPlays: 2, TopMinPlays: 5}
}

func newTestService(t *testing.T, ps *mockPlaylistStore, hs catalog.HistoryStore) *Service {
	t.Helper()
	runner := caching.NewRunner(16)
	t.Cleanup(runner.Close)
	return NewService(ps, hs, nil, caching.NewInvalidator(nil, nil, runner))
}

func TestRecomputeBuildsPlaylist(t *testing.T) {
	ps := newMockPlaylistStore()
	hs := &mockHistoryStore{
		played: []*catalog.PlayedTrack{
			{TrackID: "trackA", Genre: "Rock", ArtistID: "art-1", PlayCount: 6},
			{TrackID: "trackB", Genre: "Rock", ArtistID: "art-1", PlayCount: 3},
		},
		mostPlayed:    []string{"trackA"},
		byTaste:       []string{"trackC", "trackA", "trackD"},
		collaborative: []string{"trackB", "trackC"},
	}
	s := newTestService(t, ps, hs)

	if err := s.Recompute(context.Background(), "u-1", testTemplate(), testParams()); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	owner := "u-1"
	playlist, err := ps.FindByOwnerAndName(context.Background(), &owner, DefaultTemplateName)
	if err != nil {
		t.Fatalf("user instance was not created: %v", err)
	}
	if playlist.Kind != catalog.PlaylistKindSystem {
		t.Errorf("kind = %q, want system", playlist.Kind)
	}

	want := []string{"trackA", "trackC", "trackD", "trackB"}
	if !reflect.DeepEqual(ps.tracks[playlist.ID], want) {
		t.Errorf("tracks = %v, want %v", ps.tracks[playlist.ID], want)
	}
	if !reflect.DeepEqual(hs.gotGenres, []string{"Rock"}) {
		t.Errorf("taste genres = %v, want [Rock]", hs.gotGenres)
	}
	if !reflect.DeepEqual(hs.gotArtists, []string{"art-1"}) {
		t.Errorf("taste artists = %v, want [art-1]", hs.gotArtists)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	ps := newMockPlaylistStore()
	hs := &mockHistoryStore{
		played:        []*catalog.PlayedTrack{{TrackID: "t1", Genre: "Jazz", ArtistID: "a1", PlayCount: 4}},
		mostPlayed:    []string{"t1", "t2"},
		byTaste:       []string{"t3"},
		collaborative: []string{"t2", "t4"},
	}
	s := newTestService(t, ps, hs)

	if err := s.Recompute(context.Background(), "u-1", testTemplate(), testParams()); err != nil {
		t.Fatal(err)
	}
	owner := "u-1"
	playlist, _ := ps.FindByOwnerAndName(context.Background(), &owner, DefaultTemplateName)
	first := append([]string{}, ps.tracks[playlist.ID]...)

	if err := s.Recompute(context.Background(), "u-1", testTemplate(), testParams()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ps.tracks[playlist.ID], first) {
		t.Errorf("second run changed the list: %v vs %v", ps.tracks[playlist.ID], first)
	}
}

func TestRecomputeKeepsListOnEmptyHistory(t *testing.T) {
	ps := newMockPlaylistStore()
	owner := "u-1"
	ps.playlists["pl-1"] = &catalog.Playlist{ID: "pl-1", Name: DefaultTemplateName, OwnerUserID: &owner, Kind: catalog.PlaylistKindSystem}
	ps.tracks["pl-1"] = []string{"old-1", "old-2"}
	hs := &mockHistoryStore{}
	s := newTestService(t, ps, hs)

	if err := s.Recompute(context.Background(), "u-1", testTemplate(), testParams()); err != nil {
		t.Fatal(err)
	}
	if ps.replaceCalls != 0 {
		t.Errorf("replace ran %d times on empty history, want 0", ps.replaceCalls)
	}
	if !reflect.DeepEqual(ps.tracks["pl-1"], []string{"old-1", "old-2"}) {
		t.Errorf("existing list was modified: %v", ps.tracks["pl-1"])
	}
}

func TestRecomputeKeepsListOnEmptyUnion(t *testing.T) {
	ps := newMockPlaylistStore()
	owner := "u-1"
	ps.playlists["pl-1"] = &catalog.Playlist{ID: "pl-1", Name: DefaultTemplateName, OwnerUserID: &owner, Kind: catalog.PlaylistKindSystem}
	ps.tracks["pl-1"] = []string{"old-1"}
	hs := &mockHistoryStore{
		played: []*catalog.PlayedTrack{{TrackID: "t1", Genre: "Rock", ArtistID: "a1", PlayCount: 9}},
	}
	s := newTestService(t, ps, hs)

	if err := s.Recompute(context.Background(), "u-1", testTemplate(), testParams()); err != nil {
		t.Fatal(err)
	}
	if ps.replaceCalls != 0 {
		t.Errorf("replace ran with an empty candidate union")
	}
	if !reflect.DeepEqual(ps.tracks["pl-1"], []string{"old-1"}) {
		t.Errorf("existing list was cleared: %v", ps.tracks["pl-1"])
	}
}

func TestRecomputeSurvivesCreateRace(t *testing.T) {
	ps := newMockPlaylistStore()
	ps.conflictOnce = true
	hs := &mockHistoryStore{
		played:     []*catalog.PlayedTrack{{TrackID: "t1", Genre: "Rock", ArtistID: "a1", PlayCount: 5}},
		mostPlayed: []string{"t1"},
	}
	s := newTestService(t, ps, hs)

	if err := s.Recompute(context.Background(), "u-1", testTemplate(), testParams()); err != nil {
		t.Fatalf("recompute must re-read after a create conflict: %v", err)
	}
	if ps.replaceCalls != 1 {
		t.Errorf("replace ran %d times, want 1", ps.replaceCalls)
	}
	owner := "u-1"
	playlist, err := ps.FindByOwnerAndName(context.Background(), &owner, DefaultTemplateName)
	if err != nil {
		t.Fatalf("raced playlist not findable: %v", err)
	}
	if !reflect.DeepEqual(ps.tracks[playlist.ID], []string{"t1"}) {
		t.Errorf("tracks on raced playlist = %v, want [t1]", ps.tracks[playlist.ID])
	}
}

func TestRecomputePropagatesStoreError(t *testing.T) {
	ps := newMockPlaylistStore()
	boom := errors.New("db down")
	hs := &mockHistoryStore{playedErr: boom}
	s := newTestService(t, ps, hs)

	if err := s.Recompute(context.Background(), "u-1", testTemplate(), testParams()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped store error", err)
	}
}

func TestEnsureDefaultTemplate(t *testing.T) {
	ps := newMockPlaylistStore()
	s := newTestService(t, ps, &mockHistoryStore{})

	if err := s.EnsureDefaultTemplate(context.Background()); err != nil {
		t.Fatal(err)
	}
	templates, _ := ps.ListTemplates(context.Background())
	if len(templates) != 1 || templates[0].Name != DefaultTemplateName {
		t.Fatalf("templates = %v", templates)
	}

	// second call must not create a duplicate
	if err := s.EnsureDefaultTemplate(context.Background()); err != nil {
		t.Fatal(err)
	}
	templates, _ = ps.ListTemplates(context.Background())
	if len(templates) != 1 {
		t.Errorf("got %d templates after re-run, want 1", len(templates))
	}
}

func TestScoreTasteTopThreeWithTieBreak(t *testing.T) {
	played := []*catalog.PlayedTrack{
		{TrackID: "t1", Genre: "Rock", ArtistID: "a1"},
		{TrackID: "t2", Genre: "Rock", ArtistID: "a1"},
		{TrackID: "t3", Genre: "Jazz", ArtistID: "a2"},
		{TrackID: "t4", Genre: "Jazz", ArtistID: "a3"},
		{TrackID: "t5", Genre: "Blues", ArtistID: "a4"},
		{TrackID: "t6", Genre: "Ambient", ArtistID: "a5"},
	}
	genres, artists := scoreTaste(played)

	// Blues and Ambient tie at one play each; name order decides
	if !reflect.DeepEqual(genres, []string{"Jazz", "Rock", "Ambient"}) &&
		!reflect.DeepEqual(genres, []string{"Rock", "Jazz", "Ambient"}) {
		t.Errorf("genres = %v", genres)
	}
	if len(genres) != tasteTopN {
		t.Errorf("got %d genres, want %d", len(genres), tasteTopN)
	}
	if len(artists) != tasteTopN {
		t.Errorf("got %d artists, want %d", len(artists), tasteTopN)
	}
	if artists[0] != "a1" {
		t.Errorf("top artist = %q, want a1", artists[0])
	}
}

func TestScoreTasteSkipsEmptyAttributes(t *testing.T) {
	played := []*catalog.PlayedTrack{
		{TrackID: "t1", Genre: "", ArtistID: ""},
		{TrackID: "t2", Genre: "Rock", ArtistID: "a1"},
	}
	genres, artists := scoreTaste(played)
	if !reflect.DeepEqual(genres, []string{"Rock"}) {
		t.Errorf("genres = %v, want [Rock]", genres)
	}
	if !reflect.DeepEqual(artists, []string{"a1"}) {
		t.Errorf("artists = %v, want [a1]", artists)
	}
}

func TestDedupeUnion(t *testing.T) {
	got := dedupeUnion(10,
		[]string{"a", "b"},
		[]string{"b", "c", "a"},
		[]string{"d"},
	)
	if !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("union = %v", got)
	}
}

func TestDedupeUnionTruncates(t *testing.T) {
	got := dedupeUnion(3,
		[]string{"a", "b", "c", "d"},
		[]string{"e"},
	)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("union = %v, want first three", got)
	}
}

func TestDedupeUnionEmptyLists(t *testing.T) {
	if got := dedupeUnion(5, nil, []string{}, nil); len(got) != 0 {
		t.Errorf("union of empty lists = %v", got)
	}
}
