package rewind

import (
	"context"
	"sync"
	"testing"

	"vibecast/src/catalog"
)

type mockUserStore struct {
	active []*catalog.User
}

func (m *mockUserStore) CreateUser(ctx context.Context, user *catalog.User) error { return nil }

func (m *mockUserStore) GetUser(ctx context.Context, id string) (*catalog.User, error) {
	return nil, catalog.ErrNotFound
}

func (m *mockUserStore) UpdateUser(ctx context.Context, user *catalog.User) error { return nil }
func (m *mockUserStore) DeleteUser(ctx context.Context, id string) error          { return nil }

func (m *mockUserStore) ListUsers(ctx context.Context, filter catalog.FilterSpec, sort catalog.SortSpec, page catalog.PageRequest) ([]*catalog.User, error) {
	return nil, nil
}

func (m *mockUserStore) CountUsers(ctx context.Context, filter catalog.FilterSpec) (int, error) {
	return 0, nil
}

func (m *mockUserStore) ListActive(ctx context.Context) ([]*catalog.User, error) {
	return m.active, nil
}

// failingHistory fails PlayedAbove for a chosen set of users and behaves
// like the embedded mock for everyone else.
type failingHistory struct {
	mockHistoryStore
	mu       sync.Mutex
	failFor  map[string]bool
	seenUser map[string]bool
}

func (f *failingHistory) PlayedAbove(ctx context.Context, userID string, minPlays int) ([]*catalog.PlayedTrack, error) {
	f.mu.Lock()
	if f.seenUser == nil {
		f.seenUser = map[string]bool{}
	}
	f.seenUser[userID] = true
	fail := f.failFor[userID]
	f.mu.Unlock()
	if fail {
		return nil, catalog.ErrNotFound
	}
	return f.mockHistoryStore.played, nil
}

func activeUsers(ids ...string) []*catalog.User {
	users := make([]*catalog.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, &catalog.User{ID: id, Active: true})
	}
	return users
}

func TestRunAllPartialFailure(t *testing.T) {
	ps := newMockPlaylistStore()
	ps.playlists["tpl-1"] = &catalog.Playlist{ID: "tpl-1", Name: DefaultTemplateName, Kind: catalog.PlaylistKindSystem}
	hs := &failingHistory{
		mockHistoryStore: mockHistoryStore{
			played:     []*catalog.PlayedTrack{{TrackID: "t1", Genre: "Rock", ArtistID: "a1", PlayCount: 5}},
			mostPlayed: []string{"t1"},
		},
		failFor: map[string]bool{"u-2": true, "u-4": true},
	}
	s := newTestService(t, ps, hs)
	us := &mockUserStore{active: activeUsers("u-1", "u-2", "u-3", "u-4", "u-5")}
	d := NewDriver(s, us, testParams(), 0)

	report, err := d.RunAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("a pair failure must not fail the run: %v", err)
	}
	if report.Total != 5 {
		t.Errorf("total = %d, want 5", report.Total)
	}
	if report.Failed != 2 || len(report.Errors) != 2 {
		t.Errorf("failed = %d, errors = %d, want 2 each", report.Failed, len(report.Errors))
	}
	if report.Succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", report.Succeeded)
	}
	if report.Success {
		t.Error("partial failure must report success=false")
	}
	for _, pe := range report.Errors {
		if !hs.failFor[pe.UserID] {
			t.Errorf("unexpected failing user %q", pe.UserID)
		}
		if pe.Template != DefaultTemplateName {
			t.Errorf("error template = %q", pe.Template)
		}
	}

	// the healthy users must still have rebuilt playlists
	for _, userID := range []string{"u-1", "u-3", "u-5"} {
		owner := userID
		playlist, err := ps.FindByOwnerAndName(context.Background(), &owner, DefaultTemplateName)
		if err != nil {
			t.Errorf("user %s has no playlist: %v", userID, err)
			continue
		}
		if len(ps.tracks[playlist.ID]) == 0 {
			t.Errorf("user %s's playlist was not rebuilt", userID)
		}
	}
}

func TestRunAllAllSucceed(t *testing.T) {
	ps := newMockPlaylistStore()
	ps.playlists["tpl-1"] = &catalog.Playlist{ID: "tpl-1", Name: DefaultTemplateName, Kind: catalog.PlaylistKindSystem}
	hs := &mockHistoryStore{
		played:     []*catalog.PlayedTrack{{TrackID: "t1", Genre: "Rock", ArtistID: "a1", PlayCount: 5}},
		mostPlayed: []string{"t1"},
	}
	s := newTestService(t, ps, hs)
	us := &mockUserStore{active: activeUsers("u-1", "u-2")}
	d := NewDriver(s, us, testParams(), 0)

	var mu sync.Mutex
	var lastDone, lastTotal int
	report, err := d.RunAll(context.Background(), func(done, total int) {
		mu.Lock()
		lastDone, lastTotal = done, total
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	if !report.Success || report.Succeeded != 2 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if lastDone != 2 || lastTotal != 2 {
		t.Errorf("progress ended at %d/%d, want 2/2", lastDone, lastTotal)
	}
}

func TestRunAllNoUsers(t *testing.T) {
	ps := newMockPlaylistStore()
	ps.playlists["tpl-1"] = &catalog.Playlist{ID: "tpl-1", Name: DefaultTemplateName, Kind: catalog.PlaylistKindSystem}
	s := newTestService(t, ps, &mockHistoryStore{})
	d := NewDriver(s, &mockUserStore{}, testParams(), 0)

	report, err := d.RunAll(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Success || report.Total != 0 {
		t.Errorf("empty run must succeed trivially: %+v", report)
	}
}

// blockingHistory holds PlayedAbove until released, so a test can cancel the
// run while a pair is still in flight.
type blockingHistory struct {
	mockHistoryStore
	startedOnce sync.Once
	started     chan struct{}
	release     chan struct{}
}

func (b *blockingHistory) PlayedAbove(ctx context.Context, userID string, minPlays int) ([]*catalog.PlayedTrack, error) {
	b.startedOnce.Do(func() { close(b.started) })
	<-b.release
	return b.mockHistoryStore.played, nil
}

func TestRunAllCancelWithInFlightPair(t *testing.T) {
	ps := newMockPlaylistStore()
	ps.playlists["tpl-1"] = &catalog.Playlist{ID: "tpl-1", Name: DefaultTemplateName, Kind: catalog.PlaylistKindSystem}
	hs := &blockingHistory{
		mockHistoryStore: mockHistoryStore{
			played:     []*catalog.PlayedTrack{{TrackID: "t1", Genre: "Rock", ArtistID: "a1", PlayCount: 5}},
			mostPlayed: []string{"t1"},
		},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestService(t, ps, hs)
	us := &mockUserStore{active: activeUsers("u-1", "u-2", "u-3")}
	// rate 1/s: the first pair launches on the burst token and the second
	// pair's limiter wait is where cancellation lands
	d := NewDriver(s, us, testParams(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		report *Report
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		report, err := d.RunAll(ctx, nil)
		resCh <- result{report, err}
	}()

	<-hs.started
	cancel()
	close(hs.release)

	res := <-resCh
	if res.err == nil {
		t.Fatal("cancelled run must return an error")
	}
	if res.report.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1 (the in-flight pair finished)", res.report.Succeeded)
	}
	if res.report.Succeeded+res.report.Failed != res.report.Total {
		t.Errorf("report must not double count the in-flight pair: %+v", res.report)
	}
}

func TestRunAllCancelledContext(t *testing.T) {
	ps := newMockPlaylistStore()
	ps.playlists["tpl-1"] = &catalog.Playlist{ID: "tpl-1", Name: DefaultTemplateName, Kind: catalog.PlaylistKindSystem}
	s := newTestService(t, ps, &mockHistoryStore{})
	us := &mockUserStore{active: activeUsers("u-1", "u-2", "u-3")}
	// pacing slow enough that cancellation lands mid-run
	d := NewDriver(s, us, testParams(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := d.RunAll(ctx, nil)
	if err == nil {
		t.Fatal("cancelled run must return an error")
	}
	if report == nil {
		t.Fatal("cancelled run must still return the partial report")
	}
	if report.Succeeded+report.Failed != report.Total {
		t.Errorf("partial report does not account for every pair: %+v", report)
	}
}
