// Package browse serves the paginated, filterable read side of the catalog:
// album, track, playlist and user listings plus cross-entity search.
package browse

import (
	"context"
	"fmt"
	"log/slog"

	"vibecast/src/catalog"
	"vibecast/src/features/caching"
	"vibecast/src/infra/cache"
)

// ListParams carries the raw query parameters of a list request. Values are
// untrusted: the filter builder and sort allow-lists decide what actually
// reaches the store.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	// Entity-specific equality filters, keyed by field name.
	Filters map[string]string
	// Entity-specific membership filters, keyed by field name.
	SetFilters map[string][]string
}

func (p ListParams) pageRequest() catalog.PageRequest {
	return catalog.PageRequest{Page: p.Page, Limit: p.Limit}
}

// cacheKey serializes every parameter that affects the response.
func (p ListParams) cacheKey(entity catalog.Entity) string {
	params := map[string]string{
		"page":      fmt.Sprint(p.Page),
		"limit":     fmt.Sprint(p.Limit),
		"search":    p.Search,
		"sortBy":    p.SortBy,
		"sortOrder": p.SortOrder,
	}
	for field, value := range p.Filters {
		params["f."+field] = value
	}
	for field, values := range p.SetFilters {
		key := "f." + field
		for i, v := range values {
			if i == 0 {
				params[key] = v
			} else {
				params[key] += "," + v
			}
		}
	}
	return caching.ListKey(entity, params)
}

// SearchResult groups the matches of a cross-entity search.
type SearchResult struct {
	Albums    []*catalog.Album    `json:"albums"`
	Tracks    []*catalog.Track    `json:"tracks"`
	Playlists []*catalog.Playlist `json:"playlists"`
}

// Service is the domain service for the browse feature.
type Service struct {
	store         catalog.Store
	playlistStore catalog.PlaylistStore
	userStore     catalog.UserStore
	listCache     *cache.TTLCache
}

// NewService creates a new browse service. listCache may be nil when the
// cache is disabled.
func NewService(store catalog.Store, playlistStore catalog.PlaylistStore, userStore catalog.UserStore, listCache *cache.TTLCache) *Service {
	return &Service{
		store:         store,
		playlistStore: playlistStore,
		userStore:     userStore,
		listCache:     listCache,
	}
}

// searchFields are the text columns the free-text `search` parameter
// matches, per entity.
var searchFields = map[catalog.Entity][]string{
	catalog.EntityAlbums:    {"title"},
	catalog.EntityTracks:    {"title", "artist_name"},
	catalog.EntityPlaylists: {"name", "description"},
	catalog.EntityUsers:     {"name", "email"},
}

func buildFilter(entity catalog.Entity, p ListParams) (catalog.FilterSpec, error) {
	b := catalog.NewFilterBuilder(entity)
	b.Search(p.Search, searchFields[entity]...)
	for field, value := range p.Filters {
		b.Equals(field, value)
	}
	for field, values := range p.SetFilters {
		b.InSet(field, values)
	}
	return b.Build()
}

// ListAlbums returns one page of albums.
func (s *Service) ListAlbums(ctx context.Context, p ListParams) (catalog.PageResult[*catalog.Album], error) {
	filter, err := buildFilter(catalog.EntityAlbums, p)
	if err != nil {
		return catalog.PageResult[*catalog.Album]{}, err
	}
	sort := catalog.SortFor(catalog.EntityAlbums, p.SortBy, p.SortOrder)

	return caching.Through(ctx, s.listCache, p.cacheKey(catalog.EntityAlbums), func() (catalog.PageResult[*catalog.Album], error) {
		albums, err := s.store.ListAlbums(ctx, filter, sort, p.pageRequest())
		if err != nil {
			return catalog.PageResult[*catalog.Album]{}, err
		}
		total, err := s.store.CountAlbums(ctx, filter)
		if err != nil {
			return catalog.PageResult[*catalog.Album]{}, err
		}
		return catalog.NewPageResult(albums, total, p.pageRequest()), nil
	})
}

// ListTracks returns one page of tracks.
func (s *Service) ListTracks(ctx context.Context, p ListParams) (catalog.PageResult[*catalog.Track], error) {
	filter, err := buildFilter(catalog.EntityTracks, p)
	if err != nil {
		return catalog.PageResult[*catalog.Track]{}, err
	}
	sort := catalog.SortFor(catalog.EntityTracks, p.SortBy, p.SortOrder)

	return caching.Through(ctx, s.listCache, p.cacheKey(catalog.EntityTracks), func() (catalog.PageResult[*catalog.Track], error) {
		tracks, err := s.store.ListTracks(ctx, filter, sort, p.pageRequest())
		if err != nil {
			return catalog.PageResult[*catalog.Track]{}, err
		}
		total, err := s.store.CountTracks(ctx, filter)
		if err != nil {
			return catalog.PageResult[*catalog.Track]{}, err
		}
		return catalog.NewPageResult(tracks, total, p.pageRequest()), nil
	})
}

// ListPlaylists returns one page of playlists.
func (s *Service) ListPlaylists(ctx context.Context, p ListParams) (catalog.PageResult[*catalog.Playlist], error) {
	filter, err := buildFilter(catalog.EntityPlaylists, p)
	if err != nil {
		return catalog.PageResult[*catalog.Playlist]{}, err
	}
	sort := catalog.SortFor(catalog.EntityPlaylists, p.SortBy, p.SortOrder)

	return caching.Through(ctx, s.listCache, p.cacheKey(catalog.EntityPlaylists), func() (catalog.PageResult[*catalog.Playlist], error) {
		playlists, err := s.playlistStore.List(ctx, filter, sort, p.pageRequest())
		if err != nil {
			return catalog.PageResult[*catalog.Playlist]{}, err
		}
		total, err := s.playlistStore.Count(ctx, filter)
		if err != nil {
			return catalog.PageResult[*catalog.Playlist]{}, err
		}
		return catalog.NewPageResult(playlists, total, p.pageRequest()), nil
	})
}

// ListUsers returns one page of users.
func (s *Service) ListUsers(ctx context.Context, p ListParams) (catalog.PageResult[*catalog.User], error) {
	filter, err := buildFilter(catalog.EntityUsers, p)
	if err != nil {
		return catalog.PageResult[*catalog.User]{}, err
	}
	sort := catalog.SortFor(catalog.EntityUsers, p.SortBy, p.SortOrder)

	return caching.Through(ctx, s.listCache, p.cacheKey(catalog.EntityUsers), func() (catalog.PageResult[*catalog.User], error) {
		users, err := s.userStore.ListUsers(ctx, filter, sort, p.pageRequest())
		if err != nil {
			return catalog.PageResult[*catalog.User]{}, err
		}
		total, err := s.userStore.CountUsers(ctx, filter)
		if err != nil {
			return catalog.PageResult[*catalog.User]{}, err
		}
		return catalog.NewPageResult(users, total, p.pageRequest()), nil
	})
}

// GetAlbum returns a single album by id.
func (s *Service) GetAlbum(ctx context.Context, id string) (*catalog.Album, error) {
	return s.store.GetAlbum(ctx, id)
}

// GetTrack returns a single track by id.
func (s *Service) GetTrack(ctx context.Context, id string) (*catalog.Track, error) {
	return s.store.GetTrack(ctx, id)
}

// searchLimit bounds each entity group in a search response.
const searchLimit = 10

// Search runs the free-text query against albums, tracks and playlists and
// returns the grouped matches. An empty query is a validation error.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("missing search query: %w", catalog.ErrValidation)
	}

	key := caching.SearchKey(map[string]string{"q": query})
	return caching.Through(ctx, s.listCache, key, func() (*SearchResult, error) {
		page := catalog.PageRequest{Page: 1, Limit: searchLimit}
		result := &SearchResult{
			Albums:    []*catalog.Album{},
			Tracks:    []*catalog.Track{},
			Playlists: []*catalog.Playlist{},
		}

		albumFilter, err := buildFilter(catalog.EntityAlbums, ListParams{Search: query})
		if err != nil {
			return nil, err
		}
		if result.Albums, err = s.store.ListAlbums(ctx, albumFilter, catalog.DefaultSort(catalog.EntityAlbums), page); err != nil {
			return nil, err
		}

		trackFilter, err := buildFilter(catalog.EntityTracks, ListParams{Search: query})
		if err != nil {
			return nil, err
		}
		if result.Tracks, err = s.store.ListTracks(ctx, trackFilter, catalog.DefaultSort(catalog.EntityTracks), page); err != nil {
			return nil, err
		}

		playlistFilter, err := buildFilter(catalog.EntityPlaylists, ListParams{Search: query})
		if err != nil {
			return nil, err
		}
		if result.Playlists, err = s.playlistStore.List(ctx, playlistFilter, catalog.DefaultSort(catalog.EntityPlaylists), page); err != nil {
			return nil, err
		}

		slog.Debug("search completed", "query", query,
			"albums", len(result.Albums), "tracks", len(result.Tracks), "playlists", len(result.Playlists))
		return result, nil
	})
}
