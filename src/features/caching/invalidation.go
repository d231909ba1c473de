package caching

import (
	"log/slog"

	"vibecast/src/infra/cache"
)

// Invalidator maps mutations onto cache key deletions. All invalidation is
// fire-and-forget through the side effect runner: a mutation's success never
// depends on the cache, and stale entries age out by TTL if a deletion is
// dropped.
type Invalidator struct {
	lists   *cache.TTLCache
	details *cache.TTLCache
	runner  *Runner
}

// NewInvalidator wires the two cache instances to the runner. Either cache
// may be nil when caching is disabled.
func NewInvalidator(lists, details *cache.TTLCache, runner *Runner) *Invalidator {
	return &Invalidator{lists: lists, details: details, runner: runner}
}

// AlbumsChanged drops every cached album list and search response.
func (i *Invalidator) AlbumsChanged() {
	i.drop(NamespaceAlbums, NamespaceSearch)
}

// TracksChanged drops track lists, search responses, and album lists, since
// album payloads carry derived track counts.
func (i *Invalidator) TracksChanged() {
	i.drop(NamespaceTracks, NamespaceAlbums, NamespaceSearch)
}

// PlaylistChanged drops the playlist's detail entry, all playlist lists,
// search responses (playlist matches are cached there too), and the owner's
// namespace when the playlist has one.
func (i *Invalidator) PlaylistChanged(playlistID string, ownerUserID *string) {
	prefixes := []string{PlaylistDetailKey(playlistID), NamespacePlaylists + "list:", NamespaceSearch}
	if ownerUserID != nil {
		prefixes = append(prefixes, UserNamespace(*ownerUserID))
	}
	i.drop(prefixes...)
}

// PlaylistsCoarse drops the whole playlist namespace. Used when a mutation
// touches an unknown set of playlists, such as removing a track from every
// playlist that contains it.
func (i *Invalidator) PlaylistsCoarse() {
	i.drop(NamespacePlaylists)
}

// UserChanged drops user lists and the user's own namespace.
func (i *Invalidator) UserChanged(userID string) {
	i.drop(NamespaceUsers+"list:", UserNamespace(userID))
}

// UserActivity drops the user's namespace only: history pages and the
// cached rewind playlist.
func (i *Invalidator) UserActivity(userID string) {
	i.drop(UserNamespace(userID))
}

func (i *Invalidator) drop(prefixes ...string) {
	if i.lists == nil && i.details == nil {
		return
	}
	i.runner.Submit(func() {
		removed := 0
		for _, prefix := range prefixes {
			if i.lists != nil {
				removed += i.lists.DeletePrefix(prefix)
			}
			if i.details != nil {
				removed += i.details.DeletePrefix(prefix)
			}
		}
		if removed > 0 {
			slog.Debug("cache invalidated", "prefixes", prefixes, "removed", removed)
		}
	})
}
