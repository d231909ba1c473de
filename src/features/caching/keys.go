// Package caching holds the read-through cache discipline: key construction,
// the mutation-to-invalidation mapping, and the best-effort side effect
// runner. Cached payloads are serialized response bodies; correctness never
// depends on a cache hit.
package caching

import (
	"sort"
	"strings"

	"vibecast/src/catalog"
)

// Key namespaces. Invalidation works on these prefixes, so every cached
// entry must be constructed through the helpers below.
const (
	NamespaceAlbums    = "albums:"
	NamespaceTracks    = "tracks:"
	NamespacePlaylists = "playlists:"
	NamespaceUsers     = "users:"
	NamespaceSearch    = "search:"
)

// ListKey builds the cache key for a paginated list request. Params are
// serialized in sorted order so two requests differing only in query-string
// ordering share an entry.
func ListKey(entity catalog.Entity, params map[string]string) string {
	var b strings.Builder
	b.WriteString(string(entity))
	b.WriteString(":list:")
	writeSortedParams(&b, params)
	return b.String()
}

// PlaylistDetailKey builds the cache key for a single playlist with its
// track list.
func PlaylistDetailKey(playlistID string) string {
	return NamespacePlaylists + "detail:" + playlistID
}

// UserScopedKey builds a key inside a user's namespace, e.g. history pages
// or the user's rewind playlist. UserNamespace(userID) is its invalidation
// prefix.
func UserScopedKey(userID, section string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(UserNamespace(userID))
	b.WriteString(section)
	b.WriteString(":")
	writeSortedParams(&b, params)
	return b.String()
}

// UserNamespace returns the invalidation prefix covering every cached entry
// belonging to one user.
func UserNamespace(userID string) string {
	return NamespaceUsers + userID + ":"
}

// SearchKey builds the cache key for a cross-entity search request.
func SearchKey(params map[string]string) string {
	var b strings.Builder
	b.WriteString(NamespaceSearch)
	writeSortedParams(&b, params)
	return b.String()
}

func writeSortedParams(b *strings.Builder, params map[string]string) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteString("&")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
}
