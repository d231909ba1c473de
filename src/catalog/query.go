package catalog

import (
	"fmt"
	"strings"
)

// Pagination limits. Limit is clamped to MaxPageLimit so a public caller can
// never request an unbounded fetch.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageRequest is the raw (page, limit) pair parsed from query parameters.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize coerces the request into valid bounds: page >= 1 and
// 1 <= limit <= MaxPageLimit, defaulting limit to DefaultPageLimit.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultPageLimit
	}
	if r.Limit > MaxPageLimit {
		r.Limit = MaxPageLimit
	}
	return r
}

// Offset returns the row offset for the normalized request.
func (r PageRequest) Offset() int {
	n := r.Normalize()
	return (n.Page - 1) * n.Limit
}

// Pagination is the envelope metadata returned with every paginated list.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// PageResult is the {data, pagination} envelope. Data never exceeds the
// normalized limit. Total comes from an independent count query sharing the
// data query's predicate; under concurrent writes the two may briefly
// disagree, which is accepted.
type PageResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPageResult builds the envelope. totalPages is ceil(total/limit).
func NewPageResult[T any](data []T, total int, req PageRequest) PageResult[T] {
	n := req.Normalize()
	if data == nil {
		data = []T{}
	}
	return PageResult[T]{
		Data: data,
		Pagination: Pagination{
			Total:      total,
			Page:       n.Page,
			Limit:      n.Limit,
			TotalPages: (total + n.Limit - 1) / n.Limit,
		},
	}
}

// Entity names the queryable collections. Filter fields and sort keys are
// validated against per-entity allow-lists.
type Entity string

const (
	EntityAlbums    Entity = "albums"
	EntityTracks    Entity = "tracks"
	EntityPlaylists Entity = "playlists"
	EntityUsers     Entity = "users"
)

// PredicateKind enumerates the supported predicate variants. Anything a
// store executes is one of these; illegal combinations are unrepresentable.
type PredicateKind int

const (
	PredicateEquals PredicateKind = iota
	PredicateContainsFold
	PredicateInSet
	PredicateHasRelated
)

// Predicate is one validated filter condition.
type Predicate struct {
	Kind     PredicateKind
	Field    string
	Value    string
	Values   []string
	Relation string
}

// FilterSpec is the validated internal representation of search/equality
// constraints. TextOr predicates are OR-combined with each other; the whole
// group is AND-combined with every predicate in And.
type FilterSpec struct {
	TextOr []Predicate
	And    []Predicate
}

// IsEmpty reports whether the spec constrains anything.
func (f FilterSpec) IsEmpty() bool {
	return len(f.TextOr) == 0 && len(f.And) == 0
}

// filterableFields lists the columns each entity accepts in predicates.
var filterableFields = map[Entity]map[string]bool{
	EntityAlbums:    {"title": true, "type": true, "artist_id": true, "release_date": true},
	EntityTracks:    {"title": true, "genre": true, "artist_id": true, "album_id": true, "artist_name": true},
	EntityPlaylists: {"name": true, "kind": true, "owner_user_id": true, "description": true},
	EntityUsers:     {"name": true, "email": true, "active": true},
}

// filterableRelations lists the relations each entity accepts in
// exists-predicates, mapped by the store onto EXISTS subqueries.
var filterableRelations = map[Entity]map[string]bool{
	EntityTracks:    {"playlist": true},
	EntityPlaylists: {"track": true},
}

// FilterBuilder accumulates predicates for one entity, validating fields at
// construction time. The first invalid call poisons the builder; Build
// returns the error.
type FilterBuilder struct {
	entity Entity
	spec   FilterSpec
	err    error
}

// NewFilterBuilder creates a builder for the given entity.
func NewFilterBuilder(entity Entity) *FilterBuilder {
	b := &FilterBuilder{entity: entity}
	if _, ok := filterableFields[entity]; !ok {
		b.err = fmt.Errorf("%w: unknown entity %q", ErrValidation, entity)
	}
	return b
}

func (b *FilterBuilder) checkField(field string) bool {
	if b.err != nil {
		return false
	}
	if !filterableFields[b.entity][field] {
		b.err = fmt.Errorf("%w: field %q is not filterable on %s", ErrValidation, field, b.entity)
		return false
	}
	return true
}

// Search adds a case-insensitive substring match against one or more text
// fields, OR-combined. Empty text is a no-op.
func (b *FilterBuilder) Search(text string, fields ...string) *FilterBuilder {
	text = strings.TrimSpace(text)
	if text == "" {
		return b
	}
	for _, f := range fields {
		if !b.checkField(f) {
			return b
		}
		b.spec.TextOr = append(b.spec.TextOr, Predicate{Kind: PredicateContainsFold, Field: f, Value: text})
	}
	return b
}

// Equals adds an exact-match condition. Empty values are a no-op so optional
// query parameters can be passed through unconditionally.
func (b *FilterBuilder) Equals(field, value string) *FilterBuilder {
	if value == "" {
		return b
	}
	if b.checkField(field) {
		b.spec.And = append(b.spec.And, Predicate{Kind: PredicateEquals, Field: field, Value: value})
	}
	return b
}

// InSet adds a membership condition. An empty set is a no-op.
func (b *FilterBuilder) InSet(field string, values []string) *FilterBuilder {
	if len(values) == 0 {
		return b
	}
	if b.checkField(field) {
		b.spec.And = append(b.spec.And, Predicate{Kind: PredicateInSet, Field: field, Values: values})
	}
	return b
}

// HasRelated adds an exists-condition on a related collection.
func (b *FilterBuilder) HasRelated(relation string, ids []string) *FilterBuilder {
	if len(ids) == 0 {
		return b
	}
	if b.err != nil {
		return b
	}
	if !filterableRelations[b.entity][relation] {
		b.err = fmt.Errorf("%w: relation %q is not filterable on %s", ErrValidation, relation, b.entity)
		return b
	}
	b.spec.And = append(b.spec.And, Predicate{Kind: PredicateHasRelated, Relation: relation, Values: ids})
	return b
}

// Build returns the accumulated spec, or the first validation error.
func (b *FilterBuilder) Build() (FilterSpec, error) {
	if b.err != nil {
		return FilterSpec{}, b.err
	}
	return b.spec, nil
}

// SortSpec is a validated ordering. Key is either a stored column from the
// entity's allow-list or a derived key the store maps onto a related-row
// count (albums/playlists total_tracks).
type SortSpec struct {
	Key            string
	Desc           bool
	ByRelatedCount bool
}

// sortableKeys lists the accepted sortBy values per entity.
var sortableKeys = map[Entity]map[string]bool{
	EntityAlbums:    {"title": true, "type": true, "release_date": true, "total_tracks": true},
	EntityTracks:    {"title": true, "play_count": true, "release_date": true, "created_at": true},
	EntityPlaylists: {"name": true, "modified_date": true, "total_tracks": true},
	EntityUsers:     {"name": true, "created_at": true},
}

// derivedSortKeys are sort keys that are not stored columns.
var derivedSortKeys = map[Entity]map[string]bool{
	EntityAlbums:    {"total_tracks": true},
	EntityPlaylists: {"total_tracks": true},
}

// defaultSort is the documented fallback order per entity.
var defaultSort = map[Entity]SortSpec{
	EntityAlbums:    {Key: "release_date", Desc: true},
	EntityTracks:    {Key: "created_at", Desc: true},
	EntityPlaylists: {Key: "modified_date", Desc: true},
	EntityUsers:     {Key: "created_at", Desc: true},
}

// SortFor validates raw sortBy/sortOrder values against the entity's
// allow-list. Any unrecognized key or direction falls back to the entity's
// default order. It never returns an error: malformed input from a public
// endpoint must not be able to fail a listing.
func SortFor(entity Entity, sortBy, sortOrder string) SortSpec {
	def := defaultSort[entity]
	if !sortableKeys[entity][sortBy] {
		return def
	}
	spec := SortSpec{Key: sortBy, ByRelatedCount: derivedSortKeys[entity][sortBy]}
	switch strings.ToLower(sortOrder) {
	case "asc":
		spec.Desc = false
	case "desc":
		spec.Desc = true
	default:
		return def
	}
	return spec
}

// DefaultSort returns the entity's documented default order.
func DefaultSort(entity Entity) SortSpec {
	return defaultSort[entity]
}
