package models

import (
	"maps"
	"slices"
	"time"
)

// IDKind names a category of external identifier.
type IDKind string

const (
	IDSpotifyURI IDKind = "spotify_uri"
	IDSpotifyID  IDKind = "spotify_id"
	IDUPC        IDKind = "upc"
	IDISRC       IDKind = "isrc"
	IDMBID       IDKind = "mbid"
)

// IDPriority is the fixed lookup order for identifier kinds. The primary
// service's own identifiers come first; catalog and fingerprint codes are
// fallback cross-reference keys populated only by enrichment.
var IDPriority = []IDKind{IDSpotifyURI, IDSpotifyID, IDUPC, IDISRC, IDMBID}

// EntityIDs is a sparse record of identifier kind → value. Any subset of kinds
// may be present; empty values are treated as absent.
type EntityIDs map[IDKind]string

// Empty reports whether no identifier carries a usable value.
func (ids EntityIDs) Empty() bool {
	for _, v := range ids {
		if v != "" {
			return false
		}
	}
	return true
}

// Clone returns a copy of the identifier set.
func (ids EntityIDs) Clone() EntityIDs {
	if ids == nil {
		return nil
	}
	return maps.Clone(ids)
}

// Merge copies identifier kinds from other that are absent here. Existing
// values are never replaced; kinds where both sides carry a different
// non-empty value are returned as disagreements.
func (ids EntityIDs) Merge(other EntityIDs) (disagreements []IDKind) {
	for _, kind := range IDPriority {
		v := other[kind]
		if v == "" {
			continue
		}
		if cur := ids[kind]; cur == "" {
			ids[kind] = v
		} else if cur != v {
			disagreements = append(disagreements, kind)
		}
	}
	return disagreements
}

// Equal reports whether both identifier sets carry the same non-empty values.
func (ids EntityIDs) Equal(other EntityIDs) bool {
	for _, kind := range IDPriority {
		if ids[kind] != other[kind] {
			return false
		}
	}
	return true
}

// Sources records which services and files know about an entity.
type Sources struct {
	Spotify string   // canonical service URL
	Local   string   // matched local audio file path
	Online  []string // free-form labels, e.g. playlist names the entity was found in
}

// AddLabel appends a free-form provenance label, deduplicated.
func (s *Sources) AddLabel(label string) {
	if label == "" || slices.Contains(s.Online, label) {
		return
	}
	s.Online = append(s.Online, label)
}

// Merge fills absent source fields from other and unions labels.
func (s *Sources) Merge(other Sources) {
	if s.Spotify == "" {
		s.Spotify = other.Spotify
	}
	if s.Local == "" {
		s.Local = other.Local
	}
	for _, label := range other.Online {
		s.AddLabel(label)
	}
}

// Equal compares source records field by field.
func (s Sources) Equal(other Sources) bool {
	return s.Spotify == other.Spotify &&
		s.Local == other.Local &&
		slices.Equal(s.Online, other.Online)
}

// Kind identifies one of the three entity tiers. The set is closed; consumers
// switch exhaustively instead of inspecting types at runtime.
type Kind int

const (
	KindArtist Kind = iota
	KindAlbum
	KindTrack
)

// Tier returns the tier name used for folders, logs and progress updates.
func (k Kind) Tier() string {
	switch k {
	case KindArtist:
		return "artists"
	case KindAlbum:
		return "albums"
	case KindTrack:
		return "tracks"
	default:
		return ""
	}
}

// Kinds lists the tiers in dependency order: artists before albums before
// tracks, because album and track notes embed links into earlier tiers.
var Kinds = []Kind{KindArtist, KindAlbum, KindTrack}

// MusicEntity is the shared shape of Artist, Album and Track. Entities are
// constructed fresh on each fetch; nothing here survives across passes except
// through the vault.
type MusicEntity struct {
	Title     string
	IDs       EntityIDs
	Sources   Sources
	InLibrary bool
	Image     string     // best-fit cover art URL, optional
	AddedAt   *time.Time // when the entity was first saved remotely, optional
}

// Merge overlays fields from an enrichment result onto the entity. Fields
// present in other win, absent fields never clear existing values, and
// identifiers merge additively (first-seen values are kept on disagreement).
func (e *MusicEntity) Merge(other MusicEntity) (disagreements []IDKind) {
	if other.Title != "" {
		e.Title = other.Title
	}
	if other.Image != "" {
		e.Image = other.Image
	}
	if e.IDs == nil {
		e.IDs = EntityIDs{}
	}
	disagreements = e.IDs.Merge(other.IDs)
	e.Sources.Merge(other.Sources)
	if other.AddedAt != nil && (e.AddedAt == nil || other.AddedAt.Before(*e.AddedAt)) {
		e.AddedAt = other.AddedAt
	}
	return disagreements
}

// Artist is a music artist. No structure beyond the shared entity shape.
type Artist struct {
	MusicEntity
}

// Album is a release with ordered artist and track references.
type Album struct {
	MusicEntity
	Artists []SimplifiedArtist
	Tracks  []SimplifiedTrack
}

// Track is a single recording. Album is nil when unknown; when the source
// marks the release as a single, Single is set and the album relationship is
// suppressed entirely.
type Track struct {
	MusicEntity
	Artists []SimplifiedArtist
	Album   *SimplifiedAlbum
	Single  bool
}

// SimplifiedArtist is a minimal artist projection for relationship fields.
type SimplifiedArtist struct {
	Title string
	IDs   EntityIDs
}

// SimplifiedAlbum is a minimal album projection for relationship fields.
type SimplifiedAlbum struct {
	Title string
	IDs   EntityIDs
}

// SimplifiedTrack is a minimal track projection for relationship fields.
type SimplifiedTrack struct {
	Title string
	IDs   EntityIDs
}

// Entity is implemented by Artist, Album and Track.
type Entity interface {
	Kind() Kind
	Meta() *MusicEntity
}

func (a *Artist) Kind() Kind         { return KindArtist }
func (a *Artist) Meta() *MusicEntity { return &a.MusicEntity }

func (a *Album) Kind() Kind         { return KindAlbum }
func (a *Album) Meta() *MusicEntity { return &a.MusicEntity }

func (t *Track) Kind() Kind         { return KindTrack }
func (t *Track) Meta() *MusicEntity { return &t.MusicEntity }

// MergeRelated folds relationship fields from an enrichment result into the
// album. Stored references are kept; only absent ones are adopted.
func (a *Album) MergeRelated(other *Album) {
	if len(a.Artists) == 0 {
		a.Artists = other.Artists
	}
	if len(a.Tracks) == 0 {
		a.Tracks = other.Tracks
	}
}

// MergeRelated folds relationship fields from an enrichment result into the
// track. The album is adopted only when unknown; a canonical record that
// classifies the release as a single marks the track so the album link is
// suppressed on the next apply.
func (t *Track) MergeRelated(other *Track) {
	if len(t.Artists) == 0 {
		t.Artists = other.Artists
	}
	if t.Album == nil {
		t.Album = other.Album
	}
	if other.Single {
		t.Single = true
	}
}

// LinkedAlbum returns the album reference to persist for the track: nil when
// the release is a single (suppressed) or when the album is unknown. Callers
// re-derive this every update rather than caching it, since a later enrichment
// pass can learn the true album.
func (t *Track) LinkedAlbum() *SimplifiedAlbum {
	if t.Single {
		return nil
	}
	return t.Album
}

// NoteRef is a handle to the persisted note backing an entity. The vault owns
// the mapping from identifiers to note handles; the engine only ever touches
// notes through vault operations.
type NoteRef interface {
	Path() string // vault-relative path of the backing note
	Name() string // display name (filename without extension)
}

// MusicFile pairs an entity with the handle of its backing note.
type MusicFile[T Entity] struct {
	Entity T
	Note   NoteRef
}
