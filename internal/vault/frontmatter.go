package vault

import (
	"slices"
	"time"

	"tunedex/internal/models"
)

// Frontmatter keys owned by the catalog schema. Everything else in a note's
// metadata belongs to the user and is never touched.
const (
	keyTitle     = "title"
	keyCreated   = "created"
	keyModified  = "modified"
	keyCover     = "cover"
	keyAliases   = "aliases"
	keyInLibrary = "in_library"
	keyMusicIDs  = "music_ids"
	keySources   = "music_sources"
	keyArtists   = "artists"
	keyTracks    = "tracks"
	keyAlbum     = "album"
)

const dateLayout = "2006-01-02"

// LinkFunc resolves an identifier set to the link target of an existing note.
type LinkFunc func(ids models.EntityIDs) (target string, ok bool)

func renderRef(title string, ids models.EntityIDs, resolve LinkFunc) string {
	if resolve != nil {
		if target, ok := resolve(ids); ok {
			return Link{Target: target, Label: title}.String()
		}
	}
	return title
}

// ApplyArtist overlays an artist's computed fields onto a note.
func ApplyArtist(n *Note, artist *models.Artist, now time.Time) {
	applyEntity(n, &artist.MusicEntity, now)
}

// ApplyAlbum overlays an album's computed fields onto a note. Artist
// references render as links when resolvable; the track listing is stored as
// bare titles.
func ApplyAlbum(n *Note, album *models.Album, resolveArtist LinkFunc, now time.Time) {
	applyEntity(n, &album.MusicEntity, now)

	refs := make([]string, 0, len(album.Artists))
	for _, a := range album.Artists {
		refs = append(refs, renderRef(a.Title, a.IDs, resolveArtist))
	}
	n.Metadata[keyArtists] = refs

	if len(album.Tracks) > 0 {
		titles := make([]string, 0, len(album.Tracks))
		for _, tr := range album.Tracks {
			titles = append(titles, tr.Title)
		}
		n.Metadata[keyTracks] = titles
	}
}

// ApplyTrack overlays a track's computed fields onto a note. The album
// reference is omitted entirely for single releases, and re-derived on every
// update so a release reclassified as a single drops its album link.
func ApplyTrack(n *Note, track *models.Track, resolveArtist, resolveAlbum LinkFunc, now time.Time) {
	applyEntity(n, &track.MusicEntity, now)

	refs := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		refs = append(refs, renderRef(a.Title, a.IDs, resolveArtist))
	}
	n.Metadata[keyArtists] = refs

	if album := track.LinkedAlbum(); album != nil {
		n.Metadata[keyAlbum] = renderRef(album.Title, album.IDs, resolveAlbum)
	} else {
		delete(n.Metadata, keyAlbum)
	}
}

func applyEntity(n *Note, meta *models.MusicEntity, now time.Time) {
	n.Metadata[keyTitle] = meta.Title

	created := NoteCreated(n)
	candidate := now
	if meta.AddedAt != nil {
		candidate = *meta.AddedAt
	}
	if created.IsZero() || candidate.Truncate(24*time.Hour).Before(created) {
		n.Metadata[keyCreated] = candidate.Format(dateLayout)
	}

	if meta.Image != "" {
		n.Metadata[keyCover] = meta.Image
	}

	aliases := stringSlice(n.Metadata[keyAliases])
	if meta.Title != "" && !slices.Contains(aliases, meta.Title) {
		aliases = append(aliases, meta.Title)
	}
	n.Metadata[keyAliases] = aliases

	// Library membership only rises here. Revocation happens solely in the
	// full-pass recompute via SetInLibrary.
	if _, present := n.Metadata[keyInLibrary]; !present || meta.InLibrary {
		n.Metadata[keyInLibrary] = NoteInLibrary(n) || meta.InLibrary
	}

	ids := NoteIDs(n)
	ids.Merge(meta.IDs)
	idMap := make(map[string]string, len(ids))
	for kind, v := range ids {
		if v != "" {
			idMap[string(kind)] = v
		}
	}
	n.Metadata[keyMusicIDs] = idMap

	sources := NoteSources(n)
	sources.Merge(meta.Sources)
	n.Metadata[keySources] = sourcesMap(sources)
}

func sourcesMap(s models.Sources) map[string]any {
	m := make(map[string]any)
	if s.Spotify != "" {
		m["spotify"] = s.Spotify
	}
	if s.Local != "" {
		m["local"] = s.Local
	}
	if len(s.Online) > 0 {
		m["online"] = append([]string(nil), s.Online...)
	}
	return m
}

// ApplyEntityFields overlays only the entity-level fields, leaving the
// relationship fields untouched. Used when refreshing notes whose stored
// references are healed separately.
func ApplyEntityFields(n *Note, meta *models.MusicEntity, now time.Time) {
	applyEntity(n, meta, now)
}

// MergeAlbumRelations overlays relationship fields learned through enrichment
// onto an album note. Stored references are never cleared; only absent ones
// are filled in.
func MergeAlbumRelations(n *Note, album *models.Album, resolveArtist LinkFunc) {
	if len(album.Artists) > 0 && len(ArtistRefs(n)) == 0 {
		refs := make([]string, 0, len(album.Artists))
		for _, a := range album.Artists {
			refs = append(refs, renderRef(a.Title, a.IDs, resolveArtist))
		}
		n.Metadata[keyArtists] = refs
	}
	if len(album.Tracks) > 0 && len(stringSlice(n.Metadata[keyTracks])) == 0 {
		titles := make([]string, 0, len(album.Tracks))
		for _, tr := range album.Tracks {
			titles = append(titles, tr.Title)
		}
		n.Metadata[keyTracks] = titles
	}
}

// MergeTrackRelations overlays relationship fields learned through enrichment
// onto a track note. A note stored without an album gains one here; a release
// the canonical record classifies as a single drops its album reference.
func MergeTrackRelations(n *Note, track *models.Track, resolveArtist, resolveAlbum LinkFunc) {
	if len(track.Artists) > 0 && len(ArtistRefs(n)) == 0 {
		refs := make([]string, 0, len(track.Artists))
		for _, a := range track.Artists {
			refs = append(refs, renderRef(a.Title, a.IDs, resolveArtist))
		}
		n.Metadata[keyArtists] = refs
	}

	if track.Single {
		delete(n.Metadata, keyAlbum)
		return
	}
	if album := track.LinkedAlbum(); album != nil && AlbumRef(n) == nil {
		n.Metadata[keyAlbum] = renderRef(album.Title, album.IDs, resolveAlbum)
	}
}

// NoteEntity reconstructs the entity-level fields stored in a note, the shape
// fed back through enrichment on a refresh.
func NoteEntity(n *Note) models.MusicEntity {
	return models.MusicEntity{
		Title:     NoteTitle(n),
		IDs:       NoteIDs(n),
		Sources:   NoteSources(n),
		InLibrary: NoteInLibrary(n),
	}
}

// NoteIDs extracts the stored identifier set.
func NoteIDs(n *Note) models.EntityIDs {
	ids := models.EntityIDs{}
	if typed, ok := n.Metadata[keyMusicIDs].(map[string]string); ok {
		for k, v := range typed {
			if v != "" {
				ids[models.IDKind(k)] = v
			}
		}
		return ids
	}
	for k, v := range mapValues(n.Metadata[keyMusicIDs]) {
		if s, ok := v.(string); ok && s != "" {
			ids[models.IDKind(k)] = s
		}
	}
	return ids
}

// NoteSources extracts the stored provenance record.
func NoteSources(n *Note) models.Sources {
	var s models.Sources
	raw := mapValues(n.Metadata[keySources])
	if raw == nil {
		return s
	}
	if v, ok := raw["spotify"].(string); ok {
		s.Spotify = v
	}
	if v, ok := raw["local"].(string); ok {
		s.Local = v
	}
	s.Online = stringSlice(raw["online"])
	return s
}

// mapValues normalizes a nested frontmatter mapping. The YAML decoder hands
// nested mappings back as Metadata when the note came from disk, while freshly
// applied fields hold plain maps.
func mapValues(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case Metadata:
		return m
	default:
		return nil
	}
}

// SetLocalSource records the matched local audio file path.
func SetLocalSource(n *Note, path string) {
	sources := NoteSources(n)
	sources.Local = path
	n.Metadata[keySources] = sourcesMap(sources)
}

// NoteInLibrary reports the stored library membership flag.
func NoteInLibrary(n *Note) bool {
	v, _ := n.Metadata[keyInLibrary].(bool)
	return v
}

// SetInLibrary overwrites library membership. Only the full-pass status
// recompute may lower it.
func SetInLibrary(n *Note, inLibrary bool) {
	n.Metadata[keyInLibrary] = inLibrary
}

// NoteTitle returns the stored display title, falling back to the filename.
func NoteTitle(n *Note) string {
	if v, ok := n.Metadata[keyTitle].(string); ok && v != "" {
		return v
	}
	return n.Name()
}

// NoteCreated returns the stored creation date, zero when absent or invalid.
func NoteCreated(n *Note) time.Time {
	v, ok := n.Metadata[keyCreated].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ArtistRefs returns the stored artist reference fields, parsed.
func ArtistRefs(n *Note) []Link {
	values := stringSlice(n.Metadata[keyArtists])
	links := make([]Link, 0, len(values))
	for _, v := range values {
		links = append(links, ParseLink(v))
	}
	return links
}

// SetArtistRefs replaces the stored artist reference fields.
func SetArtistRefs(n *Note, links []Link) {
	values := make([]string, 0, len(links))
	for _, l := range links {
		values = append(values, l.String())
	}
	n.Metadata[keyArtists] = values
}

// SetAlbumRef replaces the stored album reference.
func SetAlbumRef(n *Note, link Link) {
	n.Metadata[keyAlbum] = link.String()
}

// AlbumRef returns the stored album reference, nil when absent.
func AlbumRef(n *Note) *Link {
	v, ok := n.Metadata[keyAlbum].(string)
	if !ok || v == "" {
		return nil
	}
	link := ParseLink(v)
	return &link
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return slices.Clone(vals)
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
