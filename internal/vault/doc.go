// Package vault persists music entities as markdown notes with YAML
// frontmatter, one folder per tier under a single vault root.
//
// [Note] is the unit of storage: user-owned frontmatter keys and markdown
// content survive every rewrite, while the catalog-owned keys are overlaid by
// [ApplyArtist], [ApplyAlbum] and [ApplyTrack]. Relationship fields render as
// wiki links through a [LinkFunc] when the target note exists, and as bare
// display strings otherwise.
//
// [Repository] owns the filesystem: tier folders, ignore globs, filename
// collision disambiguation, atomic writes and write skipping when nothing
// changed.
package vault
