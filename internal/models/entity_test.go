package models

import (
	"testing"
	"time"
)

func TestEntityIDsMerge(t *testing.T) {
	tc := []struct {
		name             string
		base             EntityIDs
		incoming         EntityIDs
		want             EntityIDs
		wantDisagreement bool
	}{
		{
			name:     "adds absent kinds",
			base:     EntityIDs{IDSpotifyURI: "spotify:track:a"},
			incoming: EntityIDs{IDISRC: "USRC17607839", IDMBID: "b1a9c0e9"},
			want:     EntityIDs{IDSpotifyURI: "spotify:track:a", IDISRC: "USRC17607839", IDMBID: "b1a9c0e9"},
		},
		{
			name:             "never replaces existing values",
			base:             EntityIDs{IDISRC: "USRC17607839"},
			incoming:         EntityIDs{IDISRC: "GBUM71029604"},
			want:             EntityIDs{IDISRC: "USRC17607839"},
			wantDisagreement: true,
		},
		{
			name:     "empty incoming values are skipped",
			base:     EntityIDs{IDSpotifyID: "42"},
			incoming: EntityIDs{IDSpotifyID: "", IDUPC: ""},
			want:     EntityIDs{IDSpotifyID: "42"},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			disagreements := tt.base.Merge(tt.incoming)
			if !tt.base.Equal(tt.want) {
				t.Errorf("Merge() result = %v, want %v", tt.base, tt.want)
			}
			if (len(disagreements) > 0) != tt.wantDisagreement {
				t.Errorf("Merge() disagreements = %v, want disagreement %v", disagreements, tt.wantDisagreement)
			}
		})
	}
}

func TestMusicEntityMerge(t *testing.T) {
	earlier := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC)

	e := MusicEntity{
		Title:   "Original",
		IDs:     EntityIDs{IDSpotifyURI: "spotify:album:x"},
		Image:   "https://img/orig.jpg",
		AddedAt: &later,
	}

	e.Merge(MusicEntity{
		Title:   "Enriched",
		IDs:     EntityIDs{IDUPC: "0060254728529"},
		Sources: Sources{Spotify: "https://open.spotify.com/album/x"},
		AddedAt: &earlier,
	})

	if e.Title != "Enriched" {
		t.Errorf("expected enriched title to win, got %s", e.Title)
	}
	if e.Image != "https://img/orig.jpg" {
		t.Errorf("absent enrichment field cleared existing image: %s", e.Image)
	}
	if e.IDs[IDUPC] != "0060254728529" || e.IDs[IDSpotifyURI] != "spotify:album:x" {
		t.Errorf("identifier merge not additive: %v", e.IDs)
	}
	if e.Sources.Spotify != "https://open.spotify.com/album/x" {
		t.Errorf("sources not merged: %+v", e.Sources)
	}
	if !e.AddedAt.Equal(earlier) {
		t.Errorf("AddedAt should keep the earliest date, got %v", e.AddedAt)
	}
}

func TestTrackLinkedAlbum(t *testing.T) {
	album := &SimplifiedAlbum{Title: "An Album", IDs: EntityIDs{IDSpotifyID: "alb1"}}

	tc := []struct {
		name  string
		track Track
		want  *SimplifiedAlbum
	}{
		{name: "album known", track: Track{Album: album}, want: album},
		{name: "single suppresses album", track: Track{Album: album, Single: true}, want: nil},
		{name: "album unknown", track: Track{}, want: nil},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.LinkedAlbum(); got != tt.want {
				t.Errorf("LinkedAlbum() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeRelated(t *testing.T) {
	album := &SimplifiedAlbum{Title: "Kid A", IDs: EntityIDs{IDSpotifyID: "al1"}}

	t.Run("track adopts absent album", func(t *testing.T) {
		track := Track{MusicEntity: MusicEntity{Title: "Idioteque"}}
		track.MergeRelated(&Track{Album: album, Artists: []SimplifiedArtist{{Title: "Radiohead"}}})

		if track.Album != album {
			t.Errorf("expected album adopted, got %v", track.Album)
		}
		if len(track.Artists) != 1 {
			t.Errorf("expected artists adopted, got %v", track.Artists)
		}
	})

	t.Run("track keeps existing album", func(t *testing.T) {
		track := Track{Album: album}
		track.MergeRelated(&Track{Album: &SimplifiedAlbum{Title: "Compilation"}})

		if track.Album != album {
			t.Errorf("existing album should win, got %v", track.Album)
		}
	})

	t.Run("single classification sticks", func(t *testing.T) {
		track := Track{Album: album}
		track.MergeRelated(&Track{Single: true})

		if !track.Single || track.LinkedAlbum() != nil {
			t.Errorf("reclassified single should suppress the album, got %v", track.LinkedAlbum())
		}
	})

	t.Run("album adopts absent relationships", func(t *testing.T) {
		a := Album{MusicEntity: MusicEntity{Title: "Kid A"}}
		a.MergeRelated(&Album{
			Artists: []SimplifiedArtist{{Title: "Radiohead"}},
			Tracks:  []SimplifiedTrack{{Title: "Idioteque"}},
		})

		if len(a.Artists) != 1 || len(a.Tracks) != 1 {
			t.Errorf("expected relationships adopted, got %+v", a)
		}
	})
}

func TestKindTier(t *testing.T) {
	want := map[Kind]string{KindArtist: "artists", KindAlbum: "albums", KindTrack: "tracks"}
	for kind, tier := range want {
		if got := kind.Tier(); got != tier {
			t.Errorf("Tier(%d) = %s, want %s", kind, got, tier)
		}
	}

	if len(Kinds) != 3 || Kinds[0] != KindArtist || Kinds[2] != KindTrack {
		t.Errorf("Kinds must list tiers in dependency order, got %v", Kinds)
	}
}

func TestSourcesAddLabel(t *testing.T) {
	var s Sources
	s.AddLabel("Road Trip")
	s.AddLabel("Road Trip")
	s.AddLabel("")
	s.AddLabel("Focus")

	if len(s.Online) != 2 {
		t.Errorf("expected 2 deduplicated labels, got %v", s.Online)
	}
}
