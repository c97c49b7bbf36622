package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"tunedex/internal/models"
)

func newTestService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	srv.SetBaseURL(server.URL)
	srv.SetRateLimit(1000)
	srv.token = &oauth2.Token{AccessToken: "test_token"}
	srv.httpClient = server.Client()

	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{
				"client_secret": "test_client_secret",
			})
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{
				"client_id": "test_client_id",
			})
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("WithAccessToken", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{
				"access_token": "test_access_token",
			})
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}

			if srv.token == nil || srv.token.AccessToken != "test_access_token" {
				t.Errorf("expected access token to be set, got %+v", srv.token)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if err == nil {
				t.Error("expected error for missing credentials")
			}
		})
	})

	t.Run("Service Interface", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ LibrarySource = srv
	})
}

func TestGetPrimaryID(t *testing.T) {
	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	tests := []struct {
		name   string
		ids    models.EntityIDs
		want   string
		wantOK bool
	}{
		{"bare id", models.EntityIDs{models.IDSpotifyID: "abc123"}, "abc123", true},
		{"derived from uri", models.EntityIDs{models.IDSpotifyURI: "spotify:track:xyz789"}, "xyz789", true},
		{"id preferred over uri", models.EntityIDs{models.IDSpotifyID: "abc123", models.IDSpotifyURI: "spotify:track:xyz789"}, "abc123", true},
		{"no spotify identifiers", models.EntityIDs{models.IDISRC: "USUM71703861"}, "", false},
		{"empty", models.EntityIDs{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := srv.GetPrimaryID(tt.ids)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("GetPrimaryID(%v) = (%q, %v), want (%q, %v)", tt.ids, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGetSavedTracks(t *testing.T) {
	t.Run("Full Fetch Follows Pagination", func(t *testing.T) {
		var requests []string
		srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests = append(requests, r.URL.RawQuery)
			offset := r.URL.Query().Get("offset")

			page := savedTracksPage{}
			if offset == "0" {
				next := "more"
				page.Next = &next
				page.Items = []SpotifySavedTrack{
					{AddedAt: "2024-03-01T09:00:00Z", Track: SpotifyTrack{
						ID: "t1", Name: "First", URI: "spotify:track:t1",
						ExternalIDs: externalIDs{ISRC: "ISRC0001"},
						Artists:     []SpotifyArtist{{ID: "a1", Name: "Artist One", URI: "spotify:artist:a1"}},
						Album:       &SpotifyAlbum{ID: "al1", Name: "Album One", URI: "spotify:album:al1", AlbumType: "album", TotalTracks: 10},
					}},
				}
			} else {
				page.Items = []SpotifySavedTrack{
					{AddedAt: "2024-02-01T09:00:00Z", Track: SpotifyTrack{
						ID: "t2", Name: "Second", URI: "spotify:track:t2",
						Album: &SpotifyAlbum{ID: "al2", Name: "Lone Single", AlbumType: "single", TotalTracks: 1},
					}},
				}
			}
			json.NewEncoder(w).Encode(page)
		}))

		tracks, err := srv.GetSavedTracks(context.Background(), SourceOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks across pages, got %d", len(tracks))
		}
		if len(requests) != 2 {
			t.Fatalf("expected 2 page requests, got %d", len(requests))
		}

		first := tracks[0]
		if first.Title != "First" {
			t.Errorf("expected title 'First', got %s", first.Title)
		}
		if !first.InLibrary {
			t.Error("saved tracks should be in library")
		}
		if first.IDs[models.IDISRC] != "ISRC0001" {
			t.Errorf("expected ISRC to be mapped, got %v", first.IDs)
		}
		if first.AddedAt == nil {
			t.Error("expected added_at to be parsed")
		}
		if first.Album == nil || first.Album.Title != "Album One" {
			t.Errorf("expected album link, got %+v", first.Album)
		}

		second := tracks[1]
		if !second.Single {
			t.Error("single release should set Single")
		}
		if second.Album != nil {
			t.Error("single release should carry no album reference")
		}
	})

	t.Run("Recent Only Stops After One Page", func(t *testing.T) {
		var requests int
		srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			next := "more"
			page := savedTracksPage{
				Next: &next,
				Items: []SpotifySavedTrack{
					{Track: SpotifyTrack{ID: "t1", Name: "Only"}},
				},
			}
			json.NewEncoder(w).Encode(page)
		}))
		srv.SetRecentWindow(20)

		tracks, err := srv.GetSavedTracks(context.Background(), SourceOptions{RecentOnly: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if requests != 1 {
			t.Errorf("expected a single page request, got %d", requests)
		}
		if len(tracks) != 1 {
			t.Errorf("expected 1 track, got %d", len(tracks))
		}
	})
}

func TestGetSavedArtists(t *testing.T) {
	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")

		var page followedArtistsPage
		if after == "" {
			page.Artists.Cursors.After = "a1"
			page.Artists.Items = []SpotifyArtist{
				{ID: "a1", Name: "Artist One", URI: "spotify:artist:a1",
					Images:       []SpotifyImage{{URL: "https://img/a1-640", Width: 640}, {URL: "https://img/a1-64", Width: 64}},
					ExternalURLs: externalURLs{Spotify: "https://open.spotify.com/artist/a1"}},
			}
		} else {
			page.Artists.Items = []SpotifyArtist{
				{ID: "a2", Name: "Artist Two", URI: "spotify:artist:a2"},
			}
		}
		json.NewEncoder(w).Encode(page)
	}))

	artists, err := srv.GetSavedArtists(context.Background(), SourceOptions{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(artists) != 2 {
		t.Fatalf("expected 2 artists across cursor pages, got %d", len(artists))
	}
	if artists[0].Image != "https://img/a1-640" {
		t.Errorf("expected widest image, got %s", artists[0].Image)
	}
	if artists[0].Sources.Spotify != "https://open.spotify.com/artist/a1" {
		t.Errorf("expected spotify source URL, got %s", artists[0].Sources.Spotify)
	}
}

func TestGetAlbumsByID(t *testing.T) {
	t.Run("Chunks Requests", func(t *testing.T) {
		var batchSizes []int
		srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ids := strings.Split(r.URL.Query().Get("ids"), ",")
			batchSizes = append(batchSizes, len(ids))

			albums := make([]*SpotifyAlbum, 0, len(ids))
			for _, id := range ids {
				albums = append(albums, &SpotifyAlbum{ID: id, Name: "Album " + id, ExternalIDs: externalIDs{UPC: "UPC-" + id}})
			}
			json.NewEncoder(w).Encode(map[string]any{"albums": albums})
		}))

		ids := make([]string, 25)
		for i := range ids {
			ids[i] = fmt.Sprintf("album%02d", i)
		}

		albums, err := srv.GetAlbumsByID(context.Background(), ids)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(albums) != 25 {
			t.Fatalf("expected 25 albums, got %d", len(albums))
		}
		if len(batchSizes) != 2 || batchSizes[0] != 20 || batchSizes[1] != 5 {
			t.Errorf("expected batches [20 5], got %v", batchSizes)
		}
		if albums[0].IDs[models.IDUPC] == "" {
			t.Error("expected UPC to be mapped")
		}
	})

	t.Run("Skips Unknown Identifiers", func(t *testing.T) {
		srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"albums": []*SpotifyAlbum{{ID: "known", Name: "Known"}, nil},
			})
		}))

		albums, err := srv.GetAlbumsByID(context.Background(), []string{"known", "bogus"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(albums) != 1 {
			t.Errorf("expected unknown identifier to be dropped, got %d albums", len(albums))
		}
	})
}

func TestGetPlaylistLabels(t *testing.T) {
	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/me/playlists") {
			w.Write([]byte(`{"items":[{"id":"p1","name":"Road Trip"},{"id":"p2","name":"Focus"}],"next":null}`))
			return
		}
		// Both playlists contain the same track.
		w.Write([]byte(`{"items":[{"track":{"id":"t1"}}],"next":null}`))
	}))

	labels, err := srv.GetPlaylistLabels(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got := labels["t1"]
	if len(got) != 2 {
		t.Fatalf("expected track in both playlists, got %v", got)
	}
	if got[0] != "Road Trip" || got[1] != "Focus" {
		t.Errorf("unexpected labels: %v", got)
	}
}

func TestTokenPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	token := &oauth2.Token{AccessToken: "persisted", RefreshToken: "refresh"}

	if err := SaveToken(path, token); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}

	loaded, err := LoadToken(path)
	if err != nil {
		t.Fatalf("failed to load token: %v", err)
	}

	if loaded.AccessToken != "persisted" || loaded.RefreshToken != "refresh" {
		t.Errorf("round-tripped token mismatch: %+v", loaded)
	}

	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadToken(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("expected error for missing token file")
		}
	})
}
