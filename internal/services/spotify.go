// Spotify API implementation of [LibrarySource]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"tunedex/internal/models"
	"tunedex/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Batch ceilings enforced by the Spotify API per endpoint.
	artistBatchLimit = 50
	albumBatchLimit  = 20
	trackBatchLimit  = 50

	defaultRecentWindow = 20
	fullPageLimit       = 50
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
	UPC  string `json:"upc"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Genres       []string       `json:"genres"`
	Images       []SpotifyImage `json:"images"`
	URI          string         `json:"uri"`
	ExternalURLs externalURLs   `json:"external_urls"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	AlbumType    string          `json:"album_type"` // album, single, compilation
	Artists      []SpotifyArtist `json:"artists"`
	ReleaseDate  string          `json:"release_date"`
	TotalTracks  int             `json:"total_tracks"`
	Images       []SpotifyImage  `json:"images"`
	URI          string          `json:"uri"`
	ExternalIDs  externalIDs     `json:"external_ids"`
	ExternalURLs externalURLs    `json:"external_urls"`
	Tracks       *struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks,omitempty"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        *SpotifyAlbum   `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	ExternalIDs  externalIDs     `json:"external_ids"`
	URI          string          `json:"uri"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// SpotifySavedAlbum represents an album saved in the user's library.
type SpotifySavedAlbum struct {
	AddedAt string       `json:"added_at"`
	Album   SpotifyAlbum `json:"album"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type savedAlbumsPage struct {
	Items []SpotifySavedAlbum `json:"items"`
	Next  *string             `json:"next"`
}

type savedTracksPage struct {
	Items []SpotifySavedTrack `json:"items"`
	Next  *string             `json:"next"`
}

type followedArtistsPage struct {
	Artists struct {
		Items   []SpotifyArtist `json:"items"`
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next *string `json:"next"`
	} `json:"artists"`
}

type playlistsPage struct {
	Items []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
	Next *string `json:"next"`
}

type playlistTracksPage struct {
	Items []struct {
		Track struct {
			ID string `json:"id"`
		} `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

// SpotifyService implements [LibrarySource] for the Spotify Web API.
// Uses [oauth2] for authentication and paces all requests through a [rate.Limiter].
type SpotifyService struct {
	config       *oauth2.Config
	token        *oauth2.Token
	httpClient   *http.Client
	limiter      *rate.Limiter
	baseURL      string
	recentWindow int
	tokenPath    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-library-read",
			"user-follow-read",
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:       config,
		httpClient:   http.DefaultClient,
		limiter:      rate.NewLimiter(rate.Limit(5), 1),
		baseURL:      spotifyBaseURL,
		recentWindow: defaultRecentWindow,
		tokenPath:    credentials["token_path"],
	}, nil
}

// SetRateLimit adjusts the request pacing (requests per second).
func (s *SpotifyService) SetRateLimit(rps float64) {
	if rps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// SetRecentWindow adjusts the page size used for recent-only fetches.
func (s *SpotifyService) SetRecentWindow(n int) {
	if n > 0 && n <= fullPageLimit {
		s.recentWindow = n
	}
}

// Authenticate performs OAuth2 authentication with Spotify.
//
// Accepts an "access_token" or "auth_code" in credentials; otherwise falls
// back to a token previously persisted at token_path.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.SetToken(ctx, &oauth2.Token{AccessToken: accessToken})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.SetToken(ctx, token)
		return nil
	}

	if s.tokenPath != "" {
		token, err := LoadToken(s.tokenPath)
		if err == nil {
			s.SetToken(ctx, token)
			return nil
		}
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// SetToken installs an OAuth2 token and an auto-refreshing HTTP client.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// Token returns the current OAuth2 token, nil before authentication.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the underlying OAuth2 config for callback servers.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// SetBaseURL overrides the API base URL, for tests.
func (s *SpotifyService) SetBaseURL(u string) {
	s.baseURL = u
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated, rate-limited GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	apiURL := endpoint
	if strings.HasPrefix(endpoint, "/") {
		apiURL = s.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// GetSavedArtists retrieves the artists the user follows. Followed artists
// page by cursor; a full fetch continues until Spotify stops issuing cursors.
func (s *SpotifyService) GetSavedArtists(ctx context.Context, opts SourceOptions) ([]*models.Artist, error) {
	limit := fullPageLimit
	if opts.RecentOnly {
		limit = s.recentWindow
	}

	var artists []*models.Artist
	after := ""
	for {
		endpoint := fmt.Sprintf("/me/following?type=artist&limit=%d", limit)
		if after != "" {
			endpoint += "&after=" + url.QueryEscape(after)
		}

		var page followedArtistsPage
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Artists.Items {
			artists = append(artists, normalizeArtist(item, true))
		}

		after = page.Artists.Cursors.After
		if opts.RecentOnly || after == "" || len(page.Artists.Items) == 0 {
			break
		}
	}

	return artists, nil
}

// GetSavedAlbums retrieves the albums saved in the user's library.
func (s *SpotifyService) GetSavedAlbums(ctx context.Context, opts SourceOptions) ([]*models.Album, error) {
	limit := fullPageLimit
	if opts.RecentOnly {
		limit = s.recentWindow
	}

	var albums []*models.Album
	offset := 0
	for {
		endpoint := fmt.Sprintf("/me/albums?limit=%d&offset=%d", limit, offset)

		var page savedAlbumsPage
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			album := normalizeAlbum(item.Album, true)
			album.AddedAt = parseAddedAt(item.AddedAt)
			albums = append(albums, album)
		}

		if opts.RecentOnly || page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += limit
	}

	return albums, nil
}

// GetSavedTracks retrieves the tracks saved in the user's library.
func (s *SpotifyService) GetSavedTracks(ctx context.Context, opts SourceOptions) ([]*models.Track, error) {
	limit := fullPageLimit
	if opts.RecentOnly {
		limit = s.recentWindow
	}

	var tracks []*models.Track
	offset := 0
	for {
		endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

		var page savedTracksPage
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			track := normalizeTrack(item.Track, true)
			track.AddedAt = parseAddedAt(item.AddedAt)
			tracks = append(tracks, track)
		}

		if opts.RecentOnly || page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += limit
	}

	return tracks, nil
}

// GetArtistsByID fetches artists in chunks of up to 50 identifiers.
func (s *SpotifyService) GetArtistsByID(ctx context.Context, ids []string) ([]*models.Artist, error) {
	var artists []*models.Artist

	for _, chunk := range chunkIDs(ids, artistBatchLimit) {
		endpoint := "/artists?ids=" + url.QueryEscape(strings.Join(chunk, ","))

		var response struct {
			Artists []*SpotifyArtist `json:"artists"`
		}
		if err := s.doRequest(ctx, endpoint, &response); err != nil {
			return nil, err
		}

		for _, a := range response.Artists {
			if a == nil {
				continue // unknown identifier
			}
			artists = append(artists, normalizeArtist(*a, false))
		}
	}

	return artists, nil
}

// GetAlbumsByID fetches albums in chunks of up to 20 identifiers.
func (s *SpotifyService) GetAlbumsByID(ctx context.Context, ids []string) ([]*models.Album, error) {
	var albums []*models.Album

	for _, chunk := range chunkIDs(ids, albumBatchLimit) {
		endpoint := "/albums?ids=" + url.QueryEscape(strings.Join(chunk, ","))

		var response struct {
			Albums []*SpotifyAlbum `json:"albums"`
		}
		if err := s.doRequest(ctx, endpoint, &response); err != nil {
			return nil, err
		}

		for _, a := range response.Albums {
			if a == nil {
				continue
			}
			albums = append(albums, normalizeAlbum(*a, false))
		}
	}

	return albums, nil
}

// GetTracksByID fetches tracks in chunks of up to 50 identifiers.
func (s *SpotifyService) GetTracksByID(ctx context.Context, ids []string) ([]*models.Track, error) {
	var tracks []*models.Track

	for _, chunk := range chunkIDs(ids, trackBatchLimit) {
		endpoint := "/tracks?ids=" + url.QueryEscape(strings.Join(chunk, ","))

		var response struct {
			Tracks []*SpotifyTrack `json:"tracks"`
		}
		if err := s.doRequest(ctx, endpoint, &response); err != nil {
			return nil, err
		}

		for _, tr := range response.Tracks {
			if tr == nil {
				continue
			}
			tracks = append(tracks, normalizeTrack(*tr, false))
		}
	}

	return tracks, nil
}

// GetPrimaryID returns the bare Spotify ID, derived from the URI when the
// numeric ID is absent.
func (s *SpotifyService) GetPrimaryID(ids models.EntityIDs) (string, bool) {
	if id := ids[models.IDSpotifyID]; id != "" {
		return id, true
	}
	if uri := ids[models.IDSpotifyURI]; uri != "" {
		if idx := strings.LastIndex(uri, ":"); idx >= 0 && idx < len(uri)-1 {
			return uri[idx+1:], true
		}
	}
	return "", false
}

// GetPlaylistLabels maps track IDs to the names of the user playlists that
// contain them.
func (s *SpotifyService) GetPlaylistLabels(ctx context.Context) (map[string][]string, error) {
	labels := make(map[string][]string)

	offset := 0
	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", fullPageLimit, offset)

		var page playlistsPage
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, pl := range page.Items {
			if err := s.collectPlaylistTracks(ctx, pl.ID, pl.Name, labels); err != nil {
				return nil, err
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += fullPageLimit
	}

	return labels, nil
}

func (s *SpotifyService) collectPlaylistTracks(ctx context.Context, playlistID, name string, labels map[string][]string) error {
	offset := 0
	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100&offset=%d", playlistID, offset)

		var page playlistTracksPage
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return err
		}

		for _, item := range page.Items {
			if item.Track.ID != "" {
				labels[item.Track.ID] = append(labels[item.Track.ID], name)
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			return nil
		}
		offset += 100
	}
}

// chunkIDs splits ids into batches of at most size.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > 0 {
		n := min(size, len(ids))
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}

func parseAddedAt(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}

func bestImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	// Spotify orders images widest first.
	return images[0].URL
}

func artistIDs(a SpotifyArtist) models.EntityIDs {
	ids := models.EntityIDs{}
	if a.URI != "" {
		ids[models.IDSpotifyURI] = a.URI
	}
	if a.ID != "" {
		ids[models.IDSpotifyID] = a.ID
	}
	return ids
}

func simplifyArtists(artists []SpotifyArtist) []models.SimplifiedArtist {
	out := make([]models.SimplifiedArtist, 0, len(artists))
	for _, a := range artists {
		out = append(out, models.SimplifiedArtist{Title: a.Name, IDs: artistIDs(a)})
	}
	return out
}

func normalizeArtist(a SpotifyArtist, inLibrary bool) *models.Artist {
	return &models.Artist{
		MusicEntity: models.MusicEntity{
			Title:     a.Name,
			IDs:       artistIDs(a),
			Sources:   models.Sources{Spotify: a.ExternalURLs.Spotify},
			InLibrary: inLibrary,
			Image:     bestImage(a.Images),
		},
	}
}

func normalizeAlbum(a SpotifyAlbum, inLibrary bool) *models.Album {
	ids := models.EntityIDs{}
	if a.URI != "" {
		ids[models.IDSpotifyURI] = a.URI
	}
	if a.ID != "" {
		ids[models.IDSpotifyID] = a.ID
	}
	if a.ExternalIDs.UPC != "" {
		ids[models.IDUPC] = a.ExternalIDs.UPC
	}

	album := &models.Album{
		MusicEntity: models.MusicEntity{
			Title:     a.Name,
			IDs:       ids,
			Sources:   models.Sources{Spotify: a.ExternalURLs.Spotify},
			InLibrary: inLibrary,
			Image:     bestImage(a.Images),
		},
		Artists: simplifyArtists(a.Artists),
	}

	if a.Tracks != nil {
		for _, tr := range a.Tracks.Items {
			trackIDs := models.EntityIDs{}
			if tr.URI != "" {
				trackIDs[models.IDSpotifyURI] = tr.URI
			}
			if tr.ID != "" {
				trackIDs[models.IDSpotifyID] = tr.ID
			}
			album.Tracks = append(album.Tracks, models.SimplifiedTrack{Title: tr.Name, IDs: trackIDs})
		}
	}

	return album
}

func normalizeTrack(t SpotifyTrack, inLibrary bool) *models.Track {
	ids := models.EntityIDs{}
	if t.URI != "" {
		ids[models.IDSpotifyURI] = t.URI
	}
	if t.ID != "" {
		ids[models.IDSpotifyID] = t.ID
	}
	if t.ExternalIDs.ISRC != "" {
		ids[models.IDISRC] = t.ExternalIDs.ISRC
	}

	track := &models.Track{
		MusicEntity: models.MusicEntity{
			Title:     t.Name,
			IDs:       ids,
			Sources:   models.Sources{Spotify: t.ExternalURLs.Spotify},
			InLibrary: inLibrary,
		},
		Artists: simplifyArtists(t.Artists),
	}

	if t.Album != nil {
		// Single-track releases are suppressed as album entities; the track
		// carries no album relationship at all in that case.
		if t.Album.AlbumType == "single" || t.Album.TotalTracks == 1 {
			track.Single = true
		} else {
			albumIDs := models.EntityIDs{}
			if t.Album.URI != "" {
				albumIDs[models.IDSpotifyURI] = t.Album.URI
			}
			if t.Album.ID != "" {
				albumIDs[models.IDSpotifyID] = t.Album.ID
			}
			track.Album = &models.SimplifiedAlbum{Title: t.Album.Name, IDs: albumIDs}
		}
		if track.Image == "" {
			track.Image = bestImage(t.Album.Images)
		}
	}

	return track
}

// LoadToken reads a persisted OAuth2 token from disk.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// SaveToken persists an OAuth2 token to disk with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}
