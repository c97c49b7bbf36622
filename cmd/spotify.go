package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v3"
	"tunedex/internal/models"
	"tunedex/internal/server"
	"tunedex/internal/services"
	"tunedex/internal/shared"
)

// callbackAddr derives the listen address from the configured redirect URI,
// falling back to the default local callback port.
func callbackAddr(redirectURI string) string {
	if u, err := url.Parse(redirectURI); err == nil && u.Host != "" {
		return u.Host
	}
	return "localhost:3000"
}

// SpotifyAuth runs the OAuth2 authorization-code flow and persists the token.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify credentials not configured, fill in credentials.spotify in config.toml", shared.ErrServiceUnavailable)
	}

	creds := r.config.Credentials.Spotify

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	authURL := r.spotify.GetAuthURL(state)

	flow := server.NewCallbackFlow(r.spotify.OAuthConfig(), callbackAddr(creds.RedirectURI), r.logger)

	r.writePlainln("Opening browser for Spotify authorization...")

	token, err := flow.Run(ctx, authURL, state)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	r.spotify.SetToken(ctx, token)

	tokenPath := creds.TokenPath
	if tokenPath == "" {
		tokenPath = "./spotify_token.json"
	}
	if err := services.SaveToken(tokenPath, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	r.logger.Info("token saved", "path", tokenPath)

	r.writePlain("✓ Spotify authentication successful\n")
	r.writePlain("Token saved to: %s\n", tokenPath)
	r.writePlain("Run 'tunedex sync full' to build your vault\n")

	return nil
}

// SpotifySaved lists the user's saved collection for one tier.
func (r *Runner) SpotifySaved(ctx context.Context, cmd *cli.Command) error {
	tier := cmd.StringArg("tier")
	if tier == "" {
		tier = "tracks"
	}

	if err := r.authenticate(ctx); err != nil {
		return err
	}

	opts := services.SourceOptions{RecentOnly: cmd.Bool("recent")}

	var items any
	var err error
	switch tier {
	case "artists":
		items, err = r.source.GetSavedArtists(ctx, opts)
	case "albums":
		items, err = r.source.GetSavedAlbums(ctx, opts)
	case "tracks":
		items, err = r.source.GetSavedTracks(ctx, opts)
	default:
		return fmt.Errorf("%w: unknown tier %q (want artists, albums or tracks)", shared.ErrInvalidArgument, tier)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch saved %s: %w", tier, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	switch list := items.(type) {
	case []*models.Artist:
		for _, a := range list {
			r.writePlain("%s\n", a.Title)
		}
		r.writePlain("%d artists\n", len(list))
	case []*models.Album:
		for _, a := range list {
			r.writePlain("%s - %s\n", artistLine(a.Artists), a.Title)
		}
		r.writePlain("%d albums\n", len(list))
	case []*models.Track:
		for _, t := range list {
			r.writePlain("%s - %s\n", artistLine(t.Artists), t.Title)
		}
		r.writePlain("%d tracks\n", len(list))
	}

	return nil
}

func artistLine(artists []models.SimplifiedArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Title)
	}
	if len(names) == 0 {
		return "Unknown Artist"
	}
	return strings.Join(names, ", ")
}
