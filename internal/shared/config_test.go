package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./tunedex.db" {
			t.Errorf("expected database path ./tunedex.db, got %s", config.Database.Path)
		}

		if config.Vault.Root != "./vault" {
			t.Errorf("expected vault root ./vault, got %s", config.Vault.Root)
		}

		if config.Vault.ArtistsFolder != "Artists" {
			t.Errorf("expected artists folder Artists, got %s", config.Vault.ArtistsFolder)
		}

		if config.Sync.RecentWindow != 20 {
			t.Errorf("expected recent window 20, got %d", config.Sync.RecentWindow)
		}

		if config.Sync.DebounceSeconds != 10 {
			t.Errorf("expected debounce 10s, got %d", config.Sync.DebounceSeconds)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("expected error when config file already exists")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("FolderFor", func(t *testing.T) {
		v := DefaultConfig().Vault
		tc := map[string]string{
			"artists": "Artists",
			"albums":  "Albums",
			"tracks":  "Tracks",
			"other":   "",
		}
		for tier, want := range tc {
			if got := v.FolderFor(tier); got != want {
				t.Errorf("FolderFor(%s) = %s, want %s", tier, got, want)
			}
		}
	})
}
