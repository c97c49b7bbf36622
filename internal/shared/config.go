package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Vault       VaultConfig       `toml:"vault"`
	Local       LocalConfig       `toml:"local"`
	Database    DatabaseConfig    `toml:"database"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// VaultConfig describes where notes live and how they are named.
type VaultConfig struct {
	Root          string `toml:"root"`
	ArtistsFolder string `toml:"artists_folder"`
	AlbumsFolder  string `toml:"albums_folder"`
	TracksFolder  string `toml:"tracks_folder"`

	// IgnoreGlobs are doublestar patterns (relative to Root) excluded when
	// scanning existing notes, e.g. "templates/**".
	IgnoreGlobs []string `toml:"ignore_globs"`

	// DefaultFrontmatter is user-supplied YAML merged into every newly created
	// note. Unparsable text is treated as empty (a warning is logged).
	DefaultFrontmatter string `toml:"default_frontmatter"`
}

// LocalConfig points at the local audio library scanned for track matching.
type LocalConfig struct {
	// MusicDir is the root of an artist/album/track directory tree.
	MusicDir string `toml:"music_dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig contains tuning for reconciliation passes.
type SyncConfig struct {
	Workers         int     `toml:"workers"`           // parallel note writers per tier
	RateLimit       float64 `toml:"rate_limit"`        // remote requests per second
	RecentWindow    int     `toml:"recent_window"`     // items fetched by incremental passes
	DebounceSeconds int     `toml:"debounce_seconds"`  // minimum quiet interval between passes
	CollisionLimit  int     `toml:"collision_limit"`   // numeric-suffix attempts before giving up
	LockPath        string  `toml:"lock_path"`         // pass exclusivity lock file
}

// FolderFor returns the configured folder name for an entity tier.
func (v VaultConfig) FolderFor(tier string) string {
	switch tier {
	case "artists":
		return v.ArtistsFolder
	case "albums":
		return v.AlbumsFolder
	case "tracks":
		return v.TracksFolder
	default:
		return ""
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
