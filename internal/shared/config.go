package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Downloads   DownloadsConfig   `toml:"downloads"`
	Extractor   ExtractorConfig   `toml:"extractor"`
	Search      SearchConfig      `toml:"search"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials for the client-credentials flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Complete reports whether both halves of the credential pair are present.
func (c SpotifyConfig) Complete() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Map returns the credentials in the shape services expect.
func (c SpotifyConfig) Map() map[string]string {
	return map[string]string{"client_id": c.ClientID, "client_secret": c.ClientSecret}
}

// DownloadsConfig controls where and how audio files are written.
type DownloadsConfig struct {
	Directory    string `toml:"directory"`
	AudioFormat  string `toml:"audio_format"`
	Transcode    bool   `toml:"transcode"`
	Tag          bool   `toml:"tag"`
	ReportFormat string `toml:"report_format"`
}

// ExtractorConfig selects and tunes the audio extraction backend.
type ExtractorConfig struct {
	Backend     string `toml:"backend"`
	Executable  string `toml:"executable"`
	AutoInstall bool   `toml:"auto_install"`
	Verbose     bool   `toml:"verbose"`
	HeadersPath string `toml:"headers_path"`
}

// SearchConfig tunes the video search.
type SearchConfig struct {
	RateLimit float64 `toml:"rate_limit"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	History      bool   `toml:"history"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads a TOML configuration file, layering it over [DefaultConfig]
// so that omitted keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks values that would otherwise fail late, mid-batch.
func (c *Config) Validate() error {
	switch c.Extractor.Backend {
	case "ytdlp", "native":
	default:
		return fmt.Errorf("%w: unknown extractor backend %q", ErrInvalidConfig, c.Extractor.Backend)
	}

	if strings.TrimSpace(c.Downloads.Directory) == "" {
		return fmt.Errorf("%w: downloads.directory is empty", ErrInvalidConfig)
	}
	if strings.Trim(c.Downloads.AudioFormat, ". ") == "" {
		return fmt.Errorf("%w: downloads.audio_format is empty", ErrInvalidConfig)
	}
	if c.Search.RateLimit < 0 {
		return fmt.Errorf("%w: search.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ApplyEnv overrides file values with environment variables when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("PLAYLISTDL_DOWNLOAD_DIR"); v != "" {
		c.Downloads.Directory = v
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveConfig encodes c as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, c *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
