package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Player   PlayerConfig   `mapstructure:"player"`
	UI       UIConfig       `mapstructure:"ui"`
	Build    BuildConfig    `mapstructure:"build"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CatalogConfig locates the static catalog artifacts
type CatalogConfig struct {
	Index       string `mapstructure:"index"`       // Path or URL of index.json
	Transcripts string `mapstructure:"transcripts"` // Path or URL of transcripts.json, empty to disable
	ShellCache  string `mapstructure:"shell_cache"` // Shell cache generation name
}

// StorageConfig holds local state locations
type StorageConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	Registry     string `mapstructure:"registry"`      // bbolt file name inside DataDir
	OfflineCache string `mapstructure:"offline_cache"` // Blob namespace name
}

// PlaybackConfig tunes progress and karaoke behavior
type PlaybackConfig struct {
	ProgressInterval float64       `mapstructure:"progress_interval"` // Seconds between throttled saves
	ResumeThreshold  float64       `mapstructure:"resume_threshold"`  // Seconds before resume is offered
	Lookahead        float64       `mapstructure:"lookahead"`         // Karaoke lookahead in seconds
	TickInterval     time.Duration `mapstructure:"tick_interval"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	StartFlag string   `mapstructure:"start_flag"` // e.g., "--start=" or "--start-time="
}

// UIConfig holds UI configuration
type UIConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
}

// BuildConfig drives the catalog builder
type BuildConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Output    string        `mapstructure:"output"` // Directory for index.json and transcripts.json
	Delay     time.Duration `mapstructure:"delay"`
	Retries   int           `mapstructure:"retries"`
	UserAgent string        `mapstructure:"user_agent"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dataDir := defaultDataPath()
	return &Config{
		Catalog: CatalogConfig{
			Index:       filepath.Join("data", "index.json"),
			Transcripts: filepath.Join("data", "transcripts.json"),
			ShellCache:  "vdp-shell-v1",
		},
		Storage: StorageConfig{
			DataDir:      dataDir,
			Registry:     "registry.db",
			OfflineCache: "vdp-offline-audio-v1",
		},
		Playback: PlaybackConfig{
			ProgressInterval: 8,
			ResumeThreshold:  5,
			Lookahead:        0.2,
			TickInterval:     250 * time.Millisecond,
		},
		Player: PlayerConfig{
			Command: "mpv",
			Args:    []string{"--no-video"},
		},
		UI: UIConfig{
			PageSize:       50,
			SearchDebounce: 200 * time.Millisecond,
		},
		Build: BuildConfig{
			BaseURL:   "https://venganzasdelpasado.com.ar",
			Output:    "data",
			Delay:     200 * time.Millisecond,
			Retries:   3,
			UserAgent: "vdp-archive/1.0",
		},
		Logging: LoggingConfig{
			File:  filepath.Join(dataDir, "vdp.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "vdp")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vdp")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "vdp")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "vdp")
	}
}

// DefaultConfigFile returns the path SaveConfig writes to by default
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("catalog.index", cfg.Catalog.Index)
	v.SetDefault("catalog.transcripts", cfg.Catalog.Transcripts)
	v.SetDefault("catalog.shell_cache", cfg.Catalog.ShellCache)
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.registry", cfg.Storage.Registry)
	v.SetDefault("storage.offline_cache", cfg.Storage.OfflineCache)
	v.SetDefault("playback.progress_interval", cfg.Playback.ProgressInterval)
	v.SetDefault("playback.resume_threshold", cfg.Playback.ResumeThreshold)
	v.SetDefault("playback.lookahead", cfg.Playback.Lookahead)
	v.SetDefault("playback.tick_interval", cfg.Playback.TickInterval)
	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)
	v.SetDefault("player.start_flag", cfg.Player.StartFlag)
	v.SetDefault("ui.page_size", cfg.UI.PageSize)
	v.SetDefault("ui.search_debounce", cfg.UI.SearchDebounce)
	v.SetDefault("build.base_url", cfg.Build.BaseURL)
	v.SetDefault("build.output", cfg.Build.Output)
	v.SetDefault("build.delay", cfg.Build.Delay)
	v.SetDefault("build.retries", cfg.Build.Retries)
	v.SetDefault("build.user_agent", cfg.Build.UserAgent)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	return v
}

// LoadConfig loads configuration from file and environment. An empty path
// searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. VDP_STORAGE_DATA_DIR
	v.SetEnvPrefix("VDP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Storage.DataDir = ExpandHome(cfg.Storage.DataDir)
	cfg.Logging.File = ExpandHome(cfg.Logging.File)
	return cfg, nil
}

// SaveConfig writes the configuration to path, or to DefaultConfigFile
// when path is empty.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Defaults carry every key in snake_case; durations are written as text
	v := newViper(cfg)
	v.Set("playback.tick_interval", cfg.Playback.TickInterval.String())
	v.Set("ui.search_debounce", cfg.UI.SearchDebounce.String())
	v.Set("build.delay", cfg.Build.Delay.String())

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// RegistryPath returns the bbolt registry file path
func (c *Config) RegistryPath() string {
	if filepath.IsAbs(c.Storage.Registry) {
		return c.Storage.Registry
	}
	return filepath.Join(c.Storage.DataDir, c.Storage.Registry)
}

// CacheDir returns the root holding the shell cache generation and the
// offline audio namespace side by side
func (c *Config) CacheDir() string {
	return filepath.Join(c.Storage.DataDir, "caches")
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
