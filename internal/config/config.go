package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-shellwords"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RootDir  string `toml:"root_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// API contains daemon HTTP settings.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Project contains defaults applied when projects are created.
type Project struct {
	CreatedBy         string `toml:"created_by"`
	ConvertStartFrame int    `toml:"convert_start_frame"`
	ConvertEndFrame   int    `toml:"convert_end_frame"`
	// KeepSourceScene copies the Maya/Houdini source next to the exported USD
	// so renderers that need the native scene (Arnold) can still find it.
	KeepSourceScene bool `toml:"keep_source_scene"`
}

// Tool describes one DCC interpreter and the adapter script it runs.
type Tool struct {
	Python        string `toml:"python"`
	Adapter       string `toml:"adapter"`
	ExtraArgs     string `toml:"extra_args"`
	SuccessMarker string `toml:"success_marker"`
}

// Render contains defaults for new render requests.
type Render struct {
	Renderer     string `toml:"renderer"`
	FPS          int    `toml:"fps"`
	OutputFormat string `toml:"output_format"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains ntfy settings for job notifications.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-renders.
	// Empty disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for dccpipe.
//
// Configuration sections by subsystem:
//   - Paths: project root, logs and daemon state
//   - API: daemon bind address and bearer token
//   - Project: creation defaults (owner, conversion frame range)
//   - Maya / Houdini: interpreter and adapter locations
//   - Render: defaults for render requests
//   - Logging: log format, level, and retention
//   - Notifications: ntfy topic for finished jobs
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Project       Project       `toml:"project"`
	Maya          Tool          `toml:"maya"`
	Houdini       Tool          `toml:"houdini"`
	Render        Render        `toml:"render"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dccpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory, when
// present, is loaded into the environment before fallbacks are applied.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dccpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the project root, log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RootDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JobsDBPath returns the location of the job history database.
func (c *Config) JobsDBPath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// DaemonLockPath returns the single-instance lock used by dccpiped.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.StateDir, "dccpiped.lock")
}

// LogPath returns the main log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "dccpipe.log")
}

// Args returns the argument prefix that precedes every adapter subcommand:
// the parsed extra interpreter arguments followed by the adapter script.
func (t Tool) Args() ([]string, error) {
	var args []string
	if extra := strings.TrimSpace(t.ExtraArgs); extra != "" {
		parsed, err := shellwords.Parse(extra)
		if err != nil {
			return nil, fmt.Errorf("parse extra_args %q: %w", extra, err)
		}
		args = append(args, parsed...)
	}
	if adapter := strings.TrimSpace(t.Adapter); adapter != "" {
		args = append(args, adapter)
	}
	return args, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
