package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"modelgate/internal/inference"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener configuration.
type Server struct {
	Bind                string `toml:"bind"`
	ReadTimeoutSeconds  int    `toml:"read_timeout"`
	WriteTimeoutSeconds int    `toml:"write_timeout"`
	MaxImageBytes       int64  `toml:"max_image_bytes"`
	MaxAudioBytes       int64  `toml:"max_audio_bytes"`
}

// Upstream contains configuration for the inference provider.
type Upstream struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Retry contains configuration for per-model attempt pacing.
type Retry struct {
	MaxAttempts      int     `toml:"max_attempts"`
	BaseDelaySeconds float64 `toml:"base_delay"`
	Multiplier       float64 `toml:"multiplier"`
	MaxDelaySeconds  float64 `toml:"max_delay"`
}

// ModelList configures the default model and ordered fallbacks for one task.
type ModelList struct {
	Default   string   `toml:"default"`
	Fallbacks []string `toml:"fallbacks"`
}

// Models contains the per-task model catalogs.
type Models struct {
	TextGeneration  ModelList `toml:"text_generation"`
	Embedding       ModelList `toml:"embedding"`
	TextToSpeech    ModelList `toml:"text_to_speech"`
	SpeechToText    ModelList `toml:"speech_to_text"`
	ImageGeneration ModelList `toml:"image_generation"`
	ImageEdit       ModelList `toml:"image_edit"`
	TextToVideo     ModelList `toml:"text_to_video"`
	ImageToVideo    ModelList `toml:"image_to_video"`
}

// History contains configuration for the request history store.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for the gateway.
//
// Configuration sections by subsystem:
//   - Server: bind address, HTTP timeouts, and upload size limits
//   - Upstream: inference provider credentials and request timeout
//   - Retry: per-model attempt count and backoff pacing
//   - Models: default and fallback model catalogs per task
//   - History: optional sqlite request history
//   - Logging: log format, level, and directory
type Config struct {
	Server   Server   `toml:"server"`
	Upstream Upstream `toml:"upstream"`
	Retry    Retry    `toml:"retry"`
	Models   Models   `toml:"models"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/modelgate/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
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

	projectPath, err := filepath.Abs("modelgate.toml")
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

// Catalog converts the configured model lists into the task catalog the
// orchestrator consumes.
func (c *Config) Catalog() inference.Catalog {
	return inference.Catalog{
		inference.TaskTextGeneration:  c.Models.TextGeneration.models(),
		inference.TaskEmbedding:       c.Models.Embedding.models(),
		inference.TaskTextToSpeech:    c.Models.TextToSpeech.models(),
		inference.TaskSpeechToText:    c.Models.SpeechToText.models(),
		inference.TaskImageGeneration: c.Models.ImageGeneration.models(),
		inference.TaskImageEdit:       c.Models.ImageEdit.models(),
		inference.TaskTextToVideo:     c.Models.TextToVideo.models(),
		inference.TaskImageToVideo:    c.Models.ImageToVideo.models(),
	}
}

func (m ModelList) models() inference.Models {
	return inference.Models{
		Default:   strings.TrimSpace(m.Default),
		Fallbacks: append([]string{}, m.Fallbacks...),
	}
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
