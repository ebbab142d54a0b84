package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	c.normalizeUpstream()
	c.normalizeRetry()
	c.normalizeModels()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = defaultReadTimeout
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = defaultWriteTimeout
	}
	if c.Server.MaxImageBytes <= 0 {
		c.Server.MaxImageBytes = defaultMaxImageBytes
	}
	if c.Server.MaxAudioBytes <= 0 {
		c.Server.MaxAudioBytes = defaultMaxAudioBytes
	}
}

func (c *Config) normalizeUpstream() {
	c.Upstream.APIKey = strings.TrimSpace(c.Upstream.APIKey)
	if c.Upstream.APIKey == "" {
		if value, ok := os.LookupEnv("HF_API_KEY"); ok {
			c.Upstream.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Upstream.APIKey = strings.TrimSpace(value)
		}
	}
	c.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(c.Upstream.BaseURL), "/")
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = defaultBaseURL
	}
	if c.Upstream.RequestTimeout <= 0 {
		c.Upstream.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaultRetryAttempts
	}
	if c.Retry.BaseDelaySeconds <= 0 {
		c.Retry.BaseDelaySeconds = defaultRetryBaseDelay
	}
	if c.Retry.Multiplier < 1 {
		c.Retry.Multiplier = defaultRetryMultiplier
	}
	if c.Retry.MaxDelaySeconds <= 0 {
		c.Retry.MaxDelaySeconds = defaultRetryMaxDelay
	}
}

func (c *Config) normalizeModels() {
	lists := []*ModelList{
		&c.Models.TextGeneration,
		&c.Models.Embedding,
		&c.Models.TextToSpeech,
		&c.Models.SpeechToText,
		&c.Models.ImageGeneration,
		&c.Models.ImageEdit,
		&c.Models.TextToVideo,
		&c.Models.ImageToVideo,
	}
	for _, list := range lists {
		list.Default = strings.TrimSpace(list.Default)
		fallbacks := make([]string, 0, len(list.Fallbacks))
		for _, model := range list.Fallbacks {
			model = strings.TrimSpace(model)
			if model != "" {
				fallbacks = append(fallbacks, model)
			}
		}
		list.Fallbacks = fallbacks
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	expanded, err := expandPath(c.History.Path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		expanded, err := expandPath(c.Logging.Dir)
		if err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
		c.Logging.Dir = expanded
	}
	return nil
}
