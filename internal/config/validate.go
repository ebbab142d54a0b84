package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateUpstream(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	return c.validateModels()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q is not host:port: %w", c.Server.Bind, err)
	}
	return nil
}

func (c *Config) validateUpstream() error {
	if c.Upstream.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/modelgate/config.toml"
		}
		return fmt.Errorf("upstream.api_key is required. Set HF_API_KEY env var or edit %s (create with 'modelgate config init')", defaultPath)
	}
	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return fmt.Errorf("upstream.base_url %q must be an http(s) URL", c.Upstream.BaseURL)
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be >= 1")
	}
	if c.Retry.BaseDelaySeconds <= 0 {
		return errors.New("retry.base_delay must be positive (seconds)")
	}
	if c.Retry.Multiplier < 1 {
		return errors.New("retry.multiplier must be >= 1")
	}
	if c.Retry.MaxDelaySeconds < c.Retry.BaseDelaySeconds {
		return errors.New("retry.max_delay must be >= retry.base_delay")
	}
	return nil
}

func (c *Config) validateModels() error {
	// An empty catalog entry is legal for a task nobody uses; requests for
	// it fail at dispatch with a clear error rather than at startup.
	named := map[string]ModelList{
		"models.text_generation":  c.Models.TextGeneration,
		"models.embedding":        c.Models.Embedding,
		"models.text_to_speech":   c.Models.TextToSpeech,
		"models.speech_to_text":   c.Models.SpeechToText,
		"models.image_generation": c.Models.ImageGeneration,
		"models.image_edit":       c.Models.ImageEdit,
		"models.text_to_video":    c.Models.TextToVideo,
		"models.image_to_video":   c.Models.ImageToVideo,
	}
	for key, list := range named {
		if list.Default == "" && len(list.Fallbacks) > 0 {
			return fmt.Errorf("%s.default must be set when fallbacks are configured", key)
		}
	}
	return nil
}
