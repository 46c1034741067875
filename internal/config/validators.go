package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ConfigValidator validates a configuration
type ConfigValidator interface {
	Validate(config *Config) error
}

// BasicConfigValidator checks the sections every run mode depends on.
type BasicConfigValidator struct{}

// NewBasicConfigValidator creates a new basic config validator
func NewBasicConfigValidator() *BasicConfigValidator {
	return &BasicConfigValidator{}
}

// Validate implements ConfigValidator
func (v *BasicConfigValidator) Validate(config *Config) error {
	if err := v.validateCinemas(config.Cinemas); err != nil {
		return fmt.Errorf("cinemas config validation failed: %w", err)
	}

	if err := v.validateProxy(&config.Proxy); err != nil {
		return fmt.Errorf("proxy config validation failed: %w", err)
	}

	if err := v.validateRender(&config.Render); err != nil {
		return fmt.Errorf("render config validation failed: %w", err)
	}

	if err := v.validateTMDB(&config.TMDB); err != nil {
		return fmt.Errorf("tmdb config validation failed: %w", err)
	}

	return nil
}

// Validate runs the basic validator against c.
func (c *Config) Validate() error {
	return NewBasicConfigValidator().Validate(c)
}

func (v *BasicConfigValidator) validateCinemas(cinemas []CinemaConfig) error {
	if len(cinemas) == 0 {
		return fmt.Errorf("at least one cinema is required")
	}

	seen := make(map[string]bool, len(cinemas))
	for i, cinema := range cinemas {
		id := strings.ToLower(strings.TrimSpace(cinema.ID))
		if id == "" {
			return fmt.Errorf("cinema #%d has no id", i)
		}
		if seen[id] {
			return fmt.Errorf("duplicate cinema id: %s", cinema.ID)
		}
		seen[id] = true

		u, err := url.Parse(cinema.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("cinema %s has invalid url: %q", cinema.ID, cinema.URL)
		}

		validLayouts := []string{LayoutShared, LayoutRendered}
		if !v.contains(validLayouts, cinema.Layout) {
			return fmt.Errorf("cinema %s has invalid layout: %s, must be one of: %v", cinema.ID, cinema.Layout, validLayouts)
		}
	}
	return nil
}

// validateProxy validates proxy configuration
func (v *BasicConfigValidator) validateProxy(config *ProxyConfig) error {
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got: %d", config.Timeout)
	}

	if !config.Switch {
		return nil
	}

	if config.Proxy == "" {
		return fmt.Errorf("proxy enabled but no proxy address set")
	}

	validTypes := []string{"http", "https", "socks5", "socks5h"}
	if !v.contains(validTypes, config.Type) {
		return fmt.Errorf("invalid proxy type: %s, must be one of: %v", config.Type, validTypes)
	}

	if config.CACertFile != "" {
		if _, err := os.Stat(config.CACertFile); os.IsNotExist(err) {
			return fmt.Errorf("CA cert file does not exist: %s", config.CACertFile)
		}
	}

	return nil
}

func (v *BasicConfigValidator) validateRender(config *RenderConfig) error {
	if strings.TrimSpace(config.WaitSelector) == "" {
		return fmt.Errorf("wait_selector is required")
	}
	if config.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be positive, got: %d", config.NavigationTimeout)
	}
	if config.WaitTimeout <= 0 {
		return fmt.Errorf("wait_timeout must be positive, got: %d", config.WaitTimeout)
	}
	if config.SettleDelay < 0 {
		return fmt.Errorf("settle_delay_ms must be non-negative, got: %d", config.SettleDelay)
	}
	return nil
}

func (v *BasicConfigValidator) validateTMDB(config *TMDBConfig) error {
	if config.APIKey == "" {
		// lookup disabled, nothing else matters
		return nil
	}
	if _, err := url.Parse(config.BaseURL); err != nil || config.BaseURL == "" {
		return fmt.Errorf("invalid base_url: %q", config.BaseURL)
	}
	return nil
}

// contains checks if slice contains item
func (v *BasicConfigValidator) contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
