package events

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultSummarizerModel   = "gpt-4o-mini"
	defaultSummarizerTimeout = 30
	defaultMaxAttempts       = 3
)

type summarizerProfileConfig struct {
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
}

type enrichmentProfile struct {
	Version    int                     `toml:"version"`
	Summarizer summarizerProfileConfig `toml:"summarizer"`
}

func (p enrichmentProfile) timeout() time.Duration {
	return time.Duration(p.Summarizer.TimeoutSeconds) * time.Second
}

func defaultEnrichmentProfile() enrichmentProfile {
	return enrichmentProfile{
		Version: 1,
		Summarizer: summarizerProfileConfig{
			Model:          defaultSummarizerModel,
			TimeoutSeconds: defaultSummarizerTimeout,
			MaxAttempts:    defaultMaxAttempts,
		},
	}
}

// loadEnrichmentProfile reads the TOML profile; an empty path or a missing
// file falls back to defaults, a present but invalid file does not.
func loadEnrichmentProfile(profileFile string) (enrichmentProfile, error) {
	path := strings.TrimSpace(profileFile)
	if path == "" {
		return defaultEnrichmentProfile(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultEnrichmentProfile(), nil
		}
		return enrichmentProfile{}, err
	}

	var profile enrichmentProfile
	if err := toml.Unmarshal(raw, &profile); err != nil {
		return enrichmentProfile{}, err
	}
	if err := validateEnrichmentProfile(profile); err != nil {
		return enrichmentProfile{}, err
	}
	return fillProfileDefaults(profile), nil
}

func validateEnrichmentProfile(profile enrichmentProfile) error {
	if profile.Version != 1 {
		return errors.New("unsupported enrichment profile version: expected version = 1")
	}
	if profile.Summarizer.TimeoutSeconds < 0 {
		return errors.New("summarizer.timeout_seconds must not be negative")
	}
	if profile.Summarizer.MaxAttempts < 0 {
		return errors.New("summarizer.max_attempts must not be negative")
	}
	return nil
}

func fillProfileDefaults(profile enrichmentProfile) enrichmentProfile {
	if strings.TrimSpace(profile.Summarizer.Model) == "" {
		profile.Summarizer.Model = defaultSummarizerModel
	}
	if profile.Summarizer.TimeoutSeconds == 0 {
		profile.Summarizer.TimeoutSeconds = defaultSummarizerTimeout
	}
	if profile.Summarizer.MaxAttempts == 0 {
		profile.Summarizer.MaxAttempts = defaultMaxAttempts
	}
	return profile
}
