package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// ReadConfig reads a json5 file and merges <name>.local.<ext> over it when
// present. It returns os.ErrNotExist only when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	allNotFound := true

	dirname := filepath.Dir(name)
	prefixname, ext := splitExt(filepath.Base(name))

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		if err := json5.Unmarshal(defaultFile, &out); err != nil {
			return out, fmt.Errorf("parse %s: %w", name, err)
		}
		allNotFound = false
	}

	localFilepath := filepath.Join(dirname, fmt.Sprintf("%s.local.%s", prefixname, ext))
	localFile, err := os.ReadFile(localFilepath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		var override T
		if err := json5.Unmarshal(localFile, &override); err != nil {
			return out, fmt.Errorf("parse %s: %w", localFilepath, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localFilepath)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

// FileConfig is the on-disk shape. Durations are Go duration strings such as
// "30s"; zero values leave the defaults untouched.
type FileConfig struct {
	Port     string `json:"port"`
	Mode     string `json:"mode"`
	Currency string `json:"currency"`

	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`

	Cache struct {
		Backend  string `json:"backend"`
		TTL      string `json:"ttl"`
		Capacity int    `json:"capacity"`
		Redis    struct {
			Host     string `json:"host"`
			Port     string `json:"port"`
			Password string `json:"password"`
			DB       int    `json:"db"`
		} `json:"redis"`
	} `json:"cache"`

	RateLimit struct {
		MaxRequests int    `json:"max_requests"`
		Window      string `json:"window"`
		MinDelay    string `json:"min_delay"`
	} `json:"rate_limit"`

	Retry struct {
		MaxAttempts   int     `json:"max_attempts"`
		InitialDelay  string  `json:"initial_delay"`
		MaxDelay      string  `json:"max_delay"`
		BackoffFactor float64 `json:"backoff_factor"`
	} `json:"retry"`

	HTTP struct {
		ConnectTimeout  string `json:"connect_timeout"`
		ResponseTimeout string `json:"response_timeout"`
		BodyTimeout     string `json:"body_timeout"`
		ScrapeTimeout   string `json:"scrape_timeout"`
	} `json:"http"`

	Upstream struct {
		SearchBaseURL  string `json:"search_base_url"`
		BookingBaseURL string `json:"booking_base_url"`
	} `json:"upstream"`
}
