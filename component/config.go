// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jcodagnone/mapplaces/places"
	"github.com/jcodagnone/mapplaces/spatial"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Configuration defaults.
const (
	DefaultLanguage   = "en"
	DefaultMapHeight  = 30.0 // rem
	PlaceholderAPIKey = "YOUR_GOOGLE_MAPS_API_KEY"
)

// Config is the author's configuration of one component instance.
type Config struct {
	APIKey   string `json:"apiKey" mapstructure:"apiKey"`
	Language string `json:"language" mapstructure:"language"`
	// MapHeight is the map height in rem
	MapHeight                      float64             `json:"mapHeight" mapstructure:"-"`
	Items                          []places.PlaceQuery `json:"_items" mapstructure:"_items"`
	EnableCompletionOnMarkersClick bool                `json:"enableCompletionOnMarkersClick" mapstructure:"enableCompletionOnMarkersClick"`
}

// ConfigurationError reports a configuration the component cannot run with.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("mapHeight", DefaultMapHeight)
	v.SetDefault("enableCompletionOnMarkersClick", true)

	return v
}

// LoadConfig reads a JSON, YAML or TOML configuration file.
func LoadConfig(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return decode(v)
}

// ParseConfig reads a configuration in the given format (json, yaml...).
func ParseConfig(r io.Reader, format string) (Config, error) {
	v := newViper()
	v.SetConfigType(format)

	if err := v.ReadConfig(r); err != nil {
		return Config{}, fmt.Errorf("parsing configuration: %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	if len(cfg.Items) == 0 && v.IsSet("items") {
		if err := v.UnmarshalKey("items", &cfg.Items); err != nil {
			return Config{}, fmt.Errorf("decoding items: %w", err)
		}
	}

	if v.InConfig("enableCompletionOnMarkerClick") && !v.InConfig("enableCompletionOnMarkersClick") {
		cfg.EnableCompletionOnMarkersClick = v.GetBool("enableCompletionOnMarkerClick")
	}

	// A height that is not a number falls back to the default.
	if h, err := cast.ToFloat64E(v.Get("mapHeight")); err == nil {
		cfg.MapHeight = h
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.APIKey = strings.TrimSpace(c.APIKey)

	if c.Language == "" {
		c.Language = DefaultLanguage
	}

	if math.IsNaN(c.MapHeight) || c.MapHeight <= 0 {
		c.MapHeight = DefaultMapHeight
	}
}

// Validate checks that the component can load a map.
func (c Config) Validate() error {
	switch c.APIKey {
	case "":
		return &ConfigurationError{Field: "apiKey", Message: "a Google Maps API key is required"}
	case PlaceholderAPIKey:
		return &ConfigurationError{Field: "apiKey", Message: "replace the placeholder with a Google Maps API key"}
	}

	return nil
}

// MapSize returns the map size in pixels.
func (c Config) MapSize() (width, height int) {
	return spatial.DefaultWidth, int(math.Round(c.MapHeight * spatial.RemPixels))
}
