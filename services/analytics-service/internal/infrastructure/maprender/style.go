// Package maprender draws the report maps: an overview of a pipeline's
// defects and a zoomed view of a single defect, over optional web map tiles.
package maprender

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTileURL is the CartoDB Positron basemap.
const DefaultTileURL = "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png"

// Style configures map rendering. It is read once at startup.
type Style struct {
	// TileURL is a slippy-map template with {z}, {x}, {y} and optional {s}.
	// An empty TileURL disables basemaps.
	TileURL         string        `yaml:"tile_url"`
	Subdomains      []string      `yaml:"subdomains"`
	UserAgent       string        `yaml:"user_agent"`
	TileTimeout     time.Duration `yaml:"tile_timeout"`
	TileConcurrency int           `yaml:"tile_concurrency"`
	CacheSize       int           `yaml:"cache_size"`
	MaxTiles        int           `yaml:"max_tiles"`
	MaxZoom         int           `yaml:"max_zoom"`
	Background      string        `yaml:"background"`
	Overview        OverviewStyle `yaml:"overview"`
	Defect          DefectStyle   `yaml:"defect"`
	Placeholder     PanelStyle    `yaml:"placeholder"`
	Colors          Colors        `yaml:"colors"`
}

// OverviewStyle sizes the pipeline overview map.
type OverviewStyle struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	// Padding is the margin around the defects as a share of their extent.
	Padding float64 `yaml:"padding"`
	// MinSpanMeters keeps a lone defect from zooming in indefinitely.
	MinSpanMeters float64 `yaml:"min_span_m"`
}

// DefectStyle sizes the single-defect map.
type DefectStyle struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Zoom         int     `yaml:"zoom"`
	BufferMeters float64 `yaml:"buffer_m"`
}

// PanelStyle sizes the placeholder image.
type PanelStyle struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Text   string `yaml:"text"`
}

// Colors holds hex colours (#rgb or #rrggbb, optional alpha).
type Colors struct {
	Route    string `yaml:"route"`
	Critical string `yaml:"critical"`
	Medium   string `yaml:"medium"`
	Low      string `yaml:"low"`
	Marker   string `yaml:"marker"`
	Outline  string `yaml:"outline"`
	Text     string `yaml:"text"`
	Footer   string `yaml:"footer"`
}

// DefaultStyle returns the built-in style.
func DefaultStyle() Style {
	return Style{
		TileURL:         DefaultTileURL,
		Subdomains:      []string{"a", "b", "c", "d"},
		UserAgent:       "integrity-analytics/1.0",
		TileTimeout:     10 * time.Second,
		TileConcurrency: 8,
		CacheSize:       1024,
		MaxTiles:        64,
		MaxZoom:         18,
		Background:      "#ffffff",
		Overview: OverviewStyle{
			Width:         1000,
			Height:        600,
			Title:         "Pipeline Route & Defects",
			Padding:       0.1,
			MinSpanMeters: 1000,
		},
		Defect: DefectStyle{
			Width:        600,
			Height:       400,
			Zoom:         15,
			BufferMeters: 500,
		},
		Placeholder: PanelStyle{
			Width:  500,
			Height: 200,
			Text:   "No geolocation data available",
		},
		Colors: Colors{
			Route:    "#0000ff80",
			Critical: "#d32f2f",
			Medium:   "#f57c00",
			Low:      "#388e3c",
			Marker:   "#ff0000",
			Outline:  "#ffffff",
			Text:     "#000000",
			Footer:   "#808080",
		},
	}
}

// LoadStyle reads a YAML style file over the defaults. An empty path returns
// DefaultStyle.
func LoadStyle(path string) (Style, error) {
	style := DefaultStyle()
	if path == "" {
		return style, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Style{}, fmt.Errorf("read map style: %w", err)
	}
	if err := yaml.Unmarshal(data, &style); err != nil {
		return Style{}, fmt.Errorf("parse map style %s: %w", path, err)
	}
	if err := style.Validate(); err != nil {
		return Style{}, fmt.Errorf("map style %s: %w", path, err)
	}
	return style, nil
}

// Validate checks sizes, limits and colours.
func (s Style) Validate() error {
	var errs []error
	positive := map[string]int{
		"overview.width":     s.Overview.Width,
		"overview.height":    s.Overview.Height,
		"defect.width":       s.Defect.Width,
		"defect.height":      s.Defect.Height,
		"placeholder.width":  s.Placeholder.Width,
		"placeholder.height": s.Placeholder.Height,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if s.TileURL != "" {
		if !strings.Contains(s.TileURL, "{z}") || !strings.Contains(s.TileURL, "{x}") || !strings.Contains(s.TileURL, "{y}") {
			errs = append(errs, fmt.Errorf("tile_url %q needs {z}, {x} and {y}", s.TileURL))
		}
		if strings.Contains(s.TileURL, "{s}") && len(s.Subdomains) == 0 {
			errs = append(errs, errors.New("tile_url uses {s} but subdomains is empty"))
		}
		if s.TileConcurrency <= 0 || s.CacheSize <= 0 || s.MaxTiles <= 0 {
			errs = append(errs, errors.New("tile_concurrency, cache_size and max_tiles must be positive"))
		}
		if s.TileTimeout <= 0 {
			errs = append(errs, errors.New("tile_timeout must be positive"))
		}
	}
	if s.MaxZoom < 0 || s.MaxZoom > 22 || s.Defect.Zoom < 0 || s.Defect.Zoom > 22 {
		errs = append(errs, errors.New("zoom levels must be within [0,22]"))
	}
	if s.Defect.BufferMeters <= 0 {
		errs = append(errs, errors.New("defect.buffer_m must be positive"))
	}
	if s.Overview.Padding < 0 || s.Overview.MinSpanMeters <= 0 {
		errs = append(errs, errors.New("overview.padding must be >= 0 and overview.min_span_m positive"))
	}
	for name, hex := range map[string]string{
		"background":      s.Background,
		"colors.route":    s.Colors.Route,
		"colors.critical": s.Colors.Critical,
		"colors.medium":   s.Colors.Medium,
		"colors.low":      s.Colors.Low,
		"colors.marker":   s.Colors.Marker,
		"colors.outline":  s.Colors.Outline,
		"colors.text":     s.Colors.Text,
		"colors.footer":   s.Colors.Footer,
	} {
		if _, err := parseHexColor(hex); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// palette is the parsed form of Colors.
type palette struct {
	background color.NRGBA
	route      color.NRGBA
	critical   color.NRGBA
	medium     color.NRGBA
	low        color.NRGBA
	marker     color.NRGBA
	outline    color.NRGBA
	text       color.NRGBA
	footer     color.NRGBA
}

func (s Style) palette() (palette, error) {
	var p palette
	var err error
	targets := []struct {
		dst *color.NRGBA
		hex string
	}{
		{&p.background, s.Background},
		{&p.route, s.Colors.Route},
		{&p.critical, s.Colors.Critical},
		{&p.medium, s.Colors.Medium},
		{&p.low, s.Colors.Low},
		{&p.marker, s.Colors.Marker},
		{&p.outline, s.Colors.Outline},
		{&p.text, s.Colors.Text},
		{&p.footer, s.Colors.Footer},
	}
	for _, t := range targets {
		if *t.dst, err = parseHexColor(t.hex); err != nil {
			return palette{}, err
		}
	}
	return p, nil
}

// parseHexColor accepts #rgb, #rgba, #rrggbb and #rrggbbaa.
func parseHexColor(hex string) (color.NRGBA, error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 3 || len(h) == 4 {
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", hex)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
