package domain

import (
	"encoding/json"
	"fmt"
)

const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// Settings drives a single processing run. The zero value is not useful;
// start from DefaultSettings or ResolveSettings.
type Settings struct {
	Mode           string               `json:"mode"`
	TargetFileSize int                  `json:"targetFileSize"`
	Compression    CompressionSettings  `json:"compression"`
	Format         FormatSettings       `json:"format"`
	Optimization   OptimizationSettings `json:"optimization"`
	Resize         ResizeSettings       `json:"resize"`
}

type CompressionSettings struct {
	Enabled   bool `json:"enabled"`
	Quality   int  `json:"quality"`
	MaxWidth  int  `json:"maxWidth"`
	MaxHeight int  `json:"maxHeight"`
}

type FormatSettings struct {
	OutputFormat  string `json:"outputFormat"`
	ConvertToWebp bool   `json:"convertToWebp"`
}

type OptimizationSettings struct {
	RemoveMetadata bool `json:"removeMetadata"`
	Progressive    bool `json:"progressive"`
	AutoOrient     bool `json:"autoOrient"`
}

// ResizeSettings uses 0 for an unset dimension.
type ResizeSettings struct {
	Enabled             bool `json:"enabled"`
	Width               int  `json:"width,omitempty"`
	Height              int  `json:"height,omitempty"`
	MaintainAspectRatio bool `json:"maintainAspectRatio"`
}

// DefaultSettings returns a fresh copy of the process-wide defaults.
// Callers receive a value, never a shared reference, so concurrent runs
// cannot contaminate each other.
func DefaultSettings() Settings {
	return Settings{
		Mode:           ModeAuto,
		TargetFileSize: 150 * 1024,
		Compression: CompressionSettings{
			Enabled:   true,
			Quality:   85,
			MaxWidth:  1920,
			MaxHeight: 1080,
		},
		Format: FormatSettings{
			OutputFormat:  "webp",
			ConvertToWebp: true,
		},
		Optimization: OptimizationSettings{
			RemoveMetadata: true,
			Progressive:    true,
			AutoOrient:     true,
		},
		Resize: ResizeSettings{
			Enabled:             false,
			MaintainAspectRatio: true,
		},
	}
}

// ResolveSettings deep-merges a caller override map into the defaults.
// The merge is permissive: unknown keys are ignored, and downstream
// components clamp out-of-range values. A type mismatch between an
// override value and the settings schema is the only hard failure.
func ResolveSettings(overrides map[string]any) (Settings, error) {
	defaults := DefaultSettings()
	if len(overrides) == 0 {
		return defaults, nil
	}

	base, err := settingsToMap(defaults)
	if err != nil {
		return Settings{}, err
	}

	merged := deepMerge(base, overrides)

	raw, err := json.Marshal(merged)
	if err != nil {
		return Settings{}, fmt.Errorf("encode merged settings: %w", err)
	}

	resolved := DefaultSettings()
	if err := json.Unmarshal(raw, &resolved); err != nil {
		return Settings{}, fmt.Errorf("invalid settings override: %w", err)
	}

	resolved.clamp()
	return resolved, nil
}

// deepMerge merges override into base recursively. Nested maps merge
// key-by-key; any other override value replaces the base value wholesale,
// including a map replacing a scalar or the reverse.
func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		baseMap, baseOK := out[k].(map[string]any)
		overrideMap, overrideOK := v.(map[string]any)
		if baseOK && overrideOK {
			out[k] = deepMerge(baseMap, overrideMap)
			continue
		}
		out[k] = v
	}
	return out
}

func settingsToMap(s Settings) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode default settings: %w", err)
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode default settings: %w", err)
	}
	return out, nil
}

func (s *Settings) clamp() {
	if s.Compression.Quality < 1 {
		s.Compression.Quality = 1
	}
	if s.Compression.Quality > 100 {
		s.Compression.Quality = 100
	}
	if s.Resize.Width < 0 {
		s.Resize.Width = 0
	}
	if s.Resize.Height < 0 {
		s.Resize.Height = 0
	}
}

// IsAuto reports whether the run uses the size-targeting optimizer.
// Only the exact mode "auto" does; any other value runs the manual
// sequence with the caller's settings untouched.
func (s Settings) IsAuto() bool {
	return s.Mode == ModeAuto
}
