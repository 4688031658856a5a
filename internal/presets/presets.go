// Package presets loads the quick-pick durations offered next to the timer.
package presets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"countdown_timer/internal/models"
	"countdown_timer/internal/render"
	"countdown_timer/internal/share"

	"gopkg.in/yaml.v3"
)

type yamlPreset struct {
	Label   string `yaml:"label"`
	Seconds int    `yaml:"seconds"`
}

type yamlFile struct {
	Presets []yamlPreset `yaml:"presets"`
}

// Defaults returns the built-in presets.
func Defaults() []models.Preset {
	minutes := []int{1, 3, 5, 10, 15, 25, 30, 60}
	out := make([]models.Preset, 0, len(minutes))
	for _, m := range minutes {
		out = append(out, models.Preset{Label: fmt.Sprintf("%d min", m), Seconds: m * 60})
	}
	return out
}

// Load reads presets from a YAML file. A missing file yields Defaults.
func Load(path string) ([]models.Preset, error) {
	if path == "" {
		return Defaults(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("read presets file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML preset data. Entries with a non-positive duration are
// skipped; durations are clamped to the shareable range and an empty label
// falls back to the formatted duration. An empty list yields Defaults.
func Parse(raw []byte) ([]models.Preset, error) {
	var file yamlFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Defaults(), fmt.Errorf("parse presets yaml: %w", err)
	}

	out := make([]models.Preset, 0, len(file.Presets))
	for _, p := range file.Presets {
		if p.Seconds <= 0 {
			continue
		}
		secs := share.Clamp(p.Seconds)
		label := strings.TrimSpace(p.Label)
		if label == "" {
			label = render.FormatTime(secs)
		}
		out = append(out, models.Preset{Label: label, Seconds: secs})
	}
	if len(out) == 0 {
		return Defaults(), nil
	}
	return out, nil
}
