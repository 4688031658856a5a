package service

import "countdown_timer/internal/models"

// PresetService serves the quick-pick durations loaded at startup.
type PresetService struct {
	presets []models.Preset
}

func NewPresetService(presets []models.Preset) *PresetService {
	return &PresetService{presets: append([]models.Preset(nil), presets...)}
}

// All returns a copy of the presets.
func (s *PresetService) All() []models.Preset {
	return append([]models.Preset(nil), s.presets...)
}
