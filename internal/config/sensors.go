package config

import (
	"fmt"
	"os"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"gopkg.in/yaml.v3"
)

// SensorSpec describes one sensor channel in the optional SENSOR_CONFIG file.
// Zero thresholds inherit the global DRY_BELOW / SATURATED_ABOVE values.
type SensorSpec struct {
	Label          string  `yaml:"label"`
	DryBelow       float64 `yaml:"dry_below"`
	SaturatedAbove float64 `yaml:"saturated_above"`
}

// SensorFile is keyed by channel id:
//
//	sensors:
//	  1:
//	    label: Bed A (%)
//	    dry_below: 25
type SensorFile struct {
	Sensors map[int]SensorSpec `yaml:"sensors"`
}

// LoadSensorFile reads and validates a sensor YAML file.
func LoadSensorFile(path string) (SensorFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SensorFile{}, err
	}
	var f SensorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return SensorFile{}, fmt.Errorf("parse sensor file: %w", err)
	}
	for ch, s := range f.Sensors {
		if ch < 1 || ch > domain.MaxSensorChannels {
			return SensorFile{}, fmt.Errorf("sensor %d: channel out of range", ch)
		}
		if s.DryBelow != 0 && s.SaturatedAbove != 0 && s.DryBelow > s.SaturatedAbove {
			return SensorFile{}, fmt.Errorf("sensor %d: dry_below exceeds saturated_above", ch)
		}
	}
	return f, nil
}

// thresholds merges per-sensor overrides onto base and rejects any merged
// pair where dry_below exceeds saturated_above.
func (f SensorFile) thresholds(base domain.Thresholds) (map[int]domain.Thresholds, error) {
	var out map[int]domain.Thresholds
	for ch, s := range f.Sensors {
		if s.DryBelow == 0 && s.SaturatedAbove == 0 {
			continue
		}
		t := base
		if s.DryBelow != 0 {
			t.DryBelow = s.DryBelow
		}
		if s.SaturatedAbove != 0 {
			t.SaturatedAbove = s.SaturatedAbove
		}
		if t.DryBelow > t.SaturatedAbove {
			return nil, fmt.Errorf("sensor %d: dry_below %g exceeds saturated_above %g", ch, t.DryBelow, t.SaturatedAbove)
		}
		if out == nil {
			out = make(map[int]domain.Thresholds)
		}
		out[ch] = t
	}
	return out, nil
}

func (f SensorFile) labels() map[int]string {
	out := make(map[int]string, len(f.Sensors))
	for ch, s := range f.Sensors {
		if s.Label != "" {
			out[ch] = s.Label
		}
	}
	return out
}
