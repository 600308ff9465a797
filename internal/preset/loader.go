package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlPresetFile is the top-level YAML structure for preset files.
type yamlPresetFile struct {
	Preset yamlPreset `yaml:"preset"`
}

// yamlPreset is the YAML representation of a preset. Durations are
// time.ParseDuration strings ("2h", "45m", "90s").
type yamlPreset struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Duration   string   `yaml:"duration"`
	Secured    bool     `yaml:"secured"`
	Thresholds []string `yaml:"thresholds"`
}

// LoadFromFile reads and validates a single preset YAML file.
//
// Precondition: path must point to a valid YAML preset file.
// Postcondition: Returns a validated Preset or a non-nil error.
func LoadFromFile(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a preset from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the preset schema.
// Postcondition: Returns a validated Preset or a non-nil error.
func LoadFromBytes(data []byte) (*Preset, error) {
	var file yamlPresetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing preset YAML: %w", err)
	}

	p, err := convertYAMLPreset(file.Preset)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating preset: %w", err)
	}
	return p, nil
}

// LoadFromDir loads all YAML files in a directory as presets.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns a Set with all validated presets or the first error
// encountered.
func LoadFromDir(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading preset directory %s: %w", dir, err)
	}

	var presets []*Preset
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		p, err := LoadFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading preset from %s: %w", name, err)
		}
		presets = append(presets, p)
	}

	return NewSet(presets)
}

// convertYAMLPreset converts the parsed YAML structure into the domain type.
func convertYAMLPreset(yp yamlPreset) (*Preset, error) {
	p := &Preset{
		ID:      yp.ID,
		Name:    yp.Name,
		Secured: yp.Secured,
	}

	if yp.Duration != "" {
		d, err := time.ParseDuration(yp.Duration)
		if err != nil {
			return nil, fmt.Errorf("preset %q: parsing duration %q: %w", yp.ID, yp.Duration, err)
		}
		p.Duration = d
	}

	for _, raw := range yp.Thresholds {
		limit, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("preset %q: parsing threshold %q: %w", yp.ID, raw, err)
		}
		p.Thresholds = append(p.Thresholds, limit)
	}

	return p, nil
}
