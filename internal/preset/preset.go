// Package preset loads named timer presets from YAML content files. A
// preset is a canned start: a display name, a duration, a secured default,
// and an optional threshold schedule. The engine itself is preset-agnostic;
// presets only save typing at the command layer.
package preset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Preset is a named, reusable timer definition.
type Preset struct {
	// ID is the unique preset identifier used in commands.
	ID string
	// Name is the human-readable display name.
	Name string
	// Duration is the starting countdown length.
	Duration time.Duration
	// Secured restricts mutation to the starting user when true.
	Secured bool
	// Thresholds are the notification marks; empty means the default
	// schedule is applied at start time.
	Thresholds []time.Duration
}

// Validate checks all preset invariants.
//
// Postcondition: Returns nil if the preset is valid, or an error describing
// all violations.
func (p Preset) Validate() error {
	var errs []string

	if p.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if p.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if p.Duration <= 0 {
		errs = append(errs, fmt.Sprintf("duration must be positive, got %s", p.Duration))
	}
	for _, limit := range p.Thresholds {
		if limit <= 0 {
			errs = append(errs, fmt.Sprintf("threshold must be positive, got %s", limit))
		} else if limit >= p.Duration && p.Duration > 0 {
			errs = append(errs, fmt.Sprintf("threshold %s must be below duration %s", limit, p.Duration))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("preset %q: %s", p.ID, strings.Join(errs, "; "))
	}
	return nil
}

// ErrNotFound is returned when looking up an unknown preset ID.
var ErrNotFound = errors.New("preset: not found")

// Set is a collection of presets keyed by ID.
type Set struct {
	presets map[string]*Preset
}

// NewSet builds a Set from validated presets.
//
// Postcondition: Returns a Set or an error on duplicate IDs.
func NewSet(presets []*Preset) (*Set, error) {
	s := &Set{presets: make(map[string]*Preset, len(presets))}
	for _, p := range presets {
		if _, exists := s.presets[p.ID]; exists {
			return nil, fmt.Errorf("duplicate preset id: %q", p.ID)
		}
		s.presets[p.ID] = p
	}
	return s, nil
}

// Get returns the preset with the given ID.
//
// Postcondition: Returns (preset, nil) if found, or (nil, ErrNotFound).
func (s *Set) Get(id string) (*Preset, error) {
	p, ok := s.presets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return p, nil
}

// IDs returns all preset IDs in no particular order.
func (s *Set) IDs() []string {
	out := make([]string, 0, len(s.presets))
	for id := range s.presets {
		out = append(out, id)
	}
	return out
}

// Len returns the number of presets.
func (s *Set) Len() int {
	return len(s.presets)
}
