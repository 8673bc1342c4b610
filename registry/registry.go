// Package registry holds the registered builds each known person is verified
// against.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is the registered build of one label
type Entry struct {
	Label  string `json:"label" yaml:"label"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Registry is a lookup of registered builds by label
type Registry struct {
	entries   map[string]Entry
	order     []string
	tolerance int
}

// New returns a Registry.  When a label appears more than once the last
// entry wins.
func New(entries []Entry, tolerance int) *Registry {

	r := &Registry{
		entries:   make(map[string]Entry, len(entries)),
		tolerance: tolerance,
	}

	for _, e := range entries {
		if _, ok := r.entries[e.Label]; !ok {
			r.order = append(r.order, e.Label)
		}
		r.entries[e.Label] = e
	}

	return r
}

// Load reads registry entries from a JSON or YAML file, the format is chosen
// by the file extension
func Load(path string, tolerance int) (*Registry, error) {

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("error reading registry file: %w", err)
	}

	var entries []Entry

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(data, &entries)
	}

	if err != nil {
		return nil, fmt.Errorf("error parsing registry file %s: %w", path, err)
	}

	for i, e := range entries {
		if e.Label == "" {
			return nil, fmt.Errorf("registry entry %d has no label", i)
		}
	}

	return New(entries, tolerance), nil
}

// Lookup returns the entry registered for label
func (r *Registry) Lookup(label string) (Entry, bool) {
	e, ok := r.entries[label]
	return e, ok
}

// Labels returns the registered labels in file order
func (r *Registry) Labels() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered labels
func (r *Registry) Len() int {
	return len(r.entries)
}

// Tolerance returns the verification tolerance
func (r *Registry) Tolerance() int {
	return r.tolerance
}

// Verify reports whether the measured build matches the registered build of
// label.  Measured values are truncated to whole units and must be within
// the tolerance of the registered values inclusively, registered values keep
// their fraction.  An unknown label or
// an entry with a zero width or height never verifies.
func (r *Registry) Verify(label string, width, height float64) bool {

	e, ok := r.entries[label]

	if !ok || e.Width == 0 || e.Height == 0 {
		return false
	}

	tol := float64(r.tolerance)

	return within(float64(int(width)), e.Width, tol) &&
		within(float64(int(height)), e.Height, tol)
}

func within(value, ref, tolerance float64) bool {
	return ref-tolerance <= value && value <= ref+tolerance
}
