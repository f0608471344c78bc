package tunables

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Save serializes every declared tunable to path under sections
// [tick_detector], [tick_correlator], [marker_detector], [sync_detector].
// Keys within a section are written in the table's declaration order
// every time, so save -> load -> save is idempotent.
func (t *Table) Save(path string) error {
	f := ini.Empty()
	for _, s := range t.specs {
		sec, err := f.NewSection(s.Section)
		if err != nil {
			return fmt.Errorf("tunables: new section %q: %w", s.Section, err)
		}
		if _, err := sec.NewKey(s.Name, fmt.Sprintf("%g", s.get())); err != nil {
			return fmt.Errorf("tunables: new key %q: %w", s.Name, err)
		}
	}
	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("tunables: save %s: %w", path, err)
	}
	return nil
}

// Load reads path and applies each declared tunable found in it. Values
// that are present but out of range, or that fail to parse, are logged by
// the caller (Load returns them as a slice of warnings) and left at their
// current (default) value rather than aborting the whole load.
func (t *Table) Load(path string) (warnings []string, err error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("tunables: load %s: %w", path, err)
	}
	for _, s := range t.specs {
		sec, err := f.GetSection(s.Section)
		if err != nil {
			continue
		}
		key, err := sec.GetKey(s.Name)
		if err != nil {
			continue
		}
		v, err := key.Float64()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s.%s: invalid value %q, keeping default", s.Section, s.Name, key.String()))
			continue
		}
		if setErr := t.Set(s.Name, v); setErr != nil {
			warnings = append(warnings, fmt.Sprintf("%s.%s: %v, keeping default", s.Section, s.Name, setErr))
		}
	}
	return warnings, nil
}
