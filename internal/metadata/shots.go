package metadata

import (
	"fmt"
	"slices"
	"strings"

	"dccpipe/internal/services"
)

// Shot pairs a shot name with its frame range.
type Shot struct {
	Name  string     `json:"name"`
	Range FrameRange `json:"range"`
}

// Shots returns every shot in declared order.
func (s *Store) Shots() []Shot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shots := make([]Shot, 0, len(s.doc.Shots))
	for _, name := range s.doc.Shots {
		shots = append(shots, Shot{Name: name, Range: s.doc.ShotStruct[name]})
	}
	return shots
}

// Shot looks up one shot by name.
func (s *Store) Shot(name string) (Shot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.doc.ShotStruct[name]
	if !ok || !slices.Contains(s.doc.Shots, name) {
		return Shot{}, shotNotFound(name)
	}
	return Shot{Name: name, Range: r}, nil
}

// ShotIssues describes manifest entries that break the shot invariants:
// duplicate names in the shot list, listed shots without a range, and ranges
// whose start is after their end. An empty result means the list is sound.
func (s *Store) ShotIssues() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var issues []string
	seen := make(map[string]bool, len(s.doc.Shots))
	for _, name := range s.doc.Shots {
		if seen[name] {
			issues = append(issues, fmt.Sprintf("shot %q listed more than once", name))
			continue
		}
		seen[name] = true
		r, ok := s.doc.ShotStruct[name]
		if !ok {
			issues = append(issues, fmt.Sprintf("shot %q has no frame range", name))
			continue
		}
		if r.Start > r.End {
			issues = append(issues, fmt.Sprintf("shot %q starts at %d after its end %d", name, r.Start, r.End))
		}
	}
	return issues
}

// AddShot appends a new shot.
func (s *Store) AddShot(name string, start, end int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return services.Wrap(services.ErrInvalidConfiguration, "metadata", "add shot", "shot name required", nil)
	}
	r, err := NewFrameRange(start, end)
	if err != nil {
		return err
	}
	return s.Update(func(doc *Document) error {
		if slices.Contains(doc.Shots, name) {
			return services.Wrap(services.ErrAlreadyExists, "metadata", "add shot", fmt.Sprintf("shot %q", name), nil)
		}
		doc.Shots = append(doc.Shots, name)
		doc.ShotStruct[name] = r
		return nil
	})
}

// UpdateShot renames and/or re-ranges an existing shot. An empty newName keeps
// the current name. The shot keeps its position in the list.
func (s *Store) UpdateShot(name, newName string, start, end int) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		newName = name
	}
	r, err := NewFrameRange(start, end)
	if err != nil {
		return err
	}
	return s.Update(func(doc *Document) error {
		idx := slices.Index(doc.Shots, name)
		if idx < 0 {
			return shotNotFound(name)
		}
		if newName != name && slices.Contains(doc.Shots, newName) {
			return services.Wrap(services.ErrAlreadyExists, "metadata", "update shot", fmt.Sprintf("shot %q", newName), nil)
		}
		delete(doc.ShotStruct, name)
		doc.Shots[idx] = newName
		doc.ShotStruct[newName] = r
		for id, record := range doc.Renders {
			if record.Shot == name {
				record.Shot = newName
				doc.Renders[id] = record
			}
		}
		return nil
	})
}

// RemoveShot deletes a shot. Render versions recorded for it are kept.
func (s *Store) RemoveShot(name string) error {
	return s.Update(func(doc *Document) error {
		idx := slices.Index(doc.Shots, name)
		if idx < 0 {
			return shotNotFound(name)
		}
		doc.Shots = slices.Delete(doc.Shots, idx, idx+1)
		delete(doc.ShotStruct, name)
		return nil
	})
}

func shotNotFound(name string) error {
	return services.Wrap(services.ErrNotFound, "metadata", "shot", fmt.Sprintf("shot %q", name), nil)
}
