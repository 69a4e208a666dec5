package render

import (
	"fmt"
	"slices"

	"dccpipe/internal/metadata"
	"dccpipe/internal/services"
)

// Manager allocates render versions and records completed frames in a
// project manifest. Every mutation is persisted before it returns.
type Manager struct {
	store *metadata.Store
}

// NewManager wraps store.
func NewManager(store *metadata.Store) *Manager {
	return &Manager{store: store}
}

// NextRenderVersion returns the id the next NewRenderVersion call would use.
func (m *Manager) NextRenderVersion() string {
	var next string
	m.store.View(func(doc *metadata.Document) {
		next = nextVersionID(doc)
	})
	return next
}

func nextVersionID(doc *metadata.Document) string {
	highest := 0
	for id := range doc.Renders {
		if n, ok := metadata.ParseVersionID(id); ok && n > highest {
			highest = n
		}
	}
	return metadata.FormatVersionID(highest + 1)
}

// NewRenderVersion allocates a version for shot and stores the settings
// snapshot with an empty frame list. Allocation and persistence happen in one
// write, so a failed save leaves no version behind.
func (m *Manager) NewRenderVersion(settings Settings, shot string) (string, error) {
	snap := settings.Snapshot()
	var id string
	err := m.store.Update(func(doc *metadata.Document) error {
		id = nextVersionID(doc)
		doc.RenderSettings[id] = snap
		doc.Renders[id] = metadata.RenderRecord{Shot: shot, Settings: snap, Frames: []int{}}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateFrame records frame as completed for id. Recording the same frame
// twice is a no-op.
func (m *Manager) UpdateFrame(id string, frame int) error {
	return m.store.Update(func(doc *metadata.Document) error {
		record, ok := doc.Renders[id]
		if !ok {
			return versionNotFound(id)
		}
		record.Frames = metadata.NormalizeFrames(record.Frames)
		if idx, found := slices.BinarySearch(record.Frames, frame); !found {
			record.Frames = slices.Insert(record.Frames, idx, frame)
		}
		doc.Renders[id] = record
		return nil
	})
}

// RenderVersions lists version ids in ascending order.
func (m *Manager) RenderVersions() []string {
	var ids []string
	m.store.View(func(doc *metadata.Document) {
		ids = make([]string, 0, len(doc.Renders))
		for id := range doc.Renders {
			ids = append(ids, id)
		}
	})
	slices.SortFunc(ids, compareVersionIDs)
	return ids
}

// Latest returns the highest well-formed version id.
func (m *Manager) Latest() (string, bool) {
	latest, best := "", 0
	m.store.View(func(doc *metadata.Document) {
		for id := range doc.Renders {
			if n, ok := metadata.ParseVersionID(id); ok && n > best {
				latest, best = id, n
			}
		}
	})
	return latest, latest != ""
}

// Frames returns the completed frames of id.
func (m *Manager) Frames(id string) ([]int, error) {
	info, err := m.RenderInfo(id)
	if err != nil {
		return nil, err
	}
	return info.Frames, nil
}

// RenderInfo returns a copy of the version record.
func (m *Manager) RenderInfo(id string) (metadata.RenderRecord, error) {
	var (
		record metadata.RenderRecord
		ok     bool
	)
	m.store.View(func(doc *metadata.Document) {
		record, ok = doc.Renders[id]
		record.Frames = slices.Clone(record.Frames)
	})
	if !ok {
		return metadata.RenderRecord{}, versionNotFound(id)
	}
	return record, nil
}

// compareVersionIDs orders well-formed ids numerically and puts malformed
// ids after them in lexical order.
func compareVersionIDs(a, b string) int {
	na, okA := metadata.ParseVersionID(a)
	nb, okB := metadata.ParseVersionID(b)
	switch {
	case okA && okB:
		if na != nb {
			return na - nb
		}
	case okA:
		return -1
	case okB:
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func versionNotFound(id string) error {
	return services.Wrap(services.ErrNotFound, "render", "version", fmt.Sprintf("render version %q", id), nil)
}
