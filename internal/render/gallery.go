package render

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// GalleryEntry is one rendered output on disk.
type GalleryEntry struct {
	Version string `json:"version"`
	Frame   int    `json:"frame"`
	Path    string `json:"path"`
}

// Gallery looks up rendered frames across the versions of a project.
type Gallery struct {
	manager *Manager
}

// NewGallery builds a gallery over manager's versions.
func NewGallery(manager *Manager) *Gallery {
	return &Gallery{manager: manager}
}

// FrameHistory lists every output file that exists for frame, newest version
// first. Versions whose file is missing are skipped.
func (g *Gallery) FrameHistory(frame int) ([]GalleryEntry, error) {
	versions := g.manager.RenderVersions()
	slices.Reverse(versions)

	var entries []GalleryEntry
	for _, version := range versions {
		record, err := g.manager.RenderInfo(version)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(record.Frames, frame) {
			continue
		}
		ext := strings.ToLower(record.Settings.OutputFormat)
		path := filepath.Join(record.Settings.OutputDir, version, FrameFilename(version, frame, ext))
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		entries = append(entries, GalleryEntry{Version: version, Frame: frame, Path: path})
	}
	return entries, nil
}
