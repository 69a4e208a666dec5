package project

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"dccpipe/internal/metadata"
	"dccpipe/internal/render"
	"dccpipe/internal/services"
)

// Project is an opened scene project.
type Project struct {
	Name   string
	Dir    string
	Store  *metadata.Store
	logger *slog.Logger
}

func newProject(name, dir string, store *metadata.Store, logger *slog.Logger) *Project {
	return &Project{Name: name, Dir: dir, Store: store, logger: logger}
}

// RendersDir is the default render output directory.
func (p *Project) RendersDir() string {
	return filepath.Join(p.Dir, RendersDirName)
}

// Manager returns the render version manager for this project.
func (p *Project) Manager() *render.Manager {
	return render.NewManager(p.Store)
}

// Info returns what the renderer needs to know about the project.
func (p *Project) Info() render.ProjectInfo {
	doc := p.Store.Snapshot()
	dir := doc.ProjectDir
	if dir == "" {
		dir = p.Dir
	}
	return render.ProjectInfo{Name: p.Name, Dir: dir, SceneFiles: doc.SceneFiles}
}

// Lock takes the project's advisory write lock without blocking. A lock held
// by another process or handle yields ErrBusy. Once held, the manifest is
// re-read so writes committed before the lock are not overwritten. The
// returned func releases the lock.
func (p *Project) Lock() (func() error, error) {
	lock := flock.New(filepath.Join(p.Dir, ConfigDirName, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrBusy, componentName, "lock",
			fmt.Sprintf("project %q is being modified by another process", p.Name), nil)
	}
	if err := p.Store.Reload(); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("reload manifest: %w", err)
	}
	return lock.Unlock, nil
}

// ShotNode is one shot and its frames.
type ShotNode struct {
	Name   string `json:"name"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Frames []int  `json:"frames"`
}

// VersionNode is one render version and its completed frames.
type VersionNode struct {
	ID       string `json:"id"`
	Shot     string `json:"shot,omitempty"`
	Renderer string `json:"renderer"`
	Frames   []int  `json:"frames"`
}

// Tree is the browsable outline of a project: shots with their frames and
// render versions with their completed frames.
type Tree struct {
	Project string        `json:"project"`
	Shots   []ShotNode    `json:"shots"`
	Renders []VersionNode `json:"renders"`
}

// Tree builds the project outline.
func (p *Project) Tree() Tree {
	tree := Tree{Project: p.Name, Shots: []ShotNode{}, Renders: []VersionNode{}}
	for _, shot := range p.Store.Shots() {
		tree.Shots = append(tree.Shots, ShotNode{
			Name:   shot.Name,
			Start:  shot.Range.Start,
			End:    shot.Range.End,
			Frames: shot.Range.Frames(),
		})
	}
	manager := p.Manager()
	for _, id := range manager.RenderVersions() {
		record, err := manager.RenderInfo(id)
		if err != nil {
			continue
		}
		tree.Renders = append(tree.Renders, VersionNode{
			ID:       id,
			Shot:     record.Shot,
			Renderer: record.Settings.Renderer,
			Frames:   record.Frames,
		})
	}
	return tree
}
