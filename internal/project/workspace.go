package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"dccpipe/internal/fileutil"
	"dccpipe/internal/logging"
	"dccpipe/internal/metadata"
	"dccpipe/internal/services"
	"dccpipe/internal/services/command"
)

// Project directory layout.
const (
	ConfigDirName  = "Config"
	RendersDirName = "Renders"
	ManifestName   = "metadata.yaml"
	lockFileName   = ".lock"
	projectTagMark = "@"
	usdSceneExt    = ".usda"
	componentName  = "project"
)

// Converter exports a proprietary scene to USD.
type Converter interface {
	ExportUSD(ctx context.Context, req command.ExportRequest) error
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithConverter registers the converter used for scenes of type ft.
func WithConverter(ft FileType, c Converter) Option {
	return func(w *Workspace) {
		if c != nil {
			w.converters[ft] = c
		}
	}
}

// WithCreatedBy sets the owner recorded in new manifests.
func WithCreatedBy(owner string) Option {
	return func(w *Workspace) {
		if owner = strings.TrimSpace(owner); owner != "" {
			w.createdBy = owner
		}
	}
}

// WithConvertRange sets the frame range passed to scene conversion.
func WithConvertRange(start, end int) Option {
	return func(w *Workspace) {
		w.convertStart, w.convertEnd = start, end
	}
}

// WithKeepSourceScene copies a converted Maya/Houdini source next to the
// exported USD and records it as a second scene file.
func WithKeepSourceScene(keep bool) Option {
	return func(w *Workspace) {
		w.keepSource = keep
	}
}

// WithLogger sets the workspace logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logging.NewComponentLogger(logger, componentName)
	}
}

// WithClock overrides time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) {
		if now != nil {
			w.now = now
		}
	}
}

// Workspace is the directory holding all projects.
type Workspace struct {
	root         string
	converters   map[FileType]Converter
	createdBy    string
	convertStart int
	convertEnd   int
	keepSource   bool
	logger       *slog.Logger
	now          func() time.Time
}

// NewWorkspace returns a workspace rooted at root.
func NewWorkspace(root string, opts ...Option) *Workspace {
	w := &Workspace{
		root:         root,
		converters:   make(map[FileType]Converter),
		createdBy:    metadata.DefaultCreatedBy,
		convertStart: 1,
		convertEnd:   1,
		logger:       logging.NewComponentLogger(nil, componentName),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// Exists reports whether anything already occupies the project directory.
func (w *Workspace) Exists(name string) bool {
	_, err := os.Lstat(w.ProjectDir(name))
	return err == nil
}

// ProjectDir returns where a project named name lives.
func (w *Workspace) ProjectDir(name string) string {
	return filepath.Join(w.root, name)
}

// CreateNew creates a project from source. An empty fileType is inferred from
// the extension. Maya and Houdini scenes are converted to <name>.usda through
// the registered converter; anything else is copied verbatim. On failure the
// partially created project directory is removed.
func (w *Workspace) CreateNew(ctx context.Context, name, source string, fileType FileType) (proj *Project, err error) {
	name, err = ValidateName(name)
	if err != nil {
		return nil, err
	}
	dir := w.ProjectDir(name)
	if w.Exists(name) {
		return nil, services.Wrap(services.ErrAlreadyExists, componentName, "create", fmt.Sprintf("project %q", name), nil)
	}
	source, err = filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	if info, statErr := os.Stat(source); statErr != nil || info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, componentName, "create", "source scene "+source, nil)
	}
	if fileType == "" {
		fileType = DetectFileType(source)
	}
	if fileType.NeedsConversion() && w.converters[fileType] == nil {
		return nil, services.Wrap(services.ErrInvalidConfiguration, componentName, "create",
			fmt.Sprintf("no converter configured for %s scenes", fileType), nil)
	}

	ctx = services.WithProject(ctx, name)
	logger := logging.WithContext(ctx, w.logger)

	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, services.Wrap(services.ErrAlreadyExists, componentName, "create", fmt.Sprintf("project %q", name), nil)
		}
		return nil, fmt.Errorf("create project directory: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logging.WarnWithContext(logger, "failed to remove partial project", "project_rollback_failed",
				logging.String("dir", dir),
				logging.Error(rmErr),
				logging.String(logging.FieldErrorHint, "remove the directory manually before retrying"),
				logging.String(logging.FieldImpact, "creating a project with this name will report it already exists"),
			)
		}
	}()

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}
	for _, sub := range []string{RendersDirName, ConfigDirName} {
		if err := os.MkdirAll(filepath.Join(absDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", sub, err)
		}
	}

	sceneFiles, err := w.importScene(ctx, absDir, name, source, fileType)
	if err != nil {
		return nil, err
	}

	doc := metadata.Default()
	doc.ProjectName = name
	doc.ProjectTag = projectTagMark + name
	doc.SceneFiles = metadata.NewSceneFiles(sceneFiles...)
	doc.ProjectDir = absDir
	doc.CreatedBy = w.createdBy
	doc.CreatedAt = w.now().UTC().Format(time.RFC3339)
	if absRoot, absErr := filepath.Abs(w.root); absErr == nil {
		doc.RootDir = absRoot
	}

	store, err := metadata.Create(filepath.Join(absDir, ConfigDirName, ManifestName), doc, w.logger)
	if err != nil {
		return nil, err
	}

	logger.Info("project created",
		logging.String("dir", absDir),
		logging.String("file_type", string(fileType)),
		logging.Strings("scene_files", sceneFiles),
	)
	return newProject(name, absDir, store, w.logger), nil
}

func (w *Workspace) importScene(ctx context.Context, dir, name, source string, fileType FileType) ([]string, error) {
	if !fileType.NeedsConversion() {
		base := filepath.Base(source)
		if err := fileutil.CopyFileVerified(source, filepath.Join(dir, base)); err != nil {
			return nil, fmt.Errorf("copy scene: %w", err)
		}
		return []string{base}, nil
	}

	usdName := strings.ToLower(name) + usdSceneExt
	err := w.converters[fileType].ExportUSD(ctx, command.ExportRequest{
		ProjectDir: dir,
		SceneName:  name,
		Source:     source,
		Output:     filepath.Join(dir, usdName),
		StartFrame: w.convertStart,
		EndFrame:   w.convertEnd,
	})
	if err != nil {
		return nil, err
	}
	files := []string{usdName}
	if w.keepSource {
		base := filepath.Base(source)
		if err := fileutil.CopyFileVerified(source, filepath.Join(dir, base)); err != nil {
			return nil, fmt.Errorf("copy source scene: %w", err)
		}
		files = append(files, base)
	}
	return files, nil
}

// LoadExisting opens the project named by tag. One leading "@" is stripped.
func (w *Workspace) LoadExisting(tag string) (*Project, error) {
	name, err := ValidateName(strings.TrimPrefix(strings.TrimSpace(tag), projectTagMark))
	if err != nil {
		return nil, err
	}
	dir := w.ProjectDir(name)
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}
	store, err := metadata.Open(filepath.Join(absDir, ConfigDirName, ManifestName), w.logger)
	if err != nil {
		return nil, err
	}
	return newProject(name, absDir, store, w.logger), nil
}

// List returns the names of projects that have a manifest, sorted.
func (w *Workspace) List() ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read project root: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest := filepath.Join(w.root, entry.Name(), ConfigDirName, ManifestName)
		if info, err := os.Stat(manifest); err == nil && info.Mode().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// ValidateName trims name and rejects empty names and names that would
// escape the workspace.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", services.Wrap(services.ErrInvalidConfiguration, componentName, "name", "project name required", nil)
	case name == "." || name == ".." || strings.ContainsAny(name, `/\`):
		return "", services.Wrap(services.ErrInvalidConfiguration, componentName, "name",
			fmt.Sprintf("project name %q must not contain path separators", name), nil)
	}
	return name, nil
}
