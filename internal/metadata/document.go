package metadata

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultCreatedBy is recorded when no owner is configured.
	DefaultCreatedBy = "ADMIN"
	// DefaultRootDir is recorded when the project root is unknown.
	DefaultRootDir = "TEMP"
)

// Document is the project manifest.
type Document struct {
	ProjectName    string                    `yaml:"project_name" json:"project_name"`
	ProjectTag     string                    `yaml:"project_tag" json:"project_tag"`
	SceneFiles     SceneFiles                `yaml:"scene_files" json:"scene_files"`
	ProjectDir     string                    `yaml:"project_dir" json:"project_dir"`
	Shots          []string                  `yaml:"shots" json:"shots"`
	ShotStruct     map[string]FrameRange     `yaml:"shot_struct" json:"shot_struct"`
	RenderSettings map[string]RenderSnapshot `yaml:"renderSettings" json:"render_settings"`
	Renders        map[string]RenderRecord   `yaml:"renders" json:"renders"`
	CreatedBy      string                    `yaml:"created_by" json:"created_by"`
	CreatedAt      string                    `yaml:"created_at" json:"created_at"`
	RootDir        string                    `yaml:"root_dir" json:"root_dir"`
}

// RenderSnapshot is the persisted form of a render request's settings.
type RenderSnapshot struct {
	Renderer         string `yaml:"renderer" json:"renderer"`
	FPS              int    `yaml:"fps" json:"fps"`
	OutputDir        string `yaml:"output_dir" json:"output_dir"`
	OutputFormat     string `yaml:"output_format" json:"output_format"`
	ResolutionWidth  int    `yaml:"resolution_width" json:"resolution_width"`
	ResolutionHeight int    `yaml:"resolution_height" json:"resolution_height"`
	MotionBlur       bool   `yaml:"motion_blur" json:"motion_blur"`
	Denoise          bool   `yaml:"denoise" json:"denoise"`
	FilenameTemplate string `yaml:"filename_template" json:"filename_template"`
	Camera           string `yaml:"camera,omitempty" json:"camera,omitempty"`
	Light            string `yaml:"light,omitempty" json:"light,omitempty"`
}

// RenderRecord is one render version: the settings it was started with and
// the frames completed so far.
type RenderRecord struct {
	Shot     string         `yaml:"shot,omitempty" json:"shot,omitempty"`
	Settings RenderSnapshot `yaml:"settings" json:"settings"`
	Frames   []int          `yaml:"frames" json:"frames"`
}

// Default returns an empty manifest.
func Default() *Document {
	doc := &Document{
		CreatedBy: DefaultCreatedBy,
		RootDir:   DefaultRootDir,
	}
	doc.ensureCollections()
	return doc
}

func (d *Document) ensureCollections() {
	if d.Shots == nil {
		d.Shots = []string{}
	}
	if d.ShotStruct == nil {
		d.ShotStruct = map[string]FrameRange{}
	}
	if d.RenderSettings == nil {
		d.RenderSettings = map[string]RenderSnapshot{}
	}
	if d.Renders == nil {
		d.Renders = map[string]RenderRecord{}
	}
	for id, record := range d.Renders {
		record.Frames = NormalizeFrames(record.Frames)
		d.Renders[id] = record
	}
	if d.CreatedBy == "" {
		d.CreatedBy = DefaultCreatedBy
	}
	if d.RootDir == "" {
		d.RootDir = DefaultRootDir
	}
}

// NormalizeFrames returns frames sorted ascending without duplicates. The
// input is not modified.
func NormalizeFrames(frames []int) []int {
	out := slices.Clone(frames)
	if out == nil {
		return []int{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.SceneFiles = d.SceneFiles.clone()
	out.Shots = slices.Clone(d.Shots)
	out.ShotStruct = maps.Clone(d.ShotStruct)
	out.RenderSettings = maps.Clone(d.RenderSettings)
	out.Renders = make(map[string]RenderRecord, len(d.Renders))
	for id, record := range d.Renders {
		record.Frames = slices.Clone(record.Frames)
		out.Renders[id] = record
	}
	out.ensureCollections()
	return &out
}

// SceneFiles is the list of scene filenames relative to the project
// directory. A manifest whose scene_files value is not a sequence still loads;
// Malformed reports that case so scene resolution can reject it.
type SceneFiles struct {
	Files     []string
	Malformed bool
	raw       *yaml.Node
}

// NewSceneFiles builds a well-formed list.
func NewSceneFiles(files ...string) SceneFiles {
	return SceneFiles{Files: slices.Clone(files)}
}

func (s *SceneFiles) UnmarshalYAML(node *yaml.Node) error {
	switch {
	case node.Kind == yaml.SequenceNode:
		var files []string
		if err := node.Decode(&files); err != nil {
			return fmt.Errorf("scene_files: %w", err)
		}
		*s = SceneFiles{Files: files}
	case node.Kind == yaml.ScalarNode && node.Tag == "!!null":
		*s = SceneFiles{}
	default:
		*s = SceneFiles{Malformed: true, raw: node}
	}
	return nil
}

func (s SceneFiles) MarshalYAML() (any, error) {
	if s.Malformed && s.raw != nil {
		return s.raw, nil
	}
	if s.Files == nil {
		return []string{}, nil
	}
	return s.Files, nil
}

func (s SceneFiles) MarshalJSON() ([]byte, error) {
	if s.Malformed {
		return []byte("null"), nil
	}
	files := s.Files
	if files == nil {
		files = []string{}
	}
	return json.Marshal(files)
}

func (s *SceneFiles) UnmarshalJSON(data []byte) error {
	var files []string
	if err := json.Unmarshal(data, &files); err != nil {
		return fmt.Errorf("scene_files: %w", err)
	}
	*s = SceneFiles{Files: files}
	return nil
}

func (s SceneFiles) clone() SceneFiles {
	return SceneFiles{Files: slices.Clone(s.Files), Malformed: s.Malformed, raw: s.raw}
}
