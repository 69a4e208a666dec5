package render

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dccpipe/internal/metadata"
	"dccpipe/internal/services"
)

// Renderer names.
const (
	RendererArnold   = "Arnold"
	RendererKarma    = "Karma"
	RendererRedshift = "Redshift"
)

// Render defaults and limits.
const (
	DefaultOutputFormat     = "EXR"
	DefaultWidth            = 1920
	DefaultHeight           = 1080
	DefaultFilenameTemplate = "{shot}_{camera}_{frame}"
	MinFPS                  = 1
	MaxFPS                  = 240
)

// SupportedRenderers lists renderers accepted by Validate. Redshift is
// accepted but has no adapter yet, so it is dispatched as a dry run.
var SupportedRenderers = []string{RendererArnold, RendererKarma, RendererRedshift}

// SupportedLights lists the light rigs the Karma adapter knows.
var SupportedLights = []string{"Dome Light", "Physical Sky"}

var titleCaser = cases.Title(language.Und)

// SettingsOptions carries caller-supplied values. Zero values pick defaults.
type SettingsOptions struct {
	Renderer         string `json:"renderer,omitempty"`
	FPS              int    `json:"fps,omitempty"`
	OutputDir        string `json:"output_dir,omitempty"`
	OutputFormat     string `json:"output_format,omitempty"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	MotionBlur       bool   `json:"motion_blur,omitempty"`
	Denoise          bool   `json:"denoise,omitempty"`
	FilenameTemplate string `json:"filename_template,omitempty"`
	Camera           string `json:"camera,omitempty"`
	Light            string `json:"light,omitempty"`
}

// Settings is a validated render request.
type Settings struct {
	Renderer         string
	FPS              int
	OutputDir        string
	OutputFormat     string
	Width            int
	Height           int
	MotionBlur       bool
	Denoise          bool
	FilenameTemplate string
	Camera           string
	Light            string
}

// NewSettings applies defaults to opts and validates the result.
func NewSettings(opts SettingsOptions) (Settings, error) {
	s := Settings{
		Renderer:         NormalizeRenderer(opts.Renderer),
		FPS:              opts.FPS,
		OutputDir:        strings.TrimSpace(opts.OutputDir),
		OutputFormat:     strings.TrimSpace(opts.OutputFormat),
		Width:            opts.Width,
		Height:           opts.Height,
		MotionBlur:       opts.MotionBlur,
		Denoise:          opts.Denoise,
		FilenameTemplate: opts.FilenameTemplate,
		Camera:           strings.TrimSpace(opts.Camera),
		Light:            strings.TrimSpace(opts.Light),
	}
	if s.OutputFormat == "" {
		s.OutputFormat = DefaultOutputFormat
	}
	if s.Width == 0 {
		s.Width = DefaultWidth
	}
	if s.Height == 0 {
		s.Height = DefaultHeight
	}
	if s.FilenameTemplate == "" {
		s.FilenameTemplate = DefaultFilenameTemplate
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// NormalizeRenderer maps a renderer name to its canonical spelling
// ("arnold" -> "Arnold"). Unknown names are title-cased and left for Validate
// to reject.
func NormalizeRenderer(name string) string {
	name = strings.TrimSpace(name)
	for _, known := range SupportedRenderers {
		if strings.EqualFold(name, known) {
			return known
		}
	}
	return titleCaser.String(strings.ToLower(name))
}

// Validate checks the settings and creates the output directory.
func (s Settings) Validate() error {
	if !slices.Contains(SupportedRenderers, s.Renderer) {
		return invalid(fmt.Sprintf("renderer %q not supported, choose from %s", s.Renderer, strings.Join(SupportedRenderers, ", ")))
	}
	if s.FPS < MinFPS || s.FPS > MaxFPS {
		return invalid(fmt.Sprintf("fps must be between %d and %d, got %d", MinFPS, MaxFPS, s.FPS))
	}
	if s.Width <= 0 || s.Height <= 0 {
		return invalid(fmt.Sprintf("resolution must be positive, got %dx%d", s.Width, s.Height))
	}
	if s.OutputDir == "" {
		return invalid("output directory required")
	}
	if s.Light != "" && !slices.Contains(SupportedLights, s.Light) {
		return invalid(fmt.Sprintf("light %q not supported, choose from %s", s.Light, strings.Join(SupportedLights, ", ")))
	}
	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// GenerateFilename expands the filename template.
func (s Settings) GenerateFilename(shot, camera string, frame int) string {
	return strings.NewReplacer(
		"{shot}", shot,
		"{camera}", camera,
		"{frame}", strconv.Itoa(frame),
	).Replace(s.FilenameTemplate)
}

// Extension is the lower-cased output format.
func (s Settings) Extension() string {
	return strings.ToLower(s.OutputFormat)
}

// Snapshot converts s into its persisted form.
func (s Settings) Snapshot() metadata.RenderSnapshot {
	return metadata.RenderSnapshot{
		Renderer:         s.Renderer,
		FPS:              s.FPS,
		OutputDir:        s.OutputDir,
		OutputFormat:     s.OutputFormat,
		ResolutionWidth:  s.Width,
		ResolutionHeight: s.Height,
		MotionBlur:       s.MotionBlur,
		Denoise:          s.Denoise,
		FilenameTemplate: s.FilenameTemplate,
		Camera:           s.Camera,
		Light:            s.Light,
	}
}

// SettingsFromSnapshot rebuilds settings stored in a manifest. The result is
// not validated.
func SettingsFromSnapshot(snap metadata.RenderSnapshot) Settings {
	return Settings{
		Renderer:         snap.Renderer,
		FPS:              snap.FPS,
		OutputDir:        snap.OutputDir,
		OutputFormat:     snap.OutputFormat,
		Width:            snap.ResolutionWidth,
		Height:           snap.ResolutionHeight,
		MotionBlur:       snap.MotionBlur,
		Denoise:          snap.Denoise,
		FilenameTemplate: snap.FilenameTemplate,
		Camera:           snap.Camera,
		Light:            snap.Light,
	}
}

func invalid(msg string) error {
	return services.Wrap(services.ErrInvalidConfiguration, "render", "settings", msg, nil)
}
