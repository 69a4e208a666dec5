package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeProject()
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.RootDir) == "" {
		c.Paths.RootDir = defaultRootDir
	}
	if value, ok := os.LookupEnv("DCCPIPE_ROOT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.RootDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}

	var err error
	if c.Paths.RootDir, err = expandPath(c.Paths.RootDir); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("DCCPIPE_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeProject() {
	c.Project.CreatedBy = strings.TrimSpace(c.Project.CreatedBy)
	if c.Project.CreatedBy == "" {
		c.Project.CreatedBy = defaultCreatedBy
	}
	if c.Project.ConvertStartFrame == 0 && c.Project.ConvertEndFrame == 0 {
		c.Project.ConvertStartFrame = defaultConvertStartFrame
		c.Project.ConvertEndFrame = defaultConvertEndFrame
	}
}

func (c *Config) normalizeTools() error {
	if value, ok := os.LookupEnv("DCCPIPE_MAYAPY"); ok && strings.TrimSpace(value) != "" {
		c.Maya.Python = value
	}
	if value, ok := os.LookupEnv("DCCPIPE_HYTHON"); ok && strings.TrimSpace(value) != "" {
		c.Houdini.Python = value
	}
	if err := normalizeTool(&c.Maya, "maya", defaultMayaPython, defaultMayaSuccessMarker); err != nil {
		return err
	}
	return normalizeTool(&c.Houdini, "houdini", defaultHoudiniPython, defaultHoudiniSuccessMarker)
}

func normalizeTool(tool *Tool, section, python, marker string) error {
	tool.Python = strings.TrimSpace(tool.Python)
	if tool.Python == "" {
		tool.Python = python
	}
	// Bare interpreter names are resolved through PATH at run time.
	if strings.ContainsRune(tool.Python, '/') || strings.HasPrefix(tool.Python, "~") {
		expanded, err := expandPath(tool.Python)
		if err != nil {
			return fmt.Errorf("%s.python: %w", section, err)
		}
		tool.Python = expanded
	}
	var err error
	if tool.Adapter, err = expandPath(strings.TrimSpace(tool.Adapter)); err != nil {
		return fmt.Errorf("%s.adapter: %w", section, err)
	}
	tool.ExtraArgs = strings.TrimSpace(tool.ExtraArgs)
	tool.SuccessMarker = strings.TrimSpace(tool.SuccessMarker)
	if tool.SuccessMarker == "" {
		tool.SuccessMarker = marker
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.Renderer = strings.TrimSpace(c.Render.Renderer)
	if c.Render.Renderer == "" {
		c.Render.Renderer = defaultRenderer
	}
	c.Render.OutputFormat = strings.ToUpper(strings.TrimSpace(c.Render.OutputFormat))
	if c.Render.OutputFormat == "" {
		c.Render.OutputFormat = defaultOutputFormat
	}
	if c.Render.FPS == 0 {
		c.Render.FPS = defaultRenderFPS
	}
	if c.Render.Width == 0 {
		c.Render.Width = defaultResolutionWidth
	}
	if c.Render.Height == 0 {
		c.Render.Height = defaultResolutionHeight
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("DCCPIPE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}
