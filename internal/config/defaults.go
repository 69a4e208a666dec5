package config

const (
	defaultRootDir              = "~/dccpipe/projects"
	defaultLogDir               = "~/.local/share/dccpipe/logs"
	defaultStateDir             = "~/.local/share/dccpipe"
	defaultAPIBind              = "127.0.0.1:7490"
	defaultCreatedBy            = "ADMIN"
	defaultConvertStartFrame    = 1
	defaultConvertEndFrame      = 1
	defaultMayaPython           = "mayapy"
	defaultMayaAdapter          = "~/.local/share/dccpipe/adapters/maya_adapter.py"
	defaultMayaSuccessMarker    = "[MAYA] Exported USD"
	defaultHoudiniPython        = "hython"
	defaultHoudiniAdapter       = "~/.local/share/dccpipe/adapters/houdini_adapter.py"
	defaultHoudiniSuccessMarker = "[HOUDINI] Exported USD"
	defaultRenderer             = "Arnold"
	defaultRenderFPS            = 24
	defaultOutputFormat         = "EXR"
	defaultResolutionWidth      = 1920
	defaultResolutionHeight     = 1080
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultNotifyTimeout        = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RootDir:  defaultRootDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Project: Project{
			CreatedBy:         defaultCreatedBy,
			ConvertStartFrame: defaultConvertStartFrame,
			ConvertEndFrame:   defaultConvertEndFrame,
		},
		Maya: Tool{
			Python:        defaultMayaPython,
			Adapter:       defaultMayaAdapter,
			SuccessMarker: defaultMayaSuccessMarker,
		},
		Houdini: Tool{
			Python:        defaultHoudiniPython,
			Adapter:       defaultHoudiniAdapter,
			SuccessMarker: defaultHoudiniSuccessMarker,
		},
		Render: Render{
			Renderer:     defaultRenderer,
			FPS:          defaultRenderFPS,
			OutputFormat: defaultOutputFormat,
			Width:        defaultResolutionWidth,
			Height:       defaultResolutionHeight,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
