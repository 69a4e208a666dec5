package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"dccpipe/internal/services"
)

// FileType classifies a source scene.
type FileType string

// Known file types.
const (
	FileTypeUSD     FileType = "usd"
	FileTypeMaya    FileType = "maya"
	FileTypeHoudini FileType = "houdini"
	FileTypeOther   FileType = "other"
)

var extensionTypes = map[string]FileType{
	".usd":   FileTypeUSD,
	".usda":  FileTypeUSD,
	".usdc":  FileTypeUSD,
	".ma":    FileTypeMaya,
	".mb":    FileTypeMaya,
	".hip":   FileTypeHoudini,
	".hipnc": FileTypeHoudini,
	".hiplc": FileTypeHoudini,
}

// DetectFileType infers the type from the file extension.
func DetectFileType(path string) FileType {
	if ft, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ft
	}
	return FileTypeOther
}

// ParseFileType accepts an explicit type name. An empty value yields "".
func ParseFileType(value string) (FileType, error) {
	switch ft := FileType(strings.ToLower(strings.TrimSpace(value))); ft {
	case "", FileTypeUSD, FileTypeMaya, FileTypeHoudini, FileTypeOther:
		return ft, nil
	default:
		return "", services.Wrap(services.ErrInvalidConfiguration, "project", "file type",
			fmt.Sprintf("unknown file type %q", value), nil)
	}
}

// NeedsConversion reports whether scenes of this type go through a DCC
// adapter before they can be used.
func (ft FileType) NeedsConversion() bool {
	return ft == FileTypeMaya || ft == FileTypeHoudini
}
