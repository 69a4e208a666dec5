// Package deps reports whether the external programs and adapter scripts
// dccpipe launches are present.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"dccpipe/internal/config"
)

// Requirement defines an external dependency dccpipe relies on. File
// requirements are checked with stat instead of a PATH lookup.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	File        bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists the interpreters and adapter scripts configured in cfg.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{Name: "mayapy", Command: cfg.Maya.Python, Description: "Maya interpreter for USD export and Arnold renders"},
		{Name: "Maya adapter", Command: cfg.Maya.Adapter, Description: "Adapter script run by mayapy", File: true},
		{Name: "hython", Command: cfg.Houdini.Python, Description: "Houdini interpreter for USD export and Karma renders"},
		{Name: "Houdini adapter", Command: cfg.Houdini.Adapter, Description: "Adapter script run by hython", File: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		case req.File:
			info, err := os.Stat(cmd)
			switch {
			case err != nil:
				status.Detail = fmt.Sprintf("file %q not found", cmd)
			case info.IsDir():
				status.Detail = fmt.Sprintf("%q is a directory", cmd)
			default:
				status.Available = true
			}
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the names of required dependencies that are unavailable.
func Missing(statuses []Status) []string {
	var names []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			names = append(names, status.Name)
		}
	}
	return names
}
