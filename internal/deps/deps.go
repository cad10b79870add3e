// Package deps reports whether the external tools a mashup needs are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/makeasinger/mashup/internal/config"
)

// Requirement names an external binary the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Requirements lists the tools used by acquisition and build.
func Requirements(tools *config.ToolsConfig) []Requirement {
	return []Requirement{
		{Name: "yt-dlp", Command: tools.YTDLP, Description: "search and download tracks"},
		{Name: "ffmpeg", Command: tools.FFmpeg, Description: "trim and concatenate clips"},
		{Name: "ffprobe", Command: tools.FFprobe, Description: "measure mashup duration"},
	}
}

// CheckBinaries resolves each requirement against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		switch {
		case req.Command == "":
			status.Detail = "command not configured"
		default:
			path, err := exec.LookPath(req.Command)
			if err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", req.Command)
				break
			}
			status.Available = true
			status.Detail = path
		}
		results = append(results, status)
	}
	return results
}

// AllAvailable reports whether every status is available.
func AllAvailable(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Available {
			return false
		}
	}
	return true
}
