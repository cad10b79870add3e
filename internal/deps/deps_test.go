package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/makeasinger/mashup/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a unix shell")
	}
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	results := CheckBinaries([]Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Available || results[0].Detail != present {
		t.Errorf("expected present binary to resolve, got %+v", results[0])
	}
	if results[1].Available {
		t.Errorf("expected missing binary to be unavailable")
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Errorf("expected blank command to be unconfigured, got %+v", results[2])
	}
	if AllAvailable(results) {
		t.Error("expected AllAvailable to be false")
	}
	if !AllAvailable(results[:1]) {
		t.Error("expected AllAvailable to be true for the present binary")
	}
}

func TestRequirementsUseConfiguredBinaries(t *testing.T) {
	reqs := Requirements(&config.ToolsConfig{FFmpeg: "/opt/ffmpeg", FFprobe: "ffprobe", YTDLP: "yt-dlp"})
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if reqs[1].Name != "ffmpeg" || reqs[1].Command != "/opt/ffmpeg" {
		t.Errorf("unexpected ffmpeg requirement %+v", reqs[1])
	}
}
