package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/makeasinger/mashup/internal/config"
)

// Workspace holds every file one job creates, scoped under its job id
type Workspace struct {
	JobID        string
	Dir          string
	DownloadsDir string
	OutputPath   string
	ArchivePath  string
	ManifestPath string
}

// NewWorkspace lays out the job's paths without touching the filesystem
func NewWorkspace(cfg *config.MashupConfig, jobID string) *Workspace {
	dir := filepath.Join(cfg.WorkDir, jobID)
	return &Workspace{
		JobID:        jobID,
		Dir:          dir,
		DownloadsDir: filepath.Join(dir, cfg.DownloadsDir),
		OutputPath:   filepath.Join(dir, cfg.OutputName),
		ArchivePath:  filepath.Join(dir, cfg.ArchiveName),
		ManifestPath: filepath.Join(dir, cfg.ManifestName),
	}
}

// Prepare creates the job and downloads directories
func (w *Workspace) Prepare() error {
	if err := os.MkdirAll(w.DownloadsDir, 0o755); err != nil {
		return fmt.Errorf("create working directory: %w", err)
	}
	return nil
}

// Cleanup removes the downloads directory, the mashup, the archive and the
// manifest, then the job directory. Absent items are skipped, so running it
// again is a no-op.
func (w *Workspace) Cleanup() error {
	var errs []error

	if exists(w.DownloadsDir) {
		if err := os.RemoveAll(w.DownloadsDir); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", w.DownloadsDir, err))
		}
	}

	for _, path := range []string{w.OutputPath, w.ArchivePath, w.ManifestPath} {
		if !exists(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}

	if exists(w.Dir) {
		if err := os.RemoveAll(w.Dir); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", w.Dir, err))
		}
	}

	return errors.Join(errs...)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// nonEmptyFile reports whether path is a regular file with content
func nonEmptyFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// verifyOutput fails with ErrEmptyOutput when a step left nothing behind
func verifyOutput(step, path string) error {
	if !nonEmptyFile(path) {
		return fmt.Errorf("%s produced no output at %s: %w", step, filepath.Base(path), ErrEmptyOutput)
	}
	return nil
}
