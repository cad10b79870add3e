package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/makeasinger/mashup/internal/client"
	"github.com/makeasinger/mashup/internal/model"
)

// Tag values written into the finished mashup
const (
	mashupAlbum       = "Mashup Magic"
	trimmedFilePrefix = "trimmed_"
)

// BuildOutput describes the mashup a Build produced
type BuildOutput struct {
	Tracks          []model.Track
	DurationSeconds float64
}

// Builder trims acquired tracks and joins them into one mashup file
type Builder struct {
	audio client.AudioProcessor
}

// NewBuilder creates a new mashup builder
func NewBuilder(audio client.AudioProcessor) *Builder {
	return &Builder{audio: audio}
}

// Build trims every track to seconds, writes the manifest in track order and
// concatenates into the workspace output. Each step's output is checked
// before the next one runs.
func (b *Builder) Build(ctx context.Context, ws *Workspace, artist string, tracks []model.Track, seconds int) (*BuildOutput, error) {
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	trimmed := make([]model.Track, 0, len(tracks))
	paths := make([]string, 0, len(tracks))
	for _, track := range tracks {
		out := TrimmedPath(ws.DownloadsDir, track.SourcePath)
		if err := b.audio.Trim(ctx, track.SourcePath, out, seconds); err != nil {
			return nil, fmt.Errorf("trim %s: %w", track.ID, err)
		}
		if err := verifyOutput("trim "+track.ID, out); err != nil {
			return nil, err
		}
		track.TrimmedPath = out
		trimmed = append(trimmed, track)
		paths = append(paths, out)
	}

	if err := WriteManifest(ws.ManifestPath, paths); err != nil {
		return nil, err
	}

	if err := b.audio.Concat(ctx, ws.ManifestPath, ws.OutputPath); err != nil {
		return nil, fmt.Errorf("concat: %w", err)
	}
	if err := verifyOutput("concat", ws.OutputPath); err != nil {
		return nil, err
	}

	if err := tagMashup(ws.OutputPath, artist); err != nil {
		log.Printf("Failed to tag mashup for job %s: %v", ws.JobID, err)
	}

	duration, err := b.audio.Probe(ctx, ws.OutputPath)
	if err != nil {
		log.Printf("Failed to probe mashup duration for job %s: %v", ws.JobID, err)
		duration = 0
	}

	return &BuildOutput{Tracks: trimmed, DurationSeconds: duration}, nil
}

// TrimmedPath names the trimmed copy of source inside dir
func TrimmedPath(dir, source string) string {
	return filepath.Join(dir, trimmedFilePrefix+filepath.Base(source)+".mp3")
}

// WriteManifest writes one concat-demuxer entry per path, in order
func WriteManifest(path string, files []string) error {
	var sb strings.Builder
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", f, err)
		}
		sb.WriteString("file '")
		sb.WriteString(escapeManifestPath(abs))
		sb.WriteString("'\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// escapeManifestPath closes the quote around an embedded single quote
func escapeManifestPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}

func tagMashup(path, artist string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tag: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetArtist(artist)
	tag.SetTitle(artist + " Mashup")
	tag.SetAlbum(mashupAlbum)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}
