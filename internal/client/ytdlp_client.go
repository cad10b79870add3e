package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/makeasinger/mashup/internal/config"
)

// TrackSource resolves a search query into audio files on disk
type TrackSource interface {
	Search(ctx context.Context, query, dir string) ([]DownloadedTrack, error)
}

// DownloadedTrack is one search hit written to disk, in result order
type DownloadedTrack struct {
	ID    string
	Title string
	Path  string
}

// yt-dlp selection settings
const (
	AudioFormat    = "bestaudio/best"
	OutputTemplate = "%(id)s.%(ext)s"
)

// YTDLPClient implements TrackSource with yt-dlp
type YTDLPClient struct {
	binary string
}

// NewYTDLPClient creates a new yt-dlp backed track source
func NewYTDLPClient(cfg *config.ToolsConfig) *YTDLPClient {
	c := &YTDLPClient{}
	if cfg != nil {
		c.binary = cfg.YTDLP
	}
	return c
}

// Search runs one non-interactive download for the query, writing each
// result as <id>.<ext> under dir. A failed result does not abort the others;
// the run error is returned alongside whatever did download.
func (c *YTDLPClient) Search(ctx context.Context, query, dir string) ([]DownloadedTrack, error) {
	dl := ytdlp.New().
		Format(AudioFormat).
		Output(filepath.Join(dir, OutputTemplate)).
		NoPlaylist().
		IgnoreErrors().
		PrintJSON()
	if c.binary != "" {
		dl.SetExecutable(c.binary)
	}

	result, runErr := dl.Run(ctx, query)
	if result == nil {
		if runErr == nil {
			runErr = fmt.Errorf("yt-dlp returned no result")
		}
		return nil, fmt.Errorf("yt-dlp: %w", runErr)
	}

	info, err := result.GetExtractedInfo()
	if err != nil && len(info) == 0 {
		if runErr != nil {
			return nil, fmt.Errorf("yt-dlp: %w", runErr)
		}
		return nil, fmt.Errorf("failed to read yt-dlp output: %w", err)
	}

	tracks := make([]DownloadedTrack, 0, len(info))
	for _, item := range info {
		if item == nil || item.ID == "" {
			continue
		}
		track := DownloadedTrack{ID: item.ID}
		if item.Title != nil {
			track.Title = *item.Title
		}
		reported := ""
		if item.Filename != nil {
			reported = *item.Filename
		}
		track.Path = ResolveDownloadPath(dir, item.ID, reported)
		tracks = append(tracks, track)
	}

	if runErr != nil {
		return tracks, fmt.Errorf("yt-dlp: %w", runErr)
	}
	return tracks, nil
}

// ResolveDownloadPath prefers the filename yt-dlp reported and falls back to
// the first <id>.* file in dir. Partial downloads are ignored.
func ResolveDownloadPath(dir, id, reported string) string {
	if reported != "" {
		if info, err := os.Stat(reported); err == nil && info.Mode().IsRegular() {
			return reported
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	prefix := id + "."
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") {
			continue
		}
		return filepath.Join(dir, name)
	}
	return ""
}

// SearchQuery builds the yt-dlp search expression for count results
func SearchQuery(artist string, count int) string {
	return fmt.Sprintf("ytsearch%d:%s songs", count, strings.TrimSpace(artist))
}
