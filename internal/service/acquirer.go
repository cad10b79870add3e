package service

import (
	"context"
	"fmt"
	"log"

	"github.com/makeasinger/mashup/internal/client"
	"github.com/makeasinger/mashup/internal/model"
)

// Acquirer downloads the tracks a mashup is cut from
type Acquirer struct {
	source client.TrackSource
}

// NewAcquirer creates a new track acquirer
func NewAcquirer(source client.TrackSource) *Acquirer {
	return &Acquirer{source: source}
}

// Acquire issues one search-and-download for count results and returns the
// tracks that landed on disk, in search order. Fewer than count is fine;
// none at all is ErrNoTracks.
func (a *Acquirer) Acquire(ctx context.Context, ws *Workspace, artist string, count int) ([]model.Track, error) {
	if err := ws.Prepare(); err != nil {
		return nil, err
	}

	query := client.SearchQuery(artist, count)
	log.Printf("Searching tracks for job %s: %q", ws.JobID, query)

	downloaded, searchErr := a.source.Search(ctx, query, ws.DownloadsDir)

	tracks := make([]model.Track, 0, len(downloaded))
	seen := make(map[string]bool, len(downloaded))
	for _, d := range downloaded {
		if seen[d.ID] {
			continue
		}
		if !nonEmptyFile(d.Path) {
			log.Printf("Skipping track %s for job %s: no audio on disk", d.ID, ws.JobID)
			continue
		}
		seen[d.ID] = true
		tracks = append(tracks, model.Track{
			ID:         d.ID,
			Title:      d.Title,
			SourcePath: d.Path,
		})
	}

	if searchErr != nil {
		if len(tracks) == 0 {
			return nil, fmt.Errorf("download tracks: %w", searchErr)
		}
		log.Printf("Download for job %s reported errors, continuing with %d tracks: %v", ws.JobID, len(tracks), searchErr)
	}

	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	return tracks, nil
}
