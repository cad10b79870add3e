package service

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/makeasinger/mashup/internal/client"
	"github.com/makeasinger/mashup/internal/config"
	"github.com/makeasinger/mashup/internal/model"
)

// fakeSource writes one small file per id into the download dir
type fakeSource struct {
	ids     []string
	empty   map[string]bool
	err     error
	queries []string
	started chan struct{}
	release chan struct{}
}

func (f *fakeSource) Search(ctx context.Context, query, dir string) ([]client.DownloadedTrack, error) {
	f.queries = append(f.queries, query)
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	tracks := make([]client.DownloadedTrack, 0, len(f.ids))
	for _, id := range f.ids {
		path := filepath.Join(dir, id+".webm")
		content := []byte("audio:" + id)
		if f.empty[id] {
			content = nil
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return nil, err
		}
		tracks = append(tracks, client.DownloadedTrack{ID: id, Title: "Song " + id, Path: path})
	}
	return tracks, f.err
}

// fakeAudio copies bytes around instead of running ffmpeg
type fakeAudio struct {
	mu          sync.Mutex
	trimmed     []string
	emptyTrim   bool
	emptyConcat bool
	trimErr     error
	probe       float64
	probeErr    error
}

func (f *fakeAudio) Trim(_ context.Context, in, out string, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trimErr != nil {
		return f.trimErr
	}
	f.trimmed = append(f.trimmed, in)
	if f.emptyTrim {
		return os.WriteFile(out, nil, 0o644)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, append(data, []byte(fmt.Sprintf("|%ds", seconds))...), 0o644)
}

func (f *fakeAudio) Concat(_ context.Context, manifest, out string) error {
	if f.emptyConcat {
		return nil
	}
	file, err := os.Open(manifest)
	if err != nil {
		return err
	}
	defer file.Close()

	var joined []byte
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSuffix(strings.TrimPrefix(scanner.Text(), "file '"), "'")
		data, err := os.ReadFile(strings.ReplaceAll(line, `'\''`, "'"))
		if err != nil {
			return err
		}
		joined = append(joined, data...)
	}
	return os.WriteFile(out, joined, 0o644)
}

func (f *fakeAudio) Probe(_ context.Context, _ string) (float64, error) {
	return f.probe, f.probeErr
}

// fakeMailer records sends and checks the attachment is on disk
type fakeMailer struct {
	sent []*client.MailMessage
	err  error
}

func (f *fakeMailer) Send(_ context.Context, m *client.MailMessage) error {
	if f.err != nil {
		return f.err
	}
	if _, err := os.Stat(m.AttachmentPath); err != nil {
		return err
	}
	f.sent = append(f.sent, m)
	return nil
}

type recordedEvent struct {
	kind     string
	stage    model.Stage
	progress int
	code     string
	message  string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeNotifier) BroadcastProgress(_ string, stage model.Stage, progress int, _ model.JobStatus, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: "progress", stage: stage, progress: progress})
}

func (f *fakeNotifier) BroadcastComplete(_ string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: "complete"})
}

func (f *fakeNotifier) BroadcastError(_ string, code, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: "error", code: code, message: message})
}

func testMashupConfig(t *testing.T) *config.MashupConfig {
	t.Helper()
	return &config.MashupConfig{
		WorkDir:             t.TempDir(),
		DownloadsDir:        "downloads",
		OutputName:          "mashup.mp3",
		ArchiveName:         "mashup.zip",
		ManifestName:        "file_list.txt",
		DefaultClipCount:    model.DefaultClipCount,
		DefaultClipDuration: model.DefaultClipDuration,
	}
}

func trackIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid%02d", i+1)
	}
	return ids
}

// jobDirs lists everything left in the work root apart from the lock file
func jobDirs(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read work root: %v", err)
	}
	var names []string
	for _, e := range entries {
		if e.Name() == lockFileName {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}
