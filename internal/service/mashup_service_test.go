package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/makeasinger/mashup/internal/client"
	"github.com/makeasinger/mashup/internal/model"
	"github.com/makeasinger/mashup/internal/validation"
)

func mashupRequest(artist, email string) *model.MashupRequest {
	return &model.MashupRequest{
		Artist:       artist,
		Email:        email,
		ClipCount:    model.DefaultClipCount,
		ClipDuration: model.DefaultClipDuration,
	}
}

type testPipeline struct {
	svc      *MashupService
	source   *fakeSource
	audio    *fakeAudio
	mailer   *fakeMailer
	store    *MemoryJobStore
	notifier *fakeNotifier
	workDir  string
}

func newTestPipeline(t *testing.T, source *fakeSource) *testPipeline {
	t.Helper()
	cfg := testMashupConfig(t)
	p := &testPipeline{
		source:   source,
		audio:    &fakeAudio{probe: 450},
		mailer:   &fakeMailer{},
		store:    NewMemoryJobStore(),
		notifier: &fakeNotifier{},
		workDir:  cfg.WorkDir,
	}
	p.svc = NewMashupService(cfg, validation.New(), p.source, p.audio, p.mailer, p.store, p.notifier)
	return p
}

func TestGenerateDeliversMashup(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{ids: trackIDs(15)})

	var stages []model.Stage
	result, err := p.svc.Generate(context.Background(), mashupRequest("Daft Punk", "a@b.co"), func(stage model.Stage, _ int, _ string) {
		stages = append(stages, stage)
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if result.TrackCount != 15 || result.RequestedCount != 15 || result.ClipDuration != 30 {
		t.Errorf("unexpected result counts: %+v", result)
	}
	if result.Warning != "" {
		t.Errorf("expected no warning, got %q", result.Warning)
	}
	if result.ArchiveName != "mashup.zip" || result.ArchiveSize <= 0 {
		t.Errorf("unexpected archive info %q %d", result.ArchiveName, result.ArchiveSize)
	}
	if p.source.queries[0] != "ytsearch15:Daft Punk songs" {
		t.Errorf("unexpected query %q", p.source.queries[0])
	}
	if len(p.audio.trimmed) != 15 {
		t.Errorf("expected 15 trims, got %d", len(p.audio.trimmed))
	}
	if len(p.mailer.sent) != 1 || p.mailer.sent[0].To != "a@b.co" {
		t.Fatalf("expected one message to a@b.co, got %+v", p.mailer.sent)
	}

	wantStages := []model.Stage{
		model.StageValidating, model.StageAcquiring, model.StageBuilding,
		model.StagePackaging, model.StageDelivering, model.StageCleaning, model.StageIdle,
	}
	if len(stages) != len(wantStages) {
		t.Fatalf("expected stages %v, got %v", wantStages, stages)
	}
	for i := range wantStages {
		if stages[i] != wantStages[i] {
			t.Errorf("stage %d: expected %s, got %s", i, wantStages[i], stages[i])
		}
	}

	if left := jobDirs(t, p.workDir); len(left) != 0 {
		t.Errorf("expected clean work root, found %v", left)
	}

	job, err := p.svc.GetJob(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != model.JobStatusSucceeded || job.Progress != 100 || job.Result == nil {
		t.Errorf("unexpected stored job %+v", job)
	}

	last := p.notifier.events[len(p.notifier.events)-1]
	if last.kind != "complete" {
		t.Errorf("expected final complete event, got %+v", last)
	}
}

func TestGenerateUsesClientJobID(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{ids: trackIDs(11)})
	jobID := "4f1b7f5e-2c43-4b0e-9a55-0c6f5c9d8e21"

	result, err := p.svc.Generate(context.Background(), &model.MashupRequest{
		Artist: "x", Email: "a@b.co", ClipCount: 11, ClipDuration: 21, JobID: jobID,
	}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.JobID != jobID {
		t.Fatalf("expected job id %s, got %s", jobID, result.JobID)
	}
}

func TestGenerateFewerTracksWarns(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{ids: trackIDs(4)})

	result, err := p.svc.Generate(context.Background(), mashupRequest("Obscure", "a@b.co"), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.TrackCount != 4 {
		t.Errorf("expected 4 tracks, got %d", result.TrackCount)
	}
	if !strings.Contains(result.Warning, "4 of 15") {
		t.Errorf("expected shortfall warning, got %q", result.Warning)
	}
}

func TestGenerateRejectsInvalidEmail(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{ids: trackIDs(15)})

	_, err := p.svc.Generate(context.Background(), mashupRequest("Adele", "not-an-email"), nil)

	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Message != validation.MsgInvalidEmail {
		t.Fatalf("expected invalid email rejection, got %v", err)
	}
	if FailedStage(err) != model.StageValidating {
		t.Errorf("expected validating stage, got %s", FailedStage(err))
	}
	if len(p.source.queries) != 0 || len(p.mailer.sent) != 0 {
		t.Error("expected no external calls")
	}
	if left := jobDirs(t, p.workDir); len(left) != 0 {
		t.Errorf("expected no files, found %v", left)
	}
}

func TestGenerateLeavesRequestUntouched(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{ids: trackIDs(11)})
	req := &model.MashupRequest{Artist: "x", Email: "a@b.co", ClipDuration: 30}

	_, err := p.svc.Generate(context.Background(), req, nil)

	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Message != validation.MsgClipCount {
		t.Fatalf("expected zero clip count to be rejected, got %v", err)
	}
	if req.ClipCount != 0 || req.JobID != "" {
		t.Errorf("expected request unchanged, got %+v", req)
	}
	if len(p.source.queries) != 0 {
		t.Error("expected no search for a rejected request")
	}
}

func TestGenerateNoTracks(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{})

	_, err := p.svc.Generate(context.Background(), mashupRequest("zzzzzzzzqqqq", "a@b.co"), nil)
	if !errors.Is(err, ErrNoTracks) {
		t.Fatalf("expected ErrNoTracks, got %v", err)
	}
	if FailedStage(err) != model.StageAcquiring {
		t.Errorf("expected acquiring stage, got %s", FailedStage(err))
	}
	if !strings.HasPrefix(FailureMessage(err), "Something went wrong: ") {
		t.Errorf("unexpected failure message %q", FailureMessage(err))
	}
	if len(p.mailer.sent) != 0 {
		t.Error("expected no email")
	}
	if left := jobDirs(t, p.workDir); len(left) != 0 {
		t.Errorf("expected cleanup after failure, found %v", left)
	}
}

func TestGenerateMailNotConfigured(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{ids: trackIDs(12)})
	p.mailer.err = client.ErrMailNotConfigured

	_, err := p.svc.Generate(context.Background(), mashupRequest("x", "a@b.co"), nil)
	if !errors.Is(err, client.ErrMailNotConfigured) {
		t.Fatalf("expected ErrMailNotConfigured, got %v", err)
	}
	if FailedStage(err) != model.StageDelivering {
		t.Errorf("expected delivering stage, got %s", FailedStage(err))
	}
	if left := jobDirs(t, p.workDir); len(left) != 0 {
		t.Errorf("expected archive removed, found %v", left)
	}

	var code string
	for _, e := range p.notifier.events {
		if e.kind == "error" {
			code = e.code
		}
	}
	if code != ErrorCodeJobFailed {
		t.Errorf("expected JOB_FAILED broadcast, got %q", code)
	}
}

func TestGenerateBuildFailureStage(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{ids: trackIDs(11)})
	p.audio.emptyConcat = true

	_, err := p.svc.Generate(context.Background(), mashupRequest("x", "a@b.co"), nil)
	if !errors.Is(err, ErrEmptyOutput) || FailedStage(err) != model.StageBuilding {
		t.Fatalf("expected empty output in building, got %v", err)
	}
}

func TestGenerateRejectsConcurrentJob(t *testing.T) {
	source := &fakeSource{
		ids:     trackIDs(11),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	p := newTestPipeline(t, source)

	done := make(chan error, 1)
	go func() {
		_, err := p.svc.Generate(context.Background(), mashupRequest("first", "a@b.co"), nil)
		done <- err
	}()

	select {
	case <-source.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first job never started")
	}

	_, err := p.svc.Generate(context.Background(), mashupRequest("second", "c@d.co"), nil)
	if !IsBusy(err) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(source.release)
	if err := <-done; err != nil {
		t.Fatalf("first job failed: %v", err)
	}

	if len(source.queries) != 1 {
		t.Errorf("expected only the first job to search, got %v", source.queries)
	}
}

func TestGenerateCancelledStillCleansUp(t *testing.T) {
	source := &fakeSource{
		ids:     trackIDs(11),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	p := newTestPipeline(t, source)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := p.svc.Generate(ctx, mashupRequest("x", "a@b.co"), nil)
		done <- err
	}()
	<-source.started
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if left := jobDirs(t, p.workDir); len(left) != 0 {
		t.Errorf("expected cleanup after cancel, found %v", left)
	}
}
