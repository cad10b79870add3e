package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/makeasinger/mashup/internal/client"
	"github.com/makeasinger/mashup/internal/config"
	"github.com/makeasinger/mashup/internal/model"
	"github.com/makeasinger/mashup/internal/validation"
)

const lockFileName = ".mashup.lock"

// Stage progress, in percent
const (
	progressValidating = 5
	progressAcquiring  = 10
	progressBuilding   = 40
	progressPackaging  = 70
	progressDelivering = 85
	progressDone       = 100
)

// Error codes sent to websocket subscribers
const (
	ErrorCodeJobFailed = "JOB_FAILED"
)

// ProgressFunc receives every stage transition of a running job
type ProgressFunc func(stage model.Stage, progress int, step string)

// Notifier publishes job events to subscribers
type Notifier interface {
	BroadcastProgress(jobID string, stage model.Stage, progress int, status model.JobStatus, step string)
	BroadcastComplete(jobID string, result interface{})
	BroadcastError(jobID string, code, message string)
}

// MashupService runs the validate, acquire, build, package, deliver and
// cleanup pipeline for one job at a time
type MashupService struct {
	cfg      *config.MashupConfig
	validate *validator.Validate
	acquirer *Acquirer
	builder  *Builder
	delivery *Delivery
	store    JobStore
	notifier Notifier
	inFlight sync.Mutex
	fileLock *flock.Flock
}

func NewMashupService(
	cfg *config.MashupConfig,
	v *validator.Validate,
	source client.TrackSource,
	audio client.AudioProcessor,
	mailer client.Mailer,
	store JobStore,
	notifier Notifier,
) *MashupService {
	if store == nil {
		store = NewMemoryJobStore()
	}
	return &MashupService{
		cfg:      cfg,
		validate: v,
		acquirer: NewAcquirer(source),
		builder:  NewBuilder(audio),
		delivery: NewDelivery(mailer),
		store:    store,
		notifier: notifier,
		fileLock: flock.New(filepath.Join(cfg.WorkDir, lockFileName)),
	}
}

// Generate runs one mashup job to completion. The request is copied and
// never modified. Validation failures return before anything is written.
// Every later failure is a *StageError and the job's files are removed
// either way.
func (s *MashupService) Generate(ctx context.Context, in *model.MashupRequest, progress ProgressFunc) (*model.MashupResult, error) {
	request := *in
	req := &request

	run := &jobRun{svc: s, progress: progress}
	run.report(model.StageValidating, progressValidating, "Validating request")
	if err := validation.ValidateRequest(s.validate, req); err != nil {
		return nil, stageErr(model.StageValidating, err)
	}

	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.New().String()
	}

	now := time.Now()
	run.job = &model.Job{
		ID:        jobID,
		Status:    model.JobStatusRunning,
		Stage:     model.StageValidating,
		Progress:  progressValidating,
		Artist:    req.Artist,
		Email:     req.Email,
		CreatedAt: now,
		StartedAt: &now,
	}
	run.save(ctx)

	log.Printf("Starting mashup job %s: %q, %d clips of %ds", jobID, req.Artist, req.ClipCount, req.ClipDuration)

	ws := NewWorkspace(s.cfg, jobID)
	result, err := run.pipeline(ctx, ws, req)

	run.report(model.StageCleaning, run.job.Progress, "Cleaning up")
	if cleanErr := ws.Cleanup(); cleanErr != nil {
		log.Printf("Cleanup for job %s incomplete: %v", jobID, cleanErr)
	}

	if err != nil {
		run.fail(err)
		log.Printf("Mashup job %s failed in %s: %v", jobID, FailedStage(err), err)
		return nil, err
	}

	run.succeed(result)
	log.Printf("Mashup job %s delivered to %s (%d tracks)", jobID, req.Email, result.TrackCount)
	return result, nil
}

// Defaults returns the clip settings used when a form leaves them out
func (s *MashupService) Defaults() (clipCount, clipDuration int) {
	return s.cfg.DefaultClipCount, s.cfg.DefaultClipDuration
}

// GetJob returns the stored status of a job
func (s *MashupService) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	return s.store.Get(ctx, jobID)
}

// lock takes the in-process gate and the work root file lock
func (s *MashupService) lock() (func(), error) {
	if !s.inFlight.TryLock() {
		return nil, ErrBusy
	}

	if err := os.MkdirAll(s.cfg.WorkDir, 0o755); err != nil {
		s.inFlight.Unlock()
		return nil, fmt.Errorf("create work root: %w", err)
	}

	locked, err := s.fileLock.TryLock()
	if err != nil {
		s.inFlight.Unlock()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		s.inFlight.Unlock()
		return nil, ErrBusy
	}

	return func() {
		if err := s.fileLock.Unlock(); err != nil {
			log.Printf("Failed to release mashup lock: %v", err)
		}
		s.inFlight.Unlock()
	}, nil
}

// jobRun tracks the status record of the job being generated
type jobRun struct {
	svc      *MashupService
	job      *model.Job
	progress ProgressFunc
}

func (r *jobRun) pipeline(ctx context.Context, ws *Workspace, req *model.MashupRequest) (*model.MashupResult, error) {
	r.report(model.StageAcquiring, progressAcquiring, "Downloading tracks")
	tracks, err := r.svc.acquirer.Acquire(ctx, ws, req.Artist, req.ClipCount)
	if err != nil {
		return nil, stageErr(model.StageAcquiring, err)
	}

	var warning string
	if len(tracks) < req.ClipCount {
		warning = fmt.Sprintf("Only %d of %d requested tracks were found.", len(tracks), req.ClipCount)
		r.job.Warning = warning
		log.Printf("Job %s: %s", ws.JobID, warning)
	}

	r.report(model.StageBuilding, progressBuilding, fmt.Sprintf("Cutting %d tracks", len(tracks)))
	built, err := r.svc.builder.Build(ctx, ws, req.Artist, tracks, req.ClipDuration)
	if err != nil {
		return nil, stageErr(model.StageBuilding, err)
	}

	r.report(model.StagePackaging, progressPackaging, "Zipping mashup")
	size, err := Package(ws.OutputPath, ws.ArchivePath)
	if err != nil {
		return nil, stageErr(model.StagePackaging, err)
	}

	r.report(model.StageDelivering, progressDelivering, "Sending email")
	if err := r.svc.delivery.Deliver(ctx, req.Email, req.Artist, ws.ArchivePath); err != nil {
		return nil, stageErr(model.StageDelivering, err)
	}

	return &model.MashupResult{
		JobID:           ws.JobID,
		Artist:          req.Artist,
		Email:           req.Email,
		RequestedCount:  req.ClipCount,
		TrackCount:      len(built.Tracks),
		Tracks:          built.Tracks,
		ClipDuration:    req.ClipDuration,
		DurationSeconds: built.DurationSeconds,
		ArchiveName:     filepath.Base(ws.ArchivePath),
		ArchiveSize:     size,
		Warning:         warning,
	}, nil
}

func (r *jobRun) report(stage model.Stage, progress int, step string) {
	if r.progress != nil {
		r.progress(stage, progress, step)
	}
	if r.job == nil {
		return
	}

	r.job.Stage = stage
	r.job.Progress = progress
	r.job.CurrentStep = step
	// status updates must not be lost to a cancelled request
	r.save(context.Background())
	if r.svc.notifier != nil {
		r.svc.notifier.BroadcastProgress(r.job.ID, stage, progress, r.job.Status, step)
	}
}

func (r *jobRun) succeed(result *model.MashupResult) {
	now := time.Now()
	r.job.Status = model.JobStatusSucceeded
	r.job.Stage = model.StageIdle
	r.job.Progress = progressDone
	r.job.CurrentStep = "Mashup sent"
	r.job.Result = result
	r.job.CompletedAt = &now
	r.save(context.Background())

	if r.progress != nil {
		r.progress(model.StageIdle, progressDone, r.job.CurrentStep)
	}
	if r.svc.notifier != nil {
		r.svc.notifier.BroadcastComplete(r.job.ID, result)
	}
}

func (r *jobRun) fail(err error) {
	now := time.Now()
	msg := FailureMessage(err)
	r.job.Status = model.JobStatusFailed
	r.job.Stage = FailedStage(err)
	r.job.Error = &msg
	r.job.CompletedAt = &now
	r.save(context.Background())

	if r.svc.notifier != nil {
		r.svc.notifier.BroadcastError(r.job.ID, ErrorCodeJobFailed, msg)
	}
}

func (r *jobRun) save(ctx context.Context) {
	if err := r.svc.store.Save(ctx, r.job); err != nil {
		log.Printf("Failed to save job %s: %v", r.job.ID, err)
	}
}

// IsBusy reports whether err means another job holds the lock
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
