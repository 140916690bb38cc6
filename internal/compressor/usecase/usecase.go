package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/panuavakul/v-video-compressor-sub001/internal/compressor"
	"github.com/panuavakul/v-video-compressor-sub001/internal/config"
	"github.com/panuavakul/v-video-compressor-sub001/internal/estimator"
	"github.com/panuavakul/v-video-compressor-sub001/internal/geometry"
	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/logger"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/utils"
)

// minAvailableMemory is the floor below which jobs are rejected rather
// than risking the native pipeline being killed mid-export.
const minAvailableMemory = 128 << 20

type compressorUC struct {
	cfg      *config.Config
	exporter compressor.Exporter
	prober   compressor.SourceProber
	repo     compressor.Repository
	logger   logger.Logger

	mu     sync.Mutex
	active *activeJob
}

// activeJob is the single "current job" slot. State lives under mu;
// callback invocations are serialized through cbMu so a progress
// emission either finishes before the terminal callback is delivered or
// observes the terminal flag and drops itself. Callbacks must not call
// back into the use case synchronously.
type activeJob struct {
	mu           sync.Mutex
	cbMu         sync.Mutex
	job          *models.CompressionJob
	session      compressor.ExportSession
	cb           compressor.JobCallbacks
	outputPath   string
	cancelled    bool
	terminal     bool
	lastProgress float64
}

func NewCompressorUseCase(
	cfg *config.Config,
	exporter compressor.Exporter,
	prober compressor.SourceProber,
	repo compressor.Repository,
	log logger.Logger,
) compressor.UseCase {
	return &compressorUC{
		cfg:      cfg,
		exporter: exporter,
		prober:   prober,
		repo:     repo,
		logger:   log,
	}
}

func (u *compressorUC) Estimate(ctx context.Context, src models.SourceVideoProperties, spec models.CompressionSpec) (*models.SizeEstimate, error) {
	if err := utils.ValidateStruct(ctx, &spec); err != nil {
		return nil, errors.Wrap(compressor.ErrInvalidInput, err.Error())
	}
	if err := spec.Validate(); err != nil {
		return nil, errors.Wrap(compressor.ErrInvalidInput, err.Error())
	}
	est := estimator.Estimate(src, spec)
	return &est, nil
}

func (u *compressorUC) ProbeSource(ctx context.Context, path string) (*models.SourceVideoProperties, error) {
	if path == "" {
		return nil, errors.Wrap(compressor.ErrInvalidInput, "empty source path")
	}
	return u.prober.Probe(ctx, path)
}

// SubmitJob accepts a compression request and drives it to a terminal
// state on a background goroutine. The returned job id is valid
// immediately; progress and the terminal result arrive via callbacks.
func (u *compressorUC) SubmitJob(ctx context.Context, src models.SourceVideoProperties, spec models.CompressionSpec, cb compressor.JobCallbacks) (string, error) {
	u.mu.Lock()
	if u.active != nil {
		u.mu.Unlock()
		return "", compressor.ErrJobActive
	}
	job := &models.CompressionJob{
		JobID:     uuid.New().String(),
		State:     models.JobStateIdle,
		Source:    src,
		Spec:      spec,
		StartedAt: time.Now(),
	}
	a := &activeJob{job: job, cb: cb}
	u.active = a
	u.mu.Unlock()

	u.logger.Infof("job %s accepted for %s (quality=%s)", job.JobID, src.Path, spec.Quality)
	go u.run(ctx, a)
	return job.JobID, nil
}

// Compress runs a single job synchronously.
func (u *compressorUC) Compress(ctx context.Context, src models.SourceVideoProperties, spec models.CompressionSpec) (*models.CompressionResult, error) {
	done := make(chan compressor.BatchResult, 1)
	_, err := u.SubmitJob(ctx, src, spec, compressor.JobCallbacks{
		OnDone: func(jobID string, result *models.CompressionResult, err error) {
			done <- compressor.BatchResult{JobID: jobID, Result: result, Err: err}
		},
	})
	if err != nil {
		return nil, err
	}
	out := <-done
	return out.Result, out.Err
}

// CompressBatch runs the items strictly sequentially; a failure of one
// item does not stop the rest.
func (u *compressorUC) CompressBatch(ctx context.Context, items []compressor.BatchItem) []compressor.BatchResult {
	results := make([]compressor.BatchResult, 0, len(items))
	for _, item := range items {
		res, err := u.Compress(ctx, item.Source, item.Spec)
		br := compressor.BatchResult{Result: res, Err: err}
		if res != nil {
			br.JobID = res.JobID
		}
		results = append(results, br)
	}
	return results
}

// Cancel flips the job's cancellation flag, aborts the export session,
// removes any partial output and reports the Cancelled outcome.
// Cancellation always wins over a racing success or failure signal.
func (u *compressorUC) Cancel(jobID string) error {
	u.mu.Lock()
	a := u.active
	u.mu.Unlock()
	if a == nil || a.job.JobID != jobID {
		return compressor.ErrJobNotFound
	}

	a.mu.Lock()
	if a.terminal {
		a.mu.Unlock()
		return nil
	}
	a.cancelled = true
	a.terminal = true
	a.job.State = models.JobStateCancelled
	a.job.CompletedAt = time.Now()
	session := a.session
	outputPath := a.outputPath
	a.mu.Unlock()

	u.logger.Infof("job %s cancelled", jobID)
	if session != nil {
		session.Abort()
	}
	removePartial(outputPath)
	u.persistRecord(a.job, nil, compressor.ErrCancelled)
	u.clearActive(a)
	a.emitDone(nil, compressor.ErrCancelled)
	return nil
}

func (u *compressorUC) IsActive() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.active != nil
}

func (u *compressorUC) GetJob(jobID string) (*models.CompressionJob, error) {
	u.mu.Lock()
	a := u.active
	u.mu.Unlock()
	if a != nil && a.job.JobID == jobID {
		a.mu.Lock()
		jobCopy := *a.job
		jobCopy.Progress = a.lastProgress
		a.mu.Unlock()
		return &jobCopy, nil
	}
	if u.repo == nil {
		return nil, compressor.ErrJobNotFound
	}
	record, err := u.repo.GetRecord(context.Background(), jobID)
	if err != nil {
		return nil, compressor.ErrJobNotFound
	}
	return jobFromRecord(record), nil
}

func (u *compressorUC) ListJobs(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error) {
	if u.repo == nil {
		return &models.JobList{Jobs: make([]*models.JobRecord, 0)}, nil
	}
	if pagination == nil {
		pagination = &utils.Pagination{Page: 1, Size: 10}
	}
	list, err := u.repo.ListRecords(ctx, pagination)
	if err != nil {
		u.logger.Errorf("ListJobs - ListRecords error: %v", err)
		return nil, fmt.Errorf("failed to list jobs: %v", err)
	}
	return list, nil
}

// run drives one job through the state machine. Every exit path either
// reports a terminal outcome here or has already had one reported by
// Cancel; partial output that will not be returned is always removed.
func (u *compressorUC) run(ctx context.Context, a *activeJob) {
	job := a.job

	u.setState(a, models.JobStateValidating)
	if err := u.validate(ctx, job); err != nil {
		u.fail(a, err)
		return
	}

	u.setState(a, models.JobStatePreparing)
	cfg, err := u.prepare(a)
	if err != nil {
		u.fail(a, err)
		return
	}

	u.setState(a, models.JobStateExporting)
	session, err := u.exporter.Submit(ctx, cfg)
	if err != nil {
		removePartial(cfg.OutputPath)
		if errors.Is(err, compressor.ErrNoVideoTrack) {
			u.fail(a, err)
		} else {
			u.fail(a, errors.Wrap(compressor.ErrExportFailed, err.Error()))
		}
		return
	}

	a.mu.Lock()
	if a.cancelled {
		// Cancel raced the submission; it could not abort a session it
		// never saw, so stop it here. Cancel has already reported.
		a.mu.Unlock()
		session.Abort()
		removePartial(cfg.OutputPath)
		return
	}
	a.session = session
	a.mu.Unlock()

	outcome, finished := u.sampleUntilDone(a, session)
	if !finished {
		// Cancelled while exporting; Cancel owns cleanup and reporting.
		return
	}

	switch {
	case outcome.Cancelled:
		u.cancelFromOutcome(a, cfg.OutputPath)
	case outcome.Err != nil:
		removePartial(cfg.OutputPath)
		u.fail(a, errors.Wrap(compressor.ErrExportFailed, outcome.Err.Error()))
	default:
		u.setState(a, models.JobStateFinalizing)
		result, err := u.finalize(job, cfg.OutputPath)
		if err != nil {
			removePartial(cfg.OutputPath)
			u.fail(a, err)
			return
		}
		u.complete(a, result)
	}
}

// validate is the fail-fast phase: nothing has been allocated yet, so
// rejections here are cheap and synchronous.
func (u *compressorUC) validate(ctx context.Context, job *models.CompressionJob) error {
	src := job.Source
	if src.Path == "" {
		return errors.Wrap(compressor.ErrInvalidInput, "empty source path")
	}
	info, err := os.Stat(src.Path)
	if err != nil {
		return errors.Wrapf(compressor.ErrInvalidInput, "source not readable: %v", err)
	}
	if src.NaturalWidth <= 0 || src.NaturalHeight <= 0 {
		return errors.Wrapf(compressor.ErrInvalidInput, "non-positive dimensions %dx%d", src.NaturalWidth, src.NaturalHeight)
	}
	if src.Duration <= 0 {
		return errors.Wrapf(compressor.ErrInvalidInput, "non-positive duration %f", src.Duration)
	}
	if src.FileSize <= 0 {
		job.Source.FileSize = info.Size()
	}

	if err := utils.ValidateStruct(ctx, &job.Spec); err != nil {
		return errors.Wrap(compressor.ErrInvalidInput, err.Error())
	}
	if err := job.Spec.Validate(); err != nil {
		return errors.Wrap(compressor.ErrInvalidInput, err.Error())
	}

	required := uint64(float64(job.Source.FileSize) * u.cfg.Compressor.StorageSafetyFactor)
	ok, free, err := utils.CheckFreeSpace(u.outputDir(), required)
	if err != nil {
		u.logger.Warnf("job %s: free space check failed: %v", job.JobID, err)
	} else if !ok {
		return errors.Wrapf(compressor.ErrInsufficientStorage,
			"need %d bytes free, have %d", required, free)
	}

	ok, avail, err := utils.CheckAvailableMemory(minAvailableMemory)
	if err != nil {
		u.logger.Warnf("job %s: memory check failed: %v", job.JobID, err)
	} else if !ok {
		return errors.Wrapf(compressor.ErrInsufficientMemory,
			"need %d bytes available, have %d", uint64(minAvailableMemory), avail)
	}
	return nil
}

// prepare resolves the detected orientation, builds the transform plan
// and assembles the render configuration for the exporter.
func (u *compressorUC) prepare(a *activeJob) (*compressor.RenderConfig, error) {
	job := a.job
	src := job.Source

	if !geometry.IsCanonical(src.Transform) {
		u.logger.Warnf("job %s: non-canonical source rotation, treating as 0", job.JobID)
	}
	rotation := geometry.DetectRotation(src.Transform)

	plan := geometry.BuildPlan(src.NaturalSize(), rotation, job.Spec.RenderTarget(), job.Spec.Rotation)
	plan.Brightness = geometry.MapBrightness(job.Spec.Brightness)
	plan.Contrast = job.Spec.Contrast
	plan.Saturation = job.Spec.Saturation
	if plan.RenderSize.Width <= 0 || plan.RenderSize.Height <= 0 {
		return nil, errors.Wrapf(compressor.ErrInvalidInput,
			"render size collapsed to %dx%d", plan.RenderSize.Width, plan.RenderSize.Height)
	}
	job.Plan = plan

	if err := os.MkdirAll(u.outputDir(), 0o755); err != nil {
		return nil, errors.Wrapf(compressor.ErrExportFailed, "cannot create output dir: %v", err)
	}
	outputPath := filepath.Join(u.outputDir(), job.JobID+".mp4")

	a.mu.Lock()
	a.outputPath = outputPath
	a.mu.Unlock()

	return &compressor.RenderConfig{
		SourcePath:   src.Path,
		OutputPath:   outputPath,
		Plan:         plan,
		Duration:     src.Duration,
		Codec:        job.Spec.Codec,
		VideoBitrate: job.Spec.ResolveVideoBitrate(),
		FrameRate:    job.Spec.FrameRate,
		TrimStart:    job.Spec.TrimStart,
		TrimEnd:      job.Spec.TrimEnd,
		RemoveAudio:  job.Spec.RemoveAudio,
		AudioBitrate: job.Spec.ResolveAudioBitrate(),
	}, nil
}

// sampleUntilDone polls session progress on the configured interval
// until the session reports a terminal outcome. Returns finished=false
// when cancellation ended the job first.
func (u *compressorUC) sampleUntilDone(a *activeJob, session compressor.ExportSession) (compressor.ExportOutcome, bool) {
	ticker := time.NewTicker(u.cfg.Compressor.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case outcome := <-session.Done():
			return outcome, !a.isTerminal()
		case <-ticker.C:
			if a.isTerminal() {
				return compressor.ExportOutcome{}, false
			}
			a.emitProgress(session.Progress())
		}
	}
}

// finalize applies the fallback-to-original heuristic and assembles the
// result report.
func (u *compressorUC) finalize(job *models.CompressionJob, outputPath string) (*models.CompressionResult, error) {
	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, errors.Wrapf(compressor.ErrExportFailed, "output missing: %v", err)
	}
	compressedSize := info.Size()
	originalSize := job.Source.FileSize

	rotation := geometry.DetectRotation(job.Source.Transform)
	display := geometry.DisplaySize(job.Source.NaturalSize(), rotation)

	result := &models.CompressionResult{
		JobID:              job.JobID,
		OriginalSize:       originalSize,
		OriginalResolution: models.FormatResolution(display),
		Elapsed:            time.Since(job.StartedAt),
	}

	ratio := 0.0
	if originalSize > 0 {
		ratio = float64(compressedSize) / float64(originalSize)
	}

	if originalSize > 0 && ratio >= u.cfg.Compressor.FallbackRatio {
		// Compression saved less than the threshold; hand back the
		// original so callers never receive a "compressed" file that is
		// not meaningfully smaller.
		u.logger.Infof("job %s: compressed/original ratio %.3f >= %.2f, keeping original",
			job.JobID, ratio, u.cfg.Compressor.FallbackRatio)
		removePartial(outputPath)
		result.OutputPath = job.Source.Path
		result.CompressedSize = originalSize
		result.CompressionRatio = 1.0
		result.SpaceSaved = 0
		result.CompressedResolution = result.OriginalResolution
		result.UsedOriginal = true
		return result, nil
	}

	result.OutputPath = outputPath
	result.CompressedSize = compressedSize
	result.CompressionRatio = ratio
	result.SpaceSaved = originalSize - compressedSize
	result.CompressedResolution = models.FormatResolution(job.Plan.RenderSize)
	return result, nil
}

func (u *compressorUC) setState(a *activeJob, state models.JobState) {
	a.mu.Lock()
	if a.terminal {
		a.mu.Unlock()
		return
	}
	a.job.State = state
	a.mu.Unlock()
	u.logger.Debugf("job %s -> %s", a.job.JobID, state)
}

func (u *compressorUC) fail(a *activeJob, err error) {
	a.mu.Lock()
	if a.terminal {
		a.mu.Unlock()
		return
	}
	a.terminal = true
	a.job.State = models.JobStateFailed
	a.job.Error = err.Error()
	a.job.CompletedAt = time.Now()
	a.mu.Unlock()

	u.logger.Errorf("job %s failed: %v", a.job.JobID, err)
	u.persistRecord(a.job, nil, err)
	u.clearActive(a)
	a.emitDone(nil, err)
}

func (u *compressorUC) complete(a *activeJob, result *models.CompressionResult) {
	a.mu.Lock()
	if a.terminal {
		a.mu.Unlock()
		return
	}
	a.terminal = true
	a.lastProgress = 1.0
	a.job.State = models.JobStateCompleted
	a.job.Progress = 1.0
	a.job.CompletedAt = time.Now()
	a.mu.Unlock()

	u.logger.Infof("job %s completed: %s -> %s, saved %d bytes (ratio %.3f)",
		a.job.JobID, a.job.Source.Path, result.OutputPath, result.SpaceSaved, result.CompressionRatio)
	u.persistRecord(a.job, result, nil)
	u.clearActive(a)
	a.emitDone(result, nil)
}

// cancelFromOutcome handles the collaborator reporting cancellation on
// its own (not via our Cancel call).
func (u *compressorUC) cancelFromOutcome(a *activeJob, outputPath string) {
	a.mu.Lock()
	if a.terminal {
		a.mu.Unlock()
		return
	}
	a.terminal = true
	a.cancelled = true
	a.job.State = models.JobStateCancelled
	a.job.CompletedAt = time.Now()
	a.mu.Unlock()

	removePartial(outputPath)
	u.persistRecord(a.job, nil, compressor.ErrCancelled)
	u.clearActive(a)
	a.emitDone(nil, compressor.ErrCancelled)
}

func (u *compressorUC) clearActive(a *activeJob) {
	u.mu.Lock()
	if u.active == a {
		u.active = nil
	}
	u.mu.Unlock()
}

// persistRecord stores the terminal row; persistence problems are
// logged and never fail the job.
func (u *compressorUC) persistRecord(job *models.CompressionJob, result *models.CompressionResult, jobErr error) {
	if u.repo == nil {
		return
	}
	record := &models.JobRecord{
		JobID:        job.JobID,
		State:        job.State,
		SourcePath:   job.Source.Path,
		Quality:      job.Spec.Quality,
		OriginalSize: job.Source.FileSize,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
	if result != nil {
		record.OutputPath = result.OutputPath
		record.CompressedSize = result.CompressedSize
		record.SpaceSaved = result.SpaceSaved
		record.UsedOriginal = result.UsedOriginal
	}
	if jobErr != nil && !errors.Is(jobErr, compressor.ErrCancelled) {
		record.Error = jobErr.Error()
	}
	if err := u.repo.SaveRecord(context.Background(), record); err != nil {
		u.logger.Warnf("job %s: could not persist record: %v", job.JobID, err)
	}
}

func (u *compressorUC) outputDir() string {
	if u.cfg.Compressor.OutputDir != "" {
		return u.cfg.Compressor.OutputDir
	}
	return os.TempDir()
}

func (a *activeJob) isTerminal() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.terminal
}

// emitProgress clamps, enforces monotonicity and drops updates once a
// terminal state has been recorded. The terminal re-check happens with
// cbMu already held, so a racing terminal reporter either waits for this
// emission to finish or has already been observed.
func (a *activeJob) emitProgress(p float64) {
	a.cbMu.Lock()
	defer a.cbMu.Unlock()

	a.mu.Lock()
	if a.terminal {
		a.mu.Unlock()
		return
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	if p < a.lastProgress {
		p = a.lastProgress
	}
	a.lastProgress = p
	a.job.Progress = p
	cb := a.cb
	jobID := a.job.JobID
	a.mu.Unlock()

	if cb.OnProgress != nil {
		cb.OnProgress(jobID, p)
	}
}

// emitDone delivers the terminal callback under the emitter mutex,
// after any in-flight progress emission has drained.
func (a *activeJob) emitDone(result *models.CompressionResult, err error) {
	a.mu.Lock()
	cb := a.cb
	jobID := a.job.JobID
	a.mu.Unlock()
	if cb.OnDone == nil {
		return
	}

	a.cbMu.Lock()
	defer a.cbMu.Unlock()
	cb.OnDone(jobID, result, err)
}

func removePartial(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

func jobFromRecord(record *models.JobRecord) *models.CompressionJob {
	job := &models.CompressionJob{
		JobID: record.JobID,
		State: record.State,
		Source: models.SourceVideoProperties{
			Path:     record.SourcePath,
			FileSize: record.OriginalSize,
		},
		Spec:        models.CompressionSpec{Quality: record.Quality},
		Error:       record.Error,
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
	}
	if record.State == models.JobStateCompleted {
		job.Progress = 1.0
	}
	return job
}
