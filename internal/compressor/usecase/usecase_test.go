package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/panuavakul/v-video-compressor-sub001/internal/compressor"
	"github.com/panuavakul/v-video-compressor-sub001/internal/config"
	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/logger"
)

// fakeSession is a scriptable export session driven by the test.
type fakeSession struct {
	mu       sync.Mutex
	progress float64
	aborted  bool
	done     chan compressor.ExportOutcome
}

func newFakeSession() *fakeSession {
	return &fakeSession{done: make(chan compressor.ExportOutcome, 1)}
}

func (s *fakeSession) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *fakeSession) setProgress(p float64) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

func (s *fakeSession) Abort() {
	s.mu.Lock()
	s.aborted = true
	s.mu.Unlock()
}

func (s *fakeSession) wasAborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

func (s *fakeSession) Done() <-chan compressor.ExportOutcome {
	return s.done
}

func (s *fakeSession) complete(outcome compressor.ExportOutcome) {
	s.done <- outcome
}

// fakeExporter hands out fakeSessions and records submissions.
type fakeExporter struct {
	mu       sync.Mutex
	sessions []*fakeSession
	configs  []*compressor.RenderConfig
	// outputSize, when non-zero, is the byte size of the output file
	// written at submission time, simulating the encoder's result.
	outputSize int
	// submitErr, when set, fails the submission after the output file
	// has been written.
	submitErr error
}

func (e *fakeExporter) Submit(_ context.Context, cfg *compressor.RenderConfig) (compressor.ExportSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configs = append(e.configs, cfg)
	if e.outputSize > 0 {
		if err := os.WriteFile(cfg.OutputPath, make([]byte, e.outputSize), 0o644); err != nil {
			return nil, err
		}
	}
	if e.submitErr != nil {
		return nil, e.submitErr
	}
	s := newFakeSession()
	e.sessions = append(e.sessions, s)
	return s, nil
}

func (e *fakeExporter) submitCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *fakeExporter) waitForSession(t *testing.T) *fakeSession {
	t.Helper()
	return e.waitForSessionN(t, 1)
}

// waitForSessionN blocks until the n-th submission arrives.
func (e *fakeExporter) waitForSessionN(t *testing.T, n int) *fakeSession {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		e.mu.Lock()
		if len(e.sessions) >= n {
			s := e.sessions[n-1]
			e.mu.Unlock()
			return s
		}
		e.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Errorf("exporter never received submission %d", n)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Mode: "Development"},
		Logger: config.Logger{Encoding: "console", Level: "error"},
		Compressor: config.CompressorConfig{
			OutputDir:           t.TempDir(),
			StorageSafetyFactor: 2.0,
			ProgressInterval:    2 * time.Millisecond,
			FallbackRatio:       0.95,
		},
	}
}

func testLogger(cfg *config.Config) logger.Logger {
	l := logger.NewApiLogger(cfg)
	l.InitLogger()
	return l
}

func testSource(t *testing.T, size int) models.SourceVideoProperties {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.mp4")
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return models.SourceVideoProperties{
		Path:          path,
		NaturalWidth:  1920,
		NaturalHeight: 1080,
		Duration:      60,
		FileSize:      int64(size),
	}
}

func newTestUC(t *testing.T, exporter *fakeExporter) compressor.UseCase {
	cfg := testConfig(t)
	return NewCompressorUseCase(cfg, exporter, nil, nil, testLogger(cfg))
}

type doneResult struct {
	result *models.CompressionResult
	err    error
}

func TestCompressKeepsSmallerOutput(t *testing.T) {
	exporter := &fakeExporter{outputSize: 80_000}
	uc := newTestUC(t, exporter)
	src := testSource(t, 100_000)

	done := make(chan doneResult, 1)
	_, err := uc.SubmitJob(context.Background(), src, models.CompressionSpec{Quality: models.QualityMedium}, compressor.JobCallbacks{
		OnDone: func(_ string, result *models.CompressionResult, err error) {
			done <- doneResult{result, err}
		},
	})
	if err != nil {
		t.Fatalf("SubmitJob: %v", err)
	}

	session := exporter.waitForSession(t)
	session.setProgress(0.5)
	session.complete(compressor.ExportOutcome{OutputPath: exporter.configs[0].OutputPath})

	out := <-done
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	result := out.result
	if result.UsedOriginal {
		t.Error("80% of original must keep the compressed file")
	}
	if result.OutputPath != exporter.configs[0].OutputPath {
		t.Errorf("output = %s, want compressed path", result.OutputPath)
	}
	if result.SpaceSaved != 20_000 {
		t.Errorf("space saved = %d, want 20000", result.SpaceSaved)
	}
	if result.CompressionRatio != 0.8 {
		t.Errorf("ratio = %v, want 0.8", result.CompressionRatio)
	}
	if result.OriginalResolution != "1920x1080" {
		t.Errorf("original resolution = %s, want 1920x1080", result.OriginalResolution)
	}
}

func TestCompressFallsBackToOriginal(t *testing.T) {
	exporter := &fakeExporter{outputSize: 96_000}
	uc := newTestUC(t, exporter)
	src := testSource(t, 100_000)

	// Compress blocks until the session finishes, so completion has to
	// come from another goroutine.
	go func() {
		session := exporter.waitForSession(t)
		session.complete(compressor.ExportOutcome{OutputPath: exporter.configs[0].OutputPath})
	}()

	result, err := uc.Compress(context.Background(), src, models.CompressionSpec{Quality: models.QualityMedium})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if !result.UsedOriginal {
		t.Fatal("96% of original must fall back to the original file")
	}
	if result.OutputPath != src.Path {
		t.Errorf("output = %s, want original %s", result.OutputPath, src.Path)
	}
	if result.SpaceSaved != 0 {
		t.Errorf("space saved = %d, want 0 when original kept", result.SpaceSaved)
	}
	if result.CompressionRatio != 1.0 {
		t.Errorf("ratio = %v, want 1.0 when original kept", result.CompressionRatio)
	}
	if _, err := os.Stat(exporter.configs[0].OutputPath); !os.IsNotExist(err) {
		t.Error("discarded compressed file must be deleted")
	}
}

func TestValidationRejectsBeforeSubmission(t *testing.T) {
	floatPtr := func(v float64) *float64 { return &v }
	intPtr := func(v int) *int { return &v }

	cases := []struct {
		name string
		spec models.CompressionSpec
	}{
		{"unknown quality", models.CompressionSpec{Quality: "ultra"}},
		{"width without height", models.CompressionSpec{Quality: models.QualityLow, CustomWidth: intPtr(1280)}},
		{"trim start after end", models.CompressionSpec{
			Quality:   models.QualityLow,
			TrimStart: floatPtr(10),
			TrimEnd:   floatPtr(5),
		}},
		{"non-positive bitrate", models.CompressionSpec{
			Quality:      models.QualityLow,
			VideoBitrate: floatPtr(-1),
		}},
		{"bad rotation", models.CompressionSpec{Quality: models.QualityLow, Rotation: 45}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exporter := &fakeExporter{}
			uc := newTestUC(t, exporter)
			src := testSource(t, 100_000)

			_, err := uc.Compress(context.Background(), src, tc.spec)
			if !errors.Is(err, compressor.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if exporter.submitCount() != 0 {
				t.Error("invalid spec must be rejected before any export submission")
			}
		})
	}
}

func TestValidationRejectsUnreadableSource(t *testing.T) {
	exporter := &fakeExporter{}
	uc := newTestUC(t, exporter)
	src := models.SourceVideoProperties{
		Path:          "/nonexistent/input.mp4",
		NaturalWidth:  1920,
		NaturalHeight: 1080,
		Duration:      60,
		FileSize:      1000,
	}

	_, err := uc.Compress(context.Background(), src, models.CompressionSpec{Quality: models.QualityLow})
	if !errors.Is(err, compressor.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitWhileActiveRejected(t *testing.T) {
	exporter := &fakeExporter{outputSize: 50_000}
	uc := newTestUC(t, exporter)
	src := testSource(t, 100_000)

	done := make(chan doneResult, 1)
	jobID, err := uc.SubmitJob(context.Background(), src, models.CompressionSpec{Quality: models.QualityMedium}, compressor.JobCallbacks{
		OnDone: func(_ string, result *models.CompressionResult, err error) {
			done <- doneResult{result, err}
		},
	})
	if err != nil {
		t.Fatalf("SubmitJob: %v", err)
	}
	session := exporter.waitForSession(t)

	if !uc.IsActive() {
		t.Error("IsActive must report true while exporting")
	}
	if _, err := uc.SubmitJob(context.Background(), src, models.CompressionSpec{Quality: models.QualityLow}, compressor.JobCallbacks{}); !errors.Is(err, compressor.ErrJobActive) {
		t.Errorf("second submit err = %v, want ErrJobActive", err)
	}

	job, err := uc.GetJob(jobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.State != models.JobStateExporting {
		t.Errorf("state = %s, want exporting", job.State)
	}

	session.complete(compressor.ExportOutcome{OutputPath: exporter.configs[0].OutputPath})
	<-done

	if uc.IsActive() {
		t.Error("IsActive must report false after the terminal callback")
	}
}

func TestCancelWinsOverLateSuccess(t *testing.T) {
	exporter := &fakeExporter{outputSize: 50_000}
	uc := newTestUC(t, exporter)
	src := testSource(t, 100_000)

	var mu sync.Mutex
	var progressAfterDone bool
	terminal := make(chan error, 2)
	terminalSeen := false

	jobID, err := uc.SubmitJob(context.Background(), src, models.CompressionSpec{Quality: models.QualityMedium}, compressor.JobCallbacks{
		OnProgress: func(_ string, _ float64) {
			mu.Lock()
			if terminalSeen {
				progressAfterDone = true
			}
			mu.Unlock()
		},
		OnDone: func(_ string, _ *models.CompressionResult, err error) {
			mu.Lock()
			terminalSeen = true
			mu.Unlock()
			terminal <- err
		},
	})
	if err != nil {
		t.Fatalf("SubmitJob: %v", err)
	}

	session := exporter.waitForSession(t)
	session.setProgress(0.4)
	time.Sleep(10 * time.Millisecond)

	if err := uc.Cancel(jobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// The collaborator races in a success signal after cancellation.
	session.complete(compressor.ExportOutcome{OutputPath: exporter.configs[0].OutputPath})

	if err := <-terminal; !errors.Is(err, compressor.ErrCancelled) {
		t.Fatalf("terminal err = %v, want ErrCancelled", err)
	}
	if !session.wasAborted() {
		t.Error("cancel must abort the export session")
	}
	if _, err := os.Stat(exporter.configs[0].OutputPath); !os.IsNotExist(err) {
		t.Error("partial output must be deleted on cancellation")
	}

	// Give any stray sampler tick time to fire, then check nothing was
	// emitted after the terminal signal.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if progressAfterDone {
		t.Error("no progress may be emitted after the terminal callback")
	}

	select {
	case err := <-terminal:
		t.Fatalf("second terminal callback fired: %v", err)
	default:
	}
}

func TestTerminalWaitsForInFlightProgress(t *testing.T) {
	exporter := &fakeExporter{outputSize: 50_000}
	uc := newTestUC(t, exporter)
	src := testSource(t, 100_000)

	entered := make(chan struct{})
	release := make(chan struct{})
	var enterOnce sync.Once

	var mu sync.Mutex
	var order []string
	terminal := make(chan error, 1)

	jobID, err := uc.SubmitJob(context.Background(), src, models.CompressionSpec{Quality: models.QualityMedium}, compressor.JobCallbacks{
		OnProgress: func(_ string, _ float64) {
			// Hold the first emission open so cancellation races it.
			enterOnce.Do(func() {
				close(entered)
				<-release
			})
			mu.Lock()
			order = append(order, "progress")
			mu.Unlock()
		},
		OnDone: func(_ string, _ *models.CompressionResult, err error) {
			mu.Lock()
			order = append(order, "done")
			mu.Unlock()
			terminal <- err
		},
	})
	if err != nil {
		t.Fatalf("SubmitJob: %v", err)
	}

	session := exporter.waitForSession(t)
	session.setProgress(0.4)
	<-entered

	cancelled := make(chan struct{})
	go func() {
		if err := uc.Cancel(jobID); err != nil {
			t.Errorf("Cancel: %v", err)
		}
		close(cancelled)
	}()

	// The terminal callback must wait for the in-flight progress
	// emission rather than overtaking it.
	select {
	case <-cancelled:
		t.Fatal("cancellation delivered its terminal callback while a progress callback was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-cancelled
	if err := <-terminal; !errors.Is(err, compressor.ErrCancelled) {
		t.Fatalf("terminal err = %v, want ErrCancelled", err)
	}

	// Give any stray sampler tick time to fire.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(order) < 2 || order[len(order)-1] != "done" {
		t.Fatalf("callback order = %v, want progress then done last", order)
	}
	for _, ev := range order[:len(order)-1] {
		if ev != "progress" {
			t.Fatalf("callback order = %v, want all progress before done", order)
		}
	}
}

func TestProgressMonotonicAndClamped(t *testing.T) {
	exporter := &fakeExporter{outputSize: 50_000}
	uc := newTestUC(t, exporter)
	src := testSource(t, 100_000)

	var mu sync.Mutex
	var seen []float64
	done := make(chan doneResult, 1)

	_, err := uc.SubmitJob(context.Background(), src, models.CompressionSpec{Quality: models.QualityMedium}, compressor.JobCallbacks{
		OnProgress: func(_ string, p float64) {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		},
		OnDone: func(_ string, result *models.CompressionResult, err error) {
			done <- doneResult{result, err}
		},
	})
	if err != nil {
		t.Fatalf("SubmitJob: %v", err)
	}

	session := exporter.waitForSession(t)
	for _, p := range []float64{0.5, 0.3, 1.7} {
		session.setProgress(p)
		time.Sleep(10 * time.Millisecond)
	}
	session.complete(compressor.ExportOutcome{OutputPath: exporter.configs[0].OutputPath})
	<-done

	mu.Lock()
	defer mu.Unlock()
	last := 0.0
	for _, p := range seen {
		if p < last {
			t.Fatalf("progress went backwards: %v", seen)
		}
		if p < 0 || p > 1 {
			t.Fatalf("progress out of range: %v", seen)
		}
		last = p
	}
}

func TestExportFailureCleansPartialOutput(t *testing.T) {
	exporter := &fakeExporter{outputSize: 10_000}
	uc := newTestUC(t, exporter)
	src := testSource(t, 100_000)

	go func() {
		session := exporter.waitForSession(t)
		session.complete(compressor.ExportOutcome{Err: errors.New("encoder blew up")})
	}()

	_, err := uc.Compress(context.Background(), src, models.CompressionSpec{Quality: models.QualityMedium})
	if !errors.Is(err, compressor.ErrExportFailed) {
		t.Fatalf("err = %v, want ErrExportFailed", err)
	}
	if _, statErr := os.Stat(exporter.configs[0].OutputPath); !os.IsNotExist(statErr) {
		t.Error("partial output must be deleted on export failure")
	}
	if uc.IsActive() {
		t.Error("failed job must release the active slot")
	}
}

func TestSubmitFailureCleansOutput(t *testing.T) {
	exporter := &fakeExporter{
		outputSize: 10_000,
		submitErr:  errors.New("encoder spawn failed"),
	}
	uc := newTestUC(t, exporter)
	src := testSource(t, 100_000)

	_, err := uc.Compress(context.Background(), src, models.CompressionSpec{Quality: models.QualityMedium})
	if !errors.Is(err, compressor.ErrExportFailed) {
		t.Fatalf("err = %v, want ErrExportFailed", err)
	}
	if _, statErr := os.Stat(exporter.configs[0].OutputPath); !os.IsNotExist(statErr) {
		t.Error("output left behind after a failed submission")
	}
	if uc.IsActive() {
		t.Error("failed submission must release the active slot")
	}
}

func TestCompressBatchSequential(t *testing.T) {
	exporter := &fakeExporter{outputSize: 40_000}
	uc := newTestUC(t, exporter)

	go func() {
		for i := 1; i <= 2; i++ {
			session := exporter.waitForSessionN(t, i)
			exporter.mu.Lock()
			cfg := exporter.configs[i-1]
			exporter.mu.Unlock()
			session.complete(compressor.ExportOutcome{OutputPath: cfg.OutputPath})
		}
	}()

	items := []compressor.BatchItem{
		{Source: testSource(t, 100_000), Spec: models.CompressionSpec{Quality: models.QualityMedium}},
		{Source: testSource(t, 100_000), Spec: models.CompressionSpec{Quality: models.QualityLow}},
	}
	results := uc.CompressBatch(context.Background(), items)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("item %d failed: %v", i, r.Err)
		}
		if r.Result == nil || r.Result.SpaceSaved != 60_000 {
			t.Errorf("item %d: unexpected result %+v", i, r.Result)
		}
	}
}

func TestEstimatePassthrough(t *testing.T) {
	uc := newTestUC(t, &fakeExporter{})
	src := testSource(t, 100<<20)

	est, err := uc.Estimate(context.Background(), src, models.CompressionSpec{Quality: models.QualityMedium})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if est.BitrateMbps != 1.8 {
		t.Errorf("bitrate = %v, want 1.8", est.BitrateMbps)
	}

	if _, err := uc.Estimate(context.Background(), src, models.CompressionSpec{Quality: "bogus"}); !errors.Is(err, compressor.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCancelUnknownJob(t *testing.T) {
	uc := newTestUC(t, &fakeExporter{})
	if err := uc.Cancel("nope"); !errors.Is(err, compressor.ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}
