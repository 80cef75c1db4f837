// Package jobs runs asynchronous conversion jobs and tracks their
// lifecycle for the polling API.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MeKo-Tech/pdfmark/internal/convert"
	"github.com/MeKo-Tech/pdfmark/internal/store"
)

var conversionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pdfmark_conversions_total",
		Help: "Total number of conversion jobs by terminal status",
	},
	[]string{"status"},
)

var (
	// ErrNotFound marks an unknown job id.
	ErrNotFound = errors.New("job not found")

	// ErrNotPDF marks a submission whose stored file is not a PDF.
	ErrNotPDF = errors.New("file is not a PDF")
)

// State is a job lifecycle state.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Result holds the output of a completed job.
type Result struct {
	FileID            string
	Markdown          string
	MarkdownPath      string
	ProcessingSeconds float64
	PagesProcessed    int
	TablesFound       int
}

// Job is a point-in-time snapshot of one conversion job.
type Job struct {
	ID         string
	FileID     string
	State      State
	Progress   int
	Error      string
	Result     *Result
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store is the file metadata lookup the manager validates against.
// Satisfied by *store.FileStore.
type Store interface {
	Info(id string) (store.Metadata, error)
}

// ConvertFunc runs one conversion. Satisfied by Converter.Convert.
type ConvertFunc func(ctx context.Context, path string, opts convert.Options) (*convert.Result, error)

// Config tunes the manager.
type Config struct {
	// MaxConcurrent caps the number of conversions running at once.
	MaxConcurrent int

	// Retention is how long terminal jobs stay visible before the
	// janitor evicts them. Zero disables eviction.
	Retention time.Duration

	// ProgressLogInterval is the minimum percentage step between
	// progress log lines per job.
	ProgressLogInterval int
}

// DefaultConfig returns the manager defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:       4,
		Retention:           time.Hour,
		ProgressLogInterval: 10,
	}
}

// Manager owns the job registry and the conversion workers.
type Manager struct {
	cfg     Config
	files   Store
	convert ConvertFunc

	mu   sync.RWMutex
	jobs map[string]*Job

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a Manager converting files via fn.
func NewManager(cfg Config, files Store, fn ConvertFunc) *Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:     cfg,
		files:   files,
		convert: fn,
		jobs:    make(map[string]*Job),
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		ctx:     ctx,
		cancel:  cancel,
	}
	if cfg.Retention > 0 {
		m.wg.Add(1)
		go m.janitor()
	}
	return m
}

// Submit validates fileID, registers a pending job, and spawns its
// worker. It returns the new job id immediately.
func (m *Manager) Submit(fileID string) (string, error) {
	meta, err := m.files.Info(fileID)
	if err != nil {
		return "", err
	}
	if meta.FileType != "pdf" {
		return "", fmt.Errorf("%w: %s", ErrNotPDF, meta.FileType)
	}

	job := &Job{
		ID:        uuid.New().String(),
		FileID:    fileID,
		State:     StatePending,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(job.ID, meta.StoredPath)

	slog.Info("conversion job submitted", "job_id", job.ID, "file_id", fileID)
	return job.ID, nil
}

// Get returns a snapshot of the job.
func (m *Manager) Get(jobID string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return snapshot(job), nil
}

// Close stops the janitor, cancels running conversions, and waits for
// all workers to drain.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) run(jobID, path string) {
	defer m.wg.Done()

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-m.ctx.Done():
		m.finish(jobID, nil, m.ctx.Err())
		return
	}

	m.update(jobID, func(j *Job) {
		j.State = StateProcessing
		j.StartedAt = time.Now()
	})

	res, err := m.runConvert(jobID, path)
	m.finish(jobID, res, err)
}

// runConvert executes the conversion with a panic guard so a crash in
// the pipeline fails one job instead of taking down the process.
func (m *Manager) runConvert(jobID, path string) (res *convert.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("conversion panicked: %v", r)
		}
	}()

	progressLog := convert.NewLogProgress(slog.With("job_id", jobID), m.cfg.ProgressLogInterval)
	return m.convert(m.ctx, path, convert.Options{
		OnProgress: func(p int) {
			if p > 99 {
				p = 99
			}
			m.update(jobID, func(j *Job) {
				if p > j.Progress {
					j.Progress = p
				}
			})
			progressLog.Update(p)
		},
	})
}

func (m *Manager) finish(jobID string, res *convert.Result, err error) {
	if err != nil {
		conversionsTotal.WithLabelValues(string(StateFailed)).Inc()
	} else {
		conversionsTotal.WithLabelValues(string(StateCompleted)).Inc()
	}
	m.update(jobID, func(j *Job) {
		j.Progress = 100
		j.FinishedAt = time.Now()
		if err != nil {
			j.State = StateFailed
			j.Error = err.Error()
			slog.Warn("conversion job failed", "job_id", jobID, "error", err)
			return
		}
		j.State = StateCompleted
		j.Result = &Result{
			FileID:            j.FileID,
			Markdown:          res.Markdown,
			MarkdownPath:      res.MarkdownPath,
			ProcessingSeconds: res.ProcessingSeconds,
			PagesProcessed:    res.PagesProcessed,
			TablesFound:       res.TablesFound,
		}
		slog.Info("conversion job completed",
			"job_id", jobID, "pages", res.PagesProcessed, "tables", res.TablesFound)
	})
}

func (m *Manager) update(jobID string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		fn(job)
	}
}

// janitor evicts terminal jobs older than the retention window.
func (m *Manager) janitor() {
	defer m.wg.Done()

	interval := m.cfg.Retention / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, job := range m.jobs {
		if job.State.Terminal() && now.Sub(job.FinishedAt) > m.cfg.Retention {
			delete(m.jobs, id)
		}
	}
}

func snapshot(job *Job) Job {
	out := *job
	if job.Result != nil {
		res := *job.Result
		out.Result = &res
	}
	return out
}
