package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultParseTimeout is the maximum duration for one parse.
const DefaultParseTimeout = 5 * time.Minute

// Run statuses.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunRecord is the stored summary of one parse run.
type RunRecord struct {
	ID         uuid.UUID  `json:"id"`
	Schema     string     `json:"schema"`
	FileName   string     `json:"file_name"`
	Status     string     `json:"status"`
	Failure    string     `json:"failure,omitempty"`
	Summary    Summary    `json:"summary"`
	Errors     []RowError `json:"errors"`
	IPAddress  string     `json:"ip_address,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// RunStore persists run records.
type RunStore interface {
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error)
}

// ServiceConfig configures a Service. Runs may be nil, in which case runs
// are not stored.
type ServiceConfig struct {
	Limiter *ParseLimiter
	Runs    RunStore
	Timeout time.Duration
	Logger  *slog.Logger
}

// Service runs registered schemas over uploaded files for the outer layers.
type Service struct {
	limiter *ParseLimiter
	runs    RunStore
	timeout time.Duration
	logger  *slog.Logger
}

// NewService creates a Service, filling unset fields with defaults.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		limiter: cfg.Limiter,
		runs:    cfg.Runs,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
	if s.limiter == nil {
		s.limiter = NewParseLimiter(DefaultMaxConcurrentParses, DefaultMaxWaitTime)
	}
	if s.timeout <= 0 {
		s.timeout = DefaultParseTimeout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Limiter returns the limiter bounding concurrent parses.
func (s *Service) Limiter() *ParseLimiter {
	return s.limiter
}

// StoresRuns reports whether runs are persisted.
func (s *Service) StoresRuns() bool {
	return s.runs != nil
}

// ParseRequest describes one upload to parse.
type ParseRequest struct {
	Schema   string
	FileName string // Extension selects the row source
	Body     io.Reader
	Size     int64 // 0 if unknown

	HeaderRows *int   // Overrides the schema when set
	Sheet      string // Overrides the schema when set
}

// ParseOutcome is the result of a successful ParseUpload.
type ParseOutcome struct {
	RunID  uuid.UUID
	Result *ParseResult
}

// ParseUpload parses one uploaded file with a registered schema.
//
// It waits for a limiter slot first and returns ErrTooManyParses when none
// frees up in time. A fatal parse error is returned as is; when a store is
// configured the failed run is recorded before returning.
func (s *Service) ParseUpload(ctx context.Context, req ParseRequest) (*ParseOutcome, error) {
	schema, err := Lookup(req.Schema)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cfg := schema.Config
	if req.HeaderRows != nil {
		cfg.HeaderRows = *req.HeaderRows
	}
	if req.Sheet != "" {
		cfg.Source.Sheet = req.Sheet
	}

	runID := uuid.New()
	logger := s.logger.With("run_id", runID, "schema", schema.Key)

	p, err := New(req.FileName, cfg,
		WithLogger(logger),
		WithOpener(func() (RowSource, error) {
			return OpenReader(req.FileName, req.Body, req.Size, cfg.Source)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", schema.Key, err)
	}

	run := RunRecord{
		ID:        runID,
		Schema:    schema.Key,
		FileName:  req.FileName,
		IPAddress: IPAddressFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
		StartedAt: time.Now().UTC(),
	}

	result, parseErr := p.Run(ctx)
	run.FinishedAt = time.Now().UTC()

	if parseErr != nil {
		run.Status = RunFailed
		run.Failure = parseErr.Error()
		run.Errors = []RowError{}
		s.save(ctx, logger, run)
		return nil, parseErr
	}

	run.Status = RunCompleted
	run.Summary = result.Summary()
	run.Errors = result.Errors
	if err := s.save(ctx, logger, run); err != nil {
		return nil, err
	}

	return &ParseOutcome{RunID: runID, Result: result}, nil
}

// save stores run when a store is configured. A cancelled request still gets
// its run recorded.
func (s *Service) save(ctx context.Context, logger *slog.Logger, run RunRecord) error {
	if s.runs == nil {
		return nil
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := s.runs.SaveRun(saveCtx, run); err != nil {
		logger.Error("save run failed", "error", err)
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun returns a stored run.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	if s.runs == nil {
		return nil, ErrRunNotFound
	}
	return s.runs.GetRun(ctx, id)
}
