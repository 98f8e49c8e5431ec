package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]RunRecord
	err  error
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: make(map[uuid.UUID]RunRecord)}
}

func (m *memoryRuns) SaveRun(_ context.Context, run RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRuns) GetRun(_ context.Context, id uuid.UUID) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

func registerPeople(t *testing.T) {
	t.Helper()
	withCleanRegistry(t)
	cfg := peopleConfig()
	cfg.HeaderRows = 1
	Register(Schema{Key: "people", Group: "Test", Label: "People", Config: cfg})
}

func TestService_ParseUpload(t *testing.T) {
	registerPeople(t)
	runs := newMemoryRuns()
	svc := NewService(ServiceConfig{Runs: runs, Logger: quietLogger})

	ctx := ContextWithIPAddress(context.Background(), "10.0.0.1")
	out, err := svc.ParseUpload(ctx, ParseRequest{
		Schema:   "people",
		FileName: "people.csv",
		Body:     strings.NewReader("name,age\nAnn,34\nBob,x\n"),
	})
	require.NoError(t, err)

	assert.Len(t, out.Result.Records, 1)
	assert.Len(t, out.Result.Errors, 1)

	stored, err := svc.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, stored.Status)
	assert.Equal(t, "people", stored.Schema)
	assert.Equal(t, "10.0.0.1", stored.IPAddress)
	assert.Equal(t, Summary{Rows: 2, Records: 1, Errors: 1}, stored.Summary)
	assert.Equal(t, 3, stored.Errors[0].Row)
	assert.Equal(t, 0, svc.Limiter().ActiveCount())
}

func TestService_ParseUploadOverrides(t *testing.T) {
	registerPeople(t)
	svc := NewService(ServiceConfig{Logger: quietLogger})

	zero := 0
	out, err := svc.ParseUpload(context.Background(), ParseRequest{
		Schema:     "people",
		FileName:   "people.csv",
		Body:       strings.NewReader("Ann,34\n"),
		HeaderRows: &zero,
	})
	require.NoError(t, err)
	assert.Len(t, out.Result.Records, 1)
}

func TestService_ParseUploadFailures(t *testing.T) {
	registerPeople(t)

	t.Run("unknown schema", func(t *testing.T) {
		svc := NewService(ServiceConfig{Logger: quietLogger})
		_, err := svc.ParseUpload(context.Background(), ParseRequest{Schema: "nope", FileName: "a.csv"})
		assert.ErrorIs(t, err, ErrSchemaNotFound)
	})

	t.Run("fatal parse is recorded", func(t *testing.T) {
		runs := newMemoryRuns()
		svc := NewService(ServiceConfig{Runs: runs, Logger: quietLogger})

		_, err := svc.ParseUpload(context.Background(), ParseRequest{
			Schema:   "people",
			FileName: "people.pdf",
			Body:     strings.NewReader("%PDF"),
		})
		require.Error(t, err)
		assert.True(t, IsFatal(err))

		require.Len(t, runs.runs, 1)
		for _, run := range runs.runs {
			assert.Equal(t, RunFailed, run.Status)
			assert.Contains(t, run.Failure, "unsupported source type")
		}
	})

	t.Run("store failure", func(t *testing.T) {
		runs := newMemoryRuns()
		runs.err = errors.New("connection refused")
		svc := NewService(ServiceConfig{Runs: runs, Logger: quietLogger})

		_, err := svc.ParseUpload(context.Background(), ParseRequest{
			Schema:   "people",
			FileName: "people.csv",
			Body:     strings.NewReader("name,age\n"),
		})
		assert.ErrorContains(t, err, "save run: connection refused")
	})

	t.Run("busy", func(t *testing.T) {
		limiter := NewParseLimiter(1, 20*time.Millisecond)
		require.True(t, limiter.TryAcquire())
		defer limiter.Release()

		svc := NewService(ServiceConfig{Limiter: limiter, Logger: quietLogger})
		_, err := svc.ParseUpload(context.Background(), ParseRequest{
			Schema:   "people",
			FileName: "people.csv",
			Body:     strings.NewReader("name,age\n"),
		})
		assert.ErrorIs(t, err, ErrTooManyParses)
	})

	t.Run("no store", func(t *testing.T) {
		svc := NewService(ServiceConfig{Logger: quietLogger})
		assert.False(t, svc.StoresRuns())
		_, err := svc.GetRun(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}
