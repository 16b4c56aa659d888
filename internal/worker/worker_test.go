package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fathima-sithara/files-service/internal/metrics"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

type fakeProcessor struct {
	fileJobs []queue.FileJob
	userJobs []queue.UserJob
	err      error
}

func (p *fakeProcessor) ProcessFileJob(_ context.Context, job queue.FileJob) error {
	p.fileJobs = append(p.fileJobs, job)
	return p.err
}

func (p *fakeProcessor) ProcessUserJob(_ context.Context, job queue.UserJob) error {
	p.userJobs = append(p.userJobs, job)
	return p.err
}

// replaySource feeds its payloads to the handler, then waits for cancellation.
type replaySource struct {
	payloads [][]byte
	errs     chan error
}

func (s *replaySource) Run(ctx context.Context, handle queue.Handler) error {
	for _, p := range s.payloads {
		s.errs <- handle(ctx, p)
	}
	<-ctx.Done()
	return nil
}

func TestHandleFileJob_DecodesAndCounts(t *testing.T) {
	proc := &fakeProcessor{}
	w := New(nil, nil, proc, zap.NewNop())
	before := counterValue(t, metrics.JobsProcessed.WithLabelValues("file", "ok"))

	require.NoError(t, w.HandleFileJob(context.Background(), []byte(`{"userId":"u1","fileId":"f1"}`)))
	require.Len(t, proc.fileJobs, 1)
	assert.Equal(t, queue.FileJob{UserID: "u1", FileID: "f1"}, proc.fileJobs[0])
	assert.Equal(t, before+1, counterValue(t, metrics.JobsProcessed.WithLabelValues("file", "ok")))
}

func TestHandleJobs_Failures(t *testing.T) {
	proc := &fakeProcessor{}
	w := New(nil, nil, proc, zap.NewNop())
	ctx := context.Background()

	var perm *backoff.PermanentError
	assert.ErrorAs(t, w.HandleFileJob(ctx, []byte("{")), &perm)
	assert.Error(t, w.HandleUserJob(ctx, []byte("[]")))
	assert.Empty(t, proc.fileJobs)
	assert.Empty(t, proc.userJobs)

	proc.err = errors.New("boom")
	before := counterValue(t, metrics.JobsProcessed.WithLabelValues("user", "failed"))
	assert.ErrorIs(t, w.HandleUserJob(ctx, []byte(`{"userId":"u1"}`)), proc.err)
	assert.Equal(t, before+1, counterValue(t, metrics.JobsProcessed.WithLabelValues("user", "failed")))
}

func TestRun_ServesBothTopicsUntilCancelled(t *testing.T) {
	proc := &fakeProcessor{}
	files := &replaySource{payloads: [][]byte{[]byte(`{"userId":"u","fileId":"f"}`)}, errs: make(chan error, 1)}
	users := &replaySource{payloads: [][]byte{[]byte(`{"userId":"u"}`)}, errs: make(chan error, 1)}
	w := New(files, users, proc, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, <-files.errs)
	require.NoError(t, <-users.errs)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Len(t, proc.fileJobs, 1)
	assert.Len(t, proc.userJobs, 1)
}
