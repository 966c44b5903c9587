package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/adminkit/internal/models"
	"github.com/noah-isme/adminkit/pkg/jobs"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

type fakeQueue struct {
	handlers  map[string]jobs.Handler
	submitted []jobs.Job
	submitErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{handlers: map[string]jobs.Handler{}}
}

func (q *fakeQueue) Handle(jobType string, h jobs.Handler) {
	q.handlers[jobType] = h
}

func (q *fakeQueue) Submit(jobType string, payload interface{}) (jobs.Job, error) {
	if q.submitErr != nil {
		return jobs.Job{}, q.submitErr
	}
	job := jobs.Job{ID: "job-1", Type: jobType, Payload: payload}
	q.submitted = append(q.submitted, job)
	return job, nil
}

// drain runs every submitted job through its handler.
func (q *fakeQueue) drain(t *testing.T) []error {
	t.Helper()
	var errs []error
	for _, job := range q.submitted {
		h, ok := q.handlers[job.Type]
		require.True(t, ok, "no handler for %s", job.Type)
		errs = append(errs, h(context.Background(), job))
	}
	q.submitted = nil
	return errs
}

type fakeLastLogin struct {
	touched map[int64]time.Time
	err     error
}

func (f *fakeLastLogin) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.touched == nil {
		f.touched = map[int64]time.Time{}
	}
	f.touched[id] = at
	return nil
}

func TestTaskServiceRegistersHandlers(t *testing.T) {
	queue := newFakeQueue()
	NewTaskService(queue, &fakeLastLogin{}, nil, nil)

	assert.Contains(t, queue.handlers, JobTypeTask)
	assert.Contains(t, queue.handlers, JobTypeLastLogin)
}

func TestTaskServiceSubmit(t *testing.T) {
	queue := newFakeQueue()
	svc := NewTaskService(queue, &fakeLastLogin{}, NewMetricsService(), nil)
	fixed := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	ack, err := svc.Submit(context.Background(), models.TaskRequest{Args: []interface{}{"a", 1.0}})
	require.NoError(t, err)
	assert.Equal(t, "job-1", ack.ID)
	assert.Equal(t, fixed, ack.At)
	assert.Equal(t, "task accepted at 2024-05-01T08:30:00Z", ack.Message)
	assert.Equal(t, []interface{}{"a", 1.0}, ack.Args)
	assert.NotNil(t, ack.Kwargs)

	require.Len(t, queue.submitted, 1)
	assert.Equal(t, JobTypeTask, queue.submitted[0].Type)
	assert.Equal(t, []error{nil}, queue.drain(t))
}

func TestTaskServiceSubmitQueueRejected(t *testing.T) {
	queue := newFakeQueue()
	queue.submitErr = errors.New("queue tasks is full")
	svc := NewTaskService(queue, &fakeLastLogin{}, nil, nil)

	_, err := svc.Submit(context.Background(), models.TaskRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrTooManyRequests))
}

func TestTaskServiceRecordLogin(t *testing.T) {
	queue := newFakeQueue()
	writer := &fakeLastLogin{}
	svc := NewTaskService(queue, writer, nil, nil)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	svc.RecordLogin(7, at)
	require.Len(t, queue.submitted, 1)
	assert.Equal(t, JobTypeLastLogin, queue.submitted[0].Type)

	assert.Equal(t, []error{nil}, queue.drain(t))
	assert.Equal(t, at, writer.touched[7])
}

func TestTaskServiceLastLoginFailureIsRetried(t *testing.T) {
	queue := newFakeQueue()
	writer := &fakeLastLogin{err: errors.New("db down")}
	svc := NewTaskService(queue, writer, nil, nil)

	svc.RecordLogin(7, time.Now())
	errs := queue.drain(t)
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "db down")
}
