package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/adminkit/internal/models"
	"github.com/noah-isme/adminkit/pkg/jobs"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

const (
	// JobTypeTask runs a submitted demo task.
	JobTypeTask = "task.run"
	// JobTypeLastLogin stamps users.last_login after a successful login.
	JobTypeLastLogin = "user.last_login"
)

type taskQueue interface {
	Handle(jobType string, h jobs.Handler)
	Submit(jobType string, payload interface{}) (jobs.Job, error)
}

type lastLoginWriter interface {
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type lastLoginPayload struct {
	UserID int64
	At     time.Time
}

// TaskService submits background work to the job queue and owns its handlers.
type TaskService struct {
	queue   taskQueue
	users   lastLoginWriter
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewTaskService registers the task handlers on queue. Call it before the queue is started.
func NewTaskService(queue taskQueue, users lastLoginWriter, metrics *MetricsService, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TaskService{queue: queue, users: users, metrics: metrics, logger: logger, now: time.Now}
	queue.Handle(JobTypeTask, s.runTask)
	queue.Handle(JobTypeLastLogin, s.touchLastLogin)
	return s
}

// Submit queues a task and acknowledges it immediately.
func (s *TaskService) Submit(_ context.Context, req models.TaskRequest) (*models.TaskAck, error) {
	if req.Args == nil {
		req.Args = []interface{}{}
	}
	if req.Kwargs == nil {
		req.Kwargs = map[string]interface{}{}
	}

	job, err := s.queue.Submit(JobTypeTask, req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTooManyRequests.Code, appErrors.ErrTooManyRequests.Status, "task queue is not accepting work")
	}

	at := s.now().UTC()
	return &models.TaskAck{
		ID:      job.ID,
		Message: fmt.Sprintf("task accepted at %s", at.Format(time.RFC3339)),
		Args:    req.Args,
		Kwargs:  req.Kwargs,
		At:      at,
	}, nil
}

// RecordLogin schedules the last_login update for userID.
func (s *TaskService) RecordLogin(userID int64, at time.Time) {
	if _, err := s.queue.Submit(JobTypeLastLogin, lastLoginPayload{UserID: userID, At: at}); err != nil {
		s.logger.Warn("failed to schedule last login update", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *TaskService) runTask(_ context.Context, job jobs.Job) error {
	req, ok := job.Payload.(models.TaskRequest)
	if !ok {
		s.metrics.RecordJob(job.Type, fmt.Errorf("unexpected payload %T", job.Payload))
		return nil
	}
	s.logger.Info("task executed",
		zap.String("job_id", job.ID),
		zap.Time("executed_at", s.now().UTC()),
		zap.Any("args", req.Args),
		zap.Any("kwargs", req.Kwargs),
	)
	s.metrics.RecordJob(job.Type, nil)
	return nil
}

func (s *TaskService) touchLastLogin(ctx context.Context, job jobs.Job) error {
	p, ok := job.Payload.(lastLoginPayload)
	if !ok {
		s.metrics.RecordJob(job.Type, fmt.Errorf("unexpected payload %T", job.Payload))
		return nil
	}
	err := s.users.TouchLastLogin(ctx, p.UserID, p.At)
	s.metrics.RecordJob(job.Type, err)
	return err
}
