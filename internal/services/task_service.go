package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doc-compliance-checker/internal/models"
)

// TaskStore is the task registry. Records move from processing to exactly
// one terminal status; Get returns a copy that callers may keep.
type TaskStore interface {
	Create(ctx context.Context, taskID, filename, notifyEmail string) (*models.Task, error)
	Complete(ctx context.Context, taskID string, report *models.ComplianceReport, originalText string) error
	Fail(ctx context.Context, taskID string, errReport *models.ErrorReport) error
	Get(ctx context.Context, taskID string) (*models.Task, error)
}

// TaskService keeps tasks in process memory
type TaskService struct {
	tasks map[string]*models.Task
	mutex sync.RWMutex
}

// NewTaskService creates a new task service
func NewTaskService() *TaskService {
	return &TaskService{
		tasks: make(map[string]*models.Task),
	}
}

// Create registers a new processing task
func (s *TaskService) Create(ctx context.Context, taskID, filename, notifyEmail string) (*models.Task, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.tasks[taskID]; exists {
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicateTask, taskID)
	}

	now := time.Now()
	task := &models.Task{
		ID:          taskID,
		Status:      models.TaskStatusProcessing,
		Filename:    filename,
		NotifyEmail: notifyEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.tasks[taskID] = task
	return copyTask(task), nil
}

// Complete stores the report and extracted text on a processing task
func (s *TaskService) Complete(ctx context.Context, taskID string, report *models.ComplianceReport, originalText string) error {
	return s.finish(taskID, func(task *models.Task) {
		task.Status = models.TaskStatusCompleted
		task.Report = &models.TaskReport{Compliance: report}
		task.OriginalText = originalText
	})
}

// Fail marks a processing task as failed with an error payload
func (s *TaskService) Fail(ctx context.Context, taskID string, errReport *models.ErrorReport) error {
	return s.finish(taskID, func(task *models.Task) {
		task.Status = models.TaskStatusFailed
		task.Report = &models.TaskReport{Error: errReport}
	})
}

func (s *TaskService) finish(taskID string, apply func(task *models.Task)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return fmt.Errorf("%w: %s", models.ErrTaskNotFound, taskID)
	}
	if task.Status != models.TaskStatusProcessing {
		return fmt.Errorf("%w: %s is %s", models.ErrInvalidTransition, taskID, task.Status)
	}

	apply(task)
	task.UpdatedAt = time.Now()
	return nil
}

// Get retrieves a task by ID
func (s *TaskService) Get(ctx context.Context, taskID string) (*models.Task, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrTaskNotFound, taskID)
	}

	return copyTask(task), nil
}

// copyTask returns a shallow copy. Reports are never mutated once stored.
func copyTask(task *models.Task) *models.Task {
	c := *task
	return &c
}
