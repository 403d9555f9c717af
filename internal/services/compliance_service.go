package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"doc-compliance-checker/internal/models"
	"doc-compliance-checker/internal/utils"
)

// MetricsRecorder receives one observation per finished task
type MetricsRecorder interface {
	RecordTask(ctx context.Context, task *models.Task, duration time.Duration, grammarFindings int)
}

// Notifier is told about every finished task
type Notifier interface {
	NotifyTaskFinished(ctx context.Context, task *models.Task) error
}

// ComplianceService runs documents through extraction, grammar checking and
// report generation, and serves rewrite requests for finished tasks
type ComplianceService struct {
	tasks    TaskStore
	uploads  Storage
	grammar  GrammarChecker
	ai       *AIService
	metrics  MetricsRecorder
	notifier Notifier
}

// NewComplianceService creates a new compliance service
func NewComplianceService(tasks TaskStore, uploads Storage, grammar GrammarChecker, ai *AIService) *ComplianceService {
	return &ComplianceService{
		tasks:   tasks,
		uploads: uploads,
		grammar: grammar,
		ai:      ai,
	}
}

// SetMetricsRecorder enables task metrics
func (s *ComplianceService) SetMetricsRecorder(m MetricsRecorder) {
	s.metrics = m
}

// SetNotifier enables completion notifications
func (s *ComplianceService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Tasks exposes the task registry
func (s *ComplianceService) Tasks() TaskStore {
	return s.tasks
}

// Submission is an accepted upload waiting for Process
type Submission struct {
	Task *models.Task
	Key  string
	Ext  string
}

// Submit stores the upload and registers a processing task.
// Unsupported extensions are rejected before anything is written.
func (s *ComplianceService) Submit(ctx context.Context, filename, notifyEmail string, content io.Reader) (*Submission, error) {
	ext := utils.FileExt(filename)
	if !IsSupportedExt(ext) {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedFileType, ext)
	}

	taskID := utils.GenerateUUID()
	key := UploadKey(taskID, ext)
	if _, err := s.uploads.Save(ctx, key, content, ""); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	task, err := s.tasks.Create(ctx, taskID, filename, notifyEmail)
	if err != nil {
		if delErr := s.uploads.Delete(ctx, key); delErr != nil {
			log.Printf("[PIPELINE] WARNING: failed to remove orphaned upload %s: %v", key, delErr)
		}
		return nil, err
	}

	log.Printf("[PIPELINE] Task %s created for %s", taskID, filename)
	return &Submission{Task: task, Key: key, Ext: ext}, nil
}

// Process runs the background stages for one task and records exactly one
// terminal state. It never returns an error; failures land on the task.
func (s *ComplianceService) Process(ctx context.Context, sub *Submission) {
	taskID := sub.Task.ID
	start := time.Now()
	findingsCount := 0

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PIPELINE] PANIC in task %s: %v", taskID, r)
			s.fail(ctx, taskID, fmt.Errorf("internal error: %v", r))
		}
		s.finished(ctx, taskID, time.Since(start), findingsCount)
	}()

	log.Printf("[PIPELINE] Processing task %s", taskID)

	text, err := s.extract(ctx, sub)
	if err != nil {
		s.fail(ctx, taskID, err)
		return
	}

	findings := s.grammar.Check(ctx, text)
	findingsCount = len(findings)
	log.Printf("[PIPELINE] Task %s: extracted %d chars, %d grammar findings", taskID, len(text), findingsCount)

	report, err := s.ai.GenerateReport(ctx, text, findings)
	if err != nil {
		s.fail(ctx, taskID, err)
		return
	}

	if err := s.tasks.Complete(ctx, taskID, report, text); err != nil {
		log.Printf("[PIPELINE] ERROR: could not complete task %s: %v", taskID, err)
		if !errors.Is(err, models.ErrInvalidTransition) {
			s.fail(ctx, taskID, fmt.Errorf("failed to store report: %w", err))
		}
		return
	}
	log.Printf("[PIPELINE] Task %s completed: %s (score %.2f, %d violations)",
		taskID, report.Summary.ComplianceStatus, report.Summary.OverallScore, len(report.Violations))
}

func (s *ComplianceService) extract(ctx context.Context, sub *Submission) (string, error) {
	rc, err := s.uploads.Open(ctx, sub.Key)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	return ExtractText(buf.Bytes(), sub.Ext)
}

func (s *ComplianceService) fail(ctx context.Context, taskID string, cause error) {
	log.Printf("[PIPELINE] Task %s failed: %v", taskID, cause)
	if err := s.tasks.Fail(ctx, taskID, models.NewErrorReport(cause)); err != nil {
		log.Printf("[PIPELINE] ERROR: could not mark task %s failed: %v", taskID, err)
	}
}

// finished fans a terminal task out to metrics and notifications
func (s *ComplianceService) finished(ctx context.Context, taskID string, duration time.Duration, findings int) {
	if s.metrics == nil && s.notifier == nil {
		return
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		log.Printf("[PIPELINE] WARNING: could not reload task %s: %v", taskID, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordTask(ctx, task, duration, findings)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyTaskFinished(ctx, task); err != nil {
			log.Printf("[PIPELINE] WARNING: notification for task %s failed: %v", taskID, err)
		}
	}
}

// ModifyDocument rewrites a completed task's document and returns the
// generated file together with the task it was built from
func (s *ComplianceService) ModifyDocument(ctx context.Context, taskID string) (*ModifiedDocument, *models.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task.Status != models.TaskStatusCompleted {
		return nil, task, fmt.Errorf("%w: %s is %s", models.ErrTaskNotReady, taskID, task.Status)
	}
	if task.OriginalText == "" || task.Report == nil || task.Report.Compliance == nil {
		return nil, task, fmt.Errorf("%w: %s has no original text or report", models.ErrInconsistentTask, taskID)
	}

	doc, err := s.ai.RewriteDocument(ctx, taskID, task.OriginalText, task.Report.Compliance)
	if err != nil {
		return nil, task, err
	}
	return doc, task, nil
}
