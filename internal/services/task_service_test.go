package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"doc-compliance-checker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.ComplianceReport {
	return &models.ComplianceReport{
		Summary: models.ReportSummary{
			ComplianceStatus: models.StatusCompliant,
			OverallScore:     0.9,
			KeyFindings:      "Clear and concise.",
		},
		Violations: []models.Violation{},
	}
}

func TestTaskService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewTaskService()

	task, err := s.Create(ctx, "t1", "memo.docx", "")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusProcessing, task.Status)
	assert.Equal(t, "memo.docx", task.Filename)
	assert.Nil(t, task.Report)

	require.NoError(t, s.Complete(ctx, "t1", sampleReport(), "Hello world."))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Equal(t, "Hello world.", got.OriginalText)
	require.NotNil(t, got.Report)
	require.NotNil(t, got.Report.Compliance)
	assert.Nil(t, got.Report.Error)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestTaskService_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewTaskService()

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrTaskNotFound))

	err = s.Complete(ctx, "missing", sampleReport(), "x")
	assert.True(t, errors.Is(err, models.ErrTaskNotFound))

	_, err = s.Create(ctx, "t1", "a.pdf", "")
	require.NoError(t, err)
	_, err = s.Create(ctx, "t1", "b.pdf", "")
	assert.True(t, errors.Is(err, models.ErrDuplicateTask))

	require.NoError(t, s.Fail(ctx, "t1", models.NewErrorReport(errors.New("boom"))))

	// terminal records never change again
	err = s.Complete(ctx, "t1", sampleReport(), "x")
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))
	err = s.Fail(ctx, "t1", models.NewErrorReport(errors.New("again")))
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, got.Status)
	assert.Equal(t, "a.pdf", got.Filename)
	require.NotNil(t, got.Report.Error)
	assert.Equal(t, "Failed to process document.", got.Report.Error.Error)
	assert.Equal(t, "boom", got.Report.Error.Details)
	assert.Empty(t, got.OriginalText)
}

func TestTaskService_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewTaskService()
	_, err := s.Create(ctx, "t1", "a.pdf", "")
	require.NoError(t, err)

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	got.Status = models.TaskStatusCompleted

	again, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusProcessing, again.Status)
}

func TestTaskService_SingleTerminalWrite(t *testing.T) {
	ctx := context.Background()
	s := NewTaskService()
	_, err := s.Create(ctx, "t1", "a.pdf", "")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = s.Complete(ctx, "t1", sampleReport(), "text")
			} else {
				err = s.Fail(ctx, "t1", models.NewErrorReport(errors.New("x")))
			}
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}
