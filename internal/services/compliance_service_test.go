package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"doc-compliance-checker/internal/llm"
	"doc-compliance-checker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGrammar struct {
	findings []models.GrammarFinding
	panics   bool
}

func (g *stubGrammar) Check(ctx context.Context, text string) []models.GrammarFinding {
	if g.panics {
		panic("grammar checker exploded")
	}
	if g.findings == nil {
		return []models.GrammarFinding{}
	}
	return g.findings
}

type recordingObserver struct {
	mu        sync.Mutex
	recorded  []*models.Task
	notified  []*models.Task
	durations []time.Duration
}

func (o *recordingObserver) RecordTask(ctx context.Context, task *models.Task, duration time.Duration, grammarFindings int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recorded = append(o.recorded, task)
	o.durations = append(o.durations, duration)
}

func (o *recordingObserver) NotifyTaskFinished(ctx context.Context, task *models.Task) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notified = append(o.notified, task)
	return nil
}

type pipelineFixture struct {
	svc     *ComplianceService
	tasks   *TaskService
	uploads *LocalStorage
	mock    *llm.MockClient
}

func newPipelineFixture(t *testing.T, grammar GrammarChecker) *pipelineFixture {
	t.Helper()
	uploads, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	outputs, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	mock := &llm.MockClient{}
	tasks := NewTaskService()
	svc := NewComplianceService(tasks, uploads, grammar, NewAIService(mock, outputs))
	return &pipelineFixture{svc: svc, tasks: tasks, uploads: uploads, mock: mock}
}

func TestComplianceService_CompliantDocument(t *testing.T) {
	f := newPipelineFixture(t, &stubGrammar{})
	ctx := context.Background()
	observer := &recordingObserver{}
	f.svc.SetMetricsRecorder(observer)
	f.svc.SetNotifier(observer)

	doc := buildDocx(t, "The committee approved the budget.")
	sub, err := f.svc.Submit(ctx, "budget.docx", "", bytes.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusProcessing, sub.Task.Status)
	assert.Equal(t, ".docx", sub.Ext)

	f.svc.Process(ctx, sub)

	task, err := f.tasks.Get(ctx, sub.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, "The committee approved the budget.", task.OriginalText)
	require.NotNil(t, task.Report.Compliance)
	assert.Equal(t, models.StatusCompliant, task.Report.Compliance.Summary.ComplianceStatus)
	assert.Empty(t, task.Report.Compliance.Violations)

	require.Len(t, observer.recorded, 1)
	require.Len(t, observer.notified, 1)
	assert.Equal(t, models.TaskStatusCompleted, observer.notified[0].Status)
}

func TestComplianceService_GrammarFindingsProduceViolations(t *testing.T) {
	grammar := &stubGrammar{findings: []models.GrammarFinding{{
		RuleID: "HE_VERB_AGR", Message: "Agreement error", Context: "This document have", Offset: 14, Length: 4,
		Replacements: []string{"has"},
	}}}
	f := newPipelineFixture(t, grammar)
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, "memo.DOCX", "", bytes.NewReader(buildDocx(t, "This document have errors.")))
	require.NoError(t, err)
	f.svc.Process(ctx, sub)

	task, err := f.tasks.Get(ctx, sub.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, models.StatusNonCompliant, task.Report.Compliance.Summary.ComplianceStatus)
	require.NotEmpty(t, task.Report.Compliance.Violations)
	assert.Equal(t, models.ViolationGrammar, task.Report.Compliance.Violations[0].Type)
}

func TestComplianceService_UnsupportedTypeCreatesNothing(t *testing.T) {
	f := newPipelineFixture(t, &stubGrammar{})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, "notes.txt", "", strings.NewReader("hello"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnsupportedFileType))

	objects, err := f.uploads.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestComplianceService_FailuresLandOnTask(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		content     []byte
		grammar     *stubGrammar
		jsonFunc    func(string) (string, error)
		wantDetails string
	}{
		{
			name:        "extraction",
			filename:    "broken.pdf",
			content:     []byte("not a pdf at all"),
			grammar:     &stubGrammar{},
			wantDetails: models.ErrExtractionFailed.Error(),
		},
		{
			name:        "empty document",
			filename:    "blank.docx",
			grammar:     &stubGrammar{},
			wantDetails: models.ErrEmptyDocument.Error(),
		},
		{
			name:        "model failure",
			filename:    "ok.docx",
			grammar:     &stubGrammar{},
			jsonFunc:    func(string) (string, error) { return "", errors.New("503 overloaded") },
			wantDetails: "503 overloaded",
		},
		{
			name:        "malformed output",
			filename:    "ok.docx",
			grammar:     &stubGrammar{},
			jsonFunc:    func(string) (string, error) { return "Sure! Here is the report.", nil },
			wantDetails: models.ErrMalformedModelOutput.Error(),
		},
		{
			name:        "panic",
			filename:    "ok.docx",
			grammar:     &stubGrammar{panics: true},
			wantDetails: "grammar checker exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture(t, tt.grammar)
			f.mock.JSONFunc = tt.jsonFunc
			ctx := context.Background()

			content := tt.content
			if content == nil {
				if tt.name == "empty document" {
					content = buildDocx(t, " ")
				} else {
					content = buildDocx(t, "Some readable text.")
				}
			}

			sub, err := f.svc.Submit(ctx, tt.filename, "", bytes.NewReader(content))
			require.NoError(t, err)
			f.svc.Process(ctx, sub)

			task, err := f.tasks.Get(ctx, sub.Task.ID)
			require.NoError(t, err)
			assert.Equal(t, models.TaskStatusFailed, task.Status)
			assert.Empty(t, task.OriginalText)
			require.NotNil(t, task.Report)
			require.NotNil(t, task.Report.Error)
			assert.Equal(t, "Failed to process document.", task.Report.Error.Error)
			assert.Contains(t, task.Report.Error.Details, tt.wantDetails)
		})
	}
}

func TestComplianceService_ModifyDocument(t *testing.T) {
	f := newPipelineFixture(t, &stubGrammar{})
	ctx := context.Background()

	_, _, err := f.svc.ModifyDocument(ctx, "unknown")
	assert.True(t, errors.Is(err, models.ErrTaskNotFound))

	sub, err := f.svc.Submit(ctx, "memo.docx", "", bytes.NewReader(buildDocx(t, "Original text here.")))
	require.NoError(t, err)

	_, _, err = f.svc.ModifyDocument(ctx, sub.Task.ID)
	assert.True(t, errors.Is(err, models.ErrTaskNotReady))

	f.svc.Process(ctx, sub)

	for i := 0; i < 2; i++ {
		doc, task, err := f.svc.ModifyDocument(ctx, sub.Task.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, doc.Location)
		assert.Equal(t, "memo.docx", task.Filename)

		text, err := ExtractText(doc.Data, ".docx")
		require.NoError(t, err)
		assert.NotEqual(t, "Original text here.", text)
	}
	assert.Len(t, f.mock.TextPrompts(), 2)
}

func TestComplianceService_ModifyInconsistentTask(t *testing.T) {
	f := newPipelineFixture(t, &stubGrammar{})
	ctx := context.Background()

	_, err := f.tasks.Create(ctx, "t1", "memo.docx", "")
	require.NoError(t, err)
	require.NoError(t, f.tasks.Complete(ctx, "t1", sampleReport(), ""))

	_, _, err = f.svc.ModifyDocument(ctx, "t1")
	assert.True(t, errors.Is(err, models.ErrInconsistentTask))
}

// completeFailingStore loses every Complete write, as a dropped Redis connection would
type completeFailingStore struct {
	*TaskService
}

func (s completeFailingStore) Complete(ctx context.Context, taskID string, report *models.ComplianceReport, originalText string) error {
	return errors.New("redis: connection reset")
}

func TestComplianceService_CompleteErrorFailsTask(t *testing.T) {
	uploads, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	tasks := NewTaskService()
	svc := NewComplianceService(completeFailingStore{tasks}, uploads, &stubGrammar{}, NewAIService(&llm.MockClient{}, uploads))
	ctx := context.Background()

	sub, err := svc.Submit(ctx, "memo.docx", "", bytes.NewReader(buildDocx(t, "A clear memo.")))
	require.NoError(t, err)
	svc.Process(ctx, sub)

	task, err := tasks.Get(ctx, sub.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	require.NotNil(t, task.Report.Error)
	assert.Contains(t, task.Report.Error.Details, "connection reset")
}

func TestComplianceService_ModifyReturnsOwnRewrite(t *testing.T) {
	f := newPipelineFixture(t, &stubGrammar{})
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, "memo.docx", "", bytes.NewReader(buildDocx(t, "Original text here.")))
	require.NoError(t, err)
	f.svc.Process(ctx, sub)

	var (
		mu    sync.Mutex
		calls int
	)
	f.mock.TextFunc = func(string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return "Rewrite from request A.", nil
		}
		return "Rewrite from request B.", nil
	}

	docA, _, err := f.svc.ModifyDocument(ctx, sub.Task.ID)
	require.NoError(t, err)
	docB, _, err := f.svc.ModifyDocument(ctx, sub.Task.ID)
	require.NoError(t, err)

	// the stored copy now holds B, A still gets its own bytes
	textA, err := ExtractText(docA.Data, ".docx")
	require.NoError(t, err)
	textB, err := ExtractText(docB.Data, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "Rewrite from request A.", textA)
	assert.Equal(t, "Rewrite from request B.", textB)
}

func TestComplianceService_ConcurrentModifyKeepsResultsApart(t *testing.T) {
	f := newPipelineFixture(t, &stubGrammar{})
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, "memo.docx", "", bytes.NewReader(buildDocx(t, "Original text here.")))
	require.NoError(t, err)
	f.svc.Process(ctx, sub)

	var (
		mu    sync.Mutex
		calls int
	)
	f.mock.TextFunc = func(string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls%2 == 1 {
			return "Rewrite one.", nil
		}
		return "Rewrite two.", nil
	}

	texts := make([]string, 2)
	var wg sync.WaitGroup
	for i := range texts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, _, err := f.svc.ModifyDocument(ctx, sub.Task.ID)
			if !assert.NoError(t, err) {
				return
			}
			text, err := ExtractText(doc.Data, ".docx")
			assert.NoError(t, err)
			texts[i] = text
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"Rewrite one.", "Rewrite two."}, texts)
}
