package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/colefield/sift/internal/classifications"
	"github.com/colefield/sift/internal/emails"
	"github.com/colefield/sift/internal/gateway"
	"github.com/colefield/sift/internal/prompts"
	"github.com/colefield/sift/internal/runs"
	"github.com/colefield/sift/internal/workflow"
	"github.com/colefield/sift/pkg/pagination"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGateway returns canned responses or errors keyed by prompt content.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []gateway.GenerateCommand
	respond func(cmd gateway.GenerateCommand) (string, error)
	healthy bool
}

func (f *fakeGateway) HealthCheck(ctx context.Context) bool { return f.healthy }

func (f *fakeGateway) ListModels(ctx context.Context) ([]gateway.Model, error) {
	return []gateway.Model{}, nil
}

func (f *fakeGateway) ClearCache() {}

func (f *fakeGateway) Generate(ctx context.Context, cmd gateway.GenerateCommand) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	return f.respond(cmd)
}

// fakeEmails serves a fixed eligible set.
type fakeEmails struct {
	eligible []emails.Email
	listErr  error
}

func (f *fakeEmails) Handler(maxUploadSize int64) *emails.Handler { return nil }

func (f *fakeEmails) List(ctx context.Context, page pagination.PageRequest, filters emails.Filters) (*pagination.PageResult[emails.Email], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEmails) Find(ctx context.Context, id int64) (*emails.Email, error) {
	return nil, emails.ErrNotFound
}

func (f *fakeEmails) FindByHash(ctx context.Context, projectID int64, hash string) (*emails.Email, error) {
	return nil, emails.ErrNotFound
}

func (f *fakeEmails) Ingest(ctx context.Context, cmd emails.IngestCommand) (*emails.IngestResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEmails) ListUnclassified(ctx context.Context, projectID int64, runID string) ([]emails.Email, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.eligible, nil
}

// fakeClassifications records created rows.
type fakeClassifications struct {
	mu        sync.Mutex
	completed []classifications.CreateCommand
	failed    []classifications.FailCommand
}

func (f *fakeClassifications) Handler() *classifications.Handler { return nil }

func (f *fakeClassifications) List(ctx context.Context, page pagination.PageRequest, filters classifications.Filters) (*pagination.PageResult[classifications.Classification], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClassifications) Find(ctx context.Context, id int64) (*classifications.Classification, error) {
	return nil, classifications.ErrNotFound
}

func (f *fakeClassifications) LatestByEmail(ctx context.Context, emailID int64) (*classifications.Classification, error) {
	return nil, classifications.ErrNotFound
}

func (f *fakeClassifications) Create(ctx context.Context, cmd classifications.CreateCommand) (*classifications.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, cmd)
	return &classifications.Classification{EmailID: cmd.EmailID, RunID: cmd.RunID}, nil
}

func (f *fakeClassifications) CreateFailed(ctx context.Context, cmd classifications.FailCommand) (*classifications.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, cmd)
	return &classifications.Classification{EmailID: cmd.EmailID, RunID: cmd.RunID}, nil
}

// fakeRuns tracks transitions and counters in memory.
type fakeRuns struct {
	mu             sync.Mutex
	status         string
	total          int
	completedCount int
	failedCount    int
	finishedWith   string
	markRunningErr error

	// cancelAfter flips status to cancelled once this many Status polls
	// have happened. Zero disables.
	cancelAfter int
	statusPolls int
}

func (f *fakeRuns) Handler(launcher runs.Launcher) *runs.Handler { return nil }

func (f *fakeRuns) List(ctx context.Context, page pagination.PageRequest, filters runs.Filters) (*pagination.PageResult[runs.Run], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRuns) Find(ctx context.Context, id int64) (*runs.Run, error) {
	return nil, runs.ErrNotFound
}

func (f *fakeRuns) FindByRunID(ctx context.Context, runID string) (*runs.Run, error) {
	return nil, runs.ErrNotFound
}

func (f *fakeRuns) Create(ctx context.Context, cmd runs.CreateCommand) (*runs.Run, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRuns) MarkRunning(ctx context.Context, runID string, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markRunningErr != nil {
		return f.markRunningErr
	}
	f.status = runs.StatusRunning
	f.total = total
	return nil
}

func (f *fakeRuns) IncrementCompleted(ctx context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completedCount++
	return nil
}

func (f *fakeRuns) IncrementFailed(ctx context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedCount++
	return nil
}

func (f *fakeRuns) Finish(ctx context.Context, runID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishedWith = status
	f.status = status
	return nil
}

func (f *fakeRuns) Cancel(ctx context.Context, runID string) (*runs.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = runs.StatusCancelled
	return &runs.Run{RunID: runID, Status: runs.StatusCancelled}, nil
}

func (f *fakeRuns) Status(ctx context.Context, runID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusPolls++
	if f.cancelAfter > 0 && f.statusPolls > f.cancelAfter {
		f.status = runs.StatusCancelled
	}
	return f.status, nil
}

func testEmails(n int) []emails.Email {
	out := make([]emails.Email, n)
	for i := range out {
		out[i] = emails.Email{
			ID:       int64(i + 1),
			Subject:  fmt.Sprintf("Subject %d", i+1),
			BodyText: fmt.Sprintf("body %d", i+1),
		}
	}
	return out
}

func newRuntime(gw *fakeGateway, em *fakeEmails, cl *fakeClassifications, rn *fakeRuns) *workflow.Runtime {
	return &workflow.Runtime{
		Gateway:         gw,
		Emails:          em,
		Classifications: cl,
		Runs:            rn,
		Prompts:         prompts.New(filepath.Join("testdata", "missing.json"), discardLogger()),
		Logger:          discardLogger(),
		Workers:         2,
		Temperature:     0.1,
		TopP:            0.9,
	}
}

func testRun() *runs.Run {
	return &runs.Run{
		ID:            1,
		RunID:         "run-abc",
		ProjectID:     1,
		Model:         "llama3.1:8b",
		PromptVersion: "1.0",
		Status:        runs.StatusPending,
	}
}

func TestExecuteCompletesAllEmails(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		return `{"responsive": true, "confidence": 0.9, "reason": "ok", "labels": []}`, nil
	}}
	em := &fakeEmails{eligible: testEmails(5)}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusPending}

	rt := newRuntime(gw, em, cl, rn)
	if err := rt.Execute(context.Background(), testRun()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if rn.total != 5 {
		t.Errorf("total = %d, want 5", rn.total)
	}
	if len(cl.completed) != 5 {
		t.Errorf("completed rows = %d, want 5", len(cl.completed))
	}
	if rn.completedCount != 5 {
		t.Errorf("completed counter = %d, want 5", rn.completedCount)
	}
	if rn.finishedWith != runs.StatusCompleted {
		t.Errorf("terminal status = %q, want completed", rn.finishedWith)
	}
}

func TestExecuteIsolatesFailures(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		// Emails 2 and 4 hit gateway timeouts.
		if strings.Contains(cmd.Prompt, "Subject 2") || strings.Contains(cmd.Prompt, "Subject 4") {
			return "", gateway.ErrTimeout
		}
		return `{"responsive": false, "confidence": 0.8, "reason": "ok", "labels": []}`, nil
	}}
	em := &fakeEmails{eligible: testEmails(5)}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusPending}

	rt := newRuntime(gw, em, cl, rn)
	if err := rt.Execute(context.Background(), testRun()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(cl.completed) != 3 {
		t.Errorf("completed rows = %d, want 3", len(cl.completed))
	}
	if len(cl.failed) != 2 {
		t.Errorf("failed rows = %d, want 2", len(cl.failed))
	}
	if rn.completedCount != 3 || rn.failedCount != 2 {
		t.Errorf("counters = %d/%d, want 3/2", rn.completedCount, rn.failedCount)
	}
	if rn.finishedWith != runs.StatusCompleted {
		t.Errorf("run with per-email failures should still complete, got %q", rn.finishedWith)
	}

	for _, f := range cl.failed {
		if !strings.Contains(f.ErrorMessage, "generate") {
			t.Errorf("failure message = %q, want generate error", f.ErrorMessage)
		}
	}
}

func TestExecuteRecordsParseFailures(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		return "I refuse to answer in JSON.", nil
	}}
	em := &fakeEmails{eligible: testEmails(1)}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusPending}

	rt := newRuntime(gw, em, cl, rn)
	if err := rt.Execute(context.Background(), testRun()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(cl.failed) != 1 {
		t.Fatalf("failed rows = %d, want 1", len(cl.failed))
	}
	if !strings.Contains(cl.failed[0].ErrorMessage, "parse output") {
		t.Errorf("failure message = %q", cl.failed[0].ErrorMessage)
	}
}

func TestExecuteCancellationStopsDispatch(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		return `{"responsive": true, "confidence": 0.9, "reason": "ok", "labels": []}`, nil
	}}
	em := &fakeEmails{eligible: testEmails(20)}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusPending, cancelAfter: 3}

	rt := newRuntime(gw, em, cl, rn)
	rt.Workers = 1

	if err := rt.Execute(context.Background(), testRun()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(cl.completed) >= 20 {
		t.Error("cancellation should stop dispatch before all emails run")
	}
	if rn.finishedWith == runs.StatusCompleted {
		t.Error("cancelled run must not be marked completed")
	}
	if rn.status != runs.StatusCancelled {
		t.Errorf("status = %q, want cancelled", rn.status)
	}
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		t.Error("gateway should never be called")
		return "", nil
	}}
	em := &fakeEmails{eligible: testEmails(3)}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusCancelled, markRunningErr: runs.ErrInvalidTransition}

	rt := newRuntime(gw, em, cl, rn)
	if err := rt.Execute(context.Background(), testRun()); err != nil {
		t.Fatalf("Execute should tolerate pre-cancelled runs: %v", err)
	}

	if len(cl.completed)+len(cl.failed) != 0 {
		t.Error("no classifications should be written")
	}
}

func TestExecuteAbortsWhenEligibilityFails(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		return "", nil
	}}
	em := &fakeEmails{listErr: errors.New("connection reset")}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusPending}

	rt := newRuntime(gw, em, cl, rn)
	if err := rt.Execute(context.Background(), testRun()); err == nil {
		t.Fatal("expected error when eligibility query fails")
	}

	if rn.finishedWith != runs.StatusFailed {
		t.Errorf("terminal status = %q, want failed", rn.finishedWith)
	}
}

func TestExecuteEmptyEligibleSet(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		t.Error("gateway should never be called")
		return "", nil
	}}
	em := &fakeEmails{eligible: []emails.Email{}}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusPending}

	rt := newRuntime(gw, em, cl, rn)
	if err := rt.Execute(context.Background(), testRun()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if rn.total != 0 {
		t.Errorf("total = %d, want 0", rn.total)
	}
	if rn.finishedWith != runs.StatusCompleted {
		t.Errorf("terminal status = %q, want completed", rn.finishedWith)
	}
}

func TestExecuteParamOverrides(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		return `{"responsive": true, "confidence": 0.9, "reason": "ok", "labels": []}`, nil
	}}
	em := &fakeEmails{eligible: testEmails(1)}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusPending}

	run := testRun()
	run.Params = map[string]any{
		"temperature": 0.7,
		"top_p":       0.5,
		"max_tokens":  float64(256),
	}

	rt := newRuntime(gw, em, cl, rn)
	if err := rt.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(gw.calls) != 1 {
		t.Fatalf("gateway calls = %d, want 1", len(gw.calls))
	}
	cmd := gw.calls[0]
	if cmd.Temperature != 0.7 {
		t.Errorf("temperature = %g, want 0.7", cmd.Temperature)
	}
	if cmd.TopP != 0.5 {
		t.Errorf("top_p = %g, want 0.5", cmd.TopP)
	}
	if cmd.MaxTokens == nil || *cmd.MaxTokens != 256 {
		t.Errorf("max_tokens = %v, want 256", cmd.MaxTokens)
	}
	if !cmd.JSONFormat {
		t.Error("generation must request JSON format")
	}
	if cmd.Model != "llama3.1:8b" {
		t.Errorf("model = %q", cmd.Model)
	}
}

func TestExecuteDefaultParams(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		return `{"responsive": true, "confidence": 0.9, "reason": "ok", "labels": []}`, nil
	}}
	em := &fakeEmails{eligible: testEmails(1)}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusPending}

	rt := newRuntime(gw, em, cl, rn)
	if err := rt.Execute(context.Background(), testRun()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	cmd := gw.calls[0]
	if cmd.Temperature != 0.1 || cmd.TopP != 0.9 {
		t.Errorf("defaults not applied: temperature=%g top_p=%g", cmd.Temperature, cmd.TopP)
	}
	if cmd.MaxTokens != nil {
		t.Errorf("max_tokens = %v, want nil", cmd.MaxTokens)
	}
}

func TestExecuteAuditParamsOnClassification(t *testing.T) {
	gw := &fakeGateway{respond: func(cmd gateway.GenerateCommand) (string, error) {
		return `{"responsive": true, "confidence": 0.9, "reason": "ok", "labels": ["mold"]}`, nil
	}}
	em := &fakeEmails{eligible: testEmails(1)}
	cl := &fakeClassifications{}
	rn := &fakeRuns{status: runs.StatusPending}

	rt := newRuntime(gw, em, cl, rn)
	if err := rt.Execute(context.Background(), testRun()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(cl.completed) != 1 {
		t.Fatalf("completed rows = %d, want 1", len(cl.completed))
	}

	row := cl.completed[0]
	if row.Params["temperature"] != 0.1 {
		t.Errorf("audit temperature = %v", row.Params["temperature"])
	}
	if row.Model != "llama3.1:8b" || row.PromptVersion != "1.0" {
		t.Errorf("audit model/version = %q/%q", row.Model, row.PromptVersion)
	}
	if !row.Responsive || row.Confidence != 0.9 {
		t.Errorf("verdict fields = %v/%g", row.Responsive, row.Confidence)
	}
	if len(row.Labels) != 1 || row.Labels[0] != "mold" {
		t.Errorf("labels = %v", row.Labels)
	}
}
