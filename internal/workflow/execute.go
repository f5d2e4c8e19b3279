package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/colefield/sift/internal/classifications"
	"github.com/colefield/sift/internal/emails"
	"github.com/colefield/sift/internal/prompts"
	"github.com/colefield/sift/internal/runs"
	"github.com/colefield/sift/internal/verdict"
)

// Launch starts run execution in the background. The HTTP request context
// is deliberately not inherited; a run outlives the request that started it.
func (rt *Runtime) Launch(run *runs.Run) {
	go func() {
		if err := rt.Execute(context.Background(), run); err != nil {
			rt.Logger.Error(
				"run execution failed",
				"run_id", run.RunID,
				"error", err,
			)
		}
	}()
}

// Execute drives one run to a terminal status. Eligibility is computed by
// set difference against classifications already recorded under this run
// identifier, so re-executing an interrupted run resumes where it stopped.
// The returned error reflects process-level failure only; per-email failures
// are persisted and counted, not raised.
func (rt *Runtime) Execute(ctx context.Context, run *runs.Run) error {
	eligible, err := rt.Emails.ListUnclassified(ctx, run.ProjectID, run.RunID)
	if err != nil {
		rt.abort(ctx, run.RunID)
		return fmt.Errorf("list eligible emails: %w", err)
	}

	if err := rt.Runs.MarkRunning(ctx, run.RunID, len(eligible)); err != nil {
		// A run cancelled before it started has nothing to do.
		if errors.Is(err, runs.ErrInvalidTransition) {
			return nil
		}
		return fmt.Errorf("mark run running: %w", err)
	}

	rt.Logger.Info(
		"run started",
		"run_id", run.RunID,
		"project_id", run.ProjectID,
		"model", run.Model,
		"eligible", len(eligible),
		"workers", rt.workerCount(),
	)

	params := rt.parameters(run)

	var cancelled atomic.Bool

	g := new(errgroup.Group)
	g.SetLimit(rt.workerCount())

	for i := range eligible {
		email := eligible[i]
		g.Go(func() error {
			if cancelled.Load() {
				return nil
			}

			// Cooperative cancellation: poll the stored status before each
			// dispatch. In-flight generations still land their results.
			status, err := rt.Runs.Status(ctx, run.RunID)
			if err == nil && status == runs.StatusCancelled {
				cancelled.Store(true)
				return nil
			}

			rt.classify(ctx, run, email, params)
			return nil
		})
	}

	g.Wait()

	if cancelled.Load() {
		rt.Logger.Info("run cancelled", "run_id", run.RunID)
		return nil
	}

	if err := rt.Runs.Finish(ctx, run.RunID, runs.StatusCompleted); err != nil {
		// Raced with a cancel; the terminal status is already set.
		if errors.Is(err, runs.ErrInvalidTransition) {
			return nil
		}
		return fmt.Errorf("finish run: %w", err)
	}

	return nil
}

// classify processes one email end to end. Gateway and validator failures
// persist a failed classification and bump the failure counter; they are
// never retried and never propagate.
func (rt *Runtime) classify(ctx context.Context, run *runs.Run, email emails.Email, params parameters) {
	prompt := rt.Prompts.Build(promptInput(email))

	raw, err := rt.Gateway.Generate(ctx, params.generate(run.Model, prompt))
	if err != nil {
		rt.recordFailure(ctx, run, email.ID, params, fmt.Errorf("generate: %w", err))
		return
	}

	v, err := verdict.Parse(raw)
	if err != nil {
		rt.recordFailure(ctx, run, email.ID, params, fmt.Errorf("parse output: %w", err))
		return
	}

	_, err = rt.Classifications.Create(ctx, classifications.CreateCommand{
		EmailID:       email.ID,
		RunID:         run.RunID,
		Model:         run.Model,
		PromptVersion: run.PromptVersion,
		Params:        params.audit(),
		Responsive:    v.Responsive,
		Confidence:    v.Confidence,
		Labels:        v.Labels,
		Reason:        v.Reason,
	})
	if err != nil {
		rt.Logger.Error(
			"persist classification failed",
			"run_id", run.RunID,
			"email_id", email.ID,
			"error", err,
		)
		return
	}

	if err := rt.Runs.IncrementCompleted(ctx, run.RunID); err != nil {
		rt.Logger.Error(
			"increment completed count failed",
			"run_id", run.RunID,
			"error", err,
		)
	}
}

func (rt *Runtime) recordFailure(ctx context.Context, run *runs.Run, emailID int64, params parameters, cause error) {
	_, err := rt.Classifications.CreateFailed(ctx, classifications.FailCommand{
		EmailID:       emailID,
		RunID:         run.RunID,
		Model:         run.Model,
		PromptVersion: run.PromptVersion,
		Params:        params.audit(),
		ErrorMessage:  cause.Error(),
	})
	if err != nil {
		rt.Logger.Error(
			"persist failed classification failed",
			"run_id", run.RunID,
			"email_id", emailID,
			"error", err,
		)
		return
	}

	if err := rt.Runs.IncrementFailed(ctx, run.RunID); err != nil {
		rt.Logger.Error(
			"increment failed count failed",
			"run_id", run.RunID,
			"error", err,
		)
	}
}

func (rt *Runtime) abort(ctx context.Context, runID string) {
	if err := rt.Runs.Finish(ctx, runID, runs.StatusFailed); err != nil {
		rt.Logger.Error("mark run failed errored", "run_id", runID, "error", err)
	}
}

func promptInput(email emails.Email) prompts.Input {
	in := prompts.Input{
		Subject: email.Subject,
		From:    email.FromAddr,
		To:      email.ToAddr,
		Body:    email.BodyText,
	}
	if email.Date != nil {
		in.Date = email.Date.Format(time.RFC1123Z)
	}
	return in
}
