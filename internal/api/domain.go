package api

import (
	"github.com/colefield/sift/internal/classifications"
	"github.com/colefield/sift/internal/emails"
	"github.com/colefield/sift/internal/projects"
	"github.com/colefield/sift/internal/prompts"
	"github.com/colefield/sift/internal/reviews"
	"github.com/colefield/sift/internal/runs"
	"github.com/colefield/sift/internal/sampling"
	"github.com/colefield/sift/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Projects        projects.System
	Emails          emails.System
	Classifications classifications.System
	Runs            runs.System
	Reviews         reviews.System
	Samplings       sampling.System
	Workflow        *workflow.Runtime
}

// NewDomain creates all domain systems from the API runtime and wires
// the run execution workflow over them.
func NewDomain(runtime *Runtime) *Domain {
	projectsSystem := projects.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	emailsSystem := emails.New(
		runtime.Database.Connection(),
		projectsSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	classificationsSystem := classifications.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	runsSystem := runs.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	reviewsSystem := reviews.New(
		runtime.Database.Connection(),
		classificationsSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	samplingsSystem := sampling.New(
		runtime.Database.Connection(),
		runtime.Classifier.LowConfidenceThreshold,
		runtime.Logger,
		runtime.Pagination,
	)

	workflowRuntime := &workflow.Runtime{
		Gateway:         runtime.Gateway,
		Emails:          emailsSystem,
		Classifications: classificationsSystem,
		Runs:            runsSystem,
		Prompts:         prompts.New(runtime.Classifier.PromptBundle, runtime.Logger),
		Logger:          runtime.Logger,
		Workers:         runtime.Classifier.Workers,
		Temperature:     runtime.Classifier.Temperature,
		TopP:            runtime.Classifier.TopP,
	}

	return &Domain{
		Projects:        projectsSystem,
		Emails:          emailsSystem,
		Classifications: classificationsSystem,
		Runs:            runsSystem,
		Reviews:         reviewsSystem,
		Samplings:       samplingsSystem,
		Workflow:        workflowRuntime,
	}
}
