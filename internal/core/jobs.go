package core

import (
	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// JobType is re-exported for HTTP handlers to avoid coupling them to the
// model package directly.
type JobType = model.JobType

// CreateJobRequest is re-exported for HTTP handlers.
type CreateJobRequest = model.CreateJobRequest
