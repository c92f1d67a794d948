// Package mocks provides mock implementations for testing the pipeline job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// Create, GetByID, ClaimByID, ClaimBatch, WaitForNotification, Complete, Fail, Stats
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/draftforge/pipeline-api/internal/core JobRepository

// Generate mock for RunRepository interface from internal/core package.
// This creates MockRunRepository with methods for all RunRepository interface methods:
// Create, Finalize, GetByID, ListByJob
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=run_repository_mock.go github.com/draftforge/pipeline-api/internal/core RunRepository

// Generate mock for OrderRepository interface from internal/core package.
// This creates MockOrderRepository with methods for all OrderRepository interface methods:
// GetByID, Create, MarkDrafted
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=order_repository_mock.go github.com/draftforge/pipeline-api/internal/core OrderRepository

// Generate mock for DraftRepository interface from internal/core package.
// This creates MockDraftRepository with methods for all DraftRepository interface methods:
// Create, GetByID
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=draft_repository_mock.go github.com/draftforge/pipeline-api/internal/core DraftRepository

// Generate mock for ProfileRepository interface from internal/core package.
// This creates MockProfileRepository with methods for all ProfileRepository interface methods:
// GetByUserID
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=profile_repository_mock.go github.com/draftforge/pipeline-api/internal/core ProfileRepository

// Generate mock for ScheduleRepository interface from internal/core package.
// This creates MockScheduleRepository with methods for all ScheduleRepository interface methods:
// FindDue, MarkFired, ClearFireKey
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=schedule_repository_mock.go github.com/draftforge/pipeline-api/internal/core ScheduleRepository

// Generate mock for StageClients interface from internal/core package.
// This creates MockStageClients with methods for all StageClients interface methods:
// BuildBrief, Retrieve, Draft, Edit
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=stage_clients_mock.go github.com/draftforge/pipeline-api/internal/core StageClients

// Generate mock for DraftNotifier interface from internal/core package.
// This creates MockDraftNotifier with methods for all DraftNotifier interface methods:
// NotifyDraftReady
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=draft_notifier_mock.go github.com/draftforge/pipeline-api/internal/core DraftNotifier
