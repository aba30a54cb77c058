package ports

import (
	"context"
	"time"

	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
)

// Reporter receives validation and deployment output for display. The
// pipeline never formats user-facing text itself.
type Reporter interface {
	ValidationResults(ctx context.Context, results []domain.ValidationResult)
	DeploymentResult(ctx context.Context, result domain.DeploymentResult)
	RollbackGuidance(ctx context.Context, guidance domain.RollbackGuidance)
	Phase(ctx context.Context, name string)
}

// ProgressReporter observes the polling loop while a remote operation is
// in flight.
type ProgressReporter interface {
	OperationProgress(ctx context.Context, handle domain.OperationHandle, status domain.OperationStatus, elapsed time.Duration)
}
