package ports

import (
	"context"

	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
)

// Checker is one prerequisite readiness check. The check set is closed and
// fixed at build time; there is no runtime discovery. A Checker reports
// failure through the result status, never by panicking or crashing the
// pipeline.
type Checker interface {
	Name() string
	Check(ctx context.Context) domain.ValidationResult
}
