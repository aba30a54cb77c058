// Package prereq determines whether the target environment is ready for
// provisioning. The check set is a closed, ordered list fixed at build time.
package prereq

import (
	"context"
	"fmt"

	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
)

// Foundational checks: when one of these fails, downstream checks are
// meaningless and validation short-circuits.
const (
	CheckCredentials  = "AWS Credentials"
	CheckOrganization = "AWS Organizations"
)

const (
	CheckOrganizationalUnits = "Organizational Units"
	CheckMemberAccounts      = "Member Accounts"
	CheckExecutionRoles      = "Execution Roles"
	CheckExistingLandingZone = "Existing Landing Zone"
)

type Validator struct {
	checkers     []ports.Checker
	foundational map[string]bool
	logger       ports.Logger
}

func NewValidator(logger ports.Logger, checkers ...ports.Checker) *Validator {
	return &Validator{
		checkers: checkers,
		foundational: map[string]bool{
			CheckCredentials:  true,
			CheckOrganization: true,
		},
		logger: logger,
	}
}

// ValidateAll runs every checker in order, collecting one result per check.
// A checker must never crash the pipeline: panics are converted into Failed
// results. Execution stops early only after a foundational check fails.
func (v *Validator) ValidateAll(ctx context.Context) []domain.ValidationResult {
	results := make([]domain.ValidationResult, 0, len(v.checkers))

	for _, checker := range v.checkers {
		result := v.runChecker(ctx, checker)
		results = append(results, result)

		if result.Status == domain.StatusFailed && v.foundational[checker.Name()] {
			v.logger.Warnf(ctx, "Foundational check %q failed, skipping remaining checks", checker.Name())
			break
		}
	}
	return results
}

// IsReady reports readiness: true iff no result is Failed. Warnings and
// skipped checks do not block.
func (v *Validator) IsReady(results []domain.ValidationResult) bool {
	for _, result := range results {
		if result.Status == domain.StatusFailed {
			return false
		}
	}
	return true
}

func (v *Validator) runChecker(ctx context.Context, checker ports.Checker) (result domain.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Errorf(ctx, nil, "Checker %q panicked: %v", checker.Name(), r)
			result = domain.ValidationResult{
				CheckName: checker.Name(),
				Status:    domain.StatusFailed,
				Message:   fmt.Sprintf("validation error: %v", r),
				RemediationSteps: []string{
					"Verify AWS service availability in the home region",
					"Re-run validation; report the issue if it persists",
				},
			}
		}
	}()

	v.logger.Debugf(ctx, "Running prerequisite check: %s", checker.Name())
	return checker.Check(ctx)
}
