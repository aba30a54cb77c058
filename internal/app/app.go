package app

import (
	"context"
	"time"

	"github.com/olusolaa/landing-zone-baseline/internal/config"
	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
	"github.com/olusolaa/landing-zone-baseline/internal/core/service"
	"github.com/olusolaa/landing-zone-baseline/internal/policy"
	"github.com/olusolaa/landing-zone-baseline/internal/prereq"
	"github.com/olusolaa/landing-zone-baseline/internal/provision"
	"github.com/olusolaa/landing-zone-baseline/internal/reporting/text"
)

// Application holds the wired pipeline components the CLI commands drive.
type Application struct {
	Config      *config.Config
	Logger      ports.Logger
	Reporter    *text.Reporter
	Controller  *service.Controller
	Validator   *prereq.Validator
	Provisioner *provision.Provisioner
	Deployer    *policy.Deployer
}

// Deploy runs the full orchestration pipeline.
func (a *Application) Deploy(ctx context.Context, opts service.Options) error {
	a.Logger.Infof(ctx, "Starting landing zone deployment...")

	if _, err := a.Controller.Orchestrate(ctx, opts); err != nil {
		a.Logger.Errorf(ctx, err, "Landing zone deployment failed")
		return err
	}

	a.Logger.Infof(ctx, "Landing zone deployment completed successfully")
	return nil
}

// Validate runs the prerequisite checks and reports them without deploying.
func (a *Application) Validate(ctx context.Context) (bool, error) {
	a.Logger.Infof(ctx, "Validating deployment prerequisites...")

	results := a.Validator.ValidateAll(ctx)
	a.Reporter.ValidationResults(ctx, results)
	return a.Validator.IsReady(results), nil
}

// Status resumes monitoring of an in-flight operation by its identifier.
func (a *Application) Status(ctx context.Context, operationID string, timeout time.Duration) error {
	handle := domain.OperationHandle{OperationID: operationID}

	status, err := a.Provisioner.GetStatus(ctx, handle)
	if err != nil {
		return err
	}
	a.Reporter.OperationProgress(ctx, handle, status, 0)

	if status.State == domain.OperationSucceeded {
		return nil
	}
	if status.State == domain.OperationFailed {
		a.Logger.Errorf(ctx, nil, "Operation %s failed: %s", operationID, status.Message)
		return nil
	}

	_, err = a.Provisioner.WaitForCompletion(ctx, handle, timeout)
	return err
}

// Cleanup removes managed guardrail policies carrying the given prefix.
func (a *Application) Cleanup(ctx context.Context, prefix string) (int, error) {
	a.Logger.Infof(ctx, "Cleaning up policies with prefix %q...", prefix)
	return a.Deployer.Cleanup(ctx, prefix)
}
