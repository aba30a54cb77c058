// Package service sequences the provisioning pipeline: prerequisite
// validation, manifest build, submit-and-poll provisioning, guardrail policy
// deployment, and post-deployment validation.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olusolaa/landing-zone-baseline/internal/config"
	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

// Pipeline step names recorded in the deployment result.
const (
	StepPrerequisites = "prerequisites_validation"
	StepManifest      = "manifest_generation"
	StepProvisioning  = "landing_zone_provisioning"
	StepPolicies      = "policy_deployment"
	StepValidation    = "post_deployment_validation"
)

// Component contracts, satisfied by prereq.Validator, manifest.Builder,
// provision.Provisioner, policy.Deployer and policy.TargetResolver.

type PrerequisiteValidator interface {
	ValidateAll(ctx context.Context) []domain.ValidationResult
	IsReady(results []domain.ValidationResult) bool
}

type ManifestBuilder interface {
	Build(ctx context.Context) (*domain.Manifest, error)
}

type Provisioner interface {
	SubmitCreate(ctx context.Context, m *domain.Manifest, version string, tags map[string]string) (domain.OperationHandle, error)
	WaitForCompletion(ctx context.Context, handle domain.OperationHandle, timeout time.Duration) (bool, error)
	ResolveLandingZoneID(ctx context.Context) (string, error)
	GetDetails(ctx context.Context, resourceIdentifier string) (domain.LandingZoneDetails, error)
}

type PolicyDeployer interface {
	DeployTier(ctx context.Context, tierName string, targetScopeIDs []string) (domain.PolicyDeploymentRecord, error)
}

type TargetResolver interface {
	ResolveOUNames(ctx context.Context, names []string) ([]string, error)
}

// Options select optional phases for one orchestration run.
type Options struct {
	SkipPrerequisites    bool
	SkipPolicyDeployment bool
	Timeout              time.Duration
}

// Controller owns exactly one DeploymentState for exactly one deployment
// attempt. It is not safe for concurrent use and is discarded after the run.
type Controller struct {
	cfg         *config.Config
	validator   PrerequisiteValidator
	builder     ManifestBuilder
	provisioner Provisioner
	deployer    PolicyDeployer
	targets     TargetResolver
	reporter    ports.Reporter
	logger      ports.Logger

	state domain.DeploymentState
}

func NewController(
	cfg *config.Config,
	validator PrerequisiteValidator,
	builder ManifestBuilder,
	provisioner Provisioner,
	deployer PolicyDeployer,
	targets TargetResolver,
	reporter ports.Reporter,
	logger ports.Logger,
) *Controller {
	return &Controller{
		cfg:         cfg,
		validator:   validator,
		builder:     builder,
		provisioner: provisioner,
		deployer:    deployer,
		targets:     targets,
		reporter:    reporter,
		logger:      logger,
	}
}

// State returns a copy of the per-phase completion state.
func (c *Controller) State() domain.DeploymentState {
	return c.state
}

// Orchestrate runs the pipeline end to end. Phases execute strictly
// sequentially; each phase's output is the next phase's required input. On
// failure after provisioning has completed, rollback guidance is emitted and
// the wrapped cause is returned; nothing remote is rolled back automatically.
func (c *Controller) Orchestrate(ctx context.Context, opts Options) (domain.DeploymentResult, error) {
	result := domain.DeploymentResult{
		Status:           domain.DeploymentFailed,
		DeployedPolicies: domain.PolicyDeploymentRecord{},
	}

	if !opts.SkipPrerequisites {
		c.reporter.Phase(ctx, "Validating prerequisites")
		results := c.validator.ValidateAll(ctx)
		c.reporter.ValidationResults(ctx, results)
		if !c.validator.IsReady(results) {
			return c.fail(ctx, &result, "prerequisites", prereqFailure(results))
		}
		c.state.PrerequisitesValidated = true
		result.StepsCompleted = append(result.StepsCompleted, StepPrerequisites)
	}

	c.reporter.Phase(ctx, "Building landing zone manifest")
	m, err := c.builder.Build(ctx)
	if err != nil {
		return c.fail(ctx, &result, "manifest", err)
	}
	c.state.ManifestGenerated = true
	result.StepsCompleted = append(result.StepsCompleted, StepManifest)

	c.reporter.Phase(ctx, "Provisioning landing zone")
	handle, err := c.provisioner.SubmitCreate(ctx, m, c.cfg.LandingZone.Version, map[string]string{
		"CreatedBy":   "landing-zone-baseline",
		"Environment": "Production",
	})
	if err != nil {
		return c.fail(ctx, &result, "provisioning", err)
	}
	result.OperationID = handle.OperationID

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(c.cfg.LandingZone.TimeoutMinutes) * time.Minute
	}
	if _, err := c.provisioner.WaitForCompletion(ctx, handle, timeout); err != nil {
		return c.fail(ctx, &result, "provisioning", err)
	}

	// The authoritative identifier comes from querying the created
	// resource; it cannot be derived from the operation id.
	resourceID, err := c.provisioner.ResolveLandingZoneID(ctx)
	if err != nil {
		return c.fail(ctx, &result, "provisioning", err)
	}
	c.state.LandingZoneDeployed = true
	c.state.ResourceIdentifier = resourceID
	result.ResourceIdentifier = resourceID
	result.StepsCompleted = append(result.StepsCompleted, StepProvisioning)

	if !opts.SkipPolicyDeployment {
		c.reporter.Phase(ctx, "Deploying guardrail policies")
		targetIDs, err := c.targets.ResolveOUNames(ctx, c.cfg.PolicyTargetOUNames())
		if err != nil {
			return c.fail(ctx, &result, "policies", err)
		}
		if len(targetIDs) == 0 {
			c.logger.Warnf(ctx, "No target scopes resolved for policy deployment, skipping")
			result.Warnings = append(result.Warnings, "no target scopes resolved; guardrail policies were not deployed")
		} else {
			record, err := c.deployer.DeployTier(ctx, c.cfg.Policy.Tier, targetIDs)
			for name, id := range record {
				result.DeployedPolicies[name] = id
			}
			if err != nil {
				return c.fail(ctx, &result, "policies", err)
			}
			c.state.PoliciesDeployed = true
			result.StepsCompleted = append(result.StepsCompleted, StepPolicies)
		}
	}

	c.reporter.Phase(ctx, "Validating deployment")
	details, err := c.provisioner.GetDetails(ctx, resourceID)
	if err != nil {
		return c.fail(ctx, &result, "validation", err)
	}
	if details.Status != domain.LandingZoneActive {
		return c.fail(ctx, &result, "validation", apperrors.Newf(apperrors.CodeOrchestration,
			"landing zone is not active, status: %s", details.Status))
	}
	if details.DriftStatus == domain.DriftDrifted {
		c.logger.Warnf(ctx, "Landing zone has configuration drift")
		result.Warnings = append(result.Warnings, "landing zone configuration has drifted from its manifest")
	}
	c.state.DeploymentValidated = true
	result.StepsCompleted = append(result.StepsCompleted, StepValidation)

	if details.Manifest != nil {
		if auditID := details.Manifest.AuditAccountID(); auditID != "" {
			c.state.AuditAccountID = auditID
			c.logger.Infof(ctx, "Audit account ID captured: %s", auditID)
		} else {
			result.Warnings = append(result.Warnings, "could not extract the audit account ID from the landing zone manifest")
		}
	} else {
		result.Warnings = append(result.Warnings, "landing zone details did not include a readable manifest")
	}

	result.Status = domain.DeploymentSucceeded
	c.reporter.DeploymentResult(ctx, result)
	return result, nil
}

func (c *Controller) fail(ctx context.Context, result *domain.DeploymentResult, phase string, cause error) (domain.DeploymentResult, error) {
	result.Errors = append(result.Errors, cause.Error())
	c.logger.Errorf(ctx, cause, "Deployment orchestration failed during %s phase", phase)

	if c.state.LandingZoneDeployed {
		c.reporter.RollbackGuidance(ctx, c.rollbackGuidance(*result))
	}
	c.reporter.DeploymentResult(ctx, *result)

	return *result, apperrors.WrapUserFacing(cause, apperrors.CodeOrchestration,
		fmt.Sprintf("deployment orchestration failed during %s phase: %v", phase, cause),
		"Review the rollback guidance above before retrying; remote resources are never removed automatically.")
}

func (c *Controller) rollbackGuidance(result domain.DeploymentResult) domain.RollbackGuidance {
	guidance := domain.RollbackGuidance{
		OperationID:        result.OperationID,
		ResourceIdentifier: result.ResourceIdentifier,
	}
	for name := range result.DeployedPolicies {
		guidance.DeployedPolicies = append(guidance.DeployedPolicies, name)
	}

	if result.OperationID != "" {
		guidance.Steps = append(guidance.Steps, fmt.Sprintf(
			"Monitor the operation: aws controltower get-landing-zone-operation --operation-identifier %s", result.OperationID))
	}
	if result.ResourceIdentifier != "" {
		guidance.Steps = append(guidance.Steps, fmt.Sprintf(
			"If needed, delete the landing zone: aws controltower delete-landing-zone --landing-zone-identifier %s", result.ResourceIdentifier))
	}
	if len(guidance.DeployedPolicies) > 0 {
		guidance.Steps = append(guidance.Steps, fmt.Sprintf(
			"Clean up deployed policies with: lz-baseline cleanup --prefix %s", strings.Join(guidance.DeployedPolicies, ", ")))
	}
	guidance.Steps = append(guidance.Steps,
		"Review CloudTrail logs for detailed error information",
		"Re-run 'lz-baseline validate' before retrying the deployment",
	)
	return guidance
}

func prereqFailure(results []domain.ValidationResult) error {
	var messages []string
	for _, r := range results {
		if r.Status == domain.StatusFailed {
			messages = append(messages, fmt.Sprintf("- %s: %s", r.CheckName, r.Message))
		}
	}
	return apperrors.NewUserFacing(apperrors.CodePrereqFailed,
		"prerequisites validation failed:\n"+strings.Join(messages, "\n"),
		"Address the failed checks using the remediation steps, then re-run validation.")
}
