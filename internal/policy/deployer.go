package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"

	"github.com/olusolaa/landing-zone-baseline/internal/adapters/platform/aws/awserrors"
	"github.com/olusolaa/landing-zone-baseline/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

// OrganizationsPolicyAPI is the slice of the Organizations service the
// deployer needs. *organizations.Client satisfies it.
type OrganizationsPolicyAPI interface {
	organizations.ListPoliciesAPIClient
	organizations.ListTargetsForPolicyAPIClient
	CreatePolicy(ctx context.Context, params *organizations.CreatePolicyInput, optFns ...func(*organizations.Options)) (*organizations.CreatePolicyOutput, error)
	UpdatePolicy(ctx context.Context, params *organizations.UpdatePolicyInput, optFns ...func(*organizations.Options)) (*organizations.UpdatePolicyOutput, error)
	DeletePolicy(ctx context.Context, params *organizations.DeletePolicyInput, optFns ...func(*organizations.Options)) (*organizations.DeletePolicyOutput, error)
	AttachPolicy(ctx context.Context, params *organizations.AttachPolicyInput, optFns ...func(*organizations.Options)) (*organizations.AttachPolicyOutput, error)
	DetachPolicy(ctx context.Context, params *organizations.DetachPolicyInput, optFns ...func(*organizations.Options)) (*organizations.DetachPolicyOutput, error)
}

type existingPolicy struct {
	id         string
	awsManaged bool
}

type Deployer struct {
	client  OrganizationsPolicyAPI
	limiter *limiter.Limiter
	logger  ports.Logger
}

func NewDeployer(client OrganizationsPolicyAPI, logger ports.Logger) *Deployer {
	return &Deployer{
		client:  client,
		limiter: limiter.New(0),
		logger:  logger,
	}
}

// DeployTier creates or updates every policy in the named tier and attaches
// each to every target scope. Duplicate attachment is success; a
// not-attachable rejection fails that policy only. An empty target set is a
// no-op returning an empty record.
func (d *Deployer) DeployTier(ctx context.Context, tierName string, targetScopeIDs []string) (domain.PolicyDeploymentRecord, error) {
	tier, err := Tier(tierName)
	if err != nil {
		return nil, err
	}

	record := domain.PolicyDeploymentRecord{}
	if len(targetScopeIDs) == 0 {
		d.logger.Infof(ctx, "No target scopes for policy tier %q, nothing to do", tierName)
		return record, nil
	}

	// All documents must be valid before any remote mutation.
	for _, tp := range tier.Policies {
		if err := tp.Document.Validate(tp.Name); err != nil {
			return nil, err
		}
	}

	existing, err := d.listExisting(ctx)
	if err != nil {
		return nil, err
	}

	var failed []string
	for _, tp := range tier.Policies {
		remoteName := RemotePolicyName(tierName, tp.Name)

		policyID, err := d.createOrUpdate(ctx, remoteName, tp, existing)
		if err != nil {
			d.logger.Errorf(ctx, err, "Failed to create or update policy %s", remoteName)
			failed = append(failed, remoteName)
			continue
		}
		record[remoteName] = policyID

		for _, targetID := range targetScopeIDs {
			if err := d.attach(ctx, policyID, targetID); err != nil {
				d.logger.Errorf(ctx, err, "Failed to attach policy %s to %s", remoteName, targetID)
				failed = append(failed, remoteName)
				break
			}
		}
	}

	if len(failed) > 0 {
		return record, apperrors.NewUserFacing(apperrors.CodePolicyAttach,
			fmt.Sprintf("policy deployment incomplete, failed policies: %s", strings.Join(failed, ", ")),
			"Inspect the failed policies in the Organizations console, then re-run the tier deployment; successful policies are updated in place.")
	}

	d.logger.Infof(ctx, "Deployed %s policy tier (%d policies, %d targets)", tierName, len(record), len(targetScopeIDs))
	return record, nil
}

// Cleanup detaches and deletes every policy carrying the prefix. Vendor
// managed policies are never touched. Individual detach or delete failures
// are logged and skipped; the returned count covers successful removals.
func (d *Deployer) Cleanup(ctx context.Context, namePrefix string) (int, error) {
	if namePrefix == "" {
		return 0, apperrors.New(apperrors.CodePolicyCleanup, "cleanup requires a non-empty name prefix")
	}

	removed := 0
	paginator := organizations.NewListPoliciesPaginator(d.client, &organizations.ListPoliciesInput{
		Filter: orgtypes.PolicyTypeServiceControlPolicy,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return removed, awserrors.Classify(ctx, err, "listing policies for cleanup")
		}
		for _, summary := range page.Policies {
			name := aws.ToString(summary.Name)
			if !strings.HasPrefix(name, namePrefix) || summary.AwsManaged {
				continue
			}

			d.detachFromAllTargets(ctx, aws.ToString(summary.Id))

			if err := d.limiter.Wait(ctx); err != nil {
				return removed, apperrors.Wrap(err, apperrors.CodeInterrupted, "cleanup interrupted")
			}
			if _, err := d.client.DeletePolicy(ctx, &organizations.DeletePolicyInput{
				PolicyId: summary.Id,
			}); err != nil {
				d.logger.Warnf(ctx, "Failed to delete policy %s, skipping: %s", name, awserrors.RemoteMessage(err))
				continue
			}
			removed++
			d.logger.Infof(ctx, "Cleaned up policy: %s", name)
		}
	}
	return removed, nil
}

func (d *Deployer) listExisting(ctx context.Context) (map[string]existingPolicy, error) {
	existing := make(map[string]existingPolicy)
	paginator := organizations.NewListPoliciesPaginator(d.client, &organizations.ListPoliciesInput{
		Filter: orgtypes.PolicyTypeServiceControlPolicy,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserrors.Classify(ctx, err, "listing existing policies")
		}
		for _, summary := range page.Policies {
			existing[aws.ToString(summary.Name)] = existingPolicy{
				id:         aws.ToString(summary.Id),
				awsManaged: summary.AwsManaged,
			}
		}
	}
	return existing, nil
}

func (d *Deployer) createOrUpdate(ctx context.Context, remoteName string, tp domain.TierPolicy, existing map[string]existingPolicy) (string, error) {
	content, err := tp.Document.JSON()
	if err != nil {
		return "", err
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInterrupted, "policy deployment interrupted")
	}

	if current, ok := existing[remoteName]; ok {
		out, err := d.client.UpdatePolicy(ctx, &organizations.UpdatePolicyInput{
			PolicyId:    aws.String(current.id),
			Name:        aws.String(remoteName),
			Description: aws.String(tp.Description),
			Content:     aws.String(string(content)),
		})
		if err != nil {
			return "", d.classifyWriteError(err, remoteName)
		}
		return aws.ToString(out.Policy.PolicySummary.Id), nil
	}

	out, err := d.client.CreatePolicy(ctx, &organizations.CreatePolicyInput{
		Name:        aws.String(remoteName),
		Description: aws.String(tp.Description),
		Type:        orgtypes.PolicyTypeServiceControlPolicy,
		Content:     aws.String(string(content)),
	})
	if err != nil {
		return "", d.classifyWriteError(err, remoteName)
	}
	return aws.ToString(out.Policy.PolicySummary.Id), nil
}

func (d *Deployer) classifyWriteError(err error, remoteName string) error {
	switch awserrors.ErrorCode(err) {
	case awserrors.CodePolicyInUse:
		return apperrors.Wrap(err, apperrors.CodePolicyCreate,
			fmt.Sprintf("policy is in use and cannot be updated: %s", remoteName))
	case awserrors.CodeDuplicatePolicy:
		return apperrors.Wrap(err, apperrors.CodePolicyCreate,
			fmt.Sprintf("a policy with the same name already exists: %s", remoteName))
	}
	return apperrors.Wrap(err, apperrors.CodePolicyCreate,
		fmt.Sprintf("failed to create or update policy %s: %s", remoteName, awserrors.RemoteMessage(err)))
}

func (d *Deployer) attach(ctx context.Context, policyID, targetID string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInterrupted, "policy attachment interrupted")
	}

	_, err := d.client.AttachPolicy(ctx, &organizations.AttachPolicyInput{
		PolicyId: aws.String(policyID),
		TargetId: aws.String(targetID),
	})
	if err != nil {
		switch awserrors.ErrorCode(err) {
		case awserrors.CodeDuplicatePolicyAttachment:
			// Already attached: the desired state holds.
			return nil
		case awserrors.CodePolicyNotAttachable:
			return apperrors.Wrap(err, apperrors.CodePolicyAttach,
				fmt.Sprintf("policy cannot be attached to %s: %s", targetID, awserrors.RemoteMessage(err)))
		}
		return apperrors.Wrap(err, apperrors.CodePolicyAttach,
			fmt.Sprintf("failed to attach policy to %s: %s", targetID, awserrors.RemoteMessage(err)))
	}
	return nil
}

func (d *Deployer) detachFromAllTargets(ctx context.Context, policyID string) {
	paginator := organizations.NewListTargetsForPolicyPaginator(d.client, &organizations.ListTargetsForPolicyInput{
		PolicyId: aws.String(policyID),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			d.logger.Warnf(ctx, "Failed to list targets for policy %s: %s", policyID, awserrors.RemoteMessage(err))
			return
		}
		for _, target := range page.Targets {
			if err := d.limiter.Wait(ctx); err != nil {
				return
			}
			if _, err := d.client.DetachPolicy(ctx, &organizations.DetachPolicyInput{
				PolicyId: aws.String(policyID),
				TargetId: target.TargetId,
			}); err != nil {
				d.logger.Warnf(ctx, "Failed to detach policy %s from target %s, skipping: %s",
					policyID, aws.ToString(target.TargetId), awserrors.RemoteMessage(err))
			}
		}
	}
}
