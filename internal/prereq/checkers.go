package prereq

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/controltower"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/landing-zone-baseline/internal/adapters/platform/aws/awserrors"
	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
)

// Narrow client slices so tests can fake each service call.

type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type OrganizationsAPI interface {
	organizations.ListAccountsAPIClient
	organizations.ListOrganizationalUnitsForParentAPIClient
	DescribeOrganization(ctx context.Context, params *organizations.DescribeOrganizationInput, optFns ...func(*organizations.Options)) (*organizations.DescribeOrganizationOutput, error)
	ListRoots(ctx context.Context, params *organizations.ListRootsInput, optFns ...func(*organizations.Options)) (*organizations.ListRootsOutput, error)
}

type IAMAPI interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
}

type ControlTowerAPI interface {
	ListLandingZones(ctx context.Context, params *controltower.ListLandingZonesInput, optFns ...func(*controltower.Options)) (*controltower.ListLandingZonesOutput, error)
}

// CredentialsChecker verifies the caller has working credentials.
type CredentialsChecker struct {
	Client STSAPI
	Region string
}

func (c *CredentialsChecker) Name() string { return CheckCredentials }

func (c *CredentialsChecker) Check(ctx context.Context) domain.ValidationResult {
	identity, err := c.Client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusFailed,
			Message:   fmt.Sprintf("credential validation failed: %s", awserrors.RemoteMessage(err)),
			RemediationSteps: []string{
				"Configure AWS credentials using one of these methods:",
				"1. AWS CLI: run 'aws configure'",
				"2. Environment variables: set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY",
				"3. AWS profiles: set AWS_PROFILE or the aws.profile config key",
				"Verify IAM permission for sts:GetCallerIdentity",
			},
		}
	}
	return domain.ValidationResult{
		CheckName: c.Name(),
		Status:    domain.StatusPassed,
		Message:   fmt.Sprintf("AWS credentials valid for account %s in region %s", aws.ToString(identity.Account), c.Region),
		Details: map[string]any{
			"account_id": aws.ToString(identity.Account),
			"caller_arn": aws.ToString(identity.Arn),
			"region":     c.Region,
		},
	}
}

// OrganizationChecker verifies an organization exists with all features
// enabled and that the caller is its management account.
type OrganizationChecker struct {
	Client OrganizationsAPI
	STS    STSAPI
}

func (c *OrganizationChecker) Name() string { return CheckOrganization }

func (c *OrganizationChecker) Check(ctx context.Context) domain.ValidationResult {
	out, err := c.Client.DescribeOrganization(ctx, &organizations.DescribeOrganizationInput{})
	if err != nil {
		switch awserrors.ErrorCode(err) {
		case awserrors.CodeOrganizationsNotInUse:
			return domain.ValidationResult{
				CheckName: c.Name(),
				Status:    domain.StatusFailed,
				Message:   "AWS Organizations is not enabled for this account",
				RemediationSteps: []string{
					"Create an organization from the AWS Organizations console",
					"Choose 'Enable all features' (required for landing zone provisioning)",
				},
			}
		case awserrors.CodeAccessDeniedException, "AccessDenied":
			return domain.ValidationResult{
				CheckName: c.Name(),
				Status:    domain.StatusFailed,
				Message:   "insufficient permissions to access AWS Organizations",
				RemediationSteps: []string{
					"Grant organizations:DescribeOrganization, organizations:ListAccounts, organizations:ListRoots",
				},
			}
		}
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusFailed,
			Message:   fmt.Sprintf("organization lookup failed: %s", awserrors.RemoteMessage(err)),
			RemediationSteps: []string{
				"Check AWS Organizations service status",
				"Verify IAM permissions for Organizations access",
			},
		}
	}

	org := out.Organization
	if org.FeatureSet != orgtypes.OrganizationFeatureSetAll {
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusFailed,
			Message:   "AWS Organizations does not have all features enabled",
			RemediationSteps: []string{
				"Enable all features: Organizations console > Settings > 'Enable all features'",
				"Note: this change cannot be undone",
			},
		}
	}

	identity, err := c.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusFailed,
			Message:   fmt.Sprintf("could not resolve caller account: %s", awserrors.RemoteMessage(err)),
		}
	}
	if aws.ToString(org.MasterAccountId) != aws.ToString(identity.Account) {
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusFailed,
			Message:   "provisioning must run from the organization's management account",
			RemediationSteps: []string{
				fmt.Sprintf("Switch to the management account: %s", aws.ToString(org.MasterAccountId)),
			},
		}
	}

	return domain.ValidationResult{
		CheckName: c.Name(),
		Status:    domain.StatusPassed,
		Message:   "AWS Organizations is properly configured with all features enabled",
		Details: map[string]any{
			"organization_id":       aws.ToString(org.Id),
			"management_account_id": aws.ToString(org.MasterAccountId),
			"feature_set":           string(org.FeatureSet),
		},
	}
}

// OrganizationalUnitsChecker verifies the required OUs exist under the
// organization root.
type OrganizationalUnitsChecker struct {
	Client      OrganizationsAPI
	RequiredOUs []string
}

func (c *OrganizationalUnitsChecker) Name() string { return CheckOrganizationalUnits }

func (c *OrganizationalUnitsChecker) Check(ctx context.Context) domain.ValidationResult {
	roots, err := c.Client.ListRoots(ctx, &organizations.ListRootsInput{})
	if err != nil || len(roots.Roots) == 0 {
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusFailed,
			Message:   fmt.Sprintf("could not list organization roots: %s", awserrors.RemoteMessage(err)),
			RemediationSteps: []string{
				"Grant organizations:ListRoots and organizations:ListOrganizationalUnitsForParent",
			},
		}
	}
	rootID := aws.ToString(roots.Roots[0].Id)

	existing := make(map[string]string)
	paginator := organizations.NewListOrganizationalUnitsForParentPaginator(c.Client,
		&organizations.ListOrganizationalUnitsForParentInput{ParentId: aws.String(rootID)})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.ValidationResult{
				CheckName: c.Name(),
				Status:    domain.StatusFailed,
				Message:   fmt.Sprintf("could not list organizational units: %s", awserrors.RemoteMessage(err)),
			}
		}
		for _, ou := range page.OrganizationalUnits {
			existing[strings.ToLower(aws.ToString(ou.Name))] = aws.ToString(ou.Id)
		}
	}

	var missing []string
	found := map[string]any{}
	for _, name := range c.RequiredOUs {
		if id, ok := existing[strings.ToLower(name)]; ok {
			found[name] = id
		} else {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		steps := make([]string, 0, len(missing))
		for _, name := range missing {
			steps = append(steps, fmt.Sprintf("Create the %q organizational unit under the organization root", name))
		}
		return domain.ValidationResult{
			CheckName:        c.Name(),
			Status:           domain.StatusFailed,
			Message:          fmt.Sprintf("required organizational units missing: %s", strings.Join(missing, ", ")),
			RemediationSteps: steps,
			Details:          map[string]any{"root_id": rootID, "found": found},
		}
	}

	return domain.ValidationResult{
		CheckName: c.Name(),
		Status:    domain.StatusPassed,
		Message:   "required organizational units are present",
		Details:   map[string]any{"root_id": rootID, "found": found},
	}
}

// MemberAccountsChecker verifies the configured log-archive and audit
// accounts exist in the organization.
type MemberAccountsChecker struct {
	Client       OrganizationsAPI
	AccountNames []string
}

func (c *MemberAccountsChecker) Name() string { return CheckMemberAccounts }

func (c *MemberAccountsChecker) Check(ctx context.Context) domain.ValidationResult {
	wanted := make(map[string]bool, len(c.AccountNames))
	for _, name := range c.AccountNames {
		wanted[strings.ToLower(name)] = false
	}
	inactive := []string{}

	paginator := organizations.NewListAccountsPaginator(c.Client, &organizations.ListAccountsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.ValidationResult{
				CheckName: c.Name(),
				Status:    domain.StatusFailed,
				Message:   fmt.Sprintf("could not list member accounts: %s", awserrors.RemoteMessage(err)),
				RemediationSteps: []string{
					"Grant organizations:ListAccounts on the management account",
				},
			}
		}
		for _, account := range page.Accounts {
			key := strings.ToLower(aws.ToString(account.Name))
			if _, ok := wanted[key]; !ok {
				continue
			}
			wanted[key] = true
			if account.Status != orgtypes.AccountStatusActive {
				inactive = append(inactive, aws.ToString(account.Name))
			}
		}
	}

	var missing []string
	for _, name := range c.AccountNames {
		if !wanted[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusFailed,
			Message:   fmt.Sprintf("required member accounts missing: %s", strings.Join(missing, ", ")),
			RemediationSteps: []string{
				"Create the missing accounts via Organizations, or correct the configured names",
				"Dedicated log-archive and audit accounts are required before provisioning",
			},
			Details: map[string]any{"missing_accounts": missing},
		}
	}
	if len(inactive) > 0 {
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusWarning,
			Message:   fmt.Sprintf("accounts exist but are not active: %s", strings.Join(inactive, ", ")),
			RemediationSteps: []string{
				"Check the account status in the Organizations console before provisioning",
			},
		}
	}

	return domain.ValidationResult{
		CheckName: c.Name(),
		Status:    domain.StatusPassed,
		Message:   "required member accounts are present and active",
	}
}

// ExecutionRolesChecker looks for the service execution roles. Missing roles
// are only a warning: the provisioning service creates them itself.
type ExecutionRolesChecker struct {
	Client    IAMAPI
	RoleNames []string
}

func DefaultExecutionRoles() []string {
	return []string{
		"AWSControlTowerAdmin",
		"AWSControlTowerCloudTrailRole",
		"AWSControlTowerStackSetRole",
	}
}

func (c *ExecutionRolesChecker) Name() string { return CheckExecutionRoles }

func (c *ExecutionRolesChecker) Check(ctx context.Context) domain.ValidationResult {
	var missing, present []string
	for _, roleName := range c.RoleNames {
		_, err := c.Client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
		if err != nil {
			switch awserrors.ErrorCode(err) {
			case awserrors.CodeNoSuchEntity:
				missing = append(missing, roleName)
				continue
			case awserrors.CodeAccessDeniedException, "AccessDenied":
				return domain.ValidationResult{
					CheckName: c.Name(),
					Status:    domain.StatusFailed,
					Message:   "insufficient permissions to inspect IAM roles",
					RemediationSteps: []string{
						"Grant iam:GetRole on the management account",
					},
				}
			}
			return domain.ValidationResult{
				CheckName: c.Name(),
				Status:    domain.StatusFailed,
				Message:   fmt.Sprintf("role lookup failed for %s: %s", roleName, awserrors.RemoteMessage(err)),
			}
		}
		present = append(present, roleName)
	}

	if len(missing) > 0 {
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusWarning,
			Message:   "execution roles will be created automatically during provisioning",
			RemediationSteps: []string{
				"No action required; the service creates its execution roles on first deployment",
			},
			Details: map[string]any{"missing_roles": missing, "existing_roles": present},
		}
	}

	return domain.ValidationResult{
		CheckName: c.Name(),
		Status:    domain.StatusPassed,
		Message:   "all execution roles are present",
		Details:   map[string]any{"existing_roles": present},
	}
}

// ExistingLandingZoneChecker detects a conflicting deployment. An existing
// landing zone is a warning with remediation, not a hard failure.
type ExistingLandingZoneChecker struct {
	Client ControlTowerAPI
}

func (c *ExistingLandingZoneChecker) Name() string { return CheckExistingLandingZone }

func (c *ExistingLandingZoneChecker) Check(ctx context.Context) domain.ValidationResult {
	out, err := c.Client.ListLandingZones(ctx, &controltower.ListLandingZonesInput{})
	if err != nil {
		if code := awserrors.ErrorCode(err); code == awserrors.CodeAccessDeniedException || code == "AccessDenied" {
			return domain.ValidationResult{
				CheckName: c.Name(),
				Status:    domain.StatusFailed,
				Message:   "insufficient permissions to check for an existing landing zone",
				RemediationSteps: []string{
					"Grant controltower:ListLandingZones and controltower:GetLandingZone",
				},
			}
		}
		// The service may be unreachable in regions without a deployment;
		// treat that as no conflict.
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusPassed,
			Message:   "landing zone service accessible, no conflicting deployment detected",
		}
	}

	if len(out.LandingZones) > 0 {
		return domain.ValidationResult{
			CheckName: c.Name(),
			Status:    domain.StatusWarning,
			Message:   "a landing zone already exists in this organization",
			RemediationSteps: []string{
				"Modify the existing landing zone instead of provisioning a new one",
				"To redeploy, delete the existing landing zone first",
			},
			Details: map[string]any{"landing_zone_arn": aws.ToString(out.LandingZones[0].Arn)},
		}
	}

	return domain.ValidationResult{
		CheckName: c.Name(),
		Status:    domain.StatusPassed,
		Message:   "no existing landing zone found, ready for a new deployment",
	}
}
