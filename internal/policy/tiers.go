// Package policy deploys tiered guardrail policy bundles to organizational
// scopes. Tier definitions are immutable reference data compiled into the
// binary.
package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

// ProductPrefix namespaces every policy this tool manages. Cleanup matches
// on it and refuses to touch anything else.
const ProductPrefix = "Baseline"

const policyDocumentVersion = "2012-10-17"

var denyRootAccess = domain.TierPolicy{
	Name:        "DenyRootAccess",
	Description: "Deny all actions performed by the root user",
	Document: domain.PolicyDocument{
		Version: policyDocumentVersion,
		Statement: []domain.PolicyStatement{{
			Sid:      "DenyRootUser",
			Effect:   "Deny",
			Action:   []string{"*"},
			Resource: []string{"*"},
			Condition: map[string]map[string]any{
				"StringLike": {"aws:PrincipalArn": "arn:aws:iam::*:root"},
			},
		}},
	},
}

var requireMFA = domain.TierPolicy{
	Name:        "RequireMFA",
	Description: "Deny sensitive IAM mutations without multi-factor authentication",
	Document: domain.PolicyDocument{
		Version: policyDocumentVersion,
		Statement: []domain.PolicyStatement{{
			Sid:    "DenyIAMWithoutMFA",
			Effect: "Deny",
			Action: []string{
				"iam:CreateUser",
				"iam:DeleteUser",
				"iam:CreateAccessKey",
				"iam:DeleteAccessKey",
				"iam:AttachUserPolicy",
				"iam:DetachUserPolicy",
			},
			Resource: []string{"*"},
			Condition: map[string]map[string]any{
				"BoolIfExists": {"aws:MultiFactorAuthPresent": "false"},
			},
		}},
	},
}

var restrictRegions = domain.TierPolicy{
	Name:        "RestrictRegions",
	Description: "Deny regional API activity outside the governed regions",
	Document: domain.PolicyDocument{
		Version: policyDocumentVersion,
		Statement: []domain.PolicyStatement{{
			Sid:    "DenyOutsideGovernedRegions",
			Effect: "Deny",
			NotAction: []string{
				"iam:*",
				"organizations:*",
				"route53:*",
				"cloudfront:*",
				"sts:*",
				"support:*",
			},
			Resource: []string{"*"},
			Condition: map[string]map[string]any{
				"StringNotEquals": {"aws:RequestedRegion": []string{"us-east-1", "us-west-2", "eu-west-1"}},
			},
		}},
	},
}

var denyLeaveOrganization = domain.TierPolicy{
	Name:        "DenyLeaveOrganization",
	Description: "Prevent member accounts from leaving the organization",
	Document: domain.PolicyDocument{
		Version: policyDocumentVersion,
		Statement: []domain.PolicyStatement{{
			Sid:      "DenyLeaveOrg",
			Effect:   "Deny",
			Action:   []string{"organizations:LeaveOrganization"},
			Resource: []string{"*"},
		}},
	},
}

var restrictInstanceTypes = domain.TierPolicy{
	Name:        "RestrictInstanceTypes",
	Description: "Allow only approved compute instance families",
	Document: domain.PolicyDocument{
		Version: policyDocumentVersion,
		Statement: []domain.PolicyStatement{{
			Sid:      "DenyUnapprovedInstanceTypes",
			Effect:   "Deny",
			Action:   []string{"ec2:RunInstances"},
			Resource: []string{"arn:aws:ec2:*:*:instance/*"},
			Condition: map[string]map[string]any{
				"StringNotLike": {"ec2:InstanceType": []string{"t3.*", "t4g.*", "m5.*", "m6i.*"}},
			},
		}},
	},
}

var requireEBSEncryption = domain.TierPolicy{
	Name:        "RequireEBSEncryption",
	Description: "Deny creation of unencrypted block storage volumes",
	Document: domain.PolicyDocument{
		Version: policyDocumentVersion,
		Statement: []domain.PolicyStatement{{
			Sid:      "DenyUnencryptedVolumes",
			Effect:   "Deny",
			Action:   []string{"ec2:CreateVolume"},
			Resource: []string{"*"},
			Condition: map[string]map[string]any{
				"Bool": {"ec2:Encrypted": "false"},
			},
		}},
	},
}

var tiers = map[string]domain.PolicyTier{
	"basic": {
		Name:        "basic",
		Description: "Basic security tier - minimal restrictions for development",
		Policies:    []domain.TierPolicy{denyRootAccess, requireMFA},
	},
	"standard": {
		Name:        "standard",
		Description: "Standard security tier - balanced security for production",
		Policies:    []domain.TierPolicy{denyRootAccess, requireMFA, restrictRegions, denyLeaveOrganization},
	},
	"strict": {
		Name:        "strict",
		Description: "Strict security tier - maximum security for compliance",
		Policies: []domain.TierPolicy{
			denyRootAccess, requireMFA, restrictRegions, denyLeaveOrganization,
			restrictInstanceTypes, requireEBSEncryption,
		},
	},
}

// Tier returns the named tier definition. Unknown names are rejected before
// any remote interaction.
func Tier(name string) (domain.PolicyTier, error) {
	tier, ok := tiers[name]
	if !ok {
		return domain.PolicyTier{}, apperrors.NewUserFacing(apperrors.CodePolicyValidation,
			fmt.Sprintf("invalid policy tier: %q", name),
			fmt.Sprintf("Valid tiers: %s", strings.Join(TierNames(), ", ")))
	}
	return tier, nil
}

func TierNames() []string {
	names := make([]string, 0, len(tiers))
	for name := range tiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemotePolicyName builds the generated remote name for a tier policy:
// "<prefix>-<TierTitleCase>-<policyName>".
func RemotePolicyName(tierName, policyName string) string {
	return fmt.Sprintf("%s-%s-%s", ProductPrefix, titleCase(tierName), policyName)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
