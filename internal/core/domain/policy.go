package domain

import apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"

// MaxPolicyDocumentBytes is the remote service's bound on a serialized
// policy document.
const MaxPolicyDocumentBytes = 5120

// PolicyDocument is a guardrail policy in the service's native document
// shape.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

type PolicyStatement struct {
	Sid       string                    `json:"Sid,omitempty"`
	Effect    string                    `json:"Effect"`
	Action    []string                  `json:"Action,omitempty"`
	NotAction []string                  `json:"NotAction,omitempty"`
	Resource  []string                  `json:"Resource"`
	Condition map[string]map[string]any `json:"Condition,omitempty"`
}

// TierPolicy is one named policy inside a tier bundle.
type TierPolicy struct {
	Name        string
	Description string
	Document    PolicyDocument
}

// PolicyTier is a named, statically defined bundle of guardrail policies.
// Tiers are immutable reference data compiled into the binary, not built at
// runtime.
type PolicyTier struct {
	Name        string
	Description string
	Policies    []TierPolicy
}

// PolicyDeploymentRecord maps generated remote policy names to their remote
// identifiers, accumulated during one deployer run.
type PolicyDeploymentRecord map[string]string

// JSON renders the document for submission.
func (d *PolicyDocument) JSON() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to serialize policy document")
	}
	return data, nil
}

// Validate enforces document shape and the serialized size bound before any
// remote mutation.
func (d *PolicyDocument) Validate(policyName string) error {
	if d.Version == "" {
		return apperrors.Newf(apperrors.CodePolicyValidation, "policy document missing 'Version' field for policy: %s", policyName)
	}
	if len(d.Statement) == 0 {
		return apperrors.Newf(apperrors.CodePolicyValidation, "policy document has no statements for policy: %s", policyName)
	}
	data, err := d.JSON()
	if err != nil {
		return err
	}
	if len(data) > MaxPolicyDocumentBytes {
		return apperrors.Newf(apperrors.CodePolicyValidation,
			"policy document too large (%d bytes, limit %d) for policy: %s", len(data), MaxPolicyDocumentBytes, policyName)
	}
	return nil
}
