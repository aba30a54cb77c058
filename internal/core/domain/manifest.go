package domain

import (
	"fmt"
	"regexp"

	jsoniter "github.com/json-iterator/go"

	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SecurityUnitKey is the organization-structure entry every manifest must
// contain.
const SecurityUnitKey = "security"

var (
	accountIDPattern = regexp.MustCompile(`^\d{12}$`)
	regionPattern    = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d$`)
)

// Manifest is the declarative target state submitted to the landing zone
// service. It is built fresh per deployment attempt and never persisted;
// once accepted, the remote service is the source of truth.
type Manifest struct {
	GovernedRegions       []string                      `json:"governedRegions"`
	OrganizationStructure map[string]OrganizationalUnit `json:"organizationStructure"`
	CentralizedLogging    CentralizedLogging            `json:"centralizedLogging"`
	SecurityRoles         SecurityRoles                 `json:"securityRoles"`
	AccessManagement      *AccessManagement             `json:"accessManagement,omitempty"`
}

type OrganizationalUnit struct {
	Name string `json:"name"`
}

type CentralizedLogging struct {
	AccountID      string                 `json:"accountId"`
	Enabled        bool                   `json:"enabled"`
	Configurations *LoggingConfigurations `json:"configurations,omitempty"`
}

type LoggingConfigurations struct {
	LoggingBucket       *BucketRetention `json:"loggingBucket,omitempty"`
	AccessLoggingBucket *BucketRetention `json:"accessLoggingBucket,omitempty"`
	KMSKeyARN           string           `json:"kmsKeyArn,omitempty"`
}

type BucketRetention struct {
	RetentionDays int `json:"retentionDays"`
}

type SecurityRoles struct {
	AccountID string `json:"accountId"`
}

type AccessManagement struct {
	Enabled bool `json:"enabled"`
}

// Validate checks every structural invariant locally. It runs before any
// network call so bad input is rejected cheaply.
func (m *Manifest) Validate() error {
	if len(m.GovernedRegions) == 0 {
		return apperrors.New(apperrors.CodeManifestValidation, "governedRegions cannot be empty")
	}
	for _, region := range m.GovernedRegions {
		if !regionPattern.MatchString(region) {
			return apperrors.Newf(apperrors.CodeManifestValidation, "invalid region format: %q", region)
		}
	}

	if len(m.OrganizationStructure) == 0 {
		return apperrors.New(apperrors.CodeManifestValidation, "missing required field: organizationStructure")
	}
	security, ok := m.OrganizationStructure[SecurityUnitKey]
	if !ok {
		return apperrors.New(apperrors.CodeManifestValidation, "organizationStructure must contain a 'security' unit")
	}
	if security.Name == "" {
		return apperrors.New(apperrors.CodeManifestValidation, "security unit must have a 'name' field")
	}

	if m.CentralizedLogging.AccountID == "" {
		return apperrors.New(apperrors.CodeManifestValidation, "missing required field: centralizedLogging.accountId")
	}
	if !accountIDPattern.MatchString(m.CentralizedLogging.AccountID) {
		return apperrors.Newf(apperrors.CodeManifestValidation, "invalid account ID format in centralizedLogging: %q", m.CentralizedLogging.AccountID)
	}

	if m.SecurityRoles.AccountID == "" {
		return apperrors.New(apperrors.CodeManifestValidation, "missing required field: securityRoles.accountId")
	}
	if !accountIDPattern.MatchString(m.SecurityRoles.AccountID) {
		return apperrors.Newf(apperrors.CodeManifestValidation, "invalid account ID format in securityRoles: %q", m.SecurityRoles.AccountID)
	}

	if m.CentralizedLogging.AccountID == m.SecurityRoles.AccountID {
		return apperrors.New(apperrors.CodeManifestValidation,
			"centralizedLogging and securityRoles must use distinct account IDs")
	}

	return nil
}

// JSON renders the manifest. Map keys are sorted, so the output is
// byte-identical for equal manifests.
func (m *Manifest) JSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to serialize manifest")
	}
	return data, nil
}

// AuditAccountID returns the designated audit account from the security
// roles block, or empty when the block does not carry a well-formed ID.
func (m *Manifest) AuditAccountID() string {
	if accountIDPattern.MatchString(m.SecurityRoles.AccountID) {
		return m.SecurityRoles.AccountID
	}
	return ""
}

func ValidAccountID(id string) bool {
	return accountIDPattern.MatchString(id)
}

// ManifestFromDocument rebuilds a Manifest from the loosely-typed document
// the remote service returns on detail lookups.
func ManifestFromDocument(doc map[string]any) (*Manifest, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to re-serialize remote manifest document")
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, fmt.Sprintf("failed to decode remote manifest document: %v", err))
	}
	return &m, nil
}
