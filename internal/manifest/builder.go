// Package manifest builds the declarative target-state document from
// resolved configuration. Building is a pure transformation plus a paginated
// account-name lookup; no remote state is changed here.
package manifest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/organizations"

	"github.com/olusolaa/landing-zone-baseline/internal/adapters/platform/aws/awserrors"
	"github.com/olusolaa/landing-zone-baseline/internal/config"
	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

// OrganizationsAPI is the slice of the Organizations service the builder
// needs. *organizations.Client satisfies it.
type OrganizationsAPI interface {
	organizations.ListAccountsAPIClient
}

type Builder struct {
	cfg    *config.Config
	client OrganizationsAPI
	logger ports.Logger
}

func NewBuilder(cfg *config.Config, client OrganizationsAPI, logger ports.Logger) *Builder {
	return &Builder{cfg: cfg, client: client, logger: logger}
}

// Build resolves account names to IDs, assembles the manifest, and runs the
// full structural validation. The output is deterministic for a fixed
// account-id resolution.
func (b *Builder) Build(ctx context.Context) (*domain.Manifest, error) {
	logName := b.cfg.Accounts.LogArchive.Name
	auditName := b.cfg.Accounts.Audit.Name

	accountIDs, err := b.ResolveAccountIDs(ctx, []string{logName, auditName})
	if err != nil {
		return nil, err
	}

	m := &domain.Manifest{
		GovernedRegions:       b.cfg.GovernedRegions(),
		OrganizationStructure: b.buildOrganizationStructure(),
		CentralizedLogging:    b.buildCentralizedLogging(accountIDs[strings.ToLower(logName)]),
		SecurityRoles:         domain.SecurityRoles{AccountID: accountIDs[strings.ToLower(auditName)]},
	}
	if b.cfg.IdentityCenter.Enabled {
		m.AccessManagement = &domain.AccessManagement{Enabled: true}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ResolveAccountIDs maps account names to 12-digit account IDs using a
// paginated listing with case-insensitive exact-name matching. All names
// must resolve or the call fails naming the missing accounts.
func (b *Builder) ResolveAccountIDs(ctx context.Context, names []string) (map[string]string, error) {
	wanted := make(map[string]string, len(names))
	for _, name := range names {
		wanted[strings.ToLower(name)] = name
	}
	resolved := make(map[string]string, len(names))

	paginator := organizations.NewListAccountsPaginator(b.client, &organizations.ListAccountsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserrors.Classify(ctx, err, "listing organization accounts")
		}
		for _, account := range page.Accounts {
			if account.Name == nil || account.Id == nil {
				continue
			}
			key := strings.ToLower(*account.Name)
			if _, ok := wanted[key]; ok {
				resolved[key] = *account.Id
			}
		}
	}

	var missing []string
	for key, original := range wanted {
		if _, ok := resolved[key]; !ok {
			missing = append(missing, original)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperrors.NewUserFacing(apperrors.CodeAccountResolution,
			fmt.Sprintf("could not find accounts: %s", strings.Join(missing, ", ")),
			"Create the missing member accounts or correct the configured account names.")
	}

	if b.logger != nil {
		b.logger.Debugf(ctx, "Resolved %d account names", len(resolved))
	}
	return resolved, nil
}

func (b *Builder) buildOrganizationStructure() map[string]domain.OrganizationalUnit {
	structure := map[string]domain.OrganizationalUnit{
		domain.SecurityUnitKey: {Name: b.cfg.Organization.SecurityOUName},
	}
	if b.cfg.Organization.SandboxOUName != "" {
		structure["sandbox"] = domain.OrganizationalUnit{Name: b.cfg.Organization.SandboxOUName}
	}
	for _, name := range b.cfg.Organization.AdditionalOUs {
		structure[strings.ToLower(name)] = domain.OrganizationalUnit{Name: name}
	}
	return structure
}

func (b *Builder) buildCentralizedLogging(accountID string) domain.CentralizedLogging {
	block := domain.CentralizedLogging{
		AccountID: accountID,
		Enabled:   b.cfg.Logging.CloudTrailEnabled,
	}

	var configurations domain.LoggingConfigurations
	hasConfig := false
	if b.cfg.Logging.RetentionDays > 0 {
		retention := &domain.BucketRetention{RetentionDays: b.cfg.Logging.RetentionDays}
		configurations.LoggingBucket = retention
		configurations.AccessLoggingBucket = retention
		hasConfig = true
	}
	if b.cfg.Logging.KMSKeyARN != "" {
		configurations.KMSKeyARN = b.cfg.Logging.KMSKeyARN
		hasConfig = true
	}
	if hasConfig {
		block.Configurations = &configurations
	}
	return block
}
