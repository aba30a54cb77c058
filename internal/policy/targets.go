package policy

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"

	"github.com/olusolaa/landing-zone-baseline/internal/adapters/platform/aws/awserrors"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
)

type OrganizationsTargetAPI interface {
	organizations.ListOrganizationalUnitsForParentAPIClient
	ListRoots(ctx context.Context, params *organizations.ListRootsInput, optFns ...func(*organizations.Options)) (*organizations.ListRootsOutput, error)
}

// TargetResolver maps configured OU names to OU identifiers under the
// organization root. Unresolvable names are warned about and skipped; an
// empty result means there is nothing to attach to.
type TargetResolver struct {
	client OrganizationsTargetAPI
	logger ports.Logger
}

func NewTargetResolver(client OrganizationsTargetAPI, logger ports.Logger) *TargetResolver {
	return &TargetResolver{client: client, logger: logger}
}

func (r *TargetResolver) ResolveOUNames(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	roots, err := r.client.ListRoots(ctx, &organizations.ListRootsInput{})
	if err != nil {
		return nil, awserrors.Classify(ctx, err, "listing organization roots")
	}
	if len(roots.Roots) == 0 {
		return nil, nil
	}

	byName := make(map[string]string)
	paginator := organizations.NewListOrganizationalUnitsForParentPaginator(r.client,
		&organizations.ListOrganizationalUnitsForParentInput{ParentId: roots.Roots[0].Id})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserrors.Classify(ctx, err, "listing organizational units")
		}
		for _, ou := range page.OrganizationalUnits {
			byName[strings.ToLower(aws.ToString(ou.Name))] = aws.ToString(ou.Id)
		}
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := byName[strings.ToLower(name)]; ok {
			ids = append(ids, id)
		} else {
			r.logger.Warnf(ctx, "Organizational unit %q not found, skipping as policy target", name)
		}
	}
	return ids, nil
}
