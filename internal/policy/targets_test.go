package policy

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTargetClient struct {
	roots []orgtypes.Root
	ous   []orgtypes.OrganizationalUnit
}

func (f *fakeTargetClient) ListRoots(ctx context.Context, params *organizations.ListRootsInput, optFns ...func(*organizations.Options)) (*organizations.ListRootsOutput, error) {
	return &organizations.ListRootsOutput{Roots: f.roots}, nil
}

func (f *fakeTargetClient) ListOrganizationalUnitsForParent(ctx context.Context, params *organizations.ListOrganizationalUnitsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error) {
	return &organizations.ListOrganizationalUnitsForParentOutput{OrganizationalUnits: f.ous}, nil
}

func testTargetClient() *fakeTargetClient {
	return &fakeTargetClient{
		roots: []orgtypes.Root{{Id: aws.String("r-root")}},
		ous: []orgtypes.OrganizationalUnit{
			{Id: aws.String("ou-sec"), Name: aws.String("Security")},
			{Id: aws.String("ou-sbx"), Name: aws.String("Sandbox")},
		},
	}
}

func TestResolveOUNames(t *testing.T) {
	r := NewTargetResolver(testTargetClient(), nopLogger{})

	ids, err := r.ResolveOUNames(context.Background(), []string{"Security", "Sandbox"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ou-sec", "ou-sbx"}, ids)
}

func TestResolveOUNamesCaseInsensitive(t *testing.T) {
	r := NewTargetResolver(testTargetClient(), nopLogger{})

	ids, err := r.ResolveOUNames(context.Background(), []string{"security"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ou-sec"}, ids)
}

func TestResolveOUNamesSkipsUnknown(t *testing.T) {
	r := NewTargetResolver(testTargetClient(), nopLogger{})

	ids, err := r.ResolveOUNames(context.Background(), []string{"Security", "NoSuchOU"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ou-sec"}, ids)
}

func TestResolveOUNamesEmptyInput(t *testing.T) {
	r := NewTargetResolver(testTargetClient(), nopLogger{})

	ids, err := r.ResolveOUNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestResolveOUNamesNoRoots(t *testing.T) {
	r := NewTargetResolver(&fakeTargetClient{}, nopLogger{})

	ids, err := r.ResolveOUNames(context.Background(), []string{"Security"})
	require.NoError(t, err)
	assert.Empty(t, ids)
}
