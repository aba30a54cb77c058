package manifest

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/landing-zone-baseline/internal/config"
	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

// fakeOrgClient serves accounts over two pages to exercise pagination.
type fakeOrgClient struct {
	accounts []orgtypes.Account
	calls    int
}

func (f *fakeOrgClient) ListAccounts(ctx context.Context, params *organizations.ListAccountsInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error) {
	f.calls++
	mid := len(f.accounts) / 2
	if params.NextToken == nil {
		out := &organizations.ListAccountsOutput{Accounts: f.accounts[:mid]}
		if mid < len(f.accounts) {
			out.NextToken = aws.String("page-2")
		}
		return out, nil
	}
	return &organizations.ListAccountsOutput{Accounts: f.accounts[mid:]}, nil
}

func account(name, id string) orgtypes.Account {
	return orgtypes.Account{
		Name:   aws.String(name),
		Id:     aws.String(id),
		Status: orgtypes.AccountStatusActive,
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.AWS.HomeRegion = "us-east-1"
	cfg.AWS.GovernedRegions = []string{"us-west-2"}
	cfg.Accounts.LogArchive.Name = "Log-Archive"
	cfg.Accounts.Audit.Name = "Audit"
	return cfg
}

func testClient() *fakeOrgClient {
	return &fakeOrgClient{accounts: []orgtypes.Account{
		account("Management", "111111111111"),
		account("Log-Archive", "222222222222"),
		account("Audit", "333333333333"),
		account("Sandbox-Dev", "444444444444"),
	}}
}

func TestBuild(t *testing.T) {
	builder := NewBuilder(testConfig(), testClient(), nil)

	m, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"us-east-1", "us-west-2"}, m.GovernedRegions)
	assert.Equal(t, "222222222222", m.CentralizedLogging.AccountID)
	assert.Equal(t, "333333333333", m.SecurityRoles.AccountID)
	assert.True(t, m.CentralizedLogging.Enabled)
	assert.Nil(t, m.AccessManagement)

	require.Contains(t, m.OrganizationStructure, "security")
	assert.Equal(t, "Security", m.OrganizationStructure["security"].Name)
	require.Contains(t, m.OrganizationStructure, "sandbox")
	assert.Equal(t, "Sandbox", m.OrganizationStructure["sandbox"].Name)
}

func TestBuildCaseInsensitiveAccountNames(t *testing.T) {
	cfg := testConfig()
	cfg.Accounts.LogArchive.Name = "log-archive"
	cfg.Accounts.Audit.Name = "AUDIT"
	builder := NewBuilder(cfg, testClient(), nil)

	m, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "222222222222", m.CentralizedLogging.AccountID)
	assert.Equal(t, "333333333333", m.SecurityRoles.AccountID)
}

func TestBuildMissingAccounts(t *testing.T) {
	cfg := testConfig()
	cfg.Accounts.LogArchive.Name = "NoSuchLogArchive"
	cfg.Accounts.Audit.Name = "NoSuchAudit"
	builder := NewBuilder(cfg, testClient(), nil)

	_, err := builder.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeAccountResolution, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "could not find accounts:")
	assert.Contains(t, err.Error(), "NoSuchLogArchive")
	assert.Contains(t, err.Error(), "NoSuchAudit")
}

func TestBuildDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.Organization.AdditionalOUs = []string{"Workloads", "Infrastructure"}
	cfg.Logging.RetentionDays = 365
	cfg.Logging.KMSKeyARN = "arn:aws:kms:us-east-1:111111111111:key/abc"

	first, err := NewBuilder(cfg, testClient(), nil).Build(context.Background())
	require.NoError(t, err)
	second, err := NewBuilder(cfg, testClient(), nil).Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))

	firstJSON, err := first.JSON()
	require.NoError(t, err)
	secondJSON, err := second.JSON()
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestBuildOptionalBlocks(t *testing.T) {
	cfg := testConfig()
	cfg.IdentityCenter.Enabled = true
	cfg.Logging.RetentionDays = 180
	builder := NewBuilder(cfg, testClient(), nil)

	m, err := builder.Build(context.Background())
	require.NoError(t, err)

	require.NotNil(t, m.AccessManagement)
	assert.True(t, m.AccessManagement.Enabled)
	require.NotNil(t, m.CentralizedLogging.Configurations)
	assert.Equal(t, 180, m.CentralizedLogging.Configurations.LoggingBucket.RetentionDays)
	assert.Equal(t, 180, m.CentralizedLogging.Configurations.AccessLoggingBucket.RetentionDays)
}

func TestBuildNoSandboxOU(t *testing.T) {
	cfg := testConfig()
	cfg.Organization.SandboxOUName = ""
	builder := NewBuilder(cfg, testClient(), nil)

	m, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, m.OrganizationStructure, "sandbox")
}

func TestResolveAccountIDsPaginates(t *testing.T) {
	client := testClient()
	builder := NewBuilder(testConfig(), client, nil)

	resolved, err := builder.ResolveAccountIDs(context.Background(), []string{"Management", "Sandbox-Dev"})
	require.NoError(t, err)
	assert.Equal(t, "111111111111", resolved["management"])
	assert.Equal(t, "444444444444", resolved["sandbox-dev"])
	assert.Equal(t, 2, client.calls)
}
