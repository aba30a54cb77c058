package provision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/controltower"
	ctdocument "github.com/aws/aws-sdk-go-v2/service/controltower/document"
	cttypes "github.com/aws/aws-sdk-go-v2/service/controltower/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

type nopLogger struct{}

func (nopLogger) Debugf(ctx context.Context, format string, args ...any)            {}
func (nopLogger) Infof(ctx context.Context, format string, args ...any)             {}
func (nopLogger) Warnf(ctx context.Context, format string, args ...any)             {}
func (nopLogger) Errorf(ctx context.Context, err error, format string, args ...any) {}
func (l nopLogger) WithFields(fields map[string]any) ports.Logger                   { return l }

type mockAPIError struct {
	code string
	msg  string
}

func (m *mockAPIError) Error() string                 { return m.msg }
func (m *mockAPIError) ErrorCode() string             { return m.code }
func (m *mockAPIError) ErrorMessage() string          { return m.msg }
func (m *mockAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

// fakeClock advances instantly on Sleep so polling tests run without delay.
type fakeClock struct {
	now    time.Time
	sleeps int
	cancel context.CancelFunc
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.cancel != nil {
		c.cancel()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.sleeps++
	c.now = c.now.Add(d)
	return nil
}

type pollResult struct {
	status    cttypes.LandingZoneOperationStatus
	msg       string
	err       error
	noDetails bool
}

type fakeControlTower struct {
	createOut *controltower.CreateLandingZoneOutput
	createErr error
	creates   int

	polls     []pollResult
	pollCalls int

	getLZOut *controltower.GetLandingZoneOutput
	getLZErr error

	listOut *controltower.ListLandingZonesOutput
	listErr error
}

func (f *fakeControlTower) CreateLandingZone(ctx context.Context, params *controltower.CreateLandingZoneInput, optFns ...func(*controltower.Options)) (*controltower.CreateLandingZoneOutput, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeControlTower) GetLandingZoneOperation(ctx context.Context, params *controltower.GetLandingZoneOperationInput, optFns ...func(*controltower.Options)) (*controltower.GetLandingZoneOperationOutput, error) {
	idx := f.pollCalls
	if idx >= len(f.polls) {
		idx = len(f.polls) - 1
	}
	f.pollCalls++

	result := f.polls[idx]
	if result.err != nil {
		return nil, result.err
	}
	if result.noDetails {
		return &controltower.GetLandingZoneOperationOutput{}, nil
	}
	now := time.Now()
	return &controltower.GetLandingZoneOperationOutput{
		OperationDetails: &cttypes.LandingZoneOperationDetail{
			Status:        result.status,
			OperationType: cttypes.LandingZoneOperationTypeCreate,
			StatusMessage: aws.String(result.msg),
			StartTime:     &now,
		},
	}, nil
}

func (f *fakeControlTower) GetLandingZone(ctx context.Context, params *controltower.GetLandingZoneInput, optFns ...func(*controltower.Options)) (*controltower.GetLandingZoneOutput, error) {
	if f.getLZErr != nil {
		return nil, f.getLZErr
	}
	return f.getLZOut, nil
}

func (f *fakeControlTower) ListLandingZones(ctx context.Context, params *controltower.ListLandingZonesInput, optFns ...func(*controltower.Options)) (*controltower.ListLandingZonesOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func validManifest() *domain.Manifest {
	return &domain.Manifest{
		GovernedRegions: []string{"us-east-1"},
		OrganizationStructure: map[string]domain.OrganizationalUnit{
			"security": {Name: "Security"},
		},
		CentralizedLogging: domain.CentralizedLogging{AccountID: "111111111111", Enabled: true},
		SecurityRoles:      domain.SecurityRoles{AccountID: "222222222222"},
	}
}

func newTestProvisioner(client *fakeControlTower, clock *fakeClock) *Provisioner {
	return NewProvisioner(client, nopLogger{}, WithClock(clock), WithPollInterval(30*time.Second))
}

func TestSubmitCreate(t *testing.T) {
	client := &fakeControlTower{
		createOut: &controltower.CreateLandingZoneOutput{
			OperationIdentifier: aws.String("op-123"),
			Arn:                 aws.String("arn:aws:controltower:us-east-1:111111111111:landingzone/lz-abc"),
		},
	}
	p := newTestProvisioner(client, &fakeClock{})

	handle, err := p.SubmitCreate(context.Background(), validManifest(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "op-123", handle.OperationID)
	assert.Equal(t, "arn:aws:controltower:us-east-1:111111111111:landingzone/lz-abc", handle.ResourceIdentifier)
	assert.Equal(t, 1, client.creates)
}

func TestSubmitCreateRejectsInvalidManifestLocally(t *testing.T) {
	client := &fakeControlTower{}
	p := newTestProvisioner(client, &fakeClock{})

	m := validManifest()
	m.GovernedRegions = nil

	_, err := p.SubmitCreate(context.Background(), m, "3.3", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeManifestValidation, apperrors.GetCode(err))
	assert.Zero(t, client.creates)
}

func TestSubmitCreateErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		remoteCode   string
		remoteMsg    string
		expectedCode apperrors.Code
		wantInMsg    string
	}{
		{
			name:         "validation rejection",
			remoteCode:   "ValidationException",
			remoteMsg:    "manifest malformed",
			expectedCode: apperrors.CodeProvisioningRejected,
			wantInMsg:    "invalid manifest or parameters",
		},
		{
			name:         "conflict",
			remoteCode:   "ConflictException",
			remoteMsg:    "another operation in progress",
			expectedCode: apperrors.CodeProvisioningConflict,
			wantInMsg:    "conflicting operation",
		},
		{
			name:         "access denied",
			remoteCode:   "AccessDeniedException",
			remoteMsg:    "no permission",
			expectedCode: apperrors.CodeAccessDenied,
			wantInMsg:    "insufficient permissions",
		},
		{
			name:         "quota exceeded",
			remoteCode:   "ServiceQuotaExceededException",
			remoteMsg:    "account quota exceeded",
			expectedCode: apperrors.CodeQuotaExceeded,
			wantInMsg:    "quota exceeded",
		},
		{
			name:         "throttled",
			remoteCode:   "ThrottlingException",
			remoteMsg:    "rate exceeded",
			expectedCode: apperrors.CodeThrottled,
			wantInMsg:    "rate limit",
		},
		{
			name:         "unknown remote failure",
			remoteCode:   "InternalServerException",
			remoteMsg:    "boom",
			expectedCode: apperrors.CodeDeploymentFailed,
			wantInMsg:    "deployment failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeControlTower{createErr: &mockAPIError{code: tt.remoteCode, msg: tt.remoteMsg}}
			p := newTestProvisioner(client, &fakeClock{})

			_, err := p.SubmitCreate(context.Background(), validManifest(), "3.3", nil)
			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, apperrors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantInMsg)
		})
	}
}

func TestWaitForCompletionSucceedsOnThirdPoll(t *testing.T) {
	client := &fakeControlTower{polls: []pollResult{
		{status: cttypes.LandingZoneOperationStatusInProgress},
		{status: cttypes.LandingZoneOperationStatusInProgress},
		{status: cttypes.LandingZoneOperationStatusSucceeded},
	}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := newTestProvisioner(client, clock)

	ok, err := p.WaitForCompletion(context.Background(), domain.OperationHandle{OperationID: "op-123"}, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, client.pollCalls)
	assert.Equal(t, 2, clock.sleeps)
}

func TestWaitForCompletionFailedOperation(t *testing.T) {
	client := &fakeControlTower{polls: []pollResult{
		{status: cttypes.LandingZoneOperationStatusInProgress},
		{status: cttypes.LandingZoneOperationStatusFailed, msg: "stack set creation failed"},
	}}
	p := newTestProvisioner(client, &fakeClock{now: time.Unix(0, 0)})

	ok, err := p.WaitForCompletion(context.Background(), domain.OperationHandle{OperationID: "op-123"}, time.Hour)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, apperrors.CodeDeploymentFailed, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "deployment failed: stack set creation failed")
}

func TestWaitForCompletionTimeout(t *testing.T) {
	client := &fakeControlTower{polls: []pollResult{
		{status: cttypes.LandingZoneOperationStatusInProgress},
	}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := newTestProvisioner(client, clock)

	handle := domain.OperationHandle{OperationID: "op-123"}
	ok, err := p.WaitForCompletion(context.Background(), handle, time.Minute)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, apperrors.CodeTimeout, apperrors.GetCode(err))

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, handle, timeoutErr.Handle)
	assert.GreaterOrEqual(t, timeoutErr.Elapsed, time.Minute)

	// The timeout check runs before polling, so the last interval never
	// triggers another lookup.
	assert.Equal(t, 2, client.pollCalls)
}

func TestWaitForCompletionToleratesTransientPollFailures(t *testing.T) {
	throttle := &mockAPIError{code: "ThrottlingException", msg: "rate exceeded"}
	client := &fakeControlTower{polls: []pollResult{
		{err: throttle},
		{err: throttle},
		{status: cttypes.LandingZoneOperationStatusSucceeded},
	}}
	p := newTestProvisioner(client, &fakeClock{now: time.Unix(0, 0)})

	ok, err := p.WaitForCompletion(context.Background(), domain.OperationHandle{OperationID: "op-123"}, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, client.pollCalls)
}

func TestWaitForCompletionGivesUpAfterPersistentPollFailures(t *testing.T) {
	tests := []struct {
		name         string
		remoteErr    error
		expectedCode apperrors.Code
	}{
		{
			name:         "persistent throttling keeps its classification",
			remoteErr:    &mockAPIError{code: "ThrottlingException", msg: "rate exceeded"},
			expectedCode: apperrors.CodeThrottled,
		},
		{
			name:         "persistent unknown failure surfaces as lookup error",
			remoteErr:    &mockAPIError{code: "InternalServerException", msg: "service unavailable"},
			expectedCode: apperrors.CodeStatusLookup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeControlTower{polls: []pollResult{{err: tt.remoteErr}}}
			p := newTestProvisioner(client, &fakeClock{now: time.Unix(0, 0)})

			ok, err := p.WaitForCompletion(context.Background(), domain.OperationHandle{OperationID: "op-123"}, time.Hour)
			require.Error(t, err)
			assert.False(t, ok)
			assert.Equal(t, tt.expectedCode, apperrors.GetCode(err))
			assert.Equal(t, maxConsecutivePollFailures, client.pollCalls)
		})
	}
}

func TestWaitForCompletionFailsFastOnPermanentPollError(t *testing.T) {
	tests := []struct {
		name         string
		remoteErr    error
		expectedCode apperrors.Code
	}{
		{
			name:         "access denied",
			remoteErr:    &mockAPIError{code: "AccessDeniedException", msg: "not allowed"},
			expectedCode: apperrors.CodeAccessDenied,
		},
		{
			name:         "operation not found",
			remoteErr:    &mockAPIError{code: "ResourceNotFoundException", msg: "no such operation"},
			expectedCode: apperrors.CodeResourceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeControlTower{polls: []pollResult{{err: tt.remoteErr}}}
			p := newTestProvisioner(client, &fakeClock{now: time.Unix(0, 0)})

			ok, err := p.WaitForCompletion(context.Background(), domain.OperationHandle{OperationID: "op-123"}, time.Hour)
			require.Error(t, err)
			assert.False(t, ok)
			assert.Equal(t, tt.expectedCode, apperrors.GetCode(err))
			assert.Equal(t, 1, client.pollCalls)
		})
	}
}

func TestGetStatusMissingOperationDetails(t *testing.T) {
	client := &fakeControlTower{polls: []pollResult{{noDetails: true}}}
	p := newTestProvisioner(client, &fakeClock{})

	_, err := p.GetStatus(context.Background(), domain.OperationHandle{OperationID: "op-123"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeStatusLookup, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "no operation details")
}

func TestWaitForCompletionInterrupted(t *testing.T) {
	client := &fakeControlTower{polls: []pollResult{
		{status: cttypes.LandingZoneOperationStatusInProgress},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	clock := &fakeClock{now: time.Unix(0, 0), cancel: cancel}
	p := newTestProvisioner(client, clock)

	handle := domain.OperationHandle{OperationID: "op-123"}
	ok, err := p.WaitForCompletion(ctx, handle, time.Hour)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, apperrors.CodeInterrupted, apperrors.GetCode(err))

	var interruptedErr *InterruptedError
	require.True(t, errors.As(err, &interruptedErr))
	assert.Equal(t, handle, interruptedErr.Handle)
}

func TestGetDetails(t *testing.T) {
	manifestDoc := map[string]any{
		"governedRegions": []any{"us-east-1"},
		"organizationStructure": map[string]any{
			"security": map[string]any{"name": "Security"},
		},
		"centralizedLogging": map[string]any{"accountId": "111111111111", "enabled": true},
		"securityRoles":      map[string]any{"accountId": "222222222222"},
	}
	client := &fakeControlTower{
		getLZOut: &controltower.GetLandingZoneOutput{
			LandingZone: &cttypes.LandingZoneDetail{
				Arn:                    aws.String("arn:lz"),
				Status:                 cttypes.LandingZoneStatusActive,
				Version:                aws.String("3.3"),
				LatestAvailableVersion: aws.String("3.3"),
				DriftStatus: &cttypes.LandingZoneDriftStatusSummary{
					Status: cttypes.LandingZoneDriftStatusDrifted,
				},
				Manifest: ctdocument.NewLazyDocument(manifestDoc),
			},
		},
	}
	p := newTestProvisioner(client, &fakeClock{})

	details, err := p.GetDetails(context.Background(), "arn:lz")
	require.NoError(t, err)
	assert.Equal(t, domain.LandingZoneActive, details.Status)
	assert.Equal(t, domain.DriftDrifted, details.DriftStatus)
	assert.Equal(t, "3.3", details.Version)
	require.NotNil(t, details.Manifest)
	assert.Equal(t, "222222222222", details.Manifest.AuditAccountID())
}

func TestResolveLandingZoneID(t *testing.T) {
	client := &fakeControlTower{
		listOut: &controltower.ListLandingZonesOutput{
			LandingZones: []cttypes.LandingZoneSummary{{Arn: aws.String("arn:lz-1")}},
		},
	}
	p := newTestProvisioner(client, &fakeClock{})

	id, err := p.ResolveLandingZoneID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "arn:lz-1", id)
}

func TestResolveLandingZoneIDNotFound(t *testing.T) {
	client := &fakeControlTower{listOut: &controltower.ListLandingZonesOutput{}}
	p := newTestProvisioner(client, &fakeClock{})

	_, err := p.ResolveLandingZoneID(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeResourceNotFound, apperrors.GetCode(err))
}
