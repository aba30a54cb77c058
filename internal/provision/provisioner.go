// Package provision submits a validated manifest as an asynchronous create
// operation and drives it to a terminal state.
package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/controltower"
	ctdocument "github.com/aws/aws-sdk-go-v2/service/controltower/document"

	"github.com/olusolaa/landing-zone-baseline/internal/adapters/platform/aws/awserrors"
	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

const (
	// DefaultVersion is the current landing zone schema version.
	DefaultVersion = "3.3"

	// DefaultTimeout bounds the polling loop; provisioning typically takes
	// upwards of an hour.
	DefaultTimeout = 90 * time.Minute

	defaultPollInterval = 30 * time.Second

	// Consecutive transient poll failures tolerated before the loop gives
	// up. The failed polls still count against the overall timeout.
	maxConsecutivePollFailures = 5
)

type ControlTowerAPI interface {
	CreateLandingZone(ctx context.Context, params *controltower.CreateLandingZoneInput, optFns ...func(*controltower.Options)) (*controltower.CreateLandingZoneOutput, error)
	GetLandingZoneOperation(ctx context.Context, params *controltower.GetLandingZoneOperationInput, optFns ...func(*controltower.Options)) (*controltower.GetLandingZoneOperationOutput, error)
	GetLandingZone(ctx context.Context, params *controltower.GetLandingZoneInput, optFns ...func(*controltower.Options)) (*controltower.GetLandingZoneOutput, error)
	ListLandingZones(ctx context.Context, params *controltower.ListLandingZonesInput, optFns ...func(*controltower.Options)) (*controltower.ListLandingZonesOutput, error)
}

// TimeoutError reports an exceeded polling bound. It carries the handle and
// elapsed time so monitoring can resume out-of-process; the remote operation
// keeps running.
type TimeoutError struct {
	Handle  domain.OperationHandle
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("deployment monitoring timed out after %s (operation %s still in progress)",
		e.Elapsed.Round(time.Second), e.Handle.OperationID)
}

// InterruptedError reports a cancelled local wait. The remote operation is
// not cancelled by interrupting the wait; the handle stays valid.
type InterruptedError struct {
	Handle  domain.OperationHandle
	Elapsed time.Duration
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("deployment monitoring interrupted after %s; operation %s continues remotely",
		e.Elapsed.Round(time.Second), e.Handle.OperationID)
}

type Provisioner struct {
	client       ControlTowerAPI
	clock        ports.Clock
	progress     ports.ProgressReporter
	logger       ports.Logger
	pollInterval time.Duration
}

type Option func(*Provisioner)

func WithClock(clock ports.Clock) Option {
	return func(p *Provisioner) { p.clock = clock }
}

func WithPollInterval(interval time.Duration) Option {
	return func(p *Provisioner) { p.pollInterval = interval }
}

func WithProgressReporter(progress ports.ProgressReporter) Option {
	return func(p *Provisioner) { p.progress = progress }
}

func NewProvisioner(client ControlTowerAPI, logger ports.Logger, opts ...Option) *Provisioner {
	p := &Provisioner{
		client:       client,
		clock:        ports.RealClock(),
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SubmitCreate re-validates the manifest locally, then calls the remote
// create API exactly once. Known rejection categories map to distinct error
// kinds; anything else becomes a generic provisioning failure.
func (p *Provisioner) SubmitCreate(ctx context.Context, m *domain.Manifest, version string, tags map[string]string) (domain.OperationHandle, error) {
	if err := m.Validate(); err != nil {
		return domain.OperationHandle{}, err
	}
	if version == "" {
		version = DefaultVersion
	}

	doc, err := manifestDocument(m)
	if err != nil {
		return domain.OperationHandle{}, err
	}

	input := &controltower.CreateLandingZoneInput{
		Manifest: ctdocument.NewLazyDocument(doc),
		Version:  aws.String(version),
	}
	if len(tags) > 0 {
		input.Tags = tags
	}

	out, err := p.client.CreateLandingZone(ctx, input)
	if err != nil {
		return domain.OperationHandle{}, p.classifySubmitError(err)
	}

	handle := domain.OperationHandle{
		OperationID:        aws.ToString(out.OperationIdentifier),
		ResourceIdentifier: aws.ToString(out.Arn),
	}
	p.logger.Infof(ctx, "Landing zone creation initiated (operation %s)", handle.OperationID)
	return handle, nil
}

func (p *Provisioner) classifySubmitError(err error) error {
	msg := awserrors.RemoteMessage(err)
	switch awserrors.ErrorCode(err) {
	case awserrors.CodeValidationException:
		return apperrors.WrapUserFacing(err, apperrors.CodeProvisioningRejected,
			fmt.Sprintf("invalid manifest or parameters: %s", msg),
			"Correct the manifest input and resubmit.")
	case awserrors.CodeConflictException:
		return apperrors.WrapUserFacing(err, apperrors.CodeProvisioningConflict,
			fmt.Sprintf("landing zone already exists or a conflicting operation is running: %s", msg),
			"Wait for the in-flight operation to finish, or delete the existing landing zone.")
	case awserrors.CodeAccessDeniedException:
		return apperrors.WrapUserFacing(err, apperrors.CodeAccessDenied,
			fmt.Sprintf("insufficient permissions: %s", msg),
			"Grant the controltower:CreateLandingZone permission to the caller.")
	case awserrors.CodeServiceQuotaExceeded:
		return apperrors.WrapUserFacing(err, apperrors.CodeQuotaExceeded,
			fmt.Sprintf("service limits exceeded: %s", msg),
			"Request a quota increase before retrying.")
	case awserrors.CodeThrottlingException:
		return apperrors.WrapUserFacing(err, apperrors.CodeThrottled,
			fmt.Sprintf("API rate limit exceeded: %s", msg),
			"Retry the submission after a short delay.")
	}
	return apperrors.Wrap(err, apperrors.CodeDeploymentFailed,
		fmt.Sprintf("landing zone deployment failed: %s", msg))
}

// GetStatus performs a single status lookup for the operation.
func (p *Provisioner) GetStatus(ctx context.Context, handle domain.OperationHandle) (domain.OperationStatus, error) {
	out, err := p.client.GetLandingZoneOperation(ctx, &controltower.GetLandingZoneOperationInput{
		OperationIdentifier: aws.String(handle.OperationID),
	})
	if err != nil {
		return domain.OperationStatus{}, p.classifyPollError(ctx, err)
	}
	if out.OperationDetails == nil {
		return domain.OperationStatus{}, apperrors.New(apperrors.CodeStatusLookup,
			"operation status response carried no operation details")
	}

	detail := out.OperationDetails
	status := domain.OperationStatus{
		State:   domain.OperationState(detail.Status),
		Type:    string(detail.OperationType),
		Message: aws.ToString(detail.StatusMessage),
	}
	if detail.StartTime != nil {
		status.StartTime = *detail.StartTime
	}
	status.EndTime = detail.EndTime
	return status, nil
}

// classifyPollError keeps the remote classification when the code table
// recognizes the failure, so a permanent rejection such as an access denial
// stops the polling loop immediately. Unrecognized failures become lookup
// errors, which stay retryable.
func (p *Provisioner) classifyPollError(ctx context.Context, err error) error {
	classified := awserrors.Classify(ctx, err, "getting operation status")
	if apperrors.GetCode(classified) != apperrors.CodePlatformAPIError {
		return classified
	}
	return apperrors.Wrap(err, apperrors.CodeStatusLookup,
		fmt.Sprintf("failed to get operation status: %s", awserrors.RemoteMessage(err)))
}

// WaitForCompletion polls the operation at a fixed interval until it reaches
// a terminal state. It returns true the instant the operation succeeds and
// never returns normally once elapsed time meets the timeout. Cancelling the
// context aborts only the local wait; the handle remains valid for resuming.
func (p *Provisioner) WaitForCompletion(ctx context.Context, handle domain.OperationHandle, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := p.clock.Now()
	consecutiveFailures := 0

	p.logger.Infof(ctx, "Monitoring deployment progress (timeout: %s)", timeout)

	for {
		elapsed := p.clock.Now().Sub(start)
		if elapsed >= timeout {
			timeoutErr := &TimeoutError{Handle: handle, Elapsed: elapsed}
			return false, apperrors.WrapUserFacing(timeoutErr, apperrors.CodeTimeout,
				timeoutErr.Error(),
				fmt.Sprintf("Resume monitoring with: lz-baseline status --operation-id %s", handle.OperationID))
		}

		status, err := p.GetStatus(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return false, p.interruptedError(handle, p.clock.Now().Sub(start))
			}
			consecutiveFailures++
			if apperrors.GetCode(err).IsTransient() && consecutiveFailures < maxConsecutivePollFailures {
				p.logger.Warnf(ctx, "Transient status lookup failure (%d/%d): %v",
					consecutiveFailures, maxConsecutivePollFailures, err)
			} else {
				return false, err
			}
		} else {
			consecutiveFailures = 0

			if p.progress != nil {
				p.progress.OperationProgress(ctx, handle, status, elapsed)
			}

			switch status.State {
			case domain.OperationSucceeded:
				p.logger.Infof(ctx, "Landing zone deployment completed successfully (%s elapsed)", elapsed.Round(time.Second))
				return true, nil
			case domain.OperationFailed:
				msg := status.Message
				if msg == "" {
					msg = "unknown error"
				}
				return false, apperrors.Newf(apperrors.CodeDeploymentFailed, "deployment failed: %s", msg)
			case domain.OperationInProgress:
				p.logger.Debugf(ctx, "Deployment in progress (%s elapsed)", elapsed.Round(time.Second))
			default:
				p.logger.Warnf(ctx, "Unknown operation status: %s", status.State)
			}
		}

		if err := p.clock.Sleep(ctx, p.pollInterval); err != nil {
			return false, p.interruptedError(handle, p.clock.Now().Sub(start))
		}
	}
}

func (p *Provisioner) interruptedError(handle domain.OperationHandle, elapsed time.Duration) error {
	interrupted := &InterruptedError{Handle: handle, Elapsed: elapsed}
	return apperrors.WrapUserFacing(interrupted, apperrors.CodeInterrupted,
		interrupted.Error(),
		fmt.Sprintf("The remote operation was not cancelled. Resume with: lz-baseline status --operation-id %s", handle.OperationID))
}

// GetDetails fetches a point-in-time snapshot of the landing zone for
// post-deployment validation.
func (p *Provisioner) GetDetails(ctx context.Context, resourceIdentifier string) (domain.LandingZoneDetails, error) {
	out, err := p.client.GetLandingZone(ctx, &controltower.GetLandingZoneInput{
		LandingZoneIdentifier: aws.String(resourceIdentifier),
	})
	if err != nil {
		return domain.LandingZoneDetails{}, awserrors.Classify(ctx, err, "fetching landing zone details")
	}

	lz := out.LandingZone
	details := domain.LandingZoneDetails{
		Identifier:       aws.ToString(lz.Arn),
		Status:           domain.LandingZoneState(lz.Status),
		Version:          aws.ToString(lz.Version),
		AvailableVersion: aws.ToString(lz.LatestAvailableVersion),
	}
	if lz.DriftStatus != nil {
		details.DriftStatus = domain.DriftState(lz.DriftStatus.Status)
	}

	if lz.Manifest != nil {
		var doc map[string]any
		if err := lz.Manifest.UnmarshalSmithyDocument(&doc); err == nil {
			if m, convErr := domain.ManifestFromDocument(doc); convErr == nil {
				details.Manifest = m
			}
		}
	}
	return details, nil
}

// ResolveLandingZoneID queries the service for the authoritative resource
// identifier. The identifier is never derived from the operation id; the two
// are not guaranteed to correspond.
func (p *Provisioner) ResolveLandingZoneID(ctx context.Context) (string, error) {
	out, err := p.client.ListLandingZones(ctx, &controltower.ListLandingZonesInput{})
	if err != nil {
		return "", awserrors.Classify(ctx, err, "listing landing zones")
	}
	if len(out.LandingZones) == 0 {
		return "", apperrors.New(apperrors.CodeResourceNotFound,
			"no landing zone found after successful operation")
	}
	return aws.ToString(out.LandingZones[0].Arn), nil
}

func manifestDocument(m *domain.Manifest) (map[string]any, error) {
	raw, err := m.JSON()
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to convert manifest to API document")
	}
	return doc, nil
}
