// Package awserrors maps remote API error codes onto the application error
// taxonomy. Classification goes through an explicit code table, never by
// matching human-readable message text, so behavior stays stable when the
// service rewords its messages.
package awserrors

import (
	"context"
	stderrs "errors"
	"fmt"

	"github.com/aws/smithy-go"

	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

// Remote error codes the pipeline reacts to by name.
const (
	CodeValidationException       = "ValidationException"
	CodeConflictException         = "ConflictException"
	CodeAccessDeniedException     = "AccessDeniedException"
	CodeServiceQuotaExceeded      = "ServiceQuotaExceededException"
	CodeThrottlingException       = "ThrottlingException"
	CodeResourceNotFoundException = "ResourceNotFoundException"
	CodeOrganizationsNotInUse     = "AWSOrganizationsNotInUseException"
	CodeDuplicatePolicyAttachment = "DuplicatePolicyAttachmentException"
	CodePolicyNotAttachable       = "PolicyNotAttachableException"
	CodePolicyInUse               = "PolicyInUseException"
	CodeDuplicatePolicy           = "DuplicatePolicyException"
	CodeTooManyRequests           = "TooManyRequestsException"
	CodeNoSuchEntity              = "NoSuchEntity"
)

var codeTable = map[string]apperrors.Code{
	CodeValidationException:   apperrors.CodeProvisioningRejected,
	CodeConflictException:     apperrors.CodeProvisioningConflict,
	CodeAccessDeniedException: apperrors.CodeAccessDenied,
	"AccessDenied":            apperrors.CodeAccessDenied,
	"UnauthorizedOperation":   apperrors.CodeAccessDenied,

	"ExpiredToken":                apperrors.CodePlatformAuth,
	"ExpiredTokenException":       apperrors.CodePlatformAuth,
	"InvalidClientTokenId":        apperrors.CodePlatformAuth,
	"UnrecognizedClientException": apperrors.CodePlatformAuth,

	CodeServiceQuotaExceeded:       apperrors.CodeQuotaExceeded,
	"LimitExceededException":       apperrors.CodeQuotaExceeded,
	"ConstraintViolationException": apperrors.CodeQuotaExceeded,

	CodeThrottlingException: apperrors.CodeThrottled,
	CodeTooManyRequests:     apperrors.CodeThrottled,
	"RequestLimitExceeded":  apperrors.CodeThrottled,

	CodeResourceNotFoundException:         apperrors.CodeResourceNotFound,
	"NotFoundException":                   apperrors.CodeResourceNotFound,
	CodeNoSuchEntity:                      apperrors.CodeResourceNotFound,
	"PolicyNotFoundException":             apperrors.CodeResourceNotFound,
	"TargetNotFoundException":             apperrors.CodeResourceNotFound,
	"AccountNotFoundException":            apperrors.CodeResourceNotFound,
	"OrganizationalUnitNotFoundException": apperrors.CodeResourceNotFound,
}

// ErrorCode extracts the remote error code from err, or empty when err is
// not an API error.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsCode reports whether err carries the given remote error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// RemoteMessage returns the service's human message for an API error, or the
// plain error text otherwise. Display only; classification never reads it.
func RemoteMessage(err error) string {
	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) {
		return apiErr.ErrorMessage()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Classify wraps a remote failure with the application code from the code
// table. The operation string names the call for the wrapped message.
func Classify(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return apperrors.Wrap(ctx.Err(), apperrors.CodeInterrupted,
			fmt.Sprintf("context cancelled during %s", operation))
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeInterrupted,
			fmt.Sprintf("context cancelled during %s", operation))
	}

	if code, ok := codeTable[ErrorCode(err)]; ok {
		return apperrors.Wrap(err, code, fmt.Sprintf("%s: %s", operation, RemoteMessage(err)))
	}
	return apperrors.Wrap(err, apperrors.CodePlatformAPIError, fmt.Sprintf("%s failed", operation))
}
