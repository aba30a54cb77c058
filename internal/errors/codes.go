package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"

	// Prerequisite validation
	CodePrereqFailed Code = "PREREQUISITES_FAILED"

	// Manifest construction and local structural validation
	CodeManifestValidation Code = "MANIFEST_VALIDATION_ERROR"
	CodeAccountResolution  Code = "ACCOUNT_RESOLUTION_ERROR"

	// Landing zone provisioning; these mirror the remote service's
	// rejection classification.
	CodeProvisioningRejected Code = "PROVISIONING_REJECTED"
	CodeProvisioningConflict Code = "PROVISIONING_CONFLICT"
	CodeAccessDenied         Code = "ACCESS_DENIED"
	CodeQuotaExceeded        Code = "QUOTA_EXCEEDED"
	CodeThrottled            Code = "THROTTLED"
	CodeDeploymentFailed     Code = "DEPLOYMENT_FAILED"
	CodeStatusLookup         Code = "STATUS_LOOKUP_ERROR"
	CodeTimeout              Code = "TIMEOUT_ERROR"
	CodeInterrupted          Code = "MONITORING_INTERRUPTED"

	// Guardrail policy deployment
	CodePolicyValidation Code = "POLICY_VALIDATION_ERROR"
	CodePolicyCreate     Code = "POLICY_CREATE_ERROR"
	CodePolicyAttach     Code = "POLICY_ATTACH_ERROR"
	CodePolicyCleanup    Code = "POLICY_CLEANUP_ERROR"

	CodeOrchestration    Code = "ORCHESTRATION_ERROR"
	CodePlatformAPIError Code = "PLATFORM_API_ERROR"
	CodePlatformAuth     Code = "PLATFORM_AUTH_ERROR"
	CodeResourceNotFound Code = "RESOURCE_NOT_FOUND"
)

func (c Code) String() string {
	return string(c)
}

// IsTransient reports whether an error with this code is a candidate for
// bounded retry during status polling. Business-logic failures never are.
func (c Code) IsTransient() bool {
	switch c {
	case CodeThrottled, CodeStatusLookup, CodePlatformAPIError:
		return true
	default:
		return false
	}
}
