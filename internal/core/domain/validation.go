package domain

type ValidationStatus string

const (
	StatusPassed  ValidationStatus = "PASSED"
	StatusFailed  ValidationStatus = "FAILED"
	StatusWarning ValidationStatus = "WARNING"
	StatusSkipped ValidationStatus = "SKIPPED"
)

// ValidationResult is the outcome of one prerequisite check. Results are
// collected in check order and never mutated after creation. Remediation
// steps are user-facing guidance, not machine-actionable instructions.
type ValidationResult struct {
	CheckName        string
	Status           ValidationStatus
	Message          string
	RemediationSteps []string
	Details          map[string]any
}
