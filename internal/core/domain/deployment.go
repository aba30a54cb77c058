package domain

import "time"

// OperationHandle is the only durable reference to a still-in-flight remote
// provisioning action. Interrupting the local wait never cancels the remote
// operation; re-attaching to the same handle resumes monitoring.
type OperationHandle struct {
	OperationID        string
	ResourceIdentifier string
}

type OperationState string

const (
	OperationSucceeded  OperationState = "SUCCEEDED"
	OperationFailed     OperationState = "FAILED"
	OperationInProgress OperationState = "IN_PROGRESS"
)

// OperationStatus is a single point-in-time status lookup of a remote
// operation.
type OperationStatus struct {
	State     OperationState
	Type      string
	StartTime time.Time
	EndTime   *time.Time
	Message   string
}

type LandingZoneState string

const (
	LandingZoneActive     LandingZoneState = "ACTIVE"
	LandingZoneProcessing LandingZoneState = "PROCESSING"
	LandingZoneFailed     LandingZoneState = "FAILED"
)

type DriftState string

const (
	DriftInSync  DriftState = "IN_SYNC"
	DriftDrifted DriftState = "DRIFTED"
)

// LandingZoneDetails is a point-in-time snapshot of the provisioned
// resource, used for post-deployment validation.
type LandingZoneDetails struct {
	Identifier       string
	Status           LandingZoneState
	Version          string
	AvailableVersion string
	Manifest         *Manifest
	DriftStatus      DriftState
}

// DeploymentState tracks per-phase completion for exactly one deployment
// attempt. Fields flip monotonically as phases complete; the state is owned
// by one controller instance and discarded at process end.
type DeploymentState struct {
	PrerequisitesValidated bool
	ManifestGenerated      bool
	LandingZoneDeployed    bool
	PoliciesDeployed       bool
	DeploymentValidated    bool
	AuditAccountID         string
	ResourceIdentifier     string
}

type DeploymentStatus string

const (
	DeploymentSucceeded DeploymentStatus = "SUCCESS"
	DeploymentFailed    DeploymentStatus = "FAILED"
)

// DeploymentResult is the end-of-orchestration summary surfaced to callers.
type DeploymentResult struct {
	Status             DeploymentStatus
	StepsCompleted     []string
	OperationID        string
	ResourceIdentifier string
	DeployedPolicies   PolicyDeploymentRecord
	Warnings           []string
	Errors             []string
}

// RollbackGuidance is emitted when a phase fails after provisioning has
// already succeeded. Remediation stays human-gated: the guidance references
// what exists remotely but nothing is deleted automatically.
type RollbackGuidance struct {
	OperationID        string
	ResourceIdentifier string
	DeployedPolicies   []string
	Steps              []string
}
