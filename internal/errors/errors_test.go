package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesExistingClassification(t *testing.T) {
	original := NewUserFacing(CodeQuotaExceeded, "quota exceeded", "Request an increase.")
	wrapped := Wrap(original, CodeDeploymentFailed, "deployment failed")

	assert.Equal(t, CodeQuotaExceeded, wrapped.Code)
	assert.True(t, wrapped.IsUserFacing)
}

func TestWrapUserFacingAlwaysWraps(t *testing.T) {
	original := New(CodeStatusLookup, "lookup failed")
	wrapped := WrapUserFacing(original, CodeTimeout, "monitoring timed out", "Resume with the status command.")

	require.NotNil(t, wrapped)
	assert.Equal(t, CodeTimeout, wrapped.Code)
	assert.Equal(t, original, wrapped.WrappedError)
	assert.True(t, wrapped.IsUserFacing)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "should be nil"))
	assert.Nil(t, WrapUserFacing(nil, CodeInternal, "should be nil", ""))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeThrottled, GetCode(New(CodeThrottled, "slow down")))
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("plain error")))
	assert.Equal(t, CodePolicyAttach, GetCode(fmt.Errorf("outer: %w", New(CodePolicyAttach, "inner"))))
}

func TestGetUserFacingMessageWalksChain(t *testing.T) {
	inner := NewUserFacing(CodeAccountResolution, "could not find accounts: audit", "Create the missing accounts.")
	outer := Wrap(fmt.Errorf("pipeline: %w", inner), CodeOrchestration, "orchestration failed")

	msg, suggestion, ok := GetUserFacingMessage(outer)
	assert.True(t, ok)
	assert.Equal(t, "could not find accounts: audit", msg)
	assert.Equal(t, "Create the missing accounts.", suggestion)
}

func TestGetUserFacingMessageFallback(t *testing.T) {
	msg, suggestion, ok := GetUserFacingMessage(fmt.Errorf("plain error"))
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
	assert.NotEmpty(t, suggestion)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, CodeThrottled.IsTransient())
	assert.True(t, CodeStatusLookup.IsTransient())
	assert.True(t, CodePlatformAPIError.IsTransient())
	assert.False(t, CodeDeploymentFailed.IsTransient())
	assert.False(t, CodeAccessDenied.IsTransient())
}

func TestErrorStringIncludesCode(t *testing.T) {
	err := Wrap(fmt.Errorf("root cause"), CodePolicyCreate, "create failed")
	assert.Contains(t, err.Error(), string(CodePolicyCreate))
	assert.Contains(t, err.Error(), "root cause")
}
