// Package kerrors is the Authority Kernel's error taxonomy: a typed code,
// an HTTP status mapping, and structured details so callers (and the
// httpapi transport) never have to string-match an error message.
package kerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a specific kernel failure mode.
type Code string

const (
	CodePersonaNotResolved                Code = "PERSONA_NOT_RESOLVED"
	CodePolicyNotFound                    Code = "POLICY_NOT_FOUND"
	CodeMultipleActivePolicies            Code = "MULTIPLE_ACTIVE_POLICIES"
	CodeTerritoryNotConfigured            Code = "TERRITORY_NOT_CONFIGURED"
	CodeTerritoryNotConfiguredForVertical Code = "TERRITORY_NOT_CONFIGURED_FOR_SUB_VERTICAL"
	CodeEnvelopeNotSealed                 Code = "ENVELOPE_NOT_SEALED"
	CodeEnvelopeExpired                   Code = "ENVELOPE_EXPIRED"
	CodeEnvelopeRevoked                   Code = "ENVELOPE_REVOKED"
	CodeRuntimeGateViolation              Code = "RUNTIME_GATE_VIOLATION"
	CodeReplayDriftDetected               Code = "REPLAY_DRIFT_DETECTED"
	CodeAuthorityInvarianceViolation      Code = "AUTHORITY_INVARIANCE_VIOLATION"
	CodeCrossEnterpriseForbidden          Code = "CROSS_ENTERPRISE_FORBIDDEN"
	CodeWorkspaceReassignmentForbidden    Code = "WORKSPACE_REASSIGNMENT_FORBIDDEN"
	CodeRoleEscalationForbidden           Code = "ROLE_ESCALATION_FORBIDDEN"
	CodeSuiteNotFrozen                    Code = "SUITE_NOT_FROZEN"
	CodeInvalidStatus                     Code = "INVALID_STATUS"
	CodeCorrelationTooLow                 Code = "CORRELATION_TOO_LOW"
	CodeDuplicateScenario                 Code = "DUPLICATE_SCENARIO"
	CodeInsufficientEvaluators            Code = "INSUFFICIENT_EVALUATORS"

	// Runtime gate sub-codes, carried in Details["violation"].
	ViolationNoEnvelope      = "NO_ENVELOPE"
	ViolationInvalidEnvelope = "INVALID_ENVELOPE"
	ViolationExpiredEnvelope = "EXPIRED_ENVELOPE"
	ViolationRevokedEnvelope = "REVOKED_ENVELOPE"
)

// httpStatusByCode is the canonical code-to-status mapping from the error
// handling design: 400 missing-field/format, 403 invariance, 404 lookup
// misses, 409 duplicate seal / precondition, 410 expired, 500 infra.
var httpStatusByCode = map[Code]int{
	CodePersonaNotResolved:                http.StatusNotFound,
	CodePolicyNotFound:                    http.StatusNotFound,
	CodeMultipleActivePolicies:            http.StatusConflict,
	CodeTerritoryNotConfigured:            http.StatusNotFound,
	CodeTerritoryNotConfiguredForVertical: http.StatusNotFound,
	CodeEnvelopeNotSealed:                 http.StatusBadRequest,
	CodeEnvelopeExpired:                   http.StatusGone,
	CodeEnvelopeRevoked:                   http.StatusGone,
	CodeRuntimeGateViolation:              http.StatusForbidden,
	CodeReplayDriftDetected:               http.StatusConflict,
	CodeAuthorityInvarianceViolation:      http.StatusForbidden,
	CodeCrossEnterpriseForbidden:          http.StatusForbidden,
	CodeWorkspaceReassignmentForbidden:    http.StatusForbidden,
	CodeRoleEscalationForbidden:           http.StatusForbidden,
	CodeSuiteNotFrozen:                    http.StatusConflict,
	CodeInvalidStatus:                     http.StatusConflict,
	CodeCorrelationTooLow:                 http.StatusConflict,
	CodeDuplicateScenario:                 http.StatusConflict,
	CodeInsufficientEvaluators:            http.StatusBadRequest,
}

// KernelError is the structured error type returned by every kernel
// service. It carries enough for httpapi to render a response without
// re-deriving a status code from a message string.
type KernelError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *KernelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *KernelError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured context (e.g. current_status,
// action_required) and returns the same error for chaining.
func (e *KernelError) WithDetails(key string, value interface{}) *KernelError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New builds a KernelError, filling the HTTP status from the canonical
// mapping (500 for a code the mapping does not list).
func New(code Code, message string) *KernelError {
	return &KernelError{
		Code:       code,
		Message:    message,
		HTTPStatus: statusFor(code),
	}
}

// Wrap builds a KernelError around an underlying cause.
func Wrap(code Code, message string, err error) *KernelError {
	return &KernelError{
		Code:       code,
		Message:    message,
		HTTPStatus: statusFor(code),
		Err:        err,
	}
}

func statusFor(code Code) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Is reports whether err is a KernelError carrying code.
func Is(err error, code Code) bool {
	var ke *KernelError
	if errors.As(err, &ke) {
		return ke.Code == code
	}
	return false
}

// As extracts the *KernelError from an error chain, if present.
func As(err error) (*KernelError, bool) {
	var ke *KernelError
	if errors.As(err, &ke) {
		return ke, true
	}
	return nil, false
}

// HTTPStatus returns the status code for any error, defaulting to 500 when
// err is not a KernelError.
func HTTPStatus(err error) int {
	if ke, ok := As(err); ok {
		return ke.HTTPStatus
	}
	return http.StatusInternalServerError
}
