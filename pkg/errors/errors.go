// Copyright 2026 © The Quorum Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed error handling for Quorum with a stable
// mapping onto JSON-RPC error codes.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Quorum errors for monitoring and protocol mapping.
type ErrorCode string

const (
	// CodeInvalidRequest indicates a malformed protocol envelope.
	CodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// CodeMethodNotFound indicates an unknown protocol method.
	CodeMethodNotFound ErrorCode = "METHOD_NOT_FOUND"

	// CodeInvalidParams indicates the method params were invalid.
	CodeInvalidParams ErrorCode = "INVALID_PARAMS"

	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeTaskNotFound indicates the referenced task does not exist.
	CodeTaskNotFound ErrorCode = "TASK_NOT_FOUND"

	// CodeTaskTerminal indicates a mutation was attempted on a finished task.
	CodeTaskTerminal ErrorCode = "TASK_TERMINAL"

	// CodeAgentUnavailable indicates a remote agent could not be reached.
	CodeAgentUnavailable ErrorCode = "AGENT_UNAVAILABLE"

	// CodeTaskTimeout indicates polling for task completion was exhausted.
	CodeTaskTimeout ErrorCode = "TASK_TIMEOUT"

	// CodeCapabilityNotSupported indicates no agent covers a required capability.
	CodeCapabilityNotSupported ErrorCode = "CAPABILITY_NOT_SUPPORTED"

	// CodeDecompositionError indicates goal decomposition produced an invalid plan.
	CodeDecompositionError ErrorCode = "DECOMPOSITION_ERROR"

	// CodeProviderError indicates the intelligence provider failed.
	CodeProviderError ErrorCode = "PROVIDER_ERROR"
)

// JSON-RPC error codes. Protocol-level codes use the reserved negative range;
// domain-level codes use the positive custom range.
const (
	RPCParseError     = -32700
	RPCInvalidRequest = -32600
	RPCMethodNotFound = -32601
	RPCInvalidParams  = -32602
	RPCInternalError  = -32603

	RPCTaskNotFound           = 1001
	RPCAgentUnavailable       = 1002
	RPCTaskTimeout            = 1003
	RPCCapabilityNotSupported = 1004
	RPCDecompositionError     = 1005
	RPCTaskTerminal           = 1006
)

// QuorumError is a typed error carrying an ErrorCode and optional context.
// It implements the error interface and can be unwrapped with errors.As().
type QuorumError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
	RPCCode int
}

// Error implements the error interface.
func (e *QuorumError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *QuorumError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *QuorumError) MarshalJSON() ([]byte, error) {
	payload := map[string]any{
		"code":     string(e.Code),
		"message":  e.Error(),
		"rpc_code": e.RPCCode,
	}
	if len(e.Context) > 0 {
		payload["context"] = e.Context
	}
	return json.Marshal(payload)
}

// New creates a QuorumError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *QuorumError {
	return &QuorumError{
		Code:    code,
		Message: msg,
		Err:     cause,
		RPCCode: codeToRPCCode(code),
	}
}

// Newf creates a QuorumError with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...any) *QuorumError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *QuorumError) WithContext(key string, value any) *QuorumError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// AsQuorumError converts err to a QuorumError, wrapping unknown errors as
// internal. Returns nil for a nil error.
func AsQuorumError(err error) *QuorumError {
	if err == nil {
		return nil
	}
	if qe, ok := err.(*QuorumError); ok {
		return qe
	}
	return New(CodeInternal, "wrapped error", err)
}

// FromRPCCode maps a JSON-RPC error code back to an ErrorCode.
func FromRPCCode(code int) ErrorCode {
	switch code {
	case RPCParseError, RPCInvalidRequest:
		return CodeInvalidRequest
	case RPCMethodNotFound:
		return CodeMethodNotFound
	case RPCInvalidParams:
		return CodeInvalidParams
	case RPCTaskNotFound:
		return CodeTaskNotFound
	case RPCAgentUnavailable:
		return CodeAgentUnavailable
	case RPCTaskTimeout:
		return CodeTaskTimeout
	case RPCCapabilityNotSupported:
		return CodeCapabilityNotSupported
	case RPCDecompositionError:
		return CodeDecompositionError
	case RPCTaskTerminal:
		return CodeTaskTerminal
	default:
		return CodeInternal
	}
}

func codeToRPCCode(code ErrorCode) int {
	switch code {
	case CodeInvalidRequest:
		return RPCInvalidRequest
	case CodeMethodNotFound:
		return RPCMethodNotFound
	case CodeInvalidParams:
		return RPCInvalidParams
	case CodeTaskNotFound:
		return RPCTaskNotFound
	case CodeTaskTerminal:
		return RPCTaskTerminal
	case CodeAgentUnavailable:
		return RPCAgentUnavailable
	case CodeTaskTimeout:
		return RPCTaskTimeout
	case CodeCapabilityNotSupported:
		return RPCCapabilityNotSupported
	case CodeDecompositionError:
		return RPCDecompositionError
	default:
		return RPCInternalError
	}
}
