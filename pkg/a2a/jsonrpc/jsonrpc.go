// Package jsonrpc implements the JSON-RPC 2.0 binding of the Quorum task
// protocol: envelope framing, the fixed method namespace, and error mapping.
package jsonrpc

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Version is the JSON-RPC protocol version every envelope must declare.
const Version = "2.0"

// The fixed method namespace of the task protocol.
const (
	MethodMessageSend       = "message/send"
	MethodTasksGet          = "tasks/get"
	MethodTasksUpdate       = "tasks/update"
	MethodTasksCancel       = "tasks/cancel"
	MethodAgentCapabilities = "agent/capabilities"
	MethodAgentPing         = "agent/ping"
)

// KnownMethod reports whether method belongs to the protocol namespace.
func KnownMethod(method string) bool {
	switch method {
	case MethodMessageSend, MethodTasksGet, MethodTasksUpdate,
		MethodTasksCancel, MethodAgentCapabilities, MethodAgentPing:
		return true
	default:
		return false
	}
}

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewRequest frames params into a request envelope with a fresh request ID.
func NewRequest(method string, params any) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		ID:      NewRequestID(),
		Method:  method,
	}
	if params != nil {
		payload, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		req.Params = payload
	}
	return req, nil
}

// NewRequestID generates a request identifier unique within a process
// lifetime: a nanosecond timestamp prefix plus a random suffix.
func NewRequestID() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), suffix)
}
