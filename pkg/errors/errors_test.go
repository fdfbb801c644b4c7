package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CodeTaskNotFound, "task missing", nil)
	if err.Error() != "[TASK_NOT_FOUND] task missing" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}

	wrapped := New(CodeInternal, "boom", fmt.Errorf("root cause"))
	if !stderrors.Is(wrapped, wrapped.Err) {
		t.Fatalf("unwrap chain broken")
	}
}

func TestRPCCodeMapping(t *testing.T) {
	cases := map[ErrorCode]int{
		CodeInvalidRequest:         RPCInvalidRequest,
		CodeMethodNotFound:         RPCMethodNotFound,
		CodeInvalidParams:          RPCInvalidParams,
		CodeInternal:               RPCInternalError,
		CodeTaskNotFound:           RPCTaskNotFound,
		CodeTaskTerminal:           RPCTaskTerminal,
		CodeAgentUnavailable:       RPCAgentUnavailable,
		CodeTaskTimeout:            RPCTaskTimeout,
		CodeCapabilityNotSupported: RPCCapabilityNotSupported,
		CodeDecompositionError:     RPCDecompositionError,
	}
	for code, rpcCode := range cases {
		if got := New(code, "x", nil).RPCCode; got != rpcCode {
			t.Fatalf("%s: expected rpc code %d, got %d", code, rpcCode, got)
		}
		if code == CodeInternal || code == CodeInvalidRequest {
			continue
		}
		if back := FromRPCCode(rpcCode); back != code {
			t.Fatalf("rpc %d: expected %s back, got %s", rpcCode, code, back)
		}
	}
	if FromRPCCode(-99999) != CodeInternal {
		t.Fatalf("unknown rpc code should map to internal")
	}
}

func TestAsQuorumError(t *testing.T) {
	if AsQuorumError(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	plain := fmt.Errorf("plain")
	qe := AsQuorumError(plain)
	if qe.Code != CodeInternal {
		t.Fatalf("plain errors should wrap as internal, got %s", qe.Code)
	}
	typed := New(CodeTaskTimeout, "slow", nil)
	if AsQuorumError(typed) != typed {
		t.Fatalf("typed errors should pass through")
	}
}

func TestWithContext(t *testing.T) {
	err := New(CodeAgentUnavailable, "down", nil).
		WithContext("agent", "a1").
		WithContext("attempt", 3)
	if err.Context["agent"] != "a1" || err.Context["attempt"] != 3 {
		t.Fatalf("unexpected context: %v", err.Context)
	}
}
