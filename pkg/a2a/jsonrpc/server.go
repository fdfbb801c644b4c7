package jsonrpc

import (
	"encoding/json"
	"net/http"

	"github.com/pcanals/quorum/pkg/a2a/agentcard"
	"github.com/pcanals/quorum/pkg/a2a/server"
	"github.com/pcanals/quorum/pkg/a2a/types"
	qerrors "github.com/pcanals/quorum/pkg/errors"
)

// RPCPath is where the JSON-RPC binding is mounted.
const RPCPath = "/rpc"

// Server exposes the JSON-RPC binding for an endpoint handler.
type Server struct {
	Handler server.Handler
}

// New creates a JSON-RPC server wrapper.
func New(handler server.Handler) *Server {
	return &Server{Handler: handler}
}

// NewMux assembles the full HTTP surface of one agent: the well-known agent
// card document plus the JSON-RPC endpoint.
func NewMux(handler server.Handler, card *types.AgentCard) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(agentcard.WellKnownPath, agentcard.PublishHandler(card))
	mux.Handle(RPCPath, New(handler))
	return mux
}

// ServeHTTP handles JSON-RPC 2.0 requests. Malformed envelopes produce error
// responses, never transport faults.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.Handler == nil {
		writeError(w, nil, &Error{Code: qerrors.RPCInternalError, Message: "handler not configured"})
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, &Error{Code: qerrors.RPCParseError, Message: "invalid json"})
		return
	}
	if req.JSONRPC != Version || req.Method == "" {
		writeError(w, req.ID, &Error{Code: qerrors.RPCInvalidRequest, Message: "invalid request"})
		return
	}
	switch req.Method {
	case MethodMessageSend:
		s.handleSendMessage(w, r, req)
	case MethodTasksGet:
		s.handleGetTask(w, r, req)
	case MethodTasksUpdate:
		s.handleUpdateTask(w, r, req)
	case MethodTasksCancel:
		s.handleCancelTask(w, r, req)
	case MethodAgentCapabilities:
		s.handleCapabilities(w, r, req)
	case MethodAgentPing:
		s.handlePing(w, r, req)
	default:
		writeError(w, req.ID, &Error{Code: qerrors.RPCMethodNotFound, Message: "method not found"})
	}
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, req Request) {
	payload := &server.SendMessageRequest{}
	if err := decodeParams(req.Params, payload); err != nil {
		writeError(w, req.ID, &Error{Code: qerrors.RPCInvalidParams, Message: err.Error()})
		return
	}
	resp, err := s.Handler.SendMessage(r.Context(), payload)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, req Request) {
	payload := &server.GetTaskRequest{}
	if err := decodeParams(req.Params, payload); err != nil {
		writeError(w, req.ID, &Error{Code: qerrors.RPCInvalidParams, Message: err.Error()})
		return
	}
	resp, err := s.Handler.GetTask(r.Context(), payload)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, req Request) {
	payload := &server.UpdateTaskRequest{}
	if err := decodeParams(req.Params, payload); err != nil {
		writeError(w, req.ID, &Error{Code: qerrors.RPCInvalidParams, Message: err.Error()})
		return
	}
	resp, err := s.Handler.UpdateTask(r.Context(), payload)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request, req Request) {
	payload := &server.CancelTaskRequest{}
	if err := decodeParams(req.Params, payload); err != nil {
		writeError(w, req.ID, &Error{Code: qerrors.RPCInvalidParams, Message: err.Error()})
		return
	}
	resp, err := s.Handler.CancelTask(r.Context(), payload)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request, req Request) {
	resp, err := s.Handler.Capabilities(r.Context())
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request, req Request) {
	resp, err := s.Handler.Ping(r.Context())
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func decodeParams(params json.RawMessage, target any) error {
	if len(params) == 0 {
		return qerrors.New(qerrors.CodeInvalidParams, "missing params", nil)
	}
	return json.Unmarshal(params, target)
}

func writeResult(w http.ResponseWriter, id any, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		writeError(w, id, &Error{Code: qerrors.RPCInternalError, Message: err.Error()})
		return
	}
	writeJSON(w, Response{JSONRPC: Version, ID: id, Result: raw})
}

// writeDomainError maps a handler error onto its JSON-RPC error code.
func writeDomainError(w http.ResponseWriter, id any, err error) {
	qe := qerrors.AsQuorumError(err)
	writeError(w, id, &Error{Code: qe.RPCCode, Message: qe.Error()})
}

func writeError(w http.ResponseWriter, id any, rpcErr *Error) {
	writeJSON(w, Response{JSONRPC: Version, ID: id, Error: rpcErr})
}

func writeJSON(w http.ResponseWriter, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
