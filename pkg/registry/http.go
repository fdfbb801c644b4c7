package registry

import (
	"encoding/json"
	"net/http"
	"strings"
)

// RegisterRequest is the POST /v1/agents payload.
type RegisterRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Handler returns the registry HTTP API.
func (r *Registry) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/agents", r.handleAgents)
	mux.HandleFunc("/v1/agents/", r.handleAgent)
	mux.HandleFunc("/v1/stats", r.handleStats)
	mux.HandleFunc("/v1/health-check", r.handleHealthCheck)
	return mux
}

func (r *Registry) handleAgents(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		if capability := req.URL.Query().Get("capability"); capability != "" {
			writeJSON(w, http.StatusOK, r.SearchByCapability(capability))
			return
		}
		writeJSON(w, http.StatusOK, r.List())
	case http.MethodPost:
		var payload RegisterRequest
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		entry, err := r.Register(req.Context(), payload.Name, payload.Address)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (r *Registry) handleAgent(w http.ResponseWriter, req *http.Request) {
	rest := strings.TrimPrefix(req.URL.Path, "/v1/agents/")
	name, action, _ := strings.Cut(rest, "/")
	if name == "" {
		http.Error(w, "agent name is required", http.StatusBadRequest)
		return
	}
	switch {
	case req.Method == http.MethodDelete && action == "":
		r.Unregister(name)
		w.WriteHeader(http.StatusNoContent)
	case req.Method == http.MethodGet && action == "":
		entry, ok := r.Get(name)
		if !ok {
			http.Error(w, "agent not registered", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case req.Method == http.MethodPost && action == "heartbeat":
		if err := r.Heartbeat(name); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (r *Registry) handleStats(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, r.Stats())
}

func (r *Registry) handleHealthCheck(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, r.HealthCheck(req.Context()))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
