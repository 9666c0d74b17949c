package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"rfpintake/internal/gateway"
)

// GatewayHandler POST /api/gateway: {action, ...} -> {success, record|records|stats, error}
func (h *Handler) GatewayHandler(w http.ResponseWriter, r *http.Request) {
	for k, v := range gateway.CORSHeaders {
		w.Header().Set(k, v)
	}

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, gateway.Envelope{Error: "Method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, gateway.Envelope{Error: "Failed to read request body"})
		return
	}
	defer r.Body.Close()

	var req gateway.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, gateway.Envelope{Error: "Invalid JSON format"})
		return
	}

	env, err := h.Gateway.Perform(r.Context(), req)
	writeJSON(w, gateway.StatusCode(err), env)
}
