package handler

import (
	"net/http"

	"github.com/gamexhub/gamex-panel/internal/health"
	"github.com/gamexhub/gamex-panel/internal/http/response"
)

type HealthHandler struct {
	readiness *health.ProbeRunner
}

func NewHealthHandler(readiness *health.ProbeRunner) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	response.Message(w, r, http.StatusOK, "API is reachable")
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.readiness == nil {
		response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []health.CheckResult{}})
		return
	}
	ready, results := h.readiness.Ready(r.Context())
	if !ready {
		response.JSON(w, r, http.StatusServiceUnavailable, map[string]any{"message": "dependencies are not ready", "checks": results})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
}
