// Package simd serves the simulation engine over HTTP/JSON and gRPC.
package simd

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type HTTPServer struct {
	mux     *http.ServeMux
	service *Service
}

func NewHTTPServer(service *Service) *HTTPServer {
	s := &HTTPServer{
		mux:     http.NewServeMux(),
		service: service,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/lines", s.handleLines)
	s.mux.HandleFunc("/v1/evaluate", s.handleEvaluate)
	s.mux.HandleFunc("/v1/sweep", s.handleSweep)
	s.mux.HandleFunc("/v1/sensitivity", s.handleSensitivity)

	var gatherer prometheus.Gatherer = prometheus.NewRegistry()
	if reg := service.Recorder().Registry(); reg != nil {
		gatherer = reg
	}
	s.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleLines handles GET /v1/lines
func (s *HTTPServer) handleLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"lines": s.service.Lines()})
}

// handleEvaluate handles POST /v1/evaluate
func (s *HTTPServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !s.decode(w, r, &req) {
		return
	}
	summary, err := s.service.Evaluate(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "evaluate", req.Line, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// handleSweep handles POST /v1/sweep. An infeasible sweep is still a 200;
// callers check the feasible flag.
func (s *HTTPServer) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.service.Sweep(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "sweep", req.Line, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleSensitivity handles POST /v1/sensitivity
func (s *HTTPServer) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	var req SensitivityRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.service.Sensitivity(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "sensitivity", req.Line, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// decode reads a JSON POST body into dst, writing the error response itself
// when it fails.
func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, op, line string, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "op", op, "product_line", line, "error", err)
	} else {
		logger.Info("request rejected", "op", op, "product_line", line, "status", code, "error", err)
	}
	s.writeError(w, code, err.Error())
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}

func httpStatus(err error) int {
	switch errorClass(err) {
	case classNotFound:
		return http.StatusNotFound
	case classInvalid:
		return http.StatusBadRequest
	case classNumeric:
		return http.StatusUnprocessableEntity
	case classCanceled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
