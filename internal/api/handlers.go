package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/solar-crm/internal/catalog"
	"github.com/sells-group/solar-crm/internal/service"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgBodyTooLarge  = "Request body too large"
	msgInternalError = "Internal server error"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type healthBody struct {
	Status   string            `json:"status"`
	Circuits map[string]string `json:"circuits,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthBody{Status: "ok"}
	if s.breakers != nil {
		resp.Circuits = s.breakers.States()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	panels := []catalog.Panel{}
	if s.catalog != nil {
		panels = s.catalog.Panels()
	}
	writeJSON(w, http.StatusOK, map[string]any{"panels": panels})
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	var req service.InsightRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.svc.Insight(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	var req service.RecomputeRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.svc.Recompute(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Response)
}

// decode reads a JSON body into v, answering 400 or 413 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, "body_too_large", http.StatusRequestEntityTooLarge, errorBody{Error: msgBodyTooLarge})
			return false
		}
		s.writeError(w, "invalid_body", http.StatusBadRequest, errorBody{Error: msgInvalidBody})
		return false
	}
	return true
}

// writeServiceError maps a service failure to its status code.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.ErrUpstream, Message: msgInternalError, Err: err}
	}

	switch se.Kind {
	case service.ErrValidation:
		s.writeError(w, "validation", http.StatusBadRequest, errorBody{Error: se.Message})
	case service.ErrNotConfigured:
		zap.L().Error("api: solar api key not configured", zap.String("request_id", RequestIDFrom(r.Context())))
		s.writeError(w, "not_configured", http.StatusInternalServerError, errorBody{Error: se.Message})
	case service.ErrNotFound:
		s.writeError(w, "not_found", http.StatusNotFound, errorBody{Error: se.Message})
	default:
		body := errorBody{Error: se.Message}
		if se.Err != nil {
			body.Details = se.Err.Error()
		}
		zap.L().Error("api: request failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.writeError(w, "upstream", http.StatusInternalServerError, body)
	}
}

func (s *Server) writeError(w http.ResponseWriter, kind string, status int, body errorBody) {
	if s.metrics != nil {
		s.metrics.RecordError(kind)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
