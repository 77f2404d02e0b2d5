package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lychee-technology/chartpreset"
	"go.uber.org/zap"
)

// resolveRequest is the body of POST /api/v1/resolve. Exactly one of Preset
// and Spec names the preset; Columns wins over Dataset.
type resolveRequest struct {
	Preset  string                   `json:"preset,omitempty"`
	Spec    *chartpreset.Preset      `json:"spec,omitempty"`
	Columns *chartpreset.ColumnTypes `json:"columns,omitempty"`
	Dataset string                   `json:"dataset,omitempty"`
}

// handleListPresets handles GET /api/v1/presets
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeSuccess(w, http.StatusOK, s.registry.ListPresets())
}

// handleGetPreset handles GET /api/v1/presets/{name}
func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name, err := parsePresetPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}

	preset, err := s.registry.GetPreset(name)
	if err != nil {
		writePresetError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, preset)
}

// handleResolve handles POST /api/v1/resolve
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req resolveRequest
	if err := readJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	var preset *chartpreset.Preset
	switch {
	case req.Preset != "" && req.Spec != nil:
		writeError(w, http.StatusBadRequest, "set either preset or spec, not both")
		return
	case req.Preset != "":
		p, err := s.registry.GetPreset(req.Preset)
		if err != nil {
			writePresetError(w, err)
			return
		}
		preset = p
	case req.Spec != nil:
		preset = req.Spec
	default:
		writeError(w, http.StatusBadRequest, "preset or spec is required")
		return
	}

	columns := req.Columns
	if columns == nil {
		if req.Dataset == "" {
			writeError(w, http.StatusBadRequest, "columns or dataset is required")
			return
		}
		if s.metadata == nil {
			writeError(w, http.StatusServiceUnavailable, "dataset profiling is not configured")
			return
		}
		profiled, err := s.metadata.ColumnTypes(r.Context(), req.Dataset)
		if err != nil {
			writePresetError(w, err)
			return
		}
		columns = profiled
	}

	resolution, err := s.engine.Resolve(r.Context(), preset, columns)
	if err != nil {
		writePresetError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resolution)
}

// handleDatasetColumns handles GET /api/v1/datasets/columns?dataset=...
func (s *Server) handleDatasetColumns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dataset := strings.TrimSpace(r.URL.Query().Get("dataset"))
	if dataset == "" {
		writeError(w, http.StatusBadRequest, "dataset is required")
		return
	}
	if s.metadata == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset profiling is not configured")
		return
	}

	columns, err := s.metadata.ColumnTypes(r.Context(), dataset)
	if err != nil {
		writePresetError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, columns)
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := make(map[string]string, len(s.checks))
	healthy := true
	for _, c := range s.checks {
		if err := c.check(r.Context()); err != nil {
			zap.S().Warnw("health check failed", "check", c.name, "err", err)
			status[c.name] = err.Error()
			healthy = false
			continue
		}
		status[c.name] = "ok"
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, APIResponse{Success: false, Data: status, Error: "unhealthy"})
		return
	}
	writeSuccess(w, http.StatusOK, status)
}

// writePresetError maps engine, registry and profiler errors to HTTP statuses.
func writePresetError(w http.ResponseWriter, err error) {
	var pe *chartpreset.PresetError
	if !errors.As(err, &pe) {
		if chartpreset.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zap.S().Errorw("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch pe.Type {
	case chartpreset.ErrorTypeNotFound:
		status = http.StatusNotFound
	case chartpreset.ErrorTypeMalformed, chartpreset.ErrorTypeValidation:
		status = http.StatusBadRequest
	case chartpreset.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	case chartpreset.ErrorTypeMetadata:
		status = http.StatusBadGateway
		if pe.Code == chartpreset.ErrCodeProfilerUnavailable {
			status = http.StatusServiceUnavailable
		}
	}
	if status >= http.StatusInternalServerError {
		zap.S().Errorw("request failed", "code", pe.Code, "err", err)
	}
	writeJSON(w, status, APIResponse{Success: false, Error: pe.Error(), Code: pe.Code})
}
