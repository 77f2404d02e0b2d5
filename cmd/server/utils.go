package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxBodyBytes caps request bodies; presets and column metadata are small.
const maxBodyBytes = 1 << 20

// parsePresetPath parses /api/v1/presets/{name}
func parsePresetPath(path string) (string, error) {
	name := strings.TrimPrefix(path, "/api/v1/presets/")
	name = strings.Trim(name, "/")

	if name == "" {
		return "", fmt.Errorf("empty preset name")
	}
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid path format")
	}
	return name, nil
}

// APIResponse is the standard response format
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
