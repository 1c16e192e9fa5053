package models

import "time"

// ErrorResponse is the envelope for failed requests.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// RunResponse is the response for launch and one-shot run endpoints.
type RunResponse struct {
	Success bool       `json:"success"`
	Result  *RunResult `json:"result,omitempty"`
}

// SessionResponse describes a session's current state.
type SessionResponse struct {
	ID        string     `json:"id"`
	State     string     `json:"state"`
	URLs      []string   `json:"urls"`
	Result    *RunResult `json:"result,omitempty"`
	LastError string     `json:"last_error,omitempty"`

	// CredentialNames lists which credentials the session overrides.
	// Values are never echoed back.
	CredentialNames []string `json:"credential_names,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ModelInfo describes one entry of the model catalog.
type ModelInfo struct {
	ID            string  `json:"id"`
	Provider      string  `json:"provider"`
	Credential    string  `json:"credential"`
	MaxTokens     int     `json:"max_tokens"`
	InputPerMTok  float64 `json:"input_usd_per_mtok"`
	OutputPerMTok float64 `json:"output_usd_per_mtok"`
	CredentialSet bool    `json:"credential_set"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"` // "healthy" | "degraded"
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
	Fetches  int64  `json:"fetches"`
	Version  string `json:"version"`
}
