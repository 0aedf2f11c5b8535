// Package server provides the operational HTTP surface of the bot:
// health and readiness probes. It includes handlers, middleware and routes
// separated from domain types.
package server

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}

// ReadyResponse is the HTTP response for the readiness endpoint.
type ReadyResponse struct {
	// Status is "ready" when all checks pass.
	Status string `json:"status"`
	// Bot is the bot's resolved username.
	Bot string `json:"bot,omitempty"`
	// Checks maps each dependency to "ok" or its failure message.
	Checks map[string]string `json:"checks,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}
