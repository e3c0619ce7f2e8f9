package agents

import "time"

// AgentRequest describes one manual call to an agent endpoint
type AgentRequest struct {
	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method"`
	ContentType string            `json:"content_type"`
	Headers     map[string]string `json:"headers"`
	Body        string            `json:"body"`
}

// AgentResponse is what the endpoint answered, as recorded for display
type AgentResponse struct {
	StatusCode  int               `json:"status_code"`
	Status      string            `json:"status"`
	ContentType string            `json:"content_type"`
	Headers     map[string]string `json:"headers"`
	Body        string            `json:"body"`
	// Truncated is set when the body exceeded MaxResponseBytes
	Truncated bool          `json:"truncated"`
	Duration  time.Duration `json:"duration"`
}
