package agents

import (
	"errors"
	"fmt"
)

// AgentRequestError is returned when a request could not be completed
type AgentRequestError struct {
	IsRecoverable bool
	StatusCode    int
	InnerError    error
}

func (e *AgentRequestError) Error() string {
	if e.InnerError != nil {
		return fmt.Sprintf("Error calling agent: %v", e.InnerError)
	}
	return "Error calling agent"
}

func (e *AgentRequestError) Unwrap() error {
	return e.InnerError
}

// NewRecoverableAgentError marks failures worth retrying by hand (transport, 5xx)
func NewRecoverableAgentError(statusCode int, inner error) *AgentRequestError {
	return &AgentRequestError{
		IsRecoverable: true,
		StatusCode:    statusCode,
		InnerError:    inner,
	}
}

// NewNonRecoverableAgentError marks failures that will not change on retry
func NewNonRecoverableAgentError(inner error) *AgentRequestError {
	return &AgentRequestError{
		IsRecoverable: false,
		InnerError:    inner,
	}
}

func IsAgentRequestError(err error) bool {
	var target *AgentRequestError
	return errors.As(err, &target)
}

// IsRecoverableAgentError returns true if the error is recoverable
func IsRecoverableAgentError(err error) bool {
	var target *AgentRequestError
	if errors.As(err, &target) {
		return target.IsRecoverable
	}
	return false
}
