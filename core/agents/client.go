package agents

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yeti47/agentbench/core/ccc/logging"
)

const (
	MaxResponseBytes   = 4 << 20
	DefaultContentType = "application/json"
)

// AgentClient sends requests to bearer-authenticated agent endpoints
type AgentClient interface {
	// Send issues req with the token as bearer credential. 4xx responses are
	// returned as responses; transport failures and 5xx are AgentRequestErrors.
	Send(ctx context.Context, req AgentRequest, token []byte) (*AgentResponse, error)
}

type httpAgentClient struct {
	logger     logging.Logger
	httpClient *http.Client
	now        func() time.Time
}

// NewAgentClient creates an AgentClient with the given per-request timeout
func NewAgentClient(logger logging.Logger, timeout time.Duration) AgentClient {
	return NewAgentClientWithHTTPClient(logger, &http.Client{Timeout: timeout})
}

func NewAgentClientWithHTTPClient(logger logging.Logger, httpClient *http.Client) AgentClient {
	if logger == nil {
		logger = logging.NopLogger
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &httpAgentClient{
		logger:     logger,
		httpClient: httpClient,
		now:        time.Now,
	}
}

func validateRequest(req AgentRequest) (string, error) {
	u, err := url.Parse(req.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q", req.Endpoint)
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return "", fmt.Errorf("unsupported method %q", req.Method)
	}
	return method, nil
}

func (c *httpAgentClient) Send(ctx context.Context, req AgentRequest, token []byte) (*AgentResponse, error) {
	method, err := validateRequest(req)
	if err != nil {
		return nil, NewNonRecoverableAgentError(err)
	}
	if len(token) == 0 {
		return nil, NewNonRecoverableAgentError(fmt.Errorf("no bearer token"))
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.Endpoint, body)
	if err != nil {
		return nil, NewNonRecoverableAgentError(fmt.Errorf("failed to create request: %w", err))
	}

	for name, value := range req.Headers {
		// the credential header is always ours
		if strings.EqualFold(name, "Authorization") {
			continue
		}
		httpReq.Header.Set(name, value)
	}
	if body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = DefaultContentType
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Authorization", "Bearer "+string(token))

	c.logger.Info("Sending agent request", "method", method, "endpoint", req.Endpoint)

	started := c.now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Agent request failed", "endpoint", req.Endpoint, "error", err)
		return nil, NewRecoverableAgentError(0, fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, NewRecoverableAgentError(resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}
	duration := c.now().Sub(started)

	truncated := len(data) > MaxResponseBytes
	if truncated {
		data = data[:MaxResponseBytes]
	}

	c.logger.Info("Agent responded", "endpoint", req.Endpoint, "status", resp.StatusCode, "duration", duration.String())

	if resp.StatusCode >= 500 {
		return nil, NewRecoverableAgentError(resp.StatusCode, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, string(data)))
	}

	headers := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}

	return &AgentResponse{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: resp.Header.Get("Content-Type"),
		Headers:     headers,
		Body:        string(data),
		Truncated:   truncated,
		Duration:    duration,
	}, nil
}
