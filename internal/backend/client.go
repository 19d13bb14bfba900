package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Default API routes, relative to the configured base URL.
const (
	routeRespond         = "/api/survey/respond"
	routeCurrentQuestion = "/api/survey/current-question"
	routeKnowledge       = "/api/rag/query"
	routeIntent          = "/api/survey/intent"
	routeMessages        = "/api/survey/messages"
)

// ClientConfig holds the HTTP client settings.
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the survey platform over HTTP. It implements Backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ Backend = (*Client)(nil)

// NewClient creates a Client from config.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) SubmitResponse(ctx context.Context, answer string) (*SubmitResult, error) {
	body := map[string]string{"response": answer}
	var out SubmitResult
	if err := c.post(ctx, "survey-respond", routeRespond, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CurrentQuestion(ctx context.Context) (*CurrentQuestionResult, error) {
	var out CurrentQuestionResult
	if err := c.get(ctx, "current-question", routeCurrentQuestion, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QueryKnowledge(ctx context.Context, question string) (*KnowledgeAnswer, error) {
	body := map[string]string{"question": question}
	var out KnowledgeAnswer
	if err := c.post(ctx, "knowledge-base", routeKnowledge, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AnalyzeIntent(ctx context.Context, text string) (*IntentResult, error) {
	body := map[string]string{"message": text}
	raw, err := c.doJSON(ctx, "intent-classification", http.MethodPost, routeIntent, body)
	if err != nil {
		return nil, err
	}
	// The classification is model-produced upstream; validate its shape
	// before the readiness gate trusts it.
	if err := validateIntentPayload(raw); err != nil {
		return nil, err
	}
	var out IntentResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ErrMalformedPayload{Service: "intent-classification", Body: raw, Err: err}
	}
	return &out, nil
}

func (c *Client) AppendMessage(ctx context.Context, rec MessageRecord) error {
	var ack struct {
		Success bool `json:"success"`
	}
	return c.post(ctx, "message-store", routeMessages, rec, &ack)
}

func (c *Client) get(ctx context.Context, service, route string, out any) error {
	raw, err := c.doJSON(ctx, service, http.MethodGet, route, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrMalformedPayload{Service: service, Body: raw, Err: err}
	}
	return nil
}

func (c *Client) post(ctx context.Context, service, route string, body, out any) error {
	raw, err := c.doJSON(ctx, service, http.MethodPost, route, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrMalformedPayload{Service: service, Body: raw, Err: err}
	}
	return nil
}

// doJSON performs one request and maps transport-level failures onto the
// typed error taxonomy.
func (c *Client) doJSON(ctx context.Context, service, method, route string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", service, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ErrServiceUnavailable{Service: service, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrServiceUnavailable{Service: service, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ErrRateLimit{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s returned 429", service),
		}
	case resp.StatusCode >= 500:
		return nil, &ErrServiceUnavailable{
			Service: service,
			Err:     fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s returned HTTP %d: %s", service, resp.StatusCode, string(raw))
	}

	return raw, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
