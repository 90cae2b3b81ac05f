package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// APIKeyHeader authenticates execution lookups against the workflow engine.
const APIKeyHeader = "X-N8N-API-KEY"

const maxBodyBytes = 4 << 20

var tracer = otel.Tracer("automation")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("automation: upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("automation: upstream status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	WebhookURL string
	BaseURL    string
	APIKey     string
	// HTTPClient defaults to a client with an otelhttp transport and no
	// timeout; request contexts bound every call.
	HTTPClient *http.Client
}

type Client struct {
	webhookURL string
	baseURL    string
	apiKey     string
	http       *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	webhook := strings.TrimSpace(cfg.WebhookURL)
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	for name, raw := range map[string]string{"webhook url": webhook, "base url": base} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("automation: invalid %s %q", name, raw)
		}
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{
		webhookURL: webhook,
		baseURL:    base,
		apiKey:     cfg.APIKey,
		http:       hc,
	}, nil
}

type OverrideConfig struct {
	SessionID string `json:"sessionId"`
}

// WebhookPayload is the body posted to the availability webhook. Only
// internal participants are sent.
type WebhookPayload struct {
	Question       string              `json:"question"`
	Participants   []model.Participant `json:"participants"`
	Timezone       string              `json:"timezone,omitempty"`
	StartDate      string              `json:"startDate"`
	EndDate        string              `json:"endDate"`
	SessionID      string              `json:"sessionId,omitempty"`
	OverrideConfig *OverrideConfig     `json:"overrideConfig,omitempty"`
}

// Submit posts the payload to the webhook and returns the raw 2xx body.
func (c *Client) Submit(ctx context.Context, payload WebhookPayload) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "automation.submit")
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	out, err := c.do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook call failed")
		return nil, err
	}
	return out, nil
}

// Execution is the subset of the execution resource the resolver reads.
type Execution struct {
	Status string         `json:"status"`
	Data   *ExecutionData `json:"data"`
}

type ExecutionData struct {
	ResultData struct {
		RunData json.RawMessage `json:"runData"`
		Error   json.RawMessage `json:"error"`
	} `json:"resultData"`
}

// RunData returns nil when the execution carries no step outputs.
func (e *Execution) RunData() json.RawMessage {
	if e == nil || e.Data == nil {
		return nil
	}
	rd := bytes.TrimSpace(e.Data.ResultData.RunData)
	if len(rd) == 0 || bytes.Equal(rd, []byte("null")) {
		return nil
	}
	return rd
}

func (e *Execution) ErrorDetail() string {
	if e == nil || e.Data == nil {
		return ""
	}
	return string(e.Data.ResultData.Error)
}

func (c *Client) GetExecution(ctx context.Context, id string) (*Execution, error) {
	ctx, span := tracer.Start(ctx, "automation.get_execution")
	span.SetAttributes(attribute.String("automation.execution_id", id))
	defer span.End()

	endpoint := c.baseURL + "/api/v1/executions/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var exec Execution
	if err := json.Unmarshal(body, &exec); err != nil {
		return nil, fmt.Errorf("automation: decode execution: %w", err)
	}
	span.SetAttributes(attribute.String("automation.execution_status", exec.Status))
	return &exec, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// IsAuthError reports whether err is a 401/403 from the upstream.
func IsAuthError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}
