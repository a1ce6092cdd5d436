// Package transport implements the agent's HTTP client for the agent-v2
// protocol: one unsigned enrollment call, and five HMAC-signed,
// envelope-wrapped calls for heartbeat/metrics/inventory/job-poll/job-result.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/massvision/reap3r/internal/envelope"
)

const userAgentPrefix = "MASSVISION-Agent/"

// Client talks to the central control plane over HTTP+JSON.
type Client struct {
	http        *http.Client
	baseURL     string
	userAgent   string
	agentID     string
	agentSecret string
}

// New creates a Client bound to baseURL (e.g. "https://control.example.com").
func New(baseURL, agentVersion string) *Client {
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				// connect timeout; the overall 30s client Timeout bounds the rest.
				DialContext: (&timeoutDialer{connectTimeout: 10 * time.Second}).DialContext,
			},
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgentPrefix + agentVersion,
	}
}

// SetCredentials installs the agent_id/agent_secret used to sign subsequent requests.
func (c *Client) SetCredentials(agentID, agentSecret string) {
	c.agentID = agentID
	c.agentSecret = agentSecret
}

// Enroll performs the one unsigned first-contact request.
func (c *Client) Enroll(ctx context.Context, req EnrollmentRequest) (EnrollmentResponse, error) {
	var resp APIResponse[EnrollmentResponse]
	if err := c.postJSON(ctx, "/agent-v2/enroll", req, &resp); err != nil {
		return EnrollmentResponse{}, fmt.Errorf("enrollment request: %w", err)
	}
	if !resp.Success {
		return EnrollmentResponse{}, fmt.Errorf("enrollment rejected: %s", resp.Error)
	}
	return resp.Data, nil
}

// Heartbeat sends a signed heartbeat and returns the server's response,
// which may carry a pushed job.
func (c *Client) Heartbeat(ctx context.Context, payload HeartbeatPayload) (HeartbeatResponse, error) {
	var resp APIResponse[HeartbeatResponse]
	if err := c.postSigned(ctx, "/agent-v2/heartbeat", "heartbeat", payload, &resp); err != nil {
		return HeartbeatResponse{}, fmt.Errorf("heartbeat: %w", err)
	}
	return resp.Data, nil
}

// ReportMetrics sends a signed metrics snapshot. Non-2xx responses are
// logged by the caller, never treated as fatal — matching original_source's
// "log and continue" behavior for telemetry endpoints.
func (c *Client) ReportMetrics(ctx context.Context, payload MetricsPayload) error {
	return c.postSignedNoDecode(ctx, "/agent-v2/metrics", "metrics", payload)
}

// ReportInventory sends a signed inventory snapshot, same error-tolerance as ReportMetrics.
func (c *Client) ReportInventory(ctx context.Context, payload InventoryPayload) error {
	return c.postSignedNoDecode(ctx, "/agent-v2/inventory", "inventory", payload)
}

// PollJobs asks the server for the next queued job. Returns (nil, nil) when
// the server replies 204 No Content — there is no job to run.
func (c *Client) PollJobs(ctx context.Context) (*JobRequest, error) {
	env, err := c.sign("job_poll", struct{}{})
	if err != nil {
		return nil, err
	}
	httpResp, err := c.send(ctx, "/agent-v2/jobs/next", env)
	if err != nil {
		return nil, fmt.Errorf("job poll: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("job poll failed (HTTP %d): %s", httpResp.StatusCode, string(body))
	}

	var resp APIResponse[*JobRequest]
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("job poll: decoding response: %w", err)
	}
	return resp.Data, nil
}

// ReportJobResult sends the outcome of an executed job.
func (c *Client) ReportJobResult(ctx context.Context, result JobResult) error {
	var resp APIResponse[json.RawMessage]
	if err := c.postSigned(ctx, "/agent-v2/job-result", "job_result", result, &resp); err != nil {
		return fmt.Errorf("job result report: %w", err)
	}
	return nil
}

func (c *Client) sign(msgType string, payload any) (envelope.Envelope, error) {
	if c.agentID == "" || c.agentSecret == "" {
		return envelope.Envelope{}, fmt.Errorf("agent not enrolled: no credentials installed")
	}
	return envelope.Seal(c.agentSecret, c.agentID, time.Now().Unix(), msgType, payload)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpResp, err := c.doPost(ctx, path, b)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}
	return json.NewDecoder(httpResp.Body).Decode(out)
}

func (c *Client) postSigned(ctx context.Context, path, msgType string, payload, out any) error {
	env, err := c.sign(msgType, payload)
	if err != nil {
		return err
	}
	httpResp, err := c.send(ctx, path, env)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}
	return json.NewDecoder(httpResp.Body).Decode(out)
}

// postSignedNoDecode is for endpoints where a non-2xx response is logged by
// the scheduler loop, not returned as a hard error — metrics/inventory per
// original_source's client.rs.
func (c *Client) postSignedNoDecode(ctx context.Context, path, msgType string, payload any) error {
	env, err := c.sign(msgType, payload)
	if err != nil {
		return err
	}
	httpResp, err := c.send(ctx, path, env)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", httpResp.StatusCode)
	}
	return nil
}

func (c *Client) send(ctx context.Context, path string, env envelope.Envelope) (*http.Response, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return c.doPost(ctx, path, b)
}

func (c *Client) doPost(ctx context.Context, path string, body []byte) (*http.Response, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s: %w", path, err)
	}
	return resp, nil
}
