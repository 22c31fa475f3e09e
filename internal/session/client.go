package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrConflict marks a 409 from the API, i.e. a restart attempt on a
// completed interview. Callers distinguish it from transient failures.
var ErrConflict = errors.New("conflict")

// APIClient is the HTTP Backend implementation against the screening
// server's JSON API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *APIClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("bad response from %s: %w", path, err)
	}
	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("%s: %s: %w", path, env.Message, ErrConflict)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, env.Message)
	}
	if out != nil && env.Data != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *APIClient) ConversationToken(ctx context.Context) (string, error) {
	var data struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/voice/token", nil, &data); err != nil {
		return "", err
	}
	return data.Token, nil
}

func (c *APIClient) SignedURL(ctx context.Context) (string, error) {
	var data struct {
		SignedURL string `json:"signed_url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/voice/signed-url", nil, &data); err != nil {
		return "", err
	}
	return data.SignedURL, nil
}

func (c *APIClient) MarkInterviewing(ctx context.Context, candidateID string) error {
	return c.do(ctx, http.MethodPatch, "/api/candidates/"+candidateID+"/status",
		map[string]string{"status": "interviewing"}, nil)
}

func (c *APIClient) MarkCompleted(ctx context.Context, candidateID string) error {
	return c.do(ctx, http.MethodPatch, "/api/candidates/"+candidateID+"/status",
		map[string]string{"status": "completed"}, nil)
}

// PushTranscript replays the room's transcript buffer through the
// post-call webhook. The server treats it like any provider delivery,
// so a dropped provider webhook still produces a scored interview.
func (c *APIClient) PushTranscript(ctx context.Context, candidateID, callID string, entries []Entry) error {
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{"role": entry.Role, "text": entry.Text})
	}

	body := map[string]interface{}{
		"dynamic_variables": map[string]string{"candidate_id": candidateID},
		"transcript":        rows,
	}
	if callID != "" {
		body["call_id"] = callID
	}
	return c.do(ctx, http.MethodPost, "/api/webhooks/post-call", body, nil)
}

// FetchResults warms the results view so the completion screen renders
// without an extra round trip.
func (c *APIClient) FetchResults(ctx context.Context, candidateID string) error {
	return c.do(ctx, http.MethodGet, "/api/candidates/"+candidateID, nil, nil)
}
