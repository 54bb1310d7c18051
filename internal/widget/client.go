package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"luxury-leads-backend/internal/types"
)

// StatusError is returned for non-2xx responses. Body holds the decoded
// ChatReply when the server sent one.
type StatusError struct {
	StatusCode int
	Body       *types.ChatReply
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Client speaks the two widget endpoints of the chat backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// AgencyInfo fetches GET {base}/agency/{id}.
func (c *Client) AgencyInfo(ctx context.Context, agencyID string) (types.AgencyInfo, error) {
	var info types.AgencyInfo
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/agency/"+url.PathEscape(agencyID), nil)
	if err != nil {
		return info, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return info, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return info, &StatusError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("decode agency info: %w", err)
	}
	return info, nil
}

// Chat posts one message to POST {base}/chat.
func (c *Client) Chat(ctx context.Context, chat types.ChatRequest) (types.ChatReply, error) {
	var reply types.ChatReply
	b, err := json.Marshal(chat)
	if err != nil {
		return reply, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(b))
	if err != nil {
		return reply, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reply, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{StatusCode: resp.StatusCode}
		var body types.ChatReply
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			serr.Body = &body
		}
		return reply, serr
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return reply, fmt.Errorf("decode chat reply: %w", err)
	}
	if len(raw) == 0 || raw[0] != '{' {
		return reply, fmt.Errorf("decode chat reply: not a JSON object")
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return reply, fmt.Errorf("decode chat reply: %w", err)
	}
	return reply, nil
}
