// Package chatclient implements the external group-chat collaborator over
// JSON/HTTP. The remote service owns channel state; this client only
// translates the ChatChannelService contract into requests and keeps every
// call bounded by the configured timeout so a slow chat service cannot
// stall the outbox worker past its lease.
//
// The create endpoint is idempotent per channel key: posting the same key
// twice returns the existing channel.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls the external chat channel service.
type Client struct {
	// BaseURL is the service root, e.g. "http://chat:9090".
	BaseURL string
	// HTTPClient is used for all requests; its Timeout bounds each call.
	HTTPClient *http.Client
}

// New constructs a Client with the given base URL and per-call timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// createChannelRequest is the JSON payload for channel creation.
type createChannelRequest struct {
	ChannelKey  string   `json:"channel_key"`
	DisplayName string   `json:"display_name"`
	MemberIDs   []string `json:"member_ids"`
}

// channelResponse is the JSON body returned for channel operations.
type channelResponse struct {
	ChannelID string `json:"channel_id"`
}

// membersRequest is the JSON payload for member addition.
type membersRequest struct {
	MemberIDs []string `json:"member_ids"`
}

// messageRequest is the JSON payload for system messages.
type messageRequest struct {
	Text string `json:"text"`
}

// CreateOrGetChannel creates the channel for channelKey or returns the
// existing one. The remote service treats the key as the idempotency token.
func (c *Client) CreateOrGetChannel(ctx context.Context, channelKey, displayName string, memberIDs []string) (string, error) {
	var out channelResponse
	err := c.post(ctx, "/v1/channels", createChannelRequest{
		ChannelKey:  channelKey,
		DisplayName: displayName,
		MemberIDs:   memberIDs,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.ChannelID == "" {
		// Services that omit the body echo the key back.
		return channelKey, nil
	}
	return out.ChannelID, nil
}

// AddMembers adds members to an existing channel. Adding a member twice is
// a no-op on the remote side.
func (c *Client) AddMembers(ctx context.Context, channelID string, memberIDs []string) error {
	return c.post(ctx, "/v1/channels/"+channelID+"/members", membersRequest{MemberIDs: memberIDs}, nil)
}

// SendSystemMessage posts a system-authored message into the channel.
func (c *Client) SendSystemMessage(ctx context.Context, channelID, text string) error {
	return c.post(ctx, "/v1/channels/"+channelID+"/messages", messageRequest{Text: text}, nil)
}

// post sends a JSON body and decodes a JSON response when out is non-nil.
// Non-2xx statuses are returned as errors carrying a truncated body excerpt.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("chat service %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}
