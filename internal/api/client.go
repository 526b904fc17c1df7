// Package api is the REST client for the remote lead pipeline
// service. All endpoints speak JSON; non-2xx responses carry a
// human-readable detail field that is surfaced verbatim when present.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kestrelhq/leadline/internal/journal"
	"github.com/kestrelhq/leadline/internal/lead"
)

// DefaultTimeout bounds a single request so a service that never
// responds surfaces as a failure instead of a stuck transient state.
const DefaultTimeout = 30 * time.Second

// ErrNetwork marks a request that could not complete at all: refused
// connection, DNS failure, timeout.
var ErrNetwork = errors.New("request could not complete")

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Detail) != "" {
		return e.Detail
	}
	return fmt.Sprintf("service returned status %d", e.Status)
}

// Surface returns the operator-facing text for err: the server's
// detail when it sent one, otherwise the per-operation fallback.
func Surface(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && strings.TrimSpace(se.Detail) != "" {
		return se.Detail
	}
	return fallback
}

// Client talks to one service instance.
type Client struct {
	baseURL string
	http    *http.Client
	log     *journal.Journal
}

// Option customizes Client construction.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client, mainly for
// tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithJournal attaches a session journal; request failures are
// recorded there in addition to being returned.
func WithJournal(j *journal.Journal) Option {
	return func(c *Client) {
		c.log = j
	}
}

// NewClient creates a client for the service at baseURL (no trailing
// slash required).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// errorBody is the service's non-2xx response shape.
type errorBody struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("%s %s: %v", method, path, err)
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			se.Detail = eb.Detail
		}
		c.log.Warn("%s %s: status %d · %s", method, path, se.Status, se.Detail)
		return se
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// ListLeads fetches the full leads list.
func (c *Client) ListLeads(ctx context.Context) ([]lead.Lead, error) {
	var leads []lead.Lead
	if err := c.do(ctx, http.MethodGet, "/leads", nil, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// GetLead fetches one lead by id.
func (c *Client) GetLead(ctx context.Context, id int) (lead.Lead, error) {
	var l lead.Lead
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leads/%d", id), nil, &l); err != nil {
		return lead.Lead{}, err
	}
	return l, nil
}

// CreateLead sends a draft and returns the created lead.
func (c *Client) CreateLead(ctx context.Context, draft lead.Draft) (lead.Lead, error) {
	var l lead.Lead
	if err := c.do(ctx, http.MethodPost, "/leads", draft, &l); err != nil {
		return lead.Lead{}, err
	}
	return l, nil
}

// UpdateLead sends a patch for the lead and returns the updated
// record.
func (c *Client) UpdateLead(ctx context.Context, id int, draft lead.Draft) (lead.Lead, error) {
	var l lead.Lead
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/leads/%d", id), draft, &l); err != nil {
		return lead.Lead{}, err
	}
	return l, nil
}

// DeleteResult is the service's delete confirmation.
type DeleteResult struct {
	Message string `json:"message"`
	LeadID  int    `json:"lead_id"`
}

// DeleteLead removes one lead.
func (c *Client) DeleteLead(ctx context.Context, id int) (DeleteResult, error) {
	var res DeleteResult
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/leads/%d", id), nil, &res); err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

// ListActivities fetches the audit trail for one lead, newest first.
func (c *Client) ListActivities(ctx context.Context, leadID int) ([]lead.Activity, error) {
	var activities []lead.Activity
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leads/%d/activities", leadID), nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// PipelineStats fetches the per-stage aggregates.
func (c *Client) PipelineStats(ctx context.Context) ([]lead.PipelineStat, error) {
	var stats []lead.PipelineStat
	if err := c.do(ctx, http.MethodGet, "/analytics/pipeline", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// ScoreBatchResult is the scoring confirmation.
type ScoreBatchResult struct {
	Scored  int `json:"scored"`
	Results []struct {
		LeadID int     `json:"lead_id"`
		Score  float64 `json:"score"`
	} `json:"results"`
}

// ScoreBatch asks the service to score every lead.
func (c *Client) ScoreBatch(ctx context.Context) (ScoreBatchResult, error) {
	var res ScoreBatchResult
	if err := c.do(ctx, http.MethodPost, "/leads/score-batch", nil, &res); err != nil {
		return ScoreBatchResult{}, err
	}
	return res, nil
}

type generateRequest struct {
	MessageType   lead.MessageType `json:"message_type"`
	CustomContext string           `json:"custom_context,omitempty"`
}

// GenerateMessage asks the service to write an outreach message of
// the given type for the lead. Generation may change the lead's stage
// server-side; callers must re-fetch the lead afterwards.
func (c *Client) GenerateMessage(ctx context.Context, leadID int, messageType lead.MessageType, customContext string) (lead.GeneratedMessage, error) {
	body := generateRequest{MessageType: messageType, CustomContext: customContext}
	var msg lead.GeneratedMessage
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/leads/%d/generate-message", leadID), body, &msg); err != nil {
		return lead.GeneratedMessage{}, err
	}
	msg.MessageType = messageType
	return msg, nil
}

type tuneRequest struct {
	OriginalMessage string           `json:"original_message"`
	MessageType     lead.MessageType `json:"message_type"`
	Instructions    string           `json:"instructions"`
}

// TuneMessage asks for a revision of an existing generated message.
// The returned message keeps the original's type.
func (c *Client) TuneMessage(ctx context.Context, leadID int, original lead.GeneratedMessage, instructions string) (lead.GeneratedMessage, error) {
	body := tuneRequest{
		OriginalMessage: original.Content,
		MessageType:     original.MessageType,
		Instructions:    instructions,
	}
	var msg lead.GeneratedMessage
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/leads/%d/tune-message", leadID), body, &msg); err != nil {
		return lead.GeneratedMessage{}, err
	}
	msg.MessageType = original.MessageType
	return msg, nil
}

type stageRequest struct {
	Stage lead.Stage `json:"stage"`
	Notes string     `json:"notes,omitempty"`
}

// StageResult is the stage-change confirmation.
type StageResult struct {
	Message  string     `json:"message"`
	NewStage lead.Stage `json:"new_stage"`
}

// UpdateStage persists a pipeline stage change.
func (c *Client) UpdateStage(ctx context.Context, leadID int, stage lead.Stage, notes string) (StageResult, error) {
	var res StageResult
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/leads/%d/stage", leadID), stageRequest{Stage: stage, Notes: notes}, &res); err != nil {
		return StageResult{}, err
	}
	return res, nil
}
