package roverctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

// APIError is a non-2xx answer of the hub.
type APIError struct {
	Code    int
	Message string
	Missing []string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("hub returned %d: %s", e.Code, e.Message)
	if len(e.Missing) > 0 {
		msg += " (" + strings.Join(e.Missing, ", ") + ")"
	}
	return msg
}

// Client talks to the hub's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Status(ctx context.Context) (*model.SystemState, error) {
	var state model.SystemState
	if err := c.do(ctx, http.MethodGet, "/status", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) StartMission(ctx context.Context, params model.MissionParams) (*model.SystemState, error) {
	var resp struct {
		Data *model.SystemState `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/mission/start", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) CompleteMission(ctx context.Context) (*model.SystemState, error) {
	var resp struct {
		Data *model.SystemState `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/mission/complete", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ControlRover(ctx context.Context, roverID string, cmd model.RoverCommand) (*model.ControlResult, error) {
	req := model.ControlRequest{RoverID: roverID, Command: cmd}
	var res model.ControlResult
	if err := c.do(ctx, http.MethodPost, "/rover/control", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Error   string   `json:"error"`
			Missing []string `json:"missing"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			apiErr.Message = e.Error
			apiErr.Missing = e.Missing
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
