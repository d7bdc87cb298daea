// Package api is the request/response client for the monitoring backend's
// HTTP interface: status, frame ranges, mismatches, monitoring control and
// file selection.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/internal/httpclient"
	"github.com/teranos/replaydash/internal/util"
	"github.com/teranos/replaydash/logger"
	"github.com/teranos/replaydash/version"
)

// DefaultBaseURL is where the backend listens unless configured otherwise.
const DefaultBaseURL = "http://localhost:5000"

// maxBodyBytes bounds a single response; a full frame range for a long
// session stays well under this.
const maxBodyBytes = 256 << 20

// Config holds API client configuration.
type Config struct {
	BaseURL    string
	HTTPClient *httpclient.Client  // nil = httpclient.New with defaults
	Logger     *zap.SugaredLogger // nil = nop logger
	UserAgent  string             // "" = version.Get().UserAgent()
}

// Client talks to the backend's /api endpoints.
type Client struct {
	baseURL    string
	httpClient *httpclient.Client
	logger     *zap.SugaredLogger
	userAgent  string
}

// NewClient creates a backend API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New(httpclient.Options{})
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.Get().UserAgent()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		userAgent:  cfg.UserAgent,
	}
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status fetches the monitoring summary.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, errors.Wrap(err, "failed to query status")
	}
	return &status, nil
}

// Frames fetches replay and validation frames in the absolute range [start, end).
func (c *Client) Frames(ctx context.Context, start, end int) (*FrameRange, error) {
	if start < 0 || end < start {
		return nil, errors.NewInvalidRequestError("invalid frame range [%d, %d)", start, end)
	}
	q := url.Values{}
	q.Set("start", strconv.Itoa(start))
	q.Set("end", strconv.Itoa(end))

	var frames FrameRange
	if err := c.do(ctx, http.MethodGet, "/api/frames?"+q.Encode(), nil, &frames); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch frames [%d, %d)", start, end)
	}
	return &frames, nil
}

// Mismatches fetches every mismatch the backend has detected.
func (c *Client) Mismatches(ctx context.Context) ([]frame.Mismatch, error) {
	var list mismatchList
	if err := c.do(ctx, http.MethodGet, "/api/mismatches", nil, &list); err != nil {
		return nil, errors.Wrap(err, "failed to fetch mismatches")
	}
	return list.Mismatches, nil
}

// StartMonitoring asks the backend to watch directory ("" lets it pick).
func (c *Client) StartMonitoring(ctx context.Context, directory string) (*Ack, error) {
	var ack Ack
	body := startMonitoringRequest{Directory: util.NilIfEmpty(directory)}
	if err := c.do(ctx, http.MethodPost, "/api/start_monitoring", body, &ack); err != nil {
		return nil, errors.Wrap(err, "failed to start monitoring")
	}
	return &ack, nil
}

// StopMonitoring asks the backend to stop watching.
func (c *Client) StopMonitoring(ctx context.Context) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/api/stop_monitoring", struct{}{}, &ack); err != nil {
		return nil, errors.Wrap(err, "failed to stop monitoring")
	}
	return &ack, nil
}

// SetFiles switches the backend to a new replay/validation file pair.
// Empty paths are sent as null.
func (c *Client) SetFiles(ctx context.Context, replayFile, validationFile string) (*Ack, error) {
	var ack Ack
	body := setFilesRequest{
		ReplayFile:     util.NilIfEmpty(replayFile),
		ValidationFile: util.NilIfEmpty(validationFile),
	}
	if err := c.do(ctx, http.MethodPost, "/api/set_files", body, &ack); err != nil {
		return nil, errors.Wrap(err, "failed to set files")
	}
	return &ack, nil
}

// do performs one request. A response body carrying an "error" field is a
// failure regardless of status code.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Mark(errors.Wrap(err, "request cancelled"), errors.ErrTimeout)
		}
		return errors.WithHint(
			errors.Mark(errors.Wrap(err, "failed to send request"), errors.ErrServiceUnavailable),
			"is the monitoring backend running at "+c.baseURL+"?",
		)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	c.logger.Debugw("Backend request",
		logger.FieldMethod, method,
		logger.FieldPath, path,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDurationMS, time.Since(started).Milliseconds(),
	)

	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		return errors.NewServerError(eb.Error)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := errors.Newf("backend returned status %d", resp.StatusCode)
		switch {
		case resp.StatusCode == http.StatusNotFound:
			err = errors.Mark(err, errors.ErrNotFound)
		case resp.StatusCode >= 500:
			err = errors.Mark(err, errors.ErrServiceUnavailable)
		}
		return err
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
