package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/playground/internal/engine/runner"
	"github.com/GriffinCanCode/playground/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("playground api: %d: %s", e.Status, e.Message)
}

// Config configures a Client
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RequestsPerSecond float64 // 0 disables client-side limiting
	Breaker           resilience.Settings
	Logger            *zap.Logger
}

// DefaultConfig targets a local server
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:8000",
		Timeout:      30 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 250 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		Breaker: resilience.Settings{
			Threshold: 5,
			Cooldown:  30 * time.Second,
		},
	}
}

// Client talks to a playground server's REST API
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// UploadReport is the answer to a file run
type UploadReport struct {
	Upload utils.Upload  `json:"upload"`
	Report runner.Report `json:"report"`
}

// Console is a session's log as served by the API
type Console struct {
	Banner       []string         `json:"banner"`
	Entries      []types.LogEntry `json:"entries"`
	Visible      bool             `json:"visible"`
	MaxEntries   int              `json:"max_entries"`
	LastSequence uint64           `json:"last_sequence"`
}

type errorBody struct {
	Error string `json:"error"`
}

// New creates a client. Transport retries come from retryablehttp; resty
// handles encoding and the breaker fails fast once the server is down.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			cfg.Logger.Debug("Retrying request",
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt))
		}
	}

	restyClient := resty.NewWithClient(retryClient.StandardClient())
	restyClient.
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "playground-cli/1.0").
		SetHeader("Accept", "application/json")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	settings := cfg.Breaker
	if settings.IsFailure == nil {
		settings.IsFailure = serverFault
	}

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		breaker: resilience.New("playground-api", settings),
		logger:  cfg.Logger,
	}
}

// serverFault counts transport errors and 5xx answers against the circuit
func serverFault(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

// Breaker exposes the circuit state
func (c *Client) Breaker() *resilience.Breaker {
	return c.breaker
}

// Health checks the server
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, func() *resty.Request {
		return c.resty.R().SetResult(&out)
	}, http.MethodGet, "/health"); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSession opens a session. Empty profile selects script.
func (c *Client) CreateSession(ctx context.Context, profile string) (*types.SessionInfo, error) {
	var info types.SessionInfo
	if err := c.do(ctx, func() *resty.Request {
		return c.resty.R().
			SetBody(types.SessionRequest{Profile: profile}).
			SetResult(&info)
	}, http.MethodPost, "/sessions"); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteSession closes a session
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, func() *resty.Request {
		return c.resty.R()
	}, http.MethodDelete, sessionPath(sessionID, ""))
}

// Run submits source or a snippet id
func (c *Client) Run(ctx context.Context, sessionID string, req types.RunRequest) (*runner.Report, error) {
	var report runner.Report
	if err := c.do(ctx, func() *resty.Request {
		return c.resty.R().SetBody(req).SetResult(&report)
	}, http.MethodPost, sessionPath(sessionID, "/run")); err != nil {
		return nil, err
	}
	return &report, nil
}

// RunFile uploads a source file for the server to sniff, decode and run
func (c *Client) RunFile(ctx context.Context, sessionID, name string, data []byte) (*UploadReport, error) {
	var out UploadReport
	if err := c.do(ctx, func() *resty.Request {
		return c.resty.R().
			SetFileReader("file", name, bytes.NewReader(data)).
			SetResult(&out)
	}, http.MethodPost, sessionPath(sessionID, "/run/upload")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Console fetches a session's log
func (c *Client) Console(ctx context.Context, sessionID string) (*Console, error) {
	var out Console
	if err := c.do(ctx, func() *resty.Request {
		return c.resty.R().SetResult(&out)
	}, http.MethodGet, sessionPath(sessionID, "/console")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Render fetches the latest sanitized render HTML
func (c *Client) Render(ctx context.Context, sessionID string) (string, error) {
	var html string
	err := c.do(ctx, func() *resty.Request {
		return c.resty.R().SetHeader("Accept", "text/html")
	}, http.MethodGet, sessionPath(sessionID, "/render"), func(resp *resty.Response) {
		html = resp.String()
	})
	return html, err
}

// Snippets lists catalog snippets, optionally for one profile
func (c *Client) Snippets(ctx context.Context, profile string) ([]types.Snippet, error) {
	var out struct {
		Snippets []types.Snippet `json:"snippets"`
	}
	if err := c.do(ctx, func() *resty.Request {
		r := c.resty.R().SetResult(&out)
		if profile != "" {
			r.SetQueryParam("profile", profile)
		}
		return r
	}, http.MethodGet, "/snippets"); err != nil {
		return nil, err
	}
	return out.Snippets, nil
}

// do sends one request through the limiter and breaker. build is called
// once per attempt so bodies are fresh.
func (c *Client) do(ctx context.Context, build func() *resty.Request, method, path string, onOK ...func(*resty.Response)) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	return c.breaker.Do(ctx, func(ctx context.Context) error {
		resp, err := build().
			SetContext(ctx).
			SetError(&errorBody{}).
			Execute(method, path)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		if resp.IsError() {
			msg := resp.Status()
			if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
				msg = body.Error
			}
			return &APIError{Status: resp.StatusCode(), Message: msg}
		}
		for _, fn := range onOK {
			fn(resp)
		}
		return nil
	})
}

func sessionPath(sessionID, suffix string) string {
	return "/sessions/" + url.PathEscape(sessionID) + suffix
}
