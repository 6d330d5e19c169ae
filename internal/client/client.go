package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/redact"
)

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "X-API-KEY"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// KeySource supplies the API key for each request.
type KeySource interface {
	APIKey() string
}

// StaticKey is a KeySource that always returns the same key.
type StaticKey string

// APIKey implements KeySource.
func (k StaticKey) APIKey() string { return string(k) }

// Client is a taskboard API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	keys    KeySource
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the API rooted at baseURL, for example
// "http://localhost:8080/api".
func New(baseURL string, keys KeySource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if keys == nil {
		keys = StaticKey("")
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		keys:    keys,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "taskboard_client"))
	return c, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return target
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10) + "/"
}

// List fetches a single page of tasks.
func (c *Client) List(ctx context.Context, q Query) (*Page, error) {
	var page Page
	if err := c.do(ctx, "list tasks", http.MethodGet, c.endpoint("/tasks/", q.Values()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll fetches every task matching q by following next links.
func (c *Client) ListAll(ctx context.Context, q Query) ([]domain.Task, error) {
	var tasks []domain.Task
	target := c.endpoint("/tasks/", q.Values())
	for {
		var page Page
		if err := c.do(ctx, "list tasks", http.MethodGet, target, nil, &page); err != nil {
			return nil, err
		}
		tasks = append(tasks, page.Results...)
		if page.Next == nil || *page.Next == "" {
			break
		}
		next, err := c.resolve(*page.Next)
		if err != nil {
			return nil, &Error{Op: "list tasks", Kind: ServerFailure, Err: err}
		}
		if next == target {
			break
		}
		target = next
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// resolve turns a next link into an absolute URL on the configured host.
// Only the path and query of the link are kept, so the API key is never
// sent to whatever host the server wrote into the link.
func (c *Client) resolve(link string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid next link: %w", err)
	}
	ref.Scheme, ref.Host, ref.User, ref.Fragment = "", "", nil, ""
	return base.ResolveReference(ref).String(), nil
}

// Get fetches one task.
func (c *Client) Get(ctx context.Context, id int64) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, "get task", http.MethodGet, c.endpoint(taskPath(id), nil), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create creates a task.
func (c *Client) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, "create task", http.MethodPost, c.endpoint("/tasks/", nil), draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies a partial update.
func (c *Client) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, "update task", http.MethodPatch, c.endpoint(taskPath(id), nil), patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Replace updates every field of a task. Omitted optional fields are reset
// by the server.
func (c *Client) Replace(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, "replace task", http.MethodPut, c.endpoint(taskPath(id), nil), patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete task", http.MethodDelete, c.endpoint(taskPath(id), nil), nil, nil)
}

// BulkUpdateStatus sets the status of every listed task.
func (c *Client) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (*BulkResult, error) {
	body := struct {
		TaskIDs []int64       `json:"task_ids"`
		Status  domain.Status `json:"status"`
	}{ids, status}
	var res BulkResult
	if err := c.do(ctx, "bulk update status", http.MethodPost, c.endpoint("/tasks/bulk_update_status/", nil), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BulkUpdatePriority sets the priority of every listed task.
func (c *Client) BulkUpdatePriority(ctx context.Context, ids []int64, priority domain.Priority) (*BulkResult, error) {
	body := struct {
		TaskIDs  []int64         `json:"task_ids"`
		Priority domain.Priority `json:"priority"`
	}{ids, priority}
	var res BulkResult
	if err := c.do(ctx, "bulk update priority", http.MethodPost, c.endpoint("/tasks/bulk_update_priority/", nil), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Statistics fetches task counts.
func (c *Client) Statistics(ctx context.Context) (*domain.Statistics, error) {
	var stats domain.Statistics
	if err := c.do(ctx, "get statistics", http.MethodGet, c.endpoint("/tasks/statistics/", nil), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) do(ctx context.Context, op, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Kind: ValidationFailure, Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &Error{Op: op, Kind: NetworkFailure, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := c.keys.APIKey(); key != "" {
		req.Header.Set(APIKeyHeader, key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed", "op", op, redact.Attr(err))
		return &Error{Op: op, Kind: NetworkFailure, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(op, resp)
		c.logger.DebugContext(ctx, "request rejected",
			"op", op,
			"status", resp.StatusCode,
			"kind", apiErr.Kind.String())
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Kind: ServerFailure, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorBody is the error envelope returned by the API.
type errorBody struct {
	Error      string            `json:"error"`
	Fields     map[string]string `json:"fields"`
	RetryAfter int               `json:"retry_after"`
}

func decodeError(op string, resp *http.Response) *Error {
	e := &Error{
		Op:         op,
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	var body errorBody
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(raw) > 0 {
		if jsonErr := json.Unmarshal(raw, &body); jsonErr != nil {
			body = errorBody{}
		}
	}
	e.Message = body.Error
	e.Fields = body.Fields

	if e.Kind == RateLimitFailure {
		e.RetryAfter = retryAfter(resp.Header.Get("Retry-After"), body.RetryAfter)
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	e.Err = errors.New(e.Message)
	return e
}

func retryAfter(header string, fallback int) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if fallback > 0 {
		return time.Duration(fallback) * time.Second
	}
	return 0
}
