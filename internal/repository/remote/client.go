// Package remote implements the summary repository against the external
// dashboard API over HTTP.
package remote

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
	"time"

	"soda/internal/core"
	applog "soda/internal/log"
	"soda/internal/repository"
)

const maxErrorBody = 64 << 10

// Client talks to the dashboard API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *applog.Logger
}

var _ repository.Repository = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the client logger.
func WithLogger(l *applog.Logger) Option {
	return func(cl *Client) { cl.logger = l.WithComponent(applog.ComponentRemote) }
}

// New creates a client for the API rooted at baseURL, for example
// https://backend.example.com/api/dashboard.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create posts a new summary and returns the id the backend assigned, or ""
// when the response does not carry one.
func (c *Client) Create(ctx context.Context, f core.Fields) (string, error) {
	var created struct {
		ID  string `json:"_id"`
		Alt string `json:"id"`
	}
	body, err := c.do(ctx, repository.OpCreate, http.MethodPost, "/guardar", toFieldsDoc(f))
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(body, &created); err != nil {
		c.logger.DebugContext(ctx, "Create response carried no id", applog.FieldError, err)
	}
	if created.ID == "" {
		created.ID = created.Alt
	}
	c.logger.InfoContext(ctx, "Summary created", applog.FieldSummaryID, created.ID, applog.FieldSummaryDay, f.Date.String())
	return created.ID, nil
}

// ListAll fetches every summary.
func (c *Client) ListAll(ctx context.Context) ([]core.Summary, error) {
	body, err := c.do(ctx, repository.OpList, http.MethodGet, "/resumenes", nil)
	if err != nil {
		return nil, err
	}
	var docs []summaryDoc
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, &repository.Error{Op: repository.OpList, Message: "respuesta inválida del servidor", Err: err}
	}
	out := make([]core.Summary, 0, len(docs))
	for _, d := range docs {
		sum, unreadable := d.toSummary()
		if len(unreadable) > 0 {
			c.logger.DebugContext(ctx, "Unreadable amounts read as zero",
				applog.FieldSummaryID, d.ID,
				"fields", unreadable)
		}
		out = append(out, sum)
	}
	return out, nil
}

// Update replaces the fields of summary id.
func (c *Client) Update(ctx context.Context, id string, f core.Fields) error {
	_, err := c.do(ctx, repository.OpUpdate, http.MethodPut, "/"+url.PathEscape(id), toFieldsDoc(f))
	return err
}

// Delete removes summary id.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, repository.OpDelete, http.MethodDelete, "/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, &repository.Error{Op: op, Message: "no se pudo preparar la solicitud", Err: err}
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &repository.Error{Op: op, Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Backend unreachable", applog.FieldOperation, op, applog.FieldError, err)
		return nil, &repository.Error{Op: op, Message: "Network Error", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rerr := &repository.Error{Op: op, Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
		if resp.StatusCode == http.StatusNotFound && op != repository.OpList {
			rerr.Err = repository.ErrNotFound
		}
		c.logger.WarnContext(ctx, "Backend rejected request",
			applog.FieldOperation, op,
			applog.FieldStatusCode, resp.StatusCode,
			applog.FieldError, rerr.Message)
		return nil, rerr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &repository.Error{Op: op, Status: resp.StatusCode, Message: "respuesta incompleta del servidor", Err: err}
	}
	return body, nil
}

// errorMessage prefers a JSON "message" field, then the raw body, then the
// status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !isJSONObject(body) {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

func isJSONObject(body []byte) bool {
	var v map[string]json.RawMessage
	return json.Unmarshal(body, &v) == nil
}

// IsNotFound reports whether err means the summary does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
