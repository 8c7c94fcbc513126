package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"activation-code-admin/internal/domain/model"
)

// APIError is a non-2xx response translated into a typed failure. Message
// carries the backend-supplied text when the error body was parseable.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Wire shapes. Field names are the backend's JSON contract.

type codeDTO struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	IsUsed      bool       `json:"isUsed"`
	CreatedAt   time.Time  `json:"createdAt"`
	ActivatedAt *time.Time `json:"activatedAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	UserID      *string    `json:"userId"`
}

type listResponse struct {
	Codes         []codeDTO `json:"codes"`
	TotalCount    int       `json:"totalCount"`
	PageSize      int       `json:"pageSize"`
	NextSkipToken *int      `json:"nextSkipToken"`
	HasMore       bool      `json:"hasMore"`
}

type loginResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Token   *string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// CodePage is one page of codes plus the continuation state. NextSkipToken
// is opaque: it is forwarded to the next call, never interpreted.
type CodePage struct {
	Codes         []*model.ActivationCode
	TotalCount    int
	PageSize      int
	NextSkipToken *int
	HasMore       bool
}

// GenerateResult reports a bulk generation. Codes is empty for batches too
// large to inline; Note says so.
type GenerateResult struct {
	Message string   `json:"message"`
	Count   int      `json:"count"`
	Prefix  string   `json:"prefix"`
	Codes   []string `json:"codes"`
	Note    string   `json:"note"`
}

// BatchDeleteResult reports a dry-run preview or committed batch delete.
type BatchDeleteResult struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	MatchedCount int      `json:"matchedCount"`
	DeletedCount int      `json:"deletedCount"`
	MatchedCodes []string `json:"matchedCodes"`
	WasDryRun    bool     `json:"wasDryRun"`
}

// ListOptions narrows and positions a list-codes call.
type ListOptions struct {
	IsUsed    *bool
	SkipToken *int
	PageSize  int
}

// Client is the single authenticated gateway to the admin API. All calls
// except Login carry the bearer token from the injected TokenStore.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	log     *zerolog.Logger
}

func New(baseURL string, tokens TokenStore, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		log:     logger,
	}
}

// Login authenticates and persists the returned token. On failure the token
// store is left untouched.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", nil, body, &resp, false); err != nil {
		return "", err
	}
	if !resp.Success || resp.Token == nil {
		return "", &APIError{Status: http.StatusUnauthorized, Message: resp.Message}
	}
	if err := c.tokens.Save(*resp.Token); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}
	return resp.Message, nil
}

// Logout erases the stored token. The backend keeps no session state, so
// there is nothing to call.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error) {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/change-password", nil, body, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) ListCodes(ctx context.Context, opts ListOptions) (*CodePage, error) {
	q := url.Values{}
	if opts.IsUsed != nil {
		q.Set("isUsed", strconv.FormatBool(*opts.IsUsed))
	}
	if opts.SkipToken != nil {
		q.Set("skipToken", strconv.Itoa(*opts.SkipToken))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/codes", q, nil, &resp, true); err != nil {
		return nil, err
	}

	page := &CodePage{
		Codes:         make([]*model.ActivationCode, 0, len(resp.Codes)),
		TotalCount:    resp.TotalCount,
		PageSize:      resp.PageSize,
		NextSkipToken: resp.NextSkipToken,
		HasMore:       resp.HasMore,
	}
	for _, d := range resp.Codes {
		page.Codes = append(page.Codes, &model.ActivationCode{
			ID:          d.ID,
			Code:        d.Code,
			CreatedAt:   d.CreatedAt,
			ActivatedAt: d.ActivatedAt,
			ExpiresAt:   d.ExpiresAt,
			UserID:      d.UserID,
		})
	}
	return page, nil
}

func (c *Client) GenerateCodes(ctx context.Context, count int, prefix string) (*GenerateResult, error) {
	body := map[string]interface{}{"count": count}
	if prefix != "" {
		body["prefix"] = prefix
	}
	var resp GenerateResult
	if err := c.do(ctx, http.MethodPost, "/api/admin/generate-codes", nil, body, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Stats(ctx context.Context) (*model.CodeStats, error) {
	var resp model.CodeStats
	if err := c.do(ctx, http.MethodGet, "/api/admin/stats", nil, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteCode(ctx context.Context, code string) (string, error) {
	var resp messageResponse
	path := "/api/admin/codes/" + url.PathEscape(code)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) DeleteExpired(ctx context.Context) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodDelete, "/api/admin/codes/expired", nil, nil, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// BatchDelete sends an already-compiled pattern. Dry runs report matches
// without deleting anything.
func (c *Client) BatchDelete(ctx context.Context, pattern string, dryRun bool) (*BatchDeleteResult, error) {
	body := map[string]interface{}{"pattern": pattern, "dryRun": dryRun}
	var resp BatchDeleteResult
	if err := c.do(ctx, http.MethodPost, "/api/admin/codes/batch-delete", nil, body, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, authed bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, err := c.tokens.Load()
		if err != nil {
			return fmt.Errorf("load token: %w", err)
		}
		if token == "" {
			return &APIError{Status: http.StatusUnauthorized, Message: "not logged in"}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body, resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the backend's message field, falling back to a
// generic text when the body is not the expected JSON shape.
func errorMessage(r io.Reader, status int) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err == nil {
		var m messageResponse
		if json.Unmarshal(data, &m) == nil && m.Message != "" {
			return m.Message
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
