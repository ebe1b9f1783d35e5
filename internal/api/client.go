// Package api is the HTTP client for the remote blog API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/media"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/rs/zerolog"
)

var apiLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	apiLogger = l.With().Str("component", "api").Logger()
}

// TokenSource supplies the bearer token for authenticated calls. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()
	postMethod     string
	createPath     string
	uploadEndpoint string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHook registers fn to run when a mutating call is rejected
// with 401.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithPostMethod(method string) Option {
	return func(c *Client) { c.postMethod = strings.ToUpper(method) }
}

func WithCreatePath(path string) Option {
	return func(c *Client) { c.createPath = path }
}

// WithUploadEndpoint selects /api/upload-<name>; the multipart field carries
// the same name.
func WithUploadEndpoint(name string) Option {
	return func(c *Client) { c.uploadEndpoint = name }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     &http.Client{},
		postMethod:     http.MethodPost,
		createPath:     "/api/new-post/",
		uploadEndpoint: "file",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the api and upload sections.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	base := []Option{
		WithTimeout(time.Duration(cfg.API.TimeoutSeconds) * time.Second),
		WithPostMethod(cfg.API.PostMethod),
		WithCreatePath(cfg.API.CreatePath),
		WithUploadEndpoint(cfg.Upload.Endpoint),
	}
	return New(cfg.API.BaseURL, append(base, opts...)...)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request for %s: %w", method, path, err)
	}
	req.Header.Set("Accept", config.CTypeJSON)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set(config.HAuthorization, "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set(config.HCType, config.CTypeJSON)
	return req, nil
}

// do executes req and decodes a 2xx JSON body into out. It returns the
// response status so callers can tell 200 from 202.
func (c *Client) do(req *http.Request, mutating bool, out any) (int, error) {
	log := apiLogger.With().Str("method", req.Method).Str("path", req.URL.Path).Logger()
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Request to blog API failed")
		return 0, fmt.Errorf("failed to execute %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("Blog API responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := newStatusError(resp.StatusCode, body)
		if mutating && resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			log.Warn().Msg("Session rejected by blog API")
			c.onUnauthorized()
		}
		return resp.StatusCode, se
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			log.Error().Err(err).Msg("Failed to decode blog API response")
			return resp.StatusCode, fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]model.Post, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/posts", nil)
	if err != nil {
		return nil, err
	}

	var posts []model.Post
	if _, err := c.do(req, false, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) GetPost(ctx context.Context, id model.PostID) (*model.Post, error) {
	req, err := c.newRequest(ctx, c.postMethod, "/api/posts/"+url.PathEscape(string(id)), nil)
	if err != nil {
		return nil, err
	}

	var post model.Post
	if _, err := c.do(req, false, &post); err != nil {
		return nil, err
	}
	if post.ID == "" {
		post.ID = id
	}
	return &post, nil
}

// CreatePost submits a new post under slug. A 409 carries the server's
// duplicate-slug message.
func (c *Client) CreatePost(ctx context.Context, slug string, post model.NewPost) (*model.CreatedPost, error) {
	path := strings.TrimSuffix(c.createPath, "/") + "/" + url.PathEscape(slug)
	req, err := c.newJSONRequest(ctx, http.MethodPost, path, post)
	if err != nil {
		return nil, err
	}

	var created model.CreatedPost
	if _, err := c.do(req, true, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

type LoginResult struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/login", payload)
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if _, err := c.do(req, false, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Page fetches a standalone page such as "about" or "contact".
func (c *Client) Page(ctx context.Context, name string) (*model.Page, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}

	var page model.Page
	if _, err := c.do(req, false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Upload sends every file in one multipart request to the configured upload
// endpoint.
func (c *Client) Upload(ctx context.Context, files []model.File) (*model.UploadBatch, error) {
	return c.upload(ctx, c.uploadEndpoint, files)
}

// UploadAs sends one file to the endpoint for its media category.
func (c *Client) UploadAs(ctx context.Context, category media.Category, file model.File) (*model.UploadBatch, error) {
	endpoint := "file"
	switch category {
	case media.Image:
		endpoint = "image"
	case media.Video:
		endpoint = "video"
	case media.Audio:
		endpoint = "audio"
	}
	return c.upload(ctx, endpoint, []model.File{file})
}

func (c *Client) upload(ctx context.Context, endpoint string, files []model.File) (*model.UploadBatch, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		if err := writeFilePart(mw, endpoint, f); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload-"+endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(config.HCType, mw.FormDataContentType())

	var raw json.RawMessage
	status, err := c.do(req, true, &raw)
	if err != nil {
		return nil, err
	}

	results, err := decodeUploadResults(raw, files)
	if err != nil {
		return nil, err
	}
	return &model.UploadBatch{Results: results, Partial: status == http.StatusAccepted}, nil
}

func writeFilePart(mw *multipart.Writer, field string, f model.File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set(config.HCType, contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", f.Name, err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return fmt.Errorf("failed to write part for %s: %w", f.Name, err)
	}
	return nil
}

// decodeUploadResults accepts both the batch array and the single {url}
// object. A single result without a file name is attributed to the only file
// sent.
func decodeUploadResults(raw json.RawMessage, files []model.File) ([]model.UploadResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var results []model.UploadResult
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, fmt.Errorf("failed to decode upload results: %w", err)
		}
		return results, nil
	}

	var single model.UploadResult
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("failed to decode upload result: %w", err)
	}
	if single.URL == "" {
		return nil, nil
	}
	if single.FileName == "" && len(files) == 1 {
		single.FileName = files[0].Name
	}
	return []model.UploadResult{single}, nil
}
