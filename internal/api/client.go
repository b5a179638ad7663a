package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devilmonastery/cvforge/internal/pkg/idgen"
)

const (
	contentTypeJSON = "application/json"
	contentTypePDF  = "application/pdf"

	defaultPDFName = "cv.pdf"
)

// Client calls the CV generation backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	transport  http.RoundTripper // shared, instrumented
	timeout    time.Duration
	tokens     TokenProvider
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTransport sets the base transport (default http.DefaultTransport)
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithTimeout bounds every call; zero means calls are bounded only by their context
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for token lookup diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTokens sets the token provider consulted before every request
func WithTokens(tp TokenProvider) Option {
	return func(c *Client) { c.tokens = tp }
}

// New creates a client for the backend API rooted at baseURL,
// e.g. "http://backend:8000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(slog.String("component", "api_client"))
	c.transport = NewMetricsTransport(c.transport)
	c.httpClient = c.newHTTPClient()
	return c
}

// WithTokenProvider returns a copy of c that authenticates with tp.
// The copy shares the underlying transport and its connection pool.
func (c *Client) WithTokenProvider(tp TokenProvider) *Client {
	clone := *c
	clone.tokens = tp
	clone.httpClient = clone.newHTTPClient()
	return &clone
}

func (c *Client) newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: c.timeout,
		Transport: &authTransport{
			base:   c.transport,
			tokens: c.tokens,
			host:   c.host(),
			log:    c.log,
		},
	}
}

// host is the authority of the API root, e.g. "backend:8000"
func (c *Client) host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// BaseURL returns the API root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetTemplate fetches a template's LaTeX source. An empty id selects the default template.
func (c *Client) GetTemplate(ctx context.Context, id string) (*TemplateContent, error) {
	var query url.Values
	if id != "" {
		query = url.Values{"id": {id}}
	}

	var out TemplateContent
	if err := c.doJSON(ctx, http.MethodGet, "/template", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTemplate replaces the default template with content
func (c *Client) UpdateTemplate(ctx context.Context, content string) (*UpdateResult, error) {
	var out UpdateResult
	if err := c.doJSON(ctx, http.MethodPut, "/template", nil, TemplateContent{Template: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTemplates lists the templates the backend can fill
func (c *Client) ListTemplates(ctx context.Context) ([]BackendTemplate, error) {
	var out templateList
	if err := c.doJSON(ctx, http.MethodGet, "/templates", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Templates, nil
}

// GenerateLatex turns free-form input into a LaTeX document
func (c *Client) GenerateLatex(ctx context.Context, req GenerateRequest) (*LatexDocument, error) {
	var out LatexDocument
	if err := c.doJSON(ctx, http.MethodPost, "/generate", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenderPDF compiles LaTeX into a PDF
func (c *Client) RenderPDF(ctx context.Context, latex string) (*PDF, error) {
	return c.doBinary(ctx, http.MethodPost, "/render", RenderRequest{Latex: latex})
}

// GeneratePDF generates and compiles in a single backend call
func (c *Client) GeneratePDF(ctx context.Context, req GenerateRequest) (*PDF, error) {
	return c.doBinary(ctx, http.MethodPost, "/generate-pdf", req)
}

// EditLatex applies a natural-language instruction to a LaTeX document
func (c *Client) EditLatex(ctx context.Context, latex, instruction string) (*LatexDocument, error) {
	var out LatexDocument
	body := EditRequest{Latex: latex, Instruction: instruction}
	if err := c.doJSON(ctx, http.MethodPost, "/edit", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportLinkedIn generates a LaTeX document from a public LinkedIn profile
func (c *Client) ImportLinkedIn(ctx context.Context, req LinkedInRequest) (*LatexDocument, error) {
	var out LatexDocument
	if err := c.doJSON(ctx, http.MethodPost, "/import/linkedin", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks backend liveness
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req, err := c.newRequest(ctx, method, path, query, in, contentTypeJSON)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) doBinary(ctx context.Context, method, path string, in any) (*PDF, error) {
	req, err := c.newRequest(ctx, method, path, nil, in, contentTypePDF)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, req.URL.Path, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypePDF
	}
	return &PDF{
		Data:        data,
		ContentType: contentType,
		Filename:    attachmentFilename(resp.Header.Get("Content-Disposition")),
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, in any, accept string) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s %s request: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	req.Header.Set("Accept", accept)

	_, requestID := idgen.EnsureRequestID(ctx)
	req.Header.Set(idgen.RequestIDHeader, requestID)

	return req, nil
}

// do sends req and turns non-2xx responses into *Error
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newError(req, resp)
	}
	return resp, nil
}

// attachmentFilename extracts the filename from a Content-Disposition header
func attachmentFilename(disposition string) string {
	if disposition == "" {
		return defaultPDFName
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return defaultPDFName
	}
	return params["filename"]
}
