package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/cvforge/internal/pkg/idgen"
)

// recordedRequest captures what the fake backend received
type recordedRequest struct {
	Method        string
	Path          string
	Query         string
	Body          string
	Authorization string
	Accept        string
	ContentType   string
	RequestID     string
}

type fakeBackend struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeBackend(t *testing.T, handler http.HandlerFunc) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	fb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Body:          string(body),
			Authorization: r.Header.Get("Authorization"),
			Accept:        r.Header.Get("Accept"),
			ContentType:   r.Header.Get("Content-Type"),
			RequestID:     r.Header.Get(idgen.RequestIDHeader),
		})
		fb.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.NotEmpty(t, fb.requests, "backend received no requests")
	return fb.requests[len(fb.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestJSONEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		call       func(ctx context.Context, c *Client) (any, error)
		response   any
		wantMethod string
		wantPath   string
		wantQuery  string
		wantBody   string
		want       any
	}{
		{
			name: "fetch template",
			call: func(ctx context.Context, c *Client) (any, error) {
				return c.GetTemplate(ctx, "")
			},
			response:   map[string]string{"template": `\documentclass{article}`},
			wantMethod: http.MethodGet,
			wantPath:   "/api/template",
			want:       &TemplateContent{Template: `\documentclass{article}`},
		},
		{
			name: "fetch template by id",
			call: func(ctx context.Context, c *Client) (any, error) {
				return c.GetTemplate(ctx, "modern")
			},
			response:   map[string]string{"template": "modern"},
			wantMethod: http.MethodGet,
			wantPath:   "/api/template",
			wantQuery:  "id=modern",
			want:       &TemplateContent{Template: "modern"},
		},
		{
			name: "update template",
			call: func(ctx context.Context, c *Client) (any, error) {
				return c.UpdateTemplate(ctx, `\begin{document}\end{document}`)
			},
			response:   map[string]string{"status": "updated"},
			wantMethod: http.MethodPut,
			wantPath:   "/api/template",
			wantBody:   `{"template":"\\begin{document}\\end{document}"}`,
			want:       &UpdateResult{Status: "updated"},
		},
		{
			name: "generate latex with template id and override",
			call: func(ctx context.Context, c *Client) (any, error) {
				return c.GenerateLatex(ctx, GenerateRequest{InputText: "Jane", TemplateID: "minimal", TemplateOverride: "tpl"})
			},
			response:   map[string]string{"latex": "doc"},
			wantMethod: http.MethodPost,
			wantPath:   "/api/generate",
			wantBody:   `{"input_text":"Jane","template_id":"minimal","template_override":"tpl"}`,
			want:       &LatexDocument{Latex: "doc"},
		},
		{
			name: "generate latex omits empty optionals",
			call: func(ctx context.Context, c *Client) (any, error) {
				return c.GenerateLatex(ctx, GenerateRequest{InputText: "Jane"})
			},
			response:   map[string]string{"latex": "doc"},
			wantMethod: http.MethodPost,
			wantPath:   "/api/generate",
			wantBody:   `{"input_text":"Jane"}`,
			want:       &LatexDocument{Latex: "doc"},
		},
		{
			name: "edit latex",
			call: func(ctx context.Context, c *Client) (any, error) {
				return c.EditLatex(ctx, "old", "make it shorter")
			},
			response:   map[string]string{"latex": "new"},
			wantMethod: http.MethodPost,
			wantPath:   "/api/edit",
			wantBody:   `{"latex":"old","instruction":"make it shorter"}`,
			want:       &LatexDocument{Latex: "new"},
		},
		{
			name: "import linkedin",
			call: func(ctx context.Context, c *Client) (any, error) {
				return c.ImportLinkedIn(ctx, LinkedInRequest{URL: "https://www.linkedin.com/in/jane", TemplateID: "modern"})
			},
			response:   map[string]string{"latex": "imported"},
			wantMethod: http.MethodPost,
			wantPath:   "/api/import/linkedin",
			wantBody:   `{"url":"https://www.linkedin.com/in/jane","template_id":"modern"}`,
			want:       &LatexDocument{Latex: "imported"},
		},
		{
			name: "list templates",
			call: func(ctx context.Context, c *Client) (any, error) {
				return c.ListTemplates(ctx)
			},
			response: map[string]any{"templates": []map[string]string{
				{"id": "cv_template", "name": "Cv Template", "source": "builtin"},
			}},
			wantMethod: http.MethodGet,
			wantPath:   "/api/templates",
			want:       []BackendTemplate{{ID: "cv_template", Name: "Cv Template", Source: "builtin"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.response)
			})
			c := New(fb.URL + "/api")

			got, err := tt.call(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			req := fb.last(t)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantPath, req.Path)
			assert.Equal(t, tt.wantQuery, req.Query)
			assert.Equal(t, "application/json", req.Accept)
			if tt.wantBody == "" {
				assert.Empty(t, req.Body)
				assert.Empty(t, req.ContentType)
			} else {
				assert.JSONEq(t, tt.wantBody, req.Body)
				assert.Equal(t, "application/json", req.ContentType)
			}
			assert.NotEmpty(t, req.RequestID)
		})
	}
}

func TestGeneratePDFSendsOnlyInputText(t *testing.T) {
	pdfBytes := []byte("%PDF-1.5\n\x00\x01binary")
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="cv.pdf"`)
		_, _ = w.Write(pdfBytes)
	})
	c := New(fb.URL + "/api")

	pdf, err := c.GeneratePDF(context.Background(), GenerateRequest{InputText: "John Doe, Engineer"})
	require.NoError(t, err)

	req := fb.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/generate-pdf", req.Path)
	assert.JSONEq(t, `{"input_text":"John Doe, Engineer"}`, req.Body)
	assert.Equal(t, "application/pdf", req.Accept)

	assert.Equal(t, pdfBytes, pdf.Data)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.Equal(t, "cv.pdf", pdf.Filename)
}

func TestRenderPDF(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF"))
	})
	c := New(fb.URL + "/api/")

	pdf, err := c.RenderPDF(context.Background(), `\documentclass{article}`)
	require.NoError(t, err)

	req := fb.last(t)
	assert.Equal(t, "/api/render", req.Path)
	assert.JSONEq(t, `{"latex":"\\documentclass{article}"}`, req.Body)
	assert.Equal(t, []byte("%PDF"), pdf.Data)
	assert.Equal(t, "cv.pdf", pdf.Filename, "missing Content-Disposition falls back to default name")
}

func TestHealth(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	require.NoError(t, New(fb.URL+"/api").Health(context.Background()))
	assert.Equal(t, "/api/health", fb.last(t).Path)
}

func TestBearerTokenAttachment(t *testing.T) {
	tests := []struct {
		name     string
		tokens   TokenProvider
		wantAuth string
	}{
		{
			name:     "token attached",
			tokens:   StaticToken("abc.def.ghi"),
			wantAuth: "Bearer abc.def.ghi",
		},
		{
			name:   "no provider",
			tokens: nil,
		},
		{
			name:   "empty token",
			tokens: StaticToken(""),
		},
		{
			name: "provider fails",
			tokens: TokenProviderFunc(func(context.Context) (string, error) {
				return "", errors.New("login required")
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"latex": "ok"})
			})
			c := New(fb.URL+"/api", WithTokens(tt.tokens))

			_, err := c.EditLatex(context.Background(), "x", "y")
			require.NoError(t, err, "token failures must not fail the request")
			assert.Equal(t, tt.wantAuth, fb.last(t).Authorization)
		})
	}
}

func TestTokenNotSentAcrossRedirectToOtherHost(t *testing.T) {
	foreign := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF"))
	})
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, foreign.URL+"/stolen", http.StatusFound)
	})
	c := New(fb.URL+"/api", WithTokens(StaticToken("secret-token")))

	_, err := c.RenderPDF(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", fb.last(t).Authorization)
	assert.Equal(t, "/stolen", foreign.last(t).Path)
	assert.Empty(t, foreign.last(t).Authorization)
}

func TestTokenKeptOnSameHostRedirect(t *testing.T) {
	var fb *fakeBackend
	fb = newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/template" {
			http.Redirect(w, r, fb.URL+"/api/v2/template", http.StatusFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"template": "t"})
	})
	c := New(fb.URL+"/api", WithTokens(StaticToken("tok")))

	_, err := c.GetTemplate(context.Background(), "")
	require.NoError(t, err)

	req := fb.last(t)
	assert.Equal(t, "/api/v2/template", req.Path)
	assert.Equal(t, "Bearer tok", req.Authorization)
}

func TestWithTokenProviderDoesNotAffectParent(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"template": "t"})
	})
	parent := New(fb.URL + "/api")
	child := parent.WithTokenProvider(StaticToken("child-token"))

	_, err := child.GetTemplate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer child-token", fb.last(t).Authorization)

	_, err = parent.GetTemplate(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, fb.last(t).Authorization)
}

func TestTokenProviderReceivesCallContext(t *testing.T) {
	type ctxKey struct{}
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"latex": "ok"})
	})

	var seen any
	c := New(fb.URL+"/api", WithTokens(TokenProviderFunc(func(ctx context.Context) (string, error) {
		seen = ctx.Value(ctxKey{})
		return "t", nil
	})))

	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	_, err := c.GenerateLatex(ctx, GenerateRequest{InputText: "x"})
	require.NoError(t, err)
	assert.Equal(t, "marker", seen)
}

func TestRequestIDPropagation(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"latex": "ok"})
	})
	c := New(fb.URL + "/api")

	ctx := idgen.WithRequestID(context.Background(), "req-42")
	_, err := c.GenerateLatex(ctx, GenerateRequest{InputText: "x"})
	require.NoError(t, err)
	assert.Equal(t, "req-42", fb.last(t).RequestID)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantDetail   string
		unauthorized bool
		notFound     bool
	}{
		{
			name:         "unauthorized with detail",
			status:       http.StatusUnauthorized,
			body:         `{"detail":"Missing bearer token"}`,
			wantDetail:   "Missing bearer token",
			unauthorized: true,
		},
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"detail":"Template not found: fancy"}`,
			wantDetail: "Template not found: fancy",
			notFound:   true,
		},
		{
			name:       "validation error list",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail":[{"loc":["body","input_text"],"msg":"field required"}]}`,
			wantDetail: `[{"loc":["body","input_text"],"msg":"field required"}]`,
		},
		{
			name:       "plain text body",
			status:     http.StatusBadGateway,
			body:       "upstream unavailable\n",
			wantDetail: "upstream unavailable",
		},
		{
			name:   "empty body",
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			c := New(fb.URL + "/api")

			_, err := c.GenerateLatex(context.Background(), GenerateRequest{InputText: "x"})
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, http.MethodPost, apiErr.Method)
			assert.Equal(t, "/api/generate", apiErr.Path)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.unauthorized, IsUnauthorized(err))
			assert.Equal(t, tt.notFound, IsNotFound(err))
		})
	}
}

func TestBinaryEndpointError(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "LaTeX compilation failed"})
	})
	c := New(fb.URL + "/api")

	pdf, err := c.RenderPDF(context.Background(), "broken")
	assert.Nil(t, pdf)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "LaTeX compilation failed", apiErr.Detail)
	assert.Contains(t, err.Error(), "500")
}

func TestTransportFailurePropagates(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	url := fb.URL
	fb.Close()

	_, err := New(url+"/api").GetTemplate(context.Background(), "")
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr), "transport errors are not backend errors")
}

func TestCanceledContext(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"latex": "ok"})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fb.URL+"/api").GenerateLatex(ctx, GenerateRequest{InputText: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttachmentFilename(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{``, "cv.pdf"},
		{`attachment; filename="resume.pdf"`, "resume.pdf"},
		{`attachment; filename=plain.pdf`, "plain.pdf"},
		{`attachment`, "cv.pdf"},
		{`;;;`, "cv.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, attachmentFilename(tt.header))
		})
	}
}
