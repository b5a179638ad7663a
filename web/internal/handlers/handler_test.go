package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devilmonastery/cvforge/internal/api"
	"github.com/devilmonastery/cvforge/internal/templates"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "backend detail",
			err:  &api.Error{StatusCode: http.StatusUnprocessableEntity, Detail: "input_text is required"},
			want: "Editing failed: input_text is required",
		},
		{
			name: "forbidden without detail",
			err:  &api.Error{StatusCode: http.StatusForbidden},
			want: "Editing failed: you are not allowed to do this.",
		},
		{
			name: "status only",
			err:  fmt.Errorf("wrapped: %w", &api.Error{StatusCode: http.StatusBadGateway}),
			want: "Editing failed: the service returned Bad Gateway.",
		},
		{
			name: "timeout",
			err:  fmt.Errorf("POST /api/edit failed: %w", context.DeadlineExceeded),
			want: "Editing took too long. Please try again.",
		},
		{
			name: "transport",
			err:  errors.New("dial tcp: connection refused"),
			want: "Editing failed: the service is unavailable. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage("Editing", tt.err))
		})
	}
}

func TestPDFFilename(t *testing.T) {
	for _, tpl := range templates.All() {
		name := pdfFilename(tpl)
		assert.Regexp(t, `^cv-[a-z0-9-]+\.pdf$`, name, tpl.ID)
	}

	modern, ok := templates.Lookup("modern")
	assert.True(t, ok)
	assert.Equal(t, "cv-modern.pdf", pdfFilename(modern))
}

func TestSelectTemplate(t *testing.T) {
	assert.Equal(t, "minimal", selectTemplate("minimal").ID)
	assert.Equal(t, templates.Default().ID, selectTemplate("").ID)
	assert.Equal(t, templates.Default().ID, selectTemplate("../../etc/passwd").ID)
}
