package handlers

import (
	"net/http"

	"github.com/devilmonastery/cvforge/internal/templates"
)

// Landing renders the public start page
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	data := h.newTemplateData(w, r)
	data["Copy"] = h.landingCopy
	data["Templates"] = templates.All()
	h.renderTemplate(w, http.StatusOK, "landing.html", data)
}
