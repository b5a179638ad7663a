package handlers

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/devilmonastery/cvforge/internal/api"
	"github.com/devilmonastery/cvforge/internal/templates"
	"github.com/devilmonastery/cvforge/web/internal/session"
)

// maxFormBytes bounds a tool form post; LaTeX documents and templates are plain text
const maxFormBytes = 2 << 20

// Tool renders the generator page with the user's current workspace
func (h *Handler) Tool(w http.ResponseWriter, r *http.Request) {
	ws := h.sessionManager.Workspace(r)

	data := h.newTemplateData(w, r)
	data["Templates"] = templates.All()
	data["SelectedTemplate"] = selectTemplate(ws.TemplateID).ID
	data["Workspace"] = ws
	h.renderTemplate(w, http.StatusOK, "tool.html", data)
}

// Generate turns the submitted text into LaTeX and keeps it in the workspace
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.parseToolForm(w, r)
	if !ok {
		return
	}

	input := strings.TrimSpace(r.PostFormValue("input_text"))
	tpl := selectTemplate(r.PostFormValue("template_id"))
	ws.Input = input
	ws.TemplateID = tpl.ID
	if input == "" {
		h.saveWorkspace(w, r, ws)
		h.flash(w, r, session.FlashError, "Please enter your CV text first.")
		return
	}

	req := api.GenerateRequest{InputText: input, TemplateID: tpl.ID}
	if r.PostFormValue("use_draft") != "" {
		req.TemplateOverride = ws.TemplateDraft
	}

	doc, err := h.getClient(w, r).GenerateLatex(r.Context(), req)
	if err != nil {
		h.saveWorkspace(w, r, ws)
		h.handleAPIError(w, r, "Generating LaTeX", err)
		return
	}

	ws.Latex = doc.Latex
	h.saveWorkspace(w, r, ws)
	h.flash(w, r, session.FlashInfo, "Your LaTeX document is ready. Edit it below or download the PDF.")
}

// GeneratePDF generates and compiles in one step, sending the PDF as a download
func (h *Handler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.parseToolForm(w, r)
	if !ok {
		return
	}

	input := strings.TrimSpace(r.PostFormValue("input_text"))
	tpl := selectTemplate(r.PostFormValue("template_id"))
	ws.Input = input
	ws.TemplateID = tpl.ID
	h.saveWorkspace(w, r, ws)
	if input == "" {
		h.flash(w, r, session.FlashError, "Please enter your CV text first.")
		return
	}

	pdf, err := h.getClient(w, r).GeneratePDF(r.Context(), api.GenerateRequest{InputText: input, TemplateID: tpl.ID})
	if err != nil {
		h.handleAPIError(w, r, "Generating the PDF", err)
		return
	}
	h.sendPDF(w, pdf, tpl)
}

// Render compiles the submitted LaTeX, sending the PDF as a download
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.parseToolForm(w, r)
	if !ok {
		return
	}

	latex := r.PostFormValue("latex")
	ws.Latex = latex
	h.saveWorkspace(w, r, ws)
	if strings.TrimSpace(latex) == "" {
		h.flash(w, r, session.FlashError, "There is no LaTeX to render yet.")
		return
	}

	pdf, err := h.getClient(w, r).RenderPDF(r.Context(), latex)
	if err != nil {
		h.handleAPIError(w, r, "Rendering the PDF", err)
		return
	}
	h.sendPDF(w, pdf, selectTemplate(ws.TemplateID))
}

// Edit applies a plain-language instruction to the workspace LaTeX
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.parseToolForm(w, r)
	if !ok {
		return
	}

	ws.Latex = r.PostFormValue("latex")
	instruction := strings.TrimSpace(r.PostFormValue("instruction"))
	switch {
	case strings.TrimSpace(ws.Latex) == "":
		h.saveWorkspace(w, r, ws)
		h.flash(w, r, session.FlashError, "There is no LaTeX to edit yet.")
		return
	case instruction == "":
		h.saveWorkspace(w, r, ws)
		h.flash(w, r, session.FlashError, "Describe the change you want first.")
		return
	}

	doc, err := h.getClient(w, r).EditLatex(r.Context(), ws.Latex, instruction)
	if err != nil {
		h.saveWorkspace(w, r, ws)
		h.handleAPIError(w, r, "Editing", err)
		return
	}

	ws.Latex = doc.Latex
	h.saveWorkspace(w, r, ws)
	h.flash(w, r, session.FlashInfo, "Change applied.")
}

// Import generates LaTeX from a public LinkedIn profile
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.parseToolForm(w, r)
	if !ok {
		return
	}

	profileURL := strings.TrimSpace(r.PostFormValue("url"))
	tpl := selectTemplate(r.PostFormValue("template_id"))
	ws.TemplateID = tpl.ID
	if profileURL == "" {
		h.saveWorkspace(w, r, ws)
		h.flash(w, r, session.FlashError, "Please enter a LinkedIn profile URL.")
		return
	}

	doc, err := h.getClient(w, r).ImportLinkedIn(r.Context(), api.LinkedInRequest{URL: profileURL, TemplateID: tpl.ID})
	if err != nil {
		h.saveWorkspace(w, r, ws)
		h.handleAPIError(w, r, "Importing the profile", err)
		return
	}

	ws.Latex = doc.Latex
	h.saveWorkspace(w, r, ws)
	h.flash(w, r, session.FlashInfo, "Profile imported.")
}

// LoadTemplate copies a backend template into the template editor
func (h *Handler) LoadTemplate(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.parseToolForm(w, r)
	if !ok {
		return
	}

	id := r.PostFormValue("id")
	if tpl, ok := templates.Lookup(id); ok {
		ws.TemplateID = tpl.ID
	}

	content, err := h.getClient(w, r).GetTemplate(r.Context(), id)
	if api.IsNotFound(err) {
		h.log.Warn("template unknown to the backend", slog.String("template", id))
		h.flash(w, r, session.FlashError, "The backend has no template \""+id+"\".")
		return
	}
	if err != nil {
		h.handleAPIError(w, r, "Loading the template", err)
		return
	}

	ws.TemplateDraft = content.Template
	h.saveWorkspace(w, r, ws)
	h.flash(w, r, session.FlashInfo, "Template loaded into the editor.")
}

// SaveTemplate keeps the editor content as a draft, or replaces the backend's default template
func (h *Handler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.parseToolForm(w, r)
	if !ok {
		return
	}

	ws.TemplateDraft = r.PostFormValue("template")
	h.saveWorkspace(w, r, ws)

	if r.PostFormValue("action") != "save" {
		h.flash(w, r, session.FlashInfo, "Draft kept. Tick \"Use my edited template\" to generate with it.")
		return
	}
	if strings.TrimSpace(ws.TemplateDraft) == "" {
		h.flash(w, r, session.FlashError, "The template is empty.")
		return
	}

	result, err := h.getClient(w, r).UpdateTemplate(r.Context(), ws.TemplateDraft)
	if err != nil {
		h.handleAPIError(w, r, "Saving the template", err)
		return
	}

	h.log.Info("default template replaced", slog.String("status", result.Status))
	h.flash(w, r, session.FlashInfo, "Default template saved.")
}

// parseToolForm reads a bounded form body and the current workspace
func (h *Handler) parseToolForm(w http.ResponseWriter, r *http.Request) (session.Workspace, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.log.Warn("invalid tool form", slog.String("error", err.Error()))
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return session.Workspace{}, false
	}
	return h.sessionManager.Workspace(r), true
}

func (h *Handler) saveWorkspace(w http.ResponseWriter, r *http.Request, ws session.Workspace) {
	if err := h.sessionManager.SaveWorkspace(r, w, ws); err != nil {
		h.log.Error("failed to save workspace", slog.String("error", err.Error()))
	}
}

// sendPDF streams pdf as a download named after the template, e.g. cv-modern.pdf
func (h *Handler) sendPDF(w http.ResponseWriter, pdf *api.PDF, tpl templates.Descriptor) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": pdfFilename(tpl),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf.Data); err != nil {
		h.log.Debug("failed to stream PDF", slog.String("error", err.Error()))
	}
}

func pdfFilename(tpl templates.Descriptor) string {
	return slug.Make("cv "+tpl.Name) + ".pdf"
}

// selectTemplate resolves a submitted template id, falling back to the default
func selectTemplate(id string) templates.Descriptor {
	if tpl, ok := templates.Lookup(id); ok {
		return tpl
	}
	return templates.Default()
}
