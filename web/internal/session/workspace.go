package session

import "net/http"

const (
	inputKey         = "ws_input"
	latexKey         = "ws_latex"
	templateIDKey    = "ws_template_id"
	templateDraftKey = "ws_template_draft"
)

// Workspace is the tool view state carried between form posts
type Workspace struct {
	Input         string
	Latex         string
	TemplateID    string
	TemplateDraft string
}

// Workspace loads the tool view state; missing fields are empty
func (m *Manager) Workspace(r *http.Request) Workspace {
	s := m.store(r)
	return Workspace{
		Input:         stringValue(s, inputKey),
		Latex:         stringValue(s, latexKey),
		TemplateID:    stringValue(s, templateIDKey),
		TemplateDraft: stringValue(s, templateDraftKey),
	}
}

// SaveWorkspace replaces the tool view state
func (m *Manager) SaveWorkspace(r *http.Request, w http.ResponseWriter, ws Workspace) error {
	s := m.store(r)
	s.Values[inputKey] = ws.Input
	s.Values[latexKey] = ws.Latex
	s.Values[templateIDKey] = ws.TemplateID
	s.Values[templateDraftKey] = ws.TemplateDraft
	return s.Save(r, w)
}
