package api

// GenerateRequest is the payload for LaTeX and PDF generation.
// Optional fields are omitted from the request body when empty.
type GenerateRequest struct {
	InputText        string `json:"input_text"`
	TemplateID       string `json:"template_id,omitempty"`
	TemplateOverride string `json:"template_override,omitempty"`
}

// LinkedInRequest is the payload for importing a public LinkedIn profile
type LinkedInRequest struct {
	URL              string `json:"url"`
	TemplateID       string `json:"template_id,omitempty"`
	TemplateOverride string `json:"template_override,omitempty"`
}

// EditRequest asks the backend to revise a LaTeX document
type EditRequest struct {
	Latex       string `json:"latex"`
	Instruction string `json:"instruction"`
}

// RenderRequest asks the backend to compile LaTeX into a PDF
type RenderRequest struct {
	Latex string `json:"latex"`
}

// TemplateContent is the raw LaTeX source of a template
type TemplateContent struct {
	Template string `json:"template"`
}

// UpdateResult is returned after replacing the default template
type UpdateResult struct {
	Status string `json:"status"`
}

// LatexDocument is a generated or edited LaTeX document
type LatexDocument struct {
	Latex string `json:"latex"`
}

// BackendTemplate describes a template file known to the backend
type BackendTemplate struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"` // "custom", "builtin" or "implicit"
}

type templateList struct {
	Templates []BackendTemplate `json:"templates"`
}

// PDF is a binary document returned by the render endpoints
type PDF struct {
	Data        []byte
	ContentType string
	Filename    string
}
