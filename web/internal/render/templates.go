package render

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// TemplateSet holds all parsed page templates.
// Each page is stored as a completely separate template.Template
// to avoid {{define "content"}} block collisions.
type TemplateSet struct {
	pages map[string]*template.Template
	mu    sync.RWMutex
}

// Execute renders the specified page template.
// pageName is the filename like "tool.html". The "base" layout is always executed
// and pulls the {{define "content"}}, {{define "title"}} blocks from that page.
func (ts *TemplateSet) Execute(w io.Writer, pageName string, data any) error {
	ts.mu.RLock()
	tmpl, ok := ts.pages[pageName]
	ts.mu.RUnlock()

	if !ok {
		return fmt.Errorf("template %q not found", pageName)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// Has checks if a template exists
func (ts *TemplateSet) Has(pageName string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	_, ok := ts.pages[pageName]
	return ok
}

// Names returns all available template names, sorted
func (ts *TemplateSet) Names() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	names := make([]string, 0, len(ts.pages))
	for name := range ts.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FuncMap returns the helpers available to every template
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"renderMarkdown": Markdown,
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil
				}
				dict[key] = values[i+1]
			}
			return dict
		},
		"initials": initials,
		"assetURL": func(filename string) string {
			return "/static/" + strings.TrimLeft(filename, "/")
		},
	}
}

// initials returns up to two uppercase initials for an avatar placeholder
func initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "?"
	}

	var result strings.Builder
	for i, word := range words {
		if i >= 2 {
			break
		}
		result.WriteString(strings.ToUpper(string([]rune(word)[0])))
	}
	return result.String()
}

// LoadTemplates parses every page under root/pages together with root/layouts/base.html
// and root/components/*.html. Each page is isolated from the others.
func LoadTemplates(fsys fs.FS, root string) (*TemplateSet, error) {
	baseFile := path.Join(root, "layouts", "base.html")

	componentFiles, err := fs.Glob(fsys, path.Join(root, "components", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list component templates: %w", err)
	}

	pageFiles, err := fs.Glob(fsys, path.Join(root, "pages", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}
	if len(pageFiles) == 0 {
		return nil, fmt.Errorf("no page templates found in %s/pages", root)
	}

	ts := &TemplateSet{
		pages: make(map[string]*template.Template),
	}

	funcs := FuncMap()
	for _, pageFile := range pageFiles {
		pageName := path.Base(pageFile)

		// base + components + this page only
		files := append([]string{baseFile}, componentFiles...)
		files = append(files, pageFile)

		pageTemplate, err := template.New("base").Funcs(funcs).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", pageName, err)
		}
		ts.pages[pageName] = pageTemplate
	}

	return ts, nil
}
