// Package assets embeds the web front-end's HTML templates, static files and page copy.
package assets

import "embed"

// FS holds templates/, static/ and content/
//
//go:embed templates static content
var FS embed.FS

// TemplatesRoot is the directory inside FS passed to render.LoadTemplates
const TemplatesRoot = "templates"

// StaticRoot is the directory inside FS served under /static/
const StaticRoot = "static"
