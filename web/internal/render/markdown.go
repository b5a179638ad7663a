package render

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// policy is safe for concurrent use once built
var policy = bluemonday.UGCPolicy()

// Markdown converts markdown text to sanitized HTML for use in templates
func Markdown(markdown string) template.HTML {
	unsafe := blackfriday.Run([]byte(markdown),
		blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.AutoHeadingIDs))
	return template.HTML(policy.SanitizeBytes(unsafe))
}
