package web

import (
	"embed"
)

// The path is relative to this file (internal/web/web.go).
//
//go:embed templates
var templatesFS embed.FS

// TemplatesFS returns the embedded dashboard templates.
func TemplatesFS() embed.FS {
	return templatesFS
}
