package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templates embed.FS

// Templates parses the pages served by the router.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templates, "templates/*.html"))
}
