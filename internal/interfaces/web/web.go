// Package web holds the HTML templates and static assets of the public registry pages
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Template names rendered by the handlers
const (
	TemplateIndex    = "index.html"
	TemplateRegistry = "registry.html"
	TemplateShow     = "show.html"
	TemplateError    = "error.html"
)

// funcs are available to every template. trustedHTML marks page content,
// which only operators write, as safe markup.
var funcs = template.FuncMap{
	"trustedHTML": func(s string) template.HTML { return template.HTML(s) },
}

// Templates parses every embedded page template
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates is Templates for process start-up
func MustTemplates() *template.Template {
	t, err := Templates()
	if err != nil {
		panic(err)
	}
	return t
}

// Static serves the embedded stylesheets
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
