// Package web holds the HTML templates and static assets served by the server.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
	"datePtr": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "never"
		}
		return t.Local().Format("2006-01-02 15:04")
	},
	"year": func() int { return time.Now().Year() },
}

// Templates parses the page templates from dir, or from the embedded copy when dir is empty.
func Templates(dir string) (*template.Template, error) {
	var files fs.FS = templateFiles
	pattern := "templates/*.html"
	if dir != "" {
		files = os.DirFS(dir)
		pattern = "*.html"
	}

	tmpl, err := template.New("").Funcs(Funcs).ParseFS(files, pattern)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// Static returns the static asset tree, or the embedded copy when dir is empty.
func Static(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	return sub, nil
}
