package common

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// RenderPage writes the full page shell.
func RenderPage(w io.Writer, data PageData) error {
	if err := templates.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// RenderResult renders a ResultView to an HTML fragment for embedding
// inside a chat message.
func RenderResult(view *ResultView) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "result", view); err != nil {
		return "", fmt.Errorf("failed to render result: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderFragment executes any named template from the shared set.
func RenderFragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render fragment %s: %w", name, err)
	}
	return buf.String(), nil
}
