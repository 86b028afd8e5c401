package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/index.html
var templates embed.FS

type PageData struct {
	Title    string
	Subtitle string
}

// RenderIndex renders the chat page once; the result is served as-is.
func RenderIndex(data PageData) ([]byte, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render index template: %w", err)
	}
	return buf.Bytes(), nil
}
