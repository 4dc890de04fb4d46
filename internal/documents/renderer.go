package documents

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("documents").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"area":  func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"dim":   func(v float64) string { return fmt.Sprintf("%.0f", v) },
}).ParseFS(templateFS, "templates/*.html"))

// render executes one embedded template into a byte buffer
func render(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
