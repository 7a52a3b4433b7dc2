package lint

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed report.tmpl
var reportTmpl string

var textTemplate = template.Must(template.New("report").Parse(reportTmpl))

// RenderText writes the human-readable form: a one-line summary followed by
// one indented line per diagnostic.
func (r *Report) RenderText(w io.Writer) error {
	if err := textTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// RenderJSON writes the report as indented JSON.
func (r *Report) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// RenderYAML writes the report as a YAML document.
func (r *Report) RenderYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(r); err != nil {
		enc.Close()
		return fmt.Errorf("rendering report: %w", err)
	}
	return enc.Close()
}
