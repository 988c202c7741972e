// Package report renders reconciliation results.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"auto-i18n/internal/reconcile"

	"github.com/fatih/color"
)

const page = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <meta http-equiv="X-UA-Compatible" content="IE=edge">
    <meta name="viewport" content="width=device-width,initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
      * { padding: 0; margin: 0; }
      ul { list-style: none; }
      li { border-bottom: 1px dashed #ccc; padding-left: 10px; line-height: 24px; font-size: 14px; }
      .add { background-color: #ecfdf0; }
      .reduce { background-color: #fbe9eb; }
      pre { font-family: "Microsoft YaHei", sans-serif; }
      .total-bar { padding: 10px; background-color: #000; color: #fff; user-select: none; }
      .total-bar span { margin-left: 10px; margin-right: 10px; }
    </style>
  </head>
  <body>
    <p class="total-bar">
      <span>Added: {{len .Added}}</span>
      <span>Removed: {{len .Removed}}</span>
      <span>{{if .Changed}}Unchanged{{else}}Total{{end}}: {{len .Common}}</span>
    </p>
    <ul>
{{- range .Added}}
      <li class="add"><pre>{{.}}</pre></li>
{{- end}}
{{- range .Removed}}
      <li class="reduce"><pre>{{.}}</pre></li>
{{- end}}
{{- range .Common}}
      <li class=""><pre>{{.}}</pre></li>
{{- end}}
    </ul>
  </body>
</html>
`

var pageTmpl = template.Must(template.New("report").Parse(page))

type pageData struct {
	Title string
	reconcile.Result
}

// HTML writes a standalone page listing added, removed and common texts.
// Texts are escaped.
func HTML(w io.Writer, title string, r reconcile.Result) error {
	if title == "" {
		title = "i18n phrase list"
	}
	if err := pageTmpl.Execute(w, pageData{Title: title, Result: r}); err != nil {
		return fmt.Errorf("render HTML report: %w", err)
	}
	return nil
}

// JSON writes the result as an indented JSON document.
func JSON(w io.Writer, r reconcile.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	return nil
}

// Summary writes a colored diff-style listing followed by the counts.
// Color is dropped automatically when w is not a terminal.
func Summary(w io.Writer, r reconcile.Result, verbose bool) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	bold := color.New(color.Bold)

	for _, text := range r.Added {
		added.Fprintf(w, "+ %s\n", text)
	}
	for _, text := range r.Removed {
		removed.Fprintf(w, "- %s\n", text)
	}
	if verbose {
		for _, text := range r.Common {
			fmt.Fprintf(w, "  %s\n", text)
		}
	}

	bold.Fprintf(w, "added %d, removed %d, common %d\n", len(r.Added), len(r.Removed), len(r.Common))
}
