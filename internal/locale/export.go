package locale

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTSV  = "tsv"
)

// Export writes the table as locale → hash → text in the given format.
func (t *Table) Export(w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t.Entries); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t.Entries); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
	case FormatTSV:
		return t.exportTSV(w)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	return nil
}

func (t *Table) exportTSV(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "hash\t%s\n", strings.Join(t.Locales, "\t")); err != nil {
		return fmt.Errorf("write TSV: %w", err)
	}
	for _, key := range t.Keys {
		cells := make([]string, len(t.Locales))
		for i, locale := range t.Locales {
			cells[i] = escapeTSV(t.Entries[locale][key])
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", key, strings.Join(cells, "\t")); err != nil {
			return fmt.Errorf("write TSV: %w", err)
		}
	}
	return nil
}

// escapeTSV replaces tabs and newlines in a string for TSV safety.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
