// Package codegen renders decoded translation tables as JavaScript modules
// that load the default locale eagerly and every other locale on demand.
package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"auto-i18n/internal/locale"

	"github.com/rs/zerolog/log"
)

// PathFunc returns the import specifier of a deferred locale module.
type PathFunc func(locale string) string

// QueryPath imports locales as resource?lang=<locale>, for bundlers that
// route the query back to this tool.
func QueryPath(resource string) PathFunc {
	return func(l string) string {
		return resource + "?lang=" + url.QueryEscape(l)
	}
}

// FilePath imports locales from sibling files named <base>.<locale>.js.
func FilePath(base string) PathFunc {
	return func(l string) string {
		return "./" + LocaleFileName(base, l)
	}
}

// LocaleFileName is the file name FilePath imports for a locale.
func LocaleFileName(base, l string) string {
	return base + "." + l + ".js"
}

func literal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode literal: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Index renders the entry module. It exports the default messages, the
// default locale name, and asyncLangs: locale → thunk returning import().
func Index(p *locale.Partitioned, path PathFunc) (string, error) {
	def, err := literal(p.Default)
	if err != nil {
		return "", err
	}

	var messages, thunks []string
	for _, src := range p.Sources {
		name, err := literal(src.Locale())
		if err != nil {
			return "", err
		}
		switch s := src.(type) {
		case *locale.Inline:
			msgs, err := literal(nonNil(s.Messages))
			if err != nil {
				return "", err
			}
			messages = append(messages, fmt.Sprintf("  %s: %s", name, msgs))
		case *locale.Deferred:
			target, err := literal(path(s.Name))
			if err != nil {
				return "", err
			}
			thunks = append(thunks, fmt.Sprintf("  %s: function() { return import(%s); }", name, target))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "var locale = %s;\n", def)
	fmt.Fprintf(&b, "var messages = {\n%s\n};\n", strings.Join(messages, ",\n"))
	if len(thunks) == 0 {
		b.WriteString("var asyncLangs = {};\n")
	} else {
		fmt.Fprintf(&b, "var asyncLangs = {\n%s\n};\n", strings.Join(thunks, ",\n"))
	}
	b.WriteString("export default messages;\n")
	b.WriteString("export { locale, asyncLangs };\n")
	return b.String(), nil
}

// Locale renders the module of one deferred locale.
func Locale(messages map[string]string) (string, error) {
	msgs, err := literal(nonNil(messages))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("var result = %s;\nexport default result;\n", msgs), nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// WriteBundle writes <base>.js and one <base>.<locale>.js per deferred
// locale into dir and returns the written paths.
func WriteBundle(dir, base string, p *locale.Partitioned) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	index, err := Index(p, FilePath(base))
	if err != nil {
		return nil, err
	}
	indexPath := filepath.Join(dir, base+".js")
	if err := os.WriteFile(indexPath, []byte(index), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", indexPath, err)
	}
	written := []string{indexPath}

	for _, src := range p.Sources {
		d, ok := src.(*locale.Deferred)
		if !ok {
			continue
		}
		code, err := Locale(d.Load())
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, LocaleFileName(base, d.Name))
		if err := os.WriteFile(path, []byte(code), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	log.Info().Str("dir", dir).Int("files", len(written)).Msg("Wrote locale bundle")
	return written, nil
}
