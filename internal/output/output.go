// Package output prints command results as YAML, JSON or XML page source.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatYAML, FormatJSON, FormatXML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format: %s (want yaml, json or xml)", s)
}

// Print serializes v to stdout in the current output format.
func Print(v any) error {
	return Fprint(os.Stdout, OutputFormat, v)
}

// Fprint serializes v to w in format f. XML output accepts only a rendered
// page-source document.
func Fprint(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, v, PrettyOutput)
	case FormatYAML:
		return WriteYAML(w, v)
	case FormatXML:
		doc, ok := v.(string)
		if !ok {
			return fmt.Errorf("xml output needs a page-source document, got %T", v)
		}
		_, err := io.WriteString(w, doc)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", f)
	}
}

// WriteJSON serializes v to w as JSON. If pretty is true, uses indentation;
// otherwise single-line.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// WriteYAML serializes v to w as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
