package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formatter abstracts output formatting.
type Formatter interface {
	Write(w io.Writer, payload any) error
}

// JSONFormatter writes JSON output.
type JSONFormatter struct{}

// Write writes JSON payload to a writer.
func (f JSONFormatter) Write(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(payload)
}

// YAMLFormatter writes YAML output. Payloads go through their JSON encoding
// first so field names match the API.
type YAMLFormatter struct{}

// Write writes YAML payload to a writer.
func (f YAMLFormatter) Write(w io.Writer, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// ForName returns the structured formatter for name. ok is false for "text"
// and empty names, which callers render themselves.
func ForName(name string) (f Formatter, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return nil, false, nil
	case "json":
		return JSONFormatter{}, true, nil
	case "yaml", "yml":
		return YAMLFormatter{}, true, nil
	default:
		return nil, false, fmt.Errorf("unknown output format %q (want json, yaml, or text)", name)
	}
}
