package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for formatting a Summary.
type Formatter interface {
	// Format converts a Summary to a formatted string.
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// YAMLFormatter renders a Summary as YAML for machine consumption.
type YAMLFormatter struct{}

// Format implements the Formatter interface.
func (YAMLFormatter) Format(summary *Summary) string {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Sprintf("# error: %s\n", err)
	}
	return string(data)
}

// ForPath picks the YAML formatter for .yaml/.yml paths and md otherwise.
func ForPath(path string, md *MarkdownFormatter) Formatter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFormatter{}
	default:
		return md
	}
}
