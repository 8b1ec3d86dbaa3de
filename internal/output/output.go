package output

import (
	"fmt"
	"strings"

	"github.com/miminai/mimin/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders answers and fetched pages.
type Formatter interface {
	FormatAnswer(result *core.AnswerResult) (string, error)
	FormatPage(page *core.Page) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func statusLabel(result *core.AnswerResult) string {
	if result.Success {
		return "ok"
	}
	return "failed"
}

func modeLabel(result *core.AnswerResult) string {
	if result.SynthesisMode == "" {
		return "-"
	}
	return result.SynthesisMode
}
