package output

import (
	"fmt"
	"strings"

	"github.com/miminai/mimin/internal/core"
)

// MarkdownFormatter renders results as Markdown documents.
type MarkdownFormatter struct{}

// FormatAnswer renders the answer followed by a sources table.
func (f *MarkdownFormatter) FormatAnswer(result *core.AnswerResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", strings.TrimSpace(result.Question)))
	sb.WriteString(strings.TrimSpace(result.Answer))
	sb.WriteString("\n")

	if len(result.SearchResults) > 0 {
		sb.WriteString("\n### Sources\n\n")
		sb.WriteString("| # | Type | Title | Relevance |\n")
		sb.WriteString("|---|------|-------|-----------|\n")
		for i, r := range result.SearchResults {
			sb.WriteString(fmt.Sprintf("| %d | %s | [%s](%s) | %.2f |\n",
				i+1,
				escapeMarkdownCell(string(r.Type)),
				escapeMarkdownLink(r.Title),
				r.URL,
				r.Relevance,
			))
		}
	}

	sb.WriteString(fmt.Sprintf("\n_status: %s · synthesis: %s · math solved: %s · sources: %d_\n",
		statusLabel(result), modeLabel(result), yesNo(result.MathSolved), result.SourcesCount))
	if result.Error != "" {
		sb.WriteString(fmt.Sprintf("\n**Error**: %s\n", result.Error))
	}

	return sb.String(), nil
}

// FormatPage renders a fetched page.
func (f *MarkdownFormatter) FormatPage(page *core.Page) (string, error) {
	if page == nil {
		return "", nil
	}
	return fmt.Sprintf("## %s\n\n<%s>\n\n%s\n", page.Title, page.URL, page.Content), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}

func escapeMarkdownLink(value string) string {
	value = escapeMarkdownCell(value)
	return strings.NewReplacer("[", "\\[", "]", "\\]").Replace(value)
}
