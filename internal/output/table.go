package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/miminai/mimin/internal/core"
)

const tableTitleWidth = 48

// TableFormatter renders a summary table, the sources and the answer text.
type TableFormatter struct{}

// FormatAnswer renders an answer for terminals.
func (f *TableFormatter) FormatAnswer(result *core.AnswerResult) (string, error) {
	if result == nil {
		return "", nil
	}

	summary := table.NewWriter()
	summary.SetStyle(table.StyleRounded)
	summary.AppendRows([]table.Row{
		{"Question", result.Question},
		{"Status", statusLabel(result)},
		{"Synthesis", modeLabel(result)},
		{"Math solved", yesNo(result.MathSolved)},
		{"Sources", result.SourcesCount},
		{"AI available", yesNo(result.AIAvailable)},
		{"Search available", yesNo(result.SearchAvailable)},
	})
	if result.Error != "" {
		summary.AppendRow(table.Row{"Error", result.Error})
	}

	var sb strings.Builder
	sb.WriteString(summary.Render())
	sb.WriteString("\n")

	if len(result.SearchResults) > 0 {
		sources := table.NewWriter()
		sources.SetStyle(table.StyleRounded)
		sources.AppendHeader(table.Row{"#", "Type", "Title", "URL", "Relevance"})
		for i, r := range result.SearchResults {
			sources.AppendRow(table.Row{
				i + 1,
				string(r.Type),
				text.Trim(r.Title, tableTitleWidth),
				r.URL,
				fmt.Sprintf("%.2f", r.Relevance),
			})
		}
		sb.WriteString("\n")
		sb.WriteString(sources.Render())
		sb.WriteString("\n")
	}

	if answer := strings.TrimSpace(result.Answer); answer != "" {
		sb.WriteString("\n")
		sb.WriteString(answer)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// FormatPage renders a fetched page.
func (f *TableFormatter) FormatPage(page *core.Page) (string, error) {
	if page == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"URL", page.URL},
		{"Title", page.Title},
		{"Length", len([]rune(page.Content))},
	})

	return t.Render() + "\n\n" + page.Content + "\n", nil
}
