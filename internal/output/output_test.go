package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/core"
)

func sampleAnswer() *core.AnswerResult {
	return &core.AnswerResult{
		Success:  true,
		Question: "apa itu golang?",
		Answer:   "Golang adalah bahasa pemrograman.",
		SearchResults: []core.SearchResult{
			{Type: core.ResultTypeWeb, Title: "Go | The Go Programming Language", URL: "https://go.dev", Snippet: "Build simple software", Relevance: 0.5},
			{Type: core.ResultTypeNews, Title: "Go [1.25] released", URL: "https://news.example/go", Relevance: 0.25},
		},
		SourcesCount:     2,
		AIAvailable:      true,
		SearchAvailable:  true,
		EnhancedFeatures: true,
		SynthesisMode:    "model",
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("md")
	require.NoError(t, err)
	require.Equal(t, FormatMarkdown, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestJSONFormatterMatchesAPIShape(t *testing.T) {
	rendered, err := NewFormatter(FormatJSON).FormatAnswer(sampleAnswer())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "apa itu golang?", decoded["question"])
	assert.Equal(t, float64(2), decoded["sources_count"])
	assert.Equal(t, true, decoded["enhanced_features"])
	assert.Len(t, decoded["search_results"], 2)
}

func TestTableFormatter(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatAnswer(sampleAnswer())
	require.NoError(t, err)

	assert.Contains(t, rendered, "apa itu golang?")
	assert.Contains(t, rendered, "Relevance")
	assert.Contains(t, rendered, "https://go.dev")
	assert.Contains(t, rendered, "0.50")
	assert.True(t, strings.HasSuffix(rendered, "Golang adalah bahasa pemrograman.\n"))
}

func TestTableFormatterFailure(t *testing.T) {
	result := &core.AnswerResult{Question: "x", Answer: "❌ **System Error:** boom", Error: "boom", SearchResults: []core.SearchResult{}}
	rendered, err := (&TableFormatter{}).FormatAnswer(result)
	require.NoError(t, err)
	assert.Contains(t, rendered, "failed")
	assert.Contains(t, rendered, "boom")
	assert.NotContains(t, rendered, "Relevance")
}

func TestMarkdownFormatter(t *testing.T) {
	rendered, err := NewFormatter(FormatMarkdown).FormatAnswer(sampleAnswer())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rendered, "## apa itu golang?\n\nGolang adalah bahasa pemrograman.\n"))
	assert.Contains(t, rendered, "| 1 | web | [Go \\| The Go Programming Language](https://go.dev) | 0.50 |")
	assert.Contains(t, rendered, "[Go \\[1.25\\] released](https://news.example/go)")
	assert.Contains(t, rendered, "synthesis: model")
}

func TestFormatPage(t *testing.T) {
	page := &core.Page{URL: "https://example.com", Title: "Example Domain", Content: "This domain is for use in examples."}

	for _, format := range []Format{FormatTable, FormatJSON, FormatMarkdown} {
		rendered, err := NewFormatter(format).FormatPage(page)
		require.NoError(t, err, format)
		assert.Contains(t, rendered, "Example Domain", format)
		assert.Contains(t, rendered, "for use in examples", format)
	}
}

func TestNilInputs(t *testing.T) {
	for _, format := range []Format{FormatTable, FormatJSON, FormatMarkdown} {
		f := NewFormatter(format)
		out, err := f.FormatAnswer(nil)
		require.NoError(t, err)
		assert.Empty(t, out)
		out, err = f.FormatPage(nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}
