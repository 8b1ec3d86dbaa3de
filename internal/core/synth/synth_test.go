package synth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/core"
)

type stubGenerator struct {
	text    string
	err     error
	panics  bool
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.panics {
		panic("generator exploded")
	}
	return g.text, g.err
}

var sampleResults = []core.SearchResult{
	{Type: core.ResultTypeWeb, Title: "Golang Tutorial Lengkap", URL: "https://a.example", Snippet: "Belajar bahasa pemrograman golang dengan mudah"},
	{Type: core.ResultTypeWeb, Title: "Golang untuk Pemula", URL: "https://b.example", Snippet: "Panduan golang concurrency"},
	{Type: core.ResultTypeNews, Title: "Rilis Go 1.25", URL: "https://c.example", Snippet: "Versi terbaru"},
	{Type: core.ResultTypeNews, Title: "Keempat", URL: "https://d.example", Snippet: "tidak ditampilkan"},
}

func TestSynthesizeWithModel(t *testing.T) {
	gen := &stubGenerator{text: "Golang adalah bahasa pemrograman."}
	s := New(gen, Options{})
	require.True(t, s.ModelAvailable())

	out := s.Synthesize(context.Background(), Input{
		Question: "apa itu golang?",
		Context:  "HASIL PENELUSURAN:\n• Golang Tutorial Lengkap: Belajar",
		Results:  sampleResults,
	})
	assert.Equal(t, ModeModel, out.Mode)
	assert.NoError(t, out.Err)
	assert.Equal(t, "Golang adalah bahasa pemrograman.", out.Text)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "USER QUESTION: apa itu golang?")
	assert.Contains(t, gen.prompts[0], "• Golang Tutorial Lengkap: Belajar")
}

func TestSynthesizePrependsMathAnswer(t *testing.T) {
	gen := &stubGenerator{text: "Penjelasan."}
	out := New(gen, Options{}).Synthesize(context.Background(), Input{
		Question:   "hitung 2+2",
		MathAnswer: "**Jawaban Matematika:**\n\n`hitung 2+2` = `4`",
	})
	assert.Equal(t, ModeModel, out.Mode)
	assert.Equal(t, "**Jawaban Matematika:**\n\n`hitung 2+2` = `4`"+MathSeparator+"Penjelasan.", out.Text)
}

func TestSynthesizeFallsBackWithRealData(t *testing.T) {
	cases := map[string]*stubGenerator{
		"error": {err: errors.New("quota exceeded")},
		"blank": {text: "   "},
		"panic": {panics: true},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			in := Input{Question: "golang", MathAnswer: "**Jawaban Matematika:**", Results: sampleResults}
			out := New(gen, Options{}).Synthesize(context.Background(), in)
			assert.Equal(t, ModeFallback, out.Mode)
			assert.Error(t, out.Err)
			assert.Equal(t, Compose(in.MathAnswer, in.Results, TopicOptions{}), out.Text)
			assert.NotContains(t, out.Text, MathSeparator)
		})
	}
}

func TestSynthesizeWithoutModel(t *testing.T) {
	s := New(nil, Options{})
	assert.False(t, s.ModelAvailable())

	out := s.Synthesize(context.Background(), Input{Question: "q"})
	assert.Equal(t, ModeFallback, out.Mode)
	assert.NoError(t, out.Err)
	assert.Contains(t, out.Text, "Fitur pencarian sedang tidak tersedia.")
}

func TestComposeWithResults(t *testing.T) {
	got := Compose("", sampleResults, TopicOptions{})

	assert.True(t, strings.HasPrefix(got, "🤖 **Mimin AI Enhanced**\n\n**🔍 Hasil Penelusuran Terkini:**\n"))
	assert.Contains(t, got, "1. **Golang Tutorial Lengkap**\n   Belajar bahasa pemrograman golang dengan mudah\n   📎 https://a.example\n\n")
	assert.Contains(t, got, "3. **Rilis Go 1.25**")
	assert.NotContains(t, got, "Keempat")
	assert.Contains(t, got, "Topik terkait: golang, tutorial, lengkap, belajar, bahasa\n")
	assert.NotContains(t, got, "Fitur pencarian sedang tidak tersedia.")
	assert.True(t, strings.HasSuffix(got, "• Analisis geometri\n"))
}

func TestComposeMathOnly(t *testing.T) {
	got := Compose("**Jawaban Matematika:**\n\n`1+1` = `2`", nil, TopicOptions{})
	assert.Equal(t, "🤖 **Mimin AI Enhanced**\n\n**Jawaban Matematika:**\n\n`1+1` = `2`\n\n"+footer, got)
}

func TestComposeNothingAvailable(t *testing.T) {
	got := Compose("", nil, TopicOptions{})
	assert.Equal(t, banner+noticeHeader+noticeBody+footer, got)
}

func TestTopics(t *testing.T) {
	results := []core.SearchResult{
		{Title: "Python Python", Snippet: "dengan python tutorial"},
		{Title: "Short a bb", Snippet: "untuk belajar"},
		{Title: "Ignored Third Result"},
	}
	assert.Equal(t, []string{"python", "tutorial", "short", "belajar"}, Topics(results, TopicOptions{}))

	custom := TopicOptions{MinWordLength: 3, StopWords: []string{"python"}, MaxTopics: 2}
	assert.Equal(t, []string{"dengan", "tutorial"}, Topics(results, custom))

	assert.Empty(t, Topics(nil, TopicOptions{}))
}
