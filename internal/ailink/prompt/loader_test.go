package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	prompts, err := LoadDefaults()
	require.NoError(t, err)
	require.NotEmpty(t, prompts)

	reg, err := NewRegistry(prompts)
	require.NoError(t, err)

	prompt, err := reg.Get(AnswerSlug)
	require.NoError(t, err)
	require.NotEmpty(t, prompt.Config.SystemTemplate)
	require.Equal(t, []string{"context", "question"}, prompt.Config.Input.RequiredVariables)
}

func TestRenderAnswerPrompt(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	prompt, err := reg.Get(AnswerSlug)
	require.NoError(t, err)

	out, err := prompt.Render(map[string]string{
		"context":  "HASIL PENELUSURAN:\n• Go: a language",
		"question": "apa itu golang?",
	})
	require.NoError(t, err)
	require.Contains(t, out, "USER QUESTION: apa itu golang?")
	require.Contains(t, out, "• Go: a language")
	require.Contains(t, out, "6. Sertakan sumber referensi jika tersedia")
	require.NotContains(t, out, "{{")

	_, err = prompt.Render(map[string]string{"question": "q"})
	require.Error(t, err)
}

func TestLoadRejectsInvalidPrompts(t *testing.T) {
	_, err := Load("empty.md", []byte("   "))
	require.Error(t, err)

	_, err = Load("noslug.md", []byte("---\nname: x\n---\nbody"))
	require.ErrorContains(t, err, "slug is required")

	_, err = Load("badslug.md", []byte("---\nslug: Bad Slug\n---\nbody"))
	require.ErrorContains(t, err, "invalid slug")

	_, err = Load("missingvar.md", []byte("---\nslug: x\ninput:\n  required_variables: [question]\n---\nno placeholder"))
	require.ErrorContains(t, err, "not referenced")
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	data := []byte("---\nslug: answer\n---\nJawab: {{question}}")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.md"), data, 0o600))

	prompts, err := LoadFromDir(dir)
	require.NoError(t, err)
	require.Len(t, prompts, 1)

	out, err := prompts[0].Render(map[string]string{"question": "2+2?"})
	require.NoError(t, err)
	require.Equal(t, "Jawab: 2+2?", out)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	p := &Prompt{Config: Config{Slug: "answer"}}
	_, err := NewRegistry([]*Prompt{p, p})
	require.ErrorContains(t, err, "duplicate")

	var reg *InMemoryRegistry
	_, err = reg.Get("answer")
	require.Error(t, err)
}

func TestOverlayReplacesBySlug(t *testing.T) {
	base, err := NewRegistry([]*Prompt{
		{Config: Config{Slug: "answer", SystemTemplate: "a"}, Source: "embedded:answer.md"},
		{Config: Config{Slug: "summary", SystemTemplate: "s"}, Source: "embedded:summary.md"},
	})
	require.NoError(t, err)

	merged, err := base.Overlay([]*Prompt{
		{Config: Config{Slug: "answer", SystemTemplate: "b"}, Source: "dir/answer.md"},
		nil,
	})
	require.NoError(t, err)

	p, err := merged.Get("answer")
	require.NoError(t, err)
	require.Equal(t, "dir/answer.md", p.Source)

	orig, err := base.Get("answer")
	require.NoError(t, err)
	require.Equal(t, "embedded:answer.md", orig.Source)

	list := merged.List()
	require.Len(t, list, 2)
	require.Equal(t, "answer", list[0].Config.Slug)
	require.Equal(t, "summary", list[1].Config.Slug)

	_, err = merged.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = base.Overlay([]*Prompt{{Config: Config{Slug: " "}}})
	require.ErrorContains(t, err, "missing slug")
}

func TestLoadFrontmatterEdgeCases(t *testing.T) {
	_, err := Load("open.md", []byte("---\nslug: x\nno closing fence"))
	require.ErrorContains(t, err, "unterminated frontmatter")

	p, err := Load("bare.yaml", []byte("slug: bare\nsystem_template: \"Q: {{question}}\"\n"))
	require.NoError(t, err)
	require.Equal(t, "Q: {{question}}", p.Config.SystemTemplate)

	p, err = Load("crlf.md", []byte("---\r\nslug: crlf\r\n---\r\nBody {{ question }}\r\n"))
	require.NoError(t, err)
	out, err := p.Render(map[string]string{"question": "ok"})
	require.NoError(t, err)
	require.Equal(t, "Body ok", out)
}

func TestLoadFromDirMissing(t *testing.T) {
	_, err := LoadFromDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
