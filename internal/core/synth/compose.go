package synth

import (
	"fmt"
	"strings"

	"github.com/miminai/mimin/internal/core"
)

const (
	banner        = "🤖 **Mimin AI Enhanced**\n\n"
	resultsHeader = "**🔍 Hasil Penelusuran Terkini:**\n"
	topicsHeader  = "**💡 Analisis Berdasarkan Hasil Penelusuran:**\n"
	noticeHeader  = "**📝 Informasi:**\n"
	noticeBody    = "Fitur pencarian sedang tidak tersedia. "
	footer        = "\n**🧮 Fitur yang Tersedia:**\n" +
		"• Penyelesaian soal matematika\n" +
		"• Kalkulator ilmiah\n" +
		"• Konversi satuan\n" +
		"• Analisis geometri\n"

	listedResults = 3
	topicSources  = 2
)

// DefaultTopicStopWords are skipped when extracting related topics.
var DefaultTopicStopWords = []string{"dengan", "yang", "dari", "pada", "untuk"}

// TopicOptions control the related-topics line.
type TopicOptions struct {
	MinWordLength int
	StopWords     []string
	MaxTopics     int
}

func (o TopicOptions) withDefaults() TopicOptions {
	if o.MinWordLength <= 0 {
		o.MinWordLength = 5
	}
	if o.StopWords == nil {
		o.StopWords = DefaultTopicStopWords
	}
	if o.MaxTopics <= 0 {
		o.MaxTopics = 5
	}
	return o
}

// Compose builds the template answer used when no model is available.
func Compose(mathAnswer string, results []core.SearchResult, topics TopicOptions) string {
	var b strings.Builder
	b.WriteString(banner)

	if mathAnswer != "" {
		b.WriteString(mathAnswer)
		b.WriteString("\n\n")
	}

	switch {
	case len(results) > 0:
		b.WriteString(resultsHeader)
		for i, r := range results {
			if i == listedResults {
				break
			}
			fmt.Fprintf(&b, "%d. **%s**\n   %s\n   📎 %s\n\n", i+1, r.Title, r.Snippet, r.URL)
		}

		b.WriteString(topicsHeader)
		if found := Topics(results, topics); len(found) > 0 {
			fmt.Fprintf(&b, "Topik terkait: %s\n", strings.Join(found, ", "))
		}
	case mathAnswer == "":
		b.WriteString(noticeHeader)
		b.WriteString(noticeBody)
	}

	b.WriteString(footer)
	return b.String()
}

// Topics extracts up to MaxTopics distinct lowercase words of at least
// MinWordLength runes from the title and snippet of the first two results,
// in the order they appear.
func Topics(results []core.SearchResult, opts TopicOptions) []string {
	opts = opts.withDefaults()
	stop := make(map[string]struct{}, len(opts.StopWords))
	for _, w := range opts.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	seen := map[string]struct{}{}
	var out []string
	for i, r := range results {
		if i == topicSources {
			break
		}
		words := append(strings.Fields(strings.ToLower(r.Title)), strings.Fields(strings.ToLower(r.Snippet))...)
		for _, w := range words {
			if len([]rune(w)) < opts.MinWordLength {
				continue
			}
			if _, skip := stop[w]; skip {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
			if len(out) == opts.MaxTopics {
				return out
			}
		}
	}
	return out
}
