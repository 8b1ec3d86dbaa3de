package output

import (
	"encoding/json"

	"github.com/miminai/mimin/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatAnswer renders the answer exactly as /api/ask returns it.
func (f *JSONFormatter) FormatAnswer(result *core.AnswerResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return f.marshal(result)
}

// FormatPage renders a fetched page as JSON.
func (f *JSONFormatter) FormatPage(page *core.Page) (string, error) {
	if page == nil {
		return "", nil
	}
	return f.marshal(page)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
