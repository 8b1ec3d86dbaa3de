package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

//go:embed prompts/*.md
var embedded embed.FS

// LoadDefaults loads the prompts compiled into the binary.
func LoadDefaults() ([]*Prompt, error) {
	sub, err := fs.Sub(embedded, "prompts")
	if err != nil {
		return nil, fmt.Errorf("open embedded prompts: %w", err)
	}
	return loadFS(sub, "embedded:")
}

// LoadFromDir reads every .md prompt in dir. Subdirectories are ignored.
func LoadFromDir(dir string) ([]*Prompt, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("prompts dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("prompts dir %s is not a directory", dir)
	}
	return loadFS(os.DirFS(dir), strings.TrimRight(dir, "/")+"/")
}

// DefaultRegistry builds a registry from the embedded prompts.
func DefaultRegistry() (Registry, error) {
	prompts, err := LoadDefaults()
	if err != nil {
		return nil, err
	}
	return NewRegistry(prompts)
}

// loadFS parses the top-level .md files of fsys in name order. prefix is
// prepended to each file name to form Prompt.Source.
func loadFS(fsys fs.FS, prefix string) ([]*Prompt, error) {
	names, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, fmt.Errorf("scan prompts: %w", err)
	}
	out := make([]*Prompt, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", path.Join(prefix, name), err)
		}
		p, err := Load(prefix+name, data)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
