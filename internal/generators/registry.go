package generators

import (
	"erdv/internal/errs"
	"erdv/internal/schema"
	"fmt"
	"sort"
	"strings"
)

const (
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
	FormatPlantUML = "plantuml"
	FormatGraphviz = "graphviz"
)

type renderer struct {
	render func(*schema.Diagram) string
	ext    string
}

// Markdown and Mermaid both produce Markdown files, so Mermaid gets a
// compound extension to keep default output names apart.
var renderers = map[string]renderer{
	FormatMarkdown: {Markdown, ".md"},
	FormatMermaid:  {Mermaid, ".mermaid.md"},
	FormatPlantUML: {PlantUML, ".puml"},
	FormatGraphviz: {Graphviz, ".dot"},
}

var aliases = map[string]string{
	"md":   FormatMarkdown,
	"mmd":  FormatMermaid,
	"puml": FormatPlantUML,
	"dot":  FormatGraphviz,
}

// Formats returns the canonical format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(renderers))
	for name := range renderers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Canonical resolves a format name or alias, case-insensitively.
func Canonical(format string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(format))
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	if _, ok := renderers[name]; !ok {
		return "", errs.New(errs.KindInvalidInput,
			fmt.Sprintf("invalid format '%s'. Valid formats: %s", format, strings.Join(Formats(), ", ")))
	}
	return name, nil
}

// Render produces d in the named format.
func Render(format string, d *schema.Diagram) (string, error) {
	name, err := Canonical(format)
	if err != nil {
		return "", err
	}
	return renderers[name].render(d), nil
}

// Extension returns the file extension, leading dot included, for format.
func Extension(format string) (string, error) {
	name, err := Canonical(format)
	if err != nil {
		return "", err
	}
	return renderers[name].ext, nil
}

// DefaultFileName is the output name used when none is given.
func DefaultFileName(base, format string) (string, error) {
	ext, err := Extension(format)
	if err != nil {
		return "", err
	}
	if base == "" {
		base = "erd"
	}
	return base + ext, nil
}
