package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// document is one parsed knowledge base markdown file.
type document struct {
	Title   string
	Content string
	Tags    map[string]string
}

// parseDocument splits optional YAML frontmatter from a markdown body.
// Files without a leading "---" block are treated as plain content with
// the fallback title. Frontmatter keys become string tags; the title key
// overrides the fallback.
func parseDocument(fallbackTitle string, raw []byte) (*document, error) {
	text := string(raw)

	meta := map[string]any{}
	content := text

	if strings.HasPrefix(text, "---") {
		parts := strings.SplitN(text, "---", 3)
		if len(parts) >= 3 {
			if err := yaml.Unmarshal([]byte(parts[1]), &meta); err != nil {
				return nil, goerr.Wrap(err, "failed to parse frontmatter", goerr.V("title", fallbackTitle))
			}
			content = strings.TrimSpace(parts[2])
		}
	}

	doc := &document{
		Title:   fallbackTitle,
		Content: content,
		Tags:    map[string]string{},
	}

	for key, value := range meta {
		doc.Tags[key] = stringify(value)
	}
	if title, ok := doc.Tags["title"]; ok && title != "" {
		doc.Title = title
	}

	return doc, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
