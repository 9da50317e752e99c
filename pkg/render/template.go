package render

import (
	"strings"

	"tablesink/pkg/model"
)

// Template is a compiled render pattern. Patterns are plain text with
// ${name} placeholders resolved against a record: the builtins ${message},
// ${level}, ${source} and ${date}, or any structured field by name.
// Unknown placeholders render empty. Rendering is pure.
type Template struct {
	pattern  string
	segments []segment
}

type segment struct {
	text   string
	lookup bool
}

// Compile parses a pattern into a Template. An unterminated placeholder is
// treated as literal text.
func Compile(pattern string) *Template {
	t := &Template{pattern: pattern}

	rest := pattern
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			break
		}
		j := strings.Index(rest[i+2:], "}")
		if j < 0 {
			break
		}

		if i > 0 {
			t.segments = append(t.segments, segment{text: rest[:i]})
		}
		t.segments = append(t.segments, segment{text: rest[i+2 : i+2+j], lookup: true})
		rest = rest[i+2+j+1:]
	}
	if rest != "" {
		t.segments = append(t.segments, segment{text: rest})
	}

	return t
}

// Pattern returns the source pattern the template was compiled from.
func (t *Template) Pattern() string {
	return t.pattern
}

// Render resolves the template against a record.
func (t *Template) Render(rec *model.Record) string {
	var b strings.Builder
	b.Grow(len(t.pattern))

	for _, s := range t.segments {
		if !s.lookup {
			b.WriteString(s.text)
			continue
		}
		switch s.text {
		case "message":
			b.WriteString(rec.Message)
		case "level":
			b.WriteString(rec.Level)
		case "source":
			b.WriteString(rec.Source)
		case "date":
			b.WriteString(rec.Time.Format("2006-01-02"))
		default:
			b.WriteString(rec.Field(s.text))
		}
	}

	return b.String()
}
