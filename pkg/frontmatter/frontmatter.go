// Package frontmatter implements the restricted front-matter codec used for
// document/remote reconciliation: a delimiter-scanned metadata block in a
// small YAML subset, parsed into insertion-ordered mappings and serialized
// back with deterministic quoting and omission rules.
//
// This is deliberately not a YAML-compliant parser. Anchors, flow
// collections, multi-line scalars, multi-document streams and full scalar
// tag resolution are unsupported; a malformed or unterminated block falls
// back to "no front matter" instead of failing.
package frontmatter

import (
	"strconv"
	"strings"
)

const delimiter = "---"

// Document is a parsed local document: the front-matter mapping and the body
// with the delimiter lines removed.
type Document struct {
	FrontMatter    *Map
	Body           string
	HasFrontMatter bool
}

// Parse splits text into front matter and body. When the text does not begin
// with an opening delimiter line, or the closing delimiter line is missing,
// the whole text becomes the body and HasFrontMatter is false. Line endings
// are normalized to \n first.
func Parse(text string) Document {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	if !strings.HasPrefix(normalized, delimiter+"\n") {
		return Document{FrontMatter: NewMap(), Body: normalized}
	}

	lines := strings.Split(normalized, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			end = i
			break
		}
	}
	if end == -1 {
		// Unterminated block: permissive fallback, not an error.
		return Document{FrontMatter: NewMap(), Body: normalized}
	}

	fm := parseBlock(lines[1:end])
	body := strings.Join(lines[end+1:], "\n")

	return Document{FrontMatter: fm, Body: body, HasFrontMatter: true}
}

// Serialize emits the front-matter block followed by a blank line and the
// body with leading blank lines stripped.
//
// Emission rules: keys in insertion order; keys holding nil or "" are
// omitted, as are empty sequences and empty nested mappings; strings are
// quoted only when they contain a colon, hash, sequence marker, quote
// character, or leading/trailing whitespace.
func Serialize(fm *Map, body string) string {
	block := marshalMap(fm, 0)
	trimmed := strings.TrimLeft(body, "\n")
	return delimiter + "\n" + strings.Join(block, "\n") + "\n" + delimiter + "\n\n" + trimmed
}

/* ---------------- parsing ---------------- */

// seqBuilder accumulates sequence items while the sequence is the active
// indentation context. finalize converts builders into plain []any values.
type seqBuilder struct {
	items []any
}

type parseFrame struct {
	indent int
	mp     *Map
	seq    *seqBuilder
}

func parseBlock(lines []string) *Map {
	root := NewMap()
	stack := []parseFrame{{indent: -1, mp: root}}

	for i := 0; i < len(lines); i++ {
		raw := lines[i]
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		indent := indentOf(raw)

		// Any line at or below the current contextual indentation pops that
		// context.
		for len(stack) > 1 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}
		frame := &stack[len(stack)-1]

		if line == "-" || strings.HasPrefix(line, "- ") {
			if frame.seq == nil {
				continue
			}
			item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			switch {
			case item == "":
				obj := NewMap()
				frame.seq.items = append(frame.seq.items, obj)
				stack = append(stack, parseFrame{indent: indent, mp: obj})
			case quotedScalar(item):
				frame.seq.items = append(frame.seq.items, parseScalar(item))
			case strings.Contains(item, ":"):
				key, rest, _ := strings.Cut(item, ":")
				obj := NewMap()
				obj.Set(strings.TrimSpace(key), parseScalar(strings.TrimSpace(rest)))
				frame.seq.items = append(frame.seq.items, obj)
			default:
				frame.seq.items = append(frame.seq.items, parseScalar(item))
			}
			continue
		}

		if frame.mp == nil {
			continue
		}

		key, rest, found := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if key == "" || !found {
			continue
		}

		if strings.TrimSpace(rest) == "" {
			next, ok := peekMeaningful(lines, i+1)
			switch {
			case ok && next.indent > indent && strings.HasPrefix(strings.TrimSpace(next.line), "-"):
				sb := &seqBuilder{}
				frame.mp.Set(key, sb)
				stack = append(stack, parseFrame{indent: indent, seq: sb})
			case ok && next.indent > indent:
				child := NewMap()
				frame.mp.Set(key, child)
				stack = append(stack, parseFrame{indent: indent, mp: child})
			default:
				frame.mp.Set(key, NewMap())
			}
			continue
		}

		frame.mp.Set(key, parseScalar(strings.TrimSpace(rest)))
	}

	finalize(root)
	return root
}

type meaningfulLine struct {
	indent int
	line   string
}

func peekMeaningful(lines []string, start int) (meaningfulLine, bool) {
	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		return meaningfulLine{indent: indentOf(lines[i]), line: lines[i]}, true
	}
	return meaningfulLine{}, false
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// parseScalar coerces a raw scalar in priority order: boolean and null
// literals, then numbers, then quoted strings, else the raw text.
func parseScalar(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if len(s) >= 2 {
		if s[0] == '"' && s[len(s)-1] == '"' {
			return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
		}
		if s[0] == '\'' && s[len(s)-1] == '\'' {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// quotedScalar reports whether s is a fully quoted scalar. Quoted sequence
// items must not be mistaken for inline key/value maps when they contain a
// colon.
func quotedScalar(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')
}

// finalize replaces seqBuilder placeholders with plain []any values,
// recursing into nested mappings and sequence items.
func finalize(m *Map) {
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		m.values[key] = finalizeValue(v)
	}
}

func finalizeValue(v any) any {
	switch t := v.(type) {
	case *seqBuilder:
		items := make([]any, len(t.items))
		for i, item := range t.items {
			items[i] = finalizeValue(item)
		}
		return items
	case *Map:
		finalize(t)
		return t
	default:
		return v
	}
}

/* ---------------- serialization ---------------- */

func marshalMap(m *Map, indent int) []string {
	var lines []string
	if m == nil {
		return lines
	}
	prefix := strings.Repeat(" ", indent)
	for _, key := range m.keys {
		value := m.values[key]
		if omitted(value) {
			continue
		}
		switch t := value.(type) {
		case []any:
			lines = append(lines, prefix+key+":")
			for _, item := range t {
				if obj, ok := item.(*Map); ok {
					lines = append(lines, prefix+"  -")
					lines = append(lines, marshalMap(obj, indent+4)...)
				} else {
					lines = append(lines, prefix+"  - "+formatScalar(item))
				}
			}
		case []string:
			lines = append(lines, prefix+key+":")
			for _, item := range t {
				lines = append(lines, prefix+"  - "+formatScalar(item))
			}
		case *Map:
			lines = append(lines, prefix+key+":")
			lines = append(lines, marshalMap(t, indent+2)...)
		default:
			lines = append(lines, prefix+key+": "+formatScalar(value))
		}
	}
	return lines
}

func omitted(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case *Map:
		return t.Len() == 0
	}
	return false
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		if needsQuoting(t) {
			return `"` + strings.ReplaceAll(t, `"`, `\"`) + `"`
		}
		return t
	default:
		return ""
	}
}

// needsQuoting reports whether a string scalar must be emitted quoted.
// Strings that merely look like other scalar literals ("true", "42") stay
// bare and re-parse as that type; callers wanting a string guarantee must
// quote the value themselves.
func needsQuoting(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, `:#"`) || strings.Contains(s, "- ") {
		return true
	}
	return s != strings.TrimSpace(s)
}
