package render

import (
	"regexp"
	"strings"
)

// Basic is a minimal line-oriented renderer used when the full markdown
// pipeline is unwanted: headings, unordered lists, fenced code blocks,
// blockquotes, paragraphs, and the common inline spans. Everything else
// passes through as escaped text.
type Basic struct{}

func NewBasic() *Basic { return &Basic{} }

var (
	listItemRE = regexp.MustCompile(`^\s*[-*+]\s+`)
	headingRE  = regexp.MustCompile(`^(#{1,6})\s+`)

	strongRE = regexp.MustCompile(`\*\*(.+?)\*\*`)
	emRE     = regexp.MustCompile(`\*(.+?)\*`)
	codeRE   = regexp.MustCompile("`([^`]+)`")
	linkRE   = regexp.MustCompile(`\[(.+?)\]\((.+?)\)`)
)

func (Basic) Render(markdown string) (string, error) {
	var html strings.Builder
	var items []string
	var code []string
	inCode := false
	codeLang := ""

	flushList := func() {
		if len(items) > 0 {
			html.WriteString("<ul>" + strings.Join(items, "") + "</ul>")
			items = items[:0]
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "```") {
			if inCode {
				html.WriteString(`<pre><code class="language-` + escapeHTML(codeLang) + `">` +
					escapeHTML(strings.Join(code, "\n")) + "</code></pre>")
				code = code[:0]
				inCode = false
				codeLang = ""
			} else {
				flushList()
				inCode = true
				codeLang = strings.TrimSpace(line[3:])
			}
			continue
		}
		if inCode {
			code = append(code, line)
			continue
		}

		if listItemRE.MatchString(line) {
			items = append(items, "<li>"+inlineMarkdown(listItemRE.ReplaceAllString(line, ""))+"</li>")
			continue
		}
		flushList()

		if strings.TrimSpace(line) == "" {
			html.WriteString("<br />")
			continue
		}
		if m := headingRE.FindStringSubmatch(line); m != nil {
			tag := []string{"h1", "h2", "h3", "h4", "h5", "h6"}[len(m[1])-1]
			html.WriteString("<" + tag + ">" + inlineMarkdown(headingRE.ReplaceAllString(line, "")) + "</" + tag + ">")
			continue
		}
		if strings.HasPrefix(line, ">") {
			quoted := strings.TrimPrefix(strings.TrimPrefix(line, ">"), " ")
			html.WriteString("<blockquote>" + inlineMarkdown(quoted) + "</blockquote>")
			continue
		}
		html.WriteString("<p>" + inlineMarkdown(line) + "</p>")
	}

	flushList()
	if inCode && len(code) > 0 {
		html.WriteString("<pre><code>" + escapeHTML(strings.Join(code, "\n")) + "</code></pre>")
	}
	return html.String(), nil
}

func inlineMarkdown(text string) string {
	out := escapeHTML(text)
	out = strongRE.ReplaceAllString(out, "<strong>$1</strong>")
	out = emRE.ReplaceAllString(out, "<em>$1</em>")
	out = codeRE.ReplaceAllString(out, "<code>$1</code>")
	out = linkRE.ReplaceAllString(out, `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`)
	return out
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
