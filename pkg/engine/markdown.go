package engine

import (
	"bufio"
	"strings"
)

const maxDerivedTitle = 80

// ExtractTitle derives a title from a markdown body: the first ATX level-one
// heading wins, else the first non-blank line truncated to 80 runes, else
// the empty string.
func ExtractTitle(body string) string {
	first := ""
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if after, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(after)
		}
		if first == "" {
			first = line
		}
	}
	if runes := []rune(first); len(runes) > maxDerivedTitle {
		return string(runes[:maxDerivedTitle])
	}
	return first
}
