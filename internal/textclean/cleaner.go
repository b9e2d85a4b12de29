// Package textclean normalizes OCR output before it is handed to a language
// model.
//
// Clean is pure and total. It removes blank-line runs, hyphenated line breaks,
// repeated spacing, glyph noise, page footers and embedded confidence
// annotations, then trims every line.
package textclean

import (
	"regexp"
	"strings"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Applied in order on every pass.
var rules = []rule{
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
	{regexp.MustCompile(`(\w)-\n(\w)`), "${1}${2}"},
	// horizontal whitespace, including NBSP and the other Unicode spaces
	{regexp.MustCompile(`[\t\v\f\r \p{Zs}\x{FEFF}\x{2028}\x{2029}]{2,}`), " "},

	// glyph noise
	{regexp.MustCompile(`\|{2,}`), ""},
	{regexp.MustCompile(`_{3,}`), ""},
	{regexp.MustCompile(`~{2,}`), ""},
	{regexp.MustCompile(`={3,}`), ""},

	// page footers: "Page 3", "Page 3 of 10", "3 / 10"
	{regexp.MustCompile(`(?m)^Page\s+\d+\s*(of\s+\d+)?\s*$`), ""},
	{regexp.MustCompile(`(?m)^\d+\s*/\s*\d+\s*$`), ""},

	// confidence markers some OCR engines embed
	{regexp.MustCompile(`(?i)\[confidence:\s*[\d.]+\]`), ""},
	{regexp.MustCompile(`(?i)\(conf\.\s*[\d.]+\)`), ""},
}

// Clean returns the normalized form of raw. Clean(Clean(s)) == Clean(s), and
// the result never contains three consecutive newlines.
func Clean(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	// A pass can expose new matches (a stripped footer line reopens a
	// blank-line run), so repeat until nothing changes. Every rule only
	// shortens the text, which bounds the loop.
	for {
		next := cleanPass(text)
		if next == text {
			return next
		}
		text = next
	}
}

func cleanPass(text string) string {
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.repl)
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
