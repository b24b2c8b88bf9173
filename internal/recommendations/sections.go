package recommendations

import (
	"sort"
	"strings"
	"unicode/utf8"

	"ifs-actionplan/internal/plans"
)

// ExtractSections splits a recommendation by keyword search. Each heading's
// body runs from its case-insensitive occurrence to the next heading found
// after it. An occurrence that opens a line (after markdown or numbering) wins
// over one inside a sentence, so an introduction that names the headings does
// not capture the bodies. Headings that never occur are omitted; the result
// follows the order of headings.
func ExtractSections(text string, headings []string) []plans.Section {
	type hit struct {
		heading    string
		start, end int
		cut        int
	}
	var hits []hit
	for _, h := range headings {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if at := headingIndex(text, h); at >= 0 {
			cut := at
			if opensLine(text[:at]) {
				cut = strings.LastIndexByte(text[:at], '\n') + 1
			}
			hits = append(hits, hit{heading: h, start: at, end: at + len(h), cut: cut})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	bodies := make(map[string]string, len(hits))
	for i, h := range hits {
		stop := len(text)
		for _, next := range hits[i+1:] {
			if next.start >= h.end {
				stop = max(next.cut, h.end)
				break
			}
		}
		if h.end > stop {
			continue
		}
		bodies[h.heading] = cleanBody(text[h.end:stop])
	}

	var out []plans.Section
	for _, h := range headings {
		h = strings.TrimSpace(h)
		if body, ok := bodies[h]; ok {
			out = append(out, plans.Section{Heading: h, Body: body})
		}
	}
	return out
}

func cleanBody(s string) string {
	s = strings.TrimLeft(s, " \t\r\n*#:-_>")
	s = strings.TrimRight(s, " \t\r\n*#-_>")
	return strings.TrimSpace(s)
}

// headingIndex returns the first occurrence of h that starts a line, or the
// first occurrence at all when none does.
func headingIndex(text, h string) int {
	first := indexFold(text, h)
	for at := first; at >= 0; {
		if opensLine(text[:at]) {
			return at
		}
		next := indexFold(text[at+len(h):], h)
		if next < 0 {
			break
		}
		at += len(h) + next
	}
	return first
}

// opensLine reports whether the current line of before holds only list,
// emphasis or heading markers and numbering such as "1." or "2)".
func opensLine(before string) bool {
	line := before[strings.LastIndexByte(before, '\n')+1:]
	return strings.TrimLeft(line, " \t\r#*_->.)0123456789") == ""
}

// indexFold is a case-insensitive strings.Index that returns a byte offset in s.
func indexFold(s, sub string) int {
	if sub == "" {
		return 0
	}
	n := len(sub)
	for i := 0; i+n <= len(s); {
		if strings.EqualFold(s[i:i+n], sub) {
			return i
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return -1
}
