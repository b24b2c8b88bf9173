package export

import (
	"fmt"
	"strings"
)

func (r *Renderer) text(title string, entries []Entry) []byte {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len([]rune(title))))
	b.WriteString("\n")

	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s : %s\n", r.labels.RequirementNo, e.RequirementNo)
		if e.RequirementText != "" {
			fmt.Fprintf(&b, "%s : %s\n", r.labels.RequirementText, e.RequirementText)
		}
		if e.Explanation != "" {
			fmt.Fprintf(&b, "%s : %s\n", r.labels.Explanation, e.Explanation)
		}
		if e.Score != "" {
			fmt.Fprintf(&b, "%s : %s\n", r.labels.Score, e.Score)
		}
		fmt.Fprintf(&b, "\n%s :\n%s\n", r.labels.Recommendation, strings.TrimSpace(e.Recommendation))
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", 40))
		b.WriteString("\n")
	}
	return []byte(b.String())
}
