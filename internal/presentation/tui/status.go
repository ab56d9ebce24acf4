package tui

import (
	"fmt"
	"strings"
)

// Status is what `manipd status` reports about a running server.
type Status struct {
	URL        string
	App        string
	Version    string
	APIVersion string
	Service    string
	Problems   []string
	Selected   string
	Obstacles  []string
}

// StatusMarkdown formats s as a markdown document.
func StatusMarkdown(s Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", s.App, s.Version)
	fmt.Fprintf(&b, "- **Endpoint**: %s\n", s.URL)
	fmt.Fprintf(&b, "- **Service**: `%s`\n", s.Service)
	fmt.Fprintf(&b, "- **API**: %s\n\n", s.APIVersion)

	b.WriteString("## Problems\n\n")
	if len(s.Problems) == 0 {
		b.WriteString("_none_\n")
	}
	for _, p := range s.Problems {
		if p == s.Selected {
			fmt.Fprintf(&b, "- **%s** (selected)\n", p)
			continue
		}
		fmt.Fprintf(&b, "- %s\n", p)
	}

	if s.Selected != "" {
		fmt.Fprintf(&b, "\n## Obstacles of %s\n\n", s.Selected)
		if len(s.Obstacles) == 0 {
			b.WriteString("_none_\n")
		}
		for _, o := range s.Obstacles {
			fmt.Fprintf(&b, "- `%s`\n", o)
		}
	}
	return b.String()
}
