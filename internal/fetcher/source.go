package fetcher

import (
	"net/url"
	"strings"
)

// providerLabels maps domain keywords to provider labels. Order matters:
// the first matching keyword wins.
var providerLabels = []struct {
	keywords []string
	label    string
}{
	{[]string{"anthropic"}, "Claude API"},
	{[]string{"google", "ai.google.dev"}, "Gemini API"},
	{[]string{"github"}, "GitHub API"},
}

// SourceLabel derives a short provider label from a page URL. Unknown
// domains are labelled with the bare host.
func SourceLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	for _, p := range providerLabels {
		for _, kw := range p.keywords {
			if strings.Contains(host, kw) {
				return p.label
			}
		}
	}
	return host
}
