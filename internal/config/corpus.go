package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Provider is a named group of documentation URLs.
type Provider struct {
	Name string
	URLs []string
}

// Corpus lists providers in the order they appear in the config file.
type Corpus []Provider

// DefaultCorpus is used when the config does not define one.
func DefaultCorpus() Corpus {
	return Corpus{
		{Name: "anthropic", URLs: []string{
			"https://docs.anthropic.com/en/api/messages",
			"https://docs.anthropic.com/en/api/messages-streaming",
			"https://docs.anthropic.com/en/docs/build-with-claude/tool-use",
			"https://docs.anthropic.com/en/docs/build-with-claude/prompt-engineering/overview",
		}},
		{Name: "google", URLs: []string{
			"https://ai.google.dev/api/generate-content",
			"https://ai.google.dev/gemini-api/docs/embeddings",
			"https://ai.google.dev/docs/safety_setting_gemini",
			"https://ai.google.dev/docs/function_calling",
		}},
		{Name: "github", URLs: []string{
			"https://docs.github.com/en/rest/repos",
			"https://docs.github.com/en/rest/authentication",
			"https://docs.github.com/en/rest/issues",
			"https://docs.github.com/en/rest/users",
		}},
	}
}

// UnmarshalYAML decodes a mapping of provider name to URL list, keeping
// the mapping order.
func (c *Corpus) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: corpus must be a mapping of provider to URLs", node.Line)
	}
	out := make(Corpus, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var urls []string
		if err := val.Decode(&urls); err != nil {
			return fmt.Errorf("corpus provider %q: %w", key.Value, err)
		}
		out = append(out, Provider{Name: key.Value, URLs: urls})
	}
	*c = out
	return nil
}

// MarshalYAML encodes the corpus as an ordered mapping.
func (c Corpus) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range c {
		var urls yaml.Node
		if err := urls.Encode(p.URLs); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Name},
			&urls,
		)
	}
	return node, nil
}

// Names returns the provider names in order.
func (c Corpus) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// URLs flattens the URL lists of the given providers, or of every provider
// when none are given. Unknown provider names are an error.
func (c Corpus) URLs(providers ...string) ([]string, error) {
	var urls []string
	if len(providers) == 0 {
		for _, p := range c {
			urls = append(urls, p.URLs...)
		}
		return urls, nil
	}
	for _, name := range providers {
		p, ok := c.find(name)
		if !ok {
			return nil, fmt.Errorf("unknown provider %q (known: %v)", name, c.Names())
		}
		urls = append(urls, p.URLs...)
	}
	return urls, nil
}

func (c Corpus) find(name string) (Provider, bool) {
	for _, p := range c {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}
