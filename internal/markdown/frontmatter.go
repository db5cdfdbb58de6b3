package markdown

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the page metadata read from a YAML or TOML header.
type FrontMatter struct {
	Title       string
	Description string
	Slug        string
	// Public is nil when the header does not mention it.
	Public *bool
	Raw    map[string]any
}

// ParseFrontMatter splits source into metadata and body. Documents without
// a header return an empty FrontMatter and the full source.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta.toFrontMatter(), body, nil
}

type frontMatterEnvelope struct {
	Title       string         `yaml:"title" toml:"title"`
	Description string         `yaml:"description" toml:"description"`
	Slug        string         `yaml:"slug" toml:"slug"`
	Public      *bool          `yaml:"public" toml:"public"`
	Custom      map[string]any `yaml:",inline"`
}

func (env frontMatterEnvelope) toFrontMatter() FrontMatter {
	raw := make(map[string]any, len(env.Custom)+4)
	maps.Copy(raw, env.Custom)
	if env.Title != "" {
		raw["title"] = env.Title
	}
	if env.Description != "" {
		raw["description"] = env.Description
	}
	if env.Slug != "" {
		raw["slug"] = env.Slug
	}
	if env.Public != nil {
		raw["public"] = *env.Public
	}

	return FrontMatter{
		Title:       env.Title,
		Description: env.Description,
		Slug:        env.Slug,
		Public:      env.Public,
		Raw:         raw,
	}
}
