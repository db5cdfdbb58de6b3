package markdown

import (
	"regexp"
	"strings"
)

// AssetRef is the part of an asset the renderer needs. Filename is the name
// used inside the markdown source.
type AssetRef struct {
	Filename  string
	AltText   string
	PublicURL string
}

// Rule is one compiled substitution.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// RewriteSet is an ordered list of substitutions built from an asset list.
type RewriteSet struct {
	rules []Rule
}

// CompileRewrites builds two rules per asset, image first then link, in the
// order the assets are given. When several assets share a filename the
// earliest one wins, since its rules run first. Assets without a filename
// or public URL are skipped.
func CompileRewrites(assets []AssetRef) RewriteSet {
	rules := make([]Rule, 0, len(assets)*2)
	for _, asset := range assets {
		if asset.Filename == "" || asset.PublicURL == "" {
			continue
		}
		target := literalPattern(asset.Filename)
		url := literalTemplate(asset.PublicURL)

		alt := "${1}"
		if asset.AltText != "" {
			alt = literalTemplate(asset.AltText)
		}

		rules = append(rules,
			Rule{
				Pattern:     regexp.MustCompile(`!\[([^\]]*)\]\(` + target + `\)`),
				Replacement: "![" + alt + "](" + url + ")",
			},
			Rule{
				Pattern:     regexp.MustCompile(`\[([^\]]*)\]\(` + target + `\)`),
				Replacement: "[${1}](" + url + ")",
			},
		)
	}
	return RewriteSet{rules: rules}
}

// Apply runs every rule over content, replacing all matches.
func (s RewriteSet) Apply(content string) string {
	for _, rule := range s.rules {
		content = rule.Pattern.ReplaceAllString(content, rule.Replacement)
	}
	return content
}

// Rules returns a copy of the compiled rules.
func (s RewriteSet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Len reports the number of compiled rules.
func (s RewriteSet) Len() int {
	return len(s.rules)
}

// literalPattern escapes value so it matches itself inside a pattern.
func literalPattern(value string) string {
	return regexp.QuoteMeta(value)
}

// literalTemplate escapes value so Regexp.Expand copies it verbatim.
func literalTemplate(value string) string {
	return strings.ReplaceAll(value, "$", "$$")
}
