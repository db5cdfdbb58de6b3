package markdown

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// newSanitizer extends the UGC policy with the classes emitted by alerts and
// chroma, plus the disabled checkboxes of task lists.
func newSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("div", "p", "pre", "code", "span")
	policy.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	policy.AllowAttrs("checked", "disabled").OnElements("input")
	return policy
}
