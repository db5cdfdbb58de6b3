package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultTheme is the chroma style used when none is configured.
const DefaultTheme = "monokai"

// HighlightOptions controls fenced code highlighting.
type HighlightOptions struct {
	Enabled bool
	Theme   string
	// Classes emits CSS classes instead of inline styles.
	Classes bool
}

// Options configures the goldmark engine.
type Options struct {
	HardWraps  bool
	UnsafeHTML bool
	// Extensions names goldmark extensions from the registry below. Empty
	// selects GFM.
	Extensions []string
	Alerts     bool
	Highlight  HighlightOptions
	Sanitize   bool
}

// DefaultOptions mirrors the page renderer: GFM, hard line breaks, raw HTML
// passthrough, alerts and highlighting with the default theme.
func DefaultOptions() Options {
	return Options{
		HardWraps:  true,
		UnsafeHTML: true,
		Alerts:     true,
		Highlight: HighlightOptions{
			Enabled: true,
			Theme:   DefaultTheme,
		},
	}
}

func (o Options) normalized() Options {
	if strings.TrimSpace(o.Highlight.Theme) == "" {
		o.Highlight.Theme = DefaultTheme
	}
	if o.Sanitize {
		// Inline styles do not survive the sanitizer.
		o.Highlight.Classes = true
	}
	return o
}

// newEngine builds a goldmark instance for one render call. report receives
// fences that could not be highlighted.
func newEngine(opts Options, report func(*FragmentError)) goldmark.Markdown {
	exts := collectExtensions(opts.Extensions)
	if opts.Alerts {
		exts = append(exts, Alerts)
	}
	if opts.Highlight.Enabled {
		exts = append(exts, newHighlighting(opts.Highlight, report))
	}

	rendererOptions := []renderer.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.UnsafeHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// KnownExtension reports whether name is in the extension registry.
func KnownExtension(name string) bool {
	_, ok := extensionRegistry[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok || key == "" {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}
