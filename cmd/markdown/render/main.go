// Command render converts a markdown file to HTML, rewriting references to
// files in an asset directory the way published pages do.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-mdpages/internal/logging/console"
	"github.com/goliatone/go-mdpages/internal/markdown"
)

func main() {
	if err := runRender(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("markdown render: %v", err)
	}
}

func runRender(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("markdown-render", flag.ContinueOnError)
	file := fs.String("file", "", "Markdown file to render")
	assetDir := fs.String("asset-dir", "", "Directory whose files are treated as page assets")
	baseURL := fs.String("base-url", "/assets", "URL prefix for rewritten asset references")
	theme := fs.String("theme", markdown.DefaultTheme, "Chroma theme for fenced code")
	classes := fs.Bool("classes", false, "Emit highlight CSS classes instead of inline styles")
	sanitize := fs.Bool("sanitize", false, "Run the HTML through the sanitizer")
	output := fs.String("out", "", "Write HTML to this file instead of stdout")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*file) == "" {
		return fmt.Errorf("-file is required")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	_, body, err := markdown.ParseFrontMatter(raw)
	if err != nil {
		return err
	}

	refs, err := assetRefs(*assetDir, *baseURL)
	if err != nil {
		return err
	}

	opts := markdown.DefaultOptions()
	opts.Highlight.Theme = *theme
	opts.Highlight.Classes = *classes

	warn := console.LevelWarn
	provider := console.NewProvider(console.Options{Writer: os.Stderr, MinLevel: &warn})
	renderer := markdown.NewRenderer(
		markdown.WithOptions(opts),
		markdown.WithSanitizer(*sanitize),
		markdown.WithLogger(provider.GetLogger("mdpages.markdown")),
	)

	html, err := renderer.Render(ctx, string(body), refs)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(html), 0o644)
	}
	_, err = io.WriteString(out, html)
	return err
}

// assetRefs lists the regular files of dir in name order.
func assetRefs(dir, baseURL string) ([]markdown.AssetRef, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(baseURL, "/")
	refs := make([]markdown.AssetRef, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		refs = append(refs, markdown.AssetRef{
			Filename:  name,
			AltText:   strings.TrimSuffix(name, filepath.Ext(name)),
			PublicURL: base + "/" + name,
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Filename < refs[j].Filename })
	return refs, nil
}
