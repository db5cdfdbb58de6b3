package markdown

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

var errUnknownLanguage = errors.New("no lexer for language")

type highlighting struct {
	opts   HighlightOptions
	report func(*FragmentError)
}

func newHighlighting(opts HighlightOptions, report func(*FragmentError)) goldmark.Extender {
	return &highlighting{opts: opts, report: report}
}

func (h *highlighting) Extend(m goldmark.Markdown) {
	// Registered ahead of the default html renderer (priority 1000).
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&fenceRenderer{opts: h.opts, report: h.report}, 100),
	))
}

type fenceRenderer struct {
	opts   HighlightOptions
	report func(*FragmentError)
}

func (r *fenceRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFence)
}

func (r *fenceRenderer) renderFence(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	fence := node.(*ast.FencedCodeBlock)
	code := fenceBody(fence, source)
	language := string(fence.Language(source))

	if language == "" {
		writePlainFence(w, "", code)
		return ast.WalkSkipChildren, nil
	}

	highlighted, err := r.highlight(language, code)
	if err != nil {
		if r.report != nil {
			r.report(&FragmentError{Language: language, Err: err})
		}
		writePlainFence(w, language, code)
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.Write(highlighted)
	return ast.WalkSkipChildren, nil
}

func (r *fenceRenderer) highlight(language string, code []byte) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("chroma panic: %v", rec)
		}
	}()

	lexer := lexers.Get(language)
	if lexer == nil {
		return nil, fmt.Errorf("%w %q", errUnknownLanguage, language)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, string(code))
	if err != nil {
		return nil, fmt.Errorf("tokenise: %w", err)
	}

	formatter := chromahtml.New(chromahtml.WithClasses(r.opts.Classes))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, styles.Get(r.opts.Theme), iterator); err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func fenceBody(fence *ast.FencedCodeBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.Bytes()
}

func writePlainFence(w util.BufWriter, language string, code []byte) {
	if language == "" {
		_, _ = w.WriteString("<pre><code>")
	} else {
		_, _ = w.WriteString(`<pre><code class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(language)))
		_, _ = w.WriteString(`">`)
	}
	_, _ = w.Write(util.EscapeHTML(code))
	_, _ = w.WriteString("</code></pre>\n")
}
