package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindAlert is the node kind of alert blocks.
var KindAlert = ast.NewNodeKind("Alert")

// alertMarker matches the [!TYPE] marker at the start of a quote. Text may
// follow on the same line after whitespace and is kept as body content.
var alertMarker = regexp.MustCompile(`(?i)^\[!(note|tip|important|warning|caution)\](?:[ \t]+|[ \t]*\r?\n?$)`)

var alertTitles = map[string]string{
	"note":      "Note",
	"tip":       "Tip",
	"important": "Important",
	"warning":   "Warning",
	"caution":   "Caution",
}

// Alert is a blockquote promoted to a callout by a leading [!TYPE] line.
type Alert struct {
	ast.BaseBlock
	AlertType string
}

// NewAlert returns an empty alert of the given lowercase type.
func NewAlert(alertType string) *Alert {
	return &Alert{AlertType: alertType}
}

func (n *Alert) Kind() ast.NodeKind { return KindAlert }

func (n *Alert) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"AlertType": n.AlertType}, nil)
}

// Alerts is the goldmark extension for "> [!NOTE]" style callouts.
var Alerts goldmark.Extender = &alertExtension{}

type alertExtension struct{}

func (e *alertExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&alertTransformer{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&alertRenderer{}, 500),
	))
}

type alertTransformer struct{}

func (t *alertTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	var quotes []*ast.Blockquote
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if bq, ok := n.(*ast.Blockquote); ok && entering {
			quotes = append(quotes, bq)
		}
		return ast.WalkContinue, nil
	})

	source := reader.Source()
	for _, bq := range quotes {
		promoteAlert(bq, source)
	}
}

func promoteAlert(bq *ast.Blockquote, source []byte) {
	para, ok := bq.FirstChild().(*ast.Paragraph)
	if !ok || para.Lines().Len() == 0 {
		return
	}
	marker := para.Lines().At(0)
	value := marker.Value(source)
	line := bytes.TrimLeft(value, " \t")
	match := alertMarker.FindSubmatch(line)
	if match == nil {
		return
	}
	markerEnd := marker.Start + len(value) - len(line) + len(match[0])

	// Drop the inline text covering the marker, trimming a node that runs
	// past it.
	for child := para.FirstChild(); child != nil; {
		next := child.NextSibling()
		txt, ok := child.(*ast.Text)
		if !ok || txt.Segment.Start >= markerEnd {
			break
		}
		if txt.Segment.Stop > markerEnd {
			txt.Segment = txt.Segment.WithStart(markerEnd)
			break
		}
		para.RemoveChild(para, child)
		child = next
	}
	if para.ChildCount() == 0 {
		bq.RemoveChild(bq, para)
	}

	alert := NewAlert(strings.ToLower(string(match[1])))
	parent := bq.Parent()
	if parent == nil {
		return
	}
	parent.ReplaceChild(parent, bq, alert)
	for child := bq.FirstChild(); child != nil; {
		next := child.NextSibling()
		alert.AppendChild(alert, child)
		child = next
	}
}

type alertRenderer struct{}

func (r *alertRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAlert, r.renderAlert)
}

func (r *alertRenderer) renderAlert(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	alert := node.(*Alert)
	if entering {
		fmt.Fprintf(w, "<div class=\"markdown-alert markdown-alert-%s\">\n<p class=\"markdown-alert-title\">%s</p>\n",
			alert.AlertType, alertTitles[alert.AlertType])
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkContinue, nil
}
