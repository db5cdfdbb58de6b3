// Package markdown turns stored page markdown into HTML.
//
// Rendering runs in two stages. Asset references are first rewritten with
// a RewriteSet: for every asset, in list order, image references
// ![alt](filename) and link references [text](filename) are pointed at the
// asset's public URL. The result is then converted by goldmark with GFM,
// hard line breaks, GitHub style alert blockquotes and chroma highlighting
// of fenced code. A fence that cannot be highlighted is emitted as plain
// escaped code and reported as a *FragmentError; it never fails the page.
package markdown
