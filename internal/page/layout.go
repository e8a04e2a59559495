// Package page assembles the HTML documents served by the device web interface.
//
// Every page is a fixed header (doctype, head with viewport and inline
// stylesheet, page heading, navigation menu), page-specific body markup
// supplied by the caller, and a fixed footer. A Layout holds the fixed
// fragments and is immutable once built; each request gets its own Document.
package page

import (
	"html"
	"strings"
)

const (
	// DefaultTitle is the <title> of every page.
	DefaultTitle = "ASTRA"
	// DefaultHeading is the <h1> shown above the menu.
	DefaultHeading = "Float Data"
	// DefaultViewport is the content of the viewport meta tag.
	DefaultViewport = "user-scalable=yes,initial-scale=1.0,width=device-width"
	// DefaultMaxSize bounds a finished document in bytes.
	DefaultMaxSize = 64 << 10

	footer = "</body></html>"
)

// Layout holds the header and footer shared by every page.
// Safe for concurrent use.
type Layout struct {
	title      string
	heading    string
	viewport   string
	stylesheet Stylesheet
	menu       Menu
	maxSize    int
	header     string
}

// Option configures a Layout.
type Option func(*Layout)

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(l *Layout) {
		l.title = title
	}
}

// WithHeading sets the page heading.
func WithHeading(heading string) Option {
	return func(l *Layout) {
		l.heading = heading
	}
}

// WithViewport sets the viewport meta content.
func WithViewport(viewport string) Option {
	return func(l *Layout) {
		l.viewport = viewport
	}
}

// WithStylesheet replaces the inline stylesheet.
func WithStylesheet(s Stylesheet) Option {
	return func(l *Layout) {
		l.stylesheet = append(Stylesheet(nil), s...)
	}
}

// WithMenu replaces the navigation menu.
func WithMenu(m Menu) Option {
	return func(l *Layout) {
		l.menu = append(Menu(nil), m...)
	}
}

// WithMaxSize bounds finished documents to n bytes. Zero disables the limit.
func WithMaxSize(n int) Option {
	return func(l *Layout) {
		l.maxSize = n
	}
}

// NewLayout builds a layout from the defaults and the given options,
// and renders its header once.
func NewLayout(opts ...Option) *Layout {
	l := &Layout{
		title:      DefaultTitle,
		heading:    DefaultHeading,
		viewport:   DefaultViewport,
		stylesheet: DefaultStylesheet(),
		menu:       DefaultMenu(),
		maxSize:    DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.maxSize < 0 {
		l.maxSize = 0
	}
	l.header = l.renderHeader()
	return l
}

var defaultLayout = NewLayout()

// Default returns the layout built into the firmware.
func Default() *Layout {
	return defaultLayout
}

// Begin starts a document with the default layout.
func Begin() *Document {
	return defaultLayout.Begin()
}

func (l *Layout) renderHeader() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html>")
	b.WriteString("<head>")
	b.WriteString("<title>" + Escape(l.title) + "</title>")
	b.WriteString("<meta name='viewport' content='" + Escape(l.viewport) + "'>")
	b.WriteString("<style>")
	// A "</" inside a style element would end it early.
	b.WriteString(strings.ReplaceAll(l.stylesheet.String(), "</", `<\/`))
	b.WriteString("</style></head><body>")
	b.WriteString("<h1>" + Escape(l.heading) + "</h1>")
	b.WriteString(l.menu.String())
	return b.String()
}

// Begin returns a new document preloaded with the header.
func (l *Layout) Begin() *Document {
	d := &Document{max: l.maxSize}
	if d.max > 0 && len(l.header)+len(footer) > d.max {
		d.err = ErrTooLarge
		return d
	}
	d.buf.Grow(len(l.header) + len(footer))
	d.buf.WriteString(l.header)
	return d
}

// Render assembles a complete document around body in one call.
func (l *Layout) Render(body ...string) (string, error) {
	d := l.Begin()
	if err := d.Append(body...); err != nil {
		return "", err
	}
	return d.End()
}

// Header returns the fixed header fragment.
func (l *Layout) Header() string { return l.header }

// Footer returns the fixed footer fragment.
func (l *Layout) Footer() string { return footer }

// Title returns the document title.
func (l *Layout) Title() string { return l.title }

// Heading returns the page heading.
func (l *Layout) Heading() string { return l.heading }

// MaxSize returns the document size limit in bytes (0 means unlimited).
func (l *Layout) MaxSize() int { return l.maxSize }

// Menu returns a copy of the navigation menu.
func (l *Layout) Menu() Menu {
	return append(Menu(nil), l.menu...)
}

// Stylesheet returns a copy of the stylesheet.
func (l *Layout) Stylesheet() Stylesheet {
	return append(Stylesheet(nil), l.stylesheet...)
}

// Escape escapes text for use in element content or quoted attribute values.
func Escape(s string) string {
	return html.EscapeString(s)
}
