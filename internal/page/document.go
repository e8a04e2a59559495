package page

import (
	"errors"
	"strings"
)

var (
	// ErrFinalized is returned when content is appended after End.
	ErrFinalized = errors.New("page: document already finalized")
	// ErrTooLarge is returned when a document outgrows its layout's size limit.
	ErrTooLarge = errors.New("page: document exceeds size limit")
)

// Document accumulates one page. It is owned by a single request and
// is not safe for concurrent use.
type Document struct {
	buf   strings.Builder
	max   int
	done  bool
	final string
	err   error
}

// Append adds page-specific markup to the body. Content is written verbatim;
// callers escape untrusted values before appending.
func (d *Document) Append(content ...string) error {
	for _, c := range content {
		if _, err := d.WriteString(c); err != nil {
			return err
		}
	}
	return nil
}

// WriteString implements io.StringWriter.
func (d *Document) WriteString(s string) (int, error) {
	if d.done {
		return 0, ErrFinalized
	}
	if d.err != nil {
		return 0, d.err
	}
	// Room for the footer is always kept.
	if d.max > 0 && d.buf.Len()+len(s)+len(footer) > d.max {
		d.err = ErrTooLarge
		d.buf = strings.Builder{}
		return 0, d.err
	}
	return d.buf.WriteString(s)
}

// Write implements io.Writer.
func (d *Document) Write(p []byte) (int, error) {
	return d.WriteString(string(p))
}

// Len returns the number of bytes assembled so far.
func (d *Document) Len() int {
	if d.done {
		return len(d.final)
	}
	return d.buf.Len()
}

// Err returns the error that poisoned the document, if any.
func (d *Document) Err() error { return d.err }

// End appends the footer and returns the complete document.
// Later calls return the same document. A poisoned document yields
// its error and no partial output.
func (d *Document) End() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	if !d.done {
		d.buf.WriteString(footer)
		d.final = d.buf.String()
		d.done = true
	}
	return d.final, nil
}
