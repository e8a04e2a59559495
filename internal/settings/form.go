package settings

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Extra-Chill/astra-web/internal/page"
)

// Form field names.
const (
	FieldDeviceName     = "device_name"
	FieldSampleInterval = "sample_interval"
	FieldTargetDepth    = "target_depth"
	FieldNotes          = "notes"
)

var strict = bluemonday.StrictPolicy()

// plainText strips all markup from submitted text. The policy escapes what it
// keeps, so the result is unescaped back to plain text for storage.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// FromForm parses submitted form values on top of base.
// Fields missing from the form keep their value from base.
func FromForm(values url.Values, base Settings) (Settings, error) {
	s := base

	if _, ok := values[FieldDeviceName]; ok {
		s.DeviceName = plainText(values.Get(FieldDeviceName))
	}
	if _, ok := values[FieldNotes]; ok {
		s.Notes = plainText(values.Get(FieldNotes))
	}
	if v := strings.TrimSpace(values.Get(FieldSampleInterval)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return base, errors.New("sample interval must be a whole number of seconds")
		}
		s.SampleInterval = n
	}
	if v := strings.TrimSpace(values.Get(FieldTargetDepth)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return base, errors.New("target depth must be a number")
		}
		s.TargetDepth = f
	}

	if err := s.Validate(); err != nil {
		return base, err
	}
	return s, nil
}

// Notice is a message shown above the form.
type Notice struct {
	Text  string
	Error bool
}

// Form renders the configuration page body. Every value is escaped.
func Form(s Settings, n Notice) string {
	var b strings.Builder

	b.WriteString("<h2>Configuration</h2>")
	if n.Text != "" {
		class := "rcorners_n"
		if n.Error {
			class = "rcorners_m"
		}
		fmt.Fprintf(&b, "<p class='%s'>%s</p>", class, page.Escape(n.Text))
	}

	fmt.Fprintf(&b, "<p class='rcorners_w'>%s: sampling every %ds, target depth %sm</p>",
		page.Escape(s.DeviceName), s.SampleInterval, formatDepth(s.TargetDepth))

	b.WriteString("<form method='post' action='/upload'>")
	row(&b, "Device name", fmt.Sprintf("<input type='text' name='%s' maxlength='%d' value='%s'>",
		FieldDeviceName, maxNameLen, page.Escape(s.DeviceName)))
	row(&b, "Sample interval (s)", fmt.Sprintf("<input type='number' name='%s' min='1' max='%d' value='%d'>",
		FieldSampleInterval, maxSampleInterval, s.SampleInterval))
	row(&b, "Target depth (m)", fmt.Sprintf("<input type='number' name='%s' min='0' max='%d' step='0.1' value='%s'>",
		FieldTargetDepth, maxTargetDepth, formatDepth(s.TargetDepth)))
	row(&b, "Notes", fmt.Sprintf("<textarea name='%s' maxlength='%d'>%s</textarea>",
		FieldNotes, maxNotesLen, page.Escape(s.Notes)))
	b.WriteString("<input type='submit' value='Save'>")
	b.WriteString("</form>")

	return b.String()
}

func row(b *strings.Builder, label, field string) {
	fmt.Fprintf(b, "<div class='row'><div class='column'><h3>%s</h3></div><div class='column'>%s</div></div>",
		page.Escape(label), field)
}

func formatDepth(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
