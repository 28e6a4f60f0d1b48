// Package shared holds the layout and small components used by every page.
package shared

import (
	"context"
	"io"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

// FlashType selects the banner style.
type FlashType string

const (
	FlashSuccess FlashType = "success"
	FlashError   FlashType = "error"
	FlashInfo    FlashType = "info"
)

// Flash is a one-off message shown above a form.
type Flash struct {
	Type    FlashType
	Message string
}

const (
	baseButton   = "inline-flex items-center justify-center rounded-md px-4 py-2 text-sm font-semibold shadow-sm"
	baseInput    = "block w-full rounded-md border border-slate-300 px-3 py-2 text-sm"
	baseFlash    = "mb-4 rounded-md px-4 py-3 text-sm"
	flashSuccess = "bg-emerald-50 text-emerald-800"
	flashError   = "bg-red-50 text-red-800"
	flashInfo    = "bg-sky-50 text-sky-800"
)

// ButtonClass merges the base button classes with overrides.
func ButtonClass(extra ...string) string {
	return twmerge.Merge(append([]string{baseButton, "bg-teal-700 text-white hover:bg-teal-800"}, extra...)...)
}

// InputClass merges the base input classes with overrides.
func InputClass(extra ...string) string {
	return twmerge.Merge(append([]string{baseInput}, extra...)...)
}

// FlashClass returns the banner classes for a flash type.
func FlashClass(t FlashType) string {
	switch t {
	case FlashSuccess:
		return twmerge.Merge(baseFlash, flashSuccess)
	case FlashError:
		return twmerge.Merge(baseFlash, flashError)
	default:
		return twmerge.Merge(baseFlash, flashInfo)
	}
}

// Writer accumulates the first write error so components can emit markup
// without checking every call.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup.
func (w *Writer) Raw(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, p)
	}
}

// Text writes escaped text.
func (w *Writer) Text(s string) {
	w.Raw(templ.EscapeString(s))
}

// Attr writes name="escaped value".
func (w *Writer) Attr(name, value string) {
	w.Raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// Component renders a child component.
func (w *Writer) Component(ctx context.Context, c templ.Component) {
	if w.err != nil || c == nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

// Layout wraps body in the site's HTML document.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := NewWriter(out)
		w.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<meta name="robots" content="noindex">`,
			`<title>`)
		w.Text(strings.TrimSpace(title + " | Carevia Foundation"))
		w.Raw(`</title><link rel="stylesheet" href="/assets/site.css"></head>`,
			`<body class="min-h-screen bg-slate-50 text-slate-900">`)
		w.Component(ctx, body)
		w.Raw(`</body></html>`)
		return w.Err()
	})
}

// FlashBanner renders f, or nothing when f is nil.
func FlashBanner(f *Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		if f == nil || f.Message == "" {
			return nil
		}
		w := NewWriter(out)
		w.Raw(`<div role="alert"`)
		w.Attr("class", FlashClass(f.Type))
		w.Raw(`>`)
		w.Text(f.Message)
		w.Raw(`</div>`)
		return w.Err()
	})
}

// CSRFField renders the hidden token input.
func CSRFField(w *Writer, fieldName, token string) {
	w.Raw(`<input type="hidden"`)
	w.Attr("name", fieldName)
	w.Attr("value", token)
	w.Raw(`>`)
}
