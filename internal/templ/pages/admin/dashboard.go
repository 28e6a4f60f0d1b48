// Package admin renders the guarded admin dashboard.
package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/carevia/foundation/internal/domain"
	"github.com/carevia/foundation/internal/templ/shared"
)

// DashboardPageData contains data for the admin dashboard.
type DashboardPageData struct {
	Contacts      []domain.Contact
	Gallery       []domain.GalleryItem
	Testimonials  []domain.Testimonial
	Flash         *shared.Flash
	CSRFFieldName string
	CSRFToken     string
	MaxUploadMB   int
}

const dateFormat = "2 Jan 2006 15:04"

// DashboardPage renders the admin dashboard.
func DashboardPage(data DashboardPageData) templ.Component {
	return shared.Layout("Admin", templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := shared.NewWriter(out)
		w.Raw(`<header class="flex items-center justify-between bg-white px-8 py-4 shadow">`,
			`<h1 class="text-xl font-bold">Carevia admin</h1>`,
			`<form method="post" action="/logout">`)
		shared.CSRFField(w, data.CSRFFieldName, data.CSRFToken)
		w.Raw(`<button type="submit"`)
		w.Attr("class", shared.ButtonClass("bg-slate-600 hover:bg-slate-700"))
		w.Raw(`>Sign out</button></form></header><main class="mx-auto max-w-5xl space-y-10 p-8">`)
		w.Component(ctx, shared.FlashBanner(data.Flash))

		writeContacts(w, data.Contacts)
		writeGallery(w, data)
		writeTestimonials(w, data)

		w.Raw(`</main>`)
		return w.Err()
	}))
}

func writeContacts(w *shared.Writer, contacts []domain.Contact) {
	w.Raw(`<section><h2 class="mb-4 text-lg font-semibold">Recent messages</h2>`)
	if len(contacts) == 0 {
		w.Raw(`<p class="text-sm text-slate-500">No messages yet.</p></section>`)
		return
	}
	w.Raw(`<table class="w-full text-left text-sm"><thead><tr>`,
		`<th>Received</th><th>Name</th><th>Email</th><th>Phone</th><th>Subject</th><th>Message</th>`,
		`</tr></thead><tbody>`)
	for _, c := range contacts {
		w.Raw(`<tr class="border-t align-top"><td>`)
		w.Text(c.CreatedAt.Format(dateFormat))
		w.Raw(`</td><td>`)
		w.Text(c.Name)
		w.Raw(`</td><td><a`)
		w.Attr("href", "mailto:"+c.Email)
		w.Raw(`>`)
		w.Text(c.Email)
		w.Raw(`</a></td><td>`)
		w.Text(c.Phone)
		w.Raw(`</td><td>`)
		w.Text(c.Subject)
		w.Raw(`</td><td class="whitespace-pre-line">`)
		w.Text(c.Message)
		w.Raw(`</td></tr>`)
	}
	w.Raw(`</tbody></table></section>`)
}

func writeGallery(w *shared.Writer, data DashboardPageData) {
	w.Raw(`<section><h2 class="mb-4 text-lg font-semibold">Gallery</h2>`,
		`<form method="post" action="/admin/gallery" enctype="multipart/form-data" class="mb-6 flex flex-wrap gap-3">`)
	shared.CSRFField(w, data.CSRFFieldName, data.CSRFToken)
	w.Raw(`<input type="file" name="image" accept="image/jpeg,image/png,image/gif,image/webp" required>`,
		`<input type="text" name="caption" placeholder="Caption"`)
	w.Attr("maxlength", fmt.Sprint(domain.MaxCaptionLength))
	w.Attr("class", shared.InputClass("w-64"))
	w.Raw(`><button type="submit"`)
	w.Attr("class", shared.ButtonClass())
	w.Raw(`>Upload</button>`)
	if data.MaxUploadMB > 0 {
		w.Raw(`<span class="text-xs text-slate-500">Max `)
		w.Text(fmt.Sprint(data.MaxUploadMB))
		w.Raw(` MB</span>`)
	}
	w.Raw(`</form><ul class="grid grid-cols-3 gap-4">`)
	for _, g := range data.Gallery {
		w.Raw(`<li class="rounded bg-white p-2 shadow"><img loading="lazy" class="aspect-square w-full object-cover"`)
		w.Attr("src", g.ImageURL)
		w.Attr("alt", g.Caption)
		w.Raw(`><p class="mt-2 text-sm">`)
		w.Text(g.Caption)
		w.Raw(`</p><form method="post"`)
		w.Attr("action", fmt.Sprintf("/admin/gallery/%d/delete", g.ID))
		w.Raw(`>`)
		shared.CSRFField(w, data.CSRFFieldName, data.CSRFToken)
		w.Raw(`<button type="submit" class="text-xs text-red-700">Delete</button></form></li>`)
	}
	w.Raw(`</ul></section>`)
}

func writeTestimonials(w *shared.Writer, data DashboardPageData) {
	w.Raw(`<section><h2 class="mb-4 text-lg font-semibold">Testimonials</h2>`,
		`<form method="post" action="/admin/testimonials" class="mb-6 grid gap-3">`)
	shared.CSRFField(w, data.CSRFFieldName, data.CSRFToken)
	w.Raw(`<input type="text" name="author_name" placeholder="Name" required`)
	w.Attr("class", shared.InputClass())
	w.Raw(`><input type="text" name="author_role" placeholder="Role (optional)"`)
	w.Attr("class", shared.InputClass())
	w.Raw(`><textarea name="quote" rows="3" placeholder="Quote" required`)
	w.Attr("class", shared.InputClass())
	w.Raw(`></textarea><button type="submit"`)
	w.Attr("class", shared.ButtonClass("justify-self-start"))
	w.Raw(`>Add testimonial</button></form><ul class="space-y-3">`)
	for _, t := range data.Testimonials {
		w.Raw(`<li class="rounded bg-white p-4 shadow"><blockquote>`)
		w.Text(t.Quote)
		w.Raw(`</blockquote><p class="mt-2 text-sm text-slate-600">`)
		w.Text(t.AuthorName)
		if t.AuthorRole != "" {
			w.Text(", " + t.AuthorRole)
		}
		w.Raw(`</p><form method="post"`)
		w.Attr("action", fmt.Sprintf("/admin/testimonials/%d/delete", t.ID))
		w.Raw(`>`)
		shared.CSRFField(w, data.CSRFFieldName, data.CSRFToken)
		w.Raw(`<button type="submit" class="text-xs text-red-700">Delete</button></form></li>`)
	}
	w.Raw(`</ul></section>`)
}
