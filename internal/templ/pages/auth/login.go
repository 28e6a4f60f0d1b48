// Package auth renders the login page.
package auth

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/carevia/foundation/internal/templ/shared"
)

// LoginPageData contains data for the login page.
type LoginPageData struct {
	Action        string // Form target, usually /login
	Email         string // Repopulated after a failed attempt; never the password
	Flash         *shared.Flash
	CSRFFieldName string
	CSRFToken     string
}

// LoginPage renders the sign-in form.
//
// The submit button is disabled client-side once the form is submitted.
// Every server render, including one after a failed attempt, starts with it
// enabled.
func LoginPage(data LoginPageData) templ.Component {
	return shared.Layout("Sign in", loginForm(data))
}

func loginForm(data LoginPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := shared.NewWriter(out)
		w.Raw(`<main class="mx-auto mt-24 max-w-sm rounded-lg bg-white p-8 shadow">`,
			`<h1 class="mb-6 text-2xl font-bold">Admin sign in</h1>`)
		w.Component(ctx, shared.FlashBanner(data.Flash))

		w.Raw(`<form method="post"`)
		w.Attr("action", data.Action)
		w.Raw(` onsubmit="this.querySelector('button').disabled=true" novalidate>`)
		shared.CSRFField(w, data.CSRFFieldName, data.CSRFToken)

		w.Raw(`<label for="email" class="block text-sm font-medium">Email</label>`,
			`<input id="email" name="email" type="email" autocomplete="username" required`)
		w.Attr("class", shared.InputClass("mt-1 mb-4"))
		w.Attr("value", data.Email)
		w.Raw(`>`)

		w.Raw(`<label for="password" class="block text-sm font-medium">Password</label>`,
			`<input id="password" name="password" type="password" autocomplete="current-password" required`)
		w.Attr("class", shared.InputClass("mt-1 mb-6"))
		w.Raw(`>`)

		w.Raw(`<button type="submit"`)
		w.Attr("class", shared.ButtonClass("w-full disabled:opacity-50"))
		w.Raw(`>Sign in</button></form></main>`)
		return w.Err()
	})
}
