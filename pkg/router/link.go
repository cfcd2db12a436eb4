package router

import (
	"strings"

	"github.com/vango-dev/wayfinder/pkg/browser"
)

// IsExternalHref reports whether a link leaves the application: hrefs
// starting with "http" or "//" are handled by the browser.
func IsExternalHref(href string) bool {
	return strings.HasPrefix(href, "http") || strings.HasPrefix(href, "//")
}

// interceptClick turns in-app anchor clicks into router navigations. The href
// is navigated as written, so in hash mode links carry the route path
// ("/about"), not the fragment ("#/about").
func (r *Router) interceptClick(ev *browser.Event) {
	if ev.Href == "" || IsExternalHref(ev.Href) {
		return
	}
	ev.PreventDefault()
	r.logger.Debug("link intercepted", "href", ev.Href)
	r.Navigate(r.eventContext(), ev.Href)
}
