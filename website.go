// Package website holds the behavior of the Focus On Delaine marketing site:
// which of the five pages is showing, and the contact form that turns into a
// mailto link.
package website

import "fmt"

// Page identifies one of the site's pages.
type Page uint8

// The zero value is Home, so a fresh Navigator starts there.
const (
	Home Page = iota
	About
	Portfolio
	Pricing
	Book

	pageCount
)

var pageNames = [pageCount]string{
	Home:      "home",
	About:     "about",
	Portfolio: "portfolio",
	Pricing:   "pricing",
	Book:      "book",
}

var pageTitles = [pageCount]string{
	Home:      "Home",
	About:     "About",
	Portfolio: "Portfolio",
	Pricing:   "Pricing",
	Book:      "Book a Call",
}

// Pages returns every page in navigation order.
func Pages() []Page {
	return []Page{Home, About, Portfolio, Pricing, Book}
}

// ParsePage converts a page identifier ("home", "about", ...) into a Page.
// It is the only way to build a Page from untrusted input.
func ParsePage(s string) (Page, error) {
	for i, name := range pageNames {
		if name == s {
			return Page(i), nil
		}
	}
	return Home, &UnknownPageError{Value: s}
}

// Valid reports whether p is one of the five pages.
func (p Page) Valid() bool {
	return p < pageCount
}

// String returns the page identifier used on the wire and in templates.
func (p Page) String() string {
	if !p.Valid() {
		return fmt.Sprintf("page(%d)", uint8(p))
	}
	return pageNames[p]
}

// Title returns the label shown in the header navigation.
func (p Page) Title() string {
	if !p.Valid() {
		return p.String()
	}
	return pageTitles[p]
}

// MarshalText implements encoding.TextMarshaler.
func (p Page) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, &UnknownPageError{Value: p.String()}
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Page) UnmarshalText(text []byte) error {
	parsed, err := ParsePage(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
