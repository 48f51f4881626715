package website

import "fmt"

// Navigator holds which page is currently displayed.
// The zero value is ready to use and shows Home.
type Navigator struct {
	current Page
}

// NewNavigator returns a Navigator showing Home.
func NewNavigator() *Navigator {
	return &Navigator{current: Home}
}

// Current returns the page being displayed.
func (n *Navigator) Current() Page {
	return n.current
}

// Navigate makes target the displayed page.
// Pages only come from the constants or ParsePage, so an out-of-range value
// is a programming error.
func (n *Navigator) Navigate(target Page) {
	if !target.Valid() {
		panic(fmt.Sprintf("website: navigate to %s", target))
	}
	n.current = target
}
