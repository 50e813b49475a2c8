package pagetree

import (
	"strings"

	"github.com/temirov/pagegen/internal/notion"
)

// UntitledPage is the title used when a page carries no usable title property.
const UntitledPage = "Untitled"

// ExtractTitle returns the display title of a page. It never panics.
func ExtractTitle(page *notion.Page) (title string) {
	defer func() {
		if recover() != nil {
			title = UntitledPage
		}
	}()
	if page == nil {
		return UntitledPage
	}
	resolved := page.Title()
	if strings.TrimSpace(resolved) == "" {
		return UntitledPage
	}
	return resolved
}
