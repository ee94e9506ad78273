// Package toc turns the per-user tables of contents of a report into a
// single slide order and the markup the slide deck is built from.
package toc

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RootID is the synthetic first node every outline hangs off
const RootID = "greeting"

// Depths of outline entries
const (
	DepthSection = 1
	DepthEntry   = 2
)

// Entry is one anchor of a table of contents
type Entry struct {
	ID    string `json:"id"`
	Depth int    `json:"depth"`
}

// Outline is one user's table of contents in document order
type Outline []Entry

// ParseOutline extracts the anchors of a rendered table of contents.
// Anchors directly inside a table cell are sections, anchors inside a list
// inside a table cell are entries of the preceding section.
func ParseOutline(fragment string) (Outline, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to parse toc: %w", err)
	}

	var out Outline
	doc.Find("td>a, td>ul>li>a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		id := strings.TrimPrefix(href, "#")
		if id == "" {
			return
		}
		depth := DepthEntry
		if goquery.NodeName(sel.Parent()) == "td" {
			depth = DepthSection
		}
		out = append(out, Entry{ID: id, Depth: depth})
	})
	return out, nil
}
