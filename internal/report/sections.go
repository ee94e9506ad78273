// Package report loads analysis result archives and keeps the split,
// deduplicated report content in memory.
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/acarl005/stripansi"
)

// ErrMismatch is returned when an archive or mail does not have the
// expected layout
var ErrMismatch = errors.New("input mismatch from expectation")

func mismatch(where string) error {
	return fmt.Errorf("%s: %w", where, ErrMismatch)
}

// Section is one addressable part of a user's report mail
type Section struct {
	// anchor name, e.g. "usage" or "cpu_metrics"
	Name   string
	Title  string
	HTML   string
	Common bool
}

// sharedSections are common to every user regardless of their anchors
var sharedSections = []string{"greeting", "news", "usage", "footer"}

var sharedSuffixes = []string{"_metrics", "_problems"}

// SplitSections cuts a rendered report mail into sections. The mail is the
// header part (from <head> on) followed by the body. Occurrences of
// "<period>:<user>" are rewritten to "<period>:web" so that identical
// content of different users deduplicates.
func SplitSections(header, body string, period int, user string) ([]Section, error) {
	ind := strings.Index(header, "<head>")
	if ind == -1 {
		return nil, mismatch("find_head")
	}
	tag := strconv.Itoa(period)
	content := strings.ReplaceAll(header[ind:]+body, tag+":"+user, tag+":web")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail: %w", err)
	}

	shared := make(map[string]bool)
	for _, s := range sharedSections {
		shared[s] = true
	}
	doc.Find(`a[name$="_problems"]`).Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		shared[strings.TrimSuffix(name, "_problems")] = true
	})

	footerParent := doc.Find(`a[name="footer"]`).Parent()
	breakpoints := doc.Find("h1, h2, h3, h4, h5, h6").Union(footerParent)
	bodySel := doc.Find("body")

	cur := bodySel.Children().First()
	if cur.Length() == 0 {
		return nil, mismatch("find_body")
	}
	greeting, err := cur.Html()
	if err != nil {
		return nil, err
	}
	cur.SetHtml(`<a name="greeting"></a>` + greeting)

	title, name := "Greeting", "greeting"
	var out []Section
	for cur.Length() > 0 {
		var sel *goquery.Selection
		tail := ""
		if name == "footer" {
			title = "Footer"
			last := bodySel.Children().Last()
			if !cur.IsSelection(last) {
				if tail, err = goquery.OuterHtml(last); err != nil {
					return nil, err
				}
			}
			sel = cur.NextUntilSelection(last)
		} else {
			sel = cur.NextUntilSelection(breakpoints)
		}

		head, err := goquery.OuterHtml(cur)
		if err != nil {
			return nil, err
		}
		rest, err := outerHTML(sel)
		if err != nil {
			return nil, err
		}
		out = append(out, Section{
			Name:   name,
			Title:  strings.TrimSpace(stripansi.Strip(title)),
			HTML:   head + rest + tail,
			Common: isShared(name, shared),
		})

		if name == "footer" {
			break
		}
		if sel.Length() > 0 {
			cur = sel.Last().Next()
		} else {
			cur = cur.Next()
		}
		if cur.Length() == 0 {
			break
		}
		title = cur.Text()
		var ok bool
		name, ok = cur.Children().First().Attr("name")
		if !ok {
			return nil, mismatch("get_machine_name")
		}
	}
	return out, nil
}

func isShared(name string, shared map[string]bool) bool {
	if shared[name] {
		return true
	}
	for _, suffix := range sharedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// outerHTML concatenates the outer HTML of every node in the selection
func outerHTML(sel *goquery.Selection) (string, error) {
	var b strings.Builder
	for i := range sel.Nodes {
		h, err := goquery.OuterHtml(sel.Eq(i))
		if err != nil {
			return "", err
		}
		b.WriteString(h)
	}
	return b.String(), nil
}
