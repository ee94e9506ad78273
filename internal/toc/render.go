package toc

import (
	"fmt"
	"html"
	"html/template"
	"sort"
	"strings"
)

// TOCSection is the user-content section holding each user's table of contents
const TOCSection = "toc"

// Report is the part of a loaded period a deck is built from
type Report struct {
	// section id -> shared content id
	CommonContent map[string]int `json:"common_content"`
	// section id -> user -> HTML
	UserContent map[string]map[string]string `json:"user_content"`
}

// Users returns the users that have a table of contents, sorted
func (r Report) Users() []string {
	users := make([]string, 0, len(r.UserContent[TOCSection]))
	for u := range r.UserContent[TOCSection] {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Option is one entry of a selector
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Deck is everything the slide presentation needs for one period
type Deck struct {
	SectionHTML      string `json:"sectionHtml"`
	TOCHTML          string `json:"tocHtml"`
	UserSelectHTML   string `json:"userSelectHtml"`
	PeriodSelectHTML string `json:"periodSelectHtml"`

	Users  []string `json:"users"`
	Order  []string `json:"order"`
	Groups []Group  `json:"groups"`
	// section id -> slide index
	SlideIDs map[string]int `json:"slideIds"`
	// slide index -> shared slide
	Common map[int]bool `json:"common"`
	// [slide][user] is true when the user has no content for the slide;
	// nil for shared slides
	Missing [][]bool `json:"missing"`
	// ids dropped from the order because they never became ready
	Unreachable []string `json:"unreachable,omitempty"`
}

// IsMissing reports whether user index u has no content on slide i
func (d Deck) IsMissing(i, u int) bool {
	if i < 0 || i >= len(d.Missing) || u < 0 || u >= len(d.Missing[i]) {
		return false
	}
	return d.Missing[i][u]
}

type tocNode struct {
	ID    string
	Name  string
	Index int
	// Href links to the raw id; a template URL context would percent-encode it
	Href template.HTMLAttr
}

func newTocNode(id, name string, index int) tocNode {
	return tocNode{ID: id, Name: name, Index: index, Href: template.HTMLAttr(`href="#` + html.EscapeString(id) + `"`)}
}

type tocGroup struct {
	Node    tocNode
	Entries []tocNode
}

type slide struct {
	Common bool
	Shared template.HTML
	Users  []template.HTML
}

var (
	sectionTemplate = template.Must(template.New("sections").Parse(
		`{{- range . -}}` +
			`<section>{{if .Common}}{{.Shared}}{{else}}{{range .Users}}<section>{{.}}</section>{{end}}{{end}}</section>` +
			`{{- end -}}`))

	tocTemplate = template.Must(template.New("toc").Parse(
		`{{- range . -}}` +
			`{{- if .Entries -}}` +
			`<li class="mb-1">` +
			`<button class="btn btn-toggle d-inline-flex align-items-center rounded border-0" data-bs-toggle="collapse" aria-expanded="true" data-bs-target="#{{.Node.ID}}-collapse"></button>` +
			`<a class="btn btn-link border-0 d-inline-flex align-items-center rounded" {{.Node.Href}} id="toc-{{.Node.Index}}">{{.Node.Name}}</a>` +
			`<div class="collapse show" id="{{.Node.ID}}-collapse"><ul class="btn-toggle-nav list-unstyled fw-normal pb-1 small">` +
			`{{range .Entries}}<li><a class="link-body-emphasis d-inline-flex text-decoration-none rounded" {{.Href}} id="toc-{{.Index}}">{{.Name}}</a></li>{{end}}` +
			`</ul></div></li>` +
			`{{- else -}}` +
			`<div><a class="btn btn-link border-0 d-inline-flex align-items-center btn-nosubentry rounded" {{.Node.Href}} id="toc-{{.Node.Index}}">{{.Node.Name}}</a></div>` +
			`{{- end -}}` +
			`{{- end -}}`))

	selectTemplate = template.Must(template.New("select").Parse(
		`{{range .}}<option value="{{.Value}}">{{.Label}}</option>{{end}}`))
)

// Render builds the deck for a report: it parses every user's table of
// contents, orders the merged graph and assembles the markup.
func Render(r Report, dedup map[int]string, names map[string]string, periods []Option) (Deck, error) {
	users := r.Users()
	g := NewGraph()
	for _, u := range users {
		o, err := ParseOutline(r.UserContent[TOCSection][u])
		if err != nil {
			return Deck{}, fmt.Errorf("user %s: %w", u, err)
		}
		g.Add(o)
	}
	return Assemble(g, users, r, dedup, names, periods)
}

// Assemble builds the deck for an already merged graph
func Assemble(g *Graph, users []string, r Report, dedup map[int]string, names map[string]string, periods []Option) (Deck, error) {
	order, unreachable := g.Order()
	deck := Deck{
		Users:       users,
		Order:       order,
		Groups:      g.GroupOrder(order),
		SlideIDs:    make(map[string]int, len(order)),
		Common:      make(map[int]bool),
		Missing:     make([][]bool, len(order)),
		Unreachable: unreachable,
	}

	displayName := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	slides := make([]slide, len(order))
	for i, id := range order {
		deck.SlideIDs[id] = i
		if contentID, ok := r.CommonContent[id]; ok {
			deck.Common[i] = true
			slides[i] = slide{Common: true, Shared: template.HTML(dedup[contentID])}
			continue
		}

		perUser := r.UserContent[id]
		deck.Missing[i] = make([]bool, len(users))
		slides[i].Users = make([]template.HTML, len(users))
		for u, user := range users {
			frag, ok := perUser[user]
			if !ok {
				deck.Missing[i][u] = true
				frag = placeholder(displayName(id))
			}
			slides[i].Users[u] = template.HTML(frag)
		}
	}

	var groups []tocGroup
	for _, grp := range deck.Groups {
		tg := tocGroup{Node: newTocNode(grp.ID, displayName(grp.ID), deck.SlideIDs[grp.ID])}
		for _, id := range grp.Entries {
			tg.Entries = append(tg.Entries, newTocNode(id, displayName(id), deck.SlideIDs[id]))
		}
		groups = append(groups, tg)
	}

	var err error
	if deck.SectionHTML, err = execute(sectionTemplate, slides); err != nil {
		return Deck{}, err
	}
	if deck.TOCHTML, err = execute(tocTemplate, groups); err != nil {
		return Deck{}, err
	}
	userOptions := make([]Option, len(users))
	for i, u := range users {
		userOptions[i] = Option{Value: fmt.Sprint(i), Label: u}
	}
	if deck.UserSelectHTML, err = SelectorHTML(userOptions); err != nil {
		return Deck{}, err
	}
	if deck.PeriodSelectHTML, err = SelectorHTML(periods); err != nil {
		return Deck{}, err
	}
	return deck, nil
}

// SelectorHTML renders options for a select element
func SelectorHTML(options []Option) (string, error) {
	return execute(selectTemplate, options)
}

func placeholder(name string) string {
	return `<h4><a href="#null">` + html.EscapeString(name) + `</a></h4><p>no data available</p>`
}

func execute(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return b.String(), nil
}
