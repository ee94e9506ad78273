package features

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/drew/jobreport/internal/toc"
)

type tocContext struct {
	outlines map[string]toc.Outline
	users    []string
	deck     toc.Deck
}

func (c *tocContext) userHasTheTableOfContents(user string, table *godog.Table) error {
	var outline toc.Outline
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 2 {
			return fmt.Errorf("row %d: expected id and depth", i)
		}
		depth, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		outline = append(outline, toc.Entry{ID: row.Cells[0].Value, Depth: depth})
	}
	c.outlines[user] = outline
	return nil
}

func (c *tocContext) theSlidesAreOrdered() error {
	c.users = c.users[:0]
	for u := range c.outlines {
		c.users = append(c.users, u)
	}
	sort.Strings(c.users)

	report := toc.Report{
		CommonContent: map[string]int{},
		UserContent:   map[string]map[string]string{},
	}
	g := toc.NewGraph()
	for _, u := range c.users {
		g.Add(c.outlines[u])
		for _, e := range c.outlines[u] {
			if report.UserContent[e.ID] == nil {
				report.UserContent[e.ID] = map[string]string{}
			}
			report.UserContent[e.ID][u] = "<p>" + e.ID + "</p>"
		}
	}

	deck, err := toc.Assemble(g, c.users, report, nil, nil, nil)
	if err != nil {
		return err
	}
	c.deck = deck
	return nil
}

func (c *tocContext) theSlideOrderIs(expected string) error {
	got := strings.Join(c.deck.Order, ", ")
	if got != expected {
		return fmt.Errorf("expected order %q, got %q", expected, got)
	}
	return nil
}

func (c *tocContext) theSlideGroupsAre(table *godog.Table) error {
	var expected []string
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		expected = append(expected, row.Cells[0].Value+":"+row.Cells[1].Value)
	}
	var got []string
	for _, grp := range c.deck.Groups {
		got = append(got, grp.ID+":"+strings.Join(grp.Entries, ","))
	}
	if strings.Join(got, " | ") != strings.Join(expected, " | ") {
		return fmt.Errorf("expected groups %v, got %v", expected, got)
	}
	return nil
}

func (c *tocContext) noSectionIsUnreachable() error {
	if len(c.deck.Unreachable) != 0 {
		return fmt.Errorf("expected no unreachable sections, got %v", c.deck.Unreachable)
	}
	return nil
}

func (c *tocContext) theUnreachableSectionsAre(expected string) error {
	got := strings.Join(c.deck.Unreachable, ", ")
	if got != expected {
		return fmt.Errorf("expected unreachable %q, got %q", expected, got)
	}
	return nil
}

func (c *tocContext) everyUsersTableOfContentsIsRespected() error {
	for _, u := range c.users {
		last := -1
		for _, e := range c.outlines[u] {
			idx, ok := c.deck.SlideIDs[e.ID]
			if !ok {
				return fmt.Errorf("%s: %s has no slide", u, e.ID)
			}
			if idx <= last {
				return fmt.Errorf("%s: %s is out of order in %v", u, e.ID, c.deck.Order)
			}
			last = idx
		}
	}
	return nil
}

func (c *tocContext) slideMissing(id, user string, missing bool) error {
	slide, ok := c.deck.SlideIDs[id]
	if !ok {
		return fmt.Errorf("no slide %s in %v", id, c.deck.Order)
	}
	u := sort.SearchStrings(c.users, user)
	if u == len(c.users) || c.users[u] != user {
		return fmt.Errorf("unknown user %s", user)
	}
	if c.deck.IsMissing(slide, u) != missing {
		return fmt.Errorf("slide %s for %s: expected missing=%v", id, user, missing)
	}
	return nil
}

func (c *tocContext) slideIsMissingFor(id, user string) error {
	if err := c.slideMissing(id, user, true); err != nil {
		return err
	}
	if !strings.Contains(c.deck.SectionHTML, "no data available") {
		return fmt.Errorf("expected a placeholder in the section markup")
	}
	return nil
}

func (c *tocContext) slideIsPresentFor(id, user string) error {
	return c.slideMissing(id, user, false)
}

func InitializeTOCOrderingScenario(sc *godog.ScenarioContext) {
	c := &tocContext{outlines: map[string]toc.Outline{}}

	sc.Step(`^user "([^"]*)" has the table of contents:$`, c.userHasTheTableOfContents)
	sc.Step(`^the slides are ordered$`, c.theSlidesAreOrdered)
	sc.Step(`^the slide order is "([^"]*)"$`, c.theSlideOrderIs)
	sc.Step(`^the slide groups are:$`, c.theSlideGroupsAre)
	sc.Step(`^no section is unreachable$`, c.noSectionIsUnreachable)
	sc.Step(`^the unreachable sections are "([^"]*)"$`, c.theUnreachableSectionsAre)
	sc.Step(`^every user's table of contents is respected$`, c.everyUsersTableOfContentsIsRespected)
	sc.Step(`^slide "([^"]*)" is missing for "([^"]*)"$`, c.slideIsMissingFor)
	sc.Step(`^slide "([^"]*)" is present for "([^"]*)"$`, c.slideIsPresentFor)
}
