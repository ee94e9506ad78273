package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mailHeader = `From: reports
Subject: usage
<head><title>Report</title></head>`

func mailBody(user string) string {
	return `<body>` +
		`<p>Hello ` + user + `, period 12:` + user + `</p>` +
		`<h2><a name="toc"></a>Contents</h2><table><tr><td><a href="#usage">Usage</a></td><td><a href="#jobs">Jobs</a></td></tr></table>` +
		`<h2><a name="usage"></a>Usage</h2><p>cluster usage</p>` +
		`<h2><a name="jobs"></a>Your <b>jobs</b></h2><p>` + user + ` ran 3 jobs</p><p>details</p>` +
		`<h3><a name="gpu_problems"></a>GPU problems</h3><p>none</p>` +
		`<div><a name="footer"></a>bye</div>` +
		`<p>unsubscribe</p>` +
		`</body></html>`
}

func sectionByName(t *testing.T, sections []Section, name string) Section {
	t.Helper()
	for _, s := range sections {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("section %q not found", name)
	return Section{}
}

func TestSplitSections(t *testing.T) {
	sections, err := SplitSections(mailHeader, mailBody("alice"), 12, "alice")
	require.NoError(t, err)

	var names []string
	for _, s := range sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"greeting", "toc", "usage", "jobs", "gpu_problems", "footer"}, names)

	greeting := sectionByName(t, sections, "greeting")
	assert.Equal(t, `<p><a name="greeting"></a>Hello alice, period 12:web</p>`, greeting.HTML)
	assert.Equal(t, "Greeting", greeting.Title)
	assert.True(t, greeting.Common)

	jobs := sectionByName(t, sections, "jobs")
	assert.Equal(t, `<h2><a name="jobs"></a>Your <b>jobs</b></h2><p>alice ran 3 jobs</p><p>details</p>`, jobs.HTML)
	assert.Equal(t, "Your jobs", jobs.Title)
	assert.False(t, jobs.Common)

	assert.True(t, sectionByName(t, sections, "usage").Common)
	assert.False(t, sectionByName(t, sections, "toc").Common)
	assert.True(t, sectionByName(t, sections, "gpu_problems").Common)

	footer := sectionByName(t, sections, "footer")
	assert.Equal(t, "Footer", footer.Title)
	assert.Equal(t, `<div><a name="footer"></a>bye</div><p>unsubscribe</p>`, footer.HTML)
}

func TestSplitSectionsSharedContentMatchesAcrossUsers(t *testing.T) {
	a, err := SplitSections(mailHeader, mailBody("alice"), 12, "alice")
	require.NoError(t, err)
	b, err := SplitSections(mailHeader, mailBody("bob"), 12, "bob")
	require.NoError(t, err)

	assert.Equal(t, sectionByName(t, a, "usage").HTML, sectionByName(t, b, "usage").HTML)
	assert.NotEqual(t, sectionByName(t, a, "jobs").HTML, sectionByName(t, b, "jobs").HTML)
}

func TestSplitSectionsProblemAnchorsShareBaseSection(t *testing.T) {
	body := `<body><p>hi</p>` +
		`<h2><a name="gpu"></a>GPU</h2><p>gpu text</p>` +
		`<h3><a name="gpu_problems"></a>Problems</h3>` +
		`<div><a name="footer"></a></div></body>`
	sections, err := SplitSections(mailHeader, body, 1, "alice")
	require.NoError(t, err)
	assert.True(t, sectionByName(t, sections, "gpu").Common)
}

func TestSplitSectionsMismatch(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   string
	}{
		{name: "no head", header: "Subject: x", body: "<body><p>x</p></body>"},
		{name: "heading without anchor", header: mailHeader, body: "<body><p>x</p><h2>Plain</h2></body>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitSections(tt.header, tt.body, 1, "alice")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMismatch))
		})
	}
}
