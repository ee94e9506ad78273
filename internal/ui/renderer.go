package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/drew/jobreport/internal/model"
	"github.com/drew/jobreport/internal/toc"
)

// Renderer prints inspection output for terminals and pipes
type Renderer struct {
	out    io.Writer
	colors *Colors
	width  int
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer, enableColors bool, width int) *Renderer {
	return &Renderer{out: out, colors: NewColors(enableColors), width: width}
}

func (r *Renderer) newTable(header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(r.out)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	t.SetBorder(true)
	t.SetHeader(header)
	return t
}

// RenderSchema prints every column with its type and how many rows hold a
// non-null value
func (r *Renderer) RenderSchema(tbl model.Table) {
	t := r.newTable("Column", "Type", "Populated")
	total := len(tbl.Rows)
	for _, col := range tbl.Schema.Columns() {
		populated := 0
		for _, row := range tbl.Rows {
			if !row[col].IsNull() {
				populated++
			}
		}
		typ, _ := tbl.Schema.Type(col)
		t.Append([]string{col, r.colors.TypeColor(typ), r.colors.Coverage(populated, total)})
	}
	t.Render()
	fmt.Fprintf(r.out, "%s rows, %s columns\n", r.colors.Bold(fmt.Sprint(total)), r.colors.Bold(fmt.Sprint(tbl.Schema.Len())))
}

// RenderRows prints up to limit rows; limit <= 0 prints all of them
func (r *Renderer) RenderRows(tbl model.Table, limit int) {
	cols := tbl.Schema.Columns()
	t := r.newTable(cols...)
	rows := tbl.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			v := row[col]
			if v.IsNull() {
				cells[i] = r.colors.Gray("null")
			} else {
				cells[i] = r.truncate(v.String())
			}
		}
		t.Append(cells)
	}
	t.Render()
	if len(rows) < len(tbl.Rows) {
		fmt.Fprintln(r.out, r.colors.Gray(fmt.Sprintf("... %d more rows", len(tbl.Rows)-len(rows))))
	}
}

// RenderOutline prints the deck's section order as a tree, marking shared
// slides and the users without content
func (r *Renderer) RenderOutline(deck toc.Deck, names map[string]string) {
	fmt.Fprintf(r.out, "%s %d slides, %d users\n", r.colors.Bold("Outline:"), len(deck.Order), len(deck.Users))
	for gi, grp := range deck.Groups {
		lastGroup := gi == len(deck.Groups)-1
		branch, indent := "├── ", "│   "
		if lastGroup {
			branch, indent = "└── ", "    "
		}
		fmt.Fprintln(r.out, branch+r.node(deck, grp.ID, names))
		for ei, id := range grp.Entries {
			leaf := "├── "
			if ei == len(grp.Entries)-1 {
				leaf = "└── "
			}
			fmt.Fprintln(r.out, indent+leaf+r.node(deck, id, names))
		}
	}
	if len(deck.Unreachable) > 0 {
		fmt.Fprintf(r.out, "%s %s\n", r.colors.Red("Dropped (cycle):"), strings.Join(deck.Unreachable, ", "))
	}
}

func (r *Renderer) node(deck toc.Deck, id string, names map[string]string) string {
	label := id
	if name, ok := names[id]; ok && name != id {
		label = fmt.Sprintf("%s %s", name, r.colors.Gray("("+id+")"))
	}
	i := deck.SlideIDs[id]
	if deck.Common[i] {
		return label + " " + r.colors.Blue("[shared]")
	}
	var missing []string
	for u, user := range deck.Users {
		if deck.IsMissing(i, u) {
			missing = append(missing, user)
		}
	}
	if len(missing) == 0 {
		return label
	}
	return label + " " + r.colors.Yellow("missing: "+strings.Join(missing, ", "))
}

func (r *Renderer) truncate(s string) string {
	limit := r.width / 4
	if limit < 12 {
		limit = 12
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
