// Package table flattens raw per-period telemetry into a single typed table
// that the report's table views consume.
package table

import (
	"math"
	"sort"
	"strconv"

	"github.com/drew/jobreport/internal/model"
)

// TextColumns are always typed string regardless of their values
var TextColumns = []string{
	"Job",
	"Step",
	"User",
	"Name",
	"Source",
	"Node",
	"App",
	"GPUCPUEntryType",
}

// PeriodColumn holds the period's update time in milliseconds
const PeriodColumn = "Period"

// DiagnosticSentinel replaces every populated diagnostic cell
const DiagnosticSentinel = 100

// Aggregation levels
const (
	LevelStep = 0
	LevelJob  = 1
)

var stepNames = map[int64]string{
	-3: "pending",
	-4: "extern",
	-5: "batch",
	-6: "interactive",
}

// StepName maps a raw Step cell to its display form
func StepName(v model.Value) string {
	if v.IsIntegral() {
		if name, ok := stepNames[int64(v.Num)]; ok {
			return name
		}
	}
	return v.String()
}

// AggregationLevel is LevelJob for whole-job records (Step "null") and
// LevelStep otherwise. A missing or null Step counts as whole-job.
func AggregationLevel(r model.Record) int {
	step, ok := r["Step"]
	if !ok || step.IsNull() || (step.Kind == model.KindText && step.Text == "null") {
		return LevelJob
	}
	return LevelStep
}

// levelSet records, per aggregation level, which diagnostic columns were
// populated on at least one record
type levelSet [2]map[string]bool

func newLevelSet() levelSet {
	return levelSet{make(map[string]bool), make(map[string]bool)}
}

type pendingRow struct {
	rec    model.Record
	level  int
	source model.EntryKind
	seen   levelSet
}

// normalizer carries the state of one Normalize call
type normalizer struct {
	schema     *model.Schema
	diagnostic map[string]bool
	rows       []pendingRow
}

// Normalize converts periods of nested telemetry into a flat table with an
// inferred column schema. Input records are not modified. Every returned row
// carries every schema column.
func Normalize(periods map[string]model.PeriodData, meta map[string]model.PeriodMeta) model.Table {
	n := &normalizer{
		schema:     model.NewSchema(),
		diagnostic: make(map[string]bool),
	}
	n.schema.Set(PeriodColumn, model.TypeDatetime)
	for _, col := range TextColumns {
		n.schema.Set(col, model.TypeString)
	}

	for _, key := range sortedPeriodKeys(periods) {
		updated := periods[key].Updated
		if m, ok := meta[key]; ok {
			updated = m.Updated
		}
		n.period(periods[key], updated)
	}

	return model.Table{Schema: n.schema, Rows: n.backfill()}
}

func (n *normalizer) period(p model.PeriodData, updated int64) {
	seen := newLevelSet()
	periodMs := model.Number(float64(updated) * 1000)

	for _, user := range sortedKeys(p.Data) {
		entries := p.Data[user]
		jobName := make(map[string]model.Value)
		for _, info := range entries[model.IdentityEntry] {
			jobName[info["Job"].String()] = info["Name"]
		}

		for _, entry := range sortedKeys(entries) {
			kind := model.ClassifyEntry(entry)
			for _, src := range entries[entry] {
				rec := make(model.Record, len(src)+5)
				level := AggregationLevel(src)
				for col, val := range src {
					rec[col] = n.cell(kind, col, val, level, seen)
				}

				if kind != model.EntryIdentity {
					if name, ok := jobName[src["Job"].String()]; ok {
						rec["Name"] = name
					} else {
						delete(rec, "Name")
					}
				}
				rec["User"] = model.Text(user)
				rec["Source"] = model.Text(entry)
				rec[PeriodColumn] = periodMs
				rec["Step"] = model.Text(StepName(src["Step"]))

				n.rows = append(n.rows, pendingRow{rec: rec, level: level, source: kind, seen: seen})
			}
		}
	}
}

// cell types one populated cell and returns its normalized value
func (n *normalizer) cell(kind model.EntryKind, col string, val model.Value, level int, seen levelSet) model.Value {
	if !val.IsNull() {
		current, known := n.schema.Type(col)
		if !known || current != model.TypeString {
			if kind == model.EntryDiagnostic && col != "Job" && col != "Step" {
				if current != model.TypeFloat && current != model.TypeDatetime {
					n.schema.Set(col, model.TypeInteger)
				}
				n.diagnostic[col] = true
				seen[level][col] = true
				val = model.Number(DiagnosticSentinel)
			} else {
				n.infer(col, val, current, known)
			}
		}
	}

	if col == "JobLength" && val.Kind == model.KindNumber && val.Num < 0 {
		return model.Null()
	}
	return val
}

func (n *normalizer) infer(col string, val model.Value, current model.ColumnType, known bool) {
	switch {
	case val.Kind == model.KindText:
		if !known {
			n.schema.Set(col, model.TypeString)
		}
	case current == model.TypeFloat || current == model.TypeDatetime:
	case !val.IsIntegral() || val.Num > math.MaxInt32 || val.Num < math.MinInt32:
		n.schema.Set(col, model.TypeFloat)
	default:
		n.schema.Set(col, model.TypeInteger)
	}
}

// backfill makes every row carry every schema column
func (n *normalizer) backfill() []model.Record {
	cols := n.schema.Columns()
	out := make([]model.Record, 0, len(n.rows))
	for _, row := range n.rows {
		for _, col := range cols {
			if _, ok := row.rec[col]; ok {
				continue
			}
			if row.source == model.EntryDiagnostic && n.diagnostic[col] && row.seen[row.level][col] {
				row.rec[col] = model.Number(0)
			} else {
				row.rec[col] = model.Null()
			}
		}
		out = append(out, row.rec)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedPeriodKeys orders numeric period ids numerically, ahead of any
// non-numeric keys
func sortedPeriodKeys(m map[string]model.PeriodData) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := strconv.ParseInt(keys[i], 10, 64)
		b, errB := strconv.ParseInt(keys[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		default:
			return false
		}
	})
	return keys
}
