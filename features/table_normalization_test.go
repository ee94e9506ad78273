package features

import (
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/drew/jobreport/internal/model"
	"github.com/drew/jobreport/internal/table"
)

type tableContext struct {
	periods map[string]model.PeriodData
	result  model.Table
}

func (c *tableContext) periodWithRawData(key string, updated int64, doc *godog.DocString) error {
	var data map[string]model.UserData
	if err := json.Unmarshal([]byte(doc.Content), &data); err != nil {
		return fmt.Errorf("raw data of period %s: %w", key, err)
	}
	c.periods[key] = model.PeriodData{Updated: updated, Data: data}
	return nil
}

func (c *tableContext) theTableIsNormalized() error {
	c.result = table.Normalize(c.periods, nil)
	return nil
}

func (c *tableContext) theTableHasRows(n int) error {
	if len(c.result.Rows) != n {
		return fmt.Errorf("expected %d rows, got %d", n, len(c.result.Rows))
	}
	return nil
}

func (c *tableContext) everyRowHasEverySchemaColumn() error {
	cols := c.result.Schema.Columns()
	for i, row := range c.result.Rows {
		if len(row) != len(cols) {
			return fmt.Errorf("row %d has %d columns, schema has %d", i, len(row), len(cols))
		}
		for _, col := range cols {
			if _, ok := row[col]; !ok {
				return fmt.Errorf("row %d lacks column %s", i, col)
			}
		}
	}
	return nil
}

func (c *tableContext) columnHasType(col, expected string) error {
	typ, ok := c.result.Schema.Type(col)
	if !ok {
		return fmt.Errorf("column %s not in schema", col)
	}
	if string(typ) != expected {
		return fmt.Errorf("column %s: expected %s, got %s", col, expected, typ)
	}
	return nil
}

func (c *tableContext) rowHasValue(source, job, step, col, expected string) error {
	for _, row := range c.result.Rows {
		if row["Source"].String() != source || row["Job"].String() != job || row["Step"].String() != step {
			continue
		}
		if got := row[col].String(); got != expected {
			return fmt.Errorf("%s job %s step %s: %s = %q, expected %q", source, job, step, col, got, expected)
		}
		return nil
	}
	return fmt.Errorf("no %s row for job %s step %s", source, job, step)
}

func InitializeTableNormalizationScenario(sc *godog.ScenarioContext) {
	c := &tableContext{periods: map[string]model.PeriodData{}}

	sc.Step(`^period "([^"]*)" updated at (\d+) with raw data:$`, c.periodWithRawData)
	sc.Step(`^the table is normalized$`, c.theTableIsNormalized)
	sc.Step(`^the table has (\d+) rows$`, c.theTableHasRows)
	sc.Step(`^every row has every schema column$`, c.everyRowHasEverySchemaColumn)
	sc.Step(`^column "([^"]*)" has type "([^"]*)"$`, c.columnHasType)
	sc.Step(`^the "([^"]*)" row for job "([^"]*)" step "([^"]*)" has "([^"]*)" = "([^"]*)"$`, c.rowHasValue)
}
