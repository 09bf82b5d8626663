// Package features derives the model-ready columns of the Rossmann
// dataset: normalized flags, calendar parts, competition and promotion
// durations, and per-store event-proximity features.
package features

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BR-Research/NVTabular/internal/dataset"
)

// DateLayout is the date format used across all source and output tables.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO date cell.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
	}
	return d, nil
}

// NormalizeStateHoliday rewrites the StateHoliday indicator from its raw
// encoding (a character code, "0" meaning no holiday) into a boolean.
func NormalizeStateHoliday(t *dataset.Table) error {
	col, err := t.Column("StateHoliday")
	if err != nil {
		return err
	}
	for r, v := range col {
		holiday := v != "0" && v != dataset.Missing
		if err := t.SetValue(r, "StateHoliday", strconv.FormatBool(holiday)); err != nil {
			return err
		}
	}
	return nil
}

// PrepareTrend derives the Date and State columns of the search-trend
// table. The week-range string ("2012-12-02 - 2012-12-08") yields its
// start date; the file identifier ("Rossmann_DE_SN") yields its third
// "_"-separated token as the state code. The code "NI" is remapped to
// "HB,NI" to match the weather dataset's labeling, which groups those two
// states together. National-level records ("Rossmann_DE") have no third
// token and get an empty state.
func PrepareTrend(t *dataset.Table) error {
	weeks, err := t.Column("week")
	if err != nil {
		return err
	}
	files, err := t.Column("file")
	if err != nil {
		return err
	}

	dates := make([]string, len(weeks))
	for r, w := range weeks {
		start := strings.TrimSpace(strings.SplitN(w, " - ", 2)[0])
		if _, err := ParseDate(start); err != nil {
			return fmt.Errorf("trend row %d: %w", r, err)
		}
		dates[r] = start
	}

	states := make([]string, len(files))
	for r, f := range files {
		parts := strings.Split(f, "_")
		if len(parts) > 2 {
			state := parts[2]
			if state == "NI" {
				state = "HB,NI"
			}
			states[r] = state
		} else {
			states[r] = dataset.Missing
		}
	}

	if err := t.AddColumn("Date", dates); err != nil {
		return err
	}
	return t.AddColumn("State", states)
}

// AddDateParts derives Year, Month, Week (ISO week number) and Day integer
// columns from the named date column.
func AddDateParts(t *dataset.Table, dateCol string) error {
	col, err := t.Column(dateCol)
	if err != nil {
		return err
	}
	years := make([]string, len(col))
	months := make([]string, len(col))
	weeks := make([]string, len(col))
	days := make([]string, len(col))
	for r, v := range col {
		d, err := ParseDate(v)
		if err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
		_, isoWeek := d.ISOWeek()
		years[r] = strconv.Itoa(d.Year())
		months[r] = strconv.Itoa(int(d.Month()))
		weeks[r] = strconv.Itoa(isoWeek)
		days[r] = strconv.Itoa(d.Day())
	}
	if err := t.AddColumn("Year", years); err != nil {
		return err
	}
	if err := t.AddColumn("Month", months); err != nil {
		return err
	}
	if err := t.AddColumn("Week", weeks); err != nil {
		return err
	}
	return t.AddColumn("Day", days)
}
