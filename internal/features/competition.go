package features

import (
	"fmt"
	"strconv"
	"time"

	"github.com/BR-Research/NVTabular/internal/dataset"
)

const (
	// sentinelYear marks a competition or promotion that has not started.
	// Sentinel-dated rows always yield a zero duration.
	sentinelYear = 1900
	// sentinelCutoff is the year below which a since-year is treated as a
	// sentinel rather than a real opening date.
	sentinelCutoff = 1990

	maxCompetitionMonths = 24
	maxPromo2Weeks       = 25
)

// AddCompetitionPromoFeatures derives the competition and promotion
// duration columns on an assembled table:
//
//   - CompetitionOpenSince, CompetitionDaysOpen, CompetitionMonthsOpen
//   - Promo2Since, Promo2Days, Promo2Weeks
//
// Missing since-fields are first coerced to their sentinel defaults (year
// 1900, month/week 1) and rewritten as integers in place. Durations are
// clamped to zero when negative or when the sentinel year was used;
// CompetitionMonthsOpen is capped at 24 months and Promo2Weeks at 25
// weeks.
func AddCompetitionPromoFeatures(t *dataset.Table) error {
	n := t.NumRows()

	compYear, err := coerceIntColumn(t, "CompetitionOpenSinceYear", sentinelYear)
	if err != nil {
		return err
	}
	compMonth, err := coerceIntColumn(t, "CompetitionOpenSinceMonth", 1)
	if err != nil {
		return err
	}
	promoYear, err := coerceIntColumn(t, "Promo2SinceYear", sentinelYear)
	if err != nil {
		return err
	}
	promoWeek, err := coerceIntColumn(t, "Promo2SinceWeek", 1)
	if err != nil {
		return err
	}

	dateCol, err := t.Column("Date")
	if err != nil {
		return err
	}
	dates := make([]time.Time, n)
	for r, v := range dateCol {
		d, err := ParseDate(v)
		if err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
		dates[r] = d
	}

	compSince := make([]string, n)
	compDays := make([]string, n)
	compMonths := make([]string, n)
	promoSince := make([]string, n)
	promoDays := make([]string, n)
	promoWeeks := make([]string, n)

	for r := 0; r < n; r++ {
		// Competition opening is pinned to the 15th of its month.
		opened := time.Date(compYear[r], time.Month(compMonth[r]), 15, 0, 0, 0, 0, time.UTC)
		days := daysBetween(opened, dates[r])
		if days < 0 || compYear[r] < sentinelCutoff {
			days = 0
		}
		months := days / 30
		if months > maxCompetitionMonths {
			months = maxCompetitionMonths
		}
		compSince[r] = opened.Format(DateLayout)
		compDays[r] = strconv.Itoa(days)
		compMonths[r] = strconv.Itoa(months)

		// Promo2 starts the given number of whole weeks after Jan 1 of
		// its since-year.
		started := time.Date(promoYear[r], time.January, 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, 7*promoWeek[r])
		pdays := daysBetween(started, dates[r])
		if pdays < 0 || promoYear[r] < sentinelCutoff {
			pdays = 0
		}
		pweeks := pdays / 7
		if pweeks > maxPromo2Weeks {
			pweeks = maxPromo2Weeks
		}
		promoSince[r] = started.Format(DateLayout)
		promoDays[r] = strconv.Itoa(pdays)
		promoWeeks[r] = strconv.Itoa(pweeks)
	}

	if err := t.AddColumn("CompetitionOpenSince", compSince); err != nil {
		return err
	}
	if err := t.AddColumn("CompetitionDaysOpen", compDays); err != nil {
		return err
	}
	if err := t.AddColumn("CompetitionMonthsOpen", compMonths); err != nil {
		return err
	}
	if err := t.AddColumn("Promo2Since", promoSince); err != nil {
		return err
	}
	if err := t.AddColumn("Promo2Days", promoDays); err != nil {
		return err
	}
	return t.AddColumn("Promo2Weeks", promoWeeks)
}

// coerceIntColumn replaces missing values in the named column with the
// given default, rewrites the column as integers, and returns the parsed
// values.
func coerceIntColumn(t *dataset.Table, name string, def int) ([]int, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(col))
	for r, v := range col {
		n := def
		if v != dataset.Missing {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: non-numeric value %q", name, r, v)
			}
			n = int(f)
		}
		out[r] = n
		if err := t.SetValue(r, name, strconv.Itoa(n)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// daysBetween returns the whole-day difference to - from.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
