package features

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BR-Research/NVTabular/internal/dataset"
)

// rollingDays is the window width of the trailing/leading occurrence
// counts.
const rollingDays = 7

// EventProximity computes, for each event flag column, the per-store
// day-distance to the nearest occurrence and 7-row trailing/leading
// occurrence counts. The input holds one row per (Store, Date) across the
// union of train and test; the result table carries Store, Date and, for
// each event E, the columns AfterE, BeforeE, E_bw and E_fw, aligned with
// the input rows so it can be joined back by (Store, Date).
//
// A row is a carry point for an event if the event is true on it, or if it
// is the first or last row of its store. AfterE is the day difference to
// the most recent carry point at or before the row; BeforeE the difference
// to the nearest carry point at or after it. Store range boundaries are
// always carry points, so every row has a defined value.
//
// Stores are independent, so they are processed in parallel.
func EventProximity(ctx context.Context, union *dataset.Table, eventCols []string) (*dataset.Table, error) {
	n := union.NumRows()

	stores, err := union.Column("Store")
	if err != nil {
		return nil, err
	}
	dateCol, err := union.Column("Date")
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, n)
	for r, v := range dateCol {
		d, err := ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		dates[r] = d
	}

	flags := make([][]bool, len(eventCols))
	for e, name := range eventCols {
		col, err := union.Column(name)
		if err != nil {
			return nil, err
		}
		f := make([]bool, n)
		for r, v := range col {
			f[r] = flagTrue(v)
		}
		flags[e] = f
	}

	// Group row indices by store, each group sorted by date.
	groups := make(map[string][]int)
	var order []string
	for r, s := range stores {
		if _, seen := groups[s]; !seen {
			order = append(order, s)
		}
		groups[s] = append(groups[s], r)
	}
	for _, s := range order {
		rows := groups[s]
		sort.SliceStable(rows, func(i, j int) bool {
			return dates[rows[i]].Before(dates[rows[j]])
		})
	}

	after := makeResult(len(eventCols), n)
	before := makeResult(len(eventCols), n)
	backward := makeResult(len(eventCols), n)
	forward := makeResult(len(eventCols), n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, s := range order {
		rows := groups[s]
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for e := range eventCols {
				scanStore(rows, dates, flags[e], after[e], before[e])
				rollStore(rows, flags[e], backward[e], forward[e])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out, err := union.Select([]string{"Store", "Date"})
	if err != nil {
		return nil, err
	}
	for e, name := range eventCols {
		if err := out.AddColumn("After"+name, itoaColumn(after[e])); err != nil {
			return nil, err
		}
		if err := out.AddColumn("Before"+name, itoaColumn(before[e])); err != nil {
			return nil, err
		}
		if err := out.AddColumn(name+"_bw", itoaColumn(backward[e])); err != nil {
			return nil, err
		}
		if err := out.AddColumn(name+"_fw", itoaColumn(forward[e])); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// scanStore fills the after/before day distances for one store's rows,
// already sorted by date.
func scanStore(rows []int, dates []time.Time, flag []bool, after, before []int) {
	last := len(rows) - 1

	carry := func(p int) bool {
		return flag[rows[p]] || p == 0 || p == last
	}

	var carryDate time.Time
	for p := 0; p <= last; p++ {
		if carry(p) {
			carryDate = dates[rows[p]]
		}
		after[rows[p]] = daysBetween(carryDate, dates[rows[p]])
	}
	for p := last; p >= 0; p-- {
		if carry(p) {
			carryDate = dates[rows[p]]
		}
		before[rows[p]] = daysBetween(dates[rows[p]], carryDate)
	}
}

// rollStore fills the trailing and leading occurrence counts for one
// store's rows. Windows at the range boundaries shrink to the available
// rows rather than producing a missing value.
func rollStore(rows []int, flag []bool, backward, forward []int) {
	n := len(rows)
	prefix := make([]int, n+1)
	for p, r := range rows {
		v := 0
		if flag[r] {
			v = 1
		}
		prefix[p+1] = prefix[p] + v
	}
	for p, r := range rows {
		lo := p - (rollingDays - 1)
		if lo < 0 {
			lo = 0
		}
		hi := p + rollingDays
		if hi > n {
			hi = n
		}
		backward[r] = prefix[p+1] - prefix[lo]
		forward[r] = prefix[hi] - prefix[p]
	}
}

func flagTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func makeResult(events, n int) [][]int {
	out := make([][]int, events)
	for e := range out {
		out[e] = make([]int, n)
	}
	return out
}

func itoaColumn(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}
