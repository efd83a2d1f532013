// Package series derives chart-ready point sequences from raw transaction
// records. Income and expense charts deliberately use different fallback
// strengths: income records arrive in several schemas, expense records are
// read field-for-field.
package series

import (
	"fmt"
	"slices"
	"time"

	"finboard/internal/core"
	"finboard/internal/records"
)

// isoLayout matches the millisecond UTC form browsers emit for timestamps.
const isoLayout = "2006-01-02T15:04:05.000Z"

var epoch = time.Unix(0, 0).UTC()

// IncomeBars resolves every record's date, label and amount through the full
// fallback chains and returns one point per record ordered by date. Records
// with equal dates keep their input order. Points without a label are
// labelled "DD MM" from their date.
func IncomeBars(recs []core.Record, now time.Time) []core.ChartPoint {
	r := records.NewResolver(now)

	type dated struct {
		rec  core.Record
		date time.Time
	}
	items := make([]dated, len(recs))
	for i, rec := range recs {
		items[i] = dated{rec: rec, date: r.Date(rec)}
	}
	slices.SortStableFunc(items, func(a, b dated) int {
		return a.date.Compare(b.date)
	})

	points := make([]core.ChartPoint, 0, len(items))
	for _, it := range items {
		category := r.Label(it.rec)
		if category == "" {
			category = dayMonthLabel(it.date)
		}
		points = append(points, core.ChartPoint{
			Category: category,
			Amount:   r.Amount(it.rec),
			Date:     it.date.UTC().Format(isoLayout),
		})
	}
	return points
}

// ExpenseBars maps records to points in input order, reading "category" and
// "amount" directly with no fallback keys.
func ExpenseBars(recs []core.Record) []core.ChartPoint {
	points := make([]core.ChartPoint, 0, len(recs))
	for _, rec := range recs {
		points = append(points, core.ChartPoint{
			Category: records.StringValue(rec["category"]),
			Amount:   records.ToAmount(rec["amount"]),
		})
	}
	return points
}

// ExpenseLine orders records by their raw "date" field and labels each point
// with an ordinal day and short month, e.g. "5th Aug". Records whose date is
// missing or unreadable sort as the epoch and get an empty label.
func ExpenseLine(recs []core.Record) []core.LinePoint {
	type dated struct {
		rec   core.Record
		date  time.Time
		valid bool
	}
	items := make([]dated, len(recs))
	for i, rec := range recs {
		t, ok := records.ParseTime(rec["date"])
		if !ok {
			t = epoch
		}
		items[i] = dated{rec: rec, date: t, valid: ok}
	}
	slices.SortStableFunc(items, func(a, b dated) int {
		return a.date.Compare(b.date)
	})

	points := make([]core.LinePoint, 0, len(items))
	for _, it := range items {
		month := ""
		if it.valid {
			month = ordinalDayMonth(it.date)
		}
		points = append(points, core.LinePoint{
			Month:    month,
			Amount:   records.ToAmount(it.rec["amount"]),
			Category: records.StringValue(it.rec["category"]),
		})
	}
	return points
}

func dayMonthLabel(t time.Time) string {
	return fmt.Sprintf("%02d %02d", t.Day(), int(t.Month()))
}

func ordinalDayMonth(t time.Time) string {
	return Ordinal(t.Day()) + " " + t.Format("Jan")
}

// Ordinal renders n with its English ordinal suffix.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
