package series

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"finboard/internal/core"
)

var now = time.Date(2024, 8, 20, 9, 30, 0, 0, time.UTC)

func TestIncomeBarsExample(t *testing.T) {
	recs := []core.Record{
		{"source": "Salary", "amount": "5000", "date": "2024-08-05"},
		{"category": "Freelance", "amount": json.Number("300"), "date": "2024-08-01"},
	}
	got := IncomeBars(recs, now)
	want := []core.ChartPoint{
		{Category: "Freelance", Amount: 300, Date: "2024-08-01T00:00:00.000Z"},
		{Category: "Salary", Amount: 5000, Date: "2024-08-05T00:00:00.000Z"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestIncomeBarsEmpty(t *testing.T) {
	got := IncomeBars(nil, now)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestIncomeBarsDateLabelFallback(t *testing.T) {
	got := IncomeBars([]core.Record{{"amount": 10, "date": "2024-08-05"}}, now)
	if got[0].Category != "05 08" {
		t.Fatalf("expected date label, got %q", got[0].Category)
	}

	got = IncomeBars([]core.Record{{"amount": 10}}, now)
	if got[0].Category != "20 08" || got[0].Date != "2024-08-20T09:30:00.000Z" {
		t.Fatalf("missing date should resolve to now, got %+v", got[0])
	}
}

func TestIncomeBarsOrderIndependent(t *testing.T) {
	base := []core.Record{
		{"source": "A", "amount": 1, "date": "2024-08-03"},
		{"source": "B", "amount": 2, "date": "2024-08-01"},
		{"source": "C", "amount": 3, "date": "2024-08-02"},
		{"source": "D", "amount": 4, "date": "garbage"},
		{"source": "E", "amount": 5},
	}
	want := labels(IncomeBars(base, now))
	if want != "D,B,C,A,E" {
		t.Fatalf("unexpected order %s", want)
	}

	perms := [][]int{{4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}, {1, 4, 0, 3, 2}}
	for _, p := range perms {
		shuffled := make([]core.Record, len(p))
		for i, idx := range p {
			shuffled[i] = base[idx]
		}
		if got := labels(IncomeBars(shuffled, now)); got != want {
			t.Errorf("permutation %v: got %s, want %s", p, got, want)
		}
	}
}

func TestIncomeBarsStableForEqualDates(t *testing.T) {
	recs := []core.Record{
		{"source": "first", "date": "2024-08-01"},
		{"source": "second", "date": "2024-08-01"},
		{"source": "third", "date": "2024-08-01"},
	}
	if got := labels(IncomeBars(recs, now)); got != "first,second,third" {
		t.Fatalf("equal dates must keep input order, got %s", got)
	}
}

func TestExpenseBarsTrustsFieldsDirectly(t *testing.T) {
	recs := []core.Record{
		{"category": "Rent", "amount": 900, "date": "2024-08-05"},
		{"name": "Food", "value": 50, "date": "2024-08-01"},
	}
	got := ExpenseBars(recs)
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	if got[0].Category != "Rent" || got[0].Amount != 900 || got[0].Date != "" {
		t.Errorf("unexpected first point %+v", got[0])
	}
	// no label or amount fallback chain for expenses
	if got[1].Category != "" || got[1].Amount != 0 {
		t.Errorf("unexpected second point %+v", got[1])
	}
}

func TestExpenseLine(t *testing.T) {
	recs := []core.Record{
		{"category": "Rent", "amount": 900, "date": "2024-08-05"},
		{"category": "Food", "amount": 50, "date": "2024-08-01", "createdAt": "2024-09-30"},
		{"category": "Misc", "amount": 5, "createdAt": "2024-07-01"},
	}
	got := ExpenseLine(recs)
	want := []core.LinePoint{
		{Month: "", Amount: 5, Category: "Misc"},
		{Month: "1st Aug", Amount: 50, Category: "Food"},
		{Month: "5th Aug", Amount: 900, Category: "Rent"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 23: "23rd", 31: "31st"}
	for n, want := range cases {
		if got := Ordinal(n); got != want {
			t.Errorf("Ordinal(%d) = %q, want %q", n, got, want)
		}
	}
}

func labels(points []core.ChartPoint) string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Category
	}
	return strings.Join(out, ",")
}
