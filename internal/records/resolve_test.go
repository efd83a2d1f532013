package records

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"finboard/internal/core"
)

var fixedNow = time.Date(2024, 8, 20, 10, 0, 0, 0, time.UTC)

func TestResolverDate(t *testing.T) {
	r := NewResolver(fixedNow)
	cases := []struct {
		name string
		rec  core.Record
		want time.Time
	}{
		{"date field", core.Record{"date": "2024-08-05"}, time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)},
		{"createdAt fallback", core.Record{"createdAt": "2024-08-01T12:30:00Z"}, time.Date(2024, 8, 1, 12, 30, 0, 0, time.UTC)},
		{"timestamp millis", core.Record{"timestamp": json.Number("1722816000000")}, time.UnixMilli(1722816000000).UTC()},
		{"time field", core.Record{"time": "2024-08-02 08:00:00"}, time.Date(2024, 8, 2, 8, 0, 0, 0, time.UTC)},
		{"null date skipped", core.Record{"date": nil, "time": "2024-08-03"}, time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC)},
		{"missing uses now", core.Record{"amount": 3}, fixedNow},
		{"unparsable is epoch", core.Record{"date": "yesterday"}, time.Unix(0, 0).UTC()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Date(tc.rec); !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolverDateIsDeterministic(t *testing.T) {
	r := NewResolver(fixedNow)
	rec := core.Record{"source": "Gift"}
	if !r.Date(rec).Equal(r.Date(rec)) {
		t.Fatalf("same resolver must resolve a missing date identically")
	}
}

func TestResolverAmount(t *testing.T) {
	r := NewResolver(fixedNow)
	cases := []struct {
		name string
		rec  core.Record
		want float64
	}{
		{"numeric string", core.Record{"amount": "5000"}, 5000},
		{"json number", core.Record{"amount": json.Number("300.5")}, 300.5},
		{"float", core.Record{"amount": 12.0}, 12},
		{"value fallback", core.Record{"value": 7}, 7},
		{"total fallback", core.Record{"total": "8"}, 8},
		{"totalAmount fallback", core.Record{"totalAmount": 9.5}, 9.5},
		{"malformed text", core.Record{"amount": "abc"}, 0},
		{"malformed text does not fall through", core.Record{"amount": "abc", "value": 5}, 0},
		{"negative", core.Record{"amount": -5}, 0},
		{"infinite", core.Record{"amount": math.Inf(1)}, 0},
		{"missing", core.Record{}, 0},
		{"object", core.Record{"amount": map[string]any{"v": 1}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Amount(tc.rec)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) || got < 0 {
				t.Fatalf("amount must be finite and non-negative, got %v", got)
			}
		})
	}
}

func TestResolverLabel(t *testing.T) {
	r := NewResolver(fixedNow)
	cases := []struct {
		rec  core.Record
		want string
	}{
		{core.Record{"source": "Salary", "category": "Work"}, "Salary"},
		{core.Record{"category": "Freelance"}, "Freelance"},
		{core.Record{"source": "", "name": "Bonus"}, "Bonus"},
		{core.Record{"title": "Refund"}, "Refund"},
		{core.Record{"amount": 1}, ""},
	}
	for _, tc := range cases {
		if got := r.Label(tc.rec); got != tc.want {
			t.Errorf("Label(%v) = %q, want %q", tc.rec, got, tc.want)
		}
	}
}

func TestResolverTransaction(t *testing.T) {
	r := NewResolver(fixedNow)
	rec := core.Record{"_id": "66b0", "source": "Salary", "amount": "5000", "date": "2024-08-05", "icon": "💰"}
	tx := r.Transaction(core.Income, rec)
	if tx.ID != "66b0" || tx.Kind != core.Income || tx.Label != "Salary" || tx.Amount != 5000 || tx.Icon != "💰" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if tx.Date.Day() != 5 || tx.Date.Month() != time.August {
		t.Fatalf("unexpected date %v", tx.Date)
	}
	if tx.Raw["source"] != "Salary" {
		t.Fatalf("raw record not retained")
	}
}
