package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"finboard/internal/core"
)

var (
	dateKeys   = []string{"date", "createdAt", "timestamp", "time"}
	amountKeys = []string{"amount", "value", "total", "totalAmount"}
	labelKeys  = []string{"source", "category", "name", "title"}
	idKeys     = []string{"id", "_id"}
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// Resolver picks canonical fields out of raw records. Now stands in for a
// missing date, so two calls on the same record agree.
type Resolver struct {
	Now time.Time
}

// NewResolver returns a resolver pinned to now.
func NewResolver(now time.Time) Resolver {
	return Resolver{Now: now.UTC()}
}

// Date returns the first present date field. Missing dates resolve to Now;
// present but unparsable ones resolve to the Unix epoch.
func (r Resolver) Date(rec core.Record) time.Time {
	v, ok := first(rec, dateKeys)
	if !ok {
		return r.Now
	}
	t, ok := ParseTime(v)
	if !ok {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// Amount returns the first present amount field as a finite, non-negative
// number. Anything that cannot be read that way is 0.
func (r Resolver) Amount(rec core.Record) float64 {
	v, ok := first(rec, amountKeys)
	if !ok {
		return 0
	}
	return ToAmount(v)
}

// Label returns the first non-empty label field, or "".
func (r Resolver) Label(rec core.Record) string {
	for _, k := range labelKeys {
		if s := StringValue(rec[k]); s != "" {
			return s
		}
	}
	return ""
}

// ID returns the store-assigned identifier, or "" for unsubmitted records.
func (r Resolver) ID(rec core.Record) string {
	for _, k := range idKeys {
		if s := StringValue(rec[k]); s != "" {
			return s
		}
	}
	return ""
}

// Icon passes the icon field through unvalidated.
func (r Resolver) Icon(rec core.Record) string {
	return StringValue(rec["icon"])
}

// Transaction builds the canonical transaction for one record.
func (r Resolver) Transaction(kind core.Kind, rec core.Record) core.Transaction {
	return core.Transaction{
		ID:     r.ID(rec),
		Kind:   kind,
		Label:  r.Label(rec),
		Amount: r.Amount(rec),
		Date:   r.Date(rec),
		Icon:   r.Icon(rec),
		Raw:    rec,
	}
}

// Transactions builds canonical transactions for recs, preserving order.
func (r Resolver) Transactions(kind core.Kind, recs []core.Record) []core.Transaction {
	out := make([]core.Transaction, 0, len(recs))
	for _, rec := range recs {
		out = append(out, r.Transaction(kind, rec))
	}
	return out
}

// ParseTime reads a date value the way the store may send it: an ISO-8601
// string, a date-only string or epoch milliseconds.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		if f, err := t.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return time.UnixMilli(int64(f)).UTC(), true
		}
		return time.Time{}, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	default:
		return time.Time{}, false
	}
}

// ToAmount coerces v to a finite, non-negative number, or 0.
func ToAmount(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if t {
			f = 1
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func first(rec core.Record, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// StringValue renders scalar record values as text; objects and lists yield "".
func StringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
