package remote

import (
	"context"
	"encoding/json"
	"strings"

	"finboard/internal/core"
)

// Ports for the store that owns transactions. List returns the decoded JSON
// payload untouched; normalizing its envelope is the caller's job.
type (
	Lister interface {
		List(ctx context.Context, kind core.Kind) (payload any, err error)
	}

	Creator interface {
		Create(ctx context.Context, kind core.Kind, c core.Candidate) error
	}

	Deleter interface {
		Delete(ctx context.Context, kind core.Kind, id string) error
	}

	// Exporter returns a spreadsheet of all transactions of a kind.
	Exporter interface {
		Export(ctx context.Context, kind core.Kind) ([]byte, error)
	}

	Store interface {
		Lister
		Creator
		Deleter
		Exporter
	}
)

// CreateBody is the create request body: the label under the kind's label
// key, plus amount, date and icon.
func CreateBody(kind core.Kind, c core.Candidate) map[string]any {
	var amount any = strings.TrimSpace(c.Amount)
	if d, err := core.ParseAmount(c.Amount); err == nil {
		amount = json.Number(d.String())
	}
	return map[string]any{
		kind.LabelKey(): strings.TrimSpace(c.Label),
		"amount":        amount,
		"date":          strings.TrimSpace(c.Date),
		"icon":          c.Icon,
	}
}
