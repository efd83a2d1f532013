package core

import (
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind is the endpoint family a transaction was produced by.
	Kind string

	// Record is one raw transaction object as decoded from a list payload.
	Record map[string]any

	Transaction struct {
		ID     string    `json:"id"` // empty until the remote store assigns one
		Kind   Kind      `json:"kind"`
		Label  string    `json:"label"`
		Amount float64   `json:"amount"`
		Date   time.Time `json:"date"`
		Icon   string    `json:"icon,omitempty"`
		Raw    Record    `json:"-"`
	}

	// Candidate is a transaction the user wants to add, as entered.
	Candidate struct {
		Label  string
		Amount string
		Date   string
		Icon   string
	}

	ChartPoint struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Date     string  `json:"date,omitempty"`
	}

	LinePoint struct {
		Month    string  `json:"month"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
	}

	DeletionRequest struct {
		Pending  bool   `json:"pending"`
		TargetID string `json:"target_id,omitempty"`
	}
)

// Kinds lists every transaction kind the dashboard tracks.
func Kinds() []Kind {
	return []Kind{Income, Expense}
}

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// Title is the capitalised kind used in user-facing notices.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// LabelKey is the field the remote store expects the label under on create.
func (k Kind) LabelKey() string {
	if k == Income {
		return "source"
	}
	return "category"
}

// ExportFilename is the fixed name an export download is saved under.
func (k Kind) ExportFilename() string {
	return string(k) + "_details.xlsx"
}

// Validate checks the candidate in the order the add form does: label,
// amount, date. The first failing check is returned.
func (c Candidate) Validate(k Kind) error {
	if strings.TrimSpace(c.Label) == "" {
		return &ValidationError{Field: k.LabelKey(), Err: ErrLabelRequired, Message: labelRequiredMessage(k)}
	}
	if _, err := ParseAmount(c.Amount); err != nil {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount, Message: "Amount should be a valid number greater than 0."}
	}
	if strings.TrimSpace(c.Date) == "" {
		return &ValidationError{Field: "date", Err: ErrDateRequired, Message: "Date is required."}
	}
	return nil
}

func labelRequiredMessage(k Kind) string {
	if k == Income {
		return "Source is required."
	}
	return "Category is required."
}
