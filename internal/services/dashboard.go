package services

import (
	"context"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"finboard/internal/core"
	"finboard/internal/log"
)

// Overview is the home screen summary across both kinds.
type Overview struct {
	TotalIncome  float64            `json:"total_income"`
	TotalExpense float64            `json:"total_expense"`
	Balance      float64            `json:"balance"`
	Display      Totals             `json:"display"`
	Recent       []core.Transaction `json:"recent"`
	Loading      bool               `json:"loading"`
}

// Totals holds the overview amounts with thousands separators.
type Totals struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
}

// Dashboard combines the income and expense services.
type Dashboard struct {
	Income  *TransactionService
	Expense *TransactionService
	logger  *log.Logger
}

func NewDashboard(income, expense *TransactionService, logger *log.Logger) *Dashboard {
	if logger == nil {
		logger = log.Default(log.ComponentDashboard)
	}
	return &Dashboard{Income: income, Expense: expense, logger: logger}
}

// Service returns the service for kind, or nil for an unknown kind.
func (d *Dashboard) Service(kind core.Kind) *TransactionService {
	switch kind {
	case core.Income:
		return d.Income
	case core.Expense:
		return d.Expense
	default:
		return nil
	}
}

// Refresh fetches both kinds in parallel and returns the first failure.
func (d *Dashboard) Refresh(ctx context.Context) error {
	// Plain group: a failing kind leaves the other fetch running.
	var g errgroup.Group
	for _, svc := range []*TransactionService{d.Income, d.Expense} {
		g.Go(func() error {
			return svc.FetchAll(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		d.logger.WarnContext(ctx, "dashboard refresh incomplete", log.FieldError, err)
		return err
	}
	return nil
}

// Overview summarizes the current snapshots. recent caps the number of
// transactions returned, newest first.
func (d *Dashboard) Overview(recent int) Overview {
	inc := d.Income.Snapshot().Transactions
	exp := d.Expense.Snapshot().Transactions

	totalIncome := core.Sum(amounts(inc))
	totalExpense := core.Sum(amounts(exp))

	all := make([]core.Transaction, 0, len(inc)+len(exp))
	all = append(all, inc...)
	all = append(all, exp...)
	slices.SortStableFunc(all, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	if recent >= 0 && len(all) > recent {
		all = all[:recent]
	}

	balance := core.Sum([]float64{totalIncome, -totalExpense})
	display := Totals{
		Income:  formatTotal(totalIncome),
		Expense: formatTotal(totalExpense),
		Balance: formatTotal(balance),
	}
	return Overview{
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
		Balance:      balance,
		Display:      display,
		Recent:       all,
		Loading:      d.Income.Loading() || d.Expense.Loading(),
	}
}

func formatTotal(v float64) string {
	return core.FormatAmount(strconv.FormatFloat(v, 'f', -1, 64))
}

func amounts(txs []core.Transaction) []float64 {
	out := make([]float64, len(txs))
	for i, t := range txs {
		out[i] = t.Amount
	}
	return out
}
