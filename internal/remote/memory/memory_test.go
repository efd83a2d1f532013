package memory

import (
	"context"
	"testing"

	"finboard/internal/core"
	"finboard/internal/records"
)

func TestStoreCreateListDelete(t *testing.T) {
	ctx := context.Background()
	s := New(EnvelopeData)

	err := s.Create(ctx, core.Income, core.Candidate{Label: "Salary", Amount: "5000", Date: "2024-08-05"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	payload, _ := s.List(ctx, core.Income)
	env := records.Normalize(payload)
	if env.Shape != records.ShapeData || len(env.Records) != 1 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	r := records.Resolver{}
	rec := env.Records[0]
	if r.Label(rec) != "Salary" || r.Amount(rec) != 5000 {
		t.Fatalf("unexpected record %v", rec)
	}
	id := r.ID(rec)
	if id == "" {
		t.Fatalf("expected generated id")
	}

	if err := s.Delete(ctx, core.Income, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, core.Income, id); err == nil {
		t.Fatalf("expected not found on second delete")
	}
	payload, _ = s.List(ctx, core.Income)
	if n := len(records.Normalize(payload).Records); n != 0 {
		t.Fatalf("expected empty list, got %d", n)
	}
}

func TestStoreKeepsKindsApart(t *testing.T) {
	ctx := context.Background()
	s := New("")
	s.Seed(core.Expense, core.Record{"category": "Rent", "amount": 900})

	payload, _ := s.List(ctx, core.Income)
	if n := len(records.Normalize(payload).Records); n != 0 {
		t.Fatalf("income should be empty, got %d", n)
	}
	payload, _ = s.List(ctx, core.Expense)
	env := records.Normalize(payload)
	if env.Shape != records.ShapeList || len(env.Records) != 1 {
		t.Fatalf("unexpected expense envelope %+v", env)
	}
}

func TestStoreCreateValidates(t *testing.T) {
	s := New("")
	if err := s.Create(context.Background(), core.Expense, core.Candidate{Label: "Rent", Amount: "0", Date: "2024-08-05"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestStoreExport(t *testing.T) {
	s := New("")
	s.Seed(core.Income, core.Record{"source": "Salary", "amount": 5000, "date": "2024-08-05"})
	data, err := s.Export(context.Background(), core.Income)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Fatalf("expected xlsx zip bytes")
	}
}
