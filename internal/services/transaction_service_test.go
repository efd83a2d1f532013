package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/notify"
	"finboard/internal/records"
)

var fixedNow = time.Date(2024, 8, 20, 12, 0, 0, 0, time.UTC)

func newService(kind core.Kind, store *fakeStore, opts ...Option) (*TransactionService, *notify.Recorder) {
	rec := &notify.Recorder{}
	opts = append([]Option{WithNotifier(rec), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewTransactionService(kind, store, opts...), rec
}

func incomePayload() map[string]any {
	return map[string]any{"transactions": []any{
		map[string]any{"_id": "a", "source": "Salary", "amount": 1000.0, "date": "2024-08-01"},
		map[string]any{"_id": "b", "source": "Freelance", "amount": 250.0, "date": "2024-07-15"},
	}}
}

func TestFetchAllReplacesSnapshot(t *testing.T) {
	store := &fakeStore{payload: incomePayload()}
	svc, _ := newService(core.Income, store)

	if err := svc.FetchAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := svc.Snapshot()
	if len(snap.Transactions) != 2 || snap.Shape != records.ShapeTransactions || snap.Generation != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Transactions[0].Label != "Salary" || snap.Transactions[1].ID != "b" {
		t.Fatalf("unexpected transactions %+v", snap.Transactions)
	}

	store.setPayload([]any{map[string]any{"_id": "c", "source": "Gift", "amount": 5}})
	if err := svc.FetchAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap = svc.Snapshot()
	if len(snap.Transactions) != 1 || snap.Transactions[0].ID != "c" {
		t.Fatalf("snapshot should be replaced wholesale, got %+v", snap.Transactions)
	}
}

func TestFetchAllUnrecognizedShapeEmptiesList(t *testing.T) {
	store := &fakeStore{payload: incomePayload()}
	svc, _ := newService(core.Income, store)
	_ = svc.FetchAll(context.Background())

	store.setPayload(map[string]any{"items": []any{}})
	if err := svc.FetchAll(context.Background()); err != nil {
		t.Fatalf("shape mismatch must not be an error: %v", err)
	}
	if n := len(svc.Snapshot().Transactions); n != 0 {
		t.Fatalf("expected empty list, got %d", n)
	}
}

func TestFetchAllConcurrentCallIsNoop(t *testing.T) {
	store := &fakeStore{
		payload: incomePayload(),
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	svc, _ := newService(core.Income, store)

	done := make(chan error, 1)
	go func() { done <- svc.FetchAll(context.Background()) }()
	<-store.entered

	if !svc.Loading() {
		t.Fatal("expected loading while fetch is in flight")
	}
	if err := svc.FetchAll(context.Background()); err != nil {
		t.Fatalf("second fetch should be a silent no-op, got %v", err)
	}

	close(store.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := store.lists.Load(); got != 1 {
		t.Fatalf("expected exactly one network call, got %d", got)
	}
	if svc.Loading() {
		t.Fatal("loading should clear after fetch")
	}
}

func TestFetchAllFailureKeepsList(t *testing.T) {
	store := &fakeStore{payload: incomePayload()}
	svc, rec := newService(core.Income, store)
	_ = svc.FetchAll(context.Background())

	store.mu.Lock()
	store.listErr = errRemote
	store.mu.Unlock()

	err := svc.FetchAll(context.Background())
	var opErr *core.OperationError
	if !errors.As(err, &opErr) || opErr.Op != core.OpFetch || !errors.Is(err, errRemote) {
		t.Fatalf("expected fetch OperationError, got %v", err)
	}
	if n := len(svc.Snapshot().Transactions); n != 2 {
		t.Fatalf("list should be unchanged, got %d", n)
	}
	if last, _ := rec.Last(); last.Message != "Failed to load income details" {
		t.Fatalf("unexpected notice %+v", last)
	}
	if svc.Loading() {
		t.Fatal("loading should clear after failure")
	}
}

func TestAddValidationAbortsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name string
		kind core.Kind
		c    core.Candidate
		want error
		msg  string
	}{
		{"missing source", core.Income, core.Candidate{Amount: "10", Date: "2024-08-01"}, core.ErrLabelRequired, "Source is required."},
		{"missing category", core.Expense, core.Candidate{Amount: "10", Date: "2024-08-01"}, core.ErrLabelRequired, "Category is required."},
		{"zero amount", core.Income, core.Candidate{Label: "Salary", Amount: "0", Date: "2024-08-01"}, core.ErrInvalidAmount, "Amount should be a valid number greater than 0."},
		{"text amount", core.Income, core.Candidate{Label: "Salary", Amount: "ten", Date: "2024-08-01"}, core.ErrInvalidAmount, "Amount should be a valid number greater than 0."},
		{"missing date", core.Expense, core.Candidate{Label: "Food", Amount: "3"}, core.ErrDateRequired, "Date is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{payload: []any{}}
			svc, rec := newService(tt.kind, store)

			err := svc.Add(context.Background(), tt.c)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if core.UserMessage(err) != tt.msg {
				t.Fatalf("message = %q", core.UserMessage(err))
			}
			if store.creates.Load() != 0 || store.lists.Load() != 0 {
				t.Fatal("validation failure must not reach the store")
			}
			if last, _ := rec.Last(); last.Level != notify.LevelError || last.Message != tt.msg {
				t.Fatalf("unexpected notice %+v", last)
			}
		})
	}
}

func TestAddResyncsOnce(t *testing.T) {
	store := &fakeStore{payload: incomePayload()}
	svc, rec := newService(core.Income, store)

	err := svc.Add(context.Background(), core.Candidate{Label: "Salary", Amount: "1000", Date: "2024-08-01"})
	if err != nil {
		t.Fatal(err)
	}
	if store.creates.Load() != 1 || store.lists.Load() != 1 {
		t.Fatalf("creates=%d lists=%d", store.creates.Load(), store.lists.Load())
	}
	notices := rec.Notices()
	if len(notices) != 1 || notices[0].Message != "Income added successfully" {
		t.Fatalf("unexpected notices %+v", notices)
	}
	if len(svc.Snapshot().Transactions) != 2 {
		t.Fatal("list should reflect the resync")
	}
}

func TestAddFailureLeavesListUnchanged(t *testing.T) {
	store := &fakeStore{payload: incomePayload(), opErr: errRemote}
	svc, rec := newService(core.Expense, store)

	err := svc.Add(context.Background(), core.Candidate{Label: "Food", Amount: "12.5", Date: "2024-08-01"})
	var opErr *core.OperationError
	if !errors.As(err, &opErr) || opErr.Op != core.OpAdd {
		t.Fatalf("expected add OperationError, got %v", err)
	}
	if store.lists.Load() != 0 {
		t.Fatal("failed add must not resync")
	}
	if last, _ := rec.Last(); last.Message != "Failed to add expense" {
		t.Fatalf("unexpected notice %+v", last)
	}
}

func TestConfirmDelete(t *testing.T) {
	store := &fakeStore{payload: incomePayload()}
	svc, rec := newService(core.Income, store)

	if err := svc.ConfirmDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.deletes.Load() != 0 {
		t.Fatal("confirm from idle must not call the store")
	}

	svc.RequestDelete("a")
	if d := svc.Deletion(); !d.Pending || d.TargetID != "a" {
		t.Fatalf("unexpected deletion state %+v", d)
	}
	if err := svc.ConfirmDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.deletes.Load() != 1 || store.deleted[0] != "a" || store.lists.Load() != 1 {
		t.Fatalf("deletes=%d lists=%d", store.deletes.Load(), store.lists.Load())
	}
	if svc.Deletion().Pending {
		t.Fatal("deletion state should be idle")
	}
	if last, _ := rec.Last(); last.Message != "Income details deleted successfully" {
		t.Fatalf("unexpected notice %+v", last)
	}
}

func TestConfirmDeleteFailureClearsGate(t *testing.T) {
	store := &fakeStore{payload: incomePayload()}
	svc, rec := newService(core.Income, store)
	_ = svc.FetchAll(context.Background())
	store.opErr = errRemote

	svc.RequestDelete("a")
	err := svc.ConfirmDelete(context.Background())
	var opErr *core.OperationError
	if !errors.As(err, &opErr) || opErr.Op != core.OpDelete {
		t.Fatalf("expected delete OperationError, got %v", err)
	}
	if svc.Deletion().Pending {
		t.Fatal("gate should be cleared even when removal fails")
	}
	if len(svc.Snapshot().Transactions) != 2 || store.lists.Load() != 1 {
		t.Fatal("failed delete must leave the list untouched")
	}
	if last, _ := rec.Last(); last.Message != "Failed to delete income" {
		t.Fatalf("unexpected notice %+v", last)
	}
}

func TestCancelDelete(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newService(core.Expense, store)
	svc.RequestDelete("x")
	if !svc.CancelDelete() {
		t.Fatal("expected pending request to be dropped")
	}
	if store.deletes.Load() != 0 || svc.Deletion().Pending {
		t.Fatal("cancel must not call the store")
	}
}

func TestRemoveClearsPendingDeletion(t *testing.T) {
	store := &fakeStore{payload: incomePayload()}
	svc, _ := newService(core.Income, store)

	svc.RequestDelete("a")
	if err := svc.Remove(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if d := svc.Deletion(); d.Pending || d.TargetID != "" {
		t.Fatalf("deletion should be idle after remove, got %+v", d)
	}
	if err := svc.ConfirmDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.deletes.Load() != 1 {
		t.Fatalf("deletes=%d, want 1", store.deletes.Load())
	}
}

func TestRemoveFailureKeepsPendingDeletion(t *testing.T) {
	store := &fakeStore{opErr: errRemote}
	svc, _ := newService(core.Income, store)

	svc.RequestDelete("a")
	if err := svc.Remove(context.Background(), "a"); err == nil {
		t.Fatal("expected error")
	}
	if d := svc.Deletion(); !d.Pending || d.TargetID != "a" {
		t.Fatalf("failed remove should leave the request, got %+v", d)
	}
}

func TestRemoveRejectsEmptyID(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newService(core.Expense, store)
	var ve *core.ValidationError
	if err := svc.Remove(context.Background(), ""); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.deletes.Load() != 0 {
		t.Fatal("store must not be called")
	}
}

func TestExportDownload(t *testing.T) {
	store := &fakeStore{payload: incomePayload(), exportB: []byte("xlsx")}
	saver := &fakeSaver{}
	svc, _ := newService(core.Expense, store, WithSaver(saver))

	loc, err := svc.ExportDownload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if saver.name != "expense_details.xlsx" || string(saver.data) != "xlsx" || loc != "/exports/expense_details.xlsx" {
		t.Fatalf("unexpected save name=%q loc=%q", saver.name, loc)
	}
	if store.lists.Load() != 0 {
		t.Fatal("export must not touch the list")
	}
}

func TestExportDownloadFailures(t *testing.T) {
	t.Run("remote", func(t *testing.T) {
		store := &fakeStore{opErr: errRemote}
		svc, rec := newService(core.Income, store, WithSaver(&fakeSaver{}))
		if _, err := svc.ExportDownload(context.Background()); !errors.Is(err, errRemote) {
			t.Fatalf("got %v", err)
		}
		if last, _ := rec.Last(); last.Message != "Failed to download income details. Please try again." {
			t.Fatalf("unexpected notice %+v", last)
		}
	})

	t.Run("saver", func(t *testing.T) {
		boom := errors.New("disk full")
		svc, _ := newService(core.Income, &fakeStore{exportB: []byte("x")}, WithSaver(&fakeSaver{err: boom}))
		if _, err := svc.ExportDownload(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("no target", func(t *testing.T) {
		svc, _ := newService(core.Income, &fakeStore{})
		if _, err := svc.ExportDownload(context.Background()); !errors.Is(err, ErrNoExportTarget) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestSeriesPerKind(t *testing.T) {
	store := &fakeStore{payload: incomePayload()}
	c := cache.NewLRU[Series](4, 0)
	svc, _ := newService(core.Income, store, WithSeriesCache(c))
	_ = svc.FetchAll(context.Background())

	s := svc.Series()
	if len(s.Bars) != 2 || s.Bars[0].Category != "Freelance" || s.Line != nil {
		t.Fatalf("unexpected income series %+v", s)
	}
	if c.Size() != 1 {
		t.Fatalf("series should be cached, size=%d", c.Size())
	}

	exp := &fakeStore{payload: []any{
		map[string]any{"category": "Food", "amount": 20.0, "date": "2024-08-05"},
		map[string]any{"category": "Rent", "amount": 500.0, "date": "2024-08-01"},
	}}
	esvc, _ := newService(core.Expense, exp)
	_ = esvc.FetchAll(context.Background())
	es := esvc.Series()
	if len(es.Bars) != 2 || es.Bars[0].Category != "Food" {
		t.Fatalf("expense bars keep input order, got %+v", es.Bars)
	}
	if len(es.Line) != 2 || es.Line[0].Month != "1st Aug" || es.Line[1].Month != "5th Aug" {
		t.Fatalf("unexpected expense line %+v", es.Line)
	}
}
