package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/log"
	"finboard/internal/notify"
	"finboard/internal/records"
	"finboard/internal/remote"
	"finboard/internal/series"
)

var ErrNoExportTarget = errors.New("no export target configured")

// Snapshot is the list state after the most recent successful fetch.
// It is replaced wholesale, never merged.
type Snapshot struct {
	Kind         core.Kind          `json:"kind"`
	Transactions []core.Transaction `json:"-"`
	Records      []core.Record      `json:"records"`
	Shape        records.Shape      `json:"-"`
	FetchedAt    time.Time          `json:"fetched_at"`
	Generation   uint64             `json:"generation"`
}

// Series is the chart data derived from one snapshot. Line is only
// populated for expenses.
type Series struct {
	Bars []core.ChartPoint `json:"bars"`
	Line []core.LinePoint  `json:"line,omitempty"`
}

// TransactionService owns the list of one kind and every operation that
// mutates it remotely. Mutations never touch the list directly; they
// resynchronize with FetchAll.
type TransactionService struct {
	kind     core.Kind
	store    remote.Store
	saver    export.Saver
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time
	series   cache.Cache[Series]

	fetching atomic.Bool

	mu   sync.RWMutex
	snap Snapshot

	deletion DeletionGate
}

type Option func(*TransactionService)

func WithLogger(l *log.Logger) Option {
	return func(s *TransactionService) { s.logger = l.WithComponent(log.ComponentService) }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *TransactionService) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) { s.now = now }
}

func WithSaver(saver export.Saver) Option {
	return func(s *TransactionService) { s.saver = saver }
}

// WithSeriesCache memoizes derived series per snapshot generation.
func WithSeriesCache(c cache.Cache[Series]) Option {
	return func(s *TransactionService) { s.series = c }
}

func NewTransactionService(kind core.Kind, store remote.Store, opts ...Option) *TransactionService {
	s := &TransactionService{
		kind:     kind,
		store:    store,
		notifier: notify.NewLog(nil),
		logger:   log.Default(log.ComponentService),
		now:      time.Now,
		snap: Snapshot{
			Kind:         kind,
			Transactions: []core.Transaction{},
			Records:      []core.Record{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TransactionService) Kind() core.Kind {
	return s.kind
}

// Loading reports whether a fetch is in flight.
func (s *TransactionService) Loading() bool {
	return s.fetching.Load()
}

func (s *TransactionService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// FetchAll replaces the snapshot with the remote list. A call made while
// another fetch is in flight returns nil without contacting the store.
func (s *TransactionService) FetchAll(ctx context.Context) error {
	if !s.fetching.CompareAndSwap(false, true) {
		s.logger.DebugContext(ctx, "fetch already in flight", log.FieldKind, s.kind.String())
		return nil
	}
	defer s.fetching.Store(false)

	start := time.Now()
	payload, err := s.store.List(ctx, s.kind)
	if err != nil {
		return s.fail(ctx, core.OpFetch, err)
	}

	env := records.Normalize(payload)
	if env.Shape == records.ShapeUnrecognized {
		s.logger.WarnContext(ctx, "unexpected list payload shape",
			log.FieldKind, s.kind.String(),
			log.FieldErrorType, log.ErrorTypeShape,
			"keys", env.Keys)
	}
	if len(env.Skipped) > 0 {
		s.logger.WarnContext(ctx, "skipped non-object list entries",
			log.FieldKind, s.kind.String(),
			log.FieldCount, len(env.Skipped),
			"indices", env.Skipped)
	}

	now := s.now()
	txs := records.NewResolver(now).Transactions(s.kind, env.Records)

	s.mu.Lock()
	s.snap = Snapshot{
		Kind:         s.kind,
		Transactions: txs,
		Records:      env.Records,
		Shape:        env.Shape,
		FetchedAt:    now,
		Generation:   s.snap.Generation + 1,
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "list fetched",
		log.FieldKind, s.kind.String(),
		log.FieldShape, env.Shape.String(),
		log.FieldCount, len(txs),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Add validates c, creates it remotely and resynchronizes. Validation
// failures never reach the store.
func (s *TransactionService) Add(ctx context.Context, c core.Candidate) error {
	if err := c.Validate(s.kind); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			s.notice(ctx, notify.Failure(s.kind, core.OpAdd, ve.Message))
		}
		s.logger.DebugContext(ctx, "candidate rejected",
			log.FieldKind, s.kind.String(),
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, err)
		return err
	}

	if err := s.store.Create(ctx, s.kind, c); err != nil {
		return s.fail(ctx, core.OpAdd, err)
	}

	s.notice(ctx, notify.Success(s.kind, core.OpAdd, s.kind.Title()+" added successfully"))
	s.resync(ctx, core.OpAdd)
	return nil
}

// Remove deletes id remotely, clears any pending confirmation and
// resynchronizes.
func (s *TransactionService) Remove(ctx context.Context, id string) error {
	if id == "" {
		return &core.ValidationError{Field: "id", Message: "Nothing selected to delete.", Err: errors.New("empty id")}
	}
	if err := s.store.Delete(ctx, s.kind, id); err != nil {
		return s.fail(ctx, core.OpDelete, err)
	}
	s.deletion.Cancel()

	s.notice(ctx, notify.Success(s.kind, core.OpDelete, s.kind.Title()+" details deleted successfully"))
	s.resync(ctx, core.OpDelete)
	return nil
}

// ExportDownload fetches the spreadsheet for this kind and hands it to the
// configured saver under the kind's fixed file name. It returns where the
// file ended up. The list is not touched.
func (s *TransactionService) ExportDownload(ctx context.Context) (string, error) {
	if s.saver == nil {
		return "", s.fail(ctx, core.OpExport, ErrNoExportTarget)
	}
	data, err := s.store.Export(ctx, s.kind)
	if err != nil {
		return "", s.fail(ctx, core.OpExport, err)
	}
	location, err := s.saver.Save(ctx, s.kind.ExportFilename(), data)
	if err != nil {
		return "", s.fail(ctx, core.OpExport, fmt.Errorf("save export: %w", err))
	}

	s.logger.InfoContext(ctx, "export saved",
		log.FieldKind, s.kind.String(),
		log.FieldLocation, location,
		"bytes", len(data))
	return location, nil
}

// RequestDelete opens the confirmation step for id.
func (s *TransactionService) RequestDelete(id string) bool {
	return s.deletion.Request(id)
}

// CancelDelete drops any pending confirmation without a remote call.
func (s *TransactionService) CancelDelete() bool {
	return s.deletion.Cancel()
}

// ConfirmDelete clears the pending confirmation and removes its target. It is
// a no-op when nothing is pending. The gate is cleared even if removal fails.
func (s *TransactionService) ConfirmDelete(ctx context.Context) error {
	id, ok := s.deletion.Confirm()
	if !ok {
		return nil
	}
	return s.Remove(ctx, id)
}

func (s *TransactionService) Deletion() core.DeletionRequest {
	return s.deletion.State()
}

// Series derives chart data from the current snapshot.
func (s *TransactionService) Series() Series {
	snap := s.Snapshot()
	key := s.kind.String() + ":" + strconv.FormatUint(snap.Generation, 10)
	if s.series != nil {
		if v, ok := s.series.Get(key); ok {
			return v
		}
	}

	var out Series
	if s.kind == core.Income {
		out.Bars = series.IncomeBars(snap.Records, snap.FetchedAt)
	} else {
		out.Bars = series.ExpenseBars(snap.Records)
		out.Line = series.ExpenseLine(snap.Records)
	}

	if s.series != nil {
		s.series.Set(key, out)
	}
	return out
}

func (s *TransactionService) resync(ctx context.Context, op string) {
	if err := s.FetchAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "resync after mutation failed",
			log.FieldKind, s.kind.String(),
			log.FieldOperation, op,
			log.FieldError, err)
	}
}

func (s *TransactionService) fail(ctx context.Context, op string, err error) error {
	opErr := &core.OperationError{Op: op, Kind: s.kind, Err: err}
	s.logger.ErrorContext(ctx, "operation failed",
		log.FieldKind, s.kind.String(),
		log.FieldOperation, op,
		log.FieldErrorType, log.ErrorTypeNetwork,
		log.FieldError, err)
	s.notice(ctx, notify.Failure(s.kind, op, opErr.Message()))
	return opErr
}

func (s *TransactionService) notice(ctx context.Context, n notify.Notice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "notice not delivered",
			log.FieldKind, s.kind.String(),
			log.FieldOperation, n.Operation,
			log.FieldError, err)
	}
}
