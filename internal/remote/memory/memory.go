// Package memory is an in-process transaction store used for local runs
// and demos. It answers List in a configurable envelope shape so every
// normalizer path can be exercised end to end.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/records"
	"finboard/internal/remote"
)

var _ remote.Store = (*Store)(nil)

// Envelope selects how List wraps its records.
type Envelope string

const (
	EnvelopeList         Envelope = "list"
	EnvelopeTransactions Envelope = "transactions"
	EnvelopeData         Envelope = "data"
)

type Store struct {
	mu       sync.Mutex
	envelope Envelope
	items    map[core.Kind][]core.Record
	now      func() time.Time
}

func New(envelope Envelope) *Store {
	if envelope == "" {
		envelope = EnvelopeList
	}
	return &Store{
		envelope: envelope,
		items:    make(map[core.Kind][]core.Record),
		now:      time.Now,
	}
}

// Seed appends raw records as-is, without validation.
func (s *Store) Seed(kind core.Kind, recs ...core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[kind] = append(s.items[kind], recs...)
}

// List implements remote.Lister.
func (s *Store) List(_ context.Context, kind core.Kind) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]any, 0, len(s.items[kind]))
	for _, rec := range s.items[kind] {
		cp := make(map[string]any, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		list = append(list, cp)
	}

	switch s.envelope {
	case EnvelopeTransactions:
		return map[string]any{"transactions": list}, nil
	case EnvelopeData:
		return map[string]any{"data": list}, nil
	default:
		return list, nil
	}
}

// Create implements remote.Creator.
func (s *Store) Create(_ context.Context, kind core.Kind, c core.Candidate) error {
	if err := c.Validate(kind); err != nil {
		return err
	}
	rec := core.Record(remote.CreateBody(kind, c))
	rec["_id"] = uuid.NewString()
	rec["createdAt"] = s.now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[kind] = append(s.items[kind], rec)
	return nil
}

// Delete implements remote.Deleter.
func (s *Store) Delete(_ context.Context, kind core.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := records.Resolver{}
	items := s.items[kind]
	for i, rec := range items {
		if r.ID(rec) == id {
			s.items[kind] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s %s not found", kind, id)
}

// Export implements remote.Exporter.
func (s *Store) Export(_ context.Context, kind core.Kind) ([]byte, error) {
	s.mu.Lock()
	recs := append([]core.Record(nil), s.items[kind]...)
	s.mu.Unlock()

	txs := records.NewResolver(s.now()).Transactions(kind, recs)
	return export.Workbook(kind, txs)
}
