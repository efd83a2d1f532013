package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"finboard/internal/core"
)

var errRemote = errors.New("remote unavailable")

// fakeStore counts calls and can block List until release is closed.
type fakeStore struct {
	mu      sync.Mutex
	payload any
	listErr error
	opErr   error
	exportB []byte

	release chan struct{}
	entered chan struct{}

	lists   atomic.Int32
	creates atomic.Int32
	deletes atomic.Int32
	exports atomic.Int32
	deleted []string
}

func (f *fakeStore) setPayload(p any) {
	f.mu.Lock()
	f.payload = p
	f.mu.Unlock()
}

func (f *fakeStore) List(ctx context.Context, _ core.Kind) (any, error) {
	f.lists.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payload, f.listErr
}

func (f *fakeStore) Create(context.Context, core.Kind, core.Candidate) error {
	f.creates.Add(1)
	return f.opErr
}

func (f *fakeStore) Delete(_ context.Context, _ core.Kind, id string) error {
	f.deletes.Add(1)
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return f.opErr
}

func (f *fakeStore) Export(context.Context, core.Kind) ([]byte, error) {
	f.exports.Add(1)
	return f.exportB, f.opErr
}

type fakeSaver struct {
	name string
	data []byte
	err  error
}

func (s *fakeSaver) Save(_ context.Context, name string, data []byte) (string, error) {
	s.name, s.data = name, data
	if s.err != nil {
		return "", s.err
	}
	return "/exports/" + name, nil
}
