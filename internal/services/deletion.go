package services

import (
	"sync"

	"finboard/internal/core"
)

// DeletionGate holds the two-step delete confirmation: Idle, or pending on one id.
// The zero value is Idle.
type DeletionGate struct {
	mu     sync.Mutex
	target string
}

// Request moves to pending on id. A request while already pending retargets
// the gate. An empty id is rejected.
func (g *DeletionGate) Request(id string) bool {
	if id == "" {
		return false
	}
	g.mu.Lock()
	g.target = id
	g.mu.Unlock()
	return true
}

// Confirm returns the pending id and returns the gate to Idle. ok is false
// when nothing was pending.
func (g *DeletionGate) Confirm() (id string, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, g.target = g.target, ""
	return id, id != ""
}

// Cancel returns the gate to Idle and reports whether a request was dropped.
func (g *DeletionGate) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	had := g.target != ""
	g.target = ""
	return had
}

func (g *DeletionGate) State() core.DeletionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return core.DeletionRequest{Pending: g.target != "", TargetID: g.target}
}
