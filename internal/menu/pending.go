package menu

import "sync"

// pendingActions holds at most one pending free-text admin action per
// recipient. A new admin-panel entry overwrites the old action, never queues
// behind it; the slot is cleared once consumed or by an unrelated command.
type pendingActions struct {
	mu sync.Mutex
	m  map[int64]ActionKind
}

func newPendingActions() *pendingActions {
	return &pendingActions{m: make(map[int64]ActionKind)}
}

func (p *pendingActions) set(recipient int64, kind ActionKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if kind == ActionNone {
		delete(p.m, recipient)
		return
	}
	p.m[recipient] = kind
}

// consume returns the pending action and clears the slot atomically.
func (p *pendingActions) consume(recipient int64) ActionKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kind := p.m[recipient]
	delete(p.m, recipient)
	return kind
}

func (p *pendingActions) clear(recipient int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, recipient)
}

func (p *pendingActions) active(recipient int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[recipient]
	return ok
}
