package admin

import (
	"context"
	"sync"
)

type GateState int

const (
	GateClosed GateState = iota
	GateOpen
)

func (s GateState) String() string {
	if s == GateOpen {
		return "open"
	}
	return "closed"
}

// ConfirmationGate guards a destructive action. The action runs only from Confirm
// while the gate is open, once per Confirm, and the gate is closed afterwards
// whatever the outcome.
type ConfirmationGate struct {
	action func(ctx context.Context, target string) error

	mu     sync.Mutex
	state  GateState
	target string
}

func NewConfirmationGate(action func(ctx context.Context, target string) error) *ConfirmationGate {
	return &ConfirmationGate{action: action}
}

// Request opens the gate for target. A second request replaces the target.
func (g *ConfirmationGate) Request(target string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = GateOpen
	g.target = target
}

func (g *ConfirmationGate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = GateClosed
	g.target = ""
}

// Dismiss closes the gate the way Cancel does.
func (g *ConfirmationGate) Dismiss() {
	g.Cancel()
}

func (g *ConfirmationGate) Confirm(ctx context.Context) error {
	g.mu.Lock()
	if g.state != GateOpen {
		g.mu.Unlock()
		return ErrGateClosed
	}
	target := g.target
	g.state = GateClosed
	g.target = ""
	g.mu.Unlock()

	return g.action(ctx, target)
}

func (g *ConfirmationGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *ConfirmationGate) Target() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.target
}
