package order

import (
	"fmt"
	"sync"

	"lichtwerk/internal/services"
)

// ErrUnknownStack reports a stack ID missing from the current inventory.
var ErrUnknownStack = fmt.Errorf("%w: stack", services.ErrNotFound)

// Inventory is the session-local copy of a job's assets and stacks. Ingestion
// replaces it wholesale after every refetch; annotation edits single stacks.
type Inventory struct {
	mu     sync.RWMutex
	assets []Asset
	stacks []Stack
}

// Replace swaps in a fresh authoritative copy.
func (inv *Inventory) Replace(assets []Asset, stacks []Stack) {
	a := make([]Asset, len(assets))
	copy(a, assets)
	s := CloneStacks(stacks)
	inv.mu.Lock()
	inv.assets, inv.stacks = a, s
	inv.mu.Unlock()
}

// Assets returns a copy of the assets.
func (inv *Inventory) Assets() []Asset {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]Asset, len(inv.assets))
	copy(out, inv.assets)
	return out
}

// Stacks returns a deep copy of the stacks in order.
func (inv *Inventory) Stacks() []Stack {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return CloneStacks(inv.stacks)
}

// Stack returns a copy of one stack.
func (inv *Inventory) Stack(id string) (Stack, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	for _, stack := range inv.stacks {
		if stack.ID == id {
			return stack.Clone(), nil
		}
	}
	return Stack{}, fmt.Errorf("%w %q", ErrUnknownStack, id)
}

// Asset returns a copy of one asset.
func (inv *Inventory) Asset(id string) (Asset, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	for _, asset := range inv.assets {
		if asset.ID == id {
			return asset, true
		}
	}
	return Asset{}, false
}

// UpdateStack applies fn to the stack with the given ID.
func (inv *Inventory) UpdateStack(id string, fn func(*Stack)) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for i := range inv.stacks {
		if inv.stacks[i].ID == id {
			fn(&inv.stacks[i])
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownStack, id)
}
