package bus

import "sync"

// Group cancels a set of subscriptions at once.
type Group struct {
	mu       sync.Mutex
	subs     []*Subscription
	disposed bool
}

// Add puts sub in the group. Adding to a disposed group cancels sub.
func (g *Group) Add(sub *Subscription) {
	if sub == nil {
		return
	}
	g.mu.Lock()
	if g.disposed {
		g.mu.Unlock()
		sub.Cancel()
		return
	}
	g.subs = append(g.subs, sub)
	g.mu.Unlock()
}

// Len returns the number of subscriptions in the group.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// Clear cancels every member. The group stays usable.
func (g *Group) Clear() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

// Dispose cancels every member and every subscription added later.
func (g *Group) Dispose() {
	g.mu.Lock()
	g.disposed = true
	g.mu.Unlock()
	g.Clear()
}
