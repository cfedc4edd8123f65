package bus

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nfrund/eventpress/internal/flow"
	"github.com/nfrund/eventpress/internal/scheduler"
	"github.com/nfrund/eventpress/internal/topicmgr"
)

// RegistryEntry is a registered channel with its metadata.
type RegistryEntry struct {
	Channel      *Channel
	RegisteredAt time.Time
}

type entryMap map[string]*RegistryEntry

// Registry maps topic paths to channels. At most one channel exists per
// path at any time.
type Registry struct {
	// pub orders recursive publishes against removals; taken before mu
	pub sync.RWMutex
	// mu serializes register and remove
	mu sync.Mutex
	// closed is set by CloseAll; no channel can be registered afterwards
	closed bool
	snap   atomic.Pointer[entryMap]
	logger *slog.Logger
	base   *slog.Logger
}

// NewRegistry creates an empty registry. Channels log through logger too.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		logger: logger.With("component", "registry"),
		base:   logger,
	}
	r.snap.Store(&entryMap{})
	return r
}

func (r *Registry) load() entryMap {
	return *r.snap.Load()
}

// RegisterOrGet returns the channel registered for path, creating it from
// fc and sched when absent. The second result reports whether the channel
// was created. An existing channel keeps its configuration. After CloseAll
// it fails with ErrClosed.
func (r *Registry) RegisterOrGet(path topicmgr.TopicPath, fc *flow.FlowControl, sched scheduler.DeliveryScheduler) (*Channel, bool, error) {
	key := path.String()
	if e, ok := r.load()[key]; ok {
		return e.Channel, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false, topicmgr.NewError(topicmgr.ErrorClosed, key, "topic registry is closed")
	}
	current := r.load()
	if e, ok := current[key]; ok {
		return e.Channel, false, nil
	}

	ch := NewChannel(path, fc, sched, r.base.With("component", "bus"))
	next := make(entryMap, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[key] = &RegistryEntry{Channel: ch, RegisteredAt: time.Now()}
	r.snap.Store(&next)

	r.logger.Debug("Topic registered",
		"topic", key,
		"policy", ch.Flow().Policy().String(),
		"scheduler", ch.Scheduler().String(),
		"valve", ch.Flow().ValveEnabled())
	return ch, true, nil
}

// Get returns the channel registered for path.
func (r *Registry) Get(path string) (*Channel, bool) {
	e, ok := r.load()[path]
	if !ok {
		return nil, false
	}
	return e.Channel, true
}

// Match returns every channel whose path starts with prefix, sorted by path.
func (r *Registry) Match(prefix string) []*Channel {
	var out []*Channel
	for key, e := range r.load() {
		if topicmgr.MatchPrefix(prefix, key) {
			out = append(out, e.Channel)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// Publish delivers payload to the channel at path, or with recursive set to
// every channel whose path starts with path. Absent topics are ignored. It
// returns the number of channels that accepted the payload.
func (r *Registry) Publish(path string, payload any, recursive bool) int {
	if !recursive {
		ch, ok := r.Get(path)
		if !ok {
			return 0
		}
		if ch.Deliver(payload) != nil {
			return 0
		}
		return 1
	}

	// Enqueue under pub so a concurrent removal is seen entirely or not
	// at all; drains start after the unlock.
	var ready []*Subscription
	n := 0
	r.pub.RLock()
	for _, ch := range r.Match(path) {
		subs, err := ch.enqueue(payload)
		if err != nil {
			continue
		}
		n++
		ready = append(ready, subs...)
	}
	r.pub.RUnlock()

	for _, sub := range ready {
		sub.schedule()
	}
	return n
}

// RemoveRecursive removes path and every topic whose path starts with it,
// then closes the removed channels. It returns the removed paths.
func (r *Registry) RemoveRecursive(path string) []string {
	r.pub.Lock()
	r.mu.Lock()
	current := r.load()
	next := make(entryMap, len(current))
	var removed []*Channel
	for key, e := range current {
		if topicmgr.MatchPrefix(path, key) {
			removed = append(removed, e.Channel)
			continue
		}
		next[key] = e
	}
	if len(removed) > 0 {
		r.snap.Store(&next)
	}
	r.mu.Unlock()
	sealed := sealAll(removed)
	r.pub.Unlock()

	return r.closeAll(sealed)
}

// CloseAll removes and closes every channel and stops further
// registrations.
func (r *Registry) CloseAll() []*Channel {
	r.pub.Lock()
	r.mu.Lock()
	r.closed = true
	current := r.load()
	r.snap.Store(&entryMap{})
	r.mu.Unlock()

	channels := make([]*Channel, 0, len(current))
	for _, e := range current {
		channels = append(channels, e.Channel)
	}
	sealed := sealAll(channels)
	r.pub.Unlock()

	r.closeAll(sealed)
	return channels
}

// sealing is a removed channel with the subscriptions it detached.
type sealing struct {
	ch     *Channel
	subs   []*Subscription
	sealed bool
}

func sealAll(channels []*Channel) []sealing {
	out := make([]sealing, len(channels))
	for i, ch := range channels {
		subs, ok := ch.seal()
		out[i] = sealing{ch: ch, subs: subs, sealed: ok}
	}
	return out
}

func (r *Registry) closeAll(channels []sealing) []string {
	paths := make([]string, 0, len(channels))
	for _, s := range channels {
		if s.sealed {
			s.ch.complete(s.subs)
		}
		paths = append(paths, s.ch.Path())
	}
	sort.Strings(paths)
	if len(paths) > 0 {
		r.logger.Debug("Topics removed", "topics", paths)
	}
	return paths
}

// Len returns the number of registered topics.
func (r *Registry) Len() int {
	return len(r.load())
}

// TopicInfo is a point-in-time description of a registered topic.
type TopicInfo struct {
	Path         string    `json:"path"`
	Policy       string    `json:"policy"`
	Scheduler    string    `json:"scheduler"`
	ValveEnabled bool      `json:"valve_enabled"`
	ValveOpen    bool      `json:"valve_open"`
	Subscribers  int       `json:"subscribers"`
	Published    uint64    `json:"published"`
	RegisteredAt time.Time `json:"registered_at"`
}

// List describes every registered topic, sorted by path.
func (r *Registry) List() []TopicInfo {
	current := r.load()
	out := make([]TopicInfo, 0, len(current))
	for key, e := range current {
		ch := e.Channel
		out = append(out, TopicInfo{
			Path:         key,
			Policy:       ch.Flow().Policy().String(),
			Scheduler:    ch.Scheduler().String(),
			ValveEnabled: ch.Flow().ValveEnabled(),
			ValveOpen:    ch.Flow().IsOpen(),
			Subscribers:  ch.SubscriberCount(),
			Published:    ch.Published(),
			RegisteredAt: e.RegisteredAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// RegistryStats summarizes the registry.
type RegistryStats struct {
	TotalTopics        int            `json:"total_topics"`
	SystemTopics       int            `json:"system_topics"`
	UserTopics         int            `json:"user_topics"`
	Subscribers        int            `json:"subscribers"`
	SchedulerBreakdown map[string]int `json:"scheduler_breakdown"`
}

// Stats returns registry statistics.
func (r *Registry) Stats() RegistryStats {
	current := r.load()
	stats := RegistryStats{
		TotalTopics:        len(current),
		SchedulerBreakdown: make(map[string]int),
	}
	for key, e := range current {
		if key == topicmgr.TopicSys || strings.HasPrefix(key, topicmgr.TopicSys+"/") {
			stats.SystemTopics++
		} else {
			stats.UserTopics++
		}
		stats.Subscribers += e.Channel.SubscriberCount()
		stats.SchedulerBreakdown[e.Channel.Scheduler().String()]++
	}
	return stats
}
