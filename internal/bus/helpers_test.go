package bus

import (
	"context"
	"sync"
	"testing"

	"github.com/nfrund/eventpress/internal/flow"
	"github.com/nfrund/eventpress/internal/scheduler"
	"github.com/nfrund/eventpress/internal/topicmgr"
	"github.com/stretchr/testify/require"
)

func newTestSet(t *testing.T) *scheduler.Set {
	t.Helper()
	set := scheduler.NewSet(scheduler.SetConfig{Workers: 4})
	t.Cleanup(func() {
		require.NoError(t, set.Shutdown(context.Background()))
	})
	return set
}

func newTestChannel(t *testing.T, path string, fc *flow.FlowControl, kind scheduler.Kind) *Channel {
	t.Helper()
	set := newTestSet(t)
	return NewChannel(topicmgr.NewTopicPath(path), fc, set.Scheduler(kind), nil)
}

// recorder collects every signal of one subscription.
type recorder struct {
	mu        sync.Mutex
	values    []any
	errs      []error
	completes int
	// hook runs inside OnNext before the value is recorded
	hook func(v any)
}

func (r *recorder) observer() Observer {
	return Observer{
		OnNext: func(v any) {
			if r.hook != nil {
				r.hook(v)
			}
			r.mu.Lock()
			r.values = append(r.values, v)
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnComplete: func() {
			r.mu.Lock()
			r.completes++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) Values() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.values...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recorder) Completes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completes
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}
