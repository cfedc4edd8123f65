package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nfrund/eventpress/internal/flow"
	"github.com/nfrund/eventpress/internal/scheduler"
	"github.com/nfrund/eventpress/internal/topicmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventually = 2 * time.Second

func TestChannel_BufferKeepsOrder(t *testing.T) {
	ch := newTestChannel(t, "/orders", flow.New(flow.Buffer, false), scheduler.Computation)

	rec := &recorder{hook: func(any) { time.Sleep(50 * time.Microsecond) }}
	_, err := ch.Subscribe(rec.observer())
	require.NoError(t, err)

	const n = 500
	for i := 1; i <= n; i++ {
		require.NoError(t, ch.Deliver(i))
	}

	require.Eventually(t, func() bool { return rec.count() == n }, eventually, 5*time.Millisecond)
	for i, v := range rec.Values() {
		assert.Equal(t, i+1, v)
	}
}

// blockFirst makes the subscriber stall on its first payload until release
// is closed, so later payloads pile up in the mailbox.
func blockFirst(release <-chan struct{}, started chan<- struct{}) func(any) {
	var once sync.Once
	return func(any) {
		once.Do(func() {
			close(started)
			<-release
		})
	}
}

func TestChannel_LatestKeepsNewest(t *testing.T) {
	ch := newTestChannel(t, "/ticks", flow.New(flow.Latest, false), scheduler.IO)

	release, started := make(chan struct{}), make(chan struct{})
	rec := &recorder{hook: blockFirst(release, started)}
	sub, err := ch.Subscribe(rec.observer())
	require.NoError(t, err)

	require.NoError(t, ch.Deliver(0))
	<-started
	for i := 1; i <= 3; i++ {
		require.NoError(t, ch.Deliver(i))
	}
	close(release)

	require.Eventually(t, func() bool { return rec.count() == 2 }, eventually, 5*time.Millisecond)
	assert.Equal(t, []any{0, 3}, rec.Values())
	assert.Equal(t, uint64(2), sub.Dropped())
}

func TestChannel_DropDiscardsWhileBehind(t *testing.T) {
	ch := newTestChannel(t, "/sensor", flow.New(flow.Drop, false), scheduler.IO)

	release, started := make(chan struct{}), make(chan struct{})
	rec := &recorder{hook: blockFirst(release, started)}
	sub, err := ch.Subscribe(rec.observer())
	require.NoError(t, err)

	require.NoError(t, ch.Deliver(0))
	<-started
	for i := 1; i <= 3; i++ {
		require.NoError(t, ch.Deliver(i))
	}
	close(release)

	require.Eventually(t, func() bool { return rec.count() == 2 }, eventually, 5*time.Millisecond)
	assert.Equal(t, []any{0, 1}, rec.Values())
	assert.Equal(t, uint64(2), sub.Dropped())
}

func TestChannel_ValveHoldsUntilReopened(t *testing.T) {
	for _, policy := range []flow.Policy{flow.Buffer, flow.Drop, flow.Latest} {
		t.Run(policy.String(), func(t *testing.T) {
			ch := newTestChannel(t, "/gated", flow.New(policy, true), scheduler.Computation)

			rec := &recorder{}
			_, err := ch.Subscribe(rec.observer())
			require.NoError(t, err)

			require.True(t, ch.SetGate(false))
			for _, v := range []string{"x", "y", "z"} {
				require.NoError(t, ch.Deliver(v))
			}
			assert.Never(t, func() bool { return rec.count() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

			require.True(t, ch.SetGate(true))
			require.Eventually(t, func() bool { return rec.count() == 3 }, eventually, 5*time.Millisecond)
			assert.Equal(t, []any{"x", "y", "z"}, rec.Values())
		})
	}
}

func TestChannel_SetGateWithoutValve(t *testing.T) {
	ch := newTestChannel(t, "/plain", flow.New(flow.Buffer, false), scheduler.Computation)
	assert.False(t, ch.SetGate(false))
	assert.False(t, ch.SetGate(true))
}

func TestChannel_SlowSubscriberDoesNotStallOthers(t *testing.T) {
	ch := newTestChannel(t, "/fanout", flow.New(flow.Buffer, false), scheduler.IO)

	release := make(chan struct{})
	defer close(release)
	slow := &recorder{hook: func(any) { <-release }}
	fast := &recorder{}
	_, err := ch.Subscribe(slow.observer())
	require.NoError(t, err)
	_, err = ch.Subscribe(fast.observer())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, ch.Deliver(i))
	}
	require.Eventually(t, func() bool { return fast.count() == 10 }, eventually, 5*time.Millisecond)
	assert.Zero(t, slow.count())
}

func TestChannel_CloseCompletesOnce(t *testing.T) {
	ch := newTestChannel(t, "/done", flow.New(flow.Buffer, true), scheduler.Computation)

	recs := []*recorder{{}, {}, {}}
	for _, rec := range recs {
		_, err := ch.Subscribe(rec.observer())
		require.NoError(t, err)
	}
	require.NoError(t, ch.Deliver("last"))

	ch.Close()
	ch.Close()

	select {
	case <-ch.Done():
	case <-time.After(eventually):
		t.Fatal("channel never reached closed state")
	}
	assert.Equal(t, StateClosed, ch.State())
	for _, rec := range recs {
		assert.Equal(t, 1, rec.Completes())
		assert.Empty(t, rec.Errors())
		assert.Equal(t, []any{"last"}, rec.Values())
	}
	assert.Zero(t, ch.SubscriberCount())
	assert.True(t, ch.Flow().Valve().Finalized())
}

func TestChannel_CloseReleasesValveWaiters(t *testing.T) {
	ch := newTestChannel(t, "/wait", flow.New(flow.Buffer, true), scheduler.Computation)
	require.True(t, ch.SetGate(false))

	done := make(chan error, 1)
	go func() { done <- ch.Flow().Valve().Wait(context.Background()) }()

	ch.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, flow.ErrValveFinalized)
	case <-time.After(eventually):
		t.Fatal("valve wait left hanging")
	}
}

func TestChannel_UseAfterClose(t *testing.T) {
	ch := newTestChannel(t, "/gone", flow.New(flow.Buffer, false), scheduler.Computation)
	ch.Close()
	<-ch.Done()

	err := ch.Deliver(1)
	assert.ErrorIs(t, err, topicmgr.ErrClosed)

	rec := &recorder{}
	sub, err := ch.Subscribe(rec.observer())
	assert.Nil(t, sub)
	require.Error(t, err)
	assert.True(t, topicmgr.IsType(err, topicmgr.ErrorObserveFailed))
	// the observer hears about the failure too
	require.Len(t, rec.Errors(), 1)
	assert.ErrorIs(t, rec.Errors()[0], topicmgr.ErrObserveFailed)
}

func TestChannel_SubscribeRequiresOnNext(t *testing.T) {
	ch := newTestChannel(t, "/nil", flow.New(flow.Buffer, false), scheduler.Computation)
	_, err := ch.Subscribe(Observer{})
	assert.ErrorIs(t, err, topicmgr.ErrObserveFailed)
}

func TestSubscription_CancelStopsCallbacks(t *testing.T) {
	ch := newTestChannel(t, "/cancel", flow.New(flow.Buffer, false), scheduler.Computation)

	var calls, late atomic.Int64
	var cancelled atomic.Bool
	sub, err := ch.Subscribe(Observer{OnNext: func(any) {
		if cancelled.Load() {
			late.Add(1)
		}
		calls.Add(1)
		time.Sleep(100 * time.Microsecond)
	}})
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				_ = ch.Deliver(i)
			}
		}
	}()

	require.Eventually(t, func() bool { return calls.Load() > 10 }, eventually, time.Millisecond)
	sub.Cancel()
	cancelled.Store(true)
	after := calls.Load()

	time.Sleep(30 * time.Millisecond)
	close(stop)
	wg.Wait()

	assert.Equal(t, after, calls.Load())
	assert.Zero(t, late.Load())
	assert.True(t, sub.Cancelled())
	assert.Zero(t, ch.SubscriberCount())
}

func TestSubscription_CancelWaitsForRunningCallback(t *testing.T) {
	ch := newTestChannel(t, "/cancel/wait", flow.New(flow.Buffer, false), scheduler.IO)

	entered := make(chan struct{})
	release := make(chan struct{})
	var returned atomic.Bool
	sub, err := ch.Subscribe(Observer{OnNext: func(any) {
		close(entered)
		<-release
		returned.Store(true)
	}})
	require.NoError(t, err)
	require.NoError(t, ch.Deliver(1))
	<-entered

	done := make(chan struct{})
	go func() {
		sub.Cancel()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Cancel returned while the callback was still running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-done
	assert.True(t, returned.Load())
}

func TestSubscription_NoCallbackStartsAfterCancel(t *testing.T) {
	set := newTestSet(t)
	for i := 0; i < 300; i++ {
		ch := NewChannel(topicmgr.NewTopicPath("/race"), flow.New(flow.Buffer, false), set.Scheduler(scheduler.IO), nil)

		var cancelled, late atomic.Bool
		sub, err := ch.Subscribe(Observer{OnNext: func(any) {
			if cancelled.Load() {
				late.Store(true)
			}
		}})
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for n := 0; n < 20; n++ {
				_ = ch.Deliver(n)
			}
		}()
		go func() {
			defer wg.Done()
			sub.Cancel()
			cancelled.Store(true)
		}()
		wg.Wait()

		ch.Close()
		<-ch.Done()
		require.False(t, late.Load(), "callback started after Cancel returned (iteration %d)", i)
	}
}

func TestSubscription_CancelFromCallback(t *testing.T) {
	ch := newTestChannel(t, "/self", flow.New(flow.Buffer, false), scheduler.UI)

	var sub *Subscription
	var calls atomic.Int64
	ready := make(chan struct{})
	var err error
	sub, err = ch.Subscribe(Observer{OnNext: func(any) {
		<-ready
		calls.Add(1)
		sub.Cancel()
	}})
	require.NoError(t, err)
	close(ready)

	for i := 0; i < 5; i++ {
		require.NoError(t, ch.Deliver(i))
	}
	require.Eventually(t, func() bool { return sub.Cancelled() }, eventually, time.Millisecond)
	assert.Never(t, func() bool { return calls.Load() > 1 }, 30*time.Millisecond, 5*time.Millisecond)
}

func TestSubscription_CancelledMissesCompletion(t *testing.T) {
	ch := newTestChannel(t, "/quiet", flow.New(flow.Buffer, false), scheduler.Computation)

	rec := &recorder{}
	sub, err := ch.Subscribe(rec.observer())
	require.NoError(t, err)
	sub.Cancel()
	sub.Cancel()

	ch.Close()
	<-ch.Done()
	assert.Zero(t, rec.Completes())
}

func TestSubscription_PanicReportedToOnError(t *testing.T) {
	ch := newTestChannel(t, "/panic", flow.New(flow.Buffer, false), scheduler.Computation)

	rec := &recorder{hook: func(v any) {
		if v == "bad" {
			panic("cannot handle")
		}
	}}
	_, err := ch.Subscribe(rec.observer())
	require.NoError(t, err)

	require.NoError(t, ch.Deliver("bad"))
	require.NoError(t, ch.Deliver("good"))

	require.Eventually(t, func() bool { return rec.count() == 1 }, eventually, 5*time.Millisecond)
	assert.Equal(t, []any{"good"}, rec.Values())

	errs := rec.Errors()
	require.Len(t, errs, 1)
	var perr *PanicError
	require.ErrorAs(t, errs[0], &perr)
	assert.Equal(t, "cannot handle", perr.Value)
	assert.Equal(t, "/panic", perr.Topic)
}

func TestChannel_UISerializesCallbacks(t *testing.T) {
	set := newTestSet(t)
	a := NewChannel(topicmgr.NewTopicPath("/ui/a"), nil, set.Scheduler(scheduler.UI), nil)
	b := NewChannel(topicmgr.NewTopicPath("/ui/b"), nil, set.Scheduler(scheduler.UI), nil)

	var active, overlap atomic.Int32
	var total atomic.Int32
	obs := Observer{OnNext: func(any) {
		if active.Add(1) > 1 {
			overlap.Add(1)
		}
		time.Sleep(50 * time.Microsecond)
		active.Add(-1)
		total.Add(1)
	}}
	for _, ch := range []*Channel{a, b} {
		for i := 0; i < 3; i++ {
			_, err := ch.Subscribe(obs)
			require.NoError(t, err)
		}
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, a.Deliver(i))
		require.NoError(t, b.Deliver(i))
	}
	require.Eventually(t, func() bool { return total.Load() == 120 }, eventually, 5*time.Millisecond)
	assert.Zero(t, overlap.Load())
}
