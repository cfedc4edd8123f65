// Package eventpress is an in-process publish/subscribe bus addressed by
// hierarchical topic paths.
//
// A Bus is created with New and must be initialized before use:
//
//	b := eventpress.New()
//	if err := b.Init(); err != nil {
//		return err
//	}
//	defer b.Shutdown(context.Background())
//
//	sub, err := eventpress.Observe(b, "/orders/created", func(o Order) {
//		fmt.Println("order", o.ID)
//	})
//
//	b.PublishTo(ctx, "/orders", Order{ID: 7}) // reaches /orders/created too
//
// Topics are paths such as "/orders/created". Publishing is recursive by
// default: every topic whose path starts with the published path receives
// the payload. The match is done on the raw string, so "/a/b" also reaches
// "/a/bx". PublishExact targets a single topic.
//
// Each topic is built once with a backpressure policy (Buffer, Drop or
// Latest), an optional valve that pauses delivery without losing payloads,
// and the scheduler its callbacks run on (Computation, IO or UI). Observe
// creates a topic with the defaults when it does not exist yet; Builder
// configures one explicitly. The first registration of a path wins.
//
// Paths under /sys are reserved. /sys/common is the default topic: it is
// created by Init and cannot be removed.
package eventpress
