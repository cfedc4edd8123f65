// Package bus implements the topic channels of the event bus and the
// registry that owns them.
//
// A Channel fans each payload out to its subscriptions. Every Subscription
// owns a flow.Mailbox and a single-flight drain task that runs on the
// channel's scheduler, so the callbacks of one subscriber never overlap and
// see payloads in publish order while a slow subscriber never stalls the
// others.
//
// The Registry maps topic paths to channels. Mutations are serialized by
// one mutex; lookups and prefix scans read an immutable snapshot and never
// block.
package bus
