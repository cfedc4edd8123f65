// Package scheduler provides the execution contexts subscriber callbacks
// run on.
//
// Three kinds exist:
//
//   - IO: one goroutine per task, for callbacks that block.
//   - Computation: a fixed pool of workers sized to GOMAXPROCS. This is the
//     default.
//   - UI: a single goroutine that runs tasks strictly in submission order.
//     Hosts with their own UI thread inject an Executor for it instead.
//
// Every executor recovers panics raised by a task so one faulty callback
// cannot take a worker down with it.
package scheduler
