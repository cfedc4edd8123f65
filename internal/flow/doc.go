// Package flow implements per-topic flow control: the overflow policy that
// decides what happens when a subscriber falls behind, and the optional
// valve that pauses delivery without discarding anything.
//
// Every subscriber owns a Mailbox. A payload offered to a mailbox passes the
// valve first and the overflow policy second:
//
//   - while the valve is closed, payloads are held in arrival order
//   - once reopened, held payloads are released at the consumer's pace,
//     ahead of anything newer, so the policy never discards them
//   - Buffer queues without bound, Drop keeps at most Capacity pending
//     payloads and discards newer ones, Latest keeps only the newest
//
// Mailboxes are data structures only. Scheduling the consumer is the
// caller's job.
package flow
