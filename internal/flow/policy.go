package flow

import (
	"fmt"
	"strings"
)

// Policy selects what happens to payloads a subscriber cannot consume in time.
type Policy int

const (
	// Buffer queues every payload without bound.
	Buffer Policy = iota
	// Drop discards payloads that arrive while the subscriber is behind.
	Drop
	// Latest keeps only the most recent pending payload.
	Latest
)

// String returns the lowercase policy name.
func (p Policy) String() string {
	switch p {
	case Buffer:
		return "buffer"
	case Drop:
		return "drop"
	case Latest:
		return "latest"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a policy name into a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "buffer":
		return Buffer, nil
	case "drop":
		return Drop, nil
	case "latest":
		return Latest, nil
	default:
		return Buffer, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
