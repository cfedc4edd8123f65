package scheduler

import (
	"fmt"
	"strings"
)

// Kind selects the execution context of a channel.
type Kind int

const (
	// Computation runs callbacks on the CPU-bound worker pool.
	Computation Kind = iota
	// IO runs every callback on its own goroutine.
	IO
	// UI runs callbacks serially on the designated UI context.
	UI
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Computation:
		return "computation"
	case IO:
		return "io"
	case UI:
		return "ui"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a kind name into a Kind. The empty string selects
// Computation.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "computation", "cpu":
		return Computation, nil
	case "io":
		return IO, nil
	case "ui":
		return UI, nil
	default:
		return Computation, fmt.Errorf("unknown scheduler %q", name)
	}
}
