// Package manifest declares bus topics in a JSON document and applies it
// to a running bus.
//
//	{"topics": [
//	  {"path": "/orders", "policy": "buffer"},
//	  {"path": "/screen/main", "scheduler": "ui", "valve": true, "open": false}
//	]}
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"github.com/nfrund/eventpress"
)

// TopicSpec is the declared configuration of one topic.
type TopicSpec struct {
	Path         string `json:"path" validate:"required"`
	Policy       string `json:"policy,omitempty" validate:"omitempty,oneof=buffer drop latest"`
	Scheduler    string `json:"scheduler,omitempty" validate:"omitempty,oneof=io computation ui"`
	Valve        bool   `json:"valve,omitempty"`
	Open         *bool  `json:"open,omitempty"`
	DropCapacity int    `json:"drop_capacity,omitempty" validate:"gte=0"`
}

// Manifest is a set of topic declarations.
type Manifest struct {
	Topics []TopicSpec `json:"topics" validate:"dive"`
}

var validate = validator.New()

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks field rules, topic paths and duplicates.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	var errs []error
	seen := make(map[string]bool, len(m.Topics))
	for i, spec := range m.Topics {
		if !eventpress.IsValidTopic(spec.Path) {
			errs = append(errs, fmt.Errorf("topics[%d]: invalid path %q", i, spec.Path))
		}
		if seen[spec.Path] {
			errs = append(errs, fmt.Errorf("topics[%d]: duplicate path %q", i, spec.Path))
		}
		seen[spec.Path] = true
		if spec.Open != nil && !spec.Valve {
			errs = append(errs, fmt.Errorf("topics[%d]: open requires valve", i))
		}
	}
	return errors.Join(errs...)
}

// Load reads and parses the manifest at path on fs.
func Load(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Apply builds every declared topic and sets the declared valve states.
// Topics that already exist keep their configuration; only their valve
// state is applied.
func Apply(b *eventpress.Bus, m *Manifest) error {
	var errs []error
	for _, spec := range m.Topics {
		if err := applyTopic(b, spec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", spec.Path, err))
		}
	}
	return errors.Join(errs...)
}

func applyTopic(b *eventpress.Bus, spec TopicSpec) error {
	policy, err := eventpress.ParsePolicy(spec.Policy)
	if err != nil {
		return err
	}
	kind, err := eventpress.ParseScheduler(spec.Scheduler)
	if err != nil {
		return err
	}

	builder := b.Builder().Topic(spec.Path).Backpressure(policy).Scheduler(kind)
	if spec.Valve {
		builder.Valve()
	}
	if spec.DropCapacity > 0 {
		builder.DropCapacity(spec.DropCapacity)
	}
	if _, err := builder.Build(); err != nil {
		return err
	}

	if spec.Open != nil {
		return b.SwitchValve(spec.Path, *spec.Open)
	}
	return nil
}
