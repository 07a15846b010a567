package trace

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind names an allocator entry point.
type Kind string

const (
	KindAlloc   Kind = "alloc"
	KindCalloc  Kind = "calloc"
	KindRealloc Kind = "realloc"
	KindFree    Kind = "free"
)

// Op is one step of a trace.
type Op struct {
	Kind Kind `yaml:"op"`
	Slot int  `yaml:"slot"`

	// Size is the byte count for alloc and realloc, and the element size
	// for calloc.
	Size int `yaml:"size,omitempty"`

	// Count is the element count for calloc.
	Count int `yaml:"count,omitempty"`
}

func (op Op) String() string {
	switch op.Kind {
	case KindCalloc:
		return fmt.Sprintf("calloc(slot %d, %d x %d)", op.Slot, op.Count, op.Size)
	case KindFree:
		return fmt.Sprintf("free(slot %d)", op.Slot)
	default:
		return fmt.Sprintf("%s(slot %d, %d)", op.Kind, op.Slot, op.Size)
	}
}

// Trace is a named sequence of operations.
type Trace struct {
	Name  string `yaml:"name,omitempty"`
	Seed  int64  `yaml:"seed,omitempty"`
	Slots int    `yaml:"slots"`
	Ops   []Op   `yaml:"ops"`
}

// Parse decodes and validates a YAML trace.
func Parse(data []byte) (*Trace, error) {
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("trace: decode: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads and parses the trace at path.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Marshal encodes t as YAML.
func (t *Trace) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("trace: encode: %w", err)
	}
	return data, nil
}

// Save writes t to path.
func (t *Trace) Save(path string) error {
	data, err := t.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	return nil
}

// Validate checks every operation against the slot table. Sizes must be
// non-negative, slots within [0, Slots), and alloc or calloc may only
// target an empty slot. Zero sizes are allowed: they exercise the
// allocator's no-op and error paths, and leave the slot empty.
func (t *Trace) Validate() error {
	if t.Slots <= 0 {
		return fmt.Errorf("%w: slots must be positive, got %d", ErrInvalidOp, t.Slots)
	}
	live := make([]bool, t.Slots)
	for i, op := range t.Ops {
		if op.Slot < 0 || op.Slot >= t.Slots {
			return fmt.Errorf("%w: op %d: slot %d out of range [0, %d)", ErrInvalidOp, i, op.Slot, t.Slots)
		}
		if op.Size < 0 || op.Count < 0 {
			return fmt.Errorf("%w: op %d: negative size in %v", ErrInvalidOp, i, op)
		}
		switch op.Kind {
		case KindAlloc, KindCalloc:
			if live[op.Slot] {
				return fmt.Errorf("%w: op %d: %v overwrites a live slot", ErrInvalidOp, i, op)
			}
			live[op.Slot] = op.Size > 0 && (op.Kind == KindAlloc || op.Count > 0)
		case KindRealloc:
			live[op.Slot] = op.Size > 0
		case KindFree:
			live[op.Slot] = false
		default:
			return fmt.Errorf("%w: op %d: unknown kind %q", ErrInvalidOp, i, op.Kind)
		}
	}
	return nil
}
