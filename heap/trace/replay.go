package trace

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Options configures Replay. A nil *Options means defaults.
type Options struct {
	// Logger receives one debug record per failed operation.
	Logger *slog.Logger

	// KeepLive leaves the allocations still live at the end of the trace
	// in place. By default they are verified and freed.
	KeepLive bool
}

// Failure is an operation the allocator rejected. Rejections are expected
// in traces that probe error paths and do not stop the replay.
type Failure struct {
	Index int
	Op    Op
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("op %d %v: %v", f.Index, f.Op, f.Err)
}

// Result summarises a replay.
type Result struct {
	Ops      int          // operations executed
	ByKind   map[Kind]int // operations executed per kind
	Failures []Failure    // operations the allocator rejected
	Moves    int          // reallocs that returned a different pointer

	LiveBytes     int // requested bytes live when the trace ended
	PeakLiveBytes int // high-water mark of requested live bytes
	Released      int // slots freed after the last operation
}

type slot struct {
	p    alloc.Ptr
	size int
	seed byte
}

func (s *slot) live() bool { return s.p != alloc.Nil }

type replayer struct {
	a     alloc.Allocator
	slots []slot
	res   *Result
	log   *slog.Logger
}

// Replay runs t against a. It returns an error wrapping ErrCorrupted as soon
// as a payload fails verification; allocator rejections are collected in
// Result.Failures instead.
func Replay(a alloc.Allocator, t *Trace, opts *Options) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := &replayer{
		a:     a,
		slots: make([]slot, t.Slots),
		res:   &Result{ByKind: make(map[Kind]int)},
		log:   log,
	}

	for i, op := range t.Ops {
		if err := r.step(i, op); err != nil {
			return r.res, err
		}
		r.res.Ops++
		r.res.ByKind[op.Kind]++
		r.res.PeakLiveBytes = max(r.res.PeakLiveBytes, r.res.LiveBytes)
	}

	if opts.KeepLive {
		return r.res, nil
	}
	for i := range r.slots {
		s := &r.slots[i]
		if !s.live() {
			continue
		}
		if err := r.verify(len(t.Ops), i, s.p, s.size, s.seed); err != nil {
			return r.res, err
		}
		if err := a.Free(s.p); err != nil {
			return r.res, fmt.Errorf("trace: release slot %d: %w", i, err)
		}
		r.res.Released++
	}
	return r.res, nil
}

func (r *replayer) step(i int, op Op) error {
	s := &r.slots[op.Slot]
	seed := byte(i*13 + op.Slot)

	switch op.Kind {
	case KindAlloc:
		p, err := r.a.Alloc(op.Size)
		if err != nil {
			r.fail(i, op, err)
			return nil
		}
		return r.fill(i, op.Slot, p, op.Size, seed)

	case KindCalloc:
		p, err := r.a.Calloc(op.Count, op.Size)
		if err != nil {
			r.fail(i, op, err)
			return nil
		}
		if p == alloc.Nil {
			return nil
		}
		total := op.Count * op.Size
		b := r.a.Bytes(p)
		if len(b) < total {
			return fmt.Errorf("%w: op %d: calloc payload holds %d of %d bytes", ErrCorrupted, i, len(b), total)
		}
		for j, v := range b[:total] {
			if v != 0 {
				return fmt.Errorf("%w: op %d: calloc byte %d is 0x%02x", ErrCorrupted, i, j, v)
			}
		}
		return r.fill(i, op.Slot, p, total, seed)

	case KindRealloc:
		if s.live() {
			if err := r.verify(i, op.Slot, s.p, s.size, s.seed); err != nil {
				return err
			}
		}
		np, err := r.a.Realloc(s.p, op.Size)
		if err != nil {
			r.fail(i, op, err)
			return nil
		}
		old := *s
		r.clear(s)
		if np == alloc.Nil {
			return nil
		}
		if old.live() {
			if np != old.p {
				r.res.Moves++
			}
			if err := r.verify(i, op.Slot, np, min(old.size, op.Size), old.seed); err != nil {
				return err
			}
		}
		return r.fill(i, op.Slot, np, op.Size, seed)

	case KindFree:
		if s.live() {
			if err := r.verify(i, op.Slot, s.p, s.size, s.seed); err != nil {
				return err
			}
		}
		if err := r.a.Free(s.p); err != nil {
			r.fail(i, op, err)
			return nil
		}
		r.clear(s)
		return nil
	}
	return fmt.Errorf("%w: op %d: unknown kind %q", ErrInvalidOp, i, op.Kind)
}

func (r *replayer) fail(i int, op Op, err error) {
	r.res.Failures = append(r.res.Failures, Failure{Index: i, Op: op, Err: err})
	r.log.Debug("operation rejected", "index", i, "op", op.String(), "err", err)
}

func (r *replayer) clear(s *slot) {
	r.res.LiveBytes -= s.size
	*s = slot{}
}

// fill writes the slot pattern into the first n bytes of the payload at p
// and records it in slot idx.
func (r *replayer) fill(i, idx int, p alloc.Ptr, n int, seed byte) error {
	b := r.a.Bytes(p)
	if len(b) < n {
		return fmt.Errorf("%w: op %d: slot %d payload holds %d of %d bytes", ErrCorrupted, i, idx, len(b), n)
	}
	for j := range b[:n] {
		b[j] = seed + byte(j*31)
	}
	r.slots[idx] = slot{p: p, size: n, seed: seed}
	r.res.LiveBytes += n
	return nil
}

func (r *replayer) verify(i, idx int, p alloc.Ptr, n int, seed byte) error {
	b := r.a.Bytes(p)
	if len(b) < n {
		return fmt.Errorf("%w: op %d: slot %d payload holds %d of %d bytes", ErrCorrupted, i, idx, len(b), n)
	}
	for j, v := range b[:n] {
		if want := seed + byte(j*31); v != want {
			return fmt.Errorf("%w: op %d: slot %d byte %d is 0x%02x, want 0x%02x", ErrCorrupted, i, idx, j, v, want)
		}
	}
	return nil
}
