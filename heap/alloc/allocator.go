package alloc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Runtime allocation logging - controlled by HEAPKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

// Options configures a BestFitAllocator. A nil *Options means defaults.
type Options struct {
	// Logger receives debug records for heap growth, mappings, relocations
	// and trims. When nil, output is discarded unless HEAPKIT_LOG_ALLOC is set.
	Logger *slog.Logger
}

// BestFitAllocator is the allocator context: it owns the block directory of
// one arena plus the table of live mapped regions. Independent instances
// share no state.
type BestFitAllocator struct {
	h   Heap
	m   Mapper
	log *slog.Logger

	// Directory bounds. head is set once, on the first arena request, and
	// never reset. end mirrors the break the allocator last observed.
	ready bool
	head  int
	end   int

	// Live mapped regions keyed by their Ptr. Regions are kept exactly as
	// the mapper returned them so they can be handed back to Unmap.
	mapped    map[Ptr][]byte
	nextMapID uint64

	stats Stats

	// Test hook: called after every successful heap growth (nil in production)
	onGrow func(delta int)
}

// NewBestFit creates an allocator drawing arena memory from h and large
// blocks from m. The arena is not touched until the first small request.
func NewBestFit(h Heap, m Mapper, opts *Options) (*BestFitAllocator, error) {
	if h == nil {
		return nil, errors.New("alloc: nil heap")
	}
	if m == nil {
		return nil, errors.New("alloc: nil mapper")
	}
	return &BestFitAllocator{
		h:      h,
		m:      m,
		log:    newLogger(opts),
		mapped: make(map[Ptr][]byte),
	}, nil
}

// NewDefault creates an allocator over a freshly reserved OS arena and
// anonymous mappings. The returned cleanup unmaps every live mapped block and
// releases the arena; pointers must not be used afterwards.
func NewDefault(opts *Options) (*BestFitAllocator, func() error, error) {
	arena, err := heap.NewArena(heap.DefaultReserve)
	if err != nil {
		return nil, nil, err
	}
	bf, err := NewBestFit(arena, &heap.AnonMapper{}, opts)
	if err != nil {
		_ = arena.Close()
		return nil, nil, err
	}
	cleanup := func() error {
		return errors.Join(bf.Close(), arena.Close())
	}
	return bf, cleanup, nil
}

func newLogger(opts *Options) *slog.Logger {
	if opts != nil && opts.Logger != nil {
		return opts.Logger
	}
	if logAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Alloc allocates size bytes. Sizes at or above MmapThreshold get their own
// mapping; smaller sizes come from the arena.
func (bf *BestFitAllocator) Alloc(size int) (Ptr, error) {
	bf.stats.AllocCalls++
	return bf.alloc(size)
}

func (bf *BestFitAllocator) alloc(size int) (Ptr, error) {
	if size <= 0 {
		return Nil, ErrInvalidSize
	}
	if size >= MmapThreshold {
		return bf.allocMapped(size)
	}
	return bf.allocArena(size)
}

// allocArena serves a small or medium request from the directory, growing
// the heap when no free block fits.
func (bf *BestFitAllocator) allocArena(size int) (Ptr, error) {
	need := format.Align8(size)

	if err := bf.ensureArena(); err != nil {
		return Nil, err
	}

	bf.coalesce()
	off, last := bf.findBestFit(need)

	if off < 0 {
		var err error
		off, err = bf.extendFor(last, need)
		if err != nil {
			return Nil, err
		}
		bf.stats.AllocSlowPath++
	} else {
		bf.splitIfLarge(off, need)
		bf.stats.AllocFastPath++
	}

	format.SetBlockStatus(bf.h.Bytes(), off, format.StatusAlloc)
	return payloadPtr(off), nil
}

// Calloc allocates count*elemSize bytes and zeroes them. A zero operand is a
// no-op returning Nil and no error. The product is checked for overflow.
func (bf *BestFitAllocator) Calloc(count, elemSize int) (Ptr, error) {
	bf.stats.CallocCalls++

	if count == 0 || elemSize == 0 {
		return Nil, nil
	}
	if count < 0 || elemSize < 0 {
		return Nil, ErrInvalidSize
	}
	total, ok := buf.MulOverflowSafe(count, elemSize)
	if !ok {
		return Nil, ErrOverflow
	}
	withHeader, ok := buf.AddOverflowSafe(total, HeaderSize+format.AlignmentMask)
	if !ok {
		return Nil, ErrOverflow
	}

	var p Ptr
	var err error
	if withHeader&^format.AlignmentMask >= CallocMmapThreshold {
		p, err = bf.allocMapped(total)
	} else {
		p, err = bf.allocArena(total)
	}
	if err != nil {
		return Nil, err
	}

	clear(bf.Bytes(p)[:total])
	return p, nil
}

// Free releases the allocation at p. Arena blocks become FREE without being
// merged with their neighbours; mapped blocks are unmapped.
// A pointer that is not the payload of a block in the directory or a live
// mapping yields ErrBadPtr and nothing is modified.
func (bf *BestFitAllocator) Free(p Ptr) error {
	if p == Nil {
		return nil
	}
	bf.stats.FreeCalls++
	return bf.free(p)
}

func (bf *BestFitAllocator) free(p Ptr) error {
	if p.IsMapped() {
		return bf.freeMapped(p)
	}

	off, h, err := bf.lookup(p)
	if err != nil {
		return err
	}
	if h.Status == format.StatusFree {
		return ErrFreed
	}
	format.SetBlockStatus(bf.h.Bytes(), off, format.StatusFree)
	return nil
}

// Bytes returns the payload of the live allocation at p with its capacity
// clipped to the payload. It returns nil for Nil, freed or foreign pointers.
// Arena payloads stay valid across growth; they must not be used after Free.
func (bf *BestFitAllocator) Bytes(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	if p.IsMapped() {
		region, ok := bf.mapped[p]
		if !ok {
			return nil
		}
		payload, _ := buf.Slice(region, HeaderSize, format.BlockSize(region, 0))
		return payload
	}

	off, h, err := bf.lookup(p)
	if err != nil || h.Status != format.StatusAlloc {
		return nil
	}
	payload, _ := buf.Slice(bf.h.Bytes(), off+HeaderSize, h.Size)
	return payload
}

// Size returns the usable payload size of the live allocation at p. It is
// the requested size rounded up to Alignment, or larger when a split was
// skipped because the remainder was too small.
func (bf *BestFitAllocator) Size(p Ptr) (int, error) {
	if p == Nil {
		return 0, ErrBadPtr
	}
	if p.IsMapped() {
		region, ok := bf.mapped[p]
		if !ok {
			return 0, ErrBadPtr
		}
		return format.BlockSize(region, 0), nil
	}
	_, h, err := bf.lookup(p)
	if err != nil {
		return 0, err
	}
	if h.Status == format.StatusFree {
		return 0, ErrFreed
	}
	return h.Size, nil
}

// Close unmaps every live mapped block. Arena blocks are left to whoever
// owns the Heap. The allocator must not be used afterwards.
func (bf *BestFitAllocator) Close() error {
	var errs []error
	for p, region := range bf.mapped {
		if err := bf.m.Unmap(region); err != nil {
			errs = append(errs, fmt.Errorf("alloc: unmap %v: %w", p, err))
			continue
		}
		bf.stats.UnmapCalls++
		bf.stats.MappedBytes -= int64(len(region))
		delete(bf.mapped, p)
	}
	return errors.Join(errs...)
}

func payloadPtr(off int) Ptr {
	return Ptr(off + HeaderSize)
}

// lookup resolves an arena pointer to its header offset and decoded header.
// It rejects pointers outside the directory, misaligned pointers, pointers
// whose header is not linked into the directory, and headers that do not
// decode to a FREE or ALLOCATED block fitting below the break.
func (bf *BestFitAllocator) lookup(p Ptr) (int, format.Header, error) {
	if !bf.ready || p.IsMapped() || uint64(p) > uint64(bf.end) {
		return 0, format.Header{}, ErrBadPtr
	}
	off := int(p) - HeaderSize
	if off < bf.head || off > bf.end-HeaderSize || !format.IsAligned(off-bf.head) {
		return 0, format.Header{}, ErrBadPtr
	}

	data := bf.h.Bytes()
	if !bf.linked(data, off) {
		return 0, format.Header{}, fmt.Errorf("%w: %v is not a block in the directory", ErrBadPtr, p)
	}
	h, err := format.ParseHeader(data, off)
	if err != nil {
		return 0, format.Header{}, fmt.Errorf("%w: %v: %w", ErrBadPtr, p, err)
	}
	if h.Status == format.StatusMapped || h.Size > bf.end-off-HeaderSize {
		return 0, format.Header{}, fmt.Errorf("%w: %v", ErrBadPtr, p)
	}
	return off, h, nil
}

// linked reports whether a directory header starts at off. Payload bytes
// that happen to look like a header are not linked, so they are rejected.
func (bf *BestFitAllocator) linked(data []byte, off int) bool {
	for cur := bf.head; cur <= off; {
		if cur == off {
			return true
		}
		next := format.BlockNext(data, cur)
		if next == format.NoNext || next <= cur {
			return false
		}
		cur = next
	}
	return false
}
