// Package alloc implements a best-fit dynamic memory allocator over a single
// growable arena, with dedicated mappings for large objects.
//
// # Overview
//
// The allocator offers the four classic heap entry points:
//
//   - Alloc(size): allocate size bytes
//   - Calloc(count, elemSize): allocate count*elemSize zeroed bytes
//   - Realloc(p, size): resize an allocation, in place when possible
//   - Free(p): release an allocation
//
// Requests below MmapThreshold are served from the arena, a contiguous region
// grown through a Heap (the sbrk-like primitive in package heap). Larger
// requests each get their own region from a Mapper and are unmapped on Free.
//
// # Block Directory
//
// The arena is covered by blocks laid end to end. Each block is a 24-byte
// header followed by its payload:
//
//	[hdr|payload][hdr|payload][hdr|payload] ... break
//
// Every header records the payload size, a status (FREE, ALLOCATED) and the
// offset of the next header, forming a singly linked, address-ordered list
// that starts at the first byte of the arena. Mapped blocks carry the same
// header with status MAPPED but are never linked into the directory.
//
// # Placement
//
//   - Best fit: the whole directory is scanned and the smallest FREE block
//     that holds the request wins; ties go to the lowest address.
//   - Split: a block with room for the request plus a header plus 8 bytes is
//     cut in two, the tail becoming a new FREE block.
//   - Coalesce: a forward pass merges runs of adjacent FREE blocks, reclaiming
//     the swallowed headers.
//
// Coalescing is lazy. Free only flips the status of a block; neighbours are
// merged by the next pass, which runs before every arena search and on Trim.
// Between calls the directory may therefore hold adjacent FREE blocks.
//
// # Heap Growth
//
// The first arena request reserves InitialArenaSize bytes as one FREE block.
// When no block fits, a FREE tail is grown in place by exactly the shortfall;
// otherwise a new block of header+request bytes is appended.
//
// # Pointers
//
// Payloads are addressed by Ptr handles rather than raw addresses. An arena
// Ptr is the arena offset of the payload, so its header always sits
// HeaderSize bytes before it. A mapped Ptr carries a tag bit and an id. Use
// Bytes to obtain the payload as a slice.
//
// # Errors
//
// Every failing call returns Nil with one of the sentinel errors in this
// package. Defined no-ops (Free(Nil), Calloc with a zero operand,
// Realloc(p, 0)) return Nil with a nil error.
//
// # Thread Safety
//
// BestFitAllocator instances are not thread-safe. Wrap one in Locked to
// serialise access from multiple goroutines.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap: Arena and Mapper primitives
//   - github.com/joshuapare/heapkit/heap/trace: workload replay harness
//   - github.com/joshuapare/heapkit/heap/metrics: Prometheus collector
package alloc
