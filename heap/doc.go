// Package heap provides the operating-system collaborators consumed by the
// allocator in heap/alloc.
//
// # Overview
//
// Two primitives are modelled:
//
//   - Heap: a single contiguous arena grown (or shrunk) at its end by moving
//     a break, in the manner of sbrk(2).
//   - Mapper: independently mapped anonymous regions, each released as a
//     whole, in the manner of mmap(2)/munmap(2).
//
// # Implementations
//
// Arena: the Heap implementation. NewArena reserves a range of virtual
// address space with PROT_NONE and commits pages read/write as the break
// advances, so the arena never moves and slices into it stay valid across
// growth. On platforms without mmap it falls back to NewMemArena, which
// preallocates Go memory up to the limit.
//
// AnonMapper: anonymous private mappings via golang.org/x/sys/unix.
//
// MemMapper: Go-memory regions with a byte limit for failure injection.
//
// CountingMapper: wraps any Mapper and tracks live regions so tests and
// bounded-run harnesses can assert that every mapping was released.
//
// # Thread Safety
//
// None of the types in this package are safe for concurrent use.
package heap
