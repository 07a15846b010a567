package alloc

import "github.com/joshuapare/heapkit/heap"

// Heap is a type alias for the canonical interface defined in package heap.
type Heap = heap.Heap

// Mapper is a type alias for the canonical interface defined in package heap.
type Mapper = heap.Mapper
