// Package trace records allocator workloads as YAML and replays them.
//
// A trace is a list of operations over numbered slots. Each slot holds at
// most one live allocation; alloc and calloc fill an empty slot, realloc
// resizes the allocation in a slot (an empty slot behaves as alloc), and
// free empties it.
//
// Replay fills every payload with a slot-specific pattern and verifies it
// before each resize and release, so a replay doubles as an integrity check
// of the allocator under test:
//
//	tr, err := trace.Load("workload.yaml")
//	if err != nil {
//		return err
//	}
//	res, err := trace.Replay(a, tr, nil)
//
// Generate produces seeded random traces with the same mix of sizes the
// allocator distinguishes: small arena requests, page-sized requests, and
// requests above the mapping threshold.
package trace
