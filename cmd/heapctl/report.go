package main

import (
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/trace"
)

// Report is the JSON form of a replay or stress run.
type Report struct {
	Trace    string         `json:"trace,omitempty"`
	Rounds   int            `json:"rounds,omitempty"`
	Ops      int            `json:"ops"`
	ByKind   map[string]int `json:"by_kind"`
	Failures []string       `json:"failures,omitempty"`
	Moves    int            `json:"moves"`
	PeakLive int            `json:"peak_live_bytes"`
	Trimmed  int            `json:"trimmed_bytes,omitempty"`
	Usage    alloc.Usage    `json:"usage"`
	Stats    alloc.Stats    `json:"stats"`
}

func (r *Report) add(res *trace.Result) {
	if r.ByKind == nil {
		r.ByKind = make(map[string]int)
	}
	r.Ops += res.Ops
	for k, n := range res.ByKind {
		r.ByKind[string(k)] += n
	}
	for _, f := range res.Failures {
		r.Failures = append(r.Failures, f.Error())
	}
	r.Moves += res.Moves
	r.PeakLive = max(r.PeakLive, res.PeakLiveBytes)
}

func printReport(r *Report) error {
	if jsonOut {
		return printJSON(r)
	}

	if r.Trace != "" {
		printInfo("Trace: %s\n", r.Trace)
	}
	if r.Rounds > 0 {
		printInfo("Rounds: %d\n", r.Rounds)
	}
	printInfo("Operations: %d (alloc %d, calloc %d, realloc %d, free %d)\n",
		r.Ops, r.ByKind[string(trace.KindAlloc)], r.ByKind[string(trace.KindCalloc)],
		r.ByKind[string(trace.KindRealloc)], r.ByKind[string(trace.KindFree)])
	printInfo("Rejected: %d\n", len(r.Failures))
	for _, f := range r.Failures {
		printVerbose("  %s\n", f)
	}
	printInfo("Moved by realloc: %d\n", r.Moves)
	printInfo("Peak live: %s\n", formatBytes(int64(r.PeakLive)))
	if r.Trimmed > 0 {
		printInfo("Trimmed: %s\n", formatBytes(int64(r.Trimmed)))
	}

	u, s := r.Usage, r.Stats
	printInfo("\nArena:\n")
	printInfo("  Size: %s\n", formatBytes(int64(u.ArenaBytes)))
	printInfo("  Allocated: %d blocks, %s\n", u.AllocatedBlocks, formatBytes(int64(u.AllocatedBytes)))
	printInfo("  Free: %d blocks, %s (largest %s)\n", u.FreeBlocks, formatBytes(int64(u.FreeBytes)), formatBytes(int64(u.LargestFree)))
	printInfo("  Headers: %s\n", formatBytes(int64(u.HeaderBytes)))
	printInfo("  Mapped: %d regions, %s\n", u.MappedRegions, formatBytes(int64(u.MappedBytes)))

	printInfo("\nAllocator:\n")
	printInfo("  Arena requests: %d reused, %d grew the heap\n", s.AllocFastPath, s.AllocSlowPath)
	printInfo("  Heap growth: %d calls, %s\n", s.GrowCalls, formatBytes(s.GrowBytes))
	printInfo("  Splits: %d, merges: %d\n", s.SplitCount, s.CoalesceMerges)
	printInfo("  Realloc: %d shrunk, %d grown in place, %d relocated\n", s.InPlaceShrinks, s.InPlaceGrows, s.Relocations)
	printInfo("  Mappings: %d mapped, %d unmapped\n", s.MapCalls, s.UnmapCalls)
	return nil
}
