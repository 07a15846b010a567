// Package metrics exports allocator statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Source is anything that can report allocator counters and usage.
// *alloc.BestFitAllocator and *alloc.Locked both qualify; use the latter
// when the collector is scraped concurrently with allocation.
type Source interface {
	Stats() alloc.Stats
	Usage() alloc.Usage
}

// Collector is a prometheus.Collector reading a Source on every scrape.
type Collector struct {
	src Source

	calls      *prometheus.Desc
	paths      *prometheus.Desc
	growCalls  *prometheus.Desc
	growBytes  *prometheus.Desc
	splits     *prometheus.Desc
	merges     *prometheus.Desc
	resizes    *prometheus.Desc
	mapCalls   *prometheus.Desc
	unmapCalls *prometheus.Desc
	trimCalls  *prometheus.Desc
	trimBytes  *prometheus.Desc

	arenaBytes  *prometheus.Desc
	bytes       *prometheus.Desc
	blocks      *prometheus.Desc
	largestFree *prometheus.Desc
	mappedRegs  *prometheus.Desc
	mappedBytes *prometheus.Desc
}

// NewCollector returns a collector for src. Metric names are prefixed with
// namespace and the "heap" subsystem.
func NewCollector(namespace string, src Source) *Collector {
	name := func(n string) string { return prometheus.BuildFQName(namespace, "heap", n) }
	return &Collector{
		src: src,

		calls: prometheus.NewDesc(name("calls_total"),
			"Allocator entry point calls.", []string{"op"}, nil),
		paths: prometheus.NewDesc(name("arena_requests_total"),
			"Arena requests by how they were served.", []string{"path"}, nil),
		growCalls: prometheus.NewDesc(name("grow_calls_total"),
			"Successful heap extensions, the initial arena included.", nil, nil),
		growBytes: prometheus.NewDesc(name("grow_bytes_total"),
			"Bytes added to the arena.", nil, nil),
		splits: prometheus.NewDesc(name("splits_total"),
			"Blocks split in two.", nil, nil),
		merges: prometheus.NewDesc(name("coalesce_merges_total"),
			"Adjacent free blocks merged away.", nil, nil),
		resizes: prometheus.NewDesc(name("resizes_total"),
			"Realloc outcomes.", []string{"outcome"}, nil),
		mapCalls: prometheus.NewDesc(name("map_calls_total"),
			"Regions mapped for large blocks.", nil, nil),
		unmapCalls: prometheus.NewDesc(name("unmap_calls_total"),
			"Regions unmapped.", nil, nil),
		trimCalls: prometheus.NewDesc(name("trim_calls_total"),
			"Trims that released memory.", nil, nil),
		trimBytes: prometheus.NewDesc(name("trim_bytes_total"),
			"Bytes handed back to the heap by trims.", nil, nil),

		arenaBytes: prometheus.NewDesc(name("arena_bytes"),
			"Size of the arena.", nil, nil),
		bytes: prometheus.NewDesc(name("block_bytes"),
			"Arena bytes by use.", []string{"kind"}, nil),
		blocks: prometheus.NewDesc(name("blocks"),
			"Directory blocks by status.", []string{"status"}, nil),
		largestFree: prometheus.NewDesc(name("largest_free_bytes"),
			"Payload of the largest free block.", nil, nil),
		mappedRegs: prometheus.NewDesc(name("mapped_regions"),
			"Live mapped regions.", nil, nil),
		mappedBytes: prometheus.NewDesc(name("mapped_bytes"),
			"Bytes in live mapped regions, headers included.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.calls, c.paths, c.growCalls, c.growBytes, c.splits, c.merges,
		c.resizes, c.mapCalls, c.unmapCalls, c.trimCalls, c.trimBytes,
		c.arenaBytes, c.bytes, c.blocks, c.largestFree, c.mappedRegs, c.mappedBytes,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	u := c.src.Usage()

	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	counter(c.calls, float64(s.AllocCalls), "alloc")
	counter(c.calls, float64(s.CallocCalls), "calloc")
	counter(c.calls, float64(s.ReallocCalls), "realloc")
	counter(c.calls, float64(s.FreeCalls), "free")
	counter(c.paths, float64(s.AllocFastPath), "reuse")
	counter(c.paths, float64(s.AllocSlowPath), "grow")
	counter(c.growCalls, float64(s.GrowCalls))
	counter(c.growBytes, float64(s.GrowBytes))
	counter(c.splits, float64(s.SplitCount))
	counter(c.merges, float64(s.CoalesceMerges))
	counter(c.resizes, float64(s.InPlaceShrinks), "shrink")
	counter(c.resizes, float64(s.InPlaceGrows), "grow")
	counter(c.resizes, float64(s.Relocations), "move")
	counter(c.mapCalls, float64(s.MapCalls))
	counter(c.unmapCalls, float64(s.UnmapCalls))
	counter(c.trimCalls, float64(s.TrimCalls))
	counter(c.trimBytes, float64(s.TrimBytes))

	gauge(c.arenaBytes, float64(u.ArenaBytes))
	gauge(c.bytes, float64(u.HeaderBytes), "header")
	gauge(c.bytes, float64(u.FreeBytes), "free")
	gauge(c.bytes, float64(u.AllocatedBytes), "allocated")
	gauge(c.blocks, float64(u.FreeBlocks), "free")
	gauge(c.blocks, float64(u.AllocatedBlocks), "allocated")
	gauge(c.largestFree, float64(u.LargestFree))
	gauge(c.mappedRegs, float64(u.MappedRegions))
	gauge(c.mappedBytes, float64(u.MappedBytes))
}

var _ prometheus.Collector = (*Collector)(nil)
