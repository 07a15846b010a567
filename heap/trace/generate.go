package trace

import (
	"fmt"
	"math/rand"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// GenConfig controls Generate. Zero fields take the defaults noted below.
type GenConfig struct {
	Name  string
	Seed  int64
	Ops   int // default 1000
	Slots int // default 64

	// MaxSmall bounds small request sizes. Default 1024.
	MaxSmall int

	// PagePercent and LargePercent are the shares of size draws in the
	// page range [4 KiB, 32 KiB) and above alloc.MmapThreshold. Defaults
	// 8 and 2.
	PagePercent  int
	LargePercent int
}

func (c GenConfig) withDefaults() GenConfig {
	if c.Ops <= 0 {
		c.Ops = 1000
	}
	if c.Slots <= 0 {
		c.Slots = 64
	}
	if c.MaxSmall <= 0 {
		c.MaxSmall = 1024
	}
	if c.PagePercent <= 0 {
		c.PagePercent = 8
	}
	if c.LargePercent <= 0 {
		c.LargePercent = 2
	}
	return c
}

// Generate returns a valid random trace. The same config always yields the
// same trace.
func Generate(cfg GenConfig) *Trace {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	size := func() int {
		switch r := rng.Intn(100); {
		case r < cfg.LargePercent:
			return alloc.MmapThreshold + rng.Intn(alloc.MmapThreshold)
		case r < cfg.LargePercent+cfg.PagePercent:
			return 4096 + rng.Intn(28*1024)
		default:
			return 1 + rng.Intn(cfg.MaxSmall)
		}
	}

	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("random-%d", cfg.Seed)
	}
	t := &Trace{
		Name:  name,
		Seed:  cfg.Seed,
		Slots: cfg.Slots,
		Ops:   make([]Op, 0, cfg.Ops),
	}

	live := make([]bool, cfg.Slots)
	for range cfg.Ops {
		s := rng.Intn(cfg.Slots)
		var op Op
		switch r := rng.Intn(10); {
		case !live[s] && r < 7:
			op = Op{Kind: KindAlloc, Slot: s, Size: size()}
		case !live[s]:
			elem := 1 << rng.Intn(5)
			op = Op{Kind: KindCalloc, Slot: s, Count: 1 + rng.Intn(size()/elem+1), Size: elem}
		case r < 4:
			op = Op{Kind: KindRealloc, Slot: s, Size: size()}
		default:
			op = Op{Kind: KindFree, Slot: s}
		}
		live[s] = op.Kind != KindFree
		t.Ops = append(t.Ops, op)
	}
	return t
}
