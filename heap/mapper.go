package heap

import "fmt"

// MemMapper hands out regions of Go memory. It keeps every live region so
// Unmap can reject foreign or repeated releases, and it can refuse mappings
// past a byte limit to exercise allocation-failure paths.
type MemMapper struct {
	// Limit caps the total bytes mapped at once. Zero means unlimited.
	Limit int

	live      map[*byte]int
	liveBytes int
}

// Map returns a zeroed region of size bytes.
func (m *MemMapper) Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("heap: map %d bytes: %w", size, ErrInvalidSize)
	}
	if m.Limit > 0 && size > m.Limit-m.liveBytes {
		return nil, fmt.Errorf("heap: map %d bytes with %d of %d in use: %w",
			size, m.liveBytes, m.Limit, ErrNoMemory)
	}
	if m.live == nil {
		m.live = make(map[*byte]int)
	}
	region := make([]byte, size)
	m.live[&region[0]] = size
	m.liveBytes += size
	return region, nil
}

// Unmap forgets a region returned by Map.
func (m *MemMapper) Unmap(region []byte) error {
	if len(region) == 0 {
		return fmt.Errorf("heap: unmap empty region: %w", ErrNotMapped)
	}
	size, ok := m.live[&region[0]]
	if !ok || size != len(region) {
		return ErrNotMapped
	}
	delete(m.live, &region[0])
	m.liveBytes -= size
	return nil
}

// Live returns the number of regions currently mapped.
func (m *MemMapper) Live() int { return len(m.live) }

// LiveBytes returns the total size of the regions currently mapped.
func (m *MemMapper) LiveBytes() int { return m.liveBytes }

// CountingMapper wraps a Mapper and records mapping traffic. A bounded run
// that ends with Live() == 0 released every region it mapped.
type CountingMapper struct {
	Mapper Mapper

	Maps      int // successful Map calls
	Unmaps    int // successful Unmap calls
	Failures  int // failed Map or Unmap calls
	liveBytes int
}

// NewCountingMapper wraps m.
func NewCountingMapper(m Mapper) *CountingMapper {
	return &CountingMapper{Mapper: m}
}

// Map delegates to the wrapped mapper.
func (c *CountingMapper) Map(size int) ([]byte, error) {
	region, err := c.Mapper.Map(size)
	if err != nil {
		c.Failures++
		return nil, err
	}
	c.Maps++
	c.liveBytes += len(region)
	return region, nil
}

// Unmap delegates to the wrapped mapper.
func (c *CountingMapper) Unmap(region []byte) error {
	size := len(region)
	if err := c.Mapper.Unmap(region); err != nil {
		c.Failures++
		return err
	}
	c.Unmaps++
	c.liveBytes -= size
	return nil
}

// Live returns the number of regions mapped and not yet unmapped.
func (c *CountingMapper) Live() int { return c.Maps - c.Unmaps }

// LiveBytes returns the total size of the live regions.
func (c *CountingMapper) LiveBytes() int { return c.liveBytes }
