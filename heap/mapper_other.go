//go:build !unix

package heap

// AnonMapper falls back to Go memory on platforms without mmap.
type AnonMapper struct {
	mem MemMapper
}

// Map returns a zeroed region of size bytes.
func (m *AnonMapper) Map(size int) ([]byte, error) { return m.mem.Map(size) }

// Unmap releases a region returned by Map.
func (m *AnonMapper) Unmap(region []byte) error { return m.mem.Unmap(region) }
