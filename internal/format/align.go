package format

// Align8 returns n aligned up to the next 8-byte boundary.
// Callers are responsible for ensuring n+7 does not overflow.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// AlignUp returns n aligned up to a power-of-two boundary.
// Used by the arena to round commits to page size.
func AlignUp(n, boundary int) int {
	return (n + boundary - 1) & ^(boundary - 1)
}
