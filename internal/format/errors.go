package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a header.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadStatus indicates a header carried an undefined status value.
	ErrBadStatus = errors.New("format: invalid block status")
	// ErrMisaligned indicates a header recorded a size that is not 8-byte aligned.
	ErrMisaligned = errors.New("format: misaligned block size")
)
