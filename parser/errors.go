package parser

import "fmt"

// TruncatedError reports a short read inside a block header or payload.
type TruncatedError struct {
	Offset   int64
	Expected int
	Got      int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated read at offset %d: expected %d bytes, got %d", e.Offset, e.Expected, e.Got)
}

// UnknownBlockTypeError reports a block-type byte with no definition. The
// format has no synchronization marker, so the scan cannot resume past it.
type UnknownBlockTypeError struct {
	Byte   byte
	Offset int64
}

func (e *UnknownBlockTypeError) Error() string {
	return fmt.Sprintf("unknown block type 0x%02x at offset %d", e.Byte, e.Offset)
}

// MalformedHeaderError reports a header field that failed a sanity check,
// such as a base position beyond the end of the index file.
type MalformedHeaderError struct {
	Field  string
	Offset int64
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed header field %q at offset %d", e.Field, e.Offset)
}
