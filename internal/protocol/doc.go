// Package protocol owns the ipc wire codec.
//
// Ownership boundary:
// - cursor reads over an immutable buffer
// - varint arithmetic for 16/32/64/128-bit widths
// - composite codecs: string, list, option, result, enum, struct
//
// Everything here is a pure function of bytes and typed values. Buffers and
// cursors are created per encode/decode and never shared across calls.
//
// Wire forms:
//
//	varint     7-bit groups, least significant first, high bit = continuation
//	string     u64 varint byte length, then UTF-8 bytes
//	list<T>    u64 varint element count, then elements
//	option<T>  tag byte 0 (none) | 1 (some) then T
//	result<T,E> tag byte 0 (ok T) | 1 (err E)
//	enum       u32 varint ordinal
//	struct     fields in declaration order, no framing
package protocol
