package protocol

import "errors"

var (
	ErrBufferUnderflow  = errors.New("protocol: buffer underflow")
	ErrInvalidVarint    = errors.New("protocol: invalid varint")
	ErrVarintOverflow   = errors.New("protocol: value exceeds varint width")
	ErrUnsupportedWidth = errors.New("protocol: unsupported varint width")
	ErrInvalidTag       = errors.New("protocol: invalid tag")
	ErrUnknownEnumCase  = errors.New("protocol: unknown enum case")
	ErrInvalidUTF8      = errors.New("protocol: invalid utf-8")
	ErrTrailingData     = errors.New("protocol: trailing data")
)
