package store

import (
	"encoding/binary"
	"fmt"
)

// Namespace encodes name with a two byte length prefix, so no namespace is a prefix of another.
func Namespace(name string) []byte {
	out := make([]byte, 2, 2+len(name))
	binary.BigEndian.PutUint16(out, uint16(len(name)))
	return append(out, name...)
}

// U64 encodes n big-endian so byte order matches numeric order.
func U64(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}

// ParseU64 is the inverse of U64.
func ParseU64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("key too short for uint64: %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b[:8]), nil
}

// Str encodes s as a length-prefixed component of a composite key.
func Str(s string) []byte {
	return Namespace(s)
}

// ParseStr decodes a Str component and returns the remaining bytes.
func ParseStr(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, fmt.Errorf("key too short for string component")
	}
	n := int(binary.BigEndian.Uint16(b))
	if len(b) < 2+n {
		return "", nil, fmt.Errorf("string component truncated: want %d bytes, have %d", n, len(b)-2)
	}
	return string(b[2 : 2+n]), b[2+n:], nil
}

// Join concatenates key components.
func Join(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
