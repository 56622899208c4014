// Package dns implements an RFC 1035 wire-format codec for DNS messages:
// header and flags, questions, resource records, and domain names with
// compression-pointer support.
//
// Standards Compliance:
//
//   - RFC 1035: Domain Names - Implementation and Specification (core DNS protocol)
//   - RFC 1034: Domain Names - Concepts and Facilities (DNS concepts)
//
// The codec is transport-free: it operates on a single in-memory datagram and
// never performs I/O. All multi-byte fields are big-endian.
//
// Error Handling:
//
// All errors are wrapped with context using fmt.Errorf("...: %w", err).
// This preserves error chains while adding operational context. A failed
// parse returns a typed error and no partial result.
package dns

import "errors"

var (
	// ErrMalformedPacket is the sentinel error for any protocol violation in
	// an incoming datagram: out-of-bounds reads, pointer offsets outside the
	// buffer, compression loops, or RDATA length mismatches.
	// Wrap this with fmt.Errorf("context: %w", ErrMalformedPacket) to add context.
	ErrMalformedPacket = errors.New("dns: malformed packet")

	// ErrUnsupportedRecordType marks a record type that has no typed RDATA
	// decoder. The parser never returns it on its own (unknown types decode
	// into OpaqueRecord); it exists for callers that require typed payloads.
	ErrUnsupportedRecordType = errors.New("dns: unsupported record type")
)
