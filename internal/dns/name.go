package dns

import (
	"fmt"
	"strings"
)

const (
	// maxLabelLength is the RFC 1035 per-label limit; the top two bits of a
	// length byte distinguish lengths (00) from compression pointers (11).
	maxLabelLength = 63

	// maxNameWireLength caps the total encoded name, terminator included.
	maxNameWireLength = 255

	// maxPointerHops bounds compression-pointer chases. A legitimate name
	// fits in 255 wire bytes and cannot need anywhere near this many
	// indirections; exceeding it means a pointer cycle or a maliciously
	// deep chain, and the decode fails instead of spinning.
	maxPointerHops = 32
)

// NormalizeName lowercases a domain name and strips the trailing dot.
// DNS names are case-insensitive per RFC 1035 Section 3.1.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// EncodeName encodes a domain name to DNS wire format (RFC 1035 Section 3.1).
//
// DNS names are encoded as a sequence of labels, where each label is:
//   - 1 byte: length (1-63)
//   - N bytes: label characters
//
// The name is terminated by a zero-length label (single 0x00 byte).
//
// Example: "www.example.com" encodes as:
//
//	[3]www[7]example[3]com[0]
//	0x03 'w' 'w' 'w' 0x07 'e' 'x' 'a' 'm' 'p' 'l' 'e' 0x03 'c' 'o' 'm' 0x00
//
// No compression pointers are produced; compression is decode-only behavior
// in this codec.
func EncodeName(domain string) ([]byte, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: domain name must be non-empty", ErrMalformedPacket)
	}
	domain = trimDot(domain)
	if domain == "" {
		return []byte{0}, nil // Root domain
	}

	out := make([]byte, 0, len(domain)+2)
	labelStart := 0
	for i := 0; i <= len(domain); i++ {
		if i < len(domain) && domain[i] != '.' {
			continue
		}
		if i == labelStart {
			return nil, fmt.Errorf("%w: invalid domain name (empty label): %q", ErrMalformedPacket, domain)
		}
		label := domain[labelStart:i]

		for j := range len(label) {
			if label[j] > 0x7F {
				return nil, fmt.Errorf("%w: domain name must be ASCII: %q", ErrMalformedPacket, domain)
			}
		}
		if len(label) > maxLabelLength {
			return nil, fmt.Errorf("%w: DNS label too long (%d > %d): %q",
				ErrMalformedPacket, len(label), maxLabelLength, label)
		}

		out = append(out, byte(len(label)))
		out = append(out, label...)
		labelStart = i + 1
	}
	out = append(out, 0) // Terminating zero-length label

	if len(out) > maxNameWireLength {
		return nil, fmt.Errorf("%w: encoded domain name too long (%d > %d)",
			ErrMalformedPacket, len(out), maxNameWireLength)
	}
	return out, nil
}

// DecodeName decodes a possibly-compressed DNS name at the cursor position.
//
// DNS name compression (RFC 1035 Section 4.1.4) replaces a name suffix with
// a 2-byte pointer whose top two bits are set (11xxxxxx pattern = 0xC0); the
// remaining 14 bits are a byte offset from the start of the same datagram:
//
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	| 1  1|                OFFSET                   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//
// A pointer may appear anywhere a length byte is expected, including after
// inline labels (the usual inline-prefix, compressed-suffix case). Pointer
// chasing is "append and return": the decoder saves the position following
// the first pointer, jumps, keeps reading, and restores the saved position
// when the name terminates. The cursor therefore ends immediately after the
// name's own bytes, not after the chased target.
//
// Offsets already visited, more than maxPointerHops indirections, or a name
// exceeding maxNameWireLength all fail with ErrMalformedPacket: the naive
// chase is unbounded against adversarial input (pointer cycles, forward
// jumps) and must not be.
//
// Returns a dot-separated name without a trailing dot. Label octets pass
// through verbatim; RFC 1035 places no character-set restriction on labels.
func DecodeName(cur *Cursor) (string, error) {
	labels := make([]string, 0, 6)
	visited := make(map[int]struct{})
	restore := -1 // position after the first pointer; -1 until a pointer is seen
	wireLen := 0

	for {
		b, err := cur.PeekUint8()
		if err != nil {
			return "", fmt.Errorf("decoding DNS name: %w", err)
		}

		if isCompressionPointer(b) {
			raw, err := cur.Advance(2)
			if err != nil {
				return "", fmt.Errorf("decoding DNS compression pointer: %w", err)
			}
			if restore < 0 {
				restore = cur.Pos()
			}
			target := int(Collate(raw)) &^ 0xC000
			if target >= cur.Len() {
				return "", fmt.Errorf("%w: compression pointer offset %d outside %d-byte datagram",
					ErrMalformedPacket, target, cur.Len())
			}
			if _, seen := visited[target]; seen {
				return "", fmt.Errorf("%w: compression pointer loop via offset %d", ErrMalformedPacket, target)
			}
			visited[target] = struct{}{}
			if len(visited) > maxPointerHops {
				return "", fmt.Errorf("%w: too many compression pointer indirections", ErrMalformedPacket)
			}
			if err := cur.Seek(target); err != nil {
				return "", err
			}
			continue
		}

		// Length byte. Top bits 01/10 are reserved encodings per RFC 1035.
		if err := cur.Skip(1); err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		if b > maxLabelLength {
			return "", fmt.Errorf("%w: invalid label length byte 0x%02x (reserved high bits)", ErrMalformedPacket, b)
		}

		label, err := cur.Advance(int(b))
		if err != nil {
			return "", fmt.Errorf("reading %d-byte DNS label: %w", b, err)
		}
		wireLen += int(b) + 1
		if wireLen+1 > maxNameWireLength {
			return "", fmt.Errorf("%w: decoded name exceeds %d wire bytes", ErrMalformedPacket, maxNameWireLength)
		}
		labels = append(labels, string(label))
	}

	if restore >= 0 {
		if err := cur.Seek(restore); err != nil {
			return "", err
		}
	}
	return strings.Join(labels, "."), nil
}

// isCompressionPointer checks if the label length byte indicates a
// compression pointer (the two high bits set, 11xxxxxx = 0xC0 mask).
func isCompressionPointer(b byte) bool {
	return b&0xC0 == 0xC0
}

// trimDot removes all trailing dots from a string.
func trimDot(s string) string {
	for len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
