package dns

import "fmt"

// MaxDatagramSize is the largest DNS datagram this codec deals with.
// The transport is plain UDP without EDNS0 size negotiation, so messages
// are capped at the classic RFC 1035 limit.
const MaxDatagramSize = 512

// Collate folds a byte sequence into an unsigned integer, most-significant
// byte first. Every multi-byte wire field goes through this.
func Collate(b []byte) uint64 {
	var acc uint64
	for _, x := range b {
		acc = acc<<8 | uint64(x)
	}
	return acc
}

// Cursor is a read cursor over a single datagram buffer.
//
// Peek returns upcoming bytes without moving the position; Advance returns
// them and moves past. Both fail with an explicit error when the read would
// cross the end of the buffer: the buffer is network input and a short read
// is a protocol violation, never something to truncate silently.
//
// Returned slices alias the underlying buffer; callers that retain bytes
// must copy them.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current read position.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the total buffer length.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Seek moves the cursor to an absolute offset. Used by the name decoder to
// jump to a compression-pointer target and to restore the saved position
// afterwards. Offsets may equal the buffer length (cursor at logical end).
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return fmt.Errorf("%w: seek to offset %d outside %d-byte datagram", ErrMalformedPacket, off, len(c.buf))
	}
	c.pos = off
	return nil
}

// Peek returns the next n bytes without consuming them.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if err := c.check(n); err != nil {
		return nil, err
	}
	return c.buf[c.pos : c.pos+n], nil
}

// Advance returns the next n bytes and moves the position past them.
func (c *Cursor) Advance(n int) ([]byte, error) {
	if err := c.check(n); err != nil {
		return nil, err
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

// Skip consumes n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	if err := c.check(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Fixed-width reads. Semantically identical to Peek/Advance of the same
// width; they exist so field parsing reads as one operation per field.

// PeekUint8 returns the next byte without consuming it.
func (c *Cursor) PeekUint8() (uint8, error) {
	b, err := c.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint8 consumes one byte.
func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.Advance(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 consumes two bytes as a big-endian value.
func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.Advance(2)
	if err != nil {
		return 0, err
	}
	return uint16(Collate(b)), nil
}

// Uint32 consumes four bytes as a big-endian value.
func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Advance(4)
	if err != nil {
		return 0, err
	}
	return uint32(Collate(b)), nil
}

func (c *Cursor) check(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative read length %d", ErrMalformedPacket, n)
	}
	if c.pos+n > len(c.buf) {
		return fmt.Errorf("%w: read of %d bytes at offset %d exceeds %d-byte datagram",
			ErrMalformedPacket, n, c.pos, len(c.buf))
	}
	return nil
}
