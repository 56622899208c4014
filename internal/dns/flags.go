package dns

// Flags is the structured view of the 16-bit header flags word.
//
// Decoding never rejects a value: every 16-bit word maps to a Flags and
// encodes back bit-exactly. Validity of opcode or response code values is a
// higher-layer concern.
type Flags struct {
	IsQuery            bool  // inverse of the QR bit (bit 15)
	Opcode             uint8 // bits 14-11
	Authoritative      bool  // bit 10
	Truncated          bool  // bit 9
	RecursionDesired   bool  // bit 8
	RecursionAvailable bool  // bit 7
	Reserved           uint8 // bits 6-4
	ResponseCode       uint8 // bits 3-0
}

// FlagsFromUint16 unpacks a raw flags word.
func FlagsFromUint16(w uint16) Flags {
	return Flags{
		IsQuery:            w&QRFlag == 0,
		Opcode:             uint8((w & OpcodeMask) >> 11),
		Authoritative:      w&AAFlag != 0,
		Truncated:          w&TCFlag != 0,
		RecursionDesired:   w&RDFlag != 0,
		RecursionAvailable: w&RAFlag != 0,
		Reserved:           uint8((w & ReservedMask) >> 4),
		ResponseCode:       uint8(w & RCodeMask),
	}
}

// Uint16 packs the flags back into a wire word. For any word w,
// FlagsFromUint16(w).Uint16() == w.
func (f Flags) Uint16() uint16 {
	var w uint16
	if !f.IsQuery {
		w |= QRFlag
	}
	w |= (uint16(f.Opcode) << 11) & OpcodeMask
	if f.Authoritative {
		w |= AAFlag
	}
	if f.Truncated {
		w |= TCFlag
	}
	if f.RecursionDesired {
		w |= RDFlag
	}
	if f.RecursionAvailable {
		w |= RAFlag
	}
	w |= (uint16(f.Reserved) << 4) & ReservedMask
	w |= uint16(f.ResponseCode) & RCodeMask
	return w
}

// RCode returns the response code as a typed value.
func (f Flags) RCode() RCode {
	return RCode(f.ResponseCode)
}

// QueryFlags returns the flags word used by the fixed query template:
// a standard query (opcode 0) with recursion desired, everything else clear.
// Wire value 0x0100.
func QueryFlags() Flags {
	return Flags{IsQuery: true, RecursionDesired: true}
}

// ResponseFlags builds the flags for a locally generated response to a query
// with flags reqFlags: QR set, RD carried over from the request, and the
// given response code.
func ResponseFlags(reqFlags Flags, rcode RCode) Flags {
	return Flags{
		IsQuery:          false,
		Opcode:           reqFlags.Opcode,
		RecursionDesired: reqFlags.RecursionDesired,
		ResponseCode:     uint8(rcode) & 0x0F,
	}
}
