package zmodem

import "bytes"

// escapeTable and unescapeTable are fixed 256-entry lookup tables mapping
// every octet to its on-the-wire form and back. Unlike lrzsz's zsendline(),
// which escapes conditionally (based on bit patterns, turbo-escape mode,
// and a CR-after-'@' special case), this table is unconditional: a byte
// either always escapes or never does. This is deliberately simpler than
// zm.c's zsendline_init() and matches the fixed-table design this protocol
// engine commits to.
var escapeTable [256]byte
var unescapeTable [256]byte

func init() {
	for i := 0; i < 256; i++ {
		escapeTable[i] = byte(i)
		unescapeTable[i] = byte(i) ^ 0x40
	}
	// ZDLE itself, DLE/XON/XOFF and their high-bit duplicates: escape by
	// XORing with 0x40.
	for _, b := range [...]byte{ZDLE, 0x10, XON, XOFF, 0x90, 0x91, 0x93} {
		escapeTable[b] = b ^ 0x40
	}
	// DEL and 0xFF don't fold under plain XOR; lrzsz calls these "rubouts"
	// (ZRUB0/ZRUB1) and gives them their own escape codes.
	escapeTable[0x7F] = 0x6C
	escapeTable[0xFF] = 0x6D

	for i, escaped := range escapeTable {
		if byte(i) != escaped {
			unescapeTable[escaped] = byte(i)
		}
	}
}

// needsEscape reports whether b must be sent as ZDLE, escapeTable[b].
func needsEscape(b byte) bool {
	return escapeTable[b] != b
}

// escapeInto appends the escaped form of src to dst.
func escapeInto(dst *bytes.Buffer, src []byte) {
	for _, b := range src {
		if e := escapeTable[b]; e != b {
			dst.WriteByte(ZDLE)
			dst.WriteByte(e)
		} else {
			dst.WriteByte(b)
		}
	}
}

// escape returns the escaped form of src as a new slice.
func escape(src []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(src) + len(src)/8 + 8)
	escapeInto(&buf, src)
	return buf.Bytes()
}

// isSubpacketKind reports whether b is one of the four subpacket
// terminator bytes (ZCRCE/ZCRCG/ZCRCQ/ZCRCW). These ride immediately after
// a ZDLE like escaped data does, but are structural tokens, not escaped
// octets, so the unescape table must never be applied to them.
func isSubpacketKind(b byte) bool {
	return b == ZCRCE || b == ZCRCG || b == ZCRCQ || b == ZCRCW
}
