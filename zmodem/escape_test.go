package zmodem

import (
	"bytes"
	"testing"
)

func TestEscapeTableMustEscape(t *testing.T) {
	mustEscape := []byte{ZDLE, 0x10, XON, XOFF, 0x90, 0x91, 0x93, 0x7F, 0xFF}
	for _, b := range mustEscape {
		if !needsEscape(b) {
			t.Errorf("byte 0x%02x should require escaping", b)
		}
	}
}

func TestEscapeTablePassThrough(t *testing.T) {
	for _, b := range []byte("the quick brown fox") {
		if needsEscape(b) {
			t.Errorf("byte 0x%02x (%q) should not require escaping", b, b)
		}
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		escaped := escape([]byte{b})
		var got byte
		if len(escaped) == 1 {
			got = escaped[0]
		} else if len(escaped) == 2 && escaped[0] == ZDLE {
			got = unescapeTable[escaped[1]]
		} else {
			t.Fatalf("unexpected escaped length for 0x%02x: %v", b, escaped)
		}
		if got != b {
			t.Errorf("round-trip failed for 0x%02x: escaped=%v, recovered=0x%02x", b, escaped, got)
		}
	}
}

func TestEscapeIntoAllZDLEBytes(t *testing.T) {
	src := bytes.Repeat([]byte{ZDLE}, 64)
	var buf bytes.Buffer
	escapeInto(&buf, src)

	// Every ZDLE must be doubled into a ZDLE,escaped pair.
	if buf.Len() != len(src)*2 {
		t.Fatalf("escaped length = %d, want %d", buf.Len(), len(src)*2)
	}
	out := buf.Bytes()
	for i := 0; i < len(out); i += 2 {
		if out[i] != ZDLE {
			t.Errorf("offset %d: expected ZDLE marker, got 0x%02x", i, out[i])
		}
	}
}

func TestIsSubpacketKind(t *testing.T) {
	for _, k := range []byte{ZCRCE, ZCRCG, ZCRCQ, ZCRCW} {
		if !isSubpacketKind(k) {
			t.Errorf("0x%02x should be a subpacket terminator kind", k)
		}
	}
	if isSubpacketKind('A') {
		t.Error("'A' should not be a subpacket terminator kind")
	}
}
